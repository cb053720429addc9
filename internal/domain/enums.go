package domain

import (
	"fmt"
	"strings"
)

// TileClass distinguishes single-acquisition tiles from composite mosaics.
// Codes match the tile_class_id values stored in the datacube schema.
type TileClass int

const (
	TileClassSingle TileClass = 1
	TileClassMosaic TileClass = 4
)

// TileClasses is the closed set every query is restricted to; any other
// classification code present in the schema is always excluded.
var TileClasses = []TileClass{TileClassSingle, TileClassMosaic}

// TileType identifies the grid a tile is cut to. The one-degree grid is the
// only type currently supported.
type TileType int

const TileTypeOneDegree TileType = 1

// ProcessingLevel is a category of derived product. Codes match
// dataset.level_id in the datacube schema.
type ProcessingLevel int

const (
	LevelOrtho       ProcessingLevel = 1
	LevelNBAR        ProcessingLevel = 2
	LevelPQA         ProcessingLevel = 3
	LevelFC          ProcessingLevel = 4
	LevelL1T         ProcessingLevel = 5
	LevelMap         ProcessingLevel = 10
	LevelDSM         ProcessingLevel = 100
	LevelDEM         ProcessingLevel = 110
	LevelDEMSmoothed ProcessingLevel = 120
	LevelDEMHydro    ProcessingLevel = 130
)

// TerrainLevels are the elevation products joined purely on grid indices;
// they carry no acquisition information.
var TerrainLevels = []ProcessingLevel{LevelDSM, LevelDEM, LevelDEMSmoothed, LevelDEMHydro}

var levelNames = map[ProcessingLevel]string{
	LevelOrtho:       "ORTHO",
	LevelNBAR:        "NBAR",
	LevelPQA:         "PQA",
	LevelFC:          "FC",
	LevelL1T:         "L1T",
	LevelMap:         "MAP",
	LevelDSM:         "DSM",
	LevelDEM:         "DEM",
	LevelDEMSmoothed: "DEM_S",
	LevelDEMHydro:    "DEM_H",
}

// levelLabels are the dataset-type labels downstream consumers key on.
// They differ from the enum names for historic reasons (ARG25 is the
// 25m surface reflectance product derived from NBAR, and so on).
var levelLabels = map[ProcessingLevel]string{
	LevelOrtho:       "ORTHO",
	LevelNBAR:        "ARG25",
	LevelPQA:         "PQ25",
	LevelFC:          "FC25",
	LevelL1T:         "L1T",
	LevelMap:         "MAP",
	LevelDSM:         "DSM",
	LevelDEM:         "DEM",
	LevelDEMSmoothed: "DEM_SMOOTHED",
	LevelDEMHydro:    "DEM_HYDROLOGICALLY_ENFORCED",
}

// Valid reports whether the level is a member of the closed enumeration.
func (l ProcessingLevel) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// String returns the enum name (e.g. "NBAR").
func (l ProcessingLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("ProcessingLevel(%d)", int(l))
}

// Label returns the dataset-type label used in result records and exports
// (e.g. "ARG25" for NBAR).
func (l ProcessingLevel) Label() string {
	return levelLabels[l]
}

// ParseProcessingLevel accepts either the enum name ("NBAR") or the
// dataset-type label ("ARG25"), case-insensitively.
func ParseProcessingLevel(s string) (ProcessingLevel, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for level, name := range levelNames {
		if upper == name || upper == levelLabels[level] {
			return level, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// Satellite is the tag identifying the platform an acquisition came from.
type Satellite string

const (
	SatelliteLS5 Satellite = "LS5"
	SatelliteLS7 Satellite = "LS7"
	SatelliteLS8 Satellite = "LS8"
)

// Valid reports whether the satellite tag is a member of the closed set.
func (s Satellite) Valid() bool {
	switch s {
	case SatelliteLS5, SatelliteLS7, SatelliteLS8:
		return true
	}
	return false
}

// ParseSatellite converts a tag string to a Satellite, case-insensitively.
func ParseSatellite(s string) (Satellite, error) {
	sat := Satellite(strings.ToUpper(strings.TrimSpace(s)))
	if !sat.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSatellite, s)
	}
	return sat, nil
}

// SortDirection orders a listing's ordering keys ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Valid reports whether the direction is asc or desc.
func (d SortDirection) Valid() bool {
	return d == SortAsc || d == SortDesc
}

// ParseSortDirection converts a string to a SortDirection; empty defaults
// to ascending.
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return SortAsc, nil
	case "desc":
		return SortDesc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
}
