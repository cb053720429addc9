package domain

import (
	"fmt"
	"strings"
	"time"
)

// Filter is the predicate set shared by cell and tile listings: grid index
// sets, satellites, an inclusive acquisition date range on end_datetime, the
// required dataset types, and the sort direction applied to the operation's
// ordering keys.
type Filter struct {
	X          []int
	Y          []int
	Satellites []Satellite
	AcqMin     time.Time
	AcqMax     time.Time
	Levels     []ProcessingLevel
	Sort       SortDirection
}

// Validate checks membership of every enum code and the shape of the range
// filters. AcqMin equal to AcqMax is a valid single-day range. The level set
// must not repeat a level: NBAR and ARG25 name the same product, and a
// repeated level would alias the same join twice in the generated SQL.
func (f Filter) Validate() error {
	if len(f.X) == 0 || len(f.Y) == 0 {
		return ErrEmptyGridRange
	}
	if err := validateSatellites(f.Satellites); err != nil {
		return err
	}
	if err := validateLevels(f.Levels); err != nil {
		return err
	}
	if _, err := acqInterval(f.AcqMin, f.AcqMax); err != nil {
		return err
	}
	if !f.Sort.Valid() {
		return ErrInvalidSort
	}
	return nil
}

func validateSatellites(sats []Satellite) error {
	if len(sats) == 0 {
		return ErrNoSatellites
	}
	for _, s := range sats {
		if !s.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownSatellite, string(s))
		}
	}
	return nil
}

func validateLevels(levels []ProcessingLevel) error {
	if len(levels) == 0 {
		return ErrNoLevels
	}
	seen := make(map[ProcessingLevel]struct{}, len(levels))
	for _, l := range levels {
		if !l.Valid() {
			return fmt.Errorf("%w: %d", ErrUnknownLevel, int(l))
		}
		if _, ok := seen[l]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateLevel, l)
		}
		seen[l] = struct{}{}
	}
	return nil
}

// acqInterval converts inclusive acquisition date bounds to the half-open
// interval they denote: the max date widens by one day and zero bounds widen
// to the sentinel instants.
func acqInterval(min, max time.Time) (TimeInterval, error) {
	if !max.IsZero() {
		max = max.AddDate(0, 0, 1)
	}
	return NewTimeInterval(min, max)
}

// MissingSpec names the dataset-type pairing for "missing" listings: rows
// where Present has a tile and Absent does not. The original query layer
// hard-coded NBAR present / FC absent; here the pairing is an explicit
// parameter with the same default.
type MissingSpec struct {
	Present ProcessingLevel
	Absent  ProcessingLevel
}

// DefaultMissingSpec is surface reflectance present, fractional cover absent.
func DefaultMissingSpec() MissingSpec {
	return MissingSpec{Present: LevelNBAR, Absent: LevelFC}
}

// Validate checks both levels and rejects a degenerate pairing.
func (m MissingSpec) Validate() error {
	if !m.Present.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownLevel, int(m.Present))
	}
	if !m.Absent.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownLevel, int(m.Absent))
	}
	if m.Present == m.Absent {
		return ErrSameLevelPair
	}
	return nil
}

// TerrainFilter selects elevation tiles, which join purely on grid indices.
type TerrainFilter struct {
	X    []int
	Y    []int
	Sort SortDirection
}

// Validate checks the grid sets and sort direction.
func (f TerrainFilter) Validate() error {
	if len(f.X) == 0 || len(f.Y) == 0 {
		return ErrEmptyGridRange
	}
	if !f.Sort.Valid() {
		return ErrInvalidSort
	}
	return nil
}

// PolygonFilter replaces explicit grid index sets with a spatial intersection
// between each cell's footprint and a WKT polygon in geographic coordinates
// (SRID 4326).
type PolygonFilter struct {
	WKT        string
	Satellites []Satellite
	AcqMin     time.Time
	AcqMax     time.Time
	Levels     []ProcessingLevel
	Sort       SortDirection
}

// Validate checks the polygon text and the shared predicate fields.
func (f PolygonFilter) Validate() error {
	if strings.TrimSpace(f.WKT) == "" {
		return ErrEmptyPolygon
	}
	if err := validateSatellites(f.Satellites); err != nil {
		return err
	}
	if err := validateLevels(f.Levels); err != nil {
		return err
	}
	if _, err := acqInterval(f.AcqMin, f.AcqMax); err != nil {
		return err
	}
	if !f.Sort.Valid() {
		return ErrInvalidSort
	}
	return nil
}
