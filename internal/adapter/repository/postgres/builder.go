package postgres

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smr547/agdc/internal/domain"
)

// The datacube schema hangs tiles off datasets, which hang off acquisitions.
// Every query carves out one subquery per processing level and joins them on
// (acquisition, x, y, tile type, tile class); "present" listings inner-join
// every requested level, "missing" listings left-outer-join the absent level
// and keep rows where its key comes back null.

// argList collects positional query arguments and hands out placeholders.
type argList struct {
	args []any
}

func (a *argList) add(v any) string {
	a.args = append(a.args, v)
	return "$" + strconv.Itoa(len(a.args))
}

// levelSubquery narrows tile/dataset rows to a single processing level.
func levelSubquery(a *argList, level domain.ProcessingLevel) string {
	return fmt.Sprintf(`(
select dataset.acquisition_id, tile.dataset_id, tile.x_index, tile.y_index, tile.tile_pathname, tile.tile_type_id, tile.tile_class_id
from tile
join dataset on dataset.dataset_id = tile.dataset_id
where dataset.level_id = %s
)`, a.add(int64(level)))
}

// alias returns the join alias for a level (nbar, pqa, fc, dsm, ...).
func alias(level domain.ProcessingLevel) string {
	return strings.ToLower(level.String())
}

func sortSQL(d domain.SortDirection) string {
	if d == domain.SortDesc {
		return "desc"
	}
	return "asc"
}

func tileClassCodes() []int64 {
	codes := make([]int64, len(domain.TileClasses))
	for i, c := range domain.TileClasses {
		codes[i] = int64(c)
	}
	return codes
}

func satelliteTags(sats []domain.Satellite) []string {
	tags := make([]string, len(sats))
	for i, s := range sats {
		tags[i] = string(s)
	}
	return tags
}

func toInt64s(xs []int) []int64 {
	out := make([]int64, len(xs))
	for i, x := range xs {
		out[i] = int64(x)
	}
	return out
}

// presentJoins emits the per-level subquery joins for a "present" query. The
// first level anchors the join keys; the rest must match it exactly.
func presentJoins(b *strings.Builder, a *argList, levels []domain.ProcessingLevel) string {
	anchor := alias(levels[0])

	fmt.Fprintf(b, "join %s as %s on %s.acquisition_id = acquisition.acquisition_id\n",
		levelSubquery(a, levels[0]), anchor, anchor)

	for _, level := range levels[1:] {
		al := alias(level)
		fmt.Fprintf(b, "join %s as %s on %s.acquisition_id = acquisition.acquisition_id\n", levelSubquery(a, level), al, al)
		fmt.Fprintf(b, "    and %s.x_index = %s.x_index and %s.y_index = %s.y_index\n", al, anchor, al, anchor)
		fmt.Fprintf(b, "    and %s.tile_type_id = %s.tile_type_id and %s.tile_class_id = %s.tile_class_id\n", al, anchor, al, anchor)
	}

	return anchor
}

// missingJoin emits the present anchor join plus the left outer join to the
// absent level.
func missingJoin(b *strings.Builder, a *argList, spec domain.MissingSpec) (anchor, absent string) {
	anchor = alias(spec.Present)
	absent = alias(spec.Absent)

	fmt.Fprintf(b, "join %s as %s on %s.acquisition_id = acquisition.acquisition_id\n",
		levelSubquery(a, spec.Present), anchor, anchor)
	fmt.Fprintf(b, "left outer join %s as %s on %s.acquisition_id = acquisition.acquisition_id\n",
		levelSubquery(a, spec.Absent), absent, absent)
	fmt.Fprintf(b, "    and %s.x_index = %s.x_index and %s.y_index = %s.y_index\n", absent, anchor, absent, anchor)
	fmt.Fprintf(b, "    and %s.tile_type_id = %s.tile_type_id and %s.tile_class_id = %s.tile_class_id\n", absent, anchor, absent, anchor)

	return anchor, absent
}

// acqBounds returns the inclusive date bounds with zero values widened to
// the sentinel instants, so an unset bound means "all time" rather than a
// between-predicate that matches nothing.
func acqBounds(acqMin, acqMax time.Time) (time.Time, time.Time) {
	if acqMin.IsZero() {
		acqMin = domain.MinInstant
	}
	if acqMax.IsZero() {
		acqMax = domain.MaxInstant
	}
	return acqMin, acqMax
}

// mandatoryWhere emits the filters baked into every present/missing query:
// the supported tile type, the single/mosaic class pair, the satellite set,
// the grid index sets and the acquisition date range.
func mandatoryWhere(b *strings.Builder, a *argList, anchor string, f domain.Filter) {
	acqMin, acqMax := acqBounds(f.AcqMin, f.AcqMax)
	fmt.Fprintf(b, "where\n    %s.tile_type_id = any(%s) and %s.tile_class_id = any(%s)\n",
		anchor, a.add([]int64{int64(domain.TileTypeOneDegree)}), anchor, a.add(tileClassCodes()))
	fmt.Fprintf(b, "    and satellite.satellite_tag = any(%s)\n", a.add(satelliteTags(f.Satellites)))
	fmt.Fprintf(b, "    and %s.x_index = any(%s) and %s.y_index = any(%s)\n",
		anchor, a.add(toInt64s(f.X)), anchor, a.add(toInt64s(f.Y)))
	fmt.Fprintf(b, "    and acquisition.end_datetime::date between %s::date and %s::date\n",
		a.add(acqMin), a.add(acqMax))
}

// tileSelect emits the acquisition columns plus one pathname column per
// level in pathLevels, aliased to the level's label (lower-cased).
func tileSelect(b *strings.Builder, anchor string, pathLevels []domain.ProcessingLevel) {
	b.WriteString("select\n")
	b.WriteString("    acquisition.acquisition_id, satellite.satellite_tag as satellite,\n")
	b.WriteString("    acquisition.start_datetime, acquisition.end_datetime,\n")
	b.WriteString("    extract(year from acquisition.end_datetime)::integer as end_datetime_year,\n")
	b.WriteString("    extract(month from acquisition.end_datetime)::integer as end_datetime_month,\n")
	fmt.Fprintf(b, "    %s.x_index, %s.y_index", anchor, anchor)
	for _, level := range pathLevels {
		fmt.Fprintf(b, ",\n    %s.tile_pathname as %s", alias(level), strings.ToLower(level.Label()))
	}
	b.WriteString("\n")
}

// buildCellsPresent lists distinct cells holding every requested level.
func buildCellsPresent(f domain.Filter) (string, []any) {
	var b strings.Builder
	a := &argList{}

	b.WriteString("select distinct ")
	anchorName := alias(f.Levels[0])
	fmt.Fprintf(&b, "%s.x_index, %s.y_index\n", anchorName, anchorName)
	b.WriteString("from acquisition\n")
	b.WriteString("join satellite on satellite.satellite_id = acquisition.satellite_id\n")

	anchor := presentJoins(&b, a, f.Levels)
	mandatoryWhere(&b, a, anchor, f)

	s := sortSQL(f.Sort)
	fmt.Fprintf(&b, "order by %s.x_index %s, %s.y_index %s", anchor, s, anchor, s)

	return b.String(), a.args
}

// buildCellsMissing lists distinct cells where the present level has a tile
// and the absent level does not.
func buildCellsMissing(f domain.Filter, spec domain.MissingSpec) (string, []any) {
	var b strings.Builder
	a := &argList{}

	anchorName := alias(spec.Present)
	fmt.Fprintf(&b, "select distinct %s.x_index, %s.y_index\n", anchorName, anchorName)
	b.WriteString("from acquisition\n")
	b.WriteString("join satellite on satellite.satellite_id = acquisition.satellite_id\n")

	anchor, absent := missingJoin(&b, a, spec)
	mandatoryWhere(&b, a, anchor, f)
	fmt.Fprintf(&b, "    and %s.acquisition_id is null\n", absent)

	s := sortSQL(f.Sort)
	fmt.Fprintf(&b, "order by %s.x_index %s, %s.y_index %s", anchor, s, anchor, s)

	return b.String(), a.args
}

// buildTilesPresent lists one tile record per acquisition and cell with the
// path of every requested level.
func buildTilesPresent(f domain.Filter) (string, []any) {
	var b strings.Builder
	a := &argList{}

	tileSelect(&b, alias(f.Levels[0]), f.Levels)
	b.WriteString("from acquisition\n")
	b.WriteString("join satellite on satellite.satellite_id = acquisition.satellite_id\n")

	anchor := presentJoins(&b, a, f.Levels)
	mandatoryWhere(&b, a, anchor, f)

	fmt.Fprintf(&b, "order by acquisition.end_datetime %s, satellite asc", sortSQL(f.Sort))

	return b.String(), a.args
}

// buildTilesMissing lists tile records where the present level exists and
// the absent level does not; only the present path is selected.
func buildTilesMissing(f domain.Filter, spec domain.MissingSpec) (string, []any) {
	var b strings.Builder
	a := &argList{}

	tileSelect(&b, alias(spec.Present), []domain.ProcessingLevel{spec.Present})
	b.WriteString("from acquisition\n")
	b.WriteString("join satellite on satellite.satellite_id = acquisition.satellite_id\n")

	anchor, absent := missingJoin(&b, a, spec)
	mandatoryWhere(&b, a, anchor, f)
	fmt.Fprintf(&b, "    and %s.acquisition_id is null\n", absent)

	fmt.Fprintf(&b, "order by acquisition.end_datetime %s, satellite asc", sortSQL(f.Sort))

	return b.String(), a.args
}

// buildTerrainTiles joins the four elevation levels purely on grid indices;
// there is no acquisition dimension.
func buildTerrainTiles(f domain.TerrainFilter) (string, []any) {
	var b strings.Builder
	a := &argList{}

	levels := domain.TerrainLevels
	anchor := alias(levels[0])

	fmt.Fprintf(&b, "select\n    %s.x_index, %s.y_index", anchor, anchor)
	for _, level := range levels {
		fmt.Fprintf(&b, ",\n    %s.tile_pathname as %s", alias(level), strings.ToLower(level.String()))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "from %s as %s\n", levelSubquery(a, levels[0]), anchor)
	for _, level := range levels[1:] {
		al := alias(level)
		fmt.Fprintf(&b, "join %s as %s on %s.x_index = %s.x_index and %s.y_index = %s.y_index\n",
			levelSubquery(a, level), al, al, anchor, al, anchor)
		fmt.Fprintf(&b, "    and %s.tile_type_id = %s.tile_type_id and %s.tile_class_id = %s.tile_class_id\n", al, anchor, al, anchor)
	}

	fmt.Fprintf(&b, "where\n    %s.tile_type_id = any(%s) and %s.tile_class_id = any(%s)\n",
		anchor, a.add([]int64{int64(domain.TileTypeOneDegree)}), anchor, a.add(tileClassCodes()))
	fmt.Fprintf(&b, "    and %s.x_index = any(%s) and %s.y_index = any(%s)\n",
		anchor, a.add(toInt64s(f.X)), anchor, a.add(toInt64s(f.Y)))

	s := sortSQL(f.Sort)
	fmt.Fprintf(&b, "order by %s.x_index %s, %s.y_index %s", anchor, s, anchor, s)

	return b.String(), a.args
}

// buildTilesIntersecting is the tiles-present query with the grid index sets
// replaced by a footprint intersection against a WKT polygon (SRID 4326).
func buildTilesIntersecting(f domain.PolygonFilter) (string, []any) {
	var b strings.Builder
	a := &argList{}

	tileSelect(&b, alias(f.Levels[0]), f.Levels)
	b.WriteString("from acquisition\n")
	b.WriteString("join satellite on satellite.satellite_id = acquisition.satellite_id\n")

	anchor := presentJoins(&b, a, f.Levels)

	fmt.Fprintf(&b, "join tile_footprint on tile_footprint.x_index = %s.x_index\n", anchor)
	fmt.Fprintf(&b, "    and tile_footprint.y_index = %s.y_index\n", anchor)
	fmt.Fprintf(&b, "    and tile_footprint.tile_type_id = %s.tile_type_id\n", anchor)

	fmt.Fprintf(&b, "where\n    %s.tile_type_id = any(%s) and %s.tile_class_id = any(%s)\n",
		anchor, a.add([]int64{int64(domain.TileTypeOneDegree)}), anchor, a.add(tileClassCodes()))
	fmt.Fprintf(&b, "    and satellite.satellite_tag = any(%s)\n", a.add(satelliteTags(f.Satellites)))
	acqMin, acqMax := acqBounds(f.AcqMin, f.AcqMax)
	fmt.Fprintf(&b, "    and st_intersects(tile_footprint.bbox, st_geomfromtext(%s, 4326))\n", a.add(f.WKT))
	fmt.Fprintf(&b, "    and acquisition.end_datetime::date between %s::date and %s::date\n",
		a.add(acqMin), a.add(acqMax))

	fmt.Fprintf(&b, "order by acquisition.end_datetime %s, satellite asc", sortSQL(f.Sort))

	return b.String(), a.args
}
