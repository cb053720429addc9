package domain

import (
	"context"
	"io"
)

// CellIterator is a single-use cursor over cell results. It holds one pooled
// database connection until Close, which is idempotent and invoked
// automatically on exhaustion and on row errors. It cannot be traversed
// twice; callers needing multiple passes should materialize with
// CollectCells.
type CellIterator interface {
	// Next advances to the next cell, reporting false at the end of the
	// result set or on error.
	Next() bool

	// Cell returns the current cell. Only valid after Next returned true.
	Cell() Cell

	// Err returns the error that terminated iteration, if any.
	Err() error

	// Close releases the underlying result set and connection.
	Close() error
}

// TileIterator is the tile counterpart of CellIterator.
type TileIterator interface {
	Next() bool
	Tile() Tile
	Err() error
	Close() error
}

// TileStore is the query contract over the datacube schema. Every listing
// returns a single-use iterator; every export streams the database's native
// CSV COPY output to w and returns the number of rows written.
type TileStore interface {
	// ListCells returns the distinct cells for which every requested dataset
	// type exists for at least one acquisition matching the filter.
	ListCells(ctx context.Context, f Filter) (CellIterator, error)

	// ListCellsMissing returns the distinct cells where spec.Present has a
	// tile but spec.Absent does not.
	ListCellsMissing(ctx context.Context, f Filter, spec MissingSpec) (CellIterator, error)

	// ListTiles returns one record per acquisition and cell with the path of
	// every requested dataset type.
	ListTiles(ctx context.Context, f Filter) (TileIterator, error)

	// ListTilesMissing returns tiles where spec.Present exists and
	// spec.Absent does not; the absent label carries a nil path.
	ListTilesMissing(ctx context.Context, f Filter, spec MissingSpec) (TileIterator, error)

	// ListTerrainTiles returns elevation tiles joined on grid indices alone;
	// acquisition fields are nil.
	ListTerrainTiles(ctx context.Context, f TerrainFilter) (TileIterator, error)

	// ListTilesIntersecting returns tiles whose cell footprint intersects
	// the filter polygon.
	ListTilesIntersecting(ctx context.Context, f PolygonFilter) (TileIterator, error)

	ExportCells(ctx context.Context, f Filter, w io.Writer) (int64, error)
	ExportCellsMissing(ctx context.Context, f Filter, spec MissingSpec, w io.Writer) (int64, error)
	ExportTiles(ctx context.Context, f Filter, w io.Writer) (int64, error)
	ExportTilesMissing(ctx context.Context, f Filter, spec MissingSpec, w io.Writer) (int64, error)
}

// CellCache caches materialized cell listings keyed by a digest of the
// filter. Implementations must treat a miss as (nil, false, nil).
type CellCache interface {
	GetCells(ctx context.Context, key string) ([]Cell, bool, error)
	PutCells(ctx context.Context, key string, cells []Cell) error
}

// CollectCells drains a single-use iterator into an ordered slice, closing it
// on every path.
func CollectCells(it CellIterator) ([]Cell, error) {
	defer it.Close()

	var cells []Cell
	for it.Next() {
		cells = append(cells, it.Cell())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return cells, nil
}

// CollectTiles drains a single-use iterator into an ordered slice, closing it
// on every path.
func CollectTiles(it TileIterator) ([]Tile, error) {
	defer it.Close()

	var tiles []Tile
	for it.Next() {
		tiles = append(tiles, it.Tile())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return tiles, nil
}
