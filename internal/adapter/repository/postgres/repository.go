package postgres

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smr547/agdc/internal/domain"
)

// TileStore implements domain.TileStore against the datacube schema
// (acquisition, satellite, tile, dataset, tile_footprint).
type TileStore struct {
	pool      *pgxpool.Pool
	logger    *slog.Logger
	fetchSize int
}

// NewTileStore creates a tile store over an established pool.
func NewTileStore(pool *pgxpool.Pool, logger *slog.Logger, fetchSize int) *TileStore {
	return &TileStore{
		pool:      pool,
		logger:    logger.With("component", "tile_store"),
		fetchSize: fetchSize,
	}
}

// Connect opens a pgx pool for the DSN, applies the datacube search path and
// an optional server-side statement timeout, and verifies connectivity so
// credential and host failures surface before any query runs.
func Connect(ctx context.Context, dsn, searchPath string, statementTimeout time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, &domain.ConnectError{Err: err}
	}

	if searchPath != "" {
		cfg.ConnConfig.RuntimeParams["search_path"] = searchPath
	}
	if statementTimeout > 0 {
		cfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(statementTimeout.Milliseconds(), 10)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, &domain.ConnectError{Err: err}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &domain.ConnectError{Err: err}
	}

	return pool, nil
}

func (s *TileStore) queryCells(ctx context.Context, op, sql string, args []any) (domain.CellIterator, error) {
	s.logger.Debug("executing query", "op", op)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, &domain.QueryError{Op: op, Err: err}
	}
	return newCellIterator(rows, op, s.fetchSize), nil
}

func (s *TileStore) queryTiles(ctx context.Context, op, sql string, args []any, scan tileScanFunc) (domain.TileIterator, error) {
	s.logger.Debug("executing query", "op", op)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, &domain.QueryError{Op: op, Err: err}
	}
	return newTileIterator(rows, op, scan, s.fetchSize), nil
}

// ListCells returns the distinct cells where every requested level exists.
func (s *TileStore) ListCells(ctx context.Context, f domain.Filter) (domain.CellIterator, error) {
	sql, args := buildCellsPresent(f)
	return s.queryCells(ctx, "list_cells", sql, args)
}

// ListCellsMissing returns the distinct cells where the present level exists
// and the absent one does not.
func (s *TileStore) ListCellsMissing(ctx context.Context, f domain.Filter, spec domain.MissingSpec) (domain.CellIterator, error) {
	sql, args := buildCellsMissing(f, spec)
	return s.queryCells(ctx, "list_cells_missing", sql, args)
}

// ListTiles returns one record per acquisition and cell with every requested
// dataset path.
func (s *TileStore) ListTiles(ctx context.Context, f domain.Filter) (domain.TileIterator, error) {
	sql, args := buildTilesPresent(f)
	return s.queryTiles(ctx, "list_tiles", sql, args, acquisitionTileScanner(f.Levels, nil))
}

// ListTilesMissing returns tile records for the present level where the
// absent level has no matching row.
func (s *TileStore) ListTilesMissing(ctx context.Context, f domain.Filter, spec domain.MissingSpec) (domain.TileIterator, error) {
	sql, args := buildTilesMissing(f, spec)
	scan := acquisitionTileScanner(
		[]domain.ProcessingLevel{spec.Present},
		[]domain.ProcessingLevel{spec.Absent},
	)
	return s.queryTiles(ctx, "list_tiles_missing", sql, args, scan)
}

// ListTerrainTiles returns elevation tiles joined on grid indices alone.
func (s *TileStore) ListTerrainTiles(ctx context.Context, f domain.TerrainFilter) (domain.TileIterator, error) {
	sql, args := buildTerrainTiles(f)
	return s.queryTiles(ctx, "list_terrain_tiles", sql, args, terrainTileScanner(domain.TerrainLevels))
}

// ListTilesIntersecting returns tiles whose cell footprint intersects the
// polygon.
func (s *TileStore) ListTilesIntersecting(ctx context.Context, f domain.PolygonFilter) (domain.TileIterator, error) {
	sql, args := buildTilesIntersecting(f)
	return s.queryTiles(ctx, "list_tiles_intersecting", sql, args, acquisitionTileScanner(f.Levels, nil))
}

// ExportCells streams the cells-present listing as CSV.
func (s *TileStore) ExportCells(ctx context.Context, f domain.Filter, w io.Writer) (int64, error) {
	sql, args := buildCellsPresent(f)
	return s.copyCSV(ctx, "export_cells", sql, args, w)
}

// ExportCellsMissing streams the cells-missing listing as CSV.
func (s *TileStore) ExportCellsMissing(ctx context.Context, f domain.Filter, spec domain.MissingSpec, w io.Writer) (int64, error) {
	sql, args := buildCellsMissing(f, spec)
	return s.copyCSV(ctx, "export_cells_missing", sql, args, w)
}

// ExportTiles streams the tiles-present listing as CSV.
func (s *TileStore) ExportTiles(ctx context.Context, f domain.Filter, w io.Writer) (int64, error) {
	sql, args := buildTilesPresent(f)
	return s.copyCSV(ctx, "export_tiles", sql, args, w)
}

// ExportTilesMissing streams the tiles-missing listing as CSV.
func (s *TileStore) ExportTilesMissing(ctx context.Context, f domain.Filter, spec domain.MissingSpec, w io.Writer) (int64, error) {
	sql, args := buildTilesMissing(f, spec)
	return s.copyCSV(ctx, "export_tiles_missing", sql, args, w)
}
