package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/smr547/agdc/internal/adapter/metrics"
	"github.com/smr547/agdc/internal/domain"
)

// CatalogueService is the business layer over the datacube query store. It
// validates filters before touching the database, memoizes cell listings in
// an optional cache, and records per-operation metrics. Both cache and
// metrics may be nil.
type CatalogueService struct {
	store   domain.TileStore
	cache   domain.CellCache
	metrics *metrics.QueryMetrics
	logger  *slog.Logger
}

// NewCatalogueService creates a new CatalogueService.
func NewCatalogueService(store domain.TileStore, cache domain.CellCache, m *metrics.QueryMetrics, logger *slog.Logger) *CatalogueService {
	return &CatalogueService{
		store:   store,
		cache:   cache,
		metrics: m,
		logger:  logger.With("component", "catalogue"),
	}
}

func (s *CatalogueService) observe(op string, start time.Time, rows int64, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.QueriesTotal.WithLabelValues(op, status).Inc()
	s.metrics.QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err == nil && rows > 0 {
		s.metrics.RowsReturned.WithLabelValues(op).Add(float64(rows))
	}
}

func (s *CatalogueService) observeInvalid(op string) {
	if s.metrics == nil {
		return
	}
	s.metrics.QueriesTotal.WithLabelValues(op, "invalid").Inc()
}

// cellKey digests the fields that determine a cell listing, so equal filters
// share one cache entry regardless of how they were built. The missing pair
// is part of the key; a plain listing uses the zero pair.
func cellKey(f domain.Filter, spec domain.MissingSpec) string {
	h := xxhash.New()
	fmt.Fprintf(h, "x=%v;y=%v;sat=%v;min=%s;max=%s;lvl=%v;sort=%s;present=%d;absent=%d",
		f.X, f.Y, f.Satellites,
		f.AcqMin.Format(time.DateOnly), f.AcqMax.Format(time.DateOnly),
		f.Levels, f.Sort, int(spec.Present), int(spec.Absent))
	return fmt.Sprintf("%016x", h.Sum64())
}

// ListCells streams the distinct cells matching f. The caller owns the
// iterator and must close it.
func (s *CatalogueService) ListCells(ctx context.Context, f domain.Filter) (domain.CellIterator, error) {
	if err := f.Validate(); err != nil {
		s.observeInvalid("list_cells")
		return nil, err
	}
	start := time.Now()
	it, err := s.store.ListCells(ctx, f)
	s.observe("list_cells", start, 0, err)
	return it, err
}

// ListCellsAll materializes the cell listing, consulting the cache first.
// Cache failures degrade to a direct query.
func (s *CatalogueService) ListCellsAll(ctx context.Context, f domain.Filter) ([]domain.Cell, error) {
	if err := f.Validate(); err != nil {
		s.observeInvalid("list_cells")
		return nil, err
	}
	return s.cachedCells(ctx, "list_cells", cellKey(f, domain.MissingSpec{}), func() (domain.CellIterator, error) {
		return s.store.ListCells(ctx, f)
	})
}

// ListCellsMissing streams cells where spec.Present exists and spec.Absent
// does not.
func (s *CatalogueService) ListCellsMissing(ctx context.Context, f domain.Filter, spec domain.MissingSpec) (domain.CellIterator, error) {
	if err := f.Validate(); err != nil {
		s.observeInvalid("list_cells_missing")
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		s.observeInvalid("list_cells_missing")
		return nil, err
	}
	start := time.Now()
	it, err := s.store.ListCellsMissing(ctx, f, spec)
	s.observe("list_cells_missing", start, 0, err)
	return it, err
}

// ListCellsMissingAll materializes the missing-cell listing through the cache.
func (s *CatalogueService) ListCellsMissingAll(ctx context.Context, f domain.Filter, spec domain.MissingSpec) ([]domain.Cell, error) {
	if err := f.Validate(); err != nil {
		s.observeInvalid("list_cells_missing")
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		s.observeInvalid("list_cells_missing")
		return nil, err
	}
	return s.cachedCells(ctx, "list_cells_missing", cellKey(f, spec), func() (domain.CellIterator, error) {
		return s.store.ListCellsMissing(ctx, f, spec)
	})
}

func (s *CatalogueService) cachedCells(ctx context.Context, op, key string, query func() (domain.CellIterator, error)) ([]domain.Cell, error) {
	if s.cache != nil {
		cells, ok, err := s.cache.GetCells(ctx, key)
		if err != nil {
			s.logger.Warn("cell cache read failed, querying store", "operation", op, "error", err)
		} else if ok {
			if s.metrics != nil {
				s.metrics.CellCacheHits.Inc()
			}
			return cells, nil
		} else if s.metrics != nil {
			s.metrics.CellCacheMisses.Inc()
		}
	}

	start := time.Now()
	it, err := query()
	if err != nil {
		s.observe(op, start, 0, err)
		return nil, err
	}
	cells, err := domain.CollectCells(it)
	s.observe(op, start, int64(len(cells)), err)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.PutCells(ctx, key, cells); err != nil {
			s.logger.Warn("cell cache write failed", "operation", op, "error", err)
		}
	}
	return cells, nil
}

// ListTiles streams one record per acquisition and cell.
func (s *CatalogueService) ListTiles(ctx context.Context, f domain.Filter) (domain.TileIterator, error) {
	if err := f.Validate(); err != nil {
		s.observeInvalid("list_tiles")
		return nil, err
	}
	start := time.Now()
	it, err := s.store.ListTiles(ctx, f)
	s.observe("list_tiles", start, 0, err)
	return it, err
}

// ListTilesAll materializes the tile listing.
func (s *CatalogueService) ListTilesAll(ctx context.Context, f domain.Filter) ([]domain.Tile, error) {
	return s.collectTiles(ctx, "list_tiles", func() (domain.TileIterator, error) {
		return s.ListTiles(ctx, f)
	})
}

// ListTilesMissing streams tiles where spec.Present exists and spec.Absent
// does not.
func (s *CatalogueService) ListTilesMissing(ctx context.Context, f domain.Filter, spec domain.MissingSpec) (domain.TileIterator, error) {
	if err := f.Validate(); err != nil {
		s.observeInvalid("list_tiles_missing")
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		s.observeInvalid("list_tiles_missing")
		return nil, err
	}
	start := time.Now()
	it, err := s.store.ListTilesMissing(ctx, f, spec)
	s.observe("list_tiles_missing", start, 0, err)
	return it, err
}

// ListTilesMissingAll materializes the missing-tile listing.
func (s *CatalogueService) ListTilesMissingAll(ctx context.Context, f domain.Filter, spec domain.MissingSpec) ([]domain.Tile, error) {
	return s.collectTiles(ctx, "list_tiles_missing", func() (domain.TileIterator, error) {
		return s.ListTilesMissing(ctx, f, spec)
	})
}

// ListTerrainTiles streams elevation tiles for the grid indices.
func (s *CatalogueService) ListTerrainTiles(ctx context.Context, f domain.TerrainFilter) (domain.TileIterator, error) {
	if err := f.Validate(); err != nil {
		s.observeInvalid("list_terrain_tiles")
		return nil, err
	}
	start := time.Now()
	it, err := s.store.ListTerrainTiles(ctx, f)
	s.observe("list_terrain_tiles", start, 0, err)
	return it, err
}

// ListTerrainTilesAll materializes the terrain listing.
func (s *CatalogueService) ListTerrainTilesAll(ctx context.Context, f domain.TerrainFilter) ([]domain.Tile, error) {
	return s.collectTiles(ctx, "list_terrain_tiles", func() (domain.TileIterator, error) {
		return s.ListTerrainTiles(ctx, f)
	})
}

// ListTilesIntersecting streams tiles whose cell footprint intersects the
// filter polygon.
func (s *CatalogueService) ListTilesIntersecting(ctx context.Context, f domain.PolygonFilter) (domain.TileIterator, error) {
	if err := f.Validate(); err != nil {
		s.observeInvalid("list_tiles_intersecting")
		return nil, err
	}
	start := time.Now()
	it, err := s.store.ListTilesIntersecting(ctx, f)
	s.observe("list_tiles_intersecting", start, 0, err)
	return it, err
}

// ListTilesIntersectingAll materializes the polygon listing.
func (s *CatalogueService) ListTilesIntersectingAll(ctx context.Context, f domain.PolygonFilter) ([]domain.Tile, error) {
	return s.collectTiles(ctx, "list_tiles_intersecting", func() (domain.TileIterator, error) {
		return s.ListTilesIntersecting(ctx, f)
	})
}

func (s *CatalogueService) collectTiles(ctx context.Context, op string, query func() (domain.TileIterator, error)) ([]domain.Tile, error) {
	it, err := query()
	if err != nil {
		return nil, err
	}
	tiles, err := domain.CollectTiles(it)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RowsReturned.WithLabelValues(op).Add(float64(len(tiles)))
	}
	return tiles, nil
}

// VisitTiles applies fn to every tile matching f, stopping at the first fn
// error. The iterator is always closed.
func (s *CatalogueService) VisitTiles(ctx context.Context, f domain.Filter, fn func(domain.Tile) error) error {
	it, err := s.ListTiles(ctx, f)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		if err := fn(it.Tile()); err != nil {
			return err
		}
	}
	return it.Err()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// ExportCells streams the cell listing as CSV to w, returning the row count.
func (s *CatalogueService) ExportCells(ctx context.Context, f domain.Filter, w io.Writer) (int64, error) {
	if err := f.Validate(); err != nil {
		s.observeInvalid("export_cells")
		return 0, err
	}
	return s.export("export_cells", w, func(cw io.Writer) (int64, error) {
		return s.store.ExportCells(ctx, f, cw)
	})
}

// ExportCellsMissing streams the missing-cell listing as CSV to w.
func (s *CatalogueService) ExportCellsMissing(ctx context.Context, f domain.Filter, spec domain.MissingSpec, w io.Writer) (int64, error) {
	if err := f.Validate(); err != nil {
		s.observeInvalid("export_cells_missing")
		return 0, err
	}
	if err := spec.Validate(); err != nil {
		s.observeInvalid("export_cells_missing")
		return 0, err
	}
	return s.export("export_cells_missing", w, func(cw io.Writer) (int64, error) {
		return s.store.ExportCellsMissing(ctx, f, spec, cw)
	})
}

// ExportTiles streams the tile listing as CSV to w.
func (s *CatalogueService) ExportTiles(ctx context.Context, f domain.Filter, w io.Writer) (int64, error) {
	if err := f.Validate(); err != nil {
		s.observeInvalid("export_tiles")
		return 0, err
	}
	return s.export("export_tiles", w, func(cw io.Writer) (int64, error) {
		return s.store.ExportTiles(ctx, f, cw)
	})
}

// ExportTilesMissing streams the missing-tile listing as CSV to w.
func (s *CatalogueService) ExportTilesMissing(ctx context.Context, f domain.Filter, spec domain.MissingSpec, w io.Writer) (int64, error) {
	if err := f.Validate(); err != nil {
		s.observeInvalid("export_tiles_missing")
		return 0, err
	}
	if err := spec.Validate(); err != nil {
		s.observeInvalid("export_tiles_missing")
		return 0, err
	}
	return s.export("export_tiles_missing", w, func(cw io.Writer) (int64, error) {
		return s.store.ExportTilesMissing(ctx, f, spec, cw)
	})
}

func (s *CatalogueService) export(op string, w io.Writer, run func(io.Writer) (int64, error)) (int64, error) {
	start := time.Now()
	cw := &countingWriter{w: w}
	rows, err := run(cw)
	s.observe(op, start, rows, err)
	if s.metrics != nil {
		s.metrics.ExportBytes.Add(float64(cw.n))
	}
	if err != nil {
		var exportErr *domain.ExportError
		if errors.As(err, &exportErr) && exportErr.BytesWritten > 0 {
			s.logger.Error("export aborted mid-stream, output is truncated",
				"operation", op, "bytes_written", exportErr.BytesWritten, "error", err)
		}
		return 0, err
	}
	return rows, nil
}
