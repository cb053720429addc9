package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/smr547/agdc/internal/domain"
)

// SliceCellIterator is a CellIterator over a fixed slice, for tests.
type SliceCellIterator struct {
	Cells    []domain.Cell
	FailErr  error // reported by Err after the slice is drained
	pos      int
	Closed   bool
	CloseErr error
}

func (it *SliceCellIterator) Next() bool {
	if it.Closed || it.pos >= len(it.Cells) {
		return false
	}
	it.pos++
	return true
}

func (it *SliceCellIterator) Cell() domain.Cell { return it.Cells[it.pos-1] }

func (it *SliceCellIterator) Err() error {
	if it.pos >= len(it.Cells) {
		return it.FailErr
	}
	return nil
}

func (it *SliceCellIterator) Close() error {
	it.Closed = true
	return it.CloseErr
}

// SliceTileIterator is a TileIterator over a fixed slice, for tests.
type SliceTileIterator struct {
	Tiles   []domain.Tile
	FailErr error
	pos     int
	Closed  bool
}

func (it *SliceTileIterator) Next() bool {
	if it.Closed || it.pos >= len(it.Tiles) {
		return false
	}
	it.pos++
	return true
}

func (it *SliceTileIterator) Tile() domain.Tile { return it.Tiles[it.pos-1] }

func (it *SliceTileIterator) Err() error {
	if it.pos >= len(it.Tiles) {
		return it.FailErr
	}
	return nil
}

func (it *SliceTileIterator) Close() error {
	it.Closed = true
	return nil
}

// MockTileStore is a mock implementation of domain.TileStore for testing.
// Each call records the filter it received and returns the configured
// results or error.
type MockTileStore struct {
	mu sync.Mutex

	Cells  []domain.Cell
	Tiles  []domain.Tile
	Err    error
	CSV    string // payload written by export methods
	CSVErr error  // returned after writing CSV

	CellFilters    []domain.Filter
	TileFilters    []domain.Filter
	TerrainFilters []domain.TerrainFilter
	PolygonFilters []domain.PolygonFilter
	MissingSpecs   []domain.MissingSpec

	LastCellIterator *SliceCellIterator
	LastTileIterator *SliceTileIterator
}

func (m *MockTileStore) ListCells(ctx context.Context, f domain.Filter) (domain.CellIterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CellFilters = append(m.CellFilters, f)
	if m.Err != nil {
		return nil, m.Err
	}
	m.LastCellIterator = &SliceCellIterator{Cells: m.Cells}
	return m.LastCellIterator, nil
}

func (m *MockTileStore) ListCellsMissing(ctx context.Context, f domain.Filter, spec domain.MissingSpec) (domain.CellIterator, error) {
	m.mu.Lock()
	m.MissingSpecs = append(m.MissingSpecs, spec)
	m.mu.Unlock()
	return m.ListCells(ctx, f)
}

func (m *MockTileStore) ListTiles(ctx context.Context, f domain.Filter) (domain.TileIterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TileFilters = append(m.TileFilters, f)
	if m.Err != nil {
		return nil, m.Err
	}
	m.LastTileIterator = &SliceTileIterator{Tiles: m.Tiles}
	return m.LastTileIterator, nil
}

func (m *MockTileStore) ListTilesMissing(ctx context.Context, f domain.Filter, spec domain.MissingSpec) (domain.TileIterator, error) {
	m.mu.Lock()
	m.MissingSpecs = append(m.MissingSpecs, spec)
	m.mu.Unlock()
	return m.ListTiles(ctx, f)
}

func (m *MockTileStore) ListTerrainTiles(ctx context.Context, f domain.TerrainFilter) (domain.TileIterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TerrainFilters = append(m.TerrainFilters, f)
	if m.Err != nil {
		return nil, m.Err
	}
	m.LastTileIterator = &SliceTileIterator{Tiles: m.Tiles}
	return m.LastTileIterator, nil
}

func (m *MockTileStore) ListTilesIntersecting(ctx context.Context, f domain.PolygonFilter) (domain.TileIterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PolygonFilters = append(m.PolygonFilters, f)
	if m.Err != nil {
		return nil, m.Err
	}
	m.LastTileIterator = &SliceTileIterator{Tiles: m.Tiles}
	return m.LastTileIterator, nil
}

func (m *MockTileStore) export(w io.Writer) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	n, err := io.WriteString(w, m.CSV)
	if err != nil {
		return int64(n), err
	}
	return int64(len(m.CSV)), m.CSVErr
}

func (m *MockTileStore) ExportCells(ctx context.Context, f domain.Filter, w io.Writer) (int64, error) {
	m.mu.Lock()
	m.CellFilters = append(m.CellFilters, f)
	m.mu.Unlock()
	return m.export(w)
}

func (m *MockTileStore) ExportCellsMissing(ctx context.Context, f domain.Filter, spec domain.MissingSpec, w io.Writer) (int64, error) {
	m.mu.Lock()
	m.CellFilters = append(m.CellFilters, f)
	m.MissingSpecs = append(m.MissingSpecs, spec)
	m.mu.Unlock()
	return m.export(w)
}

func (m *MockTileStore) ExportTiles(ctx context.Context, f domain.Filter, w io.Writer) (int64, error) {
	m.mu.Lock()
	m.TileFilters = append(m.TileFilters, f)
	m.mu.Unlock()
	return m.export(w)
}

func (m *MockTileStore) ExportTilesMissing(ctx context.Context, f domain.Filter, spec domain.MissingSpec, w io.Writer) (int64, error) {
	m.mu.Lock()
	m.TileFilters = append(m.TileFilters, f)
	m.MissingSpecs = append(m.MissingSpecs, spec)
	m.mu.Unlock()
	return m.export(w)
}

// MockCellCache is an in-memory domain.CellCache for testing.
type MockCellCache struct {
	mu      sync.Mutex
	Entries map[string][]domain.Cell
	GetErr  error
	PutErr  error
	Gets    int
	Puts    int
}

func (c *MockCellCache) GetCells(ctx context.Context, key string) ([]domain.Cell, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gets++
	if c.GetErr != nil {
		return nil, false, c.GetErr
	}
	cells, ok := c.Entries[key]
	return cells, ok, nil
}

func (c *MockCellCache) PutCells(ctx context.Context, key string, cells []domain.Cell) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Puts++
	if c.PutErr != nil {
		return c.PutErr
	}
	if c.Entries == nil {
		c.Entries = make(map[string][]domain.Cell)
	}
	c.Entries[key] = cells
	return nil
}
