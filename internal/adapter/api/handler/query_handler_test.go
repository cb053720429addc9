package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smr547/agdc/internal/domain"
	"github.com/smr547/agdc/internal/domain/mocks"
	"github.com/smr547/agdc/internal/usecase"
)

func newQueryHandler(store *mocks.MockTileStore) *QueryHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalogue := usecase.NewCatalogueService(store, nil, nil, logger)
	return NewQueryHandler(catalogue, logger)
}

const baseQuery = "x=120,121&y=-21,-20&satellites=LS5,LS7&datasets=ARG25,PQ25&acq_min=2005-01-01&acq_max=2005-12-31"

func TestQueryHandler_Cells(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		storeCells     []domain.Cell
		storeErr       error
		expectedStatus int
		expectedCount  int
	}{
		{
			name:           "Valid Request",
			query:          baseQuery,
			storeCells:     []domain.Cell{{X: 120, Y: -21}, {X: 121, Y: -20}},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name:           "Empty Result Is Still OK",
			query:          baseQuery,
			storeCells:     nil,
			expectedStatus: http.StatusOK,
			expectedCount:  0,
		},
		{
			name:           "Missing Grid Range",
			query:          "satellites=LS5&datasets=ARG25",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Malformed Grid Index",
			query:          strings.Replace(baseQuery, "x=120,121", "x=abc", 1),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unknown Satellite",
			query:          strings.Replace(baseQuery, "satellites=LS5,LS7", "satellites=LS9", 1),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unknown Dataset",
			query:          strings.Replace(baseQuery, "datasets=ARG25,PQ25", "datasets=BOGUS", 1),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Inverted Date Range",
			query:          strings.Replace(baseQuery, "acq_min=2005-01-01", "acq_min=2006-01-01", 1),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Database Unreachable",
			query:          baseQuery,
			storeErr:       &domain.ConnectError{Err: errors.New("no route to host")},
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "Query Failure",
			query:          baseQuery,
			storeErr:       &domain.QueryError{Op: "list_cells", Err: errors.New("relation does not exist")},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mocks.MockTileStore{Cells: tt.storeCells, Err: tt.storeErr}
			h := newQueryHandler(store)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/cells?"+tt.query, nil)
			rr := httptest.NewRecorder()
			h.Cells(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, rr.Code, rr.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp cellsResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Count != tt.expectedCount || len(resp.Cells) != tt.expectedCount {
				t.Errorf("expected %d cells, got count=%d len=%d", tt.expectedCount, resp.Count, len(resp.Cells))
			}
		})
	}
}

// A dataset list naming the same product twice (NBAR is ARG25) must collapse
// to a single level rather than fail downstream in the SQL builder.
func TestQueryHandler_CellsCollapsesAliasedDatasets(t *testing.T) {
	store := &mocks.MockTileStore{Cells: []domain.Cell{{X: 120, Y: -21}}}
	h := newQueryHandler(store)

	query := strings.Replace(baseQuery, "datasets=ARG25,PQ25", "datasets=NBAR,ARG25", 1)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cells?"+query, nil)
	rr := httptest.NewRecorder()
	h.Cells(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	if len(store.CellFilters) != 1 {
		t.Fatalf("expected one store query, got %d", len(store.CellFilters))
	}
	levels := store.CellFilters[0].Levels
	if len(levels) != 1 || levels[0] != domain.LevelNBAR {
		t.Errorf("expected the aliased pair to collapse to [NBAR], got %v", levels)
	}
}

func TestQueryHandler_CellsMissing(t *testing.T) {
	t.Run("Defaults The Pair", func(t *testing.T) {
		store := &mocks.MockTileStore{Cells: []domain.Cell{{X: 120, Y: -21}}}
		h := newQueryHandler(store)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cells/missing?"+baseQuery, nil)
		rr := httptest.NewRecorder()
		h.CellsMissing(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
		}
		if len(store.MissingSpecs) != 1 || store.MissingSpecs[0] != domain.DefaultMissingSpec() {
			t.Errorf("unexpected recorded specs: %+v", store.MissingSpecs)
		}
	})

	t.Run("Honours Explicit Pair", func(t *testing.T) {
		store := &mocks.MockTileStore{}
		h := newQueryHandler(store)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cells/missing?"+baseQuery+"&present=ARG25&absent=PQ25", nil)
		rr := httptest.NewRecorder()
		h.CellsMissing(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
		}
		want := domain.MissingSpec{Present: domain.LevelNBAR, Absent: domain.LevelPQA}
		if len(store.MissingSpecs) != 1 || store.MissingSpecs[0] != want {
			t.Errorf("unexpected recorded specs: %+v", store.MissingSpecs)
		}
	})

	t.Run("Rejects Degenerate Pair", func(t *testing.T) {
		store := &mocks.MockTileStore{}
		h := newQueryHandler(store)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cells/missing?"+baseQuery+"&present=FC25&absent=FC25", nil)
		rr := httptest.NewRecorder()
		h.CellsMissing(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})
}

func TestQueryHandler_Tiles(t *testing.T) {
	sat := domain.SatelliteLS5
	path := "/tiles/LS5_TM_NBAR_120_-021_2005-03-01.tif"
	store := &mocks.MockTileStore{Tiles: []domain.Tile{{
		Satellite: &sat,
		X:         120,
		Y:         -21,
		Datasets:  map[string]*string{"ARG25": &path, "FC25": nil},
	}}}
	h := newQueryHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tiles?"+baseQuery, nil)
	rr := httptest.NewRecorder()
	h.Tiles(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}

	var resp tilesResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("expected 1 tile, got %d", resp.Count)
	}
	got := resp.Tiles[0]
	if got.Datasets["ARG25"] == nil || *got.Datasets["ARG25"] != path {
		t.Errorf("unexpected dataset path: %+v", got.Datasets)
	}
	if v, ok := got.Datasets["FC25"]; !ok || v != nil {
		t.Errorf("expected FC25 present with a null path, got %+v", got.Datasets)
	}
}

func TestQueryHandler_TerrainTiles(t *testing.T) {
	store := &mocks.MockTileStore{Tiles: []domain.Tile{{X: 135, Y: -25}}}
	h := newQueryHandler(store)

	t.Run("Valid Request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tiles/terrain?x=135&y=-25", nil)
		rr := httptest.NewRecorder()
		h.TerrainTiles(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
		}
		if len(store.TerrainFilters) != 1 {
			t.Fatalf("expected one terrain query, got %d", len(store.TerrainFilters))
		}
		if store.TerrainFilters[0].Sort != domain.SortAsc {
			t.Errorf("expected default ascending sort, got %q", store.TerrainFilters[0].Sort)
		}
	})

	t.Run("Missing Grid Range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tiles/terrain", nil)
		rr := httptest.NewRecorder()
		h.TerrainTiles(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})
}

func TestQueryHandler_TilesIntersecting(t *testing.T) {
	wkt := "POLYGON((148 -36,149 -36,149 -35,148 -35,148 -36))"

	t.Run("Valid Request", func(t *testing.T) {
		store := &mocks.MockTileStore{Tiles: []domain.Tile{{X: 148, Y: -36}}}
		h := newQueryHandler(store)

		q := "wkt=" + strings.ReplaceAll(wkt, " ", "%20") + "&satellites=LS8&datasets=ARG25"
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tiles/intersect?"+q, nil)
		rr := httptest.NewRecorder()
		h.TilesIntersecting(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
		}
		if len(store.PolygonFilters) != 1 || store.PolygonFilters[0].WKT != wkt {
			t.Errorf("unexpected recorded filters: %+v", store.PolygonFilters)
		}
	})

	t.Run("Missing Polygon", func(t *testing.T) {
		store := &mocks.MockTileStore{}
		h := newQueryHandler(store)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/tiles/intersect?satellites=LS8&datasets=ARG25", nil)
		rr := httptest.NewRecorder()
		h.TilesIntersecting(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})
}
