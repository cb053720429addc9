package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/smr547/agdc/internal/domain"
	"github.com/smr547/agdc/internal/usecase"
)

// QueryHandler serves the JSON listing endpoints.
type QueryHandler struct {
	catalogue *usecase.CatalogueService
	logger    *slog.Logger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(catalogue *usecase.CatalogueService, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{catalogue: catalogue, logger: logger}
}

type cellsResponse struct {
	Cells []domain.Cell `json:"cells"`
	Count int           `json:"count"`
}

type tilesResponse struct {
	Tiles []domain.Tile `json:"tiles"`
	Count int           `json:"count"`
}

// Cells lists the distinct cells matching the query parameters.
func (h *QueryHandler) Cells(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cells, err := h.catalogue.ListCellsAll(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, cellsResponse{Cells: emptyCells(cells), Count: len(cells)})
}

// CellsMissing lists cells where the present dataset exists and the absent
// one does not.
func (h *QueryHandler) CellsMissing(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	spec, err := parseMissingSpec(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cells, err := h.catalogue.ListCellsMissingAll(r.Context(), f, spec)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, cellsResponse{Cells: emptyCells(cells), Count: len(cells)})
}

// Tiles lists one record per acquisition and cell.
func (h *QueryHandler) Tiles(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	tiles, err := h.catalogue.ListTilesAll(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, tilesResponse{Tiles: emptyTiles(tiles), Count: len(tiles)})
}

// TilesMissing lists tiles with the present dataset but not the absent one.
func (h *QueryHandler) TilesMissing(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	spec, err := parseMissingSpec(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	tiles, err := h.catalogue.ListTilesMissingAll(r.Context(), f, spec)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, tilesResponse{Tiles: emptyTiles(tiles), Count: len(tiles)})
}

// TerrainTiles lists elevation tiles for the requested grid indices.
func (h *QueryHandler) TerrainTiles(w http.ResponseWriter, r *http.Request) {
	f, err := parseTerrainFilter(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	tiles, err := h.catalogue.ListTerrainTilesAll(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, tilesResponse{Tiles: emptyTiles(tiles), Count: len(tiles)})
}

// TilesIntersecting lists tiles whose cell footprint intersects the WKT
// polygon.
func (h *QueryHandler) TilesIntersecting(w http.ResponseWriter, r *http.Request) {
	f, err := parsePolygonFilter(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	tiles, err := h.catalogue.ListTilesIntersectingAll(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, tilesResponse{Tiles: emptyTiles(tiles), Count: len(tiles)})
}

func (h *QueryHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses: invalid filters are the
// client's fault, an unreachable database is a 503, anything else a 500.
func (h *QueryHandler) writeError(w http.ResponseWriter, err error) {
	var connectErr *domain.ConnectError
	switch {
	case isValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &connectErr):
		h.logger.Error("database unreachable", "error", err)
		http.Error(w, "Database unavailable", http.StatusServiceUnavailable)
	default:
		h.logger.Error("query failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		domain.ErrEmptyGridRange,
		domain.ErrNoSatellites,
		domain.ErrNoLevels,
		domain.ErrInvalidInterval,
		domain.ErrUnknownSatellite,
		domain.ErrUnknownLevel,
		domain.ErrDuplicateLevel,
		domain.ErrInvalidSort,
		domain.ErrEmptyPolygon,
		domain.ErrSameLevelPair,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// JSON null for an empty listing reads as an error to most clients; always
// send an array.
func emptyCells(cells []domain.Cell) []domain.Cell {
	if cells == nil {
		return []domain.Cell{}
	}
	return cells
}

func emptyTiles(tiles []domain.Tile) []domain.Tile {
	if tiles == nil {
		return []domain.Tile{}
	}
	return tiles
}
