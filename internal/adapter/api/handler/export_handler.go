package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/smr547/agdc/internal/domain"
	"github.com/smr547/agdc/internal/usecase"
)

// ExportHandler streams CSV exports straight from the database to the
// response body. Output is not buffered, so a failure after the first write
// cannot be turned into an error status; the connection is aborted instead so
// the client sees a truncated transfer rather than a complete-looking file.
type ExportHandler struct {
	catalogue *usecase.CatalogueService
	logger    *slog.Logger
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(catalogue *usecase.CatalogueService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{catalogue: catalogue, logger: logger}
}

// Cells exports the cell listing as CSV.
func (h *ExportHandler) Cells(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.stream(w, "cells.csv", func(w http.ResponseWriter) (int64, error) {
		return h.catalogue.ExportCells(r.Context(), f, w)
	})
}

// CellsMissing exports the missing-cell listing as CSV.
func (h *ExportHandler) CellsMissing(w http.ResponseWriter, r *http.Request) {
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
	h.stream(w, "cells_missing.csv", func(w http.ResponseWriter) (int64, error) {
		return h.catalogue.ExportCellsMissing(r.Context(), f, spec, w)
	})
}

// Tiles exports the tile listing as CSV.
func (h *ExportHandler) Tiles(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.stream(w, "tiles.csv", func(w http.ResponseWriter) (int64, error) {
		return h.catalogue.ExportTiles(r.Context(), f, w)
	})
}

// TilesMissing exports the missing-tile listing as CSV.
func (h *ExportHandler) TilesMissing(w http.ResponseWriter, r *http.Request) {
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
	h.stream(w, "tiles_missing.csv", func(w http.ResponseWriter) (int64, error) {
		return h.catalogue.ExportTilesMissing(r.Context(), f, spec, w)
	})
}

func (h *ExportHandler) stream(w http.ResponseWriter, filename string, run func(http.ResponseWriter) (int64, error)) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	rows, err := run(w)
	if err != nil {
		var exportErr *domain.ExportError
		if errors.As(err, &exportErr) && exportErr.BytesWritten > 0 {
			h.logger.Error("aborting export mid-stream",
				"filename", filename, "bytes_written", exportErr.BytesWritten, "error", err)
			panic(http.ErrAbortHandler)
		}
		h.writeError(w, err)
		return
	}
	h.logger.Debug("export complete", "filename", filename, "rows", rows)
}

func (h *ExportHandler) writeError(w http.ResponseWriter, err error) {
	var connectErr *domain.ConnectError
	switch {
	case isValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &connectErr):
		h.logger.Error("database unreachable", "error", err)
		http.Error(w, "Database unavailable", http.StatusServiceUnavailable)
	default:
		h.logger.Error("export failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
