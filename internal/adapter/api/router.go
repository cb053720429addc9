package api

import (
	"log/slog"
	"net/http"

	"github.com/smr547/agdc/internal/adapter/api/handler"
	"github.com/smr547/agdc/internal/adapter/api/middleware"
	"github.com/smr547/agdc/internal/pkg/config"
	"github.com/smr547/agdc/internal/usecase"
)

// NewRouter creates and configures the HTTP router for the catalogue service.
func NewRouter(cfg *config.Config, logger *slog.Logger, catalogue *usecase.CatalogueService) http.Handler {
	mux := http.NewServeMux()

	queryHandler := handler.NewQueryHandler(catalogue, logger)
	exportHandler := handler.NewExportHandler(catalogue, logger)

	mux.HandleFunc("GET /api/v1/cells", queryHandler.Cells)
	mux.HandleFunc("GET /api/v1/cells/missing", queryHandler.CellsMissing)
	mux.HandleFunc("GET /api/v1/tiles", queryHandler.Tiles)
	mux.HandleFunc("GET /api/v1/tiles/missing", queryHandler.TilesMissing)
	mux.HandleFunc("GET /api/v1/tiles/terrain", queryHandler.TerrainTiles)
	mux.HandleFunc("GET /api/v1/tiles/intersect", queryHandler.TilesIntersecting)

	mux.HandleFunc("GET /api/v1/cells/export", exportHandler.Cells)
	mux.HandleFunc("GET /api/v1/cells/missing/export", exportHandler.CellsMissing)
	mux.HandleFunc("GET /api/v1/tiles/export", exportHandler.Tiles)
	mux.HandleFunc("GET /api/v1/tiles/missing/export", exportHandler.TilesMissing)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	var h http.Handler = mux
	h = middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.RequestID()(h)
	return h
}
