package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smr547/agdc/internal/domain"
)

const cellKeyPrefix = "agdc:cells:"

// CellCache implements domain.CellCache over Redis. Materialized cell
// listings are small (distinct grid indices) and queried repeatedly with the
// same filters, so a short TTL takes real load off the datacube.
type CellCache struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// NewCellCache creates a Redis-backed cell-list cache.
func NewCellCache(client *redis.Client, logger *slog.Logger, ttl time.Duration) *CellCache {
	return &CellCache{
		client: client,
		logger: logger.With("component", "cell_cache"),
		ttl:    ttl,
	}
}

// GetCells returns the cached listing for key, reporting a miss as
// (nil, false, nil).
func (c *CellCache) GetCells(ctx context.Context, key string) ([]domain.Cell, bool, error) {
	payload, err := c.client.Get(ctx, cellKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cell cache get: %w", err)
	}

	var cells []domain.Cell
	if err := json.Unmarshal(payload, &cells); err != nil {
		// A corrupt entry is treated as a miss; it will be overwritten.
		c.logger.Warn("discarding undecodable cache entry", "key", key, "error", err)
		return nil, false, nil
	}

	return cells, true, nil
}

// PutCells stores the listing under key with the cache TTL. An empty listing
// is cached too; "no matching cells" is as valid an answer as any.
func (c *CellCache) PutCells(ctx context.Context, key string, cells []domain.Cell) error {
	if cells == nil {
		cells = []domain.Cell{}
	}

	payload, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("cell cache encode: %w", err)
	}

	if err := c.client.Set(ctx, cellKeyPrefix+key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cell cache put: %w", err)
	}
	return nil
}
