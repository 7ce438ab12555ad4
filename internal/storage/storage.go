// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/rovshanmuradov/launchpad/internal/storage/models"
)

// Storage is the persistence surface for the event recorder and the
// external indexer API.
type Storage interface {
	// Sales
	SaveSale(ctx context.Context, sale *models.Sale) error
	MarkGraduated(ctx context.Context, saleID uint64, poolID string) error
	GetSale(ctx context.Context, saleID uint64) (*models.Sale, error)
	ListSales(ctx context.Context, limit, offset int) ([]*models.Sale, error)

	// Trades
	SaveTrade(ctx context.Context, trade *models.Trade) error
	ListTrades(ctx context.Context, saleID uint64, limit, offset int) ([]*models.Trade, error)

	// Agent pool
	SaveAgentEvent(ctx context.Context, event *models.AgentEvent) error

	// Migrations
	RunMigrations() error
}
