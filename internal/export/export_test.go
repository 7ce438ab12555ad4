// internal/export/export_test.go
package export

import (
	"context"
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/launchpad/internal/storage/models"
)

// memoryStore serves canned trades; only ListTrades matters here.
type memoryStore struct {
	trades []*models.Trade
}

func (m *memoryStore) SaveSale(context.Context, *models.Sale) error { return nil }
func (m *memoryStore) MarkGraduated(context.Context, uint64, string) error { return nil }
func (m *memoryStore) GetSale(context.Context, uint64) (*models.Sale, error) {
	return nil, nil
}
func (m *memoryStore) ListSales(context.Context, int, int) ([]*models.Sale, error) {
	return nil, nil
}
func (m *memoryStore) SaveTrade(context.Context, *models.Trade) error { return nil }
func (m *memoryStore) ListTrades(_ context.Context, _ uint64, limit, offset int) ([]*models.Trade, error) {
	if offset >= len(m.trades) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.trades) {
		end = len(m.trades)
	}
	return m.trades[offset:end], nil
}
func (m *memoryStore) SaveAgentEvent(context.Context, *models.AgentEvent) error { return nil }
func (m *memoryStore) RunMigrations() error { return nil }

func sampleTrades() []*models.Trade {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mk := func(direction string, offset time.Duration) *models.Trade {
		t := &models.Trade{
			SaleID:        1,
			TraderAddress: "0x00000000000000000000000000000000000000aa",
			Direction:     direction,
			AmountIn:      "1000000000000000000",
			AmountOut:     "42",
			FeeBps:        100,
			CreatorFee:    "5",
			TreasuryFee:   "5",
		}
		t.CreatedAt = base.Add(offset)
		return t
	}
	return []*models.Trade{
		mk("buy", 0),
		mk("sell", time.Minute),
		mk("buy", 2*time.Minute),
	}
}

func TestExportTrades_CSV(t *testing.T) {
	exporter := NewTradeExporter(&memoryStore{trades: sampleTrades()}, zaptest.NewLogger(t))

	path, err := exporter.ExportTrades(context.Background(), 1, Options{
		Format:    FormatCSV,
		OutputDir: t.TempDir(),
	})
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4, "header plus three trades")
	assert.Equal(t, csvHeaders(), records[0])
	assert.Equal(t, "buy", records[1][2])
}

func TestExportTrades_DirectionFilter(t *testing.T) {
	exporter := NewTradeExporter(&memoryStore{trades: sampleTrades()}, zaptest.NewLogger(t))

	path, err := exporter.ExportTrades(context.Background(), 1, Options{
		Format:          FormatCSV,
		DirectionFilter: "sell",
		OutputDir:       t.TempDir(),
	})
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestExportTrades_NoMatches(t *testing.T) {
	exporter := NewTradeExporter(&memoryStore{}, zaptest.NewLogger(t))

	_, err := exporter.ExportTrades(context.Background(), 1, Options{
		Format:    FormatCSV,
		OutputDir: t.TempDir(),
	})
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	s := calculateSummary(sampleTrades())
	assert.Equal(t, 2, s.Buys)
	assert.Equal(t, 1, s.Sells)
}
