// internal/export/export.go
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/storage"
	"github.com/rovshanmuradov/launchpad/internal/storage/models"
)

// Format represents the export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Options configures the export behavior
type Options struct {
	Format          Format
	StartTime       time.Time
	EndTime         time.Time
	DirectionFilter string // Filter by direction (buy/sell)
	OutputDir       string
}

// TradeExporter dumps a sale's persisted trade history to disk for
// offline analysis.
type TradeExporter struct {
	store  storage.Storage
	logger *zap.Logger
}

// NewTradeExporter creates a new trade exporter over the storage layer
func NewTradeExporter(store storage.Storage, logger *zap.Logger) *TradeExporter {
	return &TradeExporter{
		store:  store,
		logger: logger.Named("export"),
	}
}

// ExportTrades exports one sale's trades based on the provided options
func (te *TradeExporter) ExportTrades(ctx context.Context, saleID uint64, options Options) (string, error) {
	trades, err := te.loadTrades(ctx, saleID)
	if err != nil {
		return "", err
	}

	filtered := te.filterTrades(trades, options)
	if len(filtered) == 0 {
		return "", fmt.Errorf("no trades match the export criteria")
	}

	// Sort by record time
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	filename := te.generateFilename(saleID, options)
	outputPath := filepath.Join(options.OutputDir, filename)

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	switch options.Format {
	case FormatCSV:
		err = te.exportToCSV(filtered, outputPath)
	case FormatJSON:
		err = te.exportToJSON(saleID, filtered, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		return "", err
	}

	te.logger.Info("Trades exported",
		zap.String("file", outputPath),
		zap.Uint64("sale_id", saleID),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

// loadTrades pages through storage until the sale's history is complete.
func (te *TradeExporter) loadTrades(ctx context.Context, saleID uint64) ([]*models.Trade, error) {
	const pageSize = 500
	var all []*models.Trade
	for offset := 0; ; offset += pageSize {
		page, err := te.store.ListTrades(ctx, saleID, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to load trades: %w", err)
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// filterTrades applies filters to the trade list
func (te *TradeExporter) filterTrades(trades []*models.Trade, options Options) []*models.Trade {
	var filtered []*models.Trade
	for _, trade := range trades {
		if !options.StartTime.IsZero() && trade.CreatedAt.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && trade.CreatedAt.After(options.EndTime) {
			continue
		}
		if options.DirectionFilter != "" && trade.Direction != options.DirectionFilter {
			continue
		}
		filtered = append(filtered, trade)
	}
	return filtered
}

// generateFilename creates a filename based on export options
func (te *TradeExporter) generateFilename(saleID uint64, options Options) string {
	timestamp := time.Now().Format("20060102_150405")

	prefix := fmt.Sprintf("sale_%d_trades", saleID)
	if options.DirectionFilter != "" {
		prefix += "_" + options.DirectionFilter
	}

	return fmt.Sprintf("%s_%s.%s", prefix, timestamp, options.Format)
}

func csvHeaders() []string {
	return []string{"time", "trader", "direction", "amount_in", "amount_out", "fee_bps", "creator_fee", "treasury_fee"}
}

func tradeToCSV(trade *models.Trade) []string {
	return []string{
		trade.CreatedAt.Format(time.RFC3339),
		trade.TraderAddress,
		trade.Direction,
		trade.AmountIn,
		trade.AmountOut,
		strconv.FormatUint(trade.FeeBps, 10),
		trade.CreatorFee,
		trade.TreasuryFee,
	}
}

// exportToCSV exports trades to CSV format
func (te *TradeExporter) exportToCSV(trades []*models.Trade, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(csvHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, trade := range trades {
		if err := writer.Write(tradeToCSV(trade)); err != nil {
			return fmt.Errorf("failed to write trade: %w", err)
		}
	}
	return nil
}

// exportToJSON exports trades to JSON format with summary metadata
func (te *TradeExporter) exportToJSON(saleID uint64, trades []*models.Trade, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	exportData := struct {
		ExportTime time.Time       `json:"export_time"`
		SaleID     uint64          `json:"sale_id"`
		TradeCount int             `json:"trade_count"`
		Trades     []*models.Trade `json:"trades"`
		Summary    Summary         `json:"summary"`
	}{
		ExportTime: time.Now(),
		SaleID:     saleID,
		TradeCount: len(trades),
		Trades:     trades,
		Summary:    calculateSummary(trades),
	}

	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// Summary aggregates a trade set for the JSON export header.
type Summary struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

func calculateSummary(trades []*models.Trade) Summary {
	var s Summary
	for _, trade := range trades {
		switch trade.Direction {
		case "buy":
			s.Buys++
		case "sell":
			s.Sells++
		}
	}
	return s
}
