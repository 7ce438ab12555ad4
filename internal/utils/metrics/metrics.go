// internal/utils/metrics/metrics.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchpad_trades_total",
			Help: "Settled bonding-curve trades by direction.",
		},
		[]string{"direction"},
	)

	tradeFeeBps = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "launchpad_trade_fee_bps",
			Help:    "Effective fee charged per trade, in basis points.",
			Buckets: []float64{0, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"direction"},
	)

	salesCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "launchpad_sales_created_total",
			Help: "Sale instances opened.",
		},
	)

	graduationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "launchpad_graduations_total",
			Help: "Sales that completed the bonding phase.",
		},
	)

	withdrawalsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "launchpad_token_withdrawals_total",
			Help: "Escrow withdrawals after graduation.",
		},
	)

	agentEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchpad_agent_events_total",
			Help: "Agent pool activity by kind.",
		},
		[]string{"kind"},
	)

	snapshotsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "launchpad_fee_snapshots_total",
			Help: "Fee-discount snapshots recorded.",
		},
	)

	poolLiquidity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "launchpad_graduation_liquidity",
			Help: "Pairing-asset liquidity seeded per graduation pool.",
		},
		[]string{"pool"},
	)
)
