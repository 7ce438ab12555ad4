// internal/utils/metrics/collector.go
package metrics

import (
	"context"
	"math/big"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/events"
)

// Collector owns the engine's metric set on a private registry, so tests
// can build as many collectors as they need.
type Collector struct {
	registry *prometheus.Registry
	logger   *zap.Logger
	subs     []events.Subscription
}

func NewCollector(logger *zap.Logger) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		logger:   logger.Named("metrics"),
	}
	c.registry.MustRegister(
		tradesTotal,
		tradeFeeBps,
		salesCreatedTotal,
		graduationsTotal,
		withdrawalsTotal,
		agentEventsTotal,
		snapshotsTotal,
		poolLiquidity,
	)
	return c
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Reset clears every metric. Test hook.
func (c *Collector) Reset() {
	tradesTotal.Reset()
	tradeFeeBps.Reset()
	agentEventsTotal.Reset()
	poolLiquidity.Reset()
}

// Attach subscribes the collector to the engine's event stream.
func (c *Collector) Attach(bus *events.Bus) {
	c.subs = []events.Subscription{
		bus.SubscribeFunc(events.SaleCreated, func(context.Context, events.Event) error {
			salesCreatedTotal.Inc()
			return nil
		}),
		bus.SubscribeFunc(events.TradeExecuted, c.onTrade),
		bus.SubscribeFunc(events.SaleGraduated, c.onGraduation),
		bus.SubscribeFunc(events.TokensWithdrawn, func(context.Context, events.Event) error {
			withdrawalsTotal.Inc()
			return nil
		}),
		bus.SubscribeFunc(events.SnapshotRecorded, func(context.Context, events.Event) error {
			snapshotsTotal.Inc()
			return nil
		}),
		bus.SubscribeFunc(events.AgentDeposited, c.onAgentEvent("deposited")),
		bus.SubscribeFunc(events.AgentWithdrawn, c.onAgentEvent("withdrawn")),
		bus.SubscribeFunc(events.AgentRewardsClaimed, c.onAgentEvent("claimed")),
	}
}

// Detach removes every subscription created by Attach.
func (c *Collector) Detach() {
	for _, sub := range c.subs {
		sub.Unsubscribe()
	}
	c.subs = nil
}

func (c *Collector) onTrade(_ context.Context, event events.Event) error {
	trade, ok := event.(events.TradeExecutedEvent)
	if !ok {
		return nil
	}
	direction := string(trade.Direction)
	tradesTotal.WithLabelValues(direction).Inc()
	tradeFeeBps.WithLabelValues(direction).Observe(float64(trade.FeeBps))
	return nil
}

func (c *Collector) onGraduation(_ context.Context, event events.Event) error {
	grad, ok := event.(events.SaleGraduatedEvent)
	if !ok {
		return nil
	}
	graduationsTotal.Inc()
	poolLiquidity.WithLabelValues(grad.Pool.Hex()).Set(amountToFloat(grad.LiquidityPairing))
	c.logger.Debug("Graduation recorded", zap.Uint64("sale_id", grad.SaleID))
	return nil
}

func (c *Collector) onAgentEvent(kind string) func(context.Context, events.Event) error {
	return func(context.Context, events.Event) error {
		agentEventsTotal.WithLabelValues(kind).Inc()
		return nil
	}
}

// amountToFloat is lossy above 2^53 base units; metrics tolerate that.
func amountToFloat(amount *big.Int) float64 {
	if amount == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(amount).Float64()
	return f
}
