// internal/storage/recorder.go
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/events"
	"github.com/rovshanmuradov/launchpad/internal/storage/models"
)

// Recorder subscribes to the engine's event bus and persists the rows the
// indexer surface reads. It works entirely off event payloads and never
// calls back into the engine.
type Recorder struct {
	store  Storage
	logger *zap.Logger
	subs   []events.Subscription
}

// NewRecorder creates a recorder over the given store.
func NewRecorder(store Storage, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger.Named("recorder"),
	}
}

// Attach subscribes the recorder to the bus.
func (r *Recorder) Attach(bus *events.Bus) {
	r.subs = append(r.subs,
		bus.SubscribeFunc(events.SaleCreated, r.onSaleCreated),
		bus.SubscribeFunc(events.SaleGraduated, r.onSaleGraduated),
		bus.SubscribeFunc(events.TradeExecuted, r.onTradeExecuted),
		bus.SubscribeFunc(events.AgentDeposited, r.onAgentEvent),
		bus.SubscribeFunc(events.AgentWithdrawn, r.onAgentEvent),
		bus.SubscribeFunc(events.AgentRewardsClaimed, r.onAgentEvent),
	)
}

// Detach removes all subscriptions.
func (r *Recorder) Detach() {
	for _, sub := range r.subs {
		sub.Unsubscribe()
	}
	r.subs = nil
}

func (r *Recorder) onSaleCreated(ctx context.Context, ev events.Event) error {
	e, ok := ev.(events.SaleCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", ev.Type())
	}
	sale := &models.Sale{
		SaleID:          e.SaleID,
		TokenAddress:    e.Token.Hex(),
		PairingAddress:  e.Pairing.Hex(),
		CreatorAddress:  e.Creator.Hex(),
		TotalSupply:     e.TotalSupply.String(),
		LiquidityBucket: e.LiquidityBucket.String(),
		BondingBucket:   e.BondingBucket.String(),
		TreasuryBucket:  e.TreasuryBucket.String(),
		AgentBucket:     e.AgentBucket.String(),
	}
	if e.Agent != nil {
		sale.AgentAddress = e.Agent.Hex()
	}
	return r.store.SaveSale(ctx, sale)
}

func (r *Recorder) onSaleGraduated(ctx context.Context, ev events.Event) error {
	e, ok := ev.(events.SaleGraduatedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", ev.Type())
	}
	return r.store.MarkGraduated(ctx, e.SaleID, e.Pool.Hex())
}

func (r *Recorder) onTradeExecuted(ctx context.Context, ev events.Event) error {
	e, ok := ev.(events.TradeExecutedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", ev.Type())
	}
	return r.store.SaveTrade(ctx, &models.Trade{
		SaleID:        e.SaleID,
		TraderAddress: e.Trader.Hex(),
		Direction:     string(e.Direction),
		AmountIn:      e.AmountIn.String(),
		AmountOut:     e.AmountOut.String(),
		FeeBps:        e.FeeBps,
		CreatorFee:    e.CreatorFee.String(),
		TreasuryFee:   e.TreasuryFee.String(),
	})
}

func (r *Recorder) onAgentEvent(ctx context.Context, ev events.Event) error {
	switch e := ev.(type) {
	case events.AgentDepositedEvent:
		return r.store.SaveAgentEvent(ctx, &models.AgentEvent{
			SaleID:           e.SaleID,
			DepositorAddress: e.Depositor.Hex(),
			Kind:             models.AgentKindDeposit,
			Amount:           e.Amount.String(),
		})
	case events.AgentWithdrawnEvent:
		return r.store.SaveAgentEvent(ctx, &models.AgentEvent{
			SaleID:           e.SaleID,
			DepositorAddress: e.Depositor.Hex(),
			Kind:             models.AgentKindWithdraw,
			Amount:           e.Amount.String(),
		})
	case events.AgentRewardsClaimedEvent:
		return r.store.SaveAgentEvent(ctx, &models.AgentEvent{
			SaleID:           e.SaleID,
			DepositorAddress: e.Depositor.Hex(),
			Kind:             models.AgentKindClaim,
			Amount:           e.Deposit.String(),
			Tokens:           e.Tokens.String(),
		})
	default:
		r.logger.Warn("Unexpected agent event payload", zap.String("type", string(ev.Type())))
		return nil
	}
}
