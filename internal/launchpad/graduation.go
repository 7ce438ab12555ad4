// internal/launchpad/graduation.go
package launchpad

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/events"
	"github.com/rovshanmuradov/launchpad/internal/types"
	"github.com/rovshanmuradov/launchpad/internal/venue"
)

// eligibleForGraduation checks the one-way transition condition: net
// deposits at or above the pairing threshold, and — when an agent pool is
// attached — the minimum agent deposit met.
func (e *Engine) eligibleForGraduation(inst *SaleInstance) bool {
	if inst.State != StateBonding {
		return false
	}
	threshold := e.pairings[inst.Pairing.Address()].GraduationThreshold
	if inst.TotalDeposited.Cmp(threshold) < 0 {
		return false
	}
	if inst.Agent != nil && types.IsPositive(inst.MinAgentDeposit) &&
		inst.TotalAgentDeposited.Cmp(inst.MinAgentDeposit) < 0 {
		return false
	}
	return true
}

// graduate is the single writer of the sale's state flag. It moves the
// liquidity bucket plus all net deposits to the external venue; the treasury
// bucket, the unsold bonding remainder and collected agent deposits to the
// treasury pool; and leaves the agent-rewards bucket in engine custody for
// claims. The venue call is the only failure point and runs before any
// balance moves, so a failure leaves the instance un-graduated with its
// books intact.
func (e *Engine) graduate(inst *SaleInstance) error {
	pool, err := e.venue.CreatePool(inst.Token, inst.Pairing)
	if errors.Is(err, venue.ErrPoolExists) {
		// A prior graduation attempt got as far as creating the pool.
		pool = venue.PairID(inst.Token.Address(), inst.Pairing.Address())
	} else if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}

	liquidityTokens := types.Clone(inst.Buckets.Liquidity)
	liquidityPairing := types.Clone(inst.TotalDeposited)

	if err := inst.Token.Approve(e.addr, e.venue.Address(), liquidityTokens); err != nil {
		return fmt.Errorf("approve token: %w", err)
	}
	if err := inst.Pairing.Approve(e.addr, e.venue.Address(), liquidityPairing); err != nil {
		return fmt.Errorf("approve pairing: %w", err)
	}
	if err := e.venue.AddLiquidity(pool, e.addr, liquidityTokens, liquidityPairing); err != nil {
		return fmt.Errorf("add liquidity: %w", err)
	}

	// From here on every transfer draws on engine custody the instance
	// already holds; failures would mean corrupted books, not bad input.
	if err := e.treasury.Deposit(inst.Token, e.addr, inst.Buckets.Treasury); err != nil {
		e.logger.Error("Treasury bucket deposit failed", zap.Uint64("sale_id", inst.ID), zap.Error(err))
	}
	// Curve trading is closed for good, so whatever the bonding bucket
	// never sold would otherwise be stranded in engine custody.
	if unsold := inst.bondingRemaining(); types.IsPositive(unsold) {
		if err := e.treasury.Deposit(inst.Token, e.addr, unsold); err != nil {
			e.logger.Error("Unsold bonding deposit failed", zap.Uint64("sale_id", inst.ID), zap.Error(err))
		}
	}
	if inst.Agent != nil && inst.TotalAgentDeposited.Sign() > 0 {
		if err := e.treasury.Deposit(inst.Agent, e.addr, inst.TotalAgentDeposited); err != nil {
			e.logger.Error("Agent deposit forwarding failed", zap.Uint64("sale_id", inst.ID), zap.Error(err))
		}
	}

	inst.State = StateGraduated
	inst.GraduatedAt = e.clock.Now()

	e.logger.Info("Sale graduated",
		zap.Uint64("sale_id", inst.ID),
		zap.Stringer("pool", pool),
		zap.String("liquidity_tokens", liquidityTokens.String()),
		zap.String("liquidity_pairing", liquidityPairing.String()))

	e.publish(events.SaleGraduatedEvent{
		BaseEvent:        events.Now(events.SaleGraduated),
		SaleID:           inst.ID,
		Token:            inst.Token.Address(),
		Pool:             pool,
		LiquidityTokens:  liquidityTokens,
		LiquidityPairing: liquidityPairing,
		TreasuryTokens:   types.Clone(inst.Buckets.Treasury),
	})
	return nil
}
