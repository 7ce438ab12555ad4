// internal/launchpad/agent.go
package launchpad

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/events"
	"github.com/rovshanmuradov/launchpad/internal/types"
)

// DepositAgentTokens adds to the caller's agent-pool position. Deposits are
// only accepted while the sale is bonding; the final pre-graduation amounts
// are what rewards are proportional to.
func (e *Engine) DepositAgentTokens(depositor common.Address, saleID uint64, amount *big.Int) error {
	release, err := e.enter()
	if err != nil {
		return err
	}
	defer release()

	inst, ok := e.instances[saleID]
	if !ok {
		return ErrUnknownSale
	}
	if inst.State != StateBonding {
		return ErrAlreadyGraduated
	}
	if inst.Agent == nil {
		return ErrNoAgentToken
	}
	if depositor == (common.Address{}) {
		return ErrZeroAddress
	}
	if !types.IsPositive(amount) {
		return ErrInvalidAmount
	}

	if err := inst.Agent.TransferFrom(e.addr, depositor, e.addr, amount); err != nil {
		return fmt.Errorf("pull agent deposit: %w", err)
	}
	if existing := inst.agentDeposits[depositor]; existing != nil {
		existing.Add(existing, amount)
	} else {
		inst.agentDeposits[depositor] = types.Clone(amount)
	}
	inst.TotalAgentDeposited.Add(inst.TotalAgentDeposited, amount)

	e.publish(events.AgentDepositedEvent{
		BaseEvent: events.Now(events.AgentDeposited),
		SaleID:    inst.ID,
		Depositor: depositor,
		Amount:    types.Clone(amount),
		Total:     types.Clone(inst.TotalAgentDeposited),
	})
	return nil
}

// WithdrawAgentTokens returns part or all of the caller's agent deposit
// while the sale is still bonding.
func (e *Engine) WithdrawAgentTokens(depositor common.Address, saleID uint64, amount *big.Int) error {
	release, err := e.enter()
	if err != nil {
		return err
	}
	defer release()

	inst, ok := e.instances[saleID]
	if !ok {
		return ErrUnknownSale
	}
	if inst.State != StateBonding {
		return ErrAlreadyGraduated
	}
	if inst.Agent == nil {
		return ErrNoAgentToken
	}
	if !types.IsPositive(amount) {
		return ErrInvalidAmount
	}
	existing := inst.agentDeposits[depositor]
	if existing == nil || existing.Sign() == 0 {
		return ErrNoDepositsToWithdraw
	}
	if existing.Cmp(amount) < 0 {
		return ErrInsufficientAgentTokens
	}

	if err := inst.Agent.Transfer(e.addr, depositor, amount); err != nil {
		return fmt.Errorf("return agent deposit: %w", err)
	}
	existing.Sub(existing, amount)
	if existing.Sign() == 0 {
		delete(inst.agentDeposits, depositor)
	}
	inst.TotalAgentDeposited.Sub(inst.TotalAgentDeposited, amount)

	e.publish(events.AgentWithdrawnEvent{
		BaseEvent: events.Now(events.AgentWithdrawn),
		SaleID:    inst.ID,
		Depositor: depositor,
		Amount:    types.Clone(amount),
		Total:     types.Clone(inst.TotalAgentDeposited),
	})
	return nil
}

// CalculateAgentRewards returns the tokens a depositor would claim and the
// deposit amount backing that claim. Rewards are evaluated lazily against
// the frozen post-graduation pool; rounding loss stays in the bucket.
func (e *Engine) CalculateAgentRewards(saleID uint64, depositor common.Address) (*big.Int, *big.Int, error) {
	release, err := e.enter()
	if err != nil {
		return nil, nil, err
	}
	defer release()

	inst, ok := e.instances[saleID]
	if !ok {
		return nil, nil, ErrUnknownSale
	}
	if inst.Agent == nil {
		return nil, nil, ErrNoAgentToken
	}
	if inst.State != StateGraduated {
		return nil, nil, ErrNotGraduated
	}

	deposit := inst.agentDepositOf(depositor)
	if deposit.Sign() == 0 || inst.TotalAgentDeposited.Sign() == 0 {
		return new(big.Int), deposit, nil
	}
	tokens := types.MulDiv(inst.Buckets.AgentRewards, deposit, inst.TotalAgentDeposited)
	return tokens, deposit, nil
}

// ClaimAgentRewards transfers the caller's proportional share of the
// agent-rewards bucket. One-shot: the recorded deposit is zeroed so a second
// claim fails.
func (e *Engine) ClaimAgentRewards(depositor common.Address, saleID uint64) (*big.Int, error) {
	release, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	inst, ok := e.instances[saleID]
	if !ok {
		return nil, ErrUnknownSale
	}
	if inst.Agent == nil {
		return nil, ErrNoAgentToken
	}
	if inst.State != StateGraduated {
		return nil, ErrNotGraduated
	}
	deposit := inst.agentDeposits[depositor]
	if deposit == nil || deposit.Sign() == 0 {
		return nil, ErrNoDepositsToClaim
	}

	// TotalAgentDeposited is frozen at graduation and stays the denominator
	// across all claims; zeroing individual records must not touch it.
	tokens := types.MulDiv(inst.Buckets.AgentRewards, deposit, inst.TotalAgentDeposited)
	claimed := types.Clone(deposit)

	if tokens.Sign() > 0 {
		if err := inst.Token.Transfer(e.addr, depositor, tokens); err != nil {
			return nil, fmt.Errorf("pay rewards: %w", err)
		}
	}
	delete(inst.agentDeposits, depositor)

	e.logger.Debug("Agent rewards claimed",
		zap.Uint64("sale_id", inst.ID),
		zap.Stringer("depositor", depositor),
		zap.String("tokens", tokens.String()),
		zap.String("deposit", claimed.String()))

	e.publish(events.AgentRewardsClaimedEvent{
		BaseEvent: events.Now(events.AgentRewardsClaimed),
		SaleID:    inst.ID,
		Depositor: depositor,
		Tokens:    types.Clone(tokens),
		Deposit:   claimed,
	})
	return tokens, nil
}
