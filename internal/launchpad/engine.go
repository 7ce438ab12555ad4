// internal/launchpad/engine.go
package launchpad

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/asset"
	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/events"
	"github.com/rovshanmuradov/launchpad/internal/feediscount"
	"github.com/rovshanmuradov/launchpad/internal/treasury"
	"github.com/rovshanmuradov/launchpad/internal/types"
	"github.com/rovshanmuradov/launchpad/internal/venue"
)

// DefaultVirtualPairingReserve seeds the pricing curve when no override is
// configured: 100,000 whole units at 18 decimals.
var DefaultVirtualPairingReserve = new(big.Int).Mul(big.NewInt(100_000), types.Precision)

// Params wires an Engine's collaborators.
type Params struct {
	Owner    common.Address
	Clock    types.Clock
	Venue    venue.Venue
	Treasury *treasury.Pool
	// Discounts is optional; without it every trade pays the base fee.
	Discounts *feediscount.Ledger
	// Bus is optional; without it no events are published.
	Bus                   *events.Bus
	FeeConfig             TradingFeeConfig
	VirtualPairingReserve *big.Int
	Logger                *zap.Logger
}

// Engine is the sale and distribution state machine. Calls execute one at a
// time: any overlapping entry, including reentrant callbacks from asset
// transfers, is rejected with ErrReentrantCall rather than queued.
type Engine struct {
	sem  chan struct{}
	addr common.Address

	owner          common.Address
	clock          types.Clock
	venue          venue.Venue
	treasury       *treasury.Pool
	discounts      *feediscount.Ledger
	bus            *events.Bus
	feeCfg         TradingFeeConfig
	virtualPairing *big.Int
	logger         *zap.Logger

	pairings      map[common.Address]PairingConfig
	pairingAssets map[common.Address]asset.Asset
	agentAssets   map[common.Address]asset.Asset

	instances map[uint64]*SaleInstance
	nextID    uint64
}

// New validates the fee schedule and creates an empty engine.
func New(p Params) (*Engine, error) {
	if err := p.FeeConfig.Validate(); err != nil {
		return nil, err
	}
	if p.Owner == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	virtual := p.VirtualPairingReserve
	if !types.IsPositive(virtual) {
		virtual = DefaultVirtualPairingReserve
	}
	return &Engine{
		sem:            make(chan struct{}, 1),
		addr:           common.BytesToAddress(crypto.Keccak256([]byte("launchpad:engine"))[12:]),
		owner:          p.Owner,
		clock:          p.Clock,
		venue:          p.Venue,
		treasury:       p.Treasury,
		discounts:      p.Discounts,
		bus:            p.Bus,
		feeCfg:         p.FeeConfig,
		virtualPairing: types.Clone(virtual),
		logger:         p.Logger.Named("launchpad"),
		pairings:       make(map[common.Address]PairingConfig),
		pairingAssets:  make(map[common.Address]asset.Asset),
		agentAssets:    make(map[common.Address]asset.Asset),
		instances:      make(map[uint64]*SaleInstance),
		nextID:         1,
	}, nil
}

// Address is the engine's custody address on asset ledgers.
func (e *Engine) Address() common.Address { return e.addr }

// enter acquires the engine's single call slot without blocking. The
// returned release runs on every exit path.
func (e *Engine) enter() (func(), error) {
	select {
	case e.sem <- struct{}{}:
		return func() { <-e.sem }, nil
	default:
		return nil, ErrReentrantCall
	}
}

func (e *Engine) checkDeadline(deadline time.Time) error {
	if !deadline.IsZero() && e.clock.Now().After(deadline) {
		return ErrExpiredDeadline
	}
	return nil
}

func (e *Engine) publish(ev events.Event) {
	if e.bus != nil {
		_ = e.bus.Publish(ev)
	}
}

func (e *Engine) requireOwner(caller common.Address) error {
	if caller != e.owner {
		return ErrNotOwner
	}
	return nil
}

// --- owner-gated configuration surface ---

// SetTradingFeeConfig replaces the global fee schedule.
func (e *Engine) SetTradingFeeConfig(caller common.Address, cfg TradingFeeConfig) error {
	release, err := e.enter()
	if err != nil {
		return err
	}
	defer release()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.feeCfg = cfg
	e.logger.Info("Trading fee config updated",
		zap.Uint64("fee_bps", cfg.FeeBps),
		zap.Uint64("creator_share_bps", cfg.CreatorShareBps))
	return nil
}

// SetFeeReductionConfig replaces the discount interpolation curve.
func (e *Engine) SetFeeReductionConfig(caller common.Address, cfg feediscount.Config) error {
	release, err := e.enter()
	if err != nil {
		return err
	}
	defer release()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if e.discounts == nil {
		return fmt.Errorf("%w: no discount ledger configured", ErrInvalidFeeRange)
	}
	return e.discounts.SetConfig(cfg)
}

// RegisterPairingAsset makes an asset usable as a sale's deposit currency.
func (e *Engine) RegisterPairingAsset(caller common.Address, a asset.Asset, cfg PairingConfig) error {
	release, err := e.enter()
	if err != nil {
		return err
	}
	defer release()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.pairingAssets[a.Address()] = a
	e.pairings[a.Address()] = cfg
	e.logger.Info("Pairing asset registered",
		zap.Stringer("asset", a.Address()),
		zap.Bool("enabled", cfg.Enabled))
	return nil
}

// SetPairingConfig updates the policy of a registered pairing asset.
func (e *Engine) SetPairingConfig(caller, pairing common.Address, cfg PairingConfig) error {
	release, err := e.enter()
	if err != nil {
		return err
	}
	defer release()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if _, ok := e.pairings[pairing]; !ok {
		return ErrUnknownPairing
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.pairings[pairing] = cfg
	return nil
}

// AllowAgentAsset adds or removes an asset from the agent allow-list.
func (e *Engine) AllowAgentAsset(caller common.Address, a asset.Asset, allowed bool) error {
	release, err := e.enter()
	if err != nil {
		return err
	}
	defer release()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if allowed {
		e.agentAssets[a.Address()] = a
	} else {
		delete(e.agentAssets, a.Address())
	}
	return nil
}

// --- sale creation ---

// CreateParams describes a new sale instance.
type CreateParams struct {
	Creator     common.Address
	Pairing     common.Address
	Name        string
	Symbol      string
	TotalSupply *big.Int
	// Agent opts the sale into the co-investor pool; must be allow-listed.
	Agent *common.Address
	// MinAgentDeposit additionally gates graduation; requires Agent.
	MinAgentDeposit *big.Int
}

// CreateSale deploys the sale token, splits the supply into buckets, charges
// the mint cost, and opens the bonding phase.
func (e *Engine) CreateSale(p CreateParams) (uint64, error) {
	release, err := e.enter()
	if err != nil {
		return 0, err
	}
	defer release()

	if p.Creator == (common.Address{}) {
		return 0, ErrZeroAddress
	}
	if !types.IsPositive(p.TotalSupply) {
		return 0, ErrInvalidAmount
	}

	pairing, ok := e.pairingAssets[p.Pairing]
	if !ok {
		return 0, ErrUnknownPairing
	}
	cfg := e.pairings[p.Pairing]
	if !cfg.Enabled {
		return 0, ErrPairingDisabled
	}

	var agent asset.Asset
	if p.Agent != nil {
		agent, ok = e.agentAssets[*p.Agent]
		if !ok {
			return 0, ErrAgentAssetNotAllowed
		}
	} else if types.IsPositive(p.MinAgentDeposit) {
		return 0, ErrCannotSetMinWithoutAgent
	}

	buckets := splitSupply(p.TotalSupply, agent != nil)
	if buckets.Liquidity.Sign() == 0 || buckets.Bonding.Sign() == 0 || buckets.Treasury.Sign() == 0 ||
		(agent != nil && buckets.AgentRewards.Sign() == 0) {
		return 0, ErrSupplyTooSmall
	}

	if types.IsPositive(cfg.MintCost) {
		if err := pairing.TransferFrom(e.addr, p.Creator, e.addr, cfg.MintCost); err != nil {
			return 0, fmt.Errorf("mint cost: %w", err)
		}
		if err := e.treasury.Deposit(pairing, e.addr, cfg.MintCost); err != nil {
			return 0, fmt.Errorf("mint cost: %w", err)
		}
	}

	id := e.nextID
	e.nextID++

	token := asset.NewToken(e.deriveTokenAddress(p.Pairing, id), p.Name, p.Symbol)
	if err := token.Mint(e.addr, p.TotalSupply); err != nil {
		return 0, fmt.Errorf("mint supply: %w", err)
	}

	inst := &SaleInstance{
		ID:                  id,
		Creator:             p.Creator,
		Owner:               p.Creator,
		Token:               token,
		Pairing:             pairing,
		Agent:               agent,
		TotalSupply:         types.Clone(p.TotalSupply),
		Buckets:             buckets,
		MinAgentDeposit:     types.Clone(p.MinAgentDeposit),
		State:               StateBonding,
		CreatedAt:           e.clock.Now(),
		TotalDeposited:      new(big.Int),
		TokensSold:          new(big.Int),
		purchases:           make(map[common.Address]*big.Int),
		agentDeposits:       make(map[common.Address]*big.Int),
		TotalAgentDeposited: new(big.Int),
	}
	e.instances[id] = inst

	e.logger.Info("Sale created",
		zap.Uint64("sale_id", id),
		zap.Stringer("token", token.Address()),
		zap.Stringer("pairing", p.Pairing),
		zap.Bool("agent_pool", agent != nil),
		zap.String("total_supply", p.TotalSupply.String()))

	ev := events.SaleCreatedEvent{
		BaseEvent:       events.Now(events.SaleCreated),
		SaleID:          id,
		Creator:         p.Creator,
		Token:           token.Address(),
		Pairing:         p.Pairing,
		TotalSupply:     types.Clone(p.TotalSupply),
		LiquidityBucket: types.Clone(buckets.Liquidity),
		BondingBucket:   types.Clone(buckets.Bonding),
		TreasuryBucket:  types.Clone(buckets.Treasury),
		AgentBucket:     types.Clone(buckets.AgentRewards),
	}
	if agent != nil {
		addr := agent.Address()
		ev.Agent = &addr
	}
	e.publish(ev)
	return id, nil
}

func (e *Engine) deriveTokenAddress(pairing common.Address, id uint64) common.Address {
	var seed [48]byte
	copy(seed[:20], e.addr.Bytes())
	copy(seed[20:40], pairing.Bytes())
	binary.BigEndian.PutUint64(seed[40:], id)
	return common.BytesToAddress(crypto.Keccak256(seed[:])[12:])
}

// --- trading ---

// Buy spends amountIn of the pairing asset on the bonding curve. The buyer
// must have approved the engine for amountIn. Bought tokens are escrowed
// until withdrawal after graduation. If this buy crosses the graduation
// threshold the transition completes within the same call.
func (e *Engine) Buy(buyer common.Address, saleID uint64, amountIn, minTokensOut *big.Int, deadline time.Time) (*big.Int, error) {
	release, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if err := e.checkDeadline(deadline); err != nil {
		return nil, err
	}
	if buyer == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	if !types.IsPositive(amountIn) {
		return nil, ErrInvalidAmount
	}
	inst, ok := e.instances[saleID]
	if !ok {
		return nil, ErrUnknownSale
	}
	if inst.State != StateBonding {
		return nil, ErrTradingClosed
	}

	e.maybeSnapshot(buyer)

	feeBps := e.effectiveFeeBps(buyer)
	split := curve.SplitFee(amountIn, feeBps, e.feeCfg.CreatorShareBps)

	tokensOut, err := curve.QuoteBuy(inst.reserves(e.virtualPairing), split.Net)
	if err != nil {
		return nil, err
	}
	if tokensOut.Cmp(inst.bondingRemaining()) > 0 {
		return nil, curve.ErrInsufficientLiquidity
	}
	if minTokensOut != nil && tokensOut.Cmp(minTokensOut) < 0 {
		return nil, ErrInsufficientOutput
	}

	if err := inst.Pairing.TransferFrom(e.addr, buyer, e.addr, amountIn); err != nil {
		return nil, fmt.Errorf("pull deposit: %w", err)
	}

	inst.TotalDeposited.Add(inst.TotalDeposited, split.Net)
	inst.TokensSold.Add(inst.TokensSold, tokensOut)
	inst.creditPurchase(buyer, tokensOut)

	if e.eligibleForGraduation(inst) {
		if err := e.graduate(inst); err != nil {
			// Unwind the triggering trade so the instance stays in a
			// consistent pre-threshold state and graduation is retryable.
			inst.TotalDeposited.Sub(inst.TotalDeposited, split.Net)
			inst.TokensSold.Sub(inst.TokensSold, tokensOut)
			inst.debitPurchase(buyer, tokensOut)
			if refundErr := inst.Pairing.Transfer(e.addr, buyer, amountIn); refundErr != nil {
				e.logger.Error("Refund after failed graduation failed",
					zap.Uint64("sale_id", inst.ID), zap.Error(refundErr))
			}
			return nil, fmt.Errorf("graduation: %w", err)
		}
	}

	e.payFees(inst, split)

	e.logger.Debug("Buy executed",
		zap.Uint64("sale_id", inst.ID),
		zap.Stringer("buyer", buyer),
		zap.String("amount_in", amountIn.String()),
		zap.String("tokens_out", tokensOut.String()),
		zap.Uint64("fee_bps", feeBps))

	e.publish(events.TradeExecutedEvent{
		BaseEvent:   events.Now(events.TradeExecuted),
		SaleID:      inst.ID,
		Trader:      buyer,
		Direction:   events.DirectionBuy,
		AmountIn:    types.Clone(amountIn),
		AmountOut:   types.Clone(tokensOut),
		FeeBps:      feeBps,
		CreatorFee:  types.Clone(split.CreatorFee),
		TreasuryFee: types.Clone(split.TreasuryFee),
	})
	return tokensOut, nil
}

// Sell returns escrowed tokens to the curve for the pairing asset. The fee
// is taken from the gross curve output.
func (e *Engine) Sell(seller common.Address, saleID uint64, tokensIn, minAmountOut *big.Int, deadline time.Time) (*big.Int, error) {
	release, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if err := e.checkDeadline(deadline); err != nil {
		return nil, err
	}
	if seller == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	if !types.IsPositive(tokensIn) {
		return nil, ErrInvalidAmount
	}
	inst, ok := e.instances[saleID]
	if !ok {
		return nil, ErrUnknownSale
	}
	if inst.State != StateBonding {
		return nil, ErrTradingClosed
	}
	if inst.purchaseOf(seller).Cmp(tokensIn) < 0 {
		return nil, ErrInsufficientBalance
	}

	e.maybeSnapshot(seller)

	grossOut, err := curve.QuoteSell(inst.reserves(e.virtualPairing), tokensIn)
	if err != nil {
		return nil, err
	}
	if grossOut.Cmp(inst.TotalDeposited) > 0 {
		return nil, curve.ErrInsufficientLiquidity
	}

	feeBps := e.effectiveFeeBps(seller)
	split := curve.SplitFee(grossOut, feeBps, e.feeCfg.CreatorShareBps)
	if minAmountOut != nil && split.Net.Cmp(minAmountOut) < 0 {
		return nil, ErrInsufficientOutput
	}

	inst.TokensSold.Sub(inst.TokensSold, tokensIn)
	inst.TotalDeposited.Sub(inst.TotalDeposited, grossOut)
	inst.debitPurchase(seller, tokensIn)

	// A sale above the deposit threshold that was blocked on the agent
	// minimum can graduate on any trade, sells included.
	if e.eligibleForGraduation(inst) {
		if err := e.graduate(inst); err != nil {
			inst.TokensSold.Add(inst.TokensSold, tokensIn)
			inst.TotalDeposited.Add(inst.TotalDeposited, grossOut)
			inst.creditPurchase(seller, tokensIn)
			return nil, fmt.Errorf("graduation: %w", err)
		}
	}

	if err := inst.Pairing.Transfer(e.addr, seller, split.Net); err != nil {
		// Custody always covers TotalDeposited; reaching this means the
		// engine's books are inconsistent with the ledger. Unwinding is
		// only safe while the sale is still bonding: once this call has
		// graduated the sale the liquidity is seeded externally, so the
		// books stay frozen at their committed state.
		if inst.State == StateBonding {
			inst.TokensSold.Add(inst.TokensSold, tokensIn)
			inst.TotalDeposited.Add(inst.TotalDeposited, grossOut)
			inst.creditPurchase(seller, tokensIn)
		} else {
			e.logger.Error("Seller payout failed after graduation",
				zap.Uint64("sale_id", inst.ID),
				zap.Stringer("seller", seller),
				zap.Error(err))
		}
		return nil, fmt.Errorf("pay seller: %w", err)
	}
	e.payFees(inst, split)

	e.logger.Debug("Sell executed",
		zap.Uint64("sale_id", inst.ID),
		zap.Stringer("seller", seller),
		zap.String("tokens_in", tokensIn.String()),
		zap.String("amount_out", split.Net.String()),
		zap.Uint64("fee_bps", feeBps))

	e.publish(events.TradeExecutedEvent{
		BaseEvent:   events.Now(events.TradeExecuted),
		SaleID:      inst.ID,
		Trader:      seller,
		Direction:   events.DirectionSell,
		AmountIn:    types.Clone(tokensIn),
		AmountOut:   types.Clone(split.Net),
		FeeBps:      feeBps,
		CreatorFee:  types.Clone(split.CreatorFee),
		TreasuryFee: types.Clone(split.TreasuryFee),
	})
	return split.Net, nil
}

// Withdraw transfers the buyer's escrowed tokens once the sale has
// graduated and zeroes the escrow.
func (e *Engine) Withdraw(buyer common.Address, saleID uint64) (*big.Int, error) {
	release, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	inst, ok := e.instances[saleID]
	if !ok {
		return nil, ErrUnknownSale
	}
	if inst.State != StateGraduated {
		return nil, ErrNotGraduated
	}
	amount := inst.purchaseOf(buyer)
	if amount.Sign() == 0 {
		return nil, ErrNothingToWithdraw
	}
	if err := inst.Token.Transfer(e.addr, buyer, amount); err != nil {
		return nil, fmt.Errorf("withdraw: %w", err)
	}
	inst.debitPurchase(buyer, amount)

	e.publish(events.TokensWithdrawnEvent{
		BaseEvent: events.Now(events.TokensWithdrawn),
		SaleID:    inst.ID,
		Buyer:     buyer,
		Amount:    types.Clone(amount),
	})
	return amount, nil
}

// TransferSaleOwnership reroutes the creator fee share to a new owner.
func (e *Engine) TransferSaleOwnership(caller common.Address, saleID uint64, newOwner common.Address) error {
	release, err := e.enter()
	if err != nil {
		return err
	}
	defer release()

	inst, ok := e.instances[saleID]
	if !ok {
		return ErrUnknownSale
	}
	if caller != inst.Owner {
		return ErrNotOwner
	}
	if newOwner == (common.Address{}) {
		return ErrZeroAddress
	}
	old := inst.Owner
	inst.Owner = newOwner

	e.publish(events.SaleOwnerChangedEvent{
		BaseEvent: events.Now(events.SaleOwnerChanged),
		SaleID:    inst.ID,
		OldOwner:  old,
		NewOwner:  newOwner,
	})
	return nil
}

// RecordSnapshot explicitly advances the caller's fee-discount snapshot.
func (e *Engine) RecordSnapshot(holder common.Address) error {
	release, err := e.enter()
	if err != nil {
		return err
	}
	defer release()

	if e.discounts == nil {
		return feediscount.ErrBelowMinimumBalance
	}
	if err := e.discounts.RecordSnapshot(holder); err != nil {
		return err
	}
	e.publish(events.SnapshotRecordedEvent{
		BaseEvent: events.Now(events.SnapshotRecorded),
		Holder:    holder,
		Height:    e.clock.Height(),
	})
	return nil
}

func (e *Engine) maybeSnapshot(trader common.Address) {
	if e.discounts != nil {
		e.discounts.RecordFirstTradeSnapshot(trader)
	}
}

func (e *Engine) effectiveFeeBps(trader common.Address) uint64 {
	if e.discounts == nil {
		return e.feeCfg.FeeBps
	}
	return e.discounts.EffectiveFeeBps(trader, e.feeCfg.FeeBps)
}

// payFees settles a trade's extracted fee from engine custody. Custody is
// funded by the trade itself, so these transfers cannot fail once the trade
// has settled; failures are logged as book inconsistencies.
func (e *Engine) payFees(inst *SaleInstance, split curve.FeeSplit) {
	if split.CreatorFee.Sign() > 0 {
		if err := inst.Pairing.Transfer(e.addr, inst.Owner, split.CreatorFee); err != nil {
			e.logger.Error("Creator fee payout failed", zap.Uint64("sale_id", inst.ID), zap.Error(err))
		}
	}
	if split.TreasuryFee.Sign() > 0 {
		if err := e.treasury.Deposit(inst.Pairing, e.addr, split.TreasuryFee); err != nil {
			e.logger.Error("Treasury fee payout failed", zap.Uint64("sale_id", inst.ID), zap.Error(err))
		}
	}
}

// --- read accessors ---

// Sale returns a snapshot of the instance.
func (e *Engine) Sale(saleID uint64) (SaleView, error) {
	release, err := e.enter()
	if err != nil {
		return SaleView{}, err
	}
	defer release()

	inst, ok := e.instances[saleID]
	if !ok {
		return SaleView{}, ErrUnknownSale
	}
	return inst.view(), nil
}

// UnwithdrawnTokens returns the buyer's escrowed balance.
func (e *Engine) UnwithdrawnTokens(saleID uint64, buyer common.Address) (*big.Int, error) {
	release, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	inst, ok := e.instances[saleID]
	if !ok {
		return nil, ErrUnknownSale
	}
	return inst.purchaseOf(buyer), nil
}

// SaleToken exposes the deployed token ledger for a sale.
func (e *Engine) SaleToken(saleID uint64) (*asset.Token, error) {
	release, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	inst, ok := e.instances[saleID]
	if !ok {
		return nil, ErrUnknownSale
	}
	return inst.Token, nil
}

// SpotPrice returns the current curve price scaled by types.Precision.
func (e *Engine) SpotPrice(saleID uint64) (*big.Int, error) {
	release, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	inst, ok := e.instances[saleID]
	if !ok {
		return nil, ErrUnknownSale
	}
	return curve.SpotPrice(inst.reserves(e.virtualPairing))
}

// CurveProgress reports deposits relative to the graduation threshold,
// scaled by types.Precision and capped at 1.0.
func (e *Engine) CurveProgress(saleID uint64) (*big.Int, error) {
	release, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	inst, ok := e.instances[saleID]
	if !ok {
		return nil, ErrUnknownSale
	}
	threshold := e.pairings[inst.Pairing.Address()].GraduationThreshold
	if !types.IsPositive(threshold) {
		return new(big.Int), nil
	}
	progress := types.MulDiv(inst.TotalDeposited, types.Precision, threshold)
	if progress.Cmp(types.Precision) > 0 {
		return types.Clone(types.Precision), nil
	}
	return progress, nil
}
