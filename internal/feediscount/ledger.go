// internal/feediscount/ledger.go
package feediscount

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/asset"
	"github.com/rovshanmuradov/launchpad/internal/types"
)

var (
	ErrBelowMinimumBalance = errors.New("balance below minimum snapshot threshold")
	ErrInvalidConfig       = errors.New("invalid fee reduction config")
)

// DefaultActivationDelay is the number of blocks a pending snapshot must age
// before it counts toward a discount.
const DefaultActivationDelay = 100

// Config defines the discount interpolation curve. Multipliers are in basis
// points of the base fee: 10000 leaves the fee unchanged, 0 waives it.
type Config struct {
	MinThreshold     *big.Int
	MaxThreshold     *big.Int
	MinMultiplierBps uint64
	MaxMultiplierBps uint64
}

// Validate enforces minThreshold < maxThreshold and maxMult <= minMult.
func (c Config) Validate() error {
	if c.MinThreshold == nil || c.MaxThreshold == nil || c.MinThreshold.Cmp(c.MaxThreshold) >= 0 {
		return fmt.Errorf("%w: thresholds must satisfy min < max", ErrInvalidConfig)
	}
	if c.MinMultiplierBps > types.BpsDivisor || c.MaxMultiplierBps > c.MinMultiplierBps {
		return fmt.Errorf("%w: multipliers must satisfy max <= min <= 10000", ErrInvalidConfig)
	}
	return nil
}

// Snapshot is the two-slot delayed record of a holder's governance balance.
// Pending becomes promotable once ActivationDelay blocks have passed.
type Snapshot struct {
	PendingBalance *big.Int
	PendingHeight  uint64
	CurrentBalance *big.Int
	CurrentHeight  uint64
}

// Ledger tracks one snapshot per holder against a single governance asset.
// It is global state: every sale instance reads the same ledger.
type Ledger struct {
	mu         sync.Mutex
	governance asset.Asset
	clock      types.Clock
	delay      uint64
	cfg        Config
	snapshots  map[common.Address]*Snapshot
	logger     *zap.Logger
}

// NewLedger creates a snapshot ledger over the governance asset.
func NewLedger(governance asset.Asset, clock types.Clock, delay uint64, cfg Config, logger *zap.Logger) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if delay == 0 {
		delay = DefaultActivationDelay
	}
	return &Ledger{
		governance: governance,
		clock:      clock,
		delay:      delay,
		cfg:        cfg,
		snapshots:  make(map[common.Address]*Snapshot),
		logger:     logger.Named("feediscount"),
	}, nil
}

// SetConfig replaces the interpolation curve after validating it.
func (l *Ledger) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	l.cfg = cfg
	l.mu.Unlock()
	return nil
}

// Config returns the active interpolation curve.
func (l *Ledger) Config() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Config{
		MinThreshold:     types.Clone(l.cfg.MinThreshold),
		MaxThreshold:     types.Clone(l.cfg.MaxThreshold),
		MinMultiplierBps: l.cfg.MinMultiplierBps,
		MaxMultiplierBps: l.cfg.MaxMultiplierBps,
	}
}

// RecordSnapshot records the holder's live governance balance into the
// pending slot, first promoting an aged-out pending snapshot to current.
// Holders below the minimum threshold have nothing useful to snapshot.
func (l *Ledger) RecordSnapshot(holder common.Address) error {
	live := l.governance.BalanceOf(holder)
	height := l.clock.Height()

	l.mu.Lock()
	defer l.mu.Unlock()

	if live.Cmp(l.cfg.MinThreshold) < 0 {
		return ErrBelowMinimumBalance
	}

	s := l.snapshots[holder]
	if s == nil {
		l.snapshots[holder] = &Snapshot{
			PendingBalance: live,
			PendingHeight:  height,
		}
		l.logger.Debug("First snapshot recorded",
			zap.Stringer("holder", holder),
			zap.String("balance", live.String()),
			zap.Uint64("height", height))
		return nil
	}

	if height-s.PendingHeight >= l.delay {
		s.CurrentBalance = s.PendingBalance
		s.CurrentHeight = s.PendingHeight
	}
	s.PendingBalance = live
	s.PendingHeight = height

	l.logger.Debug("Snapshot advanced",
		zap.Stringer("holder", holder),
		zap.String("pending_balance", live.String()),
		zap.Uint64("height", height))
	return nil
}

// RecordFirstTradeSnapshot is the implicit trigger on a holder's first trade:
// it snapshots silently when the holder is eligible and has never snapshotted,
// and does nothing otherwise. Only explicit calls advance an existing
// snapshot.
func (l *Ledger) RecordFirstTradeSnapshot(holder common.Address) {
	l.mu.Lock()
	_, exists := l.snapshots[holder]
	l.mu.Unlock()
	if exists {
		return
	}
	if err := l.RecordSnapshot(holder); err != nil && !errors.Is(err, ErrBelowMinimumBalance) {
		l.logger.Warn("Implicit snapshot failed", zap.Stringer("holder", holder), zap.Error(err))
	}
}

// HasSnapshot reports whether the holder has ever recorded a snapshot.
func (l *Ledger) HasSnapshot(holder common.Address) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshots[holder] != nil
}

// EffectiveBalance returns the balance that counts toward a discount:
// min(activated snapshot balance, live balance). Transfers away lower it
// immediately; transfers in are ignored until a new snapshot activates.
func (l *Ledger) EffectiveBalance(holder common.Address) *big.Int {
	live := l.governance.BalanceOf(holder)
	height := l.clock.Height()

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.effectiveBalanceLocked(holder, live, height)
}

func (l *Ledger) effectiveBalanceLocked(holder common.Address, live *big.Int, height uint64) *big.Int {
	s := l.snapshots[holder]
	if s == nil {
		return new(big.Int)
	}

	var activated *big.Int
	switch {
	case height-s.PendingHeight >= l.delay:
		// Promotable but not yet promoted: the pending slot is newer than
		// current, so it is the one that counts.
		activated = s.PendingBalance
	case s.CurrentHeight != 0:
		activated = s.CurrentBalance
	default:
		return new(big.Int)
	}

	if live.Cmp(activated) < 0 {
		return types.Clone(live)
	}
	return types.Clone(activated)
}

// EffectiveFeeBps scales baseFeeBps down by the holder's discount multiplier.
// Interpolation between the thresholds uses quadratic easing: progress p in
// [0,1] contributes p^2, so early discounts grow slowly and accelerate near
// the maximum threshold.
func (l *Ledger) EffectiveFeeBps(holder common.Address, baseFeeBps uint64) uint64 {
	balance := l.EffectiveBalance(holder)

	l.mu.Lock()
	defer l.mu.Unlock()

	if balance.Cmp(l.cfg.MinThreshold) < 0 {
		return baseFeeBps
	}
	if balance.Cmp(l.cfg.MaxThreshold) >= 0 {
		return baseFeeBps * l.cfg.MaxMultiplierBps / types.BpsDivisor
	}

	span := new(big.Int).Sub(l.cfg.MaxThreshold, l.cfg.MinThreshold)
	position := new(big.Int).Sub(balance, l.cfg.MinThreshold)
	progress := types.MulDiv(position, types.Precision, span)
	eased := types.MulDiv(progress, progress, types.Precision)

	multRange := new(big.Int).SetUint64(l.cfg.MinMultiplierBps - l.cfg.MaxMultiplierBps)
	reduction := types.MulDiv(multRange, eased, types.Precision)
	multiplier := new(big.Int).Sub(new(big.Int).SetUint64(l.cfg.MinMultiplierBps), reduction)

	return baseFeeBps * multiplier.Uint64() / types.BpsDivisor
}
