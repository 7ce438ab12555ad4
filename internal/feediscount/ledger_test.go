// internal/feediscount/ledger_test.go
package feediscount

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/launchpad/internal/asset"
	"github.com/rovshanmuradov/launchpad/internal/types"
)

var (
	govAddr = common.HexToAddress("0x00000000000000000000000000000000000000A0")
	holder  = common.HexToAddress("0x00000000000000000000000000000000000000B1")
)

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), types.Precision)
}

func newTestLedger(t *testing.T) (*Ledger, *asset.Token, *types.TickClock) {
	t.Helper()
	gov := asset.NewToken(govAddr, "Governance", "GOV")
	clock := &types.TickClock{}
	cfg := Config{
		MinThreshold:     eth(100),
		MaxThreshold:     eth(1000),
		MinMultiplierBps: 10_000,
		MaxMultiplierBps: 2_000,
	}
	ledger, err := NewLedger(gov, clock, 100, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return ledger, gov, clock
}

func TestConfigValidate(t *testing.T) {
	valid := Config{MinThreshold: eth(1), MaxThreshold: eth(2), MinMultiplierBps: 10_000, MaxMultiplierBps: 5_000}
	assert.NoError(t, valid.Validate())

	inverted := valid
	inverted.MinThreshold, inverted.MaxThreshold = eth(2), eth(1)
	assert.ErrorIs(t, inverted.Validate(), ErrInvalidConfig)

	equal := valid
	equal.MaxThreshold = eth(1)
	assert.ErrorIs(t, equal.Validate(), ErrInvalidConfig)

	// A "discount" that raises the fee is rejected.
	raising := valid
	raising.MaxMultiplierBps = 12_000
	assert.ErrorIs(t, raising.Validate(), ErrInvalidConfig)
}

func TestRecordSnapshot_BelowMinimum(t *testing.T) {
	ledger, gov, _ := newTestLedger(t)
	require.NoError(t, gov.Mint(holder, eth(50)))

	err := ledger.RecordSnapshot(holder)
	assert.ErrorIs(t, err, ErrBelowMinimumBalance)
	assert.False(t, ledger.HasSnapshot(holder))
}

func TestEffectiveBalance_PendingNeedsDelay(t *testing.T) {
	ledger, gov, clock := newTestLedger(t)
	require.NoError(t, gov.Mint(holder, eth(500)))
	require.NoError(t, ledger.RecordSnapshot(holder))

	// Fresh pending snapshot does not count yet.
	assert.Equal(t, int64(0), ledger.EffectiveBalance(holder).Int64())

	clock.Advance(99)
	assert.Equal(t, int64(0), ledger.EffectiveBalance(holder).Int64())

	clock.Advance(1)
	assert.Equal(t, eth(500), ledger.EffectiveBalance(holder))
}

func TestEffectiveBalance_CappedByLiveBalance(t *testing.T) {
	ledger, gov, clock := newTestLedger(t)
	other := common.HexToAddress("0x00000000000000000000000000000000000000C2")
	require.NoError(t, gov.Mint(holder, eth(500)))
	require.NoError(t, ledger.RecordSnapshot(holder))
	clock.Advance(100)

	// Selling down after activation lowers the effective balance immediately.
	require.NoError(t, gov.Transfer(holder, other, eth(400)))
	assert.Equal(t, eth(100), ledger.EffectiveBalance(holder))

	// Buying back does not raise it past the activated snapshot.
	require.NoError(t, gov.Transfer(other, holder, eth(400)))
	assert.Equal(t, eth(500), ledger.EffectiveBalance(holder))
}

func TestEffectiveBalance_FlashBalanceNeverCounts(t *testing.T) {
	ledger, gov, clock := newTestLedger(t)
	require.NoError(t, gov.Mint(holder, eth(100)))
	require.NoError(t, ledger.RecordSnapshot(holder))
	clock.Advance(100)

	// A sudden large balance only enters a new pending slot; until that
	// ages out, the old activated value caps the discount.
	require.NoError(t, gov.Mint(holder, eth(10_000)))
	require.NoError(t, ledger.RecordSnapshot(holder))
	assert.Equal(t, eth(100), ledger.EffectiveBalance(holder))

	clock.Advance(100)
	assert.Equal(t, eth(10_100), ledger.EffectiveBalance(holder))
}

func TestRecordSnapshot_OverwritePendingKeepsCurrent(t *testing.T) {
	ledger, gov, clock := newTestLedger(t)
	require.NoError(t, gov.Mint(holder, eth(300)))
	require.NoError(t, ledger.RecordSnapshot(holder))
	clock.Advance(100)

	// Aged pending promotes to current, new balance becomes pending.
	require.NoError(t, gov.Mint(holder, eth(200)))
	require.NoError(t, ledger.RecordSnapshot(holder))
	assert.Equal(t, eth(300), ledger.EffectiveBalance(holder))

	// Re-snapshotting before the delay replaces pending without promotion.
	clock.Advance(10)
	require.NoError(t, gov.Mint(holder, eth(100)))
	require.NoError(t, ledger.RecordSnapshot(holder))
	assert.Equal(t, eth(300), ledger.EffectiveBalance(holder))
}

func TestRecordFirstTradeSnapshot(t *testing.T) {
	ledger, gov, clock := newTestLedger(t)

	// Below the minimum: silently skipped.
	require.NoError(t, gov.Mint(holder, eth(50)))
	ledger.RecordFirstTradeSnapshot(holder)
	assert.False(t, ledger.HasSnapshot(holder))

	require.NoError(t, gov.Mint(holder, eth(150)))
	ledger.RecordFirstTradeSnapshot(holder)
	assert.True(t, ledger.HasSnapshot(holder))

	// Existing snapshots are never advanced implicitly.
	clock.Advance(100)
	require.NoError(t, gov.Mint(holder, eth(10_000)))
	ledger.RecordFirstTradeSnapshot(holder)
	assert.Equal(t, eth(200), ledger.EffectiveBalance(holder))
}

func TestEffectiveFeeBps(t *testing.T) {
	ledger, gov, clock := newTestLedger(t)
	const baseFee = 100

	// No snapshot: full fee.
	assert.Equal(t, uint64(baseFee), ledger.EffectiveFeeBps(holder, baseFee))

	// At or above the maximum threshold: the maximum discount.
	require.NoError(t, gov.Mint(holder, eth(1_000)))
	require.NoError(t, ledger.RecordSnapshot(holder))
	clock.Advance(100)
	assert.Equal(t, uint64(20), ledger.EffectiveFeeBps(holder, baseFee))
}

func TestEffectiveFeeBps_QuadraticEasing(t *testing.T) {
	ledger, gov, clock := newTestLedger(t)
	const baseFee = 1000

	// Halfway between the thresholds: progress 0.5, eased 0.25.
	// Multiplier = 10000 - (10000-2000)*0.25 = 8000 -> fee 800.
	require.NoError(t, gov.Mint(holder, eth(550)))
	require.NoError(t, ledger.RecordSnapshot(holder))
	clock.Advance(100)
	assert.Equal(t, uint64(800), ledger.EffectiveFeeBps(holder, baseFee))
}

func TestEffectiveFeeBps_EasingIsConvex(t *testing.T) {
	const baseFee = 1000
	prev := uint64(0)
	var drops []uint64

	for _, bal := range []int64{100, 325, 550, 775, 1000} {
		ledger, gov, clock := newTestLedger(t)
		require.NoError(t, gov.Mint(holder, eth(bal)))
		require.NoError(t, ledger.RecordSnapshot(holder))
		clock.Advance(100)

		fee := ledger.EffectiveFeeBps(holder, baseFee)
		if prev != 0 {
			drops = append(drops, prev-fee)
		}
		prev = fee
	}

	// Equal balance steps shave progressively more fee near the maximum.
	for i := 1; i < len(drops); i++ {
		assert.GreaterOrEqual(t, drops[i], drops[i-1], "easing must accelerate")
	}
}

func TestSetConfig(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	err := ledger.SetConfig(Config{MinThreshold: eth(5), MaxThreshold: eth(1), MinMultiplierBps: 10_000})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	next := Config{MinThreshold: eth(10), MaxThreshold: eth(20), MinMultiplierBps: 9_000, MaxMultiplierBps: 1_000}
	require.NoError(t, ledger.SetConfig(next))
	got := ledger.Config()
	assert.Equal(t, eth(10), got.MinThreshold)
	assert.Equal(t, uint64(1_000), got.MaxMultiplierBps)
}
