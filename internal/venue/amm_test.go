// internal/venue/amm_test.go
package venue

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
	addrA    = common.HexToAddress("0x0000000000000000000000000000000000000011")
	addrB    = common.HexToAddress("0x0000000000000000000000000000000000000022")
	provider = common.HexToAddress("0x00000000000000000000000000000000000000DD")
)

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), types.Precision)
}

func TestPairID_OrderIndependent(t *testing.T) {
	assert.Equal(t, PairID(addrA, addrB), PairID(addrB, addrA))
	assert.NotEqual(t, PairID(addrA, addrB), PairID(addrA, provider))
}

func TestCreatePool(t *testing.T) {
	amm := NewAMM("test", zaptest.NewLogger(t))
	tokA := asset.NewToken(addrA, "A", "A")
	tokB := asset.NewToken(addrB, "B", "B")

	id, err := amm.CreatePool(tokA, tokB)
	require.NoError(t, err)
	assert.Equal(t, PairID(addrA, addrB), id)

	_, err = amm.CreatePool(tokA, tokB)
	assert.ErrorIs(t, err, ErrPoolExists)
	_, err = amm.CreatePool(tokB, tokA)
	assert.ErrorIs(t, err, ErrPoolExists, "pair identity ignores argument order")

	_, err = amm.CreatePool(tokA, tokA)
	assert.ErrorIs(t, err, ErrIdenticalAssets)
}

func TestAddLiquidity(t *testing.T) {
	amm := NewAMM("test", zaptest.NewLogger(t))
	tokA := asset.NewToken(addrA, "A", "A")
	tokB := asset.NewToken(addrB, "B", "B")
	id, err := amm.CreatePool(tokA, tokB)
	require.NoError(t, err)

	require.NoError(t, tokA.Mint(provider, eth(100)))
	require.NoError(t, tokB.Mint(provider, eth(400)))

	// Rejected without allowance, with no partial pull.
	err = amm.AddLiquidity(id, provider, eth(100), eth(400))
	assert.ErrorIs(t, err, asset.ErrInsufficientAllowance)
	assert.Equal(t, eth(100), tokA.BalanceOf(provider))

	// Rejected when only the first leg is approved.
	require.NoError(t, tokA.Approve(provider, amm.Address(), eth(100)))
	err = amm.AddLiquidity(id, provider, eth(100), eth(400))
	assert.ErrorIs(t, err, asset.ErrInsufficientAllowance)
	assert.Equal(t, eth(100), tokA.BalanceOf(provider), "failed add must not strand one leg")

	require.NoError(t, tokB.Approve(provider, amm.Address(), eth(400)))
	require.NoError(t, amm.AddLiquidity(id, provider, eth(100), eth(400)))

	reserveA, reserveB, err := amm.Reserves(id)
	require.NoError(t, err)
	assert.Equal(t, eth(100), reserveA)
	assert.Equal(t, eth(400), reserveB)
	assert.Equal(t, int64(0), tokA.BalanceOf(provider).Int64())
}

func TestSwap(t *testing.T) {
	amm := NewAMM("test", zaptest.NewLogger(t))
	tokA := asset.NewToken(addrA, "A", "A")
	tokB := asset.NewToken(addrB, "B", "B")
	id, err := amm.CreatePool(tokA, tokB)
	require.NoError(t, err)

	require.NoError(t, tokA.Mint(provider, eth(1_000)))
	require.NoError(t, tokB.Mint(provider, eth(1_000)))
	require.NoError(t, tokA.Approve(provider, amm.Address(), eth(1_000)))
	require.NoError(t, tokB.Approve(provider, amm.Address(), eth(1_000)))
	require.NoError(t, amm.AddLiquidity(id, provider, eth(500), eth(500)))

	trader := common.HexToAddress("0x00000000000000000000000000000000000000EE")
	require.NoError(t, tokA.Mint(trader, eth(50)))
	require.NoError(t, tokA.Approve(trader, amm.Address(), eth(50)))

	out, err := amm.Swap(id, trader, addrA, eth(50))
	require.NoError(t, err)

	// out = 500 * in' / (500 + in') with in' = 50 after the 0.3% venue fee.
	inAfterFee := types.ApplyBps(eth(50), types.BpsDivisor-swapFeeBps)
	expected := types.MulDiv(eth(500), inAfterFee, new(big.Int).Add(eth(500), inAfterFee))
	assert.Equal(t, expected, out)
	assert.Equal(t, expected, tokB.BalanceOf(trader))

	reserveA, reserveB, err := amm.Reserves(id)
	require.NoError(t, err)
	assert.Equal(t, eth(550), reserveA)
	assert.Equal(t, new(big.Int).Sub(eth(500), expected), reserveB)

	_, err = amm.Swap(id, trader, provider, eth(1))
	assert.ErrorIs(t, err, ErrPoolNotFound)
}

func TestAddLiquidity_UnknownPool(t *testing.T) {
	amm := NewAMM("test", zaptest.NewLogger(t))
	err := amm.AddLiquidity(PoolID{0x01}, provider, eth(1), eth(1))
	assert.ErrorIs(t, err, ErrPoolNotFound)
}
