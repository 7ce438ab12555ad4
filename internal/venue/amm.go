// internal/venue/amm.go
package venue

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/asset"
	"github.com/rovshanmuradov/launchpad/internal/types"
)

func keccak(data []byte) []byte {
	return crypto.Keccak256(data)
}

// swapFeeBps is the AMM's own trading fee, separate from the engine's
// bonding-phase fee schedule.
const swapFeeBps = 30

// Pool holds one constant-product pair.
type Pool struct {
	ID       PoolID
	AssetA   asset.Asset
	AssetB   asset.Asset
	ReserveA *big.Int
	ReserveB *big.Int
}

// AMM is an in-process constant-product venue. The daemon uses it as the
// graduation target; tests use it to observe graduation side effects.
type AMM struct {
	mu     sync.Mutex
	addr   common.Address
	pools  map[PoolID]*Pool
	logger *zap.Logger
}

// NewAMM creates a venue with a custody address derived from its name.
func NewAMM(name string, logger *zap.Logger) *AMM {
	return &AMM{
		addr:   common.BytesToAddress(keccak([]byte("venue:" + name))[12:]),
		pools:  make(map[PoolID]*Pool),
		logger: logger.Named("venue"),
	}
}

func (v *AMM) Address() common.Address { return v.addr }

// CreatePool registers an empty pool for the pair.
func (v *AMM) CreatePool(tokenA, tokenB asset.Asset) (PoolID, error) {
	if tokenA.Address() == tokenB.Address() {
		return PoolID{}, ErrIdenticalAssets
	}
	id := PairID(tokenA.Address(), tokenB.Address())

	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.pools[id]; ok {
		return PoolID{}, ErrPoolExists
	}
	v.pools[id] = &Pool{
		ID:       id,
		AssetA:   tokenA,
		AssetB:   tokenB,
		ReserveA: new(big.Int),
		ReserveB: new(big.Int),
	}

	v.logger.Info("Pool created",
		zap.Stringer("pool", id),
		zap.Stringer("asset_a", tokenA.Address()),
		zap.Stringer("asset_b", tokenB.Address()))
	return id, nil
}

// AddLiquidity pulls both amounts from the provider. Balances and allowances
// are verified for both legs before either transfer so a failure leaves the
// provider untouched.
func (v *AMM) AddLiquidity(pool PoolID, provider common.Address, amountA, amountB *big.Int) error {
	if !types.IsPositive(amountA) || !types.IsPositive(amountB) {
		return ErrInsufficientInput
	}

	v.mu.Lock()
	p, ok := v.pools[pool]
	v.mu.Unlock()
	if !ok {
		return ErrPoolNotFound
	}

	if p.AssetA.BalanceOf(provider).Cmp(amountA) < 0 || p.AssetA.Allowance(provider, v.addr).Cmp(amountA) < 0 {
		return fmt.Errorf("asset %s: %w", p.AssetA.Address(), asset.ErrInsufficientAllowance)
	}
	if p.AssetB.BalanceOf(provider).Cmp(amountB) < 0 || p.AssetB.Allowance(provider, v.addr).Cmp(amountB) < 0 {
		return fmt.Errorf("asset %s: %w", p.AssetB.Address(), asset.ErrInsufficientAllowance)
	}

	if err := p.AssetA.TransferFrom(v.addr, provider, v.addr, amountA); err != nil {
		return fmt.Errorf("pull %s: %w", p.AssetA.Address(), err)
	}
	if err := p.AssetB.TransferFrom(v.addr, provider, v.addr, amountB); err != nil {
		return fmt.Errorf("pull %s: %w", p.AssetB.Address(), err)
	}

	v.mu.Lock()
	p.ReserveA.Add(p.ReserveA, amountA)
	p.ReserveB.Add(p.ReserveB, amountB)
	v.mu.Unlock()

	v.logger.Info("Liquidity added",
		zap.Stringer("pool", pool),
		zap.String("amount_a", amountA.String()),
		zap.String("amount_b", amountB.String()))
	return nil
}

// Swap trades amountIn of assetIn for the other pool asset at the
// constant-product price, minus the venue fee. Open-market trading after
// graduation happens here, outside the engine.
func (v *AMM) Swap(pool PoolID, trader common.Address, assetIn common.Address, amountIn *big.Int) (*big.Int, error) {
	if !types.IsPositive(amountIn) {
		return nil, ErrInsufficientInput
	}

	v.mu.Lock()
	p, ok := v.pools[pool]
	v.mu.Unlock()
	if !ok {
		return nil, ErrPoolNotFound
	}

	in, out := p.AssetA, p.AssetB
	reserveIn, reserveOut := p.ReserveA, p.ReserveB
	if assetIn == p.AssetB.Address() {
		in, out = p.AssetB, p.AssetA
		reserveIn, reserveOut = p.ReserveB, p.ReserveA
	} else if assetIn != p.AssetA.Address() {
		return nil, ErrPoolNotFound
	}

	// out = reserveOut * inAfterFee / (reserveIn + inAfterFee)
	inAfterFee := types.ApplyBps(amountIn, types.BpsDivisor-swapFeeBps)
	denom := new(big.Int).Add(reserveIn, inAfterFee)
	amountOut := types.MulDiv(reserveOut, inAfterFee, denom)

	if err := in.TransferFrom(v.addr, trader, v.addr, amountIn); err != nil {
		return nil, fmt.Errorf("pull input: %w", err)
	}
	if err := out.Transfer(v.addr, trader, amountOut); err != nil {
		return nil, fmt.Errorf("pay output: %w", err)
	}

	v.mu.Lock()
	reserveIn.Add(reserveIn, amountIn)
	reserveOut.Sub(reserveOut, amountOut)
	v.mu.Unlock()

	return amountOut, nil
}

// Reserves returns a copy of the pool's current reserves.
func (v *AMM) Reserves(pool PoolID) (*big.Int, *big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	p, ok := v.pools[pool]
	if !ok {
		return nil, nil, ErrPoolNotFound
	}
	return types.Clone(p.ReserveA), types.Clone(p.ReserveB), nil
}
