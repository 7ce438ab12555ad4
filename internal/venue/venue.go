// internal/venue/venue.go
package venue

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rovshanmuradov/launchpad/internal/asset"
)

var (
	ErrPoolExists        = errors.New("pool already exists")
	ErrPoolNotFound      = errors.New("pool not found")
	ErrIdenticalAssets   = errors.New("identical pool assets")
	ErrInsufficientInput = errors.New("insufficient input amount")
)

// PoolID identifies a liquidity pool at the venue.
type PoolID = common.Hash

// Venue is the open-market liquidity collaborator the engine hands a sale to
// at graduation. The engine calls it exactly once per instance and treats any
// failure as fatal to the enclosing call.
type Venue interface {
	// CreatePool registers a new pool for the asset pair.
	CreatePool(tokenA, tokenB asset.Asset) (PoolID, error)

	// AddLiquidity pulls amountA/amountB from provider (via allowance) into
	// the pool's reserves.
	AddLiquidity(pool PoolID, provider common.Address, amountA, amountB *big.Int) error

	// Address is the venue's custody address on asset ledgers.
	Address() common.Address
}

// PairID derives the canonical pool identity for an asset pair, independent
// of argument order.
func PairID(a, b common.Address) PoolID {
	lo, hi := a, b
	if hi.Cmp(lo) < 0 {
		lo, hi = hi, lo
	}
	var buf [40]byte
	copy(buf[:20], lo.Bytes())
	copy(buf[20:], hi.Bytes())
	return common.BytesToHash(keccak(buf[:]))
}
