// internal/asset/asset.go
package asset

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrZeroAddress           = errors.New("zero address")
	ErrZeroAmount            = errors.New("zero amount")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Asset is the minimal fungible-asset surface the engine depends on.
// Implementations hold the authoritative balances; the engine never
// assumes mint capability on assets it does not own.
type Asset interface {
	// Address identifies the asset ledger itself.
	Address() common.Address

	BalanceOf(holder common.Address) *big.Int
	Transfer(from, to common.Address, amount *big.Int) error
	TransferFrom(spender, from, to common.Address, amount *big.Int) error
	Approve(owner, spender common.Address, amount *big.Int) error
	Allowance(owner, spender common.Address) *big.Int
}

// Minter is implemented by assets whose supply the holder controls.
// Sale tokens deployed by the engine implement it; pairing assets need not.
type Minter interface {
	Mint(to common.Address, amount *big.Int) error
	Burn(from common.Address, amount *big.Int) error
}
