// internal/treasury/pool.go
package treasury

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

// Pool is the protocol treasury: it custodies extracted fees, treasury-bucket
// tokens, and forwarded agent deposits. DepositedBalance feeds the external
// accounting/indexer surface; nothing in the engine reads it back.
type Pool struct {
	mu       sync.Mutex
	addr     common.Address
	deposits map[common.Address]*big.Int // keyed by asset address
	logger   *zap.Logger
}

// NewPool creates a treasury with a custody address derived from its name.
func NewPool(name string, logger *zap.Logger) *Pool {
	return &Pool{
		addr:     common.BytesToAddress(crypto.Keccak256([]byte("treasury:" + name))[12:]),
		deposits: make(map[common.Address]*big.Int),
		logger:   logger.Named("treasury"),
	}
}

// Address is the treasury's custody address on asset ledgers.
func (p *Pool) Address() common.Address { return p.addr }

// Deposit pulls amount of a from the holder into treasury custody.
func (p *Pool) Deposit(a asset.Asset, from common.Address, amount *big.Int) error {
	if !types.IsPositive(amount) {
		return asset.ErrZeroAmount
	}
	if err := a.Transfer(from, p.addr, amount); err != nil {
		return fmt.Errorf("treasury deposit: %w", err)
	}

	p.mu.Lock()
	if existing := p.deposits[a.Address()]; existing != nil {
		existing.Add(existing, amount)
	} else {
		p.deposits[a.Address()] = types.Clone(amount)
	}
	p.mu.Unlock()

	p.logger.Debug("Treasury deposit",
		zap.Stringer("asset", a.Address()),
		zap.String("amount", amount.String()))
	return nil
}

// DepositedBalance returns the cumulative recorded deposits for an asset.
func (p *Pool) DepositedBalance(assetAddr common.Address) *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return types.Clone(p.deposits[assetAddr])
}
