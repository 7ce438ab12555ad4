// internal/asset/token.go
package asset

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rovshanmuradov/launchpad/internal/types"
)

// TransferHook observes a completed transfer on a Token. Hooks run after
// balances have moved and may call back into the caller; the engine's
// reentrancy guard is what turns such callbacks into hard errors.
type TransferHook func(from, to common.Address, amount *big.Int)

// Token is the in-memory fungible ledger. The engine deploys one per sale
// instance; tests use it for pairing and agent assets as well.
type Token struct {
	mu          sync.RWMutex
	addr        common.Address
	name        string
	symbol      string
	totalSupply *big.Int
	balances    map[common.Address]*big.Int
	allowances  map[common.Address]map[common.Address]*big.Int
	hook        TransferHook
}

// NewToken creates an empty ledger at the given address.
func NewToken(addr common.Address, name, symbol string) *Token {
	return &Token{
		addr:        addr,
		name:        name,
		symbol:      symbol,
		totalSupply: new(big.Int),
		balances:    make(map[common.Address]*big.Int),
		allowances:  make(map[common.Address]map[common.Address]*big.Int),
	}
}

func (t *Token) Address() common.Address { return t.addr }
func (t *Token) Name() string            { return t.name }
func (t *Token) Symbol() string          { return t.symbol }

// SetTransferHook installs a post-transfer observer. Test-only escape hatch
// for simulating assets that call back into their caller.
func (t *Token) SetTransferHook(hook TransferHook) {
	t.mu.Lock()
	t.hook = hook
	t.mu.Unlock()
}

func (t *Token) TotalSupply() *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return types.Clone(t.totalSupply)
}

func (t *Token) BalanceOf(holder common.Address) *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return types.Clone(t.balances[holder])
}

func (t *Token) Allowance(owner, spender common.Address) *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return types.Clone(t.allowances[owner][spender])
}

func (t *Token) Approve(owner, spender common.Address, amount *big.Int) error {
	if owner == (common.Address{}) || spender == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrZeroAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]*big.Int)
	}
	t.allowances[owner][spender] = types.Clone(amount)
	return nil
}

func (t *Token) Transfer(from, to common.Address, amount *big.Int) error {
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	t.notify(from, to, amount)
	return nil
}

func (t *Token) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	if spender == (common.Address{}) || from == (common.Address{}) || to == (common.Address{}) {
		return ErrZeroAddress
	}
	if !types.IsPositive(amount) {
		return ErrZeroAmount
	}
	t.mu.Lock()
	allowance := t.allowances[from][spender]
	if allowance == nil || allowance.Cmp(amount) < 0 {
		t.mu.Unlock()
		return ErrInsufficientAllowance
	}
	balance := t.balances[from]
	if balance == nil || balance.Cmp(amount) < 0 {
		t.mu.Unlock()
		return ErrInsufficientBalance
	}
	// The allowance and balance move together; no error path past the
	// checks above can leave one debited without the other.
	allowance.Sub(allowance, amount)
	balance.Sub(balance, amount)
	t.credit(to, amount)
	t.mu.Unlock()

	t.notify(from, to, amount)
	return nil
}

// Mint creates amount new units in to's balance.
func (t *Token) Mint(to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if !types.IsPositive(amount) {
		return ErrZeroAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalSupply.Add(t.totalSupply, amount)
	t.credit(to, amount)
	return nil
}

// Burn destroys amount units from from's balance.
func (t *Token) Burn(from common.Address, amount *big.Int) error {
	if !types.IsPositive(amount) {
		return ErrZeroAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	balance := t.balances[from]
	if balance == nil || balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	balance.Sub(balance, amount)
	t.totalSupply.Sub(t.totalSupply, amount)
	return nil
}

func (t *Token) move(from, to common.Address, amount *big.Int) error {
	if from == (common.Address{}) || to == (common.Address{}) {
		return ErrZeroAddress
	}
	if !types.IsPositive(amount) {
		return ErrZeroAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	balance := t.balances[from]
	if balance == nil || balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	balance.Sub(balance, amount)
	t.credit(to, amount)
	return nil
}

// credit assumes t.mu is held.
func (t *Token) credit(to common.Address, amount *big.Int) {
	if existing := t.balances[to]; existing != nil {
		existing.Add(existing, amount)
		return
	}
	t.balances[to] = types.Clone(amount)
}

func (t *Token) notify(from, to common.Address, amount *big.Int) {
	t.mu.RLock()
	hook := t.hook
	t.mu.RUnlock()
	if hook != nil {
		hook(from, to, types.Clone(amount))
	}
}
