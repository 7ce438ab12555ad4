// internal/launchpad/instance.go
package launchpad

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rovshanmuradov/launchpad/internal/asset"
	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/types"
)

// SaleState is the one-way lifecycle of a sale instance.
type SaleState uint8

const (
	StateBonding SaleState = iota
	StateGraduated
)

func (s SaleState) String() string {
	switch s {
	case StateBonding:
		return "bonding"
	case StateGraduated:
		return "graduated"
	default:
		return "unknown"
	}
}

// Buckets is the split of the fixed total supply. The four amounts always
// sum to the total supply; integer-division remainders are absorbed into the
// treasury bucket (no agent asset) or the agent-rewards bucket (agent asset).
type Buckets struct {
	Liquidity    *big.Int
	Bonding      *big.Int
	Treasury     *big.Int
	AgentRewards *big.Int
}

// splitSupply computes the bucket allocation for a new sale.
func splitSupply(totalSupply *big.Int, hasAgent bool) Buckets {
	third := new(big.Int).Div(totalSupply, big.NewInt(3))
	if !hasAgent {
		treasury := new(big.Int).Sub(totalSupply, third)
		treasury.Sub(treasury, third)
		return Buckets{
			Liquidity:    third,
			Bonding:      types.Clone(third),
			Treasury:     treasury,
			AgentRewards: new(big.Int),
		}
	}

	twoNinths := new(big.Int).Mul(totalSupply, big.NewInt(2))
	twoNinths.Div(twoNinths, big.NewInt(9))
	rewards := new(big.Int).Sub(totalSupply, third)
	rewards.Sub(rewards, twoNinths)
	rewards.Sub(rewards, twoNinths)
	return Buckets{
		Liquidity:    third,
		Bonding:      twoNinths,
		Treasury:     types.Clone(twoNinths),
		AgentRewards: rewards,
	}
}

// SaleInstance is the per-token sale record. All fields are owned by the
// engine and mutated only under its call guard.
type SaleInstance struct {
	ID      uint64
	Creator common.Address
	// Owner is the current creator-fee recipient; transferable.
	Owner   common.Address
	Token   *asset.Token
	Pairing asset.Asset
	// Agent is nil when the sale has no agent co-investor pool.
	Agent           asset.Asset
	TotalSupply     *big.Int
	Buckets         Buckets
	MinAgentDeposit *big.Int
	State           SaleState
	CreatedAt       time.Time
	GraduatedAt     time.Time

	// TotalDeposited is the cumulative net-of-fee pairing received; frozen
	// at graduation. TokensSold never exceeds Buckets.Bonding.
	TotalDeposited *big.Int
	TokensSold     *big.Int

	// purchases escrows tokens bought but not yet withdrawn.
	purchases map[common.Address]*big.Int

	// agentDeposits and TotalAgentDeposited stay consistent pre-graduation;
	// after graduation the total is the frozen reward denominator while
	// individual entries are zeroed by claims.
	agentDeposits       map[common.Address]*big.Int
	TotalAgentDeposited *big.Int
}

// reserves assembles the pricer's virtual-plus-real reserve view.
func (s *SaleInstance) reserves(virtualPairing *big.Int) curve.Reserves {
	return curve.NewReserves(s.Buckets.Bonding, s.TokensSold, s.TotalDeposited, virtualPairing)
}

// bondingRemaining is the unsold remainder of the bonding bucket.
func (s *SaleInstance) bondingRemaining() *big.Int {
	return new(big.Int).Sub(s.Buckets.Bonding, s.TokensSold)
}

func (s *SaleInstance) purchaseOf(buyer common.Address) *big.Int {
	return types.Clone(s.purchases[buyer])
}

func (s *SaleInstance) creditPurchase(buyer common.Address, amount *big.Int) {
	if existing := s.purchases[buyer]; existing != nil {
		existing.Add(existing, amount)
		return
	}
	s.purchases[buyer] = types.Clone(amount)
}

func (s *SaleInstance) debitPurchase(buyer common.Address, amount *big.Int) {
	existing := s.purchases[buyer]
	existing.Sub(existing, amount)
	if existing.Sign() == 0 {
		delete(s.purchases, buyer)
	}
}

func (s *SaleInstance) agentDepositOf(depositor common.Address) *big.Int {
	return types.Clone(s.agentDeposits[depositor])
}

// SaleView is the read-only snapshot handed to external callers.
type SaleView struct {
	ID                  uint64
	Creator             common.Address
	Owner               common.Address
	Token               common.Address
	Pairing             common.Address
	Agent               *common.Address
	TotalSupply         *big.Int
	Buckets             Buckets
	MinAgentDeposit     *big.Int
	State               SaleState
	CreatedAt           time.Time
	GraduatedAt         time.Time
	TotalDeposited      *big.Int
	TokensSold          *big.Int
	TotalAgentDeposited *big.Int
}

func (s *SaleInstance) view() SaleView {
	v := SaleView{
		ID:          s.ID,
		Creator:     s.Creator,
		Owner:       s.Owner,
		Token:       s.Token.Address(),
		Pairing:     s.Pairing.Address(),
		TotalSupply: types.Clone(s.TotalSupply),
		Buckets: Buckets{
			Liquidity:    types.Clone(s.Buckets.Liquidity),
			Bonding:      types.Clone(s.Buckets.Bonding),
			Treasury:     types.Clone(s.Buckets.Treasury),
			AgentRewards: types.Clone(s.Buckets.AgentRewards),
		},
		MinAgentDeposit:     types.Clone(s.MinAgentDeposit),
		State:               s.State,
		CreatedAt:           s.CreatedAt,
		GraduatedAt:         s.GraduatedAt,
		TotalDeposited:      types.Clone(s.TotalDeposited),
		TokensSold:          types.Clone(s.TokensSold),
		TotalAgentDeposited: types.Clone(s.TotalAgentDeposited),
	}
	if s.Agent != nil {
		addr := s.Agent.Address()
		v.Agent = &addr
	}
	return v
}
