// internal/events/types.go
package events

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventType represents the type of event.
type EventType string

const (
	// Sale lifecycle events
	SaleCreated      EventType = "sale.created"
	SaleGraduated    EventType = "sale.graduated"
	SaleOwnerChanged EventType = "sale.owner_changed"

	// Trading events
	TradeExecuted   EventType = "trade.executed"
	TokensWithdrawn EventType = "trade.tokens_withdrawn"

	// Fee discount events
	SnapshotRecorded EventType = "discount.snapshot_recorded"

	// Agent pool events
	AgentDeposited      EventType = "agent.deposited"
	AgentWithdrawn      EventType = "agent.withdrawn"
	AgentRewardsClaimed EventType = "agent.rewards_claimed"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// Now stamps a BaseEvent for the given type.
func Now(t EventType) BaseEvent {
	return BaseEvent{EventType: t, EventTime: time.Now()}
}

// SaleCreatedEvent is emitted when a new sale instance is configured.
type SaleCreatedEvent struct {
	BaseEvent
	SaleID          uint64
	Creator         common.Address
	Token           common.Address
	Pairing         common.Address
	Agent           *common.Address // nil when no agent asset is attached
	TotalSupply     *big.Int
	LiquidityBucket *big.Int
	BondingBucket   *big.Int
	TreasuryBucket  *big.Int
	AgentBucket     *big.Int
}

// TradeDirection distinguishes buys from sells.
type TradeDirection string

const (
	DirectionBuy  TradeDirection = "buy"
	DirectionSell TradeDirection = "sell"
)

// TradeExecutedEvent is emitted after a bonding-curve trade settles.
type TradeExecutedEvent struct {
	BaseEvent
	SaleID      uint64
	Trader      common.Address
	Direction   TradeDirection
	AmountIn    *big.Int
	AmountOut   *big.Int
	FeeBps      uint64
	CreatorFee  *big.Int
	TreasuryFee *big.Int
}

// SaleGraduatedEvent is emitted once per instance, when the bonding phase
// ends and open-market liquidity is created.
type SaleGraduatedEvent struct {
	BaseEvent
	SaleID           uint64
	Token            common.Address
	Pool             common.Hash
	LiquidityTokens  *big.Int
	LiquidityPairing *big.Int
	TreasuryTokens   *big.Int
}

// SaleOwnerChangedEvent is emitted when the creator-fee recipient changes.
type SaleOwnerChangedEvent struct {
	BaseEvent
	SaleID   uint64
	OldOwner common.Address
	NewOwner common.Address
}

// TokensWithdrawnEvent is emitted when a buyer pulls escrowed tokens after
// graduation.
type TokensWithdrawnEvent struct {
	BaseEvent
	SaleID uint64
	Buyer  common.Address
	Amount *big.Int
}

// SnapshotRecordedEvent is emitted when a holder's discount snapshot
// advances.
type SnapshotRecordedEvent struct {
	BaseEvent
	Holder  common.Address
	Balance *big.Int
	Height  uint64
}

// AgentDepositedEvent is emitted on an agent-pool deposit.
type AgentDepositedEvent struct {
	BaseEvent
	SaleID    uint64
	Depositor common.Address
	Amount    *big.Int
	Total     *big.Int
}

// AgentWithdrawnEvent is emitted on a pre-graduation agent-pool withdrawal.
type AgentWithdrawnEvent struct {
	BaseEvent
	SaleID    uint64
	Depositor common.Address
	Amount    *big.Int
	Total     *big.Int
}

// AgentRewardsClaimedEvent is emitted when a depositor claims their
// proportional share of the agent-rewards bucket.
type AgentRewardsClaimedEvent struct {
	BaseEvent
	SaleID    uint64
	Depositor common.Address
	Tokens    *big.Int
	Deposit   *big.Int
}
