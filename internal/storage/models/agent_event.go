// internal/storage/models/agent_event.go
package models

// Agent pool event kinds.
const (
	AgentKindDeposit  = "deposit"
	AgentKindWithdraw = "withdraw"
	AgentKindClaim    = "claim"
)

// AgentEvent records agent-pool deposits, withdrawals, and reward claims.
type AgentEvent struct {
	BaseModel
	SaleID           uint64 `gorm:"index;not null"`
	DepositorAddress string `gorm:"index;not null;type:varchar(42)"`
	Kind             string `gorm:"not null;type:varchar(10)"`
	Amount           string `gorm:"not null;type:numeric(78,0)"`
	Tokens           string `gorm:"type:numeric(78,0)"`
}
