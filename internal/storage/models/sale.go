// internal/storage/models/sale.go
package models

import "time"

// Sale mirrors a sale instance for the indexer surface. Amounts are stored
// as decimal strings because they are 256-bit integers.
type Sale struct {
	BaseModel
	SaleID          uint64     `gorm:"uniqueIndex;not null"`
	TokenAddress    string     `gorm:"not null;type:varchar(42)"`
	PairingAddress  string     `gorm:"index;not null;type:varchar(42)"`
	AgentAddress    string     `gorm:"type:varchar(42)"`
	CreatorAddress  string     `gorm:"index;not null;type:varchar(42)"`
	TotalSupply     string     `gorm:"not null;type:numeric(78,0)"`
	LiquidityBucket string     `gorm:"not null;type:numeric(78,0)"`
	BondingBucket   string     `gorm:"not null;type:numeric(78,0)"`
	TreasuryBucket  string     `gorm:"not null;type:numeric(78,0)"`
	AgentBucket     string     `gorm:"not null;type:numeric(78,0)"`
	Graduated       bool       `gorm:"not null;default:false"`
	GraduatedAt     *time.Time `gorm:"index"`
	PoolID          string     `gorm:"type:varchar(66)"`
}
