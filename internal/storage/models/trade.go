// internal/storage/models/trade.go
package models

// Trade records one bonding-curve trade with its fee split.
type Trade struct {
	BaseModel
	SaleID        uint64 `gorm:"index;not null"`
	TraderAddress string `gorm:"index;not null;type:varchar(42)"`
	Direction     string `gorm:"not null;type:varchar(4)"`
	AmountIn      string `gorm:"not null;type:numeric(78,0)"`
	AmountOut     string `gorm:"not null;type:numeric(78,0)"`
	FeeBps        uint64 `gorm:"not null"`
	CreatorFee    string `gorm:"not null;type:numeric(78,0)"`
	TreasuryFee   string `gorm:"not null;type:numeric(78,0)"`
}
