// internal/curve/fees.go
package curve

import (
	"math/big"

	"github.com/rovshanmuradov/launchpad/internal/types"
)

// FeeSplit is the outcome of removing the trading fee from a gross amount.
type FeeSplit struct {
	Net         *big.Int // gross minus the full fee
	CreatorFee  *big.Int // fee share routed to the sale's current owner
	TreasuryFee *big.Int // remainder of the fee, to the protocol treasury
}

// SplitFee removes feeBps from gross and divides the extracted fee between
// the sale owner (creatorShareBps of the fee) and the protocol treasury.
// The treasury absorbs the division remainder so the three parts always sum
// back to gross.
func SplitFee(gross *big.Int, feeBps, creatorShareBps uint64) FeeSplit {
	fee := types.ApplyBps(gross, feeBps)
	creator := types.ApplyBps(fee, creatorShareBps)
	treasury := new(big.Int).Sub(fee, creator)
	return FeeSplit{
		Net:         new(big.Int).Sub(gross, fee),
		CreatorFee:  creator,
		TreasuryFee: treasury,
	}
}
