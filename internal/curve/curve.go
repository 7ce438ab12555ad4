// internal/curve/curve.go
package curve

import (
	"errors"
	"math/big"

	"github.com/rovshanmuradov/launchpad/internal/types"
)

var (
	ErrInsufficientLiquidity = errors.New("insufficient liquidity in bonding reserve")
	ErrZeroReserves          = errors.New("bonding curve has zero reserves")
)

const (
	// HaircutBps is the fixed 1% conservative buffer shaved off every raw
	// curve output. It is slippage headroom, not a fee.
	HaircutBps = 100

	// virtualTokenDivisor sets the virtual token buffer at a tenth of the
	// bonding bucket total.
	virtualTokenDivisor = 10
)

// Reserves is the virtual-plus-real state the constant-product quotes run on.
type Reserves struct {
	// Token is virtualTokenReserve + bonding tokens still unsold.
	Token *big.Int
	// Pairing is virtualPairingReserve + net deposits received.
	Pairing *big.Int
}

// NewReserves assembles quoting reserves from instance state.
// virtualPairing is a per-engine constant; the virtual token buffer is
// derived from the bonding bucket total.
func NewReserves(bondingTotal, tokensSold, totalDeposited, virtualPairing *big.Int) Reserves {
	remaining := new(big.Int).Sub(bondingTotal, tokensSold)
	virtualToken := new(big.Int).Div(bondingTotal, big.NewInt(virtualTokenDivisor))
	return Reserves{
		Token:   remaining.Add(remaining, virtualToken),
		Pairing: new(big.Int).Add(virtualPairing, totalDeposited),
	}
}

// QuoteBuy returns the tokens out for a net (post-fee) pairing amount in.
// Constant product: out = token - k/(pairing + in), then the 1% haircut.
func QuoteBuy(r Reserves, amountIn *big.Int) (*big.Int, error) {
	if r.Token.Sign() <= 0 || r.Pairing.Sign() <= 0 {
		return nil, ErrZeroReserves
	}
	if !types.IsPositive(amountIn) {
		return nil, ErrInsufficientLiquidity
	}
	k := new(big.Int).Mul(r.Token, r.Pairing)
	newPairing := new(big.Int).Add(r.Pairing, amountIn)
	out := new(big.Int).Sub(r.Token, k.Div(k, newPairing))
	return applyHaircut(out), nil
}

// QuoteSell returns the pairing amount out for tokens sold back to the curve.
func QuoteSell(r Reserves, tokensIn *big.Int) (*big.Int, error) {
	if r.Token.Sign() <= 0 || r.Pairing.Sign() <= 0 {
		return nil, ErrZeroReserves
	}
	if !types.IsPositive(tokensIn) {
		return nil, ErrInsufficientLiquidity
	}
	k := new(big.Int).Mul(r.Token, r.Pairing)
	newToken := new(big.Int).Add(r.Token, tokensIn)
	out := new(big.Int).Sub(r.Pairing, k.Div(k, newToken))
	return applyHaircut(out), nil
}

// SpotPrice returns pairing-per-token scaled by types.Precision. Used by the
// read-only analytics accessors, never by trade settlement.
func SpotPrice(r Reserves) (*big.Int, error) {
	if r.Token.Sign() <= 0 || r.Pairing.Sign() <= 0 {
		return nil, ErrZeroReserves
	}
	return types.MulDiv(r.Pairing, types.Precision, r.Token), nil
}

func applyHaircut(raw *big.Int) *big.Int {
	if raw.Sign() <= 0 {
		return new(big.Int)
	}
	return types.ApplyBps(raw, types.BpsDivisor-HaircutBps)
}
