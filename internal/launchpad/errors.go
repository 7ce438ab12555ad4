// internal/launchpad/errors.go
package launchpad

import "errors"

// Invalid arguments.
var (
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrZeroAddress              = errors.New("zero address")
	ErrSupplyTooSmall           = errors.New("total supply too small to split")
	ErrInvalidFeeRange          = errors.New("fee configuration out of range")
	ErrCannotSetMinWithoutAgent = errors.New("minimum agent deposit requires an agent asset")
)

// Insufficient funds or output.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientOutput  = errors.New("output below minimum")
)

// Disallowed calls.
var (
	ErrNotOwner             = errors.New("caller is not the owner")
	ErrExpiredDeadline      = errors.New("deadline expired")
	ErrTradingClosed        = errors.New("trading moved to the open market")
	ErrReentrantCall        = errors.New("reentrant call rejected")
	ErrUnknownSale          = errors.New("unknown sale instance")
	ErrUnknownPairing       = errors.New("pairing asset not configured")
	ErrPairingDisabled      = errors.New("pairing asset disabled")
	ErrAgentAssetNotAllowed = errors.New("agent asset not allow-listed")
)

// State machine misuse.
var (
	ErrNotGraduated     = errors.New("sale has not graduated")
	ErrAlreadyGraduated = errors.New("sale already graduated")
)

// Agent pool.
var (
	ErrNoAgentToken            = errors.New("sale has no agent asset")
	ErrNoDepositsToWithdraw    = errors.New("no agent deposits to withdraw")
	ErrNoDepositsToClaim       = errors.New("no agent deposits to claim")
	ErrInsufficientAgentTokens = errors.New("insufficient agent deposit balance")
	ErrNothingToWithdraw       = errors.New("no escrowed tokens to withdraw")
)
