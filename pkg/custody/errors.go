package custody

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/code-payments/custody-server/pkg/solana"
)

// Error is a custody program error. Codes start at 0x1770 to line up with
// custom program error codes.
type Error uint32

const (
	// The expected authority did not sign the transition
	ErrUnauthorized Error = iota + 0x1770

	// The record already exists at the derived address
	ErrAlreadyInitialized

	// A caller-supplied account does not match the re-derived address
	ErrAddressMismatch

	// Source balance is less than the requested amount
	ErrInsufficientFunds

	// The price feed is absent, unparsable, for another feed or too old
	ErrStalePriceFeed

	// Claim attempted before the cliff ends
	ErrCliffPeriodNotEnded

	// No newly vested amount is available
	ErrNothingToClaim

	// The schedule would release more than the reserve holds
	ErrScheduleOverAllocated

	// The vault cannot be closed before its expiry
	ErrVaultNotExpired

	// The vault record no longer exists
	ErrAlreadyClosed

	// No bump seed yields a valid derived address
	ErrAddressDerivationExhausted

	// The referenced account does not exist
	ErrAccountNotInitialized

	// The referenced account data could not be decoded
	ErrInvalidAccountData

	// Purchases are not accepted after the vault expires
	ErrVaultExpired

	// The purchase exceeds the per-purchase token cap
	ErrPurchaseLimitExceeded

	// The payment is too small to purchase a single base unit
	ErrPurchaseTooSmall

	// The vault price is zero
	ErrInvalidPrice

	// The vesting schedule parameters are inconsistent
	ErrInvalidSchedule

	// The account still holds funds that must be withdrawn first
	ErrFundsRemaining

	// Integer arithmetic overflowed
	ErrArithmeticOverflow

	// Holding accounts are for different mints
	ErrMintMismatch

	// A touched account changed underneath the transition
	ErrStaleAccountState

	// The reserve cannot be closed before its end time
	ErrVestingNotOver
)

var errorNames = map[Error]string{
	ErrUnauthorized:               "unauthorized",
	ErrAlreadyInitialized:         "already initialized",
	ErrAddressMismatch:            "address mismatch",
	ErrInsufficientFunds:          "insufficient funds",
	ErrStalePriceFeed:             "stale price feed",
	ErrCliffPeriodNotEnded:        "cliff period not ended",
	ErrNothingToClaim:             "nothing to claim",
	ErrScheduleOverAllocated:      "schedule over allocated",
	ErrVaultNotExpired:            "vault not expired",
	ErrAlreadyClosed:              "already closed",
	ErrAddressDerivationExhausted: "address derivation exhausted",
	ErrAccountNotInitialized:      "account not initialized",
	ErrInvalidAccountData:         "invalid account data",
	ErrVaultExpired:               "vault expired",
	ErrPurchaseLimitExceeded:      "purchase limit exceeded",
	ErrPurchaseTooSmall:           "purchase too small",
	ErrInvalidPrice:               "invalid price",
	ErrInvalidSchedule:            "invalid schedule",
	ErrFundsRemaining:             "funds remaining",
	ErrArithmeticOverflow:         "arithmetic overflow",
	ErrMintMismatch:               "mint mismatch",
	ErrStaleAccountState:          "stale account state",
	ErrVestingNotOver:             "vesting not over",
}

func (e Error) Error() string {
	if name, ok := errorNames[e]; ok {
		return name
	}
	return fmt.Sprintf("custody error 0x%x", uint32(e))
}

// Code returns the numeric error code.
func (e Error) Code() uint32 {
	return uint32(e)
}

// FromDerivationError maps address derivation failures onto the custody
// error set. Other errors are returned as-is.
func FromDerivationError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, solana.ErrAddressDerivationExhausted) {
		return ErrAddressDerivationExhausted
	}
	return err
}
