package domain

import "errors"

var (
	// ErrNotAuthorized is returned when the caller lacks the admin role
	ErrNotAuthorized = errors.New("not authorized")

	// ErrInvalidAmount is returned when a fee or price is not positive
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidTier is returned when a tier is out of range, not an upgrade, or has no price
	ErrInvalidTier = errors.New("invalid tier")

	// ErrInvalidExpiry is returned when an expiry is not in the future or does not extend the current one
	ErrInvalidExpiry = errors.New("invalid expiry")

	// ErrTierNotActive is returned when minting a tier whose active flag is off
	ErrTierNotActive = errors.New("tier not active")

	// ErrMetadataTooLong is returned when metadata exceeds MaxMetadataLength
	ErrMetadataTooLong = errors.New("metadata too long")

	// ErrPaused is returned when minting while the contract is paused
	ErrPaused = errors.New("contract paused")

	// ErrAlreadyOwned is returned when the account already holds a token
	ErrAlreadyOwned = errors.New("already owned")

	// ErrNotFound is returned when a token or its owner record does not exist
	ErrNotFound = errors.New("token not found")

	// ErrNotOwner is returned when the caller is not the token owner
	ErrNotOwner = errors.New("not owner")

	// ErrLocked is returned when transferring a token that has an expiry set
	ErrLocked = errors.New("token locked")

	// ErrInsufficientBalance is returned when the payer cannot cover a settlement
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// ErrorKind is the stable, machine readable name of a failure kind
type ErrorKind string

const (
	KindNotAuthorized       ErrorKind = "not_authorized"
	KindInvalidAmount       ErrorKind = "invalid_amount"
	KindInvalidTier         ErrorKind = "invalid_tier"
	KindInvalidExpiry       ErrorKind = "invalid_expiry"
	KindTierNotActive       ErrorKind = "tier_not_active"
	KindMetadataTooLong     ErrorKind = "metadata_too_long"
	KindPaused              ErrorKind = "paused"
	KindAlreadyOwned        ErrorKind = "already_owned"
	KindNotFound            ErrorKind = "not_found"
	KindNotOwner            ErrorKind = "not_owner"
	KindLocked              ErrorKind = "locked"
	KindInsufficientBalance ErrorKind = "insufficient_balance"
	KindUnknown             ErrorKind = "unknown"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrNotAuthorized, KindNotAuthorized},
	{ErrInvalidAmount, KindInvalidAmount},
	{ErrInvalidTier, KindInvalidTier},
	{ErrInvalidExpiry, KindInvalidExpiry},
	{ErrTierNotActive, KindTierNotActive},
	{ErrMetadataTooLong, KindMetadataTooLong},
	{ErrPaused, KindPaused},
	{ErrAlreadyOwned, KindAlreadyOwned},
	{ErrNotFound, KindNotFound},
	{ErrNotOwner, KindNotOwner},
	{ErrLocked, KindLocked},
	{ErrInsufficientBalance, KindInsufficientBalance},
}

// KindOf returns the failure kind of an error returned by a lifecycle or registry operation.
// Errors outside the taxonomy report KindUnknown.
func KindOf(err error) ErrorKind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// IsRejection reports whether err is one of the precondition failures of the operation surface
func IsRejection(err error) bool {
	return err != nil && KindOf(err) != KindUnknown
}
