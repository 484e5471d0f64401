package store

import "errors"

// Integrity violations are caught at the store boundary and translated
// into these sentinels rather than surfacing as raw driver errors.
var (
	// ErrDuplicateTag means the presented tag is already registered.
	ErrDuplicateTag = errors.New("tag already registered")

	// ErrDuplicateContact means an identity with the same contact exists.
	ErrDuplicateContact = errors.New("contact already registered")

	// ErrAssetUnavailable means the asset is not in the available state.
	ErrAssetUnavailable = errors.New("asset unavailable")

	// ErrAssetIssued means the asset cannot be deleted while issued.
	ErrAssetIssued = errors.New("asset is issued")

	// ErrIdentityHasOpenLoan means the identity still has an open transaction.
	ErrIdentityHasOpenLoan = errors.New("identity has open transactions")

	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("not found")
)
