package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shelfgate/shelfgate/internal/biometric"
	"github.com/shelfgate/shelfgate/internal/config"
)

// Open connects the configured backend.
func Open(ctx context.Context, cfg *config.StoreConfig) (*SQLStore, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return OpenSQLite(ctx, cfg.Path)
	case "postgres":
		return OpenPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Store owns the durable Asset/Identity/Transaction lifecycle and is
// the sole writer of circulation state. Lookups that find nothing
// return (nil, nil); mutations that find nothing return ErrNotFound.
type Store interface {
	// InsertAsset registers an asset and sets its ID.
	// Returns ErrDuplicateTag when the tag is already bound.
	InsertAsset(ctx context.Context, a *Asset) error

	// DeleteAsset removes an asset. Returns ErrAssetIssued while the
	// asset is checked out.
	DeleteAsset(ctx context.Context, id int64) error

	// FindAssetByTag returns the asset bound to a tag, or nil.
	FindAssetByTag(ctx context.Context, tagID string) (*Asset, error)

	// ListAssets returns all assets in registration order.
	ListAssets(ctx context.Context) ([]Asset, error)

	// InsertIdentity enrolls an identity with its embedding and sets
	// its ID. Returns ErrDuplicateContact on a contact collision.
	InsertIdentity(ctx context.Context, ident *Identity) error

	// SoftDeleteIdentity deactivates an identity. Returns
	// ErrIdentityHasOpenLoan while it has an open transaction.
	SoftDeleteIdentity(ctx context.Context, id int64) error

	// ListIdentities returns active identities in enrollment order.
	ListIdentities(ctx context.Context) ([]Identity, error)

	// Gallery returns the active identities' embeddings in enrollment
	// order, the scan order the matcher depends on.
	Gallery(ctx context.Context) ([]biometric.GalleryEntry, error)

	// FindOpenLoanByTag returns the open transaction for a tag joined
	// with the verification embedding, or nil.
	FindOpenLoanByTag(ctx context.Context, tagID string) (*OpenLoan, error)

	// IssueAsset creates a transaction and flips the asset to issued
	// in one atomic unit, returning the transaction ID. Returns
	// ErrAssetUnavailable when the asset is not available.
	IssueAsset(ctx context.Context, assetID, identityID int64, tagID string, issuedAt, dueAt time.Time) (int64, error)

	// ReturnAsset closes a transaction and flips its asset back to
	// available in one atomic unit.
	ReturnAsset(ctx context.Context, transactionID int64, returnedAt time.Time) error

	// ListTransactions returns all transactions, newest first.
	ListTransactions(ctx context.Context) ([]TransactionRecord, error)

	// ListActiveTransactions returns open transactions only.
	ListActiveTransactions(ctx context.Context) ([]TransactionRecord, error)

	// ListActivityLog returns the activity log, newest first.
	ListActivityLog(ctx context.Context) ([]ActivityEntry, error)

	// PurgeAll wipes every table. Intended for station resets.
	PurgeAll(ctx context.Context) error

	Close() error
}
