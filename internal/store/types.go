package store

import (
	"time"

	"github.com/shelfgate/shelfgate/internal/biometric"
)

// Asset circulation states.
const (
	AssetAvailable = "available"
	AssetIssued    = "issued"
)

// Transaction states.
const (
	TransactionIssued   = "issued"
	TransactionReturned = "returned"
)

// TimeFormat is the fixed textual format used for persisted timestamps.
const TimeFormat = "2006-01-02 15:04:05"

// FormatTime renders a timestamp in the persisted textual format.
func FormatTime(t time.Time) string {
	return t.Format(TimeFormat)
}

// ParseTime parses a persisted timestamp.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeFormat, s)
}

// Asset is a physical item tracked by the station, bound to an RFID tag.
type Asset struct {
	ID        int64  `json:"id"`
	TagID     string `json:"tag_id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	ISBN      string `json:"isbn,omitempty"`
	Category  string `json:"category"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// Identity is an enrolled person with exactly one face embedding.
// Active=false is a soft delete: the identity is excluded from
// matching but its historic transactions remain valid.
type Identity struct {
	ID         int64               `json:"id"`
	Name       string              `json:"name"`
	Contact    string              `json:"contact"`
	Phone      string              `json:"phone,omitempty"`
	Embedding  biometric.Embedding `json:"-"`
	EnrolledAt string              `json:"enrolled_at"`
	Active     bool                `json:"active"`
}

// TransactionRecord is a circulation transaction joined with the
// asset title and identity name for listing.
type TransactionRecord struct {
	ID         int64  `json:"id"`
	AssetID    int64  `json:"asset_id"`
	IdentityID int64  `json:"identity_id"`
	AssetTitle string `json:"asset"`
	Identity   string `json:"identity"`
	TagID      string `json:"tag_id"`
	IssuedAt   string `json:"issued_at"`
	DueAt      string `json:"due_at"`
	ReturnedAt string `json:"returned_at,omitempty"`
	Status     string `json:"status"`
}

// OpenLoan is the open transaction for a presented tag, joined with
// the data a return session needs: the asset to release and the
// enrolled embedding to verify against.
type OpenLoan struct {
	TransactionID int64
	AssetID       int64
	AssetTitle    string
	IdentityID    int64
	IdentityName  string
	Embedding     biometric.Embedding
}

// ActivityEntry is one row of the circulation activity log.
type ActivityEntry struct {
	ID            int64  `json:"id"`
	TransactionID int64  `json:"transaction_id"`
	Action        string `json:"action"`
	LoggedAt      string `json:"logged_at"`
	Remarks       string `json:"remarks,omitempty"`
}
