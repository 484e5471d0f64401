// Package mock provides an in-memory Store implementation for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/shelfgate/shelfgate/internal/biometric"
	"github.com/shelfgate/shelfgate/internal/store"
)

// MockStore is an in-memory implementation of store.Store with the
// same guard semantics as the SQL backends.
type MockStore struct {
	mu           sync.RWMutex
	assets       []*store.Asset
	identities   []*store.Identity
	transactions []*transaction
	logs         []store.ActivityEntry
	nextID       int64

	// Error injection: when set, every call returns it.
	Err error
}

type transaction struct {
	ID         int64
	AssetID    int64
	IdentityID int64
	TagID      string
	IssuedAt   string
	DueAt      string
	ReturnedAt string
	Status     string
}

var _ store.Store = (*MockStore)(nil)

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{nextID: 1}
}

func (m *MockStore) nextSeq() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *MockStore) InsertAsset(_ context.Context, a *store.Asset) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.assets {
		if existing.TagID == a.TagID {
			return store.ErrDuplicateTag
		}
	}
	if a.Status == "" {
		a.Status = store.AssetAvailable
	}
	if a.CreatedAt == "" {
		a.CreatedAt = store.FormatTime(time.Now())
	}
	a.ID = m.nextSeq()
	cp := *a
	m.assets = append(m.assets, &cp)
	return nil
}

func (m *MockStore) DeleteAsset(_ context.Context, id int64) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.assets {
		if a.ID == id {
			if a.Status == store.AssetIssued {
				return store.ErrAssetIssued
			}
			m.assets = append(m.assets[:i], m.assets[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *MockStore) FindAssetByTag(_ context.Context, tagID string) (*store.Asset, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.assets {
		if a.TagID == tagID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockStore) ListAssets(_ context.Context) ([]store.Asset, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]store.Asset, 0, len(m.assets))
	for _, a := range m.assets {
		out = append(out, *a)
	}
	return out, nil
}

func (m *MockStore) InsertIdentity(_ context.Context, ident *store.Identity) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.identities {
		if ident.Contact != "" && existing.Contact == ident.Contact {
			return store.ErrDuplicateContact
		}
	}
	if ident.EnrolledAt == "" {
		ident.EnrolledAt = store.FormatTime(time.Now())
	}
	ident.Active = true
	ident.ID = m.nextSeq()
	cp := *ident
	m.identities = append(m.identities, &cp)
	return nil
}

func (m *MockStore) SoftDeleteIdentity(_ context.Context, id int64) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range m.transactions {
		if tx.IdentityID == id && tx.Status == store.TransactionIssued {
			return store.ErrIdentityHasOpenLoan
		}
	}
	for _, ident := range m.identities {
		if ident.ID == id && ident.Active {
			ident.Active = false
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *MockStore) ListIdentities(_ context.Context) ([]store.Identity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []store.Identity
	for _, ident := range m.identities {
		if ident.Active {
			out = append(out, *ident)
		}
	}
	return out, nil
}

func (m *MockStore) Gallery(_ context.Context) ([]biometric.GalleryEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var gallery []biometric.GalleryEntry
	for _, ident := range m.identities {
		if ident.Active {
			gallery = append(gallery, biometric.GalleryEntry{
				IdentityID: ident.ID,
				Name:       ident.Name,
				Embedding:  ident.Embedding,
			})
		}
	}
	return gallery, nil
}

func (m *MockStore) FindOpenLoanByTag(_ context.Context, tagID string) (*store.OpenLoan, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, tx := range m.transactions {
		if tx.TagID != tagID || tx.Status != store.TransactionIssued {
			continue
		}
		loan := &store.OpenLoan{
			TransactionID: tx.ID,
			AssetID:       tx.AssetID,
			IdentityID:    tx.IdentityID,
		}
		for _, a := range m.assets {
			if a.ID == tx.AssetID {
				loan.AssetTitle = a.Title
			}
		}
		for _, ident := range m.identities {
			if ident.ID == tx.IdentityID {
				loan.IdentityName = ident.Name
				loan.Embedding = ident.Embedding
			}
		}
		return loan, nil
	}
	return nil, nil
}

func (m *MockStore) IssueAsset(_ context.Context, assetID, identityID int64, tagID string, issuedAt, dueAt time.Time) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var asset *store.Asset
	for _, a := range m.assets {
		if a.ID == assetID {
			asset = a
		}
	}
	if asset == nil || asset.Status != store.AssetAvailable {
		return 0, store.ErrAssetUnavailable
	}
	asset.Status = store.AssetIssued
	tx := &transaction{
		ID:         m.nextSeq(),
		AssetID:    assetID,
		IdentityID: identityID,
		TagID:      tagID,
		IssuedAt:   store.FormatTime(issuedAt),
		DueAt:      store.FormatTime(dueAt),
		Status:     store.TransactionIssued,
	}
	m.transactions = append(m.transactions, tx)
	m.logs = append(m.logs, store.ActivityEntry{
		ID: m.nextSeq(), TransactionID: tx.ID, Action: "issue",
		LoggedAt: tx.IssuedAt, Remarks: "tag " + tagID,
	})
	return tx.ID, nil
}

func (m *MockStore) ReturnAsset(_ context.Context, transactionID int64, returnedAt time.Time) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range m.transactions {
		if tx.ID != transactionID || tx.Status != store.TransactionIssued {
			continue
		}
		tx.ReturnedAt = store.FormatTime(returnedAt)
		tx.Status = store.TransactionReturned
		for _, a := range m.assets {
			if a.ID == tx.AssetID {
				a.Status = store.AssetAvailable
			}
		}
		m.logs = append(m.logs, store.ActivityEntry{
			ID: m.nextSeq(), TransactionID: tx.ID, Action: "return",
			LoggedAt: tx.ReturnedAt, Remarks: "tag " + tx.TagID,
		})
		return nil
	}
	return store.ErrNotFound
}

func (m *MockStore) record(tx *transaction) store.TransactionRecord {
	rec := store.TransactionRecord{
		ID:         tx.ID,
		AssetID:    tx.AssetID,
		IdentityID: tx.IdentityID,
		TagID:      tx.TagID,
		IssuedAt:   tx.IssuedAt,
		DueAt:      tx.DueAt,
		ReturnedAt: tx.ReturnedAt,
		Status:     tx.Status,
	}
	for _, a := range m.assets {
		if a.ID == tx.AssetID {
			rec.AssetTitle = a.Title
		}
	}
	for _, ident := range m.identities {
		if ident.ID == tx.IdentityID {
			rec.Identity = ident.Name
		}
	}
	return rec
}

func (m *MockStore) ListTransactions(_ context.Context) ([]store.TransactionRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []store.TransactionRecord
	for i := len(m.transactions) - 1; i >= 0; i-- {
		out = append(out, m.record(m.transactions[i]))
	}
	return out, nil
}

func (m *MockStore) ListActiveTransactions(_ context.Context) ([]store.TransactionRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []store.TransactionRecord
	for i := len(m.transactions) - 1; i >= 0; i-- {
		if m.transactions[i].Status == store.TransactionIssued {
			out = append(out, m.record(m.transactions[i]))
		}
	}
	return out, nil
}

func (m *MockStore) ListActivityLog(_ context.Context) ([]store.ActivityEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []store.ActivityEntry
	for i := len(m.logs) - 1; i >= 0; i-- {
		out = append(out, m.logs[i])
	}
	return out, nil
}

func (m *MockStore) PurgeAll(_ context.Context) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets = nil
	m.identities = nil
	m.transactions = nil
	m.logs = nil
	return nil
}

func (m *MockStore) Close() error { return nil }
