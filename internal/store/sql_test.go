package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shelfgate/shelfgate/internal/biometric"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "station.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testEmbedding(seed float64) biometric.Embedding {
	e := make(biometric.Embedding, biometric.EmbeddingDim)
	for i := range e {
		e[i] = seed
	}
	return e
}

func mustInsertAsset(t *testing.T, s *SQLStore, tag, title string) *Asset {
	t.Helper()
	a := &Asset{TagID: tag, Title: title, Author: "Author", Category: "general"}
	if err := s.InsertAsset(context.Background(), a); err != nil {
		t.Fatalf("insert asset: %v", err)
	}
	return a
}

func mustInsertIdentity(t *testing.T, s *SQLStore, name, contact string, seed float64) *Identity {
	t.Helper()
	ident := &Identity{Name: name, Contact: contact, Embedding: testEmbedding(seed)}
	if err := s.InsertIdentity(context.Background(), ident); err != nil {
		t.Fatalf("insert identity: %v", err)
	}
	return ident
}

func TestInsertAsset_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mustInsertAsset(t, s, "T1", "X")

	a, err := s.FindAssetByTag(ctx, "T1")
	if err != nil {
		t.Fatalf("find by tag: %v", err)
	}
	if a == nil {
		t.Fatal("expected asset for tag T1")
	}
	if a.Title != "X" {
		t.Errorf("expected title X, got %q", a.Title)
	}
	if a.Status != AssetAvailable {
		t.Errorf("expected status available, got %q", a.Status)
	}
}

func TestInsertAsset_DuplicateTag(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mustInsertAsset(t, s, "T1", "X")
	err := s.InsertAsset(ctx, &Asset{TagID: "T1", Title: "Y"})
	if !errors.Is(err, ErrDuplicateTag) {
		t.Errorf("expected ErrDuplicateTag, got %v", err)
	}
}

func TestFindAssetByTag_Missing(t *testing.T) {
	s := openTestStore(t)

	a, err := s.FindAssetByTag(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != nil {
		t.Errorf("expected nil asset, got %+v", a)
	}
}

func TestInsertIdentity_DuplicateContact(t *testing.T) {
	s := openTestStore(t)

	mustInsertIdentity(t, s, "Alice", "alice@example.com", 0.1)
	err := s.InsertIdentity(context.Background(), &Identity{
		Name: "Other", Contact: "alice@example.com", Embedding: testEmbedding(0.2),
	})
	if !errors.Is(err, ErrDuplicateContact) {
		t.Errorf("expected ErrDuplicateContact, got %v", err)
	}
}

func TestGallery_OrderAndRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	alice := mustInsertIdentity(t, s, "Alice", "alice@example.com", 0.1)
	bob := mustInsertIdentity(t, s, "Bob", "bob@example.com", 0.9)

	gallery, err := s.Gallery(ctx)
	if err != nil {
		t.Fatalf("gallery: %v", err)
	}
	if len(gallery) != 2 {
		t.Fatalf("expected 2 gallery entries, got %d", len(gallery))
	}
	if gallery[0].IdentityID != alice.ID || gallery[1].IdentityID != bob.ID {
		t.Errorf("gallery not in enrollment order: %+v", gallery)
	}
	if biometric.Distance(gallery[0].Embedding, alice.Embedding) != 0 {
		t.Error("alice embedding did not round-trip")
	}
}

func TestGallery_ExcludesInactive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	alice := mustInsertIdentity(t, s, "Alice", "alice@example.com", 0.1)
	mustInsertIdentity(t, s, "Bob", "bob@example.com", 0.9)

	if err := s.SoftDeleteIdentity(ctx, alice.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	gallery, err := s.Gallery(ctx)
	if err != nil {
		t.Fatalf("gallery: %v", err)
	}
	if len(gallery) != 1 || gallery[0].Name != "Bob" {
		t.Errorf("expected only Bob in gallery, got %+v", gallery)
	}
}

func TestIssueAsset_FlipsStatusAndOpensTransaction(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	asset := mustInsertAsset(t, s, "T1", "X")
	alice := mustInsertIdentity(t, s, "Alice", "alice@example.com", 0.1)

	issuedAt := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	dueAt := issuedAt.Add(14 * 24 * time.Hour)
	txID, err := s.IssueAsset(ctx, asset.ID, alice.ID, "T1", issuedAt, dueAt)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if txID == 0 {
		t.Error("expected non-zero transaction id")
	}

	a, _ := s.FindAssetByTag(ctx, "T1")
	if a.Status != AssetIssued {
		t.Errorf("expected asset issued, got %q", a.Status)
	}

	open, err := s.ListActiveTransactions(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected exactly one open transaction, got %d", len(open))
	}
	if open[0].DueAt != "2026-03-15 10:30:00" {
		t.Errorf("expected due date 14 days after issue, got %q", open[0].DueAt)
	}
	if open[0].Identity != "Alice" || open[0].AssetTitle != "X" {
		t.Errorf("unexpected joined record %+v", open[0])
	}
}

func TestIssueAsset_SecondIssueFails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	asset := mustInsertAsset(t, s, "T1", "X")
	alice := mustInsertIdentity(t, s, "Alice", "alice@example.com", 0.1)

	now := time.Now()
	if _, err := s.IssueAsset(ctx, asset.ID, alice.ID, "T1", now, now.Add(24*time.Hour)); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	_, err := s.IssueAsset(ctx, asset.ID, alice.ID, "T1", now, now.Add(24*time.Hour))
	if !errors.Is(err, ErrAssetUnavailable) {
		t.Errorf("expected ErrAssetUnavailable, got %v", err)
	}
}

func TestReturnAsset_ClosesTransaction(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	asset := mustInsertAsset(t, s, "T1", "X")
	alice := mustInsertIdentity(t, s, "Alice", "alice@example.com", 0.1)

	issuedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	txID, err := s.IssueAsset(ctx, asset.ID, alice.ID, "T1", issuedAt, issuedAt.Add(14*24*time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	returnedAt := issuedAt.Add(48 * time.Hour)
	if err := s.ReturnAsset(ctx, txID, returnedAt); err != nil {
		t.Fatalf("return: %v", err)
	}

	a, _ := s.FindAssetByTag(ctx, "T1")
	if a.Status != AssetAvailable {
		t.Errorf("expected asset available after return, got %q", a.Status)
	}

	all, _ := s.ListTransactions(ctx)
	if len(all) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(all))
	}
	if all[0].Status != TransactionReturned {
		t.Errorf("expected returned status, got %q", all[0].Status)
	}
	if all[0].ReturnedAt != "2026-03-03 10:00:00" {
		t.Errorf("unexpected returned_at %q", all[0].ReturnedAt)
	}

	// Second return on the same transaction finds nothing open.
	if err := s.ReturnAsset(ctx, txID, returnedAt); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on double return, got %v", err)
	}
}

func TestFindOpenLoanByTag(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	asset := mustInsertAsset(t, s, "T1", "X")
	alice := mustInsertIdentity(t, s, "Alice", "alice@example.com", 0.1)

	loan, err := s.FindOpenLoanByTag(ctx, "T1")
	if err != nil || loan != nil {
		t.Fatalf("expected no open loan before issue, got %+v err %v", loan, err)
	}

	now := time.Now()
	txID, err := s.IssueAsset(ctx, asset.ID, alice.ID, "T1", now, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	loan, err = s.FindOpenLoanByTag(ctx, "T1")
	if err != nil {
		t.Fatalf("find open loan: %v", err)
	}
	if loan == nil {
		t.Fatal("expected open loan")
	}
	if loan.TransactionID != txID || loan.IdentityName != "Alice" || loan.AssetTitle != "X" {
		t.Errorf("unexpected loan %+v", loan)
	}
	if biometric.Distance(loan.Embedding, alice.Embedding) != 0 {
		t.Error("loan embedding did not round-trip")
	}
}

func TestDeleteAsset_Guards(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	asset := mustInsertAsset(t, s, "T1", "X")
	alice := mustInsertIdentity(t, s, "Alice", "alice@example.com", 0.1)

	now := time.Now()
	txID, err := s.IssueAsset(ctx, asset.ID, alice.ID, "T1", now, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := s.DeleteAsset(ctx, asset.ID); !errors.Is(err, ErrAssetIssued) {
		t.Errorf("expected ErrAssetIssued, got %v", err)
	}

	if err := s.ReturnAsset(ctx, txID, now.Add(time.Hour)); err != nil {
		t.Fatalf("return: %v", err)
	}
	if err := s.DeleteAsset(ctx, asset.ID); err != nil {
		t.Errorf("expected delete to succeed after return, got %v", err)
	}
	if err := s.DeleteAsset(ctx, asset.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for deleted asset, got %v", err)
	}

	// The closed transaction survives the delete as a historic record.
	records, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected historic transaction to survive asset delete, got %d records", len(records))
	}
	if records[0].AssetTitle != "" {
		t.Errorf("expected empty title for deleted asset, got %q", records[0].AssetTitle)
	}
	if records[0].Status != TransactionReturned {
		t.Errorf("expected returned status, got %q", records[0].Status)
	}
}

func TestSoftDeleteIdentity_Guards(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	asset := mustInsertAsset(t, s, "T1", "X")
	alice := mustInsertIdentity(t, s, "Alice", "alice@example.com", 0.1)

	now := time.Now()
	txID, err := s.IssueAsset(ctx, asset.ID, alice.ID, "T1", now, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := s.SoftDeleteIdentity(ctx, alice.ID); !errors.Is(err, ErrIdentityHasOpenLoan) {
		t.Errorf("expected ErrIdentityHasOpenLoan, got %v", err)
	}

	if err := s.ReturnAsset(ctx, txID, now.Add(time.Hour)); err != nil {
		t.Fatalf("return: %v", err)
	}
	if err := s.SoftDeleteIdentity(ctx, alice.ID); err != nil {
		t.Errorf("expected soft delete to succeed, got %v", err)
	}

	// Historic transactions survive the soft delete.
	all, _ := s.ListTransactions(ctx)
	if len(all) != 1 || all[0].Identity != "Alice" {
		t.Errorf("expected historic transaction for Alice, got %+v", all)
	}

	if err := s.SoftDeleteIdentity(ctx, alice.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for already-inactive identity, got %v", err)
	}
}

func TestActivityLog_RecordsIssueAndReturn(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	asset := mustInsertAsset(t, s, "T1", "X")
	alice := mustInsertIdentity(t, s, "Alice", "alice@example.com", 0.1)

	now := time.Now()
	txID, err := s.IssueAsset(ctx, asset.ID, alice.ID, "T1", now, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := s.ReturnAsset(ctx, txID, now.Add(time.Hour)); err != nil {
		t.Fatalf("return: %v", err)
	}

	entries, err := s.ListActivityLog(ctx)
	if err != nil {
		t.Fatalf("list activity log: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	// Newest first.
	if entries[0].Action != "return" || entries[1].Action != "issue" {
		t.Errorf("unexpected log order: %+v", entries)
	}
}

func TestPurgeAll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	asset := mustInsertAsset(t, s, "T1", "X")
	alice := mustInsertIdentity(t, s, "Alice", "alice@example.com", 0.1)
	now := time.Now()
	if _, err := s.IssueAsset(ctx, asset.ID, alice.ID, "T1", now, now.Add(24*time.Hour)); err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := s.PurgeAll(ctx); err != nil {
		t.Fatalf("purge: %v", err)
	}

	assets, _ := s.ListAssets(ctx)
	idents, _ := s.ListIdentities(ctx)
	txs, _ := s.ListTransactions(ctx)
	logs, _ := s.ListActivityLog(ctx)
	if len(assets)+len(idents)+len(txs)+len(logs) != 0 {
		t.Errorf("expected empty store after purge: %d assets, %d identities, %d transactions, %d logs",
			len(assets), len(idents), len(txs), len(logs))
	}
}
