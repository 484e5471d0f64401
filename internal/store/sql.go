package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shelfgate/shelfgate/internal/biometric"
)

// dialect captures the differences between the supported SQL backends.
type dialect struct {
	name string
	// returning is true when the backend needs INSERT ... RETURNING
	// instead of LastInsertId.
	returning bool
	// isUniqueViolation classifies driver errors for unique constraints.
	isUniqueViolation func(error) bool
}

// SQLStore implements Store on top of database/sql. Queries are written
// with ? placeholders and rebound for backends that number them.
type SQLStore struct {
	db *sql.DB
	d  dialect
}

var _ Store = (*SQLStore)(nil)

// openSQL opens a database/sql handle and verifies the connection.
func openSQL(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// DB returns the underlying sql.DB for direct access.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("closing store: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $1, $2, ... for numbered backends.
func (s *SQLStore) rebind(query string) string {
	if !s.d.returning {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// execInsert runs an INSERT and returns the generated row ID.
func (s *SQLStore) execInsert(ctx context.Context, tx *sql.Tx, query, idColumn string, args ...any) (int64, error) {
	if s.d.returning {
		var id int64
		err := tx.QueryRowContext(ctx, s.rebind(query+" RETURNING "+idColumn), args...).Scan(&id)
		return id, err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// nullable maps empty strings to NULL so unique columns like contact
// tolerate absent values.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func coalesce(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// --- Assets ---

func (s *SQLStore) InsertAsset(ctx context.Context, a *Asset) error {
	if a.Status == "" {
		a.Status = AssetAvailable
	}
	if a.CreatedAt == "" {
		a.CreatedAt = FormatTime(time.Now())
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		id, err := s.execInsert(ctx, tx,
			`INSERT INTO assets (tag_id, title, author, isbn, category, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			"asset_id",
			a.TagID, a.Title, nullable(a.Author), nullable(a.ISBN), nullable(a.Category), a.Status, a.CreatedAt)
		if err != nil {
			return err
		}
		a.ID = id
		return nil
	})
	if err != nil {
		if s.d.isUniqueViolation(err) {
			return ErrDuplicateTag
		}
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteAsset(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT status FROM assets WHERE asset_id = ?`), id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lookup asset: %w", err)
		}
		if status == AssetIssued {
			return ErrAssetIssued
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM assets WHERE asset_id = ?`), id); err != nil {
			return fmt.Errorf("delete asset: %w", err)
		}
		return nil
	})
}

func (s *SQLStore) FindAssetByTag(ctx context.Context, tagID string) (*Asset, error) {
	var (
		a                      Asset
		author, isbn, category sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT asset_id, tag_id, title, author, isbn, category, status, created_at FROM assets WHERE tag_id = ?`), tagID).
		Scan(&a.ID, &a.TagID, &a.Title, &author, &isbn, &category, &a.Status, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find asset by tag: %w", err)
	}
	a.Author, a.ISBN, a.Category = coalesce(author), coalesce(isbn), coalesce(category)
	return &a, nil
}

func (s *SQLStore) ListAssets(ctx context.Context) ([]Asset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT asset_id, tag_id, title, author, isbn, category, status, created_at FROM assets ORDER BY asset_id`)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var (
			a                      Asset
			author, isbn, category sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.TagID, &a.Title, &author, &isbn, &category, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		a.Author, a.ISBN, a.Category = coalesce(author), coalesce(isbn), coalesce(category)
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return assets, nil
}

// --- Identities ---

func (s *SQLStore) InsertIdentity(ctx context.Context, ident *Identity) error {
	if ident.EnrolledAt == "" {
		ident.EnrolledAt = FormatTime(time.Now())
	}
	ident.Active = true
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		id, err := s.execInsert(ctx, tx,
			`INSERT INTO identities (name, contact, phone, embedding, enrolled_at, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
			"identity_id",
			ident.Name, nullable(ident.Contact), nullable(ident.Phone), ident.Embedding.Encode(), ident.EnrolledAt, true)
		if err != nil {
			return err
		}
		ident.ID = id
		return nil
	})
	if err != nil {
		if s.d.isUniqueViolation(err) {
			return ErrDuplicateContact
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

func (s *SQLStore) SoftDeleteIdentity(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var open int
		err := tx.QueryRowContext(ctx, s.rebind(
			`SELECT COUNT(*) FROM transactions WHERE identity_id = ? AND status = ?`), id, TransactionIssued).Scan(&open)
		if err != nil {
			return fmt.Errorf("count open transactions: %w", err)
		}
		if open > 0 {
			return ErrIdentityHasOpenLoan
		}
		res, err := tx.ExecContext(ctx, s.rebind(
			`UPDATE identities SET is_active = ? WHERE identity_id = ? AND is_active = ?`), false, id, true)
		if err != nil {
			return fmt.Errorf("deactivate identity: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *SQLStore) ListIdentities(ctx context.Context) ([]Identity, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT identity_id, name, contact, phone, enrolled_at, is_active FROM identities WHERE is_active = ? ORDER BY identity_id`), true)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var idents []Identity
	for rows.Next() {
		var (
			ident          Identity
			contact, phone sql.NullString
		)
		if err := rows.Scan(&ident.ID, &ident.Name, &contact, &phone, &ident.EnrolledAt, &ident.Active); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		ident.Contact, ident.Phone = coalesce(contact), coalesce(phone)
		idents = append(idents, ident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return idents, nil
}

func (s *SQLStore) Gallery(ctx context.Context) ([]biometric.GalleryEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT identity_id, name, embedding FROM identities WHERE is_active = ? ORDER BY identity_id`), true)
	if err != nil {
		return nil, fmt.Errorf("load gallery: %w", err)
	}
	defer rows.Close()

	var gallery []biometric.GalleryEntry
	for rows.Next() {
		var (
			entry biometric.GalleryEntry
			blob  []byte
		)
		if err := rows.Scan(&entry.IdentityID, &entry.Name, &blob); err != nil {
			return nil, fmt.Errorf("scan gallery entry: %w", err)
		}
		entry.Embedding, err = biometric.DecodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("identity %d: %w", entry.IdentityID, err)
		}
		gallery = append(gallery, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gallery: %w", err)
	}
	return gallery, nil
}

// --- Transactions ---

func (s *SQLStore) FindOpenLoanByTag(ctx context.Context, tagID string) (*OpenLoan, error) {
	var (
		loan OpenLoan
		blob []byte
	)
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT t.transaction_id, t.asset_id, a.title, t.identity_id, i.name, i.embedding
		 FROM transactions t
		 JOIN assets a ON t.asset_id = a.asset_id
		 JOIN identities i ON t.identity_id = i.identity_id
		 WHERE t.tag_id = ? AND t.status = ?`), tagID, TransactionIssued).
		Scan(&loan.TransactionID, &loan.AssetID, &loan.AssetTitle, &loan.IdentityID, &loan.IdentityName, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open loan: %w", err)
	}
	loan.Embedding, err = biometric.DecodeEmbedding(blob)
	if err != nil {
		return nil, fmt.Errorf("identity %d: %w", loan.IdentityID, err)
	}
	return &loan, nil
}

func (s *SQLStore) IssueAsset(ctx context.Context, assetID, identityID int64, tagID string, issuedAt, dueAt time.Time) (int64, error) {
	var transactionID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(
			`UPDATE assets SET status = ? WHERE asset_id = ? AND status = ?`),
			AssetIssued, assetID, AssetAvailable)
		if err != nil {
			return fmt.Errorf("flip asset to issued: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrAssetUnavailable
		}

		transactionID, err = s.execInsert(ctx, tx,
			`INSERT INTO transactions (asset_id, identity_id, tag_id, issued_at, due_at, status) VALUES (?, ?, ?, ?, ?, ?)`,
			"transaction_id",
			assetID, identityID, tagID, FormatTime(issuedAt), FormatTime(dueAt), TransactionIssued)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		_, err = tx.ExecContext(ctx, s.rebind(
			`INSERT INTO activity_logs (transaction_id, action, logged_at, remarks) VALUES (?, ?, ?, ?)`),
			transactionID, "issue", FormatTime(issuedAt), "tag "+tagID)
		if err != nil {
			return fmt.Errorf("log issue: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return transactionID, nil
}

func (s *SQLStore) ReturnAsset(ctx context.Context, transactionID int64, returnedAt time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var (
			assetID int64
			tagID   string
		)
		err := tx.QueryRowContext(ctx, s.rebind(
			`SELECT asset_id, tag_id FROM transactions WHERE transaction_id = ? AND status = ?`),
			transactionID, TransactionIssued).Scan(&assetID, &tagID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lookup transaction: %w", err)
		}

		_, err = tx.ExecContext(ctx, s.rebind(
			`UPDATE transactions SET returned_at = ?, status = ? WHERE transaction_id = ?`),
			FormatTime(returnedAt), TransactionReturned, transactionID)
		if err != nil {
			return fmt.Errorf("close transaction: %w", err)
		}

		_, err = tx.ExecContext(ctx, s.rebind(
			`UPDATE assets SET status = ? WHERE asset_id = ?`), AssetAvailable, assetID)
		if err != nil {
			return fmt.Errorf("flip asset to available: %w", err)
		}

		_, err = tx.ExecContext(ctx, s.rebind(
			`INSERT INTO activity_logs (transaction_id, action, logged_at, remarks) VALUES (?, ?, ?, ?)`),
			transactionID, "return", FormatTime(returnedAt), "tag "+tagID)
		if err != nil {
			return fmt.Errorf("log return: %w", err)
		}
		return nil
	})
}

// listTransactions runs the joined transaction listing. Assets may be
// deleted after their loans close, so the joins are LEFT.
func (s *SQLStore) listTransactions(ctx context.Context, openOnly bool) ([]TransactionRecord, error) {
	query := `SELECT t.transaction_id, t.asset_id, t.identity_id,
			COALESCE(a.title, ''), COALESCE(i.name, ''),
			t.tag_id, t.issued_at, t.due_at, t.returned_at, t.status
		 FROM transactions t
		 LEFT JOIN assets a ON t.asset_id = a.asset_id
		 LEFT JOIN identities i ON t.identity_id = i.identity_id`
	args := []any{}
	if openOnly {
		query += ` WHERE t.status = ?`
		args = append(args, TransactionIssued)
	}
	query += ` ORDER BY t.transaction_id DESC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var records []TransactionRecord
	for rows.Next() {
		var (
			rec        TransactionRecord
			returnedAt sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.AssetID, &rec.IdentityID, &rec.AssetTitle, &rec.Identity,
			&rec.TagID, &rec.IssuedAt, &rec.DueAt, &returnedAt, &rec.Status); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		rec.ReturnedAt = coalesce(returnedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return records, nil
}

func (s *SQLStore) ListTransactions(ctx context.Context) ([]TransactionRecord, error) {
	return s.listTransactions(ctx, false)
}

func (s *SQLStore) ListActiveTransactions(ctx context.Context) ([]TransactionRecord, error) {
	return s.listTransactions(ctx, true)
}

func (s *SQLStore) ListActivityLog(ctx context.Context) ([]ActivityEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT log_id, transaction_id, action, logged_at, remarks FROM activity_logs ORDER BY log_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list activity log: %w", err)
	}
	defer rows.Close()

	var entries []ActivityEntry
	for rows.Next() {
		var (
			e       ActivityEntry
			remarks sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.Action, &e.LoggedAt, &remarks); err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		e.Remarks = coalesce(remarks)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity log: %w", err)
	}
	return entries, nil
}

func (s *SQLStore) PurgeAll(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		// Children first so foreign keys hold.
		for _, table := range []string{"activity_logs", "transactions", "assets", "identities"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("purge %s: %w", table, err)
			}
		}
		return nil
	})
}
