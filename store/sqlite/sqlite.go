/*
Package sqlite provides the durable SQLite-backed core.TxStore.

PURPOSE:
  Implements every entity collection (members, categories, deposits,
  wholesale sales, withdrawals, notifications) on SQLite. In production the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  members:          Account records with current balance
  waste_categories: Catalog definitions
  deposits:         Immutable deposit transactions (append-only)
  wholesale_sales:  Sale records; only payment_status ever changes
  withdrawals:      Requests with status transitions
  notifications:    Per-member inbox, ordered by insertion

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statements exist for the deposits table. Category
  name and price are snapshotted into each row so history stays meaningful
  after catalog edits.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

CONCURRENCY:
  WithTx holds an exclusive lock plus a database transaction, so every
  engine mutation is one atomic unit and two concurrent approvals of the
  same member's withdrawals cannot double-deduct. All reads inside a
  transaction go through the open *sql.Tx, never back through the locked
  store methods.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

USAGE:
  store, err := sqlite.New("./data/ecovault.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := core.NewEngine(store)

SEE ALSO:
  - core/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/ecovault/bank-engine/core"
)

// Store implements core.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
	q  queries
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an ephemeral database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, q: queries{db: db}}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		full_name TEXT NOT NULL,
		password TEXT NOT NULL,
		role TEXT NOT NULL,
		balance INTEGER NOT NULL DEFAULT 0,
		joined_at TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_members_username
		ON members(username COLLATE NOCASE);

	CREATE TABLE IF NOT EXISTS waste_categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price_per_kg INTEGER NOT NULL,
		grouping TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS deposits (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		operator_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		category_name TEXT NOT NULL,
		weight TEXT NOT NULL,
		price_per_kg INTEGER NOT NULL,
		total_amount INTEGER NOT NULL,
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deposits_member ON deposits(member_id);
	CREATE INDEX IF NOT EXISTS idx_deposits_category ON deposits(category_id);

	CREATE TABLE IF NOT EXISTS wholesale_sales (
		id TEXT PRIMARY KEY,
		category_id TEXT NOT NULL,
		category_name TEXT NOT NULL,
		weight TEXT NOT NULL,
		member_price_per_kg INTEGER NOT NULL,
		wholesale_price_per_kg INTEGER NOT NULL,
		total_amount INTEGER NOT NULL,
		payment_status TEXT NOT NULL,
		operator_id TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sales_category ON wholesale_sales(category_id);
	CREATE INDEX IF NOT EXISTS idx_sales_status ON wholesale_sales(payment_status);

	CREATE TABLE IF NOT EXISTS withdrawals (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		amount INTEGER NOT NULL,
		status TEXT NOT NULL,
		requested_at TEXT NOT NULL,
		processed_at TEXT,
		processed_by TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_withdrawals_member ON withdrawals(member_id);
	CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawals(status);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		message TEXT NOT NULL,
		at TEXT NOT NULL,
		read INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_notifications_member ON notifications(member_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// QUERY LAYER - Shared by the store and its transactions
// =============================================================================

// dbtx is satisfied by both *sql.DB and *sql.Tx, so the same query code
// serves autonomous calls and calls inside WithTx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

// --- members ---

const memberCols = "id, username, full_name, password, role, balance, joined_at"

func scanMember(row interface{ Scan(...any) error }) (*core.Member, error) {
	var m core.Member
	var joinedAt string
	err := row.Scan(&m.ID, &m.Username, &m.FullName, &m.Password, &m.Role, &m.Balance, &joinedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.JoinedAt, _ = time.Parse(time.RFC3339, joinedAt)
	return &m, nil
}

func (q queries) getMember(ctx context.Context, id core.MemberID) (*core.Member, error) {
	row := q.db.QueryRowContext(ctx, "SELECT "+memberCols+" FROM members WHERE id = ?", id)
	return scanMember(row)
}

func (q queries) getMemberByUsername(ctx context.Context, username string) (*core.Member, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+memberCols+" FROM members WHERE username = ? COLLATE NOCASE", username)
	return scanMember(row)
}

func (q queries) saveMember(ctx context.Context, m core.Member) error {
	query := `
		INSERT INTO members (id, username, full_name, password, role, balance, joined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			full_name = excluded.full_name,
			password = excluded.password,
			role = excluded.role,
			balance = excluded.balance
	`
	_, err := q.db.ExecContext(ctx, query,
		m.ID, m.Username, m.FullName, m.Password, m.Role, m.Balance,
		m.JoinedAt.UTC().Format(time.RFC3339))
	return err
}

func (q queries) listMembers(ctx context.Context) ([]core.Member, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT "+memberCols+" FROM members ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []core.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (q queries) deleteMember(ctx context.Context, id core.MemberID) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM members WHERE id = ?", id)
	return err
}

// --- categories ---

func (q queries) getCategory(ctx context.Context, id core.CategoryID) (*core.WasteCategory, error) {
	var c core.WasteCategory
	err := q.db.QueryRowContext(ctx,
		"SELECT id, name, price_per_kg, grouping FROM waste_categories WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &c.PricePerKg, &c.Group)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (q queries) saveCategory(ctx context.Context, c core.WasteCategory) error {
	query := `
		INSERT INTO waste_categories (id, name, price_per_kg, grouping)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			price_per_kg = excluded.price_per_kg,
			grouping = excluded.grouping
	`
	_, err := q.db.ExecContext(ctx, query, c.ID, c.Name, c.PricePerKg, c.Group)
	return err
}

func (q queries) listCategories(ctx context.Context) ([]core.WasteCategory, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id, name, price_per_kg, grouping FROM waste_categories ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []core.WasteCategory
	for rows.Next() {
		var c core.WasteCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.PricePerKg, &c.Group); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (q queries) deleteCategory(ctx context.Context, id core.CategoryID) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM waste_categories WHERE id = ?", id)
	return err
}

// --- deposits ---

const depositCols = "id, member_id, operator_id, category_id, category_name, weight, price_per_kg, total_amount, recorded_at"

func (q queries) appendDeposit(ctx context.Context, d core.DepositTransaction) error {
	query := `
		INSERT INTO deposits
		(id, member_id, operator_id, category_id, category_name, weight, price_per_kg, total_amount, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.db.ExecContext(ctx, query,
		d.ID, d.MemberID, d.OperatorID, d.CategoryID, d.CategoryName,
		d.Weight.String(), d.PricePerKgSnapshot, d.TotalAmount,
		d.RecordedAt.UTC().Format(time.RFC3339))
	return err
}

func (q queries) queryDeposits(ctx context.Context, query string, args ...any) ([]core.DepositTransaction, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deposits []core.DepositTransaction
	for rows.Next() {
		var d core.DepositTransaction
		var weight, recordedAt string
		if err := rows.Scan(&d.ID, &d.MemberID, &d.OperatorID, &d.CategoryID, &d.CategoryName,
			&weight, &d.PricePerKgSnapshot, &d.TotalAmount, &recordedAt); err != nil {
			return nil, err
		}
		d.Weight = parseWeight(weight)
		d.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}

func (q queries) listDeposits(ctx context.Context) ([]core.DepositTransaction, error) {
	return q.queryDeposits(ctx, "SELECT "+depositCols+" FROM deposits ORDER BY rowid")
}

func (q queries) listDepositsByMember(ctx context.Context, id core.MemberID) ([]core.DepositTransaction, error) {
	return q.queryDeposits(ctx,
		"SELECT "+depositCols+" FROM deposits WHERE member_id = ? ORDER BY rowid", id)
}

// --- wholesale sales ---

const saleCols = "id, category_id, category_name, weight, member_price_per_kg, wholesale_price_per_kg, total_amount, payment_status, operator_id, recorded_at"

func (q queries) appendSale(ctx context.Context, s core.WholesaleTransaction) error {
	query := `
		INSERT INTO wholesale_sales
		(id, category_id, category_name, weight, member_price_per_kg, wholesale_price_per_kg,
		 total_amount, payment_status, operator_id, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.db.ExecContext(ctx, query,
		s.ID, s.CategoryID, s.CategoryName, s.Weight.String(),
		s.MemberPricePerKg, s.WholesalePricePerKg, s.TotalAmount,
		s.PaymentStatus, s.OperatorID, s.RecordedAt.UTC().Format(time.RFC3339))
	return err
}

// saveSale only touches payment_status: everything else on a sale is frozen
// at creation.
func (q queries) saveSale(ctx context.Context, s core.WholesaleTransaction) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE wholesale_sales SET payment_status = ? WHERE id = ?",
		s.PaymentStatus, s.ID)
	return err
}

func (q queries) querySales(ctx context.Context, query string, args ...any) ([]core.WholesaleTransaction, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []core.WholesaleTransaction
	for rows.Next() {
		var s core.WholesaleTransaction
		var weight, recordedAt string
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.CategoryName, &weight,
			&s.MemberPricePerKg, &s.WholesalePricePerKg, &s.TotalAmount,
			&s.PaymentStatus, &s.OperatorID, &recordedAt); err != nil {
			return nil, err
		}
		s.Weight = parseWeight(weight)
		s.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func (q queries) getSale(ctx context.Context, id core.SaleID) (*core.WholesaleTransaction, error) {
	sales, err := q.querySales(ctx, "SELECT "+saleCols+" FROM wholesale_sales WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, nil
	}
	return &sales[0], nil
}

func (q queries) listSales(ctx context.Context) ([]core.WholesaleTransaction, error) {
	return q.querySales(ctx, "SELECT "+saleCols+" FROM wholesale_sales ORDER BY rowid")
}

// --- withdrawals ---

const withdrawalCols = "id, member_id, amount, status, requested_at, processed_at, processed_by"

func (q queries) saveWithdrawal(ctx context.Context, w core.WithdrawalRequest) error {
	query := `
		INSERT INTO withdrawals (id, member_id, amount, status, requested_at, processed_at, processed_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			processed_at = excluded.processed_at,
			processed_by = excluded.processed_by
	`
	var processedAt, processedBy any
	if w.ProcessedAt != nil {
		processedAt = w.ProcessedAt.UTC().Format(time.RFC3339)
	}
	if w.ProcessedBy != nil {
		processedBy = string(*w.ProcessedBy)
	}
	_, err := q.db.ExecContext(ctx, query,
		w.ID, w.MemberID, w.Amount, w.Status,
		w.RequestedAt.UTC().Format(time.RFC3339), processedAt, processedBy)
	return err
}

func (q queries) queryWithdrawals(ctx context.Context, query string, args ...any) ([]core.WithdrawalRequest, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var withdrawals []core.WithdrawalRequest
	for rows.Next() {
		var w core.WithdrawalRequest
		var requestedAt string
		var processedAt, processedBy sql.NullString
		if err := rows.Scan(&w.ID, &w.MemberID, &w.Amount, &w.Status,
			&requestedAt, &processedAt, &processedBy); err != nil {
			return nil, err
		}
		w.RequestedAt, _ = time.Parse(time.RFC3339, requestedAt)
		if processedAt.Valid {
			t, _ := time.Parse(time.RFC3339, processedAt.String)
			w.ProcessedAt = &t
		}
		if processedBy.Valid {
			id := core.MemberID(processedBy.String)
			w.ProcessedBy = &id
		}
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, rows.Err()
}

func (q queries) getWithdrawal(ctx context.Context, id core.WithdrawalID) (*core.WithdrawalRequest, error) {
	ws, err := q.queryWithdrawals(ctx, "SELECT "+withdrawalCols+" FROM withdrawals WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(ws) == 0 {
		return nil, nil
	}
	return &ws[0], nil
}

func (q queries) listWithdrawals(ctx context.Context) ([]core.WithdrawalRequest, error) {
	return q.queryWithdrawals(ctx, "SELECT "+withdrawalCols+" FROM withdrawals ORDER BY rowid")
}

func (q queries) listWithdrawalsByMember(ctx context.Context, id core.MemberID) ([]core.WithdrawalRequest, error) {
	return q.queryWithdrawals(ctx,
		"SELECT "+withdrawalCols+" FROM withdrawals WHERE member_id = ? ORDER BY rowid", id)
}

// --- notifications ---

func (q queries) appendNotification(ctx context.Context, n core.Notification) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO notifications (id, member_id, message, at, read) VALUES (?, ?, ?, ?, ?)",
		n.ID, n.MemberID, n.Message, n.At.UTC().Format(time.RFC3339), n.Read)
	return err
}

func (q queries) saveNotification(ctx context.Context, n core.Notification) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE notifications SET read = ? WHERE id = ? AND member_id = ?",
		n.Read, n.ID, n.MemberID)
	return err
}

func (q queries) listNotifications(ctx context.Context, memberID core.MemberID) ([]core.Notification, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id, member_id, message, at, read FROM notifications WHERE member_id = ? ORDER BY rowid",
		memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifs []core.Notification
	for rows.Next() {
		var n core.Notification
		var at string
		if err := rows.Scan(&n.ID, &n.MemberID, &n.Message, &at, &n.Read); err != nil {
			return nil, err
		}
		n.At, _ = time.Parse(time.RFC3339, at)
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}

func (q queries) deleteReadNotifications(ctx context.Context, memberID core.MemberID) error {
	_, err := q.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE member_id = ? AND read = 1", memberID)
	return err
}

// =============================================================================
// STORE METHODS (core.Store interface)
// =============================================================================

func (s *Store) GetMember(ctx context.Context, id core.MemberID) (*core.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.getMember(ctx, id)
}

func (s *Store) GetMemberByUsername(ctx context.Context, username string) (*core.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.getMemberByUsername(ctx, username)
}

func (s *Store) SaveMember(ctx context.Context, m core.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.saveMember(ctx, m)
}

func (s *Store) ListMembers(ctx context.Context) ([]core.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.listMembers(ctx)
}

func (s *Store) DeleteMember(ctx context.Context, id core.MemberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.deleteMember(ctx, id)
}

func (s *Store) GetCategory(ctx context.Context, id core.CategoryID) (*core.WasteCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.getCategory(ctx, id)
}

func (s *Store) SaveCategory(ctx context.Context, c core.WasteCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.saveCategory(ctx, c)
}

func (s *Store) ListCategories(ctx context.Context) ([]core.WasteCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.listCategories(ctx)
}

func (s *Store) DeleteCategory(ctx context.Context, id core.CategoryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.deleteCategory(ctx, id)
}

func (s *Store) AppendDeposit(ctx context.Context, d core.DepositTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.appendDeposit(ctx, d)
}

func (s *Store) ListDeposits(ctx context.Context) ([]core.DepositTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.listDeposits(ctx)
}

func (s *Store) ListDepositsByMember(ctx context.Context, id core.MemberID) ([]core.DepositTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.listDepositsByMember(ctx, id)
}

func (s *Store) AppendSale(ctx context.Context, sale core.WholesaleTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.appendSale(ctx, sale)
}

func (s *Store) GetSale(ctx context.Context, id core.SaleID) (*core.WholesaleTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.getSale(ctx, id)
}

func (s *Store) SaveSale(ctx context.Context, sale core.WholesaleTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.saveSale(ctx, sale)
}

func (s *Store) ListSales(ctx context.Context) ([]core.WholesaleTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.listSales(ctx)
}

func (s *Store) SaveWithdrawal(ctx context.Context, w core.WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.saveWithdrawal(ctx, w)
}

func (s *Store) GetWithdrawal(ctx context.Context, id core.WithdrawalID) (*core.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.getWithdrawal(ctx, id)
}

func (s *Store) ListWithdrawals(ctx context.Context) ([]core.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.listWithdrawals(ctx)
}

func (s *Store) ListWithdrawalsByMember(ctx context.Context, id core.MemberID) ([]core.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.listWithdrawalsByMember(ctx, id)
}

func (s *Store) AppendNotification(ctx context.Context, n core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.appendNotification(ctx, n)
}

func (s *Store) SaveNotification(ctx context.Context, n core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.saveNotification(ctx, n)
}

func (s *Store) ListNotifications(ctx context.Context, memberID core.MemberID) ([]core.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.listNotifications(ctx, memberID)
}

func (s *Store) DeleteReadNotifications(ctx context.Context, memberID core.MemberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.deleteReadNotifications(ctx, memberID)
}

// =============================================================================
// TRANSACTIONAL STORE (core.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction while holding the write
// lock. If fn returns an error, the transaction is rolled back.
func (s *Store) WithTx(ctx context.Context, fn func(core.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{q: queries{db: sqlTx}}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore routes every call through the open *sql.Tx. No locking here: the
// parent holds the write lock for the duration of WithTx.
type txStore struct {
	q queries
}

func (t *txStore) GetMember(ctx context.Context, id core.MemberID) (*core.Member, error) {
	return t.q.getMember(ctx, id)
}

func (t *txStore) GetMemberByUsername(ctx context.Context, username string) (*core.Member, error) {
	return t.q.getMemberByUsername(ctx, username)
}

func (t *txStore) SaveMember(ctx context.Context, m core.Member) error {
	return t.q.saveMember(ctx, m)
}

func (t *txStore) ListMembers(ctx context.Context) ([]core.Member, error) {
	return t.q.listMembers(ctx)
}

func (t *txStore) DeleteMember(ctx context.Context, id core.MemberID) error {
	return t.q.deleteMember(ctx, id)
}

func (t *txStore) GetCategory(ctx context.Context, id core.CategoryID) (*core.WasteCategory, error) {
	return t.q.getCategory(ctx, id)
}

func (t *txStore) SaveCategory(ctx context.Context, c core.WasteCategory) error {
	return t.q.saveCategory(ctx, c)
}

func (t *txStore) ListCategories(ctx context.Context) ([]core.WasteCategory, error) {
	return t.q.listCategories(ctx)
}

func (t *txStore) DeleteCategory(ctx context.Context, id core.CategoryID) error {
	return t.q.deleteCategory(ctx, id)
}

func (t *txStore) AppendDeposit(ctx context.Context, d core.DepositTransaction) error {
	return t.q.appendDeposit(ctx, d)
}

func (t *txStore) ListDeposits(ctx context.Context) ([]core.DepositTransaction, error) {
	return t.q.listDeposits(ctx)
}

func (t *txStore) ListDepositsByMember(ctx context.Context, id core.MemberID) ([]core.DepositTransaction, error) {
	return t.q.listDepositsByMember(ctx, id)
}

func (t *txStore) AppendSale(ctx context.Context, s core.WholesaleTransaction) error {
	return t.q.appendSale(ctx, s)
}

func (t *txStore) GetSale(ctx context.Context, id core.SaleID) (*core.WholesaleTransaction, error) {
	return t.q.getSale(ctx, id)
}

func (t *txStore) SaveSale(ctx context.Context, s core.WholesaleTransaction) error {
	return t.q.saveSale(ctx, s)
}

func (t *txStore) ListSales(ctx context.Context) ([]core.WholesaleTransaction, error) {
	return t.q.listSales(ctx)
}

func (t *txStore) SaveWithdrawal(ctx context.Context, w core.WithdrawalRequest) error {
	return t.q.saveWithdrawal(ctx, w)
}

func (t *txStore) GetWithdrawal(ctx context.Context, id core.WithdrawalID) (*core.WithdrawalRequest, error) {
	return t.q.getWithdrawal(ctx, id)
}

func (t *txStore) ListWithdrawals(ctx context.Context) ([]core.WithdrawalRequest, error) {
	return t.q.listWithdrawals(ctx)
}

func (t *txStore) ListWithdrawalsByMember(ctx context.Context, id core.MemberID) ([]core.WithdrawalRequest, error) {
	return t.q.listWithdrawalsByMember(ctx, id)
}

func (t *txStore) AppendNotification(ctx context.Context, n core.Notification) error {
	return t.q.appendNotification(ctx, n)
}

func (t *txStore) SaveNotification(ctx context.Context, n core.Notification) error {
	return t.q.saveNotification(ctx, n)
}

func (t *txStore) ListNotifications(ctx context.Context, memberID core.MemberID) ([]core.Notification, error) {
	return t.q.listNotifications(ctx, memberID)
}

func (t *txStore) DeleteReadNotifications(ctx context.Context, memberID core.MemberID) error {
	return t.q.deleteReadNotifications(ctx, memberID)
}

// =============================================================================
// HELPERS
// =============================================================================

func parseWeight(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
