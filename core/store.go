/*
store.go - Persistence interface for the entity collections

PURPOSE:
  Defines the interface between the engine and the database. The Store is a
  pure read/write primitive over the five entity collections (members,
  categories, deposits, wholesale sales, withdrawals) plus per-member
  notifications. No business rules live here.

COLLECTIONS:
  members, waste categories:  mutable master records (upsert semantics)
  deposits, wholesale sales:  append-mostly ordered lists
  withdrawals:                ordered list with in-place status updates
  notifications:              per-member ordered inbox

TRANSACTION DISCIPLINE:
  Every mutating engine operation runs inside TxStore.WithTx. Both
  implementations make WithTx exclusive against all other mutations, so a
  read-modify-write of a member balance can never interleave with another
  mutation of the same record. This is the single locking discipline shared
  by the catalog, the engine, and the notification sink.

NOT-FOUND CONVENTION:
  Get* methods return (nil, nil) when the id does not resolve. The engine
  maps that to ErrNotFound; the store never invents business errors.

IMPLEMENTATIONS:
  - store/sqlite: durable SQLite store (production)
  - store/memory: in-memory store (tests/dev)

SEE ALSO:
  - ledger.go: The engine driving these interfaces
  - seed.go: Default data loaded into an empty store
*/
package core

import "context"

// =============================================================================
// STORE - Typed read/write primitive over entity collections
// =============================================================================

type Store interface {
	// Members
	GetMember(ctx context.Context, id MemberID) (*Member, error)
	GetMemberByUsername(ctx context.Context, username string) (*Member, error)
	SaveMember(ctx context.Context, m Member) error
	ListMembers(ctx context.Context) ([]Member, error)
	DeleteMember(ctx context.Context, id MemberID) error

	// Waste categories
	GetCategory(ctx context.Context, id CategoryID) (*WasteCategory, error)
	SaveCategory(ctx context.Context, c WasteCategory) error
	ListCategories(ctx context.Context) ([]WasteCategory, error)
	DeleteCategory(ctx context.Context, id CategoryID) error

	// Deposits (append-only)
	AppendDeposit(ctx context.Context, d DepositTransaction) error
	ListDeposits(ctx context.Context) ([]DepositTransaction, error)
	ListDepositsByMember(ctx context.Context, id MemberID) ([]DepositTransaction, error)

	// Wholesale sales (append + payment-status update)
	AppendSale(ctx context.Context, s WholesaleTransaction) error
	GetSale(ctx context.Context, id SaleID) (*WholesaleTransaction, error)
	SaveSale(ctx context.Context, s WholesaleTransaction) error
	ListSales(ctx context.Context) ([]WholesaleTransaction, error)

	// Withdrawal requests
	SaveWithdrawal(ctx context.Context, w WithdrawalRequest) error
	GetWithdrawal(ctx context.Context, id WithdrawalID) (*WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context) ([]WithdrawalRequest, error)
	ListWithdrawalsByMember(ctx context.Context, id MemberID) ([]WithdrawalRequest, error)

	// Notifications (per-member inbox, original relative order preserved)
	AppendNotification(ctx context.Context, n Notification) error
	SaveNotification(ctx context.Context, n Notification) error
	ListNotifications(ctx context.Context, memberID MemberID) ([]Notification, error)
	DeleteReadNotifications(ctx context.Context, memberID MemberID) error
}

// =============================================================================
// TRANSACTIONAL STORE - Atomic multi-record operations
// =============================================================================

// TxStore wraps Store with transaction support.
//
// WithTx executes fn within an exclusive transaction: if fn returns an
// error, every write made inside it is rolled back; if fn returns nil, all
// writes commit together. An operation either fully commits or has no
// effect.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}
