/*
Package core provides the waste-bank ledger and inventory engine.

PURPOSE:
  This package contains the entity model and the operations that keep member
  balances, withdrawal requests, wholesale sales, and derived stock-on-hand
  figures mutually consistent. Deposits increase balances, wholesale sales
  consume derived stock, and withdrawals move through an operator-adjudicated
  approval workflow.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: Integer currency units (smallest unit, no fractions)
  - Weight: decimal.Decimal kilograms (avoids floating-point drift)
  - Member, WasteCategory: Mutable master records
  - DepositTransaction, WholesaleTransaction, WithdrawalRequest: Ledger records
  - Notification: Per-member inbox entry

DESIGN PRINCIPLES:
  1. Snapshot-on-write: Transactions copy the category name and price at
     creation time, so history stays meaningful after edits/deletes.
  2. Precision: Weights and price arithmetic use decimal.Decimal; currency
     amounts are rounded once, at creation, never recomputed.
  3. Type Safety: Strong typing for IDs prevents mixing member/category IDs.
  4. Derived aggregates: Stock and bank cash are computed from history, not
     stored.

SEE ALSO:
  - ledger.go: The engine mutating balances, sales, and withdrawals
  - catalog.go: Waste-category CRUD
  - store.go: Persistence interface
*/
package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY & WEIGHT
// =============================================================================

// Money is an amount in the smallest currency unit (whole rupiah).
// Balances never go negative; the engine enforces this.
type Money int64

// Weight is a quantity in kilograms.
type Weight = decimal.Decimal

// DepositValue computes the payout for a deposit: weight x price per kg,
// rounded to the nearest currency unit. Computed once at deposit time.
func DepositValue(weight Weight, pricePerKg Money) Money {
	v := weight.Mul(decimal.NewFromInt(int64(pricePerKg)))
	return Money(v.Round(0).IntPart())
}

// wholesaleMarkup is the default margin over the member price for wholesale
// sales (member price x 1.10).
var wholesaleMarkup = decimal.NewFromFloat(1.10)

// DefaultWholesalePrice returns the suggested wholesale price per kg:
// member price plus the standard markup, rounded to the nearest unit.
func DefaultWholesalePrice(memberPricePerKg Money) Money {
	v := decimal.NewFromInt(int64(memberPricePerKg)).Mul(wholesaleMarkup)
	return Money(v.Round(0).IntPart())
}

// SaleValue computes the total for a wholesale sale.
func SaleValue(weight Weight, wholesalePricePerKg Money) Money {
	v := weight.Mul(decimal.NewFromInt(int64(wholesalePricePerKg)))
	return Money(v.Round(0).IntPart())
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type MemberID string
type CategoryID string
type DepositID string
type SaleID string
type WithdrawalID string
type NotificationID string

// NewID mints a prefixed unique identifier, e.g. "dep-5f2c...".
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// =============================================================================
// MEMBER
// =============================================================================

type Role string

const (
	RoleOperator Role = "OPERATOR"
	RoleMember   Role = "MEMBER"
)

// Member is an account holder. Balance is mutated exclusively by the Engine.
// Notifications are stored in their own collection, keyed by member ID.
type Member struct {
	ID       MemberID
	Username string
	FullName string
	Password string
	Role     Role
	Balance  Money
	JoinedAt time.Time
}

// =============================================================================
// WASTE CATEGORY
// =============================================================================

// WasteCategory defines a recyclable type and its member-facing price.
// Price changes never alter historical transactions; every transaction
// carries its own price snapshot.
type WasteCategory struct {
	ID         CategoryID
	Name       string
	PricePerKg Money
	Group      string
}

// =============================================================================
// DEPOSIT TRANSACTION - Immutable once created
// =============================================================================

// DepositTransaction records a member's waste contribution.
// Invariant: TotalAmount == DepositValue(Weight, PricePerKgSnapshot).
type DepositTransaction struct {
	ID                 DepositID
	MemberID           MemberID
	OperatorID         MemberID
	CategoryID         CategoryID
	CategoryName       string // snapshot, survives category deletion
	Weight             Weight
	PricePerKgSnapshot Money
	TotalAmount        Money
	RecordedAt         time.Time
}

// =============================================================================
// WHOLESALE TRANSACTION
// =============================================================================

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// Terminal reports whether the status can no longer change.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentPaid || s == PaymentCancelled
}

// WholesaleTransaction records a sale of aggregated stock to an external
// buyer. Immutable except for PaymentStatus; only PAID sales reduce
// available stock. Proceeds accrue to bank cash, not to member balances.
type WholesaleTransaction struct {
	ID                  SaleID
	CategoryID          CategoryID
	CategoryName        string // snapshot
	Weight              Weight
	MemberPricePerKg    Money // member-facing price at sale time
	WholesalePricePerKg Money // defaults to member price x 1.10
	TotalAmount         Money
	PaymentStatus       PaymentStatus
	OperatorID          MemberID
	RecordedAt          time.Time
}

// =============================================================================
// WITHDRAWAL REQUEST
// =============================================================================

type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "PENDING"
	WithdrawalApproved WithdrawalStatus = "APPROVED"
	WithdrawalRejected WithdrawalStatus = "REJECTED"
)

func (s WithdrawalStatus) Terminal() bool {
	return s == WithdrawalApproved || s == WithdrawalRejected
}

// WithdrawalRequest is a member-initiated balance payout. Balance is NOT
// reserved at request time; deduction happens at approval, with a
// re-validation safeguard so approval never drives a balance negative.
type WithdrawalRequest struct {
	ID          WithdrawalID
	MemberID    MemberID
	Amount      Money
	Status      WithdrawalStatus
	RequestedAt time.Time
	ProcessedAt *time.Time
	ProcessedBy *MemberID
}

// =============================================================================
// NOTIFICATION
// =============================================================================

// Notification is a human-readable event record in a member's inbox.
// Appended by the Engine on balance-affecting actions; mutated (read flag,
// bulk removal of read items) only on behalf of the owning member.
type Notification struct {
	ID       NotificationID
	MemberID MemberID
	Message  string
	At       time.Time
	Read     bool
}

// =============================================================================
// DERIVED AGGREGATES - Read models computed from history
// =============================================================================

// StockLevel is the derived availability for one category:
// collected minus confirmed-sold (PAID sales only).
type StockLevel struct {
	CategoryID              CategoryID
	Name                    string
	MemberPricePerKg        Money
	Collected               Weight
	SoldPaid                Weight
	Available               Weight
	SuggestedWholesalePrice Money
}

// StockValuation extends StockLevel with the asset value of stock on hand
// at the current member price.
type StockValuation struct {
	StockLevel
	AssetValue Money
}
