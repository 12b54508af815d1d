/*
ledger.go - The ledger & inventory reconciliation engine

PURPOSE:
  The Engine is the ONLY mutation path for balances, sales, and withdrawal
  state. Every mutating operation runs inside a single store transaction:
  deposit creation, balance increment, and notification append commit as one
  atomic unit, and no observer ever sees one without the others.

DERIVED STOCK:
  Available stock per category is never stored. It is always
      sum(deposit weight) - sum(PAID sale weight)
  for that category. PENDING and CANCELLED sales do not reduce stock, so
  stock is not locked merely by creating a pending sale. The invariant
  (weight <= available) is enforced at sale creation AND re-validated when a
  sale transitions to PAID, so availability can never be driven negative by
  two pending sales racing to confirmation.

BANK CASH:
  bankCash = sum(PAID sale totals) - sum(APPROVED withdrawal amounts).
  Wholesale proceeds accrue here, never to member balances.

SEE ALSO:
  - withdrawal.go: The withdrawal-request state machine
  - notify.go: Inbox writes performed inside engine transactions
  - store.go: Transaction discipline
*/
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMinimumWithdrawal is the minimum payout a member may request.
const DefaultMinimumWithdrawal Money = 10000

// =============================================================================
// ENGINE
// =============================================================================

// Engine applies deposits, executes wholesale sales against derived stock,
// and runs the withdrawal approval workflow. Constructed once at process
// start with an explicit store handle; there are no ambient singletons.
type Engine struct {
	store         TxStore
	now           func() time.Time
	minWithdrawal Money
}

type Option func(*Engine)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMinimumWithdrawal overrides the minimum withdrawal policy amount.
func WithMinimumWithdrawal(m Money) Option {
	return func(e *Engine) { e.minWithdrawal = m }
}

func NewEngine(store TxStore, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		now:           time.Now,
		minWithdrawal: DefaultMinimumWithdrawal,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store exposes the underlying store for read-only callers (API listings).
func (e *Engine) Store() TxStore { return e.store }

// =============================================================================
// DEPOSITS
// =============================================================================

// RecordDeposit creates an immutable deposit transaction, increments the
// member's balance by weight x price snapshot, and notifies the member.
// All three effects commit atomically or not at all.
func (e *Engine) RecordDeposit(ctx context.Context, memberID MemberID, categoryID CategoryID, operatorID MemberID, weight Weight) (*DepositTransaction, error) {
	if !weight.IsPositive() {
		return nil, fmt.Errorf("deposit weight must be positive: %w", ErrInvalidInput)
	}

	var deposit *DepositTransaction
	err := e.store.WithTx(ctx, func(s Store) error {
		member, err := s.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return fmt.Errorf("member %s: %w", memberID, ErrNotFound)
		}

		cat, err := s.GetCategory(ctx, categoryID)
		if err != nil {
			return err
		}
		if cat == nil {
			return fmt.Errorf("category %s: %w", categoryID, ErrNotFound)
		}

		now := e.now()
		d := DepositTransaction{
			ID:                 DepositID(NewID("dep")),
			MemberID:           memberID,
			OperatorID:         operatorID,
			CategoryID:         cat.ID,
			CategoryName:       cat.Name,
			Weight:             weight,
			PricePerKgSnapshot: cat.PricePerKg,
			TotalAmount:        DepositValue(weight, cat.PricePerKg),
			RecordedAt:         now,
		}

		if err := s.AppendDeposit(ctx, d); err != nil {
			return err
		}

		member.Balance += d.TotalAmount
		if err := s.SaveMember(ctx, *member); err != nil {
			return err
		}

		msg := fmt.Sprintf("Your balance has been updated: deposit of %q (%s kg) credited %d.",
			d.CategoryName, d.Weight.String(), d.TotalAmount)
		if err := e.notify(ctx, s, memberID, msg); err != nil {
			return err
		}

		deposit = &d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deposit, nil
}

// Deposits returns the full deposit history, oldest first.
func (e *Engine) Deposits(ctx context.Context) ([]DepositTransaction, error) {
	return e.store.ListDeposits(ctx)
}

// DepositsByMember returns one member's deposit history.
func (e *Engine) DepositsByMember(ctx context.Context, memberID MemberID) ([]DepositTransaction, error) {
	return e.store.ListDepositsByMember(ctx, memberID)
}

// =============================================================================
// DERIVED STOCK
// =============================================================================

// availableByCategory computes collected and PAID-sold weight per category
// from a consistent snapshot of the deposit and sale histories.
func availableByCategory(deposits []DepositTransaction, sales []WholesaleTransaction) (collected, sold map[CategoryID]Weight) {
	collected = make(map[CategoryID]Weight)
	sold = make(map[CategoryID]Weight)
	for _, d := range deposits {
		collected[d.CategoryID] = collected[d.CategoryID].Add(d.Weight)
	}
	for _, s := range sales {
		if s.PaymentStatus == PaymentPaid {
			sold[s.CategoryID] = sold[s.CategoryID].Add(s.Weight)
		}
	}
	return collected, sold
}

func availableFor(ctx context.Context, s Store, categoryID CategoryID) (Weight, error) {
	deposits, err := s.ListDeposits(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	sales, err := s.ListSales(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	collected, sold := availableByCategory(deposits, sales)
	return collected[categoryID].Sub(sold[categoryID]), nil
}

// AvailableStock returns the derived stock level for every known category,
// with the suggested wholesale price (member price x 1.10).
func (e *Engine) AvailableStock(ctx context.Context) ([]StockLevel, error) {
	cats, err := e.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	deposits, err := e.store.ListDeposits(ctx)
	if err != nil {
		return nil, err
	}
	sales, err := e.store.ListSales(ctx)
	if err != nil {
		return nil, err
	}

	collected, sold := availableByCategory(deposits, sales)

	levels := make([]StockLevel, 0, len(cats))
	for _, cat := range cats {
		available := collected[cat.ID].Sub(sold[cat.ID])
		levels = append(levels, StockLevel{
			CategoryID:              cat.ID,
			Name:                    cat.Name,
			MemberPricePerKg:        cat.PricePerKg,
			Collected:               collected[cat.ID],
			SoldPaid:                sold[cat.ID],
			Available:               decimal.Max(decimal.Zero, available),
			SuggestedWholesalePrice: DefaultWholesalePrice(cat.PricePerKg),
		})
	}
	return levels, nil
}

// StockValuationReport values the stock on hand at current member prices.
func (e *Engine) StockValuationReport(ctx context.Context) ([]StockValuation, error) {
	levels, err := e.AvailableStock(ctx)
	if err != nil {
		return nil, err
	}
	report := make([]StockValuation, 0, len(levels))
	for _, lv := range levels {
		report = append(report, StockValuation{
			StockLevel: lv,
			AssetValue: DepositValue(lv.Available, lv.MemberPricePerKg),
		})
	}
	return report, nil
}

// =============================================================================
// WHOLESALE SALES
// =============================================================================

// SellToWholesaler records a sale of aggregated stock in PENDING status.
// unitPrice == 0 selects the default wholesale price (member price x 1.10);
// a negative unitPrice is invalid. The sale weight must not exceed the stock
// available at call time.
func (e *Engine) SellToWholesaler(ctx context.Context, categoryID CategoryID, weight Weight, unitPrice Money, operatorID MemberID) (*WholesaleTransaction, error) {
	if !weight.IsPositive() {
		return nil, fmt.Errorf("sale weight must be positive: %w", ErrInvalidInput)
	}
	if unitPrice < 0 {
		return nil, fmt.Errorf("wholesale price must be positive: %w", ErrInvalidInput)
	}

	var sale *WholesaleTransaction
	err := e.store.WithTx(ctx, func(s Store) error {
		cat, err := s.GetCategory(ctx, categoryID)
		if err != nil {
			return err
		}
		if cat == nil {
			return fmt.Errorf("category %s: %w", categoryID, ErrNotFound)
		}

		available, err := availableFor(ctx, s, categoryID)
		if err != nil {
			return err
		}
		if weight.GreaterThan(available) {
			return &InsufficientStockError{CategoryID: categoryID, Available: available, Requested: weight}
		}

		price := unitPrice
		if price == 0 {
			price = DefaultWholesalePrice(cat.PricePerKg)
		}

		tx := WholesaleTransaction{
			ID:                  SaleID(NewID("off")),
			CategoryID:          cat.ID,
			CategoryName:        cat.Name,
			Weight:              weight,
			MemberPricePerKg:    cat.PricePerKg,
			WholesalePricePerKg: price,
			TotalAmount:         SaleValue(weight, price),
			PaymentStatus:       PaymentPending,
			OperatorID:          operatorID,
			RecordedAt:          e.now(),
		}
		if err := s.AppendSale(ctx, tx); err != nil {
			return err
		}
		sale = &tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// SetWholesalePaymentStatus transitions a sale PENDING -> PAID or
// PENDING -> CANCELLED. Terminal states are immutable. The PAID transition
// re-validates availability: a pending sale does not hold stock, so another
// sale confirmed in the meantime may have consumed it.
func (e *Engine) SetWholesalePaymentStatus(ctx context.Context, saleID SaleID, status PaymentStatus) (*WholesaleTransaction, error) {
	if status != PaymentPaid && status != PaymentCancelled {
		return nil, fmt.Errorf("payment status must be PAID or CANCELLED: %w", ErrInvalidInput)
	}

	var updated *WholesaleTransaction
	err := e.store.WithTx(ctx, func(s Store) error {
		sale, err := s.GetSale(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return fmt.Errorf("sale %s: %w", saleID, ErrNotFound)
		}
		if sale.PaymentStatus.Terminal() {
			return &InvalidTransitionError{ID: string(saleID), From: string(sale.PaymentStatus), To: string(status)}
		}

		if status == PaymentPaid {
			// This sale is still PENDING, so it is not counted in available.
			available, err := availableFor(ctx, s, sale.CategoryID)
			if err != nil {
				return err
			}
			if sale.Weight.GreaterThan(available) {
				return &InsufficientStockError{CategoryID: sale.CategoryID, Available: available, Requested: sale.Weight}
			}
		}

		sale.PaymentStatus = status
		if err := s.SaveSale(ctx, *sale); err != nil {
			return err
		}
		updated = sale
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Sales returns the wholesale sale history, oldest first.
func (e *Engine) Sales(ctx context.Context) ([]WholesaleTransaction, error) {
	return e.store.ListSales(ctx)
}

// =============================================================================
// BANK CASH
// =============================================================================

// BankCash is the aggregate operator-controlled cash position:
// confirmed wholesale revenue minus approved withdrawals.
func (e *Engine) BankCash(ctx context.Context) (Money, error) {
	sales, err := e.store.ListSales(ctx)
	if err != nil {
		return 0, err
	}
	withdrawals, err := e.store.ListWithdrawals(ctx)
	if err != nil {
		return 0, err
	}

	var cash Money
	for _, s := range sales {
		if s.PaymentStatus == PaymentPaid {
			cash += s.TotalAmount
		}
	}
	for _, w := range withdrawals {
		if w.Status == WithdrawalApproved {
			cash -= w.Amount
		}
	}
	return cash, nil
}
