/*
withdrawal.go - Withdrawal-request state machine

PURPOSE:
  Handles the member-initiated, operator-adjudicated payout workflow:

      PENDING ──▶ APPROVED   (balance deducted here)
         │
         └─────▶ REJECTED   (no balance effect)

  Both outcomes are terminal; a request transitions out of PENDING at most
  once.

DEFERRED DEDUCTION:
  Balance is checked but NOT reserved at request time. A member can hold
  multiple pending requests that jointly over-commit their balance; the
  operator adjudicates without funds being locked. The cost of that choice
  is the re-validation at approval: if the balance has drifted below the
  requested amount (e.g. another request was approved first), approval
  auto-rejects instead of deducting into negative. Auto-reject is a designed
  outcome, not an error - the call succeeds with a REJECTED request and an
  explanatory notification.

SEE ALSO:
  - ledger.go: Engine construction, minimum-withdrawal policy
*/
package core

import (
	"context"
	"fmt"
)

// =============================================================================
// REQUEST CREATION
// =============================================================================

// RequestWithdrawal creates a PENDING withdrawal request. No balance is
// deducted or reserved; reconciliation happens at approval time.
func (e *Engine) RequestWithdrawal(ctx context.Context, memberID MemberID, amount Money) (*WithdrawalRequest, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("withdrawal amount must be positive: %w", ErrInvalidInput)
	}
	if amount < e.minWithdrawal {
		return nil, fmt.Errorf("minimum withdrawal is %d: %w", e.minWithdrawal, ErrBelowMinimum)
	}

	var request *WithdrawalRequest
	err := e.store.WithTx(ctx, func(s Store) error {
		member, err := s.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return fmt.Errorf("member %s: %w", memberID, ErrNotFound)
		}
		if member.Balance < amount {
			return &InsufficientBalanceError{MemberID: memberID, Balance: member.Balance, Requested: amount}
		}

		w := WithdrawalRequest{
			ID:          WithdrawalID(NewID("wd")),
			MemberID:    memberID,
			Amount:      amount,
			Status:      WithdrawalPending,
			RequestedAt: e.now(),
		}
		if err := s.SaveWithdrawal(ctx, w); err != nil {
			return err
		}
		request = &w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// =============================================================================
// ADJUDICATION
// =============================================================================

// ApproveWithdrawal deducts the requested amount and marks the request
// APPROVED. If the member's balance has dropped below the requested amount
// since the request was made, the request is auto-rejected instead and the
// member is notified; the returned request carries the REJECTED status and
// the call reports no error. Approval never drives a balance negative.
func (e *Engine) ApproveWithdrawal(ctx context.Context, requestID WithdrawalID, operatorID MemberID) (*WithdrawalRequest, error) {
	var request *WithdrawalRequest
	err := e.store.WithTx(ctx, func(s Store) error {
		w, err := s.GetWithdrawal(ctx, requestID)
		if err != nil {
			return err
		}
		if w == nil {
			return fmt.Errorf("withdrawal %s: %w", requestID, ErrNotFound)
		}
		if w.Status != WithdrawalPending {
			return &InvalidTransitionError{ID: string(requestID), From: string(w.Status), To: string(WithdrawalApproved)}
		}

		member, err := s.GetMember(ctx, w.MemberID)
		if err != nil {
			return err
		}
		if member == nil {
			return fmt.Errorf("member %s: %w", w.MemberID, ErrNotFound)
		}

		now := e.now()
		w.ProcessedAt = &now
		w.ProcessedBy = &operatorID

		// Balance may have drifted since the request was made. Never
		// deduct into negative: fall back to rejection with an
		// explanatory notification.
		if member.Balance < w.Amount {
			w.Status = WithdrawalRejected
			if err := s.SaveWithdrawal(ctx, *w); err != nil {
				return err
			}
			msg := fmt.Sprintf("Your withdrawal request of %d could NOT be approved: balance was insufficient at approval time.", w.Amount)
			if err := e.notify(ctx, s, w.MemberID, msg); err != nil {
				return err
			}
			request = w
			return nil
		}

		member.Balance -= w.Amount
		if err := s.SaveMember(ctx, *member); err != nil {
			return err
		}

		w.Status = WithdrawalApproved
		if err := s.SaveWithdrawal(ctx, *w); err != nil {
			return err
		}

		msg := fmt.Sprintf("Your withdrawal of %d has been APPROVED. The amount was deducted from your balance.", w.Amount)
		if err := e.notify(ctx, s, w.MemberID, msg); err != nil {
			return err
		}
		request = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// RejectWithdrawal marks a PENDING request REJECTED and notifies the
// member. No balance effect - nothing was ever deducted.
func (e *Engine) RejectWithdrawal(ctx context.Context, requestID WithdrawalID, operatorID MemberID) (*WithdrawalRequest, error) {
	var request *WithdrawalRequest
	err := e.store.WithTx(ctx, func(s Store) error {
		w, err := s.GetWithdrawal(ctx, requestID)
		if err != nil {
			return err
		}
		if w == nil {
			return fmt.Errorf("withdrawal %s: %w", requestID, ErrNotFound)
		}
		if w.Status != WithdrawalPending {
			return &InvalidTransitionError{ID: string(requestID), From: string(w.Status), To: string(WithdrawalRejected)}
		}

		now := e.now()
		w.Status = WithdrawalRejected
		w.ProcessedAt = &now
		w.ProcessedBy = &operatorID
		if err := s.SaveWithdrawal(ctx, *w); err != nil {
			return err
		}

		msg := fmt.Sprintf("Your withdrawal request of %d was REJECTED. Your balance is unchanged.", w.Amount)
		if err := e.notify(ctx, s, w.MemberID, msg); err != nil {
			return err
		}
		request = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// =============================================================================
// LISTINGS
// =============================================================================

// Withdrawals returns withdrawal requests, optionally filtered by status
// (empty status returns all), oldest first.
func (e *Engine) Withdrawals(ctx context.Context, status WithdrawalStatus) ([]WithdrawalRequest, error) {
	all, err := e.store.ListWithdrawals(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return all, nil
	}
	filtered := make([]WithdrawalRequest, 0, len(all))
	for _, w := range all {
		if w.Status == status {
			filtered = append(filtered, w)
		}
	}
	return filtered, nil
}

// WithdrawalsByMember returns one member's withdrawal history.
func (e *Engine) WithdrawalsByMember(ctx context.Context, memberID MemberID) ([]WithdrawalRequest, error) {
	return e.store.ListWithdrawalsByMember(ctx, memberID)
}
