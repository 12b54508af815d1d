// Package memory provides an in-memory core.TxStore for tests and dev.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/ecovault/bank-engine/core"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Store keeps every collection in ordered slices/maps guarded by one lock.
// WithTx snapshots the whole state and restores it when the callback fails,
// giving the same all-or-nothing semantics as the SQLite store.
type Store struct {
	mu sync.RWMutex
	st state
}

type state struct {
	members       map[core.MemberID]core.Member
	memberOrder   []core.MemberID
	categories    map[core.CategoryID]core.WasteCategory
	categoryOrder []core.CategoryID
	deposits      []core.DepositTransaction
	sales         []core.WholesaleTransaction
	withdrawals   []core.WithdrawalRequest
	notifications map[core.MemberID][]core.Notification
}

func New() *Store {
	return &Store{st: state{
		members:       make(map[core.MemberID]core.Member),
		categories:    make(map[core.CategoryID]core.WasteCategory),
		notifications: make(map[core.MemberID][]core.Notification),
	}}
}

func (s *state) clone() state {
	c := state{
		members:       make(map[core.MemberID]core.Member, len(s.members)),
		memberOrder:   append([]core.MemberID(nil), s.memberOrder...),
		categories:    make(map[core.CategoryID]core.WasteCategory, len(s.categories)),
		categoryOrder: append([]core.CategoryID(nil), s.categoryOrder...),
		deposits:      append([]core.DepositTransaction(nil), s.deposits...),
		sales:         append([]core.WholesaleTransaction(nil), s.sales...),
		withdrawals:   append([]core.WithdrawalRequest(nil), s.withdrawals...),
		notifications: make(map[core.MemberID][]core.Notification, len(s.notifications)),
	}
	for id, m := range s.members {
		c.members[id] = m
	}
	for id, cat := range s.categories {
		c.categories[id] = cat
	}
	for id, ns := range s.notifications {
		c.notifications[id] = append([]core.Notification(nil), ns...)
	}
	return c
}

// =============================================================================
// MEMBERS
// =============================================================================

func (s *state) getMember(id core.MemberID) *core.Member {
	if m, ok := s.members[id]; ok {
		return &m
	}
	return nil
}

func (s *state) getMemberByUsername(username string) *core.Member {
	for _, id := range s.memberOrder {
		m := s.members[id]
		if strings.EqualFold(m.Username, username) {
			return &m
		}
	}
	return nil
}

func (s *state) saveMember(m core.Member) {
	if _, ok := s.members[m.ID]; !ok {
		s.memberOrder = append(s.memberOrder, m.ID)
	}
	s.members[m.ID] = m
}

func (s *state) listMembers() []core.Member {
	out := make([]core.Member, 0, len(s.memberOrder))
	for _, id := range s.memberOrder {
		out = append(out, s.members[id])
	}
	return out
}

func (s *state) deleteMember(id core.MemberID) {
	if _, ok := s.members[id]; !ok {
		return
	}
	delete(s.members, id)
	for i, mid := range s.memberOrder {
		if mid == id {
			s.memberOrder = append(s.memberOrder[:i], s.memberOrder[i+1:]...)
			break
		}
	}
}

func (m *Store) GetMember(_ context.Context, id core.MemberID) (*core.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getMember(id), nil
}

func (m *Store) GetMemberByUsername(_ context.Context, username string) (*core.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getMemberByUsername(username), nil
}

func (m *Store) SaveMember(_ context.Context, member core.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.saveMember(member)
	return nil
}

func (m *Store) ListMembers(_ context.Context) ([]core.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.listMembers(), nil
}

func (m *Store) DeleteMember(_ context.Context, id core.MemberID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.deleteMember(id)
	return nil
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (s *state) getCategory(id core.CategoryID) *core.WasteCategory {
	if c, ok := s.categories[id]; ok {
		return &c
	}
	return nil
}

func (s *state) saveCategory(c core.WasteCategory) {
	if _, ok := s.categories[c.ID]; !ok {
		s.categoryOrder = append(s.categoryOrder, c.ID)
	}
	s.categories[c.ID] = c
}

func (s *state) listCategories() []core.WasteCategory {
	out := make([]core.WasteCategory, 0, len(s.categoryOrder))
	for _, id := range s.categoryOrder {
		out = append(out, s.categories[id])
	}
	return out
}

func (s *state) deleteCategory(id core.CategoryID) {
	if _, ok := s.categories[id]; !ok {
		return
	}
	delete(s.categories, id)
	for i, cid := range s.categoryOrder {
		if cid == id {
			s.categoryOrder = append(s.categoryOrder[:i], s.categoryOrder[i+1:]...)
			break
		}
	}
}

func (m *Store) GetCategory(_ context.Context, id core.CategoryID) (*core.WasteCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getCategory(id), nil
}

func (m *Store) SaveCategory(_ context.Context, c core.WasteCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.saveCategory(c)
	return nil
}

func (m *Store) ListCategories(_ context.Context) ([]core.WasteCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.listCategories(), nil
}

func (m *Store) DeleteCategory(_ context.Context, id core.CategoryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.deleteCategory(id)
	return nil
}

// =============================================================================
// DEPOSITS
// =============================================================================

func (m *Store) AppendDeposit(_ context.Context, d core.DepositTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.deposits = append(m.st.deposits, d)
	return nil
}

func (m *Store) ListDeposits(_ context.Context) ([]core.DepositTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]core.DepositTransaction(nil), m.st.deposits...), nil
}

func (m *Store) ListDepositsByMember(_ context.Context, id core.MemberID) ([]core.DepositTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.DepositTransaction
	for _, d := range m.st.deposits {
		if d.MemberID == id {
			out = append(out, d)
		}
	}
	return out, nil
}

// =============================================================================
// WHOLESALE SALES
// =============================================================================

func (s *state) getSale(id core.SaleID) *core.WholesaleTransaction {
	for _, sale := range s.sales {
		if sale.ID == id {
			out := sale
			return &out
		}
	}
	return nil
}

func (s *state) saveSale(sale core.WholesaleTransaction) {
	for i := range s.sales {
		if s.sales[i].ID == sale.ID {
			s.sales[i] = sale
			return
		}
	}
	s.sales = append(s.sales, sale)
}

func (m *Store) AppendSale(_ context.Context, sale core.WholesaleTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.sales = append(m.st.sales, sale)
	return nil
}

func (m *Store) GetSale(_ context.Context, id core.SaleID) (*core.WholesaleTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getSale(id), nil
}

func (m *Store) SaveSale(_ context.Context, sale core.WholesaleTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.saveSale(sale)
	return nil
}

func (m *Store) ListSales(_ context.Context) ([]core.WholesaleTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]core.WholesaleTransaction(nil), m.st.sales...), nil
}

// =============================================================================
// WITHDRAWALS
// =============================================================================

func (s *state) getWithdrawal(id core.WithdrawalID) *core.WithdrawalRequest {
	for _, w := range s.withdrawals {
		if w.ID == id {
			out := w
			return &out
		}
	}
	return nil
}

func (s *state) saveWithdrawal(w core.WithdrawalRequest) {
	for i := range s.withdrawals {
		if s.withdrawals[i].ID == w.ID {
			s.withdrawals[i] = w
			return
		}
	}
	s.withdrawals = append(s.withdrawals, w)
}

func (m *Store) SaveWithdrawal(_ context.Context, w core.WithdrawalRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.saveWithdrawal(w)
	return nil
}

func (m *Store) GetWithdrawal(_ context.Context, id core.WithdrawalID) (*core.WithdrawalRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getWithdrawal(id), nil
}

func (m *Store) ListWithdrawals(_ context.Context) ([]core.WithdrawalRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]core.WithdrawalRequest(nil), m.st.withdrawals...), nil
}

func (m *Store) ListWithdrawalsByMember(_ context.Context, id core.MemberID) ([]core.WithdrawalRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.WithdrawalRequest
	for _, w := range m.st.withdrawals {
		if w.MemberID == id {
			out = append(out, w)
		}
	}
	return out, nil
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

func (s *state) saveNotification(n core.Notification) {
	ns := s.notifications[n.MemberID]
	for i := range ns {
		if ns[i].ID == n.ID {
			ns[i] = n
			return
		}
	}
	s.notifications[n.MemberID] = append(ns, n)
}

func (s *state) deleteReadNotifications(memberID core.MemberID) {
	ns := s.notifications[memberID]
	kept := ns[:0]
	for _, n := range ns {
		if !n.Read {
			kept = append(kept, n)
		}
	}
	s.notifications[memberID] = append([]core.Notification(nil), kept...)
}

func (m *Store) AppendNotification(_ context.Context, n core.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.notifications[n.MemberID] = append(m.st.notifications[n.MemberID], n)
	return nil
}

func (m *Store) SaveNotification(_ context.Context, n core.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.saveNotification(n)
	return nil
}

func (m *Store) ListNotifications(_ context.Context, memberID core.MemberID) ([]core.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]core.Notification(nil), m.st.notifications[memberID]...), nil
}

func (m *Store) DeleteReadNotifications(_ context.Context, memberID core.MemberID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.deleteReadNotifications(memberID)
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx runs fn against a view of the store while holding the write lock.
// On error, the pre-transaction snapshot is restored, so a failed fn leaves
// no partial writes behind.
func (m *Store) WithTx(ctx context.Context, fn func(core.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.st.clone()
	if err := fn(&txView{st: &m.st}); err != nil {
		m.st = snapshot
		return err
	}
	return nil
}

// txView operates on the live state without re-locking (the parent holds
// the write lock for the duration of WithTx).
type txView struct {
	st *state
}

func (v *txView) GetMember(_ context.Context, id core.MemberID) (*core.Member, error) {
	return v.st.getMember(id), nil
}

func (v *txView) GetMemberByUsername(_ context.Context, username string) (*core.Member, error) {
	return v.st.getMemberByUsername(username), nil
}

func (v *txView) SaveMember(_ context.Context, m core.Member) error {
	v.st.saveMember(m)
	return nil
}

func (v *txView) ListMembers(_ context.Context) ([]core.Member, error) {
	return v.st.listMembers(), nil
}

func (v *txView) DeleteMember(_ context.Context, id core.MemberID) error {
	v.st.deleteMember(id)
	return nil
}

func (v *txView) GetCategory(_ context.Context, id core.CategoryID) (*core.WasteCategory, error) {
	return v.st.getCategory(id), nil
}

func (v *txView) SaveCategory(_ context.Context, c core.WasteCategory) error {
	v.st.saveCategory(c)
	return nil
}

func (v *txView) ListCategories(_ context.Context) ([]core.WasteCategory, error) {
	return v.st.listCategories(), nil
}

func (v *txView) DeleteCategory(_ context.Context, id core.CategoryID) error {
	v.st.deleteCategory(id)
	return nil
}

func (v *txView) AppendDeposit(_ context.Context, d core.DepositTransaction) error {
	v.st.deposits = append(v.st.deposits, d)
	return nil
}

func (v *txView) ListDeposits(_ context.Context) ([]core.DepositTransaction, error) {
	return append([]core.DepositTransaction(nil), v.st.deposits...), nil
}

func (v *txView) ListDepositsByMember(_ context.Context, id core.MemberID) ([]core.DepositTransaction, error) {
	var out []core.DepositTransaction
	for _, d := range v.st.deposits {
		if d.MemberID == id {
			out = append(out, d)
		}
	}
	return out, nil
}

func (v *txView) AppendSale(_ context.Context, s core.WholesaleTransaction) error {
	v.st.sales = append(v.st.sales, s)
	return nil
}

func (v *txView) GetSale(_ context.Context, id core.SaleID) (*core.WholesaleTransaction, error) {
	return v.st.getSale(id), nil
}

func (v *txView) SaveSale(_ context.Context, s core.WholesaleTransaction) error {
	v.st.saveSale(s)
	return nil
}

func (v *txView) ListSales(_ context.Context) ([]core.WholesaleTransaction, error) {
	return append([]core.WholesaleTransaction(nil), v.st.sales...), nil
}

func (v *txView) SaveWithdrawal(_ context.Context, w core.WithdrawalRequest) error {
	v.st.saveWithdrawal(w)
	return nil
}

func (v *txView) GetWithdrawal(_ context.Context, id core.WithdrawalID) (*core.WithdrawalRequest, error) {
	return v.st.getWithdrawal(id), nil
}

func (v *txView) ListWithdrawals(_ context.Context) ([]core.WithdrawalRequest, error) {
	return append([]core.WithdrawalRequest(nil), v.st.withdrawals...), nil
}

func (v *txView) ListWithdrawalsByMember(_ context.Context, id core.MemberID) ([]core.WithdrawalRequest, error) {
	var out []core.WithdrawalRequest
	for _, w := range v.st.withdrawals {
		if w.MemberID == id {
			out = append(out, w)
		}
	}
	return out, nil
}

func (v *txView) AppendNotification(_ context.Context, n core.Notification) error {
	v.st.notifications[n.MemberID] = append(v.st.notifications[n.MemberID], n)
	return nil
}

func (v *txView) SaveNotification(_ context.Context, n core.Notification) error {
	v.st.saveNotification(n)
	return nil
}

func (v *txView) ListNotifications(_ context.Context, memberID core.MemberID) ([]core.Notification, error) {
	return append([]core.Notification(nil), v.st.notifications[memberID]...), nil
}

func (v *txView) DeleteReadNotifications(_ context.Context, memberID core.MemberID) error {
	v.st.deleteReadNotifications(memberID)
	return nil
}
