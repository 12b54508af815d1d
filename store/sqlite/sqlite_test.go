package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecovault/bank-engine/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMemberRoundtrip(t *testing.T) {
	// GIVEN an empty store
	s := newTestStore(t)
	ctx := context.Background()

	// WHEN saving a member
	m := core.Member{
		ID:       "member-1",
		Username: "budi",
		FullName: "Budi Santoso",
		Password: "budi123",
		Role:     core.RoleMember,
		Balance:  15000,
		JoinedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveMember(ctx, m))

	// THEN lookups by id and username both find it
	got, err := s.GetMember(ctx, "member-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, m, *got)

	byName, err := s.GetMemberByUsername(ctx, "BUDI")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, core.MemberID("member-1"), byName.ID)

	// AND a missing member yields nil, nil
	missing, err := s.GetMember(ctx, "member-nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemberBalanceUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := core.Member{ID: "member-1", Username: "budi", FullName: "Budi", Password: "x",
		Role: core.RoleMember, JoinedAt: time.Now().UTC()}
	require.NoError(t, s.SaveMember(ctx, m))

	m.Balance = 30000
	require.NoError(t, s.SaveMember(ctx, m))

	got, err := s.GetMember(ctx, "member-1")
	require.NoError(t, err)
	assert.Equal(t, core.Money(30000), got.Balance)
}

func TestDepositPreservesWeightPrecision(t *testing.T) {
	// GIVEN a deposit with a fractional weight
	s := newTestStore(t)
	ctx := context.Background()

	d := core.DepositTransaction{
		ID:                 "dep-1",
		MemberID:           "member-1",
		OperatorID:         "operator-1",
		CategoryID:         "waste-pet",
		CategoryName:       "PET Plastic Bottles",
		Weight:             decimal.RequireFromString("2.75"),
		PricePerKgSnapshot: 3000,
		TotalAmount:        8250,
		RecordedAt:         time.Date(2024, 3, 2, 10, 30, 0, 0, time.UTC),
	}
	require.NoError(t, s.AppendDeposit(ctx, d))

	// THEN the stored weight round-trips exactly
	deposits, err := s.ListDeposits(ctx)
	require.NoError(t, err)
	require.Len(t, deposits, 1)
	assert.True(t, deposits[0].Weight.Equal(decimal.RequireFromString("2.75")),
		"weight should survive storage without float drift")
	assert.Equal(t, d.CategoryName, deposits[0].CategoryName)
	assert.Equal(t, d.RecordedAt, deposits[0].RecordedAt)
}

func TestSaleStatusUpdateOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sale := core.WholesaleTransaction{
		ID:                  "off-1",
		CategoryID:          "waste-pet",
		CategoryName:        "PET Plastic Bottles",
		Weight:              decimal.NewFromInt(10),
		MemberPricePerKg:    3000,
		WholesalePricePerKg: 3300,
		TotalAmount:         33000,
		PaymentStatus:       core.PaymentPending,
		OperatorID:          "operator-1",
		RecordedAt:          time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.AppendSale(ctx, sale))

	sale.PaymentStatus = core.PaymentPaid
	require.NoError(t, s.SaveSale(ctx, sale))

	got, err := s.GetSale(ctx, "off-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, core.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, core.Money(33000), got.TotalAmount)
}

func TestWithdrawalProcessedFields(t *testing.T) {
	// GIVEN a pending request
	s := newTestStore(t)
	ctx := context.Background()

	w := core.WithdrawalRequest{
		ID:          "wd-1",
		MemberID:    "member-1",
		Amount:      15000,
		Status:      core.WithdrawalPending,
		RequestedAt: time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveWithdrawal(ctx, w))

	got, err := s.GetWithdrawal(ctx, "wd-1")
	require.NoError(t, err)
	assert.Nil(t, got.ProcessedAt)
	assert.Nil(t, got.ProcessedBy)

	// WHEN it is approved
	processedAt := time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC)
	operator := core.MemberID("operator-1")
	w.Status = core.WithdrawalApproved
	w.ProcessedAt = &processedAt
	w.ProcessedBy = &operator
	require.NoError(t, s.SaveWithdrawal(ctx, w))

	// THEN the processing stamps round-trip
	got, err = s.GetWithdrawal(ctx, "wd-1")
	require.NoError(t, err)
	assert.Equal(t, core.WithdrawalApproved, got.Status)
	require.NotNil(t, got.ProcessedAt)
	assert.Equal(t, processedAt, *got.ProcessedAt)
	require.NotNil(t, got.ProcessedBy)
	assert.Equal(t, operator, *got.ProcessedBy)
}

func TestNotificationsPerMember(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, memberID := range []core.MemberID{"member-1", "member-1", "member-2"} {
		n := core.Notification{
			ID:       core.NotificationID(core.NewID("notif")),
			MemberID: memberID,
			Message:  "hello",
			At:       time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.AppendNotification(ctx, n))
	}

	ns, err := s.ListNotifications(ctx, "member-1")
	require.NoError(t, err)
	assert.Len(t, ns, 2)

	// Mark one read, then clear
	ns[0].Read = true
	require.NoError(t, s.SaveNotification(ctx, ns[0]))
	require.NoError(t, s.DeleteReadNotifications(ctx, "member-1"))

	ns, err = s.ListNotifications(ctx, "member-1")
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.False(t, ns[0].Read)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	// GIVEN a store with one category
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveCategory(ctx, core.WasteCategory{
		ID: "waste-pet", Name: "PET Plastic Bottles", PricePerKg: 3000, Group: "Plastic",
	}))

	// WHEN a transaction writes and then fails
	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx core.Store) error {
		if err := tx.SaveCategory(ctx, core.WasteCategory{
			ID: "waste-hvs", Name: "HVS Paper", PricePerKg: 1500, Group: "Paper",
		}); err != nil {
			return err
		}
		if err := tx.DeleteCategory(ctx, "waste-pet"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// THEN neither the insert nor the delete took effect
	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, core.CategoryID("waste-pet"), cats[0].ID)
}

func TestWithTxCommits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx core.Store) error {
		if err := tx.SaveMember(ctx, core.Member{
			ID: "member-1", Username: "budi", FullName: "Budi", Password: "x",
			Role: core.RoleMember, Balance: 5000, JoinedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		return tx.AppendDeposit(ctx, core.DepositTransaction{
			ID: "dep-1", MemberID: "member-1", OperatorID: "operator-1",
			CategoryID: "waste-pet", CategoryName: "PET Plastic Bottles",
			Weight: decimal.NewFromInt(1), PricePerKgSnapshot: 3000,
			TotalAmount: 3000, RecordedAt: time.Now().UTC(),
		})
	})
	require.NoError(t, err)

	m, err := s.GetMember(ctx, "member-1")
	require.NoError(t, err)
	require.NotNil(t, m)

	deposits, err := s.ListDepositsByMember(ctx, "member-1")
	require.NoError(t, err)
	assert.Len(t, deposits, 1)
}
