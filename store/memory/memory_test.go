package memory

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

func TestWithTxRestoresSnapshotOnError(t *testing.T) {
	// GIVEN a store with a member and a category
	s := New()
	ctx := context.Background()
	require.NoError(t, s.SaveMember(ctx, core.Member{
		ID: "member-1", Username: "budi", FullName: "Budi", Password: "x",
		Role: core.RoleMember, Balance: 1000, JoinedAt: time.Now(),
	}))

	// WHEN a transaction mutates several collections and fails
	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx core.Store) error {
		m, err := tx.GetMember(ctx, "member-1")
		if err != nil {
			return err
		}
		m.Balance = 99999
		if err := tx.SaveMember(ctx, *m); err != nil {
			return err
		}
		if err := tx.AppendDeposit(ctx, core.DepositTransaction{
			ID: "dep-1", MemberID: "member-1", Weight: decimal.NewFromInt(1),
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// THEN every mutation is rolled back
	m, err := s.GetMember(ctx, "member-1")
	require.NoError(t, err)
	assert.Equal(t, core.Money(1000), m.Balance)

	deposits, err := s.ListDeposits(ctx)
	require.NoError(t, err)
	assert.Empty(t, deposits)
}

func TestWithTxCommits(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx core.Store) error {
		return tx.SaveMember(ctx, core.Member{
			ID: "member-1", Username: "budi", FullName: "Budi", Password: "x",
			Role: core.RoleMember, JoinedAt: time.Now(),
		})
	})
	require.NoError(t, err)

	m, err := s.GetMember(ctx, "member-1")
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestReturnedSlicesAreCopies(t *testing.T) {
	// Mutating a listing must not write through to the store
	s := New()
	ctx := context.Background()
	require.NoError(t, s.SaveCategory(ctx, core.WasteCategory{
		ID: "waste-pet", Name: "PET Plastic Bottles", PricePerKg: 3000,
	}))

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	cats[0].PricePerKg = 1

	again, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.Money(3000), again[0].PricePerKg)
}

func TestUsernameLookupIsCaseInsensitive(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.SaveMember(ctx, core.Member{
		ID: "member-1", Username: "Budi", FullName: "Budi", Password: "x",
		Role: core.RoleMember, JoinedAt: time.Now(),
	}))

	m, err := s.GetMemberByUsername(ctx, "bUdI")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, core.MemberID("member-1"), m.ID)

	missing, err := s.GetMemberByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
