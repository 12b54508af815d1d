package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecovault/bank-engine/core"
	"github.com/ecovault/bank-engine/store/memory"
)

func TestRegisterMember(t *testing.T) {
	engine := core.NewEngine(memory.New())
	ctx := context.Background()

	m, err := engine.RegisterMember(ctx, "Budi Santoso", "budi", "budi123", core.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, core.Money(0), m.Balance)
	assert.Equal(t, core.RoleMember, m.Role)
	assert.NotEmpty(t, m.ID)

	// An empty role defaults to MEMBER
	m2, err := engine.RegisterMember(ctx, "Siti Aminah", "siti", "siti123", "")
	require.NoError(t, err)
	assert.Equal(t, core.RoleMember, m2.Role)
}

func TestRegisterMemberValidation(t *testing.T) {
	engine := core.NewEngine(memory.New())
	ctx := context.Background()

	_, err := engine.RegisterMember(ctx, "", "budi", "budi123", core.RoleMember)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	_, err = engine.RegisterMember(ctx, "Budi", " ", "budi123", core.RoleMember)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	_, err = engine.RegisterMember(ctx, "Budi", "budi", "", core.RoleMember)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestRegisterMemberUsernameUnique(t *testing.T) {
	engine := core.NewEngine(memory.New())
	ctx := context.Background()

	_, err := engine.RegisterMember(ctx, "Budi Santoso", "budi", "budi123", core.RoleMember)
	require.NoError(t, err)

	// Usernames collide case-insensitively
	_, err = engine.RegisterMember(ctx, "Impostor", "BUDI", "x", core.RoleMember)
	assert.ErrorIs(t, err, core.ErrUsernameTaken)
}

func TestAuthenticate(t *testing.T) {
	engine := core.NewEngine(memory.New())
	ctx := context.Background()
	_, err := engine.RegisterMember(ctx, "Budi Santoso", "budi", "budi123", core.RoleMember)
	require.NoError(t, err)

	m, err := engine.Authenticate(ctx, "budi", "budi123")
	require.NoError(t, err)
	assert.Equal(t, "Budi Santoso", m.FullName)

	_, err = engine.Authenticate(ctx, "budi", "wrong")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	// Unknown users get the same error as a bad password
	_, err = engine.Authenticate(ctx, "ghost", "budi123")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
}

func TestUpdatePassword(t *testing.T) {
	engine := core.NewEngine(memory.New())
	ctx := context.Background()
	m, err := engine.RegisterMember(ctx, "Budi Santoso", "budi", "budi123", core.RoleMember)
	require.NoError(t, err)

	require.NoError(t, engine.UpdatePassword(ctx, m.ID, "newpass456"))

	_, err = engine.Authenticate(ctx, "budi", "budi123")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
	_, err = engine.Authenticate(ctx, "budi", "newpass456")
	assert.NoError(t, err)
}

func TestRemoveMemberKeepsHistory(t *testing.T) {
	// GIVEN a member with a deposit on record
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	_, err := engine.RecordDeposit(ctx, "member-1", "waste-pet", "operator-1", kg("10"))
	require.NoError(t, err)

	// WHEN the account is removed
	require.NoError(t, engine.RemoveMember(ctx, "member-1"))

	_, err = engine.GetMember(ctx, "member-1")
	assert.True(t, core.IsNotFound(err))

	// THEN the deposit history survives through its snapshots
	deposits, err := engine.Deposits(ctx)
	require.NoError(t, err)
	require.Len(t, deposits, 1)
	assert.Equal(t, core.MemberID("member-1"), deposits[0].MemberID)

	// AND derived stock still counts the collected weight
	levels, err := engine.AvailableStock(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.True(t, levels[0].Available.Equal(kg("10")))
}
