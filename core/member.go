/*
member.go - Membership and access

PURPOSE:
  Registration, credential checks, and account removal. These operations do
  not touch balances directly, but they route through the engine so the
  store keeps a single mutation path.

REFERENTIAL HISTORY:
  Removing a member deletes the account record only. Deposit and withdrawal
  records survive with their denormalized snapshots, so history stays
  meaningful after the account is gone.
*/
package core

import (
	"context"
	"fmt"
	"strings"
)

// RegisterMember creates a new account with zero balance. Usernames are
// unique, compared case-insensitively.
func (e *Engine) RegisterMember(ctx context.Context, fullName, username, password string, role Role) (*Member, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(fullName) == "" || password == "" {
		return nil, fmt.Errorf("full name, username and password are required: %w", ErrInvalidInput)
	}
	if role == "" {
		role = RoleMember
	}

	var member *Member
	err := e.store.WithTx(ctx, func(s Store) error {
		existing, err := s.GetMemberByUsername(ctx, username)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("username %q: %w", username, ErrUsernameTaken)
		}

		m := Member{
			ID:       MemberID(NewID(strings.ToLower(string(role)))),
			Username: username,
			FullName: fullName,
			Password: password,
			Role:     role,
			Balance:  0,
			JoinedAt: e.now(),
		}
		if err := s.SaveMember(ctx, m); err != nil {
			return err
		}
		member = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// Authenticate verifies a username/password pair.
func (e *Engine) Authenticate(ctx context.Context, username, password string) (*Member, error) {
	m, err := e.store.GetMemberByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if m == nil || m.Password != password {
		return nil, ErrInvalidCredentials
	}
	return m, nil
}

// UpdatePassword replaces a member's credential.
func (e *Engine) UpdatePassword(ctx context.Context, memberID MemberID, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("password is required: %w", ErrInvalidInput)
	}
	return e.store.WithTx(ctx, func(s Store) error {
		m, err := s.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("member %s: %w", memberID, ErrNotFound)
		}
		m.Password = newPassword
		return s.SaveMember(ctx, *m)
	})
}

// RemoveMember deletes the account record. Transaction history is kept.
func (e *Engine) RemoveMember(ctx context.Context, memberID MemberID) error {
	return e.store.WithTx(ctx, func(s Store) error {
		m, err := s.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("member %s: %w", memberID, ErrNotFound)
		}
		return s.DeleteMember(ctx, memberID)
	})
}

// GetMember returns one member or ErrNotFound.
func (e *Engine) GetMember(ctx context.Context, memberID MemberID) (*Member, error) {
	m, err := e.store.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("member %s: %w", memberID, ErrNotFound)
	}
	return m, nil
}

// ListMembers returns all accounts.
func (e *Engine) ListMembers(ctx context.Context) ([]Member, error) {
	return e.store.ListMembers(ctx)
}
