/*
seed.go - Default data for an empty store

Seeds the catalog and a pair of demo accounts when the corresponding
collections are empty. Called once at process start; a store that already
holds data is left untouched.
*/
package core

import (
	"context"
	"time"
)

var defaultCategories = []WasteCategory{
	{ID: "waste-pet", Name: "PET Plastic Bottles", PricePerKg: 3000, Group: "Plastic"},
	{ID: "waste-hvs", Name: "HVS Paper", PricePerKg: 1500, Group: "Paper"},
	{ID: "waste-alu", Name: "Aluminium Cans", PricePerKg: 5000, Group: "Metal"},
	{ID: "waste-glass", Name: "Clear Glass", PricePerKg: 1000, Group: "Glass"},
}

// Seed loads defaults into an empty store: the standard waste catalog, one
// operator account, and one demo member account.
func Seed(ctx context.Context, store TxStore, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	return store.WithTx(ctx, func(s Store) error {
		cats, err := s.ListCategories(ctx)
		if err != nil {
			return err
		}
		if len(cats) == 0 {
			for _, c := range defaultCategories {
				if err := s.SaveCategory(ctx, c); err != nil {
					return err
				}
			}
		}

		members, err := s.ListMembers(ctx)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			seedMembers := []Member{
				{ID: "operator-1", Username: "admin", FullName: "Primary Operator", Password: "admin123", Role: RoleOperator, Balance: 0, JoinedAt: now()},
				{ID: "member-1", Username: "budi", FullName: "Budi Santoso", Password: "budi123", Role: RoleMember, Balance: 0, JoinedAt: now()},
			}
			for _, m := range seedMembers {
				if err := s.SaveMember(ctx, m); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
