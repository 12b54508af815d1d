/*
catalog.go - Waste-category CRUD

PURPOSE:
  The catalog manages waste-category definitions (name, price per kg,
  grouping label). It has no dependency besides the Store.

PRICE CHANGES:
  Prices are mutable at any time. Historical transactions are untouched:
  they carry their own price snapshots, so no back-reference resolution is
  ever needed. Deleting a category likewise never invalidates history.

SEE ALSO:
  - ledger.go: Reads categories for price snapshots at deposit/sale time
*/
package core

import (
	"context"
	"fmt"
	"strings"
)

// =============================================================================
// CATALOG - CRUD over waste-category definitions
// =============================================================================

type Catalog struct {
	store TxStore
}

func NewCatalog(store TxStore) *Catalog {
	return &Catalog{store: store}
}

// CategoryUpdate carries the mutable fields of a category. Nil fields are
// left unchanged.
type CategoryUpdate struct {
	Name       *string
	PricePerKg *Money
	Group      *string
}

// CreateCategory adds a new category and returns its id.
func (c *Catalog) CreateCategory(ctx context.Context, name string, pricePerKg Money, group string) (*WasteCategory, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("category name is required: %w", ErrInvalidInput)
	}
	if pricePerKg <= 0 {
		return nil, fmt.Errorf("price per kg must be positive: %w", ErrInvalidInput)
	}

	cat := WasteCategory{
		ID:         CategoryID(NewID("waste")),
		Name:       name,
		PricePerKg: pricePerKg,
		Group:      group,
	}
	if err := c.store.SaveCategory(ctx, cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// UpdateCategory applies the non-nil fields of upd to an existing category.
// Existing transactions keep their snapshots and are not touched.
func (c *Catalog) UpdateCategory(ctx context.Context, id CategoryID, upd CategoryUpdate) (*WasteCategory, error) {
	var updated *WasteCategory
	err := c.store.WithTx(ctx, func(s Store) error {
		cat, err := s.GetCategory(ctx, id)
		if err != nil {
			return err
		}
		if cat == nil {
			return fmt.Errorf("category %s: %w", id, ErrNotFound)
		}

		if upd.Name != nil {
			if strings.TrimSpace(*upd.Name) == "" {
				return fmt.Errorf("category name is required: %w", ErrInvalidInput)
			}
			cat.Name = *upd.Name
		}
		if upd.PricePerKg != nil {
			if *upd.PricePerKg <= 0 {
				return fmt.Errorf("price per kg must be positive: %w", ErrInvalidInput)
			}
			cat.PricePerKg = *upd.PricePerKg
		}
		if upd.Group != nil {
			cat.Group = *upd.Group
		}

		if err := s.SaveCategory(ctx, *cat); err != nil {
			return err
		}
		updated = cat
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteCategory removes a category definition. Historical deposits and
// sales referencing it remain valid through their snapshots.
func (c *Catalog) DeleteCategory(ctx context.Context, id CategoryID) error {
	return c.store.WithTx(ctx, func(s Store) error {
		cat, err := s.GetCategory(ctx, id)
		if err != nil {
			return err
		}
		if cat == nil {
			return fmt.Errorf("category %s: %w", id, ErrNotFound)
		}
		return s.DeleteCategory(ctx, id)
	})
}

// GetCategory returns one category or ErrNotFound.
func (c *Catalog) GetCategory(ctx context.Context, id CategoryID) (*WasteCategory, error) {
	cat, err := c.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return cat, nil
}

// ListCategories returns all categories.
func (c *Catalog) ListCategories(ctx context.Context) ([]WasteCategory, error) {
	return c.store.ListCategories(ctx)
}
