package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wanderbook/internal/models"
)

const promoColumns = `id, code, discount_type, discount_value, valid_from, valid_until,
	max_uses, current_uses, is_active, created_at`

func scanPromo(row interface{ Scan(...any) error }) (*models.PromoCode, error) {
	var p models.PromoCode
	var maxUses sql.NullInt64
	err := row.Scan(
		&p.ID, &p.Code, &p.DiscountType, &p.DiscountValue, &p.ValidFrom,
		&p.ValidUntil, &maxUses, &p.CurrentUses, &p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if maxUses.Valid {
		p.MaxUses = &maxUses.Int64
	}
	return &p, nil
}

// GetPromoByCode looks up a promo code with case-insensitive exact matching
// (the code column is COLLATE NOCASE). Read-only: never touches current_uses.
func (db *DB) GetPromoByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE code = ?`
	promo, err := scanPromo(db.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}
	return promo, nil
}

// GetPromoByID returns a promo by primary key.
func (db *DB) GetPromoByID(ctx context.Context, id string) (*models.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE id = ?`
	promo, err := scanPromo(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}
	return promo, nil
}

// SeedPromos upserts promo codes from the catalog file, preserving
// current_uses on existing rows: usage counts belong to the ledger.
func (db *DB) SeedPromos(ctx context.Context, promos []models.PromoCode) error {
	query := `INSERT INTO promo_codes (id, code, discount_type, discount_value, valid_from, valid_until, max_uses, is_active, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            code = excluded.code,
            discount_type = excluded.discount_type,
            discount_value = excluded.discount_value,
            valid_from = excluded.valid_from,
            valid_until = excluded.valid_until,
            max_uses = excluded.max_uses,
            is_active = excluded.is_active`

	now := time.Now()
	for _, promo := range promos {
		var maxUses any
		if promo.MaxUses != nil {
			maxUses = *promo.MaxUses
		}
		createdAt := promo.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := db.ExecContext(ctx, query,
			promo.ID, promo.Code, promo.DiscountType, promo.DiscountValue,
			promo.ValidFrom, promo.ValidUntil, maxUses, promo.IsActive, createdAt,
		); err != nil {
			return fmt.Errorf("failed to seed promo %s: %w", promo.Code, err)
		}
	}
	return nil
}
