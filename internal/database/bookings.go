package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wanderbook/internal/models"
)

const bookingColumns = `id, slot_id, experience_id, customer_name, customer_email, customer_phone,
	number_of_guests, total_price, promo_code, discount_amount, booking_status,
	idempotency_key, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	var promoCode, idemKey sql.NullString
	err := row.Scan(
		&b.ID, &b.SlotID, &b.ExperienceID, &b.CustomerName, &b.CustomerEmail,
		&b.CustomerPhone, &b.NumberOfGuests, &b.TotalPrice, &promoCode,
		&b.DiscountAmount, &b.Status, &idemKey, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.PromoCode = promoCode.String
	b.IdempotencyKey = idemKey.String
	return &b, nil
}

// CommitBooking performs the booking commit as one transaction:
//
//  1. conditionally decrement slot capacity ("available_spots >= N" guard);
//  2. insert the booking row;
//  3. if a promo is applied, conditionally increment its usage counter
//     ("max_uses IS NULL OR current_uses < max_uses" guard).
//
// A zero-rows-affected result on either conditional update aborts the whole
// transaction with ErrInsufficientCapacity or ErrPromoExhausted, so a booking
// row never survives a failed counter update. Two committers racing for the
// last spot serialize on the UPDATE: exactly one sees a row affected.
func (db *DB) CommitBooking(ctx context.Context, booking *models.Booking, promoID string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	decrement := `UPDATE slots
        SET available_spots = available_spots - ?, updated_at = ?
        WHERE id = ? AND available_spots >= ?`
	now := time.Now()
	result, err := tx.ExecContext(ctx, decrement, booking.NumberOfGuests, now, booking.SlotID, booking.NumberOfGuests)
	if err != nil {
		return fmt.Errorf("failed to decrement slot capacity: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrInsufficientCapacity
	}

	insert := `INSERT INTO bookings (
				id, slot_id, experience_id, customer_name, customer_email, customer_phone,
				number_of_guests, total_price, promo_code, discount_amount, booking_status,
				idempotency_key, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var promoCode, idemKey any
	if booking.PromoCode != "" {
		promoCode = booking.PromoCode
	}
	if booking.IdempotencyKey != "" {
		idemKey = booking.IdempotencyKey
	}
	if _, err := tx.ExecContext(ctx, insert,
		booking.ID, booking.SlotID, booking.ExperienceID,
		booking.CustomerName, booking.CustomerEmail, booking.CustomerPhone,
		booking.NumberOfGuests, booking.TotalPrice, promoCode,
		booking.DiscountAmount, booking.Status, idemKey, now, now,
	); err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	if promoID != "" {
		increment := `UPDATE promo_codes
            SET current_uses = current_uses + 1
            WHERE id = ? AND (max_uses IS NULL OR current_uses < max_uses)`
		result, err := tx.ExecContext(ctx, increment, promoID)
		if err != nil {
			return fmt.Errorf("failed to increment promo usage: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if rows == 0 {
			return ErrPromoExhausted
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

// GetBooking returns a booking by id, ErrNotFound when missing.
func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// GetBookingByIdempotencyKey returns the booking committed under key, or
// ErrNotFound if the key has not been used.
func (db *DB) GetBookingByIdempotencyKey(ctx context.Context, key string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE idempotency_key = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by idempotency key: %w", err)
	}
	return booking, nil
}

// GetBookingDetails loads a booking together with its experience and slot for
// the confirmation view.
func (db *DB) GetBookingDetails(ctx context.Context, id string) (*models.BookingDetails, error) {
	booking, err := db.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	experience, err := db.GetExperience(ctx, booking.ExperienceID)
	if err != nil {
		return nil, err
	}
	slot, err := db.GetSlot(ctx, booking.SlotID)
	if err != nil {
		return nil, err
	}
	return &models.BookingDetails{
		Booking:    *booking,
		Experience: *experience,
		Slot:       *slot,
	}, nil
}

// GetBookingsByDateRange returns bookings created within [start, end],
// oldest first. Used by the report exporter.
func (db *DB) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE created_at >= ? AND created_at <= ?
              ORDER BY created_at ASC`
	rows, err := db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}
