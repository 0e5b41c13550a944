package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"wanderbook/internal/models"
)

const experienceColumns = `id, title, short_description, description, location, duration, price,
	rating, total_reviews, category, image_url, highlights, what_to_bring, created_at, updated_at`

func scanExperience(row interface{ Scan(...any) error }) (*models.Experience, error) {
	var e models.Experience
	var highlights, whatToBring string
	err := row.Scan(
		&e.ID, &e.Title, &e.ShortDescription, &e.Description, &e.Location,
		&e.DurationHours, &e.Price, &e.Rating, &e.TotalReviews, &e.Category,
		&e.ImageURL, &highlights, &whatToBring, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(highlights), &e.Highlights); err != nil {
		return nil, fmt.Errorf("failed to decode highlights: %w", err)
	}
	if err := json.Unmarshal([]byte(whatToBring), &e.WhatToBring); err != nil {
		return nil, fmt.Errorf("failed to decode what_to_bring: %w", err)
	}
	return &e, nil
}

// GetExperience returns one catalog entry. A missing id maps to ErrNotFound
// so callers can tell "no such experience" from a transient read error.
func (db *DB) GetExperience(ctx context.Context, id string) (*models.Experience, error) {
	query := `SELECT ` + experienceColumns + ` FROM experiences WHERE id = ?`
	exp, err := scanExperience(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get experience: %w", err)
	}
	return exp, nil
}

// ListExperiences returns catalog entries newest first. query is matched as a
// case-insensitive substring against title, location and category; category
// filters by exact match when non-empty.
func (db *DB) ListExperiences(ctx context.Context, query, category string) ([]*models.Experience, error) {
	sqlQuery := `SELECT ` + experienceColumns + ` FROM experiences`
	var conds []string
	var args []any

	if q := strings.TrimSpace(query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		conds = append(conds, `(LOWER(title) LIKE ? OR LOWER(location) LIKE ? OR LOWER(category) LIKE ?)`)
		args = append(args, pattern, pattern, pattern)
	}
	if category != "" {
		conds = append(conds, `category = ?`)
		args = append(args, category)
	}
	if len(conds) > 0 {
		sqlQuery += ` WHERE ` + strings.Join(conds, " AND ")
	}
	sqlQuery += ` ORDER BY created_at DESC, id`

	rows, err := db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiences: %w", err)
	}
	defer rows.Close()

	var experiences []*models.Experience
	for rows.Next() {
		exp, err := scanExperience(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experience: %w", err)
		}
		experiences = append(experiences, exp)
	}
	return experiences, rows.Err()
}

const slotColumns = `id, experience_id, date, time, total_spots, available_spots, created_at, updated_at`

func scanSlot(row interface{ Scan(...any) error }) (*models.Slot, error) {
	var s models.Slot
	var dateStr string
	err := row.Scan(&s.ID, &s.ExperienceID, &dateStr, &s.Time, &s.TotalSpots, &s.AvailableSpots, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Date, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse slot date %s: %w", dateStr, err)
	}
	return &s, nil
}

// GetSlot returns one slot by id, ErrNotFound when missing.
func (db *DB) GetSlot(ctx context.Context, id string) (*models.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = ?`
	slot, err := scanSlot(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	return slot, nil
}

// GetSlotsForDate returns all slots of an experience on a date, ascending by
// time.
func (db *DB) GetSlotsForDate(ctx context.Context, experienceID string, date time.Time) ([]*models.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE experience_id = ? AND date = ? ORDER BY time ASC`
	rows, err := db.QueryContext(ctx, query, experienceID, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to get slots: %w", err)
	}
	defer rows.Close()

	var slots []*models.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// GetAvailabilityWindow aggregates open slots and spots per date over a
// window starting at startDate.
func (db *DB) GetAvailabilityWindow(ctx context.Context, experienceID string, startDate time.Time, days int) ([]*models.DayAvailability, error) {
	endDate := startDate.AddDate(0, 0, days-1)

	query := `SELECT date, COUNT(*) AS open_slots, SUM(available_spots) AS open_spots
              FROM slots
              WHERE experience_id = ? AND date BETWEEN ? AND ?
              GROUP BY date`

	rows, err := db.QueryContext(ctx, query, experienceID,
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to get availability window: %w", err)
	}
	defer rows.Close()

	type dayAgg struct {
		slots int
		spots int64
	}
	byDate := make(map[string]dayAgg)
	for rows.Next() {
		var dateStr string
		var agg dayAgg
		if err := rows.Scan(&dateStr, &agg.slots, &agg.spots); err != nil {
			return nil, err
		}
		byDate[dateStr] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var window []*models.DayAvailability
	for i := 0; i < days; i++ {
		date := startDate.AddDate(0, 0, i)
		agg := byDate[date.Format("2006-01-02")]
		window = append(window, &models.DayAvailability{
			Date:         date,
			ExperienceID: experienceID,
			OpenSlots:    agg.slots,
			OpenSpots:    agg.spots,
		})
	}
	return window, nil
}

// SeedCatalog upserts experiences and slots from the catalog file. Existing
// slots keep their available_spots: the counter belongs to the booking
// ledger, not the seed.
func (db *DB) SeedCatalog(ctx context.Context, experiences []models.Experience, slots []models.Slot) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	expQuery := `INSERT INTO experiences (` + experienceColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            title = excluded.title,
            short_description = excluded.short_description,
            description = excluded.description,
            location = excluded.location,
            duration = excluded.duration,
            price = excluded.price,
            rating = excluded.rating,
            total_reviews = excluded.total_reviews,
            category = excluded.category,
            image_url = excluded.image_url,
            highlights = excluded.highlights,
            what_to_bring = excluded.what_to_bring,
            updated_at = excluded.updated_at`

	for _, exp := range experiences {
		highlights, err := json.Marshal(exp.Highlights)
		if err != nil {
			return fmt.Errorf("failed to encode highlights for %s: %w", exp.ID, err)
		}
		whatToBring, err := json.Marshal(exp.WhatToBring)
		if err != nil {
			return fmt.Errorf("failed to encode what_to_bring for %s: %w", exp.ID, err)
		}
		createdAt := exp.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := tx.ExecContext(ctx, expQuery,
			exp.ID, exp.Title, exp.ShortDescription, exp.Description, exp.Location,
			exp.DurationHours, exp.Price, exp.Rating, exp.TotalReviews, exp.Category,
			exp.ImageURL, string(highlights), string(whatToBring), createdAt, now,
		); err != nil {
			return fmt.Errorf("failed to seed experience %s: %w", exp.ID, err)
		}
	}

	slotQuery := `INSERT INTO slots (id, experience_id, date, time, total_spots, available_spots, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            date = excluded.date,
            time = excluded.time,
            total_spots = excluded.total_spots,
            updated_at = excluded.updated_at`

	for _, slot := range slots {
		available := slot.AvailableSpots
		if available == 0 && slot.TotalSpots > 0 {
			available = slot.TotalSpots
		}
		if _, err := tx.ExecContext(ctx, slotQuery,
			slot.ID, slot.ExperienceID, slot.Date.Format("2006-01-02"), slot.Time,
			slot.TotalSpots, available, now, now,
		); err != nil {
			return fmt.Errorf("failed to seed slot %s: %w", slot.ID, err)
		}
	}

	return tx.Commit()
}
