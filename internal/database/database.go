package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// busy_timeout keeps concurrent committers waiting instead of failing
	// with SQLITE_BUSY; foreign_keys enforces slot/experience references.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("База данных инициализирована")
	return &DB{DB: sqlDB, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Каталог (read-only для этого сервиса)
		`CREATE TABLE IF NOT EXISTS experiences (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            short_description TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            location TEXT NOT NULL DEFAULT '',
            duration REAL NOT NULL DEFAULT 0,
            price REAL NOT NULL CHECK (price >= 0),
            rating REAL NOT NULL DEFAULT 0,
            total_reviews INTEGER NOT NULL DEFAULT 0,
            category TEXT NOT NULL DEFAULT '',
            image_url TEXT NOT NULL DEFAULT '',
            highlights TEXT NOT NULL DEFAULT '[]',
            what_to_bring TEXT NOT NULL DEFAULT '[]',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Слоты с конечной вместимостью
		`CREATE TABLE IF NOT EXISTS slots (
            id TEXT PRIMARY KEY,
            experience_id TEXT NOT NULL REFERENCES experiences(id),
            date TEXT NOT NULL,
            time TEXT NOT NULL,
            total_spots INTEGER NOT NULL CHECK (total_spots >= 0),
            available_spots INTEGER NOT NULL CHECK (available_spots >= 0 AND available_spots <= total_spots),
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Промокоды
		`CREATE TABLE IF NOT EXISTS promo_codes (
            id TEXT PRIMARY KEY,
            code TEXT NOT NULL UNIQUE COLLATE NOCASE,
            discount_type TEXT NOT NULL CHECK (discount_type IN ('percentage', 'fixed')),
            discount_value REAL NOT NULL CHECK (discount_value > 0),
            valid_from DATETIME NOT NULL,
            valid_until DATETIME NOT NULL,
            max_uses INTEGER,
            current_uses INTEGER NOT NULL DEFAULT 0 CHECK (current_uses >= 0),
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Бронирования
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            slot_id TEXT NOT NULL REFERENCES slots(id),
            experience_id TEXT NOT NULL REFERENCES experiences(id),
            customer_name TEXT NOT NULL,
            customer_email TEXT NOT NULL,
            customer_phone TEXT NOT NULL,
            number_of_guests INTEGER NOT NULL CHECK (number_of_guests >= 1),
            total_price REAL NOT NULL CHECK (total_price >= 0),
            promo_code TEXT,
            discount_amount REAL NOT NULL DEFAULT 0 CHECK (discount_amount >= 0),
            booking_status TEXT NOT NULL DEFAULT 'confirmed',
            idempotency_key TEXT UNIQUE,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS idx_slots_experience_date ON slots(experience_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_slot_id ON bookings(slot_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_experience_id ON bookings(experience_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_created_at ON bookings(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_experiences_category ON experiences(category)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
