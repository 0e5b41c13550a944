package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"wanderbook/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
app:
  name: "wanderbook"
database:
  path: "test.db"
booking:
  max_guests: 10
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != "test.db" {
		t.Errorf("expected database path test.db, got %s", cfg.Database.Path)
	}
	if cfg.Booking.MaxGuests != 10 {
		t.Errorf("expected max_guests 10, got %d", cfg.Booking.MaxGuests)
	}
	if cfg.Booking.MinGuests != 1 {
		t.Errorf("expected default min_guests 1, got %d", cfg.Booking.MinGuests)
	}
	if cfg.Booking.RejectUpcomingPromos == nil || !*cfg.Booking.RejectUpcomingPromos {
		t.Errorf("expected reject_upcoming_promos to default to true")
	}
	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default HTTP port 8080, got %d", cfg.API.HTTP.Port)
	}
}

func TestLoadConfig_EnvExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("WB_DB_PATH", "from_env.db")
	yamlContent := `
database:
  path: "${WB_DB_PATH}"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Database.Path != "from_env.db" {
		t.Errorf("expected env-expanded path, got %s", cfg.Database.Path)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     Config{Database: DatabaseConfig{Path: "path"}, Booking: BookingConfig{MinGuests: 1, MaxGuests: 20}},
			wantErr: false,
		},
		{
			name:    "missing database path",
			cfg:     Config{Booking: BookingConfig{MinGuests: 1, MaxGuests: 20}},
			wantErr: true,
		},
		{
			name:    "max below min",
			cfg:     Config{Database: DatabaseConfig{Path: "path"}, Booking: BookingConfig{MinGuests: 5, MaxGuests: 2}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	tmpDir := t.TempDir()
	catalogPath := filepath.Join(tmpDir, "catalog.yaml")

	yamlContent := `
experiences:
  - id: exp-1
    title: "Sunset Kayak Tour"
    location: "Lisbon"
    price: 50.0
    category: "water"
slots:
  - id: slot-1
    experience_id: exp-1
    date: 2026-09-10
    time: "18:00"
    total_spots: 8
    available_spots: 8
promo_codes:
  - id: promo-1
    code: "SAVE10"
    discount_type: percentage
    discount_value: 10
    valid_from: 2026-01-01T00:00:00Z
    valid_until: 2026-12-31T00:00:00Z
    max_uses: 100
    is_active: true
`
	if err := os.WriteFile(catalogPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	catalog, err := LoadCatalog(catalogPath)
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	if len(catalog.Experiences) != 1 || catalog.Experiences[0].ID != "exp-1" {
		t.Errorf("expected 1 experience exp-1")
	}
	if len(catalog.Slots) != 1 || catalog.Slots[0].TotalSpots != 8 {
		t.Errorf("expected 1 slot with 8 spots")
	}
	if len(catalog.Promos) != 1 || catalog.Promos[0].Code != "SAVE10" {
		t.Errorf("expected 1 promo SAVE10")
	}
	if catalog.Promos[0].MaxUses == nil || *catalog.Promos[0].MaxUses != 100 {
		t.Errorf("expected max_uses 100")
	}
}

func expWith(id string) models.Experience {
	return models.Experience{ID: id, Title: id, Price: 10}
}

func slotWith(id, expID string, total, available int64) models.Slot {
	return models.Slot{ID: id, ExperienceID: expID, Date: time.Now(), Time: "10:00", TotalSpots: total, AvailableSpots: available}
}

func promoWith(id, code string) models.PromoCode {
	return models.PromoCode{
		ID:            id,
		Code:          code,
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 10,
		ValidFrom:     time.Now(),
		ValidUntil:    time.Now().AddDate(1, 0, 0),
		IsActive:      true,
	}
}

func TestValidateCatalog_Errors(t *testing.T) {
	t.Run("unknown experience reference", func(t *testing.T) {
		catalog := &Catalog{}
		catalog.Slots = append(catalog.Slots, slotWith("s1", "missing", 5, 5))
		if err := ValidateCatalog(catalog); err == nil {
			t.Error("expected error for unknown experience reference")
		}
	})

	t.Run("duplicate promo code differing only in case", func(t *testing.T) {
		catalog := &Catalog{}
		catalog.Promos = append(catalog.Promos,
			promoWith("p1", "SAVE10"),
			promoWith("p2", "save10"),
		)
		if err := ValidateCatalog(catalog); err == nil {
			t.Error("expected error for case-insensitive duplicate codes")
		}
	})

	t.Run("available exceeds total", func(t *testing.T) {
		catalog := &Catalog{}
		catalog.Experiences = append(catalog.Experiences, expWith("e1"))
		catalog.Slots = append(catalog.Slots, slotWith("s1", "e1", 3, 5))
		if err := ValidateCatalog(catalog); err == nil {
			t.Error("expected error for available_spots > total_spots")
		}
	})
}
