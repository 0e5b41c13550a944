package config

import (
	"fmt"
	"os"
	"strings"

	"wanderbook/internal/models"

	yamlv2 "gopkg.in/yaml.v2"
)

// Catalog is the seed file content: the externally-owned entities this core
// reads but never creates.
type Catalog struct {
	Experiences []models.Experience `yaml:"experiences"`
	Slots       []models.Slot       `yaml:"slots"`
	Promos      []models.PromoCode  `yaml:"promo_codes"`
}

// LoadCatalog reads and validates the catalog seed file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var catalog Catalog
	if err := yamlv2.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	if err := ValidateCatalog(&catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// ValidateCatalog checks referential integrity and value bounds of the seed.
func ValidateCatalog(catalog *Catalog) error {
	expIDs := make(map[string]bool, len(catalog.Experiences))
	for _, exp := range catalog.Experiences {
		if exp.ID == "" {
			return fmt.Errorf("experience %q has empty ID", exp.Title)
		}
		if expIDs[exp.ID] {
			return fmt.Errorf("duplicate experience ID: %s", exp.ID)
		}
		if exp.Price < 0 {
			return fmt.Errorf("experience %s has negative price", exp.ID)
		}
		expIDs[exp.ID] = true
	}

	slotIDs := make(map[string]bool, len(catalog.Slots))
	for _, slot := range catalog.Slots {
		if slot.ID == "" {
			return fmt.Errorf("slot for experience %q has empty ID", slot.ExperienceID)
		}
		if slotIDs[slot.ID] {
			return fmt.Errorf("duplicate slot ID: %s", slot.ID)
		}
		if !expIDs[slot.ExperienceID] {
			return fmt.Errorf("slot %s references unknown experience %s", slot.ID, slot.ExperienceID)
		}
		if slot.TotalSpots < 0 || slot.AvailableSpots > slot.TotalSpots {
			return fmt.Errorf("slot %s has invalid capacity %d/%d", slot.ID, slot.AvailableSpots, slot.TotalSpots)
		}
		slotIDs[slot.ID] = true
	}

	promoCodes := make(map[string]bool, len(catalog.Promos))
	for _, promo := range catalog.Promos {
		if promo.ID == "" || promo.Code == "" {
			return fmt.Errorf("promo %q must have id and code", promo.Code)
		}
		// Codes are matched case-insensitively, so dedupe the same way.
		if promoCodes[strings.ToLower(promo.Code)] {
			return fmt.Errorf("duplicate promo code: %s", promo.Code)
		}
		switch promo.DiscountType {
		case models.DiscountPercentage:
			if promo.DiscountValue <= 0 || promo.DiscountValue > 100 {
				return fmt.Errorf("promo %s percentage must be within (0,100], got %v", promo.Code, promo.DiscountValue)
			}
		case models.DiscountFixed:
			if promo.DiscountValue <= 0 {
				return fmt.Errorf("promo %s fixed discount must be positive, got %v", promo.Code, promo.DiscountValue)
			}
		default:
			return fmt.Errorf("promo %s has unknown discount type %q", promo.Code, promo.DiscountType)
		}
		if promo.MaxUses != nil && *promo.MaxUses < promo.CurrentUses {
			return fmt.Errorf("promo %s current_uses exceeds max_uses", promo.Code)
		}
		promoCodes[strings.ToLower(promo.Code)] = true
	}

	return nil
}
