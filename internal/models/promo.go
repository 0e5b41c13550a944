package models

import "time"

// PromoCode discount types.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// PromoCode is a discount code with a validity window and usage ceiling.
// MaxUses == nil means unlimited. CurrentUses is mutated only at booking
// commit time, never during validation.
type PromoCode struct {
	ID            string    `yaml:"id" json:"id"`
	Code          string    `yaml:"code" json:"code"`
	DiscountType  string    `yaml:"discount_type" json:"discount_type"`
	DiscountValue float64   `yaml:"discount_value" json:"discount_value"`
	ValidFrom     time.Time `yaml:"valid_from" json:"valid_from"`
	ValidUntil    time.Time `yaml:"valid_until" json:"valid_until"`
	MaxUses       *int64    `yaml:"max_uses" json:"max_uses,omitempty"`
	CurrentUses   int64     `yaml:"current_uses" json:"current_uses"`
	IsActive      bool      `yaml:"is_active" json:"is_active"`
	CreatedAt     time.Time `yaml:"created_at" json:"created_at"`
}

// Exhausted reports whether the usage ceiling has been reached.
func (p *PromoCode) Exhausted() bool {
	return p.MaxUses != nil && p.CurrentUses >= *p.MaxUses
}

// PromoVerdict is the outcome of validating a promo code.
type PromoVerdict string

const (
	PromoValid     PromoVerdict = "valid"
	PromoNotFound  PromoVerdict = "not_found"
	PromoExpired   PromoVerdict = "expired"
	PromoExhausted PromoVerdict = "exhausted"
	PromoInactive  PromoVerdict = "inactive"
	PromoUpcoming  PromoVerdict = "upcoming"
)
