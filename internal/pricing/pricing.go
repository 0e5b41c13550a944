package pricing

import (
	"fmt"
	"math"

	"wanderbook/internal/models"
)

// Quote is a price breakdown for a guest count against a price per person,
// with an optional promo discount already applied. Amounts are kept at full
// precision; rounding to currency happens only at the edges via Round2.
type Quote struct {
	Base     float64 `json:"base"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// Rounded returns the quote with every amount rounded to 2 decimal places,
// for display or persistence.
func (q Quote) Rounded() Quote {
	return Quote{
		Base:     Round2(q.Base),
		Discount: Round2(q.Discount),
		Total:    Round2(q.Total),
	}
}

// Calculate derives base, discount and total for the given inputs. promo may
// be nil. The total is clamped at zero: a fixed discount larger than the base
// never produces a negative price.
func Calculate(pricePerPerson float64, guests int64, promo *models.PromoCode) (Quote, error) {
	if pricePerPerson < 0 {
		return Quote{}, fmt.Errorf("price per person must be non-negative, got %v", pricePerPerson)
	}
	if guests < 1 {
		return Quote{}, fmt.Errorf("guest count must be at least 1, got %d", guests)
	}

	base := pricePerPerson * float64(guests)

	var discount float64
	if promo != nil {
		switch promo.DiscountType {
		case models.DiscountPercentage:
			if promo.DiscountValue < 0 || promo.DiscountValue > 100 {
				return Quote{}, fmt.Errorf("percentage discount must be within [0,100], got %v", promo.DiscountValue)
			}
			discount = base * promo.DiscountValue / 100
		case models.DiscountFixed:
			if promo.DiscountValue <= 0 {
				return Quote{}, fmt.Errorf("fixed discount must be positive, got %v", promo.DiscountValue)
			}
			discount = promo.DiscountValue
		default:
			return Quote{}, fmt.Errorf("unknown discount type %q", promo.DiscountType)
		}
	}

	total := base - discount
	if total < 0 {
		total = 0
	}

	return Quote{Base: base, Discount: discount, Total: total}, nil
}

// Round2 rounds to 2 decimal places (currency precision).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
