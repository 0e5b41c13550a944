package pricing

import (
	"testing"

	"wanderbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64ptr(v int64) *int64 { return &v }

func TestCalculate_NoPromo(t *testing.T) {
	q, err := Calculate(50.00, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 150.00, q.Base)
	assert.Equal(t, 0.0, q.Discount)
	assert.Equal(t, 150.00, q.Total)
}

func TestCalculate_PercentagePromo(t *testing.T) {
	promo := &models.PromoCode{
		Code:          "SAVE10",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 10,
	}

	q, err := Calculate(50.00, 3, promo)
	require.NoError(t, err)

	q = q.Rounded()
	assert.Equal(t, 150.00, q.Base)
	assert.Equal(t, 15.00, q.Discount)
	assert.Equal(t, 135.00, q.Total)
}

func TestCalculate_FixedPromoClampsToZero(t *testing.T) {
	promo := &models.PromoCode{
		Code:          "BIGFIX",
		DiscountType:  models.DiscountFixed,
		DiscountValue: 100.00,
	}

	q, err := Calculate(20.00, 2, promo)
	require.NoError(t, err)

	q = q.Rounded()
	assert.Equal(t, 40.00, q.Base)
	assert.Equal(t, 100.00, q.Discount)
	assert.Equal(t, 0.00, q.Total, "total must clamp to zero, never negative")
}

func TestCalculate_PercentageOutOfRange(t *testing.T) {
	for _, value := range []float64{-1, 100.5, 250} {
		promo := &models.PromoCode{
			DiscountType:  models.DiscountPercentage,
			DiscountValue: value,
		}
		_, err := Calculate(10, 1, promo)
		assert.Error(t, err, "percentage %v should be rejected", value)
	}
}

func TestCalculate_InvalidInputs(t *testing.T) {
	_, err := Calculate(-1, 1, nil)
	assert.Error(t, err)

	_, err = Calculate(10, 0, nil)
	assert.Error(t, err)

	_, err = Calculate(10, 2, &models.PromoCode{DiscountType: "bogus", DiscountValue: 5})
	assert.Error(t, err)
}

func TestCalculate_TotalIdentityWithoutPromo(t *testing.T) {
	cases := []struct {
		price  float64
		guests int64
	}{
		{0, 1},
		{19.99, 1},
		{33.33, 3},
		{120.50, 7},
		{75.00, 20},
	}

	for _, tc := range cases {
		q, err := Calculate(tc.price, tc.guests, nil)
		require.NoError(t, err)
		assert.Equal(t, Round2(tc.price*float64(tc.guests)), Round2(q.Total))
	}
}

func TestCalculate_RoundingOnlyAtEdges(t *testing.T) {
	// 3 guests at 33.33 with 10% off: intermediate values keep full precision,
	// only the rounded view snaps to cents.
	promo := &models.PromoCode{DiscountType: models.DiscountPercentage, DiscountValue: 10}
	q, err := Calculate(33.33, 3, promo)
	require.NoError(t, err)

	assert.InDelta(t, 9.999, q.Discount, 1e-9)
	rounded := q.Rounded()
	assert.Equal(t, 10.00, rounded.Discount)
	assert.Equal(t, 89.99, rounded.Total)
}

func TestCalculate_FixedDiscountExceedsBaseNeverNegative(t *testing.T) {
	promo := &models.PromoCode{DiscountType: models.DiscountFixed, DiscountValue: 500, MaxUses: int64ptr(5)}
	for _, price := range []float64{0, 1, 49.99, 499.99} {
		q, err := Calculate(price, 1, promo)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, q.Total, 0.0)
	}
}
