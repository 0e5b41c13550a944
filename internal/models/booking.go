package models

import "time"

type Booking struct {
	ID             string    `json:"id"`
	SlotID         string    `json:"slot_id"`
	ExperienceID   string    `json:"experience_id"`
	CustomerName   string    `json:"customer_name"`
	CustomerEmail  string    `json:"customer_email"`
	CustomerPhone  string    `json:"customer_phone"`
	NumberOfGuests int64     `json:"number_of_guests"`
	TotalPrice     float64   `json:"total_price"`
	PromoCode      string    `json:"promo_code,omitempty"`
	DiscountAmount float64   `json:"discount_amount"`
	Status         string    `json:"booking_status"`
	IdempotencyKey string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BookingDetails joins a booking with its experience and slot for the
// confirmation view.
type BookingDetails struct {
	Booking    Booking    `json:"booking"`
	Experience Experience `json:"experience"`
	Slot       Slot       `json:"slot"`
}
