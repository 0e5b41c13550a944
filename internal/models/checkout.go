package models

import "time"

// CheckoutState is the in-progress form state of one checkout session.
// Nothing here reserves capacity; abandoning a session leaves no residual
// state once the TTL expires.
type CheckoutState struct {
	SessionID     string    `json:"session_id"`
	ExperienceID  string    `json:"experience_id"`
	SlotID        string    `json:"slot_id"`
	Guests        int64     `json:"guests"`
	PromoCode     string    `json:"promo_code,omitempty"`
	PromoVerdict  string    `json:"promo_verdict,omitempty"`
	SelectedDate  time.Time `json:"selected_date"`
	CustomerName  string    `json:"customer_name,omitempty"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}
