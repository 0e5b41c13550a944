package models

import "time"

// Slot is a bookable instance of an experience at a specific date and time.
// AvailableSpots only decreases through successful booking commits and never
// goes below zero.
type Slot struct {
	ID             string    `yaml:"id" json:"id"`
	ExperienceID   string    `yaml:"experience_id" json:"experience_id"`
	Date           time.Time `yaml:"date" json:"date"`
	Time           string    `yaml:"time" json:"time"`
	TotalSpots     int64     `yaml:"total_spots" json:"total_spots"`
	AvailableSpots int64     `yaml:"available_spots" json:"available_spots"`
	CreatedAt      time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt      time.Time `yaml:"updated_at" json:"updated_at"`
}

// DayAvailability aggregates open spots for one experience on one date.
type DayAvailability struct {
	Date         time.Time `json:"date"`
	ExperienceID string    `json:"experience_id"`
	OpenSlots    int       `json:"open_slots"`
	OpenSpots    int64     `json:"open_spots"`
}
