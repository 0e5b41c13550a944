package models

import "time"

// Experience is an immutable catalog entry. The catalog is owned by an
// external management process; this core only reads it.
type Experience struct {
	ID               string    `yaml:"id" json:"id"`
	Title            string    `yaml:"title" json:"title"`
	ShortDescription string    `yaml:"short_description" json:"short_description"`
	Description      string    `yaml:"description" json:"description"`
	Location         string    `yaml:"location" json:"location"`
	DurationHours    float64   `yaml:"duration" json:"duration"`
	Price            float64   `yaml:"price" json:"price"`
	Rating           float64   `yaml:"rating" json:"rating"`
	TotalReviews     int64     `yaml:"total_reviews" json:"total_reviews"`
	Category         string    `yaml:"category" json:"category"`
	ImageURL         string    `yaml:"image_url" json:"image_url"`
	Highlights       []string  `yaml:"highlights" json:"highlights,omitempty"`
	WhatToBring      []string  `yaml:"what_to_bring" json:"what_to_bring,omitempty"`
	CreatedAt        time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt        time.Time `yaml:"updated_at" json:"updated_at"`
}
