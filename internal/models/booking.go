package models

import "time"

// Booking is one service appointment at a clinic. Status moves only via an
// explicit update; a cancelled booking stays in the store, it is never deleted.
// JSON tags are the persisted schema — do not rename.
type Booking struct {
	ID         string    `json:"id"`
	ClinicName string    `json:"clinicName"`
	UserID     string    `json:"userId"`
	Service    string    `json:"service"`
	Date       string    `json:"date"` // YYYY-MM-DD
	Time       string    `json:"time"` // HH:MM
	Status     string    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Version    int64     `json:"version"`
}
