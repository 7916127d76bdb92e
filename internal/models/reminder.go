package models

import "time"

// Reminder is a scheduled one-shot WhatsApp reminder for a single chat.
// Records are never deleted; delivered ones are kept as history.
type Reminder struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"` // WhatsApp number of the chat that created it
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Date        string     `json:"date"` // DD/MM/YYYY
	Time        string     `json:"time"` // HH:MM, 24h
	Delivered   bool       `json:"delivered"`
	CreatedAt   time.Time  `json:"created_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}
