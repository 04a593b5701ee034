package models

import "time"

// DefaultNotes is stored when a review is added without notes.
const DefaultNotes = "No notes"

type Review struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Notes       string    `json:"notes"`
	ISBN        string    `json:"isbn"`
	Date        time.Time `json:"date"`
	Image       *string   `json:"image"`
}

// ReviewInput is the caller-editable part of a review. Owner, id, date and
// image are always set server-side.
type ReviewInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=10000"`
	Notes       string `json:"notes" validate:"max=10000"`
	ISBN        string `json:"isbn" validate:"max=20"`
}
