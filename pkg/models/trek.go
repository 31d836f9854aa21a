package models

import (
	"time"

	"github.com/google/uuid"
)

// Trek difficulty levels.
const (
	DifficultyEasy      = "easy"
	DifficultyModerate  = "moderate"
	DifficultyDifficult = "difficult"
	DifficultyExtreme   = "extreme"
)

// Booking lifecycle states.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"
)

type Trek struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name" validate:"required,min=1,max=255"`
	Difficulty   string    `json:"difficulty" db:"difficulty" validate:"omitempty,oneof=easy moderate difficult extreme"`
	Category     string    `json:"category" db:"category"`
	DurationDays int       `json:"duration_days" db:"duration_days" validate:"min=1"`
	Price        float64   `json:"price" db:"price" validate:"min=0"`
	Rating       float64   `json:"rating" db:"rating"`
	RatingCount  int       `json:"rating_count" db:"rating_count"`
	BookingCount int       `json:"booking_count" db:"booking_count"`
	IsApproved   bool      `json:"is_approved" db:"is_approved"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id" validate:"required"`
	TrekID    uuid.UUID `json:"trek_id" db:"trek_id" validate:"required"`
	Rating    int       `json:"rating" db:"rating" validate:"min=1,max=5"`
	Comment   *string   `json:"comment,omitempty" db:"comment"`
	Trek      *Trek     `json:"trek,omitempty" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Booking struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id" validate:"required"`
	TrekID    uuid.UUID `json:"trek_id" db:"trek_id" validate:"required"`
	Status    string    `json:"status" db:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	Trek      *Trek     `json:"trek,omitempty" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// WishlistEntry is a user's saved treks; ordering is not meaningful.
type WishlistEntry struct {
	UserID uuid.UUID `json:"user_id" db:"user_id"`
	Treks  []Trek    `json:"treks" db:"-"`
}
