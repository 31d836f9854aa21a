package models

import (
	"time"

	"github.com/google/uuid"
)

// ScoredTrek is a trek annotated with how it ranked for a user.
type ScoredTrek struct {
	Trek       Trek    `json:"trek"`
	Similarity float64 `json:"similarity"`
	Score      float64 `json:"score"`
}

type RecommendationResponse struct {
	UserID          uuid.UUID    `json:"user_id"`
	Recommendations []ScoredTrek `json:"recommendations"`
	GeneratedAt     time.Time    `json:"generated_at"`
}

type TrekListResponse struct {
	Treks       []Trek    `json:"treks"`
	GeneratedAt time.Time `json:"generated_at"`
	CacheHit    bool      `json:"cache_hit"`
}

// BookingEvent is the booking lifecycle message consumed from Kafka.
// Completed bookings feed the per-trek booking counter used by the
// popular-destinations listing.
type BookingEvent struct {
	BookingID uuid.UUID `json:"booking_id" validate:"required"`
	UserID    uuid.UUID `json:"user_id" validate:"required"`
	TrekID    uuid.UUID `json:"trek_id" validate:"required"`
	Status    string    `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	Timestamp time.Time `json:"timestamp"`
}
