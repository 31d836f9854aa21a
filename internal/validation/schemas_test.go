package validation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trekmandu/trekrec/pkg/models"
)

func TestValidateBookingEvent(t *testing.T) {
	validator, err := NewSchemaValidator()
	require.NoError(t, err)

	t.Run("valid event", func(t *testing.T) {
		event := models.BookingEvent{
			BookingID: uuid.New(),
			UserID:    uuid.New(),
			TrekID:    uuid.New(),
			Status:    models.BookingCompleted,
		}

		result := validator.ValidateBookingEvent(event)

		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
	})

	t.Run("missing trek id", func(t *testing.T) {
		payload := `{"booking_id":"` + uuid.NewString() + `","user_id":"` + uuid.NewString() + `","status":"completed"}`

		result := validator.ValidateBookingEvent(payload)

		assert.False(t, result.Valid)
		assert.NotEmpty(t, result.Errors)
	})

	t.Run("unknown status", func(t *testing.T) {
		payload := `{"booking_id":"` + uuid.NewString() + `","user_id":"` + uuid.NewString() +
			`","trek_id":"` + uuid.NewString() + `","status":"refunded"}`

		result := validator.ValidateBookingEvent(payload)

		assert.False(t, result.Valid)
	})

	t.Run("malformed json", func(t *testing.T) {
		result := validator.ValidateBookingEvent("{not json")

		assert.False(t, result.Valid)
	})
}
