package validation

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// bookingEventSchema validates the booking lifecycle messages consumed
// from Kafka before they touch the booking counter.
const bookingEventSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["booking_id", "user_id", "trek_id", "status"],
	"properties": {
		"booking_id": {"type": "string", "format": "uuid"},
		"user_id": {"type": "string", "format": "uuid"},
		"trek_id": {"type": "string", "format": "uuid"},
		"status": {
			"type": "string",
			"enum": ["pending", "confirmed", "cancelled", "completed"]
		},
		"timestamp": {"type": "string", "format": "date-time"}
	},
	"additionalProperties": true
}`

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// SchemaValidator handles JSON schema validation for messages and
// request payloads.
type SchemaValidator struct {
	bookingEvent *gojsonschema.Schema
}

func NewSchemaValidator() (*SchemaValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(bookingEventSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile booking event schema: %w", err)
	}

	return &SchemaValidator{bookingEvent: schema}, nil
}

// ValidateBookingEvent validates a raw booking event payload.
func (sv *SchemaValidator) ValidateBookingEvent(data interface{}) *ValidationResult {
	return validate(sv.bookingEvent, data)
}

func validate(schema *gojsonschema.Schema, data interface{}) *ValidationResult {
	var documentLoader gojsonschema.JSONLoader
	switch v := data.(type) {
	case string:
		documentLoader = gojsonschema.NewStringLoader(v)
	case []byte:
		documentLoader = gojsonschema.NewBytesLoader(v)
	default:
		jsonBytes, err := json.Marshal(data)
		if err != nil {
			return &ValidationResult{
				Valid: false,
				Errors: []ValidationError{{
					Field:   "data",
					Message: fmt.Sprintf("Failed to marshal data to JSON: %v", err),
				}},
			}
		}
		documentLoader = gojsonschema.NewBytesLoader(jsonBytes)
	}

	result, err := schema.Validate(documentLoader)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "document",
				Message: fmt.Sprintf("Validation error: %v", err),
			}},
		}
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	vr := &ValidationResult{Valid: false}
	for _, resultError := range result.Errors() {
		vr.Errors = append(vr.Errors, ValidationError{
			Field:   resultError.Field(),
			Message: resultError.Description(),
		})
	}
	return vr
}
