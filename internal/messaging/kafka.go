package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/trekmandu/trekrec/internal/config"
	"github.com/trekmandu/trekrec/internal/services"
	"github.com/trekmandu/trekrec/internal/validation"
	"github.com/trekmandu/trekrec/pkg/models"
)

const (
	BookingEventsDLQTopic = "booking-events-dlq"
	ConsumerGroup         = "booking-counters"
)

// BookingEventConsumer keeps the per-trek booking counter in step with
// the booking lifecycle. The counter feeds the popular-destinations
// listing; the recommendation engine itself never writes.
type BookingEventConsumer struct {
	reader    *kafka.Reader
	dlqWriter *kafka.Writer
	store     services.TrekStore
	schema    *validation.SchemaValidator
	validator *validator.Validate
	logger    *logrus.Logger
}

func NewBookingEventConsumer(
	cfg *config.Config,
	store services.TrekStore,
	logger *logrus.Logger,
) (*BookingEventConsumer, error) {
	schema, err := validation.NewSchemaValidator()
	if err != nil {
		return nil, err
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.Topics.BookingEvents,
		GroupID:        ConsumerGroup,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	dlqWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        BookingEventsDLQTopic,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &BookingEventConsumer{
		reader:    reader,
		dlqWriter: dlqWriter,
		store:     store,
		schema:    schema,
		validator: validator.New(),
		logger:    logger,
	}, nil
}

// Run consumes booking events until the context is cancelled. Malformed
// payloads go to the DLQ; store failures are retried on the next
// delivery by not being acknowledged past the commit interval.
func (c *BookingEventConsumer) Run(ctx context.Context) error {
	for {
		message, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.WithError(err).Error("Failed to read booking event")
			continue
		}

		if err := c.handleMessage(ctx, message); err != nil {
			c.logger.WithError(err).WithField("offset", message.Offset).
				Error("Failed to handle booking event")
		}
	}
}

func (c *BookingEventConsumer) handleMessage(ctx context.Context, message kafka.Message) error {
	event, err := c.decodeBookingEvent(message.Value)
	if err != nil {
		c.logger.WithError(err).Warn("Rejecting booking event payload")
		return c.sendToDLQ(ctx, message, err.Error())
	}

	// Only completed bookings count toward popularity.
	if event.Status != models.BookingCompleted {
		return nil
	}

	if err := c.store.IncrementBookingCount(ctx, event.TrekID); err != nil {
		return fmt.Errorf("failed to increment booking count: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"booking_id": event.BookingID,
		"trek_id":    event.TrekID,
	}).Debug("Booking count incremented")

	return nil
}

// decodeBookingEvent validates and decodes a raw booking event payload.
// Schema validation rejects malformed JSON and shape errors; struct
// validation catches values the schema cannot express, like the
// all-zero UUID.
func (c *BookingEventConsumer) decodeBookingEvent(payload []byte) (*models.BookingEvent, error) {
	if result := c.schema.ValidateBookingEvent(payload); !result.Valid {
		return nil, fmt.Errorf("schema validation failed: %v", result.Errors)
	}

	var event models.BookingEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}

	if err := c.validator.Struct(&event); err != nil {
		return nil, fmt.Errorf("invalid booking event: %w", err)
	}

	return &event, nil
}

func (c *BookingEventConsumer) sendToDLQ(ctx context.Context, message kafka.Message, reason string) error {
	dlqMessage := kafka.Message{
		Key:   message.Key,
		Value: message.Value,
		Headers: append(message.Headers, kafka.Header{
			Key:   "dlq_reason",
			Value: []byte(reason),
		}),
	}

	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := c.dlqWriter.WriteMessages(writeCtx, dlqMessage); err != nil {
		return fmt.Errorf("failed to write to DLQ: %w", err)
	}
	return nil
}

func (c *BookingEventConsumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return err
	}
	return c.dlqWriter.Close()
}
