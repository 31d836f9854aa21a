package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/trekmandu/trekrec/pkg/models"
)

// ErrTrekNotFound is returned when a trek lookup matches no row.
var ErrTrekNotFound = errors.New("trek not found")

// DatabaseQuerier interface for database operations
type DatabaseQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// TrekStore is the read-only data-access surface the recommendation
// engine consumes. IncrementBookingCount is the one write, driven by the
// booking event consumer rather than the engine.
type TrekStore interface {
	FindApprovedTreks(ctx context.Context) ([]models.Trek, error)
	FindTrekByID(ctx context.Context, id uuid.UUID) (*models.Trek, error)
	FindReviewsByUser(ctx context.Context, userID uuid.UUID) ([]models.Review, error)
	FindBookingsByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
	FindWishlistByUser(ctx context.Context, userID uuid.UUID) (*models.WishlistEntry, error)
	FindTrendingTreks(ctx context.Context, limit int) ([]models.Trek, error)
	FindPopularTreks(ctx context.Context, limit int) ([]models.Trek, error)
	IncrementBookingCount(ctx context.Context, trekID uuid.UUID) error
}

// PostgresTrekStore implements TrekStore on top of pgx.
type PostgresTrekStore struct {
	db     DatabaseQuerier
	logger *logrus.Logger
}

func NewPostgresTrekStore(db DatabaseQuerier, logger *logrus.Logger) *PostgresTrekStore {
	return &PostgresTrekStore{
		db:     db,
		logger: logger,
	}
}

const trekColumns = `
	t.id, t.name, t.difficulty, t.category, t.duration_days, t.price,
	t.rating, t.rating_count, t.booking_count, t.is_approved,
	t.created_at, t.updated_at`

func scanTrek(rows pgx.Rows) (models.Trek, error) {
	var t models.Trek
	err := rows.Scan(
		&t.ID, &t.Name, &t.Difficulty, &t.Category, &t.DurationDays, &t.Price,
		&t.Rating, &t.RatingCount, &t.BookingCount, &t.IsApproved,
		&t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (s *PostgresTrekStore) FindApprovedTreks(ctx context.Context) ([]models.Trek, error) {
	query := `
		SELECT ` + trekColumns + `
		FROM treks t
		WHERE t.is_approved = true`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("approved treks query failed: %w", err)
	}
	defer rows.Close()

	var treks []models.Trek
	for rows.Next() {
		trek, err := scanTrek(rows)
		if err != nil {
			s.logger.WithError(err).Error("Failed to scan trek row")
			continue
		}
		treks = append(treks, trek)
	}

	return treks, rows.Err()
}

func (s *PostgresTrekStore) FindTrekByID(ctx context.Context, id uuid.UUID) (*models.Trek, error) {
	query := `
		SELECT ` + trekColumns + `
		FROM treks t
		WHERE t.id = $1`

	rows, err := s.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("trek lookup failed: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrTrekNotFound
	}

	trek, err := scanTrek(rows)
	if err != nil {
		return nil, err
	}
	return &trek, nil
}

// FindReviewsByUser returns the user's reviews with the reviewed trek
// resolved onto each row.
func (s *PostgresTrekStore) FindReviewsByUser(ctx context.Context, userID uuid.UUID) ([]models.Review, error) {
	query := `
		SELECT r.id, r.user_id, r.trek_id, r.rating, r.comment, r.created_at,
		` + trekColumns + `
		FROM reviews r
		JOIN treks t ON t.id = r.trek_id
		WHERE r.user_id = $1`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("reviews query failed: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var r models.Review
		var t models.Trek
		err := rows.Scan(
			&r.ID, &r.UserID, &r.TrekID, &r.Rating, &r.Comment, &r.CreatedAt,
			&t.ID, &t.Name, &t.Difficulty, &t.Category, &t.DurationDays, &t.Price,
			&t.Rating, &t.RatingCount, &t.BookingCount, &t.IsApproved,
			&t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			s.logger.WithError(err).Error("Failed to scan review row")
			continue
		}
		r.Trek = &t
		reviews = append(reviews, r)
	}

	return reviews, rows.Err()
}

// FindBookingsByUser returns the user's bookings with the booked trek
// resolved onto each row.
func (s *PostgresTrekStore) FindBookingsByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	query := `
		SELECT b.id, b.user_id, b.trek_id, b.status, b.created_at,
		` + trekColumns + `
		FROM bookings b
		JOIN treks t ON t.id = b.trek_id
		WHERE b.user_id = $1`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("bookings query failed: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		var t models.Trek
		err := rows.Scan(
			&b.ID, &b.UserID, &b.TrekID, &b.Status, &b.CreatedAt,
			&t.ID, &t.Name, &t.Difficulty, &t.Category, &t.DurationDays, &t.Price,
			&t.Rating, &t.RatingCount, &t.BookingCount, &t.IsApproved,
			&t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			s.logger.WithError(err).Error("Failed to scan booking row")
			continue
		}
		b.Trek = &t
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

// FindWishlistByUser resolves every trek on the user's wishlist. A user
// with no wishlist rows gets an entry with an empty trek list, not an
// error.
func (s *PostgresTrekStore) FindWishlistByUser(ctx context.Context, userID uuid.UUID) (*models.WishlistEntry, error) {
	query := `
		SELECT ` + trekColumns + `
		FROM wishlist_items w
		JOIN treks t ON t.id = w.trek_id
		WHERE w.user_id = $1`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("wishlist query failed: %w", err)
	}
	defer rows.Close()

	entry := &models.WishlistEntry{UserID: userID}
	for rows.Next() {
		trek, err := scanTrek(rows)
		if err != nil {
			s.logger.WithError(err).Error("Failed to scan wishlist trek row")
			continue
		}
		entry.Treks = append(entry.Treks, trek)
	}

	return entry, rows.Err()
}

func (s *PostgresTrekStore) FindTrendingTreks(ctx context.Context, limit int) ([]models.Trek, error) {
	query := `
		SELECT ` + trekColumns + `
		FROM treks t
		WHERE t.is_approved = true
		ORDER BY t.rating_count DESC, t.rating DESC
		LIMIT $1`

	return s.findOrderedTreks(ctx, query, limit)
}

func (s *PostgresTrekStore) FindPopularTreks(ctx context.Context, limit int) ([]models.Trek, error) {
	query := `
		SELECT ` + trekColumns + `
		FROM treks t
		WHERE t.is_approved = true
		ORDER BY t.booking_count DESC, t.rating DESC
		LIMIT $1`

	return s.findOrderedTreks(ctx, query, limit)
}

func (s *PostgresTrekStore) findOrderedTreks(ctx context.Context, query string, limit int) ([]models.Trek, error) {
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("trek listing query failed: %w", err)
	}
	defer rows.Close()

	var treks []models.Trek
	for rows.Next() {
		trek, err := scanTrek(rows)
		if err != nil {
			s.logger.WithError(err).Error("Failed to scan trek row")
			continue
		}
		treks = append(treks, trek)
	}

	return treks, rows.Err()
}

func (s *PostgresTrekStore) IncrementBookingCount(ctx context.Context, trekID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE treks SET booking_count = booking_count + 1, updated_at = now() WHERE id = $1`,
		trekID,
	)
	if err != nil {
		return fmt.Errorf("booking count update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTrekNotFound
	}
	return nil
}
