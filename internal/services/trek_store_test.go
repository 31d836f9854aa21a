package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trekRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "name", "difficulty", "category", "duration_days", "price",
		"rating", "rating_count", "booking_count", "is_approved",
		"created_at", "updated_at",
	})
}

func newStoreTest(t *testing.T) (pgxmock.PgxPoolIface, *PostgresTrekStore) {
	t.Helper()

	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockDB.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	return mockDB, NewPostgresTrekStore(mockDB, logger)
}

func TestPostgresTrekStore_FindApprovedTreks(t *testing.T) {
	mockDB, store := newStoreTest(t)

	now := time.Now()
	id1, id2 := uuid.New(), uuid.New()

	rows := trekRows().
		AddRow(id1, "Annapurna Circuit", "difficult", "trekking", 18, 1200.0, 4.8, 120, 45, true, now, now).
		AddRow(id2, "Poon Hill", "easy", "hiking", 4, 180.0, 4.3, 60, 30, true, now, now)

	mockDB.ExpectQuery("SELECT").WillReturnRows(rows)

	treks, err := store.FindApprovedTreks(context.Background())

	require.NoError(t, err)
	require.Len(t, treks, 2)
	assert.Equal(t, id1, treks[0].ID)
	assert.Equal(t, "Annapurna Circuit", treks[0].Name)
	assert.Equal(t, 18, treks[0].DurationDays)
	assert.True(t, treks[1].IsApproved)

	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestPostgresTrekStore_FindTrekByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mockDB, store := newStoreTest(t)

		now := time.Now()
		id := uuid.New()
		rows := trekRows().
			AddRow(id, "Manaslu Circuit", "extreme", "mountain climbing", 16, 1600.0, 4.9, 40, 12, true, now, now)

		mockDB.ExpectQuery("SELECT").WithArgs(id).WillReturnRows(rows)

		trek, err := store.FindTrekByID(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, "Manaslu Circuit", trek.Name)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mockDB, store := newStoreTest(t)

		id := uuid.New()
		mockDB.ExpectQuery("SELECT").WithArgs(id).WillReturnRows(trekRows())

		_, err := store.FindTrekByID(context.Background(), id)

		require.ErrorIs(t, err, ErrTrekNotFound)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestPostgresTrekStore_FindReviewsByUser(t *testing.T) {
	mockDB, store := newStoreTest(t)

	now := time.Now()
	userID, trekID := uuid.New(), uuid.New()

	rows := pgxmock.NewRows([]string{
		"id", "user_id", "trek_id", "rating", "comment", "created_at",
		"t_id", "name", "difficulty", "category", "duration_days", "price",
		"t_rating", "rating_count", "booking_count", "is_approved",
		"t_created_at", "t_updated_at",
	}).AddRow(
		uuid.New(), userID, trekID, 5, nil, now,
		trekID, "Langtang Valley", "moderate", "trekking", 8, 450.0,
		4.6, 31, 14, true, now, now,
	)

	mockDB.ExpectQuery("SELECT").WithArgs(userID).WillReturnRows(rows)

	reviews, err := store.FindReviewsByUser(context.Background(), userID)

	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)
	require.NotNil(t, reviews[0].Trek)
	assert.Equal(t, trekID, reviews[0].Trek.ID)
	assert.Equal(t, "Langtang Valley", reviews[0].Trek.Name)

	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestPostgresTrekStore_FindWishlistByUser(t *testing.T) {
	t.Run("empty wishlist is not an error", func(t *testing.T) {
		mockDB, store := newStoreTest(t)

		userID := uuid.New()
		mockDB.ExpectQuery("SELECT").WithArgs(userID).WillReturnRows(trekRows())

		entry, err := store.FindWishlistByUser(context.Background(), userID)

		require.NoError(t, err)
		assert.Equal(t, userID, entry.UserID)
		assert.Empty(t, entry.Treks)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestPostgresTrekStore_IncrementBookingCount(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockDB, store := newStoreTest(t)

		trekID := uuid.New()
		mockDB.ExpectExec("UPDATE treks").WithArgs(trekID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, store.IncrementBookingCount(context.Background(), trekID))
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("unknown trek", func(t *testing.T) {
		mockDB, store := newStoreTest(t)

		trekID := uuid.New()
		mockDB.ExpectExec("UPDATE treks").WithArgs(trekID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := store.IncrementBookingCount(context.Background(), trekID)

		require.ErrorIs(t, err, ErrTrekNotFound)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})
}
