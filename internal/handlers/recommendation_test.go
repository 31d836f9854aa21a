package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trekmandu/trekrec/internal/config"
	"github.com/trekmandu/trekrec/internal/services"
	"github.com/trekmandu/trekrec/pkg/models"
)

type stubTrekStore struct {
	treks []models.Trek
}

func (s *stubTrekStore) FindApprovedTreks(ctx context.Context) ([]models.Trek, error) {
	return s.treks, nil
}

func (s *stubTrekStore) FindTrekByID(ctx context.Context, id uuid.UUID) (*models.Trek, error) {
	return nil, services.ErrTrekNotFound
}

func (s *stubTrekStore) FindReviewsByUser(ctx context.Context, userID uuid.UUID) ([]models.Review, error) {
	return nil, nil
}

func (s *stubTrekStore) FindBookingsByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	return nil, nil
}

func (s *stubTrekStore) FindWishlistByUser(ctx context.Context, userID uuid.UUID) (*models.WishlistEntry, error) {
	return &models.WishlistEntry{UserID: userID}, nil
}

func (s *stubTrekStore) FindTrendingTreks(ctx context.Context, limit int) ([]models.Trek, error) {
	if len(s.treks) > limit {
		return s.treks[:limit], nil
	}
	return s.treks, nil
}

func (s *stubTrekStore) FindPopularTreks(ctx context.Context, limit int) ([]models.Trek, error) {
	return s.FindTrendingTreks(ctx, limit)
}

func (s *stubTrekStore) IncrementBookingCount(ctx context.Context, trekID uuid.UUID) error {
	return nil
}

func setupTestRouter(store services.TrekStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	engine := services.NewRecommendationEngine(store, nil, &config.EngineConfig{
		ReviewDefaultWeight:    3,
		BookingCompletedWeight: 4,
		BookingOtherWeight:     3,
		WishlistWeight:         2,
		DefaultLimit:           5,
		MaxLimit:               50,
		ListingsTTL:            time.Minute,
	}, logger)
	handler := NewRecommendationHandler(engine, logger)

	router := gin.New()
	router.GET("/api/v1/recommendations/:userId", handler.Get)
	router.GET("/api/v1/treks/trending", handler.Trending)
	router.GET("/api/v1/treks/popular", handler.Popular)
	return router
}

func testTreks(n int) []models.Trek {
	var treks []models.Trek
	for i := 0; i < n; i++ {
		treks = append(treks, models.Trek{
			ID:           uuid.New(),
			Name:         "Trek",
			Difficulty:   "moderate",
			Category:     "trekking",
			DurationDays: 5 + i,
			Price:        300,
			Rating:       4,
			RatingCount:  10 + i,
			IsApproved:   true,
		})
	}
	return treks
}

func TestRecommendationHandler_Get(t *testing.T) {
	router := setupTestRouter(&stubTrekStore{treks: testTreks(8)})

	t.Run("invalid user id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/not-a-uuid", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_USER_ID")
	})

	t.Run("personalized ranking", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/recommendations/"+uuid.NewString()+"?limit=3", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var response models.RecommendationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.LessOrEqual(t, len(response.Recommendations), 3)
		assert.NotEmpty(t, response.Recommendations)
	})
}

func TestRecommendationHandler_Listings(t *testing.T) {
	router := setupTestRouter(&stubTrekStore{treks: testTreks(8)})

	for _, path := range []string{"/api/v1/treks/trending", "/api/v1/treks/popular"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path+"?limit=2", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, path)

		var response models.TrekListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Treks, 2, path)
		assert.False(t, response.CacheHit, path)
	}
}

func TestRecommendationHandler_ListingCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	handler := &RecommendationHandler{logger: logger}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/treks/trending", nil)

	treks := testTreks(2)
	handler.listing(c, "trending", func(ctx context.Context, limit int) ([]models.Trek, bool, error) {
		return treks, true, nil
	})

	require.Equal(t, http.StatusOK, w.Code)

	var response models.TrekListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.CacheHit)
	assert.Len(t, response.Treks, 2)
}
