package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/trekmandu/trekrec/internal/services"
	"github.com/trekmandu/trekrec/pkg/models"
)

var (
	recommendationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trekrec_recommendation_requests_total",
		Help: "Recommendation requests by listing type and outcome",
	}, []string{"type", "outcome"})

	recommendationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trekrec_recommendation_duration_seconds",
		Help:    "Time spent generating a personalized ranking",
		Buckets: prometheus.DefBuckets,
	})
)

type RecommendationHandler struct {
	engine *services.RecommendationEngine
	logger *logrus.Logger
}

func NewRecommendationHandler(engine *services.RecommendationEngine, logger *logrus.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		engine: engine,
		logger: logger,
	}
}

// Get serves the personalized ranking for one user.
func (h *RecommendationHandler) Get(c *gin.Context) {
	userIDStr := c.Param("userId")
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		recommendationRequests.WithLabelValues("personalized", "caller_error").Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_USER_ID",
				"message": "Invalid user ID format",
			},
		})
		return
	}

	limit := parseLimit(c)

	start := time.Now()
	scored, err := h.engine.Recommend(c.Request.Context(), userID, limit)
	recommendationLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, services.ErrUserRequired) {
			recommendationRequests.WithLabelValues("personalized", "caller_error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "USER_REQUIRED",
					"message": "A user ID is required for personalized recommendations",
				},
			})
			return
		}

		recommendationRequests.WithLabelValues("personalized", "error").Inc()
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to generate recommendations")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "RECOMMENDATION_GENERATION_FAILED",
				"message": "Failed to generate recommendations",
			},
		})
		return
	}

	recommendationRequests.WithLabelValues("personalized", "ok").Inc()
	c.JSON(http.StatusOK, models.RecommendationResponse{
		UserID:          userID,
		Recommendations: scored,
		GeneratedAt:     time.Now(),
	})
}

// Trending serves the non-personalized fallback listing by review volume.
func (h *RecommendationHandler) Trending(c *gin.Context) {
	h.listing(c, "trending", h.engine.Trending)
}

// Popular serves the non-personalized fallback listing by booking volume.
func (h *RecommendationHandler) Popular(c *gin.Context) {
	h.listing(c, "popular", h.engine.Popular)
}

func (h *RecommendationHandler) listing(
	c *gin.Context,
	name string,
	fetch func(ctx context.Context, limit int) ([]models.Trek, bool, error),
) {
	limit := parseLimit(c)

	treks, cacheHit, err := fetch(c.Request.Context(), limit)
	if err != nil {
		recommendationRequests.WithLabelValues(name, "error").Inc()
		h.logger.WithError(err).Errorf("Failed to load %s treks", name)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "LISTING_FAILED",
				"message": "Failed to load trek listing",
			},
		})
		return
	}

	recommendationRequests.WithLabelValues(name, "ok").Inc()
	c.JSON(http.StatusOK, models.TrekListResponse{
		Treks:       treks,
		GeneratedAt: time.Now(),
		CacheHit:    cacheHit,
	})
}

func parseLimit(c *gin.Context) int {
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			return parsed
		}
	}
	return 0 // engine substitutes its configured default
}
