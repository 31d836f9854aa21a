package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/gonum/floats"

	"github.com/trekmandu/trekrec/internal/config"
	"github.com/trekmandu/trekrec/pkg/models"
)

// ErrUserRequired is returned when a personalized recommendation is
// requested without a user identity. Callers should redirect to the
// trending or popular listings instead.
var ErrUserRequired = errors.New("user id is required for personalized recommendations")

// trekVectorDim is the fixed length of every trek feature vector:
// difficulty weight, category weight, ln(duration+1), ln(price+1),
// rating, ln(ratingCount+1).
const trekVectorDim = 6

var difficultyWeights = map[string]float64{
	"easy":      1,
	"moderate":  2,
	"difficult": 3,
	"extreme":   4,
}

var categoryWeights = map[string]float64{
	"hiking":               1,
	"trekking":             2,
	"mountain climbing":    3,
	"camping":              1,
	"international travel": 2,
	"adventure travel":     2,
	"wildlife safari":      2,
}

// neutralVector sits near the middle of each dimension's typical range.
// It is the fallback of last resort when even the approved-trek centroid
// cannot be computed.
var neutralVector = []float64{2, 2, 2, 7, 4, 3}

// RecommendationEngine ranks approved treks for a user by cosine
// similarity between the trek's feature vector and a weighted centroid
// of the user's interaction history. It holds no per-request state;
// every call recomputes from the store.
type RecommendationEngine struct {
	store  TrekStore
	redis  *redis.Client // warm cache for the fallback listings
	config *config.EngineConfig
	logger *logrus.Logger
}

func NewRecommendationEngine(
	store TrekStore,
	redis *redis.Client,
	config *config.EngineConfig,
	logger *logrus.Logger,
) *RecommendationEngine {
	return &RecommendationEngine{
		store:  store,
		redis:  redis,
		config: config,
		logger: logger,
	}
}

// VectorizeTrek encodes a trek into its feature vector. A nil or
// malformed trek yields the zero vector so that one bad record cannot
// abort a batch ranking pass.
func (e *RecommendationEngine) VectorizeTrek(trek *models.Trek) []float64 {
	vector := make([]float64, trekVectorDim)
	if trek == nil {
		e.logger.Warn("Vectorizing nil trek, using zero vector")
		return vector
	}

	vector[0] = difficultyWeights[foldLabel(trek.Difficulty)]
	vector[1] = categoryWeights[foldLabel(trek.Category)]
	vector[2] = math.Log(float64(trek.DurationDays) + 1)
	vector[3] = math.Log(trek.Price + 1)
	vector[4] = trek.Rating
	vector[5] = math.Log(float64(trek.RatingCount) + 1)

	// Negative durations or prices drive the log terms to NaN. A
	// non-finite component would poison every centroid the vector is
	// summed into, so the whole record degrades to the zero vector.
	for _, component := range vector {
		if math.IsNaN(component) || math.IsInf(component, 0) {
			e.logger.WithField("trek_id", trek.ID).
				Warn("Vectorizing malformed trek, using zero vector")
			return make([]float64, trekVectorDim)
		}
	}

	return vector
}

// foldLabel lowercases an enum label for the weight-table lookups.
// Unicode case folding keeps lookups stable for labels entered through
// the marketplace admin screens.
func foldLabel(s string) string {
	return cases.Lower(language.Und).String(s)
}

// userHistory is one user's interaction records with their treks
// resolved, gathered in a single pass.
type userHistory struct {
	reviews  []models.Review
	bookings []models.Booking
	wishlist *models.WishlistEntry
}

func (h *userHistory) empty() bool {
	return len(h.reviews) == 0 && len(h.bookings) == 0 &&
		(h.wishlist == nil || len(h.wishlist.Treks) == 0)
}

// trekIDs returns every trek the user has already reviewed, booked or
// wishlisted.
func (h *userHistory) trekIDs() map[uuid.UUID]bool {
	seen := make(map[uuid.UUID]bool)
	for _, r := range h.reviews {
		seen[r.TrekID] = true
	}
	for _, b := range h.bookings {
		seen[b.TrekID] = true
	}
	if h.wishlist != nil {
		for _, t := range h.wishlist.Treks {
			seen[t.ID] = true
		}
	}
	return seen
}

// fetchUserHistory issues the three independent history reads
// concurrently. The reads share no state, so each goroutine writes only
// its own result slot.
func (e *RecommendationEngine) fetchUserHistory(ctx context.Context, userID uuid.UUID) (*userHistory, error) {
	var (
		wg          sync.WaitGroup
		history     userHistory
		reviewsErr  error
		bookingsErr error
		wishlistErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		history.reviews, reviewsErr = e.store.FindReviewsByUser(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		history.bookings, bookingsErr = e.store.FindBookingsByUser(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		history.wishlist, wishlistErr = e.store.FindWishlistByUser(ctx, userID)
	}()
	wg.Wait()

	if err := errors.Join(reviewsErr, bookingsErr, wishlistErr); err != nil {
		return nil, fmt.Errorf("failed to load interaction history: %w", err)
	}

	return &history, nil
}

// UserVector computes the user's taste profile as a weighted centroid of
// the treks they have interacted with. A user with no history, or whose
// history cannot be read, gets the average-trek vector so that
// personalization degrades instead of failing.
func (e *RecommendationEngine) UserVector(ctx context.Context, userID uuid.UUID) []float64 {
	history, err := e.fetchUserHistory(ctx, userID)
	if err != nil {
		e.logger.WithError(err).WithField("user_id", userID).
			Warn("Falling back to average trek vector")
		return e.AverageTrekVector(ctx)
	}
	return e.vectorFromHistory(ctx, history)
}

func (e *RecommendationEngine) vectorFromHistory(ctx context.Context, history *userHistory) []float64 {
	if history.empty() {
		return e.AverageTrekVector(ctx)
	}

	sum := make([]float64, trekVectorDim)
	totalWeight := 0.0

	accumulate := func(trek *models.Trek, weight float64) {
		floats.AddScaled(sum, weight, e.VectorizeTrek(trek))
		totalWeight += weight
	}

	for _, review := range history.reviews {
		weight := float64(review.Rating)
		if weight <= 0 {
			weight = e.config.ReviewDefaultWeight
		}
		accumulate(review.Trek, weight)
	}
	for _, booking := range history.bookings {
		weight := e.config.BookingOtherWeight
		if booking.Status == models.BookingCompleted {
			weight = e.config.BookingCompletedWeight
		}
		accumulate(booking.Trek, weight)
	}
	if history.wishlist != nil {
		for i := range history.wishlist.Treks {
			accumulate(&history.wishlist.Treks[i], e.config.WishlistWeight)
		}
	}

	// Interactions referencing missing treks can leave nothing to
	// divide by; the zero vector is the safe result then.
	if totalWeight == 0 {
		return sum
	}

	floats.Scale(1/totalWeight, sum)
	return sum
}

// AverageTrekVector is the cold-start profile: the per-dimension mean of
// every approved trek's vector. It never fails; a read error or an empty
// catalog yields the hardcoded neutral vector.
func (e *RecommendationEngine) AverageTrekVector(ctx context.Context) []float64 {
	treks, err := e.store.FindApprovedTreks(ctx)
	if err != nil {
		e.logger.WithError(err).Warn("Falling back to neutral vector")
		return append([]float64(nil), neutralVector...)
	}
	if len(treks) == 0 {
		return append([]float64(nil), neutralVector...)
	}

	sum := make([]float64, trekVectorDim)
	for i := range treks {
		floats.Add(sum, e.VectorizeTrek(&treks[i]))
	}
	floats.Scale(1/float64(len(treks)), sum)
	return sum
}

// CosineSimilarity returns dot(a,b) / (|a|*|b|). Mismatched lengths,
// empty inputs and zero magnitudes all yield 0 rather than NaN.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}

	return floats.Dot(a, b) / (normA * normB)
}

// Recommend ranks approved treks the user has not yet interacted with.
// A missing user identity is a hard error; everything past that degrades
// softly, so a single bad candidate only drops out of the ranking.
func (e *RecommendationEngine) Recommend(ctx context.Context, userID uuid.UUID, limit int) ([]models.ScoredTrek, error) {
	if userID == uuid.Nil {
		return nil, ErrUserRequired
	}
	limit = e.clampLimit(limit)

	history, err := e.fetchUserHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	userVector := e.vectorFromHistory(ctx, history)

	candidates, err := e.store.FindApprovedTreks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate treks: %w", err)
	}

	seen := history.trekIDs()

	var scored []models.ScoredTrek
	for i := range candidates {
		trek := &candidates[i]
		if !trek.IsApproved || seen[trek.ID] {
			continue
		}

		similarity := CosineSimilarity(userVector, e.VectorizeTrek(trek))

		rating := trek.Rating
		if rating == 0 {
			rating = 3
		}
		// Rating and log-damped review volume break ties between
		// equally similar treks without letting popularity dominate.
		score := similarity * rating * math.Log(float64(trek.RatingCount)+1)

		if math.IsNaN(score) || math.IsInf(score, 0) {
			e.logger.WithField("trek_id", trek.ID).Warn("Skipping trek with non-finite score")
			continue
		}

		scored = append(scored, models.ScoredTrek{
			Trek:       *trek,
			Similarity: similarity,
			Score:      score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	e.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"candidates": len(candidates),
		"results":    len(scored),
	}).Debug("Recommendations generated")

	return scored, nil
}

// Trending lists approved treks by review volume, then rating. It needs
// no user data and is cheap enough to serve as the fallback surface.
// The second return reports whether the listing came from the warm
// cache.
func (e *RecommendationEngine) Trending(ctx context.Context, limit int) ([]models.Trek, bool, error) {
	limit = e.clampLimit(limit)

	cacheKey := fmt.Sprintf("listings:trending:%d", limit)
	if cached := e.getCachedTreks(ctx, cacheKey); cached != nil {
		return cached, true, nil
	}

	treks, err := e.store.FindTrendingTreks(ctx, limit)
	if err != nil {
		return nil, false, fmt.Errorf("trending listing failed: %w", err)
	}

	e.cacheTreks(ctx, cacheKey, treks)
	return treks, false, nil
}

// Popular lists approved treks by booking volume, then rating. The
// booking counter is maintained by the booking event consumer.
func (e *RecommendationEngine) Popular(ctx context.Context, limit int) ([]models.Trek, bool, error) {
	limit = e.clampLimit(limit)

	cacheKey := fmt.Sprintf("listings:popular:%d", limit)
	if cached := e.getCachedTreks(ctx, cacheKey); cached != nil {
		return cached, true, nil
	}

	treks, err := e.store.FindPopularTreks(ctx, limit)
	if err != nil {
		return nil, false, fmt.Errorf("popular listing failed: %w", err)
	}

	e.cacheTreks(ctx, cacheKey, treks)
	return treks, false, nil
}

func (e *RecommendationEngine) clampLimit(limit int) int {
	if limit <= 0 {
		return e.config.DefaultLimit
	}
	if limit > e.config.MaxLimit {
		return e.config.MaxLimit
	}
	return limit
}

// Cache helper methods

func (e *RecommendationEngine) getCachedTreks(ctx context.Context, key string) []models.Trek {
	if e.redis == nil {
		return nil
	}

	cached := e.redis.Get(ctx, key).Val()
	if cached == "" {
		return nil
	}

	var treks []models.Trek
	if err := json.Unmarshal([]byte(cached), &treks); err != nil {
		return nil
	}
	return treks
}

func (e *RecommendationEngine) cacheTreks(ctx context.Context, key string, treks []models.Trek) {
	if e.redis == nil {
		return
	}

	data, err := json.Marshal(treks)
	if err != nil {
		return
	}
	if err := e.redis.Set(ctx, key, data, e.config.ListingsTTL).Err(); err != nil {
		e.logger.WithError(err).Warn("Failed to cache trek listing")
	}
}
