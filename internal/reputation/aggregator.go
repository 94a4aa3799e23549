package reputation

import (
	"context"
	"errors"
	"fmt"
	"log"

	"skillswap-backend/internal/storage"

	"github.com/google/uuid"
)

// ErrInvalidRating rejects feedback outside the 1-5 star range before any
// mutation happens.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

type FeedbackStore interface {
	CreateFeedback(ctx context.Context, fb *storage.Feedback) error
	ListFeedbackRatings(ctx context.Context, toUserID uuid.UUID) ([]int, error)
}

type RatingUpdater interface {
	UpdateUserRating(ctx context.Context, userID uuid.UUID, rating float64, totalRatings int) error
}

// Aggregator records feedback and keeps the target's rating equal to the
// arithmetic mean of every rating they ever received. No decay, no
// weighting.
type Aggregator struct {
	feedback FeedbackStore
	users    RatingUpdater
}

func NewAggregator(feedback FeedbackStore, users RatingUpdater) *Aggregator {
	return &Aggregator{feedback: feedback, users: users}
}

func (a *Aggregator) Submit(ctx context.Context, fb *storage.Feedback) error {
	if fb.Rating < 1 || fb.Rating > 5 {
		return ErrInvalidRating
	}

	if err := a.feedback.CreateFeedback(ctx, fb); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}

	if err := a.Recompute(ctx, fb.ToUserID); err != nil {
		return fmt.Errorf("recompute rating for %s: %w", fb.ToUserID, err)
	}

	log.Printf("[FEEDBACK] Recorded %d-star feedback from %s for %s", fb.Rating, fb.FromUserID, fb.ToUserID)
	return nil
}

// Recompute reloads all of a user's ratings and writes back the mean and
// the count.
func (a *Aggregator) Recompute(ctx context.Context, userID uuid.UUID) error {
	ratings, err := a.feedback.ListFeedbackRatings(ctx, userID)
	if err != nil {
		return err
	}
	if len(ratings) == 0 {
		return nil
	}

	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))

	return a.users.UpdateUserRating(ctx, userID, mean, len(ratings))
}
