package reputation

import (
	"context"
	"errors"
	"testing"

	"skillswap-backend/internal/storage"

	"github.com/google/uuid"
)

type fakeFeedbackStore struct {
	ratings map[uuid.UUID][]int
}

func newFakeFeedbackStore() *fakeFeedbackStore {
	return &fakeFeedbackStore{ratings: make(map[uuid.UUID][]int)}
}

func (s *fakeFeedbackStore) CreateFeedback(ctx context.Context, fb *storage.Feedback) error {
	s.ratings[fb.ToUserID] = append(s.ratings[fb.ToUserID], fb.Rating)
	return nil
}

func (s *fakeFeedbackStore) ListFeedbackRatings(ctx context.Context, toUserID uuid.UUID) ([]int, error) {
	return s.ratings[toUserID], nil
}

type fakeRatingUpdater struct {
	userID uuid.UUID
	rating float64
	total  int
	calls  int
}

func (u *fakeRatingUpdater) UpdateUserRating(ctx context.Context, userID uuid.UUID, rating float64, totalRatings int) error {
	u.userID = userID
	u.rating = rating
	u.total = totalRatings
	u.calls++
	return nil
}

func TestSubmitComputesMeanRating(t *testing.T) {
	store := newFakeFeedbackStore()
	updater := &fakeRatingUpdater{}
	agg := NewAggregator(store, updater)

	target := uuid.New()
	for _, rating := range []int{5, 3, 2} {
		fb := &storage.Feedback{
			FromUserID: uuid.New(),
			ToUserID:   target,
			Rating:     rating,
		}
		if err := agg.Submit(context.Background(), fb); err != nil {
			t.Fatalf("submit %d-star feedback: %v", rating, err)
		}
	}

	if updater.userID != target {
		t.Fatalf("rating written for wrong user: %s", updater.userID)
	}
	if want := 10.0 / 3.0; updater.rating != want {
		t.Fatalf("mean: want %v, got %v", want, updater.rating)
	}
	if updater.total != 3 {
		t.Fatalf("totalRatings: want 3, got %d", updater.total)
	}
}

func TestSubmitRejectsOutOfRangeRating(t *testing.T) {
	store := newFakeFeedbackStore()
	updater := &fakeRatingUpdater{}
	agg := NewAggregator(store, updater)

	for _, rating := range []int{0, 6, -1} {
		fb := &storage.Feedback{FromUserID: uuid.New(), ToUserID: uuid.New(), Rating: rating}
		if err := agg.Submit(context.Background(), fb); !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("rating %d: want ErrInvalidRating, got %v", rating, err)
		}
	}
	if len(store.ratings) != 0 {
		t.Fatal("invalid feedback must not be stored")
	}
	if updater.calls != 0 {
		t.Fatal("invalid feedback must not touch the rating")
	}
}

func TestRecomputeWithNoFeedbackIsNoop(t *testing.T) {
	store := newFakeFeedbackStore()
	updater := &fakeRatingUpdater{}
	agg := NewAggregator(store, updater)

	if err := agg.Recompute(context.Background(), uuid.New()); err != nil {
		t.Fatal(err)
	}
	if updater.calls != 0 {
		t.Fatal("no feedback means no rating write")
	}
}
