package discovery

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/12305/devTinder-Frontend/internal/models"
	"github.com/12305/devTinder-Frontend/pkg/logger"
	"github.com/12305/devTinder-Frontend/pkg/notify"
)

// API is the slice of the REST client the feed needs.
type API interface {
	PotentialMatches(ctx context.Context, filters models.FilterOptions) ([]models.User, error)
	Swipe(ctx context.Context, targetUserID string, action models.SwipeAction) (*models.SwipeResult, error)
}

var (
	// ErrDecisionInFlight means a prior decision has not resolved yet.
	ErrDecisionInFlight = errors.New("discovery: decision already in flight")
	// ErrNoCandidate means the batch is exhausted and the refetch found nothing.
	ErrNoCandidate = errors.New("discovery: no candidate to decide on")
)

// Decision is the outcome of a successful swipe.
type Decision struct {
	Candidate models.User
	Action    models.SwipeAction
	Matched   bool
}

// Feed fetches candidate batches and walks them with a cursor, one decision
// at a time. A decided candidate is never shown again within a batch: the
// cursor only moves forward, and only on a confirmed decision.
type Feed struct {
	api      API
	notifier notify.Notifier
	log      zerolog.Logger

	mu       sync.Mutex
	batch    []models.User
	cursor   int
	filters  models.FilterOptions
	inFlight bool
}

func NewFeed(api API, notifier notify.Notifier) *Feed {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Feed{
		api:      api,
		notifier: notifier,
		log:      logger.With("discovery"),
	}
}

// Refresh fetches a fresh batch for the current filters and resets the cursor.
func (f *Feed) Refresh(ctx context.Context) error {
	f.mu.Lock()
	filters := f.filters
	f.mu.Unlock()

	batch, err := f.api.PotentialMatches(ctx, filters)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.batch = batch
	f.cursor = 0
	f.mu.Unlock()
	f.log.Debug().Int("candidates", len(batch)).Msg("batch refreshed")
	return nil
}

// SetFilters applies a new filter set and refetches. An all-empty filter set
// clears filtering.
func (f *Feed) SetFilters(ctx context.Context, filters models.FilterOptions) error {
	f.mu.Lock()
	f.filters = filters
	f.mu.Unlock()
	return f.Refresh(ctx)
}

func (f *Feed) Filters() models.FilterOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filters
}

// Current returns the candidate under the cursor, or nil when the batch is
// exhausted.
func (f *Feed) Current() *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cursor >= len(f.batch) {
		return nil
	}
	u := f.batch[f.cursor]
	return &u
}

// Remaining returns how many candidates are left in the batch, cursor included.
func (f *Feed) Remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cursor >= len(f.batch) {
		return 0
	}
	return len(f.batch) - f.cursor
}

// Decide submits a like/pass against the current candidate. On success the
// cursor advances by one and, when the batch is exhausted, a new batch is
// fetched with the current filters. On failure the cursor stays where it is:
// the user retries the same candidate by deciding again.
func (f *Feed) Decide(ctx context.Context, action models.SwipeAction) (*Decision, error) {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return nil, ErrDecisionInFlight
	}
	if f.cursor >= len(f.batch) {
		f.mu.Unlock()
		return nil, ErrNoCandidate
	}
	candidate := f.batch[f.cursor]
	f.inFlight = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight = false
		f.mu.Unlock()
	}()

	result, err := f.api.Swipe(ctx, candidate.ID, action)
	if err != nil {
		// No optimistic advance: the same candidate stays current.
		f.notifier.Error("Something went wrong, try again")
		return nil, err
	}

	if result.IsMatch {
		f.notifier.Success("It's a match with " + candidate.FullName() + "!")
	}

	f.mu.Lock()
	f.cursor++
	exhausted := f.cursor >= len(f.batch)
	f.mu.Unlock()

	if exhausted {
		if err := f.Refresh(ctx); err != nil {
			// The decision itself succeeded; the empty feed surfaces on its own.
			f.log.Warn().Err(err).Msg("batch refetch failed")
		}
	}

	return &Decision{Candidate: candidate, Action: action, Matched: result.IsMatch}, nil
}
