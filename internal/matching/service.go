package matching

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/kringle-dev/kringle/pkg/models"
)

// Store is what the matching engine needs from persistence.
type Store interface {
	PlayerStore
	ForbiddenPairs(ctx context.Context) (map[models.Pair]bool, error)
	InsertMatches(ctx context.Context, matches []*models.Match) error
}

// Service runs the automated matching pipeline: pool load, greedy
// assignment, ring repair, full validation, atomic batch insert.
type Service struct {
	store Store
	rng   *rand.Rand
}

// New creates a matching service seeded for non-reproducible runs.
func New(store Store) *Service {
	return NewWithRand(store, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand creates a matching service with an injected random source.
func NewWithRand(store Store, rng *rand.Rand) *Service {
	return &Service{store: store, rng: rng}
}

// Constraints tunes a matching run.
type Constraints struct {
	// MinRecentPosts excludes giftee candidates below this activity level.
	// Zero disables the filter.
	MinRecentPosts int
}

// AutoMatch runs one matching cycle and returns the created draft matches.
// On any failure nothing is written: the batch insert is a single
// transaction and every validation step runs before it.
func (s *Service) AutoMatch(ctx context.Context, c Constraints) ([]*models.Match, error) {
	pool, err := LoadPool(ctx, s.store, c.MinRecentPosts, s.rng)
	if err != nil {
		return nil, err
	}

	nodes := assignGreedy(pool)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: no santas with free capacity", ErrInsufficientCandidates)
	}

	forbidden, err := s.store.ForbiddenPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load forbidden pairs: %w", err)
	}

	if err := repairRing(nodes, forbidden, s.rng); err != nil {
		return nil, err
	}
	if err := validateRing(nodes, forbidden); err != nil {
		return nil, err
	}

	now := time.Now()
	matches := make([]*models.Match, len(nodes))
	for i := range nodes {
		pair := pairAt(nodes, i)
		matches[i] = &models.Match{
			ID:        uuid.New().String(),
			SantaID:   pair.SantaID,
			GifteeID:  pair.GifteeID,
			Status:    models.MatchStatusDraft,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	if err := s.store.InsertMatches(ctx, matches); err != nil {
		return nil, fmt.Errorf("persist match batch: %w", err)
	}
	return matches, nil
}
