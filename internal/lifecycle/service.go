// Package lifecycle implements the match state machine: publish cohort
// transitions, deactivation, reassignment, manual assignment, and terminal
// bookkeeping. Each operation acts on one match (or one cohort) and leaves
// all other in-flight matches untouched.
package lifecycle

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/kringle-dev/kringle/internal/events"
	"github.com/kringle-dev/kringle/pkg/models"
)

// Store is what the lifecycle manager needs from persistence.
type Store interface {
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	GetPlayerByID(ctx context.Context, id string) (*models.Player, error)
	GetPlayerByHandle(ctx context.Context, handle string) (*models.Player, error)
	InsertMatch(ctx context.Context, m *models.Match) error
	PublishCohort(ctx context.Context, from, to models.MatchStatus) ([]string, error)
	DeactivateMatch(ctx context.Context, id string, at time.Time) error
	SetFollowup(ctx context.Context, id string, action models.FollowupAction) error
	SetContactedAt(ctx context.Context, id string, at time.Time) error
	ReassignMatch(ctx context.Context, oldID string, superSanta bool, replacement *models.Match) error
	DeleteDraftMatches(ctx context.Context) (int64, error)
}

// Service mutates match lifecycle state.
type Service struct {
	store Store
	pub   events.Publisher
}

// New creates a lifecycle service.
func New(store Store, pub events.Publisher) *Service {
	return &Service{store: store, pub: pub}
}

// AssignSanta creates a single draft match directly, skipping the pool and
// ring machinery. The santa is resolved by handle and must have free
// capacity.
func (s *Service) AssignSanta(ctx context.Context, gifteeID, santaHandle string) (*models.Match, error) {
	giftee, err := s.store.GetPlayerByID(ctx, gifteeID)
	if err != nil {
		return nil, fmt.Errorf("lookup giftee: %w", err)
	}
	if giftee == nil {
		return nil, fmt.Errorf("%w: giftee %s", ErrPlayerNotFound, gifteeID)
	}

	santa, err := s.store.GetPlayerByHandle(ctx, santaHandle)
	if err != nil {
		return nil, fmt.Errorf("lookup santa: %w", err)
	}
	if santa == nil {
		return nil, fmt.Errorf("%w: santa %s", ErrPlayerNotFound, santaHandle)
	}
	if santa.CapacityStatus != models.CapacityCanHaveMore {
		return nil, fmt.Errorf("%w: %s is %s", ErrCapacityConflict, santaHandle, santa.CapacityStatus)
	}

	now := time.Now()
	m := &models.Match{
		ID:        uuid.New().String(),
		SantaID:   santa.ID,
		GifteeID:  giftee.ID,
		Status:    models.MatchStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("insert match: %w", err)
	}

	s.emit(ctx, events.Event{Type: events.TypeMatchCreated, MatchID: m.ID, SantaID: m.SantaID, GifteeID: m.GifteeID, At: now})
	return m, nil
}

// ReassignOptions tunes a reassignment.
type ReassignOptions struct {
	// SuperSanta marks the replacement as a supplemental assignment: the
	// old match keeps running flagged super-assigned, and the new one is
	// created directly locked.
	SuperSanta bool

	// Force skips the capacity check on the new santa and allows the
	// operator to reintroduce a previously retired pairing.
	Force bool
}

// Reassign retires (or flags) an existing match and creates a replacement
// with the same giftee and a new santa, atomically.
func (s *Service) Reassign(ctx context.Context, matchID, santaHandle string, opts ReassignOptions) (*models.Match, error) {
	old, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("lookup match: %w", err)
	}
	if old == nil {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}

	santa, err := s.store.GetPlayerByHandle(ctx, santaHandle)
	if err != nil {
		return nil, fmt.Errorf("lookup santa: %w", err)
	}
	if santa == nil {
		return nil, fmt.Errorf("%w: santa %s", ErrPlayerNotFound, santaHandle)
	}
	if !opts.Force && santa.CapacityStatus != models.CapacityCanHaveMore {
		return nil, fmt.Errorf("%w: %s is %s", ErrCapacityConflict, santaHandle, santa.CapacityStatus)
	}

	status := models.MatchStatusDraft
	if opts.SuperSanta {
		// The only path, besides super-santa creation itself, that may
		// skip draft and shared.
		status = models.MatchStatusLocked
	}

	now := time.Now()
	replacement := &models.Match{
		ID:         uuid.New().String(),
		SantaID:    santa.ID,
		GifteeID:   old.GifteeID,
		Status:     status,
		SuperSanta: opts.SuperSanta,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.ReassignMatch(ctx, old.ID, opts.SuperSanta, replacement); err != nil {
		return nil, fmt.Errorf("reassign match %s: %w", old.ID, err)
	}

	s.emit(ctx, events.Event{Type: events.TypeMatchReassigned, MatchID: replacement.ID, SantaID: replacement.SantaID, GifteeID: replacement.GifteeID, At: now})
	return replacement, nil
}

// Publish bulk-advances every active, valid match in from-status to
// to-status. Only adjacent forward steps are allowed. Returns the number
// of matches advanced; zero is success.
func (s *Service) Publish(ctx context.Context, from, to models.MatchStatus) (int64, error) {
	if !forwardStep(from, to) {
		return 0, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	ids, err := s.store.PublishCohort(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("publish %s -> %s: %w", from, to, err)
	}

	now := time.Now()
	for _, id := range ids {
		s.emit(ctx, events.Event{Type: events.TypeMatchPublished, MatchID: id, At: now})
	}
	return int64(len(ids)), nil
}

// forwardStep reports whether from -> to is a single forward move of the
// status machine.
func forwardStep(from, to models.MatchStatus) bool {
	switch {
	case from == models.MatchStatusDraft && to == models.MatchStatusShared:
		return true
	case from == models.MatchStatusShared && to == models.MatchStatusLocked:
		return true
	}
	return false
}

// Deactivate retires a match. Idempotent: retiring an already retired match
// re-stamps the timestamp and nothing else.
func (s *Service) Deactivate(ctx context.Context, matchID string) error {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("lookup match: %w", err)
	}
	if m == nil {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}

	now := time.Now()
	if err := s.store.DeactivateMatch(ctx, matchID, now); err != nil {
		return fmt.Errorf("deactivate match %s: %w", matchID, err)
	}

	s.emit(ctx, events.Event{Type: events.TypeMatchDeactivated, MatchID: m.ID, SantaID: m.SantaID, GifteeID: m.GifteeID, At: now})
	return nil
}

// MarkSorted records that the match's gift has been sorted. Bookkeeping
// only; the match status does not change.
func (s *Service) MarkSorted(ctx context.Context, matchID string) error {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("lookup match: %w", err)
	}
	if m == nil {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	return s.store.SetFollowup(ctx, matchID, models.FollowupSorted)
}

// MarkContacted records that the santa has been contacted about the match.
// Bookkeeping only; the match status does not change.
func (s *Service) MarkContacted(ctx context.Context, matchID string) error {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("lookup match: %w", err)
	}
	if m == nil {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	return s.store.SetContactedAt(ctx, matchID, time.Now())
}

// DeleteDrafts removes every draft match. Maintenance reset between
// matching runs.
func (s *Service) DeleteDrafts(ctx context.Context) (int64, error) {
	return s.store.DeleteDraftMatches(ctx)
}

// emit publishes a lifecycle event. Delivery is best effort: a broker
// outage must not fail the admin operation that triggered it.
func (s *Service) emit(ctx context.Context, ev events.Event) {
	if err := s.pub.Publish(ctx, ev); err != nil {
		log.Printf("Event publish failed (%s, match %s): %v", ev.Type, ev.MatchID, err)
	}
}
