package matching

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/kringle-dev/kringle/pkg/models"
)

// minPoolSize is the smallest giftee pool worth matching. Below this a ring
// degenerates and the run is rejected up front.
const minPoolSize = 5

// PlayerStore is what the pool loader needs from player state.
type PlayerStore interface {
	ListNeedingSanta(ctx context.Context, minRecentPosts int) ([]models.Player, error)
	ListCapableSantas(ctx context.Context) ([]models.Player, error)
}

// Pool holds the two candidate sets of a matching run. NeedingSanta keeps
// store order; CanSanta is fairness-sorted with a random tiebreak so repeat
// runs are intentionally not reproducible.
type Pool struct {
	NeedingSanta []models.Player
	CanSanta     []models.Player
}

// LoadPool reads both candidate sets and applies the fairness ordering to
// the santa side. Returns ErrInsufficientCandidates when fewer than
// minPoolSize players need a santa.
func LoadPool(ctx context.Context, store PlayerStore, minRecentPosts int, rng *rand.Rand) (*Pool, error) {
	needing, err := store.ListNeedingSanta(ctx, minRecentPosts)
	if err != nil {
		return nil, fmt.Errorf("list players needing santa: %w", err)
	}
	if len(needing) < minPoolSize {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientCandidates, len(needing), minPoolSize)
	}

	santas, err := store.ListCapableSantas(ctx)
	if err != nil {
		return nil, fmt.Errorf("list capable santas: %w", err)
	}
	sortSantas(santas, rng)

	return &Pool{NeedingSanta: needing, CanSanta: santas}, nil
}

// sortSantas biases the queue toward players carrying the lightest load:
// pure givers first (a player with any giftee already is nudged back by
// one), then by effective load where an unloaded santa-only player counts
// as already holding one assignment, then randomly.
func sortSantas(players []models.Player, rng *rand.Rand) {
	type keyed struct {
		player    models.Player
		primary   int
		secondary int
		jitter    float64
	}

	keys := make([]keyed, len(players))
	for i, p := range players {
		primary := p.GifteeCount
		if primary > 0 {
			primary--
		}
		secondary := p.GifteeCount
		if secondary == 0 && p.GameMode == models.ModeSantaOnly {
			secondary = 1
		}
		keys[i] = keyed{player: p, primary: primary, secondary: secondary, jitter: rng.Float64()}
	}

	sort.Slice(keys, func(a, b int) bool {
		if keys[a].primary != keys[b].primary {
			return keys[a].primary < keys[b].primary
		}
		if keys[a].secondary != keys[b].secondary {
			return keys[a].secondary < keys[b].secondary
		}
		return keys[a].jitter < keys[b].jitter
	})

	for i := range keys {
		players[i] = keys[i].player
	}
}
