package matching

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kringle-dev/kringle/pkg/models"
)

// fakeStore is an in-memory matching.Store.
type fakeStore struct {
	needing   []models.Player
	santas    []models.Player
	forbidden map[models.Pair]bool
	batches   [][]*models.Match
}

func (f *fakeStore) ListNeedingSanta(_ context.Context, minRecentPosts int) ([]models.Player, error) {
	var out []models.Player
	for _, p := range f.needing {
		if p.RecentPostCount >= minRecentPosts {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) ListCapableSantas(context.Context) ([]models.Player, error) {
	return append([]models.Player(nil), f.santas...), nil
}

func (f *fakeStore) ForbiddenPairs(context.Context) (map[models.Pair]bool, error) {
	if f.forbidden == nil {
		return map[models.Pair]bool{}, nil
	}
	return f.forbidden, nil
}

func (f *fakeStore) InsertMatches(_ context.Context, matches []*models.Match) error {
	f.batches = append(f.batches, matches)
	return nil
}

func giftee(id string) models.Player {
	return models.Player{ID: id, Handle: id, SignupComplete: true, GameMode: models.ModeRegular}
}

func santa(id string, maxGiftees, gifteeCount int) models.Player {
	return models.Player{
		ID: id, Handle: id, SignupComplete: true, GameMode: models.ModeRegular,
		MaxGiftees: maxGiftees, GifteeCount: gifteeCount,
		CapacityStatus: models.CapacityCanHaveMore,
	}
}

func fiveGiftees() []models.Player {
	return []models.Player{giftee("G1"), giftee("G2"), giftee("G3"), giftee("G4"), giftee("G5")}
}

func threeSantas() []models.Player {
	return []models.Player{santa("S1", 2, 0), santa("S2", 2, 0), santa("S3", 2, 0)}
}

func TestAutoMatch_FiveGifteesThreeSantas(t *testing.T) {
	store := &fakeStore{needing: fiveGiftees(), santas: threeSantas()}
	svc := NewWithRand(store, rand.New(rand.NewSource(42)))

	matches, err := svc.AutoMatch(context.Background(), Constraints{})
	require.NoError(t, err)
	require.Len(t, matches, 5)
	require.Len(t, store.batches, 1, "exactly one batch insert")

	perSanta := map[string]int{}
	for _, m := range matches {
		assert.Equal(t, models.MatchStatusDraft, m.Status)
		assert.NotEqual(t, m.SantaID, m.GifteeID, "no self matches")
		assert.NotEmpty(t, m.ID)
		perSanta[m.SantaID]++
	}
	for id, n := range perSanta {
		assert.LessOrEqual(t, n, 2, "santa %s over capacity", id)
	}
}

func TestAutoMatch_InsufficientCandidates(t *testing.T) {
	store := &fakeStore{
		needing: []models.Player{giftee("G1"), giftee("G2"), giftee("G3"), giftee("G4")},
		santas:  threeSantas(),
	}
	svc := NewWithRand(store, rand.New(rand.NewSource(1)))

	_, err := svc.AutoMatch(context.Background(), Constraints{})
	require.ErrorIs(t, err, ErrInsufficientCandidates)
	assert.Empty(t, store.batches, "nothing may be written")
}

func TestAutoMatch_NoCapableSantas(t *testing.T) {
	store := &fakeStore{needing: fiveGiftees()}
	svc := NewWithRand(store, rand.New(rand.NewSource(1)))

	_, err := svc.AutoMatch(context.Background(), Constraints{})
	require.ErrorIs(t, err, ErrInsufficientCandidates)
	assert.Empty(t, store.batches)
}

func TestAutoMatch_ActivityThreshold(t *testing.T) {
	needing := fiveGiftees()
	for i := range needing {
		needing[i].RecentPostCount = i // 0..4
	}
	store := &fakeStore{needing: needing, santas: threeSantas()}
	svc := NewWithRand(store, rand.New(rand.NewSource(1)))

	// Only two players clear the threshold, so the run is rejected.
	_, err := svc.AutoMatch(context.Background(), Constraints{MinRecentPosts: 3})
	require.ErrorIs(t, err, ErrInsufficientCandidates)
	assert.Empty(t, store.batches)
}

func TestAutoMatch_AllPairsForbidden(t *testing.T) {
	forbidden := map[models.Pair]bool{}
	for _, s := range threeSantas() {
		for _, g := range fiveGiftees() {
			forbidden[models.Pair{SantaID: s.ID, GifteeID: g.ID}] = true
		}
	}
	store := &fakeStore{needing: fiveGiftees(), santas: threeSantas(), forbidden: forbidden}
	svc := NewWithRand(store, rand.New(rand.NewSource(7)))

	_, err := svc.AutoMatch(context.Background(), Constraints{})
	require.ErrorIs(t, err, ErrNoValidAssignment)
	assert.Empty(t, store.batches, "failed repair must not persist anything")
}

func TestAutoMatch_AvoidsForbiddenPair(t *testing.T) {
	forbidden := map[models.Pair]bool{
		{SantaID: "S1", GifteeID: "G2"}: true,
	}

	// The repair is randomized; retry a few times the way an operator would.
	for attempt := 0; attempt < 10; attempt++ {
		store := &fakeStore{needing: fiveGiftees(), santas: threeSantas(), forbidden: forbidden}
		svc := NewWithRand(store, rand.New(rand.NewSource(int64(100+attempt))))

		matches, err := svc.AutoMatch(context.Background(), Constraints{})
		if err != nil {
			continue
		}
		for _, m := range matches {
			assert.False(t, forbidden[models.Pair{SantaID: m.SantaID, GifteeID: m.GifteeID}],
				"forbidden pair %s -> %s reintroduced", m.SantaID, m.GifteeID)
		}
		return
	}
	t.Fatal("no attempt produced a valid assignment")
}

func TestAutoMatch_OverlappingPools(t *testing.T) {
	// Every player both needs a santa and can be one; the engine must still
	// never pair anyone with themselves.
	var needing, santas []models.Player
	for _, id := range []string{"P1", "P2", "P3", "P4", "P5", "P6"} {
		needing = append(needing, giftee(id))
		santas = append(santas, santa(id, 1, 0))
	}

	for attempt := 0; attempt < 20; attempt++ {
		store := &fakeStore{needing: needing, santas: santas}
		svc := NewWithRand(store, rand.New(rand.NewSource(int64(attempt))))

		matches, err := svc.AutoMatch(context.Background(), Constraints{})
		if err != nil {
			continue
		}
		require.Len(t, matches, 6)
		for _, m := range matches {
			assert.NotEqual(t, m.SantaID, m.GifteeID)
		}
		return
	}
	t.Fatal("no attempt produced a valid assignment")
}
