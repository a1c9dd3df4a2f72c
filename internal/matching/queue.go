package matching

import "github.com/kringle-dev/kringle/pkg/models"

// node is one position in the assignment ring. The matches that actually get
// persisted pair nodes[i].santa with nodes[(i+1) mod n].giftee, so permuting
// node order changes the pairings without touching the pools or capacities.
type node struct {
	giftee models.Player
	santa  models.Player
}

// santaEntry tracks a queued santa and their running assignment load.
type santaEntry struct {
	player models.Player
	load   int
}

// santaQueue is a FIFO of candidate santas. It is an owned value threaded
// through the assigner, never shared or package-level.
type santaQueue struct {
	entries []santaEntry
}

func newSantaQueue(players []models.Player) *santaQueue {
	entries := make([]santaEntry, len(players))
	for i, p := range players {
		entries[i] = santaEntry{player: p, load: p.GifteeCount}
	}
	return &santaQueue{entries: entries}
}

func (q *santaQueue) pop() (santaEntry, bool) {
	if len(q.entries) == 0 {
		return santaEntry{}, false
	}
	e := q.entries[0]
	q.entries = q.entries[1:]
	return e, true
}

func (q *santaQueue) push(e santaEntry) {
	q.entries = append(q.entries, e)
}

// assignGreedy pairs each giftee, in pool order, with the santa at the head
// of the queue. A santa with capacity to spare goes back to the tail with
// their load incremented; a santa at capacity is dropped. When the queue
// empties first the remaining giftees are simply left out of this run.
func assignGreedy(pool *Pool) []node {
	q := newSantaQueue(pool.CanSanta)
	nodes := make([]node, 0, len(pool.NeedingSanta))

	for _, giftee := range pool.NeedingSanta {
		e, ok := q.pop()
		if !ok {
			break
		}
		nodes = append(nodes, node{giftee: giftee, santa: e.player})

		e.load++
		if e.load < e.player.MaxGiftees {
			q.push(e)
		}
	}
	return nodes
}
