package matching

import (
	"fmt"

	"github.com/kringle-dev/kringle/pkg/models"
)

// pairAt derives the persisted pairing for ring position i: the santa of
// nodes[i] gives to the giftee of the following node.
func pairAt(nodes []node, i int) models.Pair {
	n := len(nodes)
	return models.Pair{
		SantaID:  nodes[i].santa.ID,
		GifteeID: nodes[(i+1)%n].giftee.ID,
	}
}

// validSwap reports whether exchanging positions i and j keeps every seam
// touched by the swap legal. Only the boundary edges around i and j are
// examined, not the whole ring; validateRing does the final full pass.
//
// A seam between adjacent nodes p and q carries the edge p.santa → q.giftee.
// The seam is illegal when that edge is a self-match, when the pair is in
// the forbidden set, or when the edges on either side of the swapped-in node
// reverse each other (an immediate reciprocal 2-cycle).
func validSwap(nodes []node, i, j int, forbidden map[models.Pair]bool) bool {
	n := len(nodes)
	at := func(k int) node {
		k = ((k % n) + n) % n
		switch k {
		case i:
			return nodes[j]
		case j:
			return nodes[i]
		default:
			return nodes[k]
		}
	}

	for _, center := range []int{i, j} {
		prev, cur, next := at(center-1), at(center), at(center+1)

		// Seam into the swapped-in node.
		if prev.santa.ID == cur.giftee.ID {
			return false
		}
		if forbidden[models.Pair{SantaID: prev.santa.ID, GifteeID: cur.giftee.ID}] {
			return false
		}

		// Seam out of the swapped-in node.
		if cur.santa.ID == next.giftee.ID {
			return false
		}
		if forbidden[models.Pair{SantaID: cur.santa.ID, GifteeID: next.giftee.ID}] {
			return false
		}

		// The two seam edges around cur reverse each other when cur gives
		// and receives as the same player and the outer ends close the loop.
		if cur.santa.ID == cur.giftee.ID && prev.santa.ID == next.giftee.ID {
			return false
		}
	}
	return true
}

// validateRing runs the final whole-ring checks before a batch is committed:
// no self edges, no forbidden pairs, and no two edges anywhere in the ring
// that reverse each other. Any violation aborts the batch.
func validateRing(nodes []node, forbidden map[models.Pair]bool) error {
	seen := make(map[models.Pair]bool, len(nodes))
	for i := range nodes {
		e := pairAt(nodes, i)
		if e.SantaID == e.GifteeID {
			return fmt.Errorf("%w: self match for player %s", ErrNoValidAssignment, e.SantaID)
		}
		if forbidden[e] {
			return fmt.Errorf("%w: pair %s -> %s was previously retired", ErrNoValidAssignment, e.SantaID, e.GifteeID)
		}
		if seen[models.Pair{SantaID: e.GifteeID, GifteeID: e.SantaID}] {
			return fmt.Errorf("%w: reciprocal pair between %s and %s", ErrNoValidAssignment, e.SantaID, e.GifteeID)
		}
		seen[e] = true
	}
	return nil
}
