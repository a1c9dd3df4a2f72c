package matching

import (
	"fmt"
	"math/rand"

	"github.com/kringle-dev/kringle/pkg/models"
)

// maxSwapAttempts bounds the random repair at each ring position. Exhausting
// the attempts fails the run; the operator re-runs with fresh randomness.
const maxSwapAttempts = 10

// repairRing walks the ring once and, at every position, commits the first
// of up to maxSwapAttempts uniformly random swaps that keeps all touched
// seams legal. Exhausting the attempts at any position aborts the whole
// batch with ErrNoValidAssignment.
func repairRing(nodes []node, forbidden map[models.Pair]bool, rng *rand.Rand) error {
	n := len(nodes)
	for i := 0; i < n; i++ {
		committed := false
		for attempt := 0; attempt < maxSwapAttempts; attempt++ {
			j := rng.Intn(n)
			if validSwap(nodes, i, j, forbidden) {
				nodes[i], nodes[j] = nodes[j], nodes[i]
				committed = true
				break
			}
		}
		if !committed {
			return fmt.Errorf("%w: position %d exhausted %d swap attempts", ErrNoValidAssignment, i, maxSwapAttempts)
		}
	}
	return nil
}
