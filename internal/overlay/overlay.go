// Package overlay builds the random peer-connectivity graph the
// simulator runs on. It is the Go replacement for the Python prototype's
// networkx-based Network.createNetwork: pick a random degree in [3,6]
// per node, wire degree-satisfying edges via rejection sampling, and
// retry the whole graph if it comes out disconnected.
package overlay

import (
	"math/rand"

	"github.com/pkg/errors"
)

const (
	minDegree = 3
	maxDegree = 6

	// maxAttempts bounds the createNetwork-style retry loop so a
	// pathological rng stream cannot spin forever.
	maxAttempts = 1000
)

// Graph is an undirected adjacency list over peer ids 0..n-1.
type Graph struct {
	Neighbors [][]int
}

// ErrCouldNotConnect is returned when no connected graph was found
// within maxAttempts retries.
var ErrCouldNotConnect = errors.New("overlay: could not build a connected graph")

// Build constructs a random connected graph over n nodes with each
// node's degree in [3,6] (spec's "Inputs from the external overlay
// builder"), grounded on the Python prototype's Network.createNetwork.
// n must be at least maxDegree+1 so a degree-6 assignment is satisfiable.
func Build(n int, rng *rand.Rand) (Graph, error) {
	if n <= maxDegree {
		return Graph{}, errors.Errorf("overlay: n must be > %d, got %d", maxDegree, n)
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		g, ok := attemptBuild(n, rng)
		if ok {
			return g, nil
		}
	}
	return Graph{}, ErrCouldNotConnect
}

func attemptBuild(n int, rng *rand.Rand) (Graph, bool) {
	want := make([]int, n)
	for i := range want {
		want[i] = minDegree + rng.Intn(maxDegree-minDegree+1)
	}

	adjSet := make([]map[int]struct{}, n)
	for i := range adjSet {
		adjSet[i] = make(map[int]struct{})
	}

	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}
	unsatisfied := make(map[int]struct{}, n)
	for i := 0; i < n; i++ {
		unsatisfied[i] = struct{}{}
	}

	for node := 0; node < n; node++ {
		if _, ok := unsatisfied[node]; !ok {
			continue
		}
		remaining = removeValue(remaining, node)
		delete(unsatisfied, node)

		need := want[node] - len(adjSet[node])
		if need < 0 {
			need = 0
		}
		if len(remaining) < need {
			return Graph{}, false // not enough candidates left: retry the whole graph
		}
		picks := samplePeerIDs(remaining, need, rng)
		for _, nb := range picks {
			adjSet[node][nb] = struct{}{}
			adjSet[nb][node] = struct{}{}
			if len(adjSet[nb]) >= want[nb] {
				delete(unsatisfied, nb)
				remaining = removeValue(remaining, nb)
			}
		}
		if len(unsatisfied) == 0 {
			break
		}
	}

	if !isConnected(adjSet) {
		return Graph{}, false
	}
	return Graph{Neighbors: toSortedSlices(adjSet)}, true
}

func removeValue(xs []int, v int) []int {
	for i, x := range xs {
		if x == v {
			return append(xs[:i:i], xs[i+1:]...)
		}
	}
	return xs
}

// samplePeerIDs draws k distinct values from pool without replacement,
// mirroring random.sample's semantics.
func samplePeerIDs(pool []int, k int, rng *rand.Rand) []int {
	if k <= 0 {
		return nil
	}
	if k > len(pool) {
		k = len(pool)
	}
	cp := make([]int, len(pool))
	copy(cp, pool)
	rng.Shuffle(len(cp), func(i, j int) { cp[i], cp[j] = cp[j], cp[i] })
	return cp[:k]
}

// isConnected runs a plain BFS from node 0 (networkx.is_connected's Go
// equivalent).
func isConnected(adjSet []map[int]struct{}) bool {
	n := len(adjSet)
	if n == 0 {
		return true
	}
	visited := make([]bool, n)
	queue := []int{0}
	visited[0] = true
	count := 1
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for nb := range adjSet[cur] {
			if !visited[nb] {
				visited[nb] = true
				count++
				queue = append(queue, nb)
			}
		}
	}
	return count == n
}

func toSortedSlices(adjSet []map[int]struct{}) [][]int {
	out := make([][]int, len(adjSet))
	for i, set := range adjSet {
		nbs := make([]int, 0, len(set))
		for nb := range set {
			nbs = append(nbs, nb)
		}
		// Insertion sort: neighbor counts are always <= maxDegree.
		for a := 1; a < len(nbs); a++ {
			for b := a; b > 0 && nbs[b] < nbs[b-1]; b-- {
				nbs[b], nbs[b-1] = nbs[b-1], nbs[b]
			}
		}
		out[i] = nbs
	}
	return out
}
