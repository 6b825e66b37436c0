package frontier

import (
	"sync"

	. "github.com/psidex/malsim/internal/lib"
)

// Entry is a node id waiting in the frontier together with its hop distance from the
// origin of the search.
type Entry struct {
	ID    int
	Depth int
}

type Frontier struct {
	queue *Queue[Entry]
	// visitedMu keeps the "is it visited, then mark it" check in Pop atomic; the
	// same id can sit in the queue more than once if two neighbours add it.
	visitedMu *sync.Mutex
	visited   Set[int]
}

func NewFrontier() Frontier {
	return Frontier{
		queue:     NewQueue[Entry](),
		visitedMu: &sync.Mutex{},
		visited:   NewSet[int](),
	}
}

// Add adds a node to the frontier, returns true if added, false if it's already been
// visited.
func (f Frontier) Add(id, depth int) bool {
	f.visitedMu.Lock()
	defer f.visitedMu.Unlock()
	if f.visited.Contains(id) {
		return false
	}
	f.queue.Enqueue(Entry{ID: id, Depth: depth})
	return true
}

// Pop gets an unvisited entry from the frontier and marks it visited. ok is false when
// there is nothing left to pop.
func (f Frontier) Pop() (e Entry, ok bool) {
	f.visitedMu.Lock()
	defer f.visitedMu.Unlock()
	for {
		e, ok = f.queue.Dequeue()
		if !ok {
			return e, false
		}
		if f.visited.Contains(e.ID) {
			continue
		}
		f.visited.Add(e.ID)
		return e, true
	}
}

// Visited reports whether id has been popped.
func (f Frontier) Visited(id int) bool {
	return f.visited.Contains(id)
}

// Size returns the size of the frontier, not accounting for entries that may have
// already been visited.
func (f Frontier) Size() int {
	return f.queue.Size()
}

// Distances runs a breadth-first search over the adjacency lists from origin and
// returns the hop distance to every node, -1 for unreachable ones.
func Distances(adjacency [][]int, origin int) []int {
	dist := make([]int, len(adjacency))
	for i := range dist {
		dist[i] = -1
	}
	if origin < 0 || origin >= len(adjacency) {
		return dist
	}

	f := NewFrontier()
	f.Add(origin, 0)
	for {
		e, ok := f.Pop()
		if !ok {
			break
		}
		dist[e.ID] = e.Depth
		for _, next := range adjacency[e.ID] {
			if !f.Visited(next) {
				f.Add(next, e.Depth+1)
			}
		}
	}
	return dist
}
