package graphs

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"sync"

	. "github.com/psidex/malsim/internal/lib"
)

// ExposureGraph defines a CliGraphProvider that records, for every infected node, the
// neighbours that were already infected in the tick it fell. Any one of them may have
// been the actual source. It renders this to a JSON file.
type ExposureGraph struct {
	mu       *sync.RWMutex
	prev     Frame
	exposure map[string]Set[string]
	// infectedAt is the step each node was infected in.
	infectedAt map[string]int
}

var _ CliGraphProvider = (*ExposureGraph)(nil)

func NewExposureGraph() *ExposureGraph {
	return &ExposureGraph{
		mu:         &sync.RWMutex{},
		exposure:   make(map[string]Set[string]),
		infectedAt: make(map[string]int),
	}
}

func (x *ExposureGraph) Observe(f Frame) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if f.Reset {
		x.exposure = make(map[string]Set[string])
		x.infectedAt = make(map[string]int)
		for _, n := range f.Graph.Nodes {
			if n.Infected {
				x.infectedAt[strconv.Itoa(n.ID)] = f.Step
			}
		}
		x.prev = f
		return
	}

	adjacency := x.prev.Graph.Neighbours()
	for _, id := range f.NewlyInfected {
		key := strconv.Itoa(id)
		x.infectedAt[key] = f.Step
		if _, ok := x.exposure[key]; !ok {
			x.exposure[key] = NewSet[string]()
		}
		if id >= len(adjacency) {
			// No reset frame seen yet.
			continue
		}
		for _, neighbour := range adjacency[id] {
			if x.prev.Graph.Nodes[neighbour].Infected {
				x.exposure[key].Add(strconv.Itoa(neighbour))
			}
		}
	}
	x.prev = f
}

type exposureEntry struct {
	Step      int      `json:"step"`
	ExposedBy []string `json:"exposedBy"`
}

// Sources returns the possible infectors of node id, sorted.
func (x *ExposureGraph) Sources(id int) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	set, ok := x.exposure[strconv.Itoa(id)]
	if !ok {
		return nil
	}
	sources := set.AsSlice()
	sort.Strings(sources)
	return sources
}

func (x *ExposureGraph) toJson() ([]byte, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	entries := make(map[string]exposureEntry, len(x.infectedAt))
	for key, step := range x.infectedAt {
		entry := exposureEntry{Step: step, ExposedBy: []string{}}
		if set, ok := x.exposure[key]; ok {
			entry.ExposedBy = set.AsSlice()
			sort.Strings(entry.ExposedBy)
		}
		entries[key] = entry
	}

	return json.MarshalIndent(entries, "", "  ")
}

func (x *ExposureGraph) RenderToFile(filename string) error {
	filename = filename + ".json"

	jsonData, err := x.toJson()
	if err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return err
	}

	return nil
}
