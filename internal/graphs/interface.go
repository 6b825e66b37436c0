package graphs

import (
	"github.com/psidex/malsim/internal/sim"
)

// Frame is what a session publishes after every reset and every tick. Graph and Series
// are copies owned by the receiver.
type Frame struct {
	SessionID string
	// Reset is true for the first frame of a freshly generated graph.
	Reset  bool
	Step   int
	State  string
	Strain sim.Strain
	Graph  sim.Graph
	Series sim.TimeSeries
	// NewlyInfected lists the ids infected by this tick, in id order.
	NewlyInfected []int
}

// Infected is the infected count of the frame's latest sample.
func (f Frame) Infected() int {
	return f.Series.Last().Infected
}

// GraphProvider defines an interface that can be used to follow a running simulation.
type GraphProvider interface {
	// Observe is called synchronously by the session for every frame, in order. It
	// must not call back into the session.
	Observe(f Frame)
}

// CliGraphProvider extends the GraphProvider interface to accommodate CLI
// functionality.
type CliGraphProvider interface {
	GraphProvider

	// RenderToFile is not assumed to be thread-safe.
	// filename should be the desired file name without an extension.
	RenderToFile(filename string) error
}

// WebsocketGraphProvider extends the GraphProvider interface to accommodate WebSocket
// functionality.
type WebsocketGraphProvider interface {
	GraphProvider

	// NotifyState tells the client the driver moved to state.
	NotifyState(state string)
	// NotifyExport sends the CSV export of the current series.
	NotifyExport(csv string)
	// NotifyError reports a rejected client command.
	NotifyError(msg string)
}
