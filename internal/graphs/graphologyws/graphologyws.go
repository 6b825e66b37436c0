package graphologyws

import (
	"log/slog"
	"strconv"
	"sync"

	"github.com/psidex/malsim/internal/graphs"
	"github.com/psidex/malsim/internal/graphs/graphology"
	"github.com/psidex/malsim/internal/sim"
)

// JSONWriter is the part of lib.ThreadSafeWebSocket used to stream messages.
type JSONWriter interface {
	WriteJSON(v interface{}) error
}

// MessageRecorder is called with the type of every message that was written
// successfully.
type MessageRecorder func(msgType string)

// GraphologyWs defines a WebsocketGraphProvider that renders frames as Graphology data
// for the browser frontend and streams them over a websocket.
type GraphologyWs struct {
	mu     *sync.Mutex
	ws     JSONWriter
	logger *slog.Logger
	dark   bool
	record MessageRecorder
	// Only the first write error is logged, the connection is usually gone after it.
	failed bool
}

var _ graphs.WebsocketGraphProvider = (*GraphologyWs)(nil)

func NewGraphologyWs(ws JSONWriter, logger *slog.Logger, dark bool) *GraphologyWs {
	return &GraphologyWs{
		mu:     &sync.Mutex{},
		ws:     ws,
		logger: logger,
		dark:   dark,
	}
}

// OnMessage sets a hook that is called for every message sent.
func (g *GraphologyWs) OnMessage(record MessageRecorder) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record = record
}

func (g *GraphologyWs) Observe(f graphs.Frame) {
	total := len(f.Graph.Nodes)

	if f.Reset {
		g.send(TypeGraph, GraphData{
			SessionID: f.SessionID,
			Step:      f.Step,
			Infected:  f.Infected(),
			Total:     total,
			Strain:    f.Strain,
			State:     f.State,
			Graph:     graphology.Serialize(f, g.dark),
			Series:    f.Series,
		})
		return
	}

	positions := make([]Position, 0, total)
	for _, n := range f.Graph.Nodes {
		positions = append(positions, Position{Key: strconv.Itoa(n.ID), X: n.X, Y: n.Y})
	}
	newlyInfected := make([]string, 0, len(f.NewlyInfected))
	for _, id := range f.NewlyInfected {
		newlyInfected = append(newlyInfected, strconv.Itoa(id))
	}

	g.send(TypeTick, TickData{
		Step:          f.Step,
		Infected:      f.Infected(),
		Total:         total,
		Positions:     positions,
		NewlyInfected: newlyInfected,
		Color:         f.Strain.Color(),
		Sample:        f.Series.Last(),
	})
}

func (g *GraphologyWs) NotifyState(state string) {
	g.send(TypeState, StateData{State: state})
}

func (g *GraphologyWs) NotifyExport(csv string) {
	g.send(TypeExport, ExportData{Filename: sim.CSVFilename, CSV: csv})
}

func (g *GraphologyWs) NotifyError(msg string) {
	g.send(TypeError, ErrorData{Message: msg})
}

func (g *GraphologyWs) send(msgType string, data interface{}) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.ws.WriteJSON(Message{Type: msgType, Data: data}); err != nil {
		if !g.failed {
			g.logger.Warn("websocket write failed", "type", msgType, "err", err)
		}
		g.failed = true
		return
	}
	if g.record != nil {
		g.record(msgType)
	}
}
