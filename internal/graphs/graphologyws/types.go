package graphologyws

import (
	"github.com/psidex/malsim/internal/graphs/graphology"
	"github.com/psidex/malsim/internal/sim"
)

// Message types sent to the frontend.
const (
	TypeGraph  = "graph"
	TypeTick   = "tick"
	TypeState  = "state"
	TypeExport = "export"
	TypeError  = "error"
)

// Message is the envelope of every server to client websocket message.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// GraphData is sent after every reset, the frontend replaces everything it has.
type GraphData struct {
	SessionID string                     `json:"session"`
	Step      int                        `json:"step"`
	Infected  int                        `json:"infected"`
	Total     int                        `json:"total"`
	Strain    sim.Strain                 `json:"strain"`
	State     string                     `json:"state"`
	Graph     graphology.SerializedGraph `json:"graph"`
	Series    sim.TimeSeries             `json:"series"`
}

type Position struct {
	Key string  `json:"key"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
}

// TickData carries only what changed in a tick.
type TickData struct {
	Step          int        `json:"step"`
	Infected      int        `json:"infected"`
	Total         int        `json:"total"`
	Positions     []Position `json:"positions"`
	NewlyInfected []string   `json:"newlyInfected"`
	Color         string     `json:"color"`
	Sample        sim.Sample `json:"sample"`
}

type StateData struct {
	State string `json:"state"`
}

type ExportData struct {
	Filename string `json:"filename"`
	CSV      string `json:"csv"`
}

type ErrorData struct {
	Message string `json:"message"`
}
