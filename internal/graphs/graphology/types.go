package graphology

import "github.com/psidex/malsim/internal/sim"

type NodeAttributes struct {
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	Size     float64    `json:"size"`
	Label    string     `json:"label"`
	Color    string     `json:"color"`
	Infected bool       `json:"infected"`
	Strain   sim.Strain `json:"strain,omitempty"`
}

type Node struct {
	Key        string         `json:"key"`
	Attributes NodeAttributes `json:"attributes"`
}

type EdgeAttributes struct {
	Size int `json:"size"`
}

type Edge struct {
	Key        string         `json:"key"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Attributes EdgeAttributes `json:"attributes"`
}

type GraphAttributes struct {
	Step   int            `json:"step"`
	Strain sim.Strain     `json:"strain"`
	Series sim.TimeSeries `json:"series"`
}

type SerializedGraph struct {
	Attributes GraphAttributes `json:"attributes"`
	Options    GraphOptions    `json:"options"`
	Nodes      []Node          `json:"nodes"`
	Edges      []Edge          `json:"edges"`
}

type GraphOptions struct {
	Type       string `json:"type"`
	Multi      bool   `json:"multi"`
	AllowLoops bool   `json:"allowSelfLoops"`
}
