package vis

type nodeData struct {
	ID    int     `json:"id"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
}

type node struct {
	Type string   `json:"type"` // always "node"
	Data nodeData `json:"data"`
}

func newNode() node {
	return node{Type: "node"}
}

type edgeData struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type edge struct {
	Type string   `json:"type"` // always "edge"
	Data edgeData `json:"data"`
}

func newEdge() edge {
	return edge{Type: "edge"}
}

type infectData struct {
	ID    int    `json:"id"`
	Step  int    `json:"step"`
	Color string `json:"color"`
}

type infect struct {
	Type string     `json:"type"` // always "infect"
	Data infectData `json:"data"`
}

func newInfect() infect {
	return infect{Type: "infect"}
}
