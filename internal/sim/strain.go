package sim

import (
	"fmt"
	"strings"
)

// Strain is the malware archetype that infected a node. The zero value None means the
// node is healthy.
type Strain int

const (
	None Strain = iota
	Virus
	Worm
	Trojan
)

// Strains lists the selectable strains in display order.
var Strains = []Strain{Virus, Worm, Trojan}

func (s Strain) String() string {
	switch s {
	case Virus:
		return "virus"
	case Worm:
		return "worm"
	case Trojan:
		return "trojan"
	default:
		return "none"
	}
}

// ParseStrain accepts the lower case names returned by String, ignoring case.
func ParseStrain(s string) (Strain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "virus":
		return Virus, nil
	case "worm":
		return Worm, nil
	case "trojan":
		return Trojan, nil
	case "none", "":
		return None, nil
	}
	return None, fmt.Errorf("unknown strain %q", s)
}

func (s Strain) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Strain) UnmarshalText(b []byte) error {
	parsed, err := ParseStrain(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Color is the fill colour used by every renderer for nodes infected with s.
func (s Strain) Color() string {
	switch s {
	case Virus:
		return "#EF4444"
	case Worm:
		return "#F59E0B"
	case Trojan:
		return "#3B82F6"
	}
	return HealthyColor(false)
}

// HealthyColor is the fill colour of uninfected nodes.
func HealthyColor(dark bool) string {
	if dark {
		return "#6B7280"
	}
	return "#D1D5DB"
}

func (s Strain) Description() string {
	switch s {
	case Virus:
		return "Infects files locally and spreads when files are shared or executed."
	case Worm:
		return "Self-replicates across networks rapidly without user interaction."
	case Trojan:
		return "Disguised as legitimate software, activates malicious payload later."
	}
	return ""
}

// DefaultMultiplier scales the base infection probability per strain: worms spread
// fastest and trojans slowest.
func DefaultMultiplier(s Strain) float64 {
	switch s {
	case Worm:
		return 1.5
	case Virus:
		return 0.8
	case Trojan:
		return 0.5
	}
	return 0
}
