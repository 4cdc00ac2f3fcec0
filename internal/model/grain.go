package model

import "fmt"

// GrainKind classifies a routing key in the silo directory.
type GrainKind int

const (
	KindOrdinary GrainKind = iota
	KindSystemTarget
	KindClient
)

func (k GrainKind) String() string {
	switch k {
	case KindOrdinary:
		return "grain"
	case KindSystemTarget:
		return "system_target"
	case KindClient:
		return "client"
	default:
		return "unknown"
	}
}

// GrainID is a routing key in the silo directory. Kind carries the
// classification used to exclude internal entries from introspection.
type GrainID struct {
	Kind GrainKind
	Key  string
}

// NewGrainID returns an ordinary grain routing key.
func NewGrainID(key string) GrainID {
	return GrainID{Kind: KindOrdinary, Key: key}
}

// IsOrdinary reports whether the key addresses a user grain, as opposed
// to a system target or a connected client.
func (g GrainID) IsOrdinary() bool { return g.Kind == KindOrdinary }

func (g GrainID) IsSystemTarget() bool { return g.Kind == KindSystemTarget }

func (g GrainID) IsClient() bool { return g.Kind == KindClient }

func (g GrainID) String() string {
	return fmt.Sprintf("%s/%s", g.Kind, g.Key)
}

// GrainInfo is the directory's location and ownership record for one grain.
type GrainInfo struct {
	Silo       Endpoint
	Activation string
}
