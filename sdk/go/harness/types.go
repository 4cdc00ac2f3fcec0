package harness

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested provider or entry does not
// exist. Not found is a normal introspection outcome, distinct from a
// boundary violation.
var ErrNotFound = errors.New("harness: not found")

// DirectoryEntry is one ordinary grain directory entry.
type DirectoryEntry struct {
	Key        string `json:"key"`
	Type       string `json:"type"`
	Silo       string `json:"silo"`
	Activation string `json:"activation"`
}

// ProviderRef describes a provider resolved through the boundary guard:
// either a remote reference or a serialized value copy.
type ProviderRef struct {
	Kind      string         `json:"kind"`
	Name      string         `json:"name"`
	Reference map[string]any `json:"reference,omitempty"`
	Value     any            `json:"value,omitempty"`
}

// Status is the harness host's control-plane status.
type Status struct {
	RunID     string `json:"run_id"`
	Uptime    string `json:"uptime"`
	Armed     bool   `json:"armed"`
	Sent      uint64 `json:"sent"`
	Dropped   uint64 `json:"dropped"`
	Directory int    `json:"directory"`
}

// BoundaryError is returned when a resolved object was refused at the
// isolation boundary. TypeName is the concrete type inside the silo
// process; Role describes what the object was resolved as.
type BoundaryError struct {
	TypeName string `json:"type"`
	Role     string `json:"role"`
	Message  string `json:"error"`
}

func (e *BoundaryError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("harness: %s of type %s refused at isolation boundary", e.Role, e.TypeName)
}
