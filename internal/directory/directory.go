// Package directory is the in-memory grain routing directory and the type
// registry that resolves which grain interface owns a routing key. The
// directory tolerates concurrent registration and removal; readers see
// each entry atomically but no cross-entry consistency is promised.
package directory

import (
	"fmt"
	"sync"

	"github.com/maniacs-sfa/orleans/internal/model"
)

// Directory maps grain routing keys to location records.
type Directory struct {
	entries sync.Map // model.GrainID -> model.GrainInfo
}

// New returns an empty directory.
func New() *Directory {
	return &Directory{}
}

// Register upserts the location record for a grain.
func (d *Directory) Register(id model.GrainID, info model.GrainInfo) {
	d.entries.Store(id, info)
}

// Unregister removes a grain's record, if present.
func (d *Directory) Unregister(id model.GrainID) {
	d.entries.Delete(id)
}

// Lookup returns the location record for a grain.
func (d *Directory) Lookup(id model.GrainID) (model.GrainInfo, bool) {
	v, ok := d.entries.Load(id)
	if !ok {
		return model.GrainInfo{}, false
	}
	return v.(model.GrainInfo), true
}

// Len counts registered entries.
func (d *Directory) Len() int {
	n := 0
	d.entries.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

// Range calls fn for each entry until fn returns false.
func (d *Directory) Range(fn func(id model.GrainID, info model.GrainInfo) bool) {
	d.entries.Range(func(k, v any) bool {
		return fn(k.(model.GrainID), v.(model.GrainInfo))
	})
}

// TypeRegistry resolves the grain interface type name owning a routing key.
type TypeRegistry struct {
	types sync.Map // model.GrainID -> string
}

// NewTypeRegistry returns an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{}
}

// Bind associates a routing key with its grain interface type name.
func (r *TypeRegistry) Bind(id model.GrainID, typeName string) {
	r.types.Store(id, typeName)
}

// TypeName resolves the grain interface type name for id. Every live
// ordinary entry is expected to have a binding; a miss is a lookup error,
// not a recoverable condition.
func (r *TypeRegistry) TypeName(id model.GrainID) (string, error) {
	v, ok := r.types.Load(id)
	if !ok {
		return "", fmt.Errorf("directory: no grain type bound for %s", id)
	}
	return v.(string), nil
}
