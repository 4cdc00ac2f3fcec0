// Package boundary gates what may be returned across the isolation
// boundary between the silo process and the test driver. Only objects
// carrying an explicit crossing capability are allowed out: either they
// can be handed over as a remote reference, or they can be copied by
// value. Anything else fails loudly at the boundary instead of producing
// a disconnected or unmarshalable object on the driver side.
package boundary

import "fmt"

// Ref is the opaque handle a remote-referenceable object hands to the
// driver in place of itself. The driver presents it back to the origin
// process to invoke the real object.
type Ref struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// RemoteReferencer objects cross the boundary as a remote reference;
// invocations on the reference forward back to the origin process.
type RemoteReferencer interface {
	RemoteReference() Ref
}

// ValueCopier objects cross the boundary by value; the copy is
// independent of the original afterward.
type ValueCopier interface {
	CopyValue() any
}

// UnsafeReturnError reports an object that satisfies neither crossing
// capability. It names the concrete type and the role the object was
// resolved for, so the misconfiguration is attributable immediately.
type UnsafeReturnError struct {
	TypeName string
	Role     string
}

func (e *UnsafeReturnError) Error() string {
	return fmt.Sprintf("boundary: %s of type %s cannot cross the isolation boundary: neither remote-referenceable nor value-serializable", e.Role, e.TypeName)
}

// ValidateForReturn checks candidate against the crossing capabilities.
// An absent candidate propagates as absent, not as a violation. A capable
// candidate is returned unchanged. Anything else returns an
// *UnsafeReturnError; role is the human-readable description used in it.
func ValidateForReturn(candidate any, role string) (any, error) {
	if candidate == nil {
		return nil, nil
	}
	switch candidate.(type) {
	case RemoteReferencer, ValueCopier:
		return candidate, nil
	}
	return nil, &UnsafeReturnError{
		TypeName: fmt.Sprintf("%T", candidate),
		Role:     role,
	}
}
