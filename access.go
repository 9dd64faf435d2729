package evoke

import (
	"errors"
	"fmt"
)

// Access declares a view field's intent toward its component.
type Access uint8

const (
	// Read declares shared, read-only access.
	Read Access = iota
	// Write declares exclusive, mutable access.
	Write
)

// Errors reported at registration time, before any handler runs.
var (
	// ErrConflictingAccess is returned when two fields of one composite
	// declaration claim overlapping mutable access to the same component.
	ErrConflictingAccess = errors.New("evoke: conflicting component access")
	// ErrImmutableComponent is returned when write access is declared on a
	// component registered as immutable.
	ErrImmutableComponent = errors.New("evoke: write access to immutable component")
	// ErrUnregisteredComponent is returned when a view names a component
	// type with no registration in the world.
	ErrUnregisteredComponent = errors.New("evoke: component type not registered")
)

// ComponentAccess records which components a query or handler reads and
// which it writes. Conflicts are detected once here, at registration, and
// never re-verified on the fetch path.
type ComponentAccess struct {
	read  bitmask256
	write bitmask256
}

// Reads reports whether the descriptor declares read access to the
// component index.
func (a ComponentAccess) Reads(idx ComponentIdx) bool {
	return a.read.containsBit(uint8(idx))
}

// Writes reports whether the descriptor declares write access to the
// component index.
func (a ComponentAccess) Writes(idx ComponentIdx) bool {
	return a.write.containsBit(uint8(idx))
}

// Touches reports whether the descriptor names the component index at all.
func (a ComponentAccess) Touches(idx ComponentIdx) bool {
	return a.Reads(idx) || a.Writes(idx)
}

// ReadOnly reports whether the descriptor declares no write access.
func (a ComponentAccess) ReadOnly() bool {
	return a.write.isZero()
}

// add folds one field's intent into the descriptor. Two mutable claims, or
// a mutable and a read claim, on the same component conflict.
func (a *ComponentAccess) add(idx ComponentIdx, acc Access) error {
	bit := uint8(idx)
	switch acc {
	case Write:
		if a.read.containsBit(bit) || a.write.containsBit(bit) {
			return fmt.Errorf("%w: component index %d borrowed twice with write intent", ErrConflictingAccess, idx)
		}
		a.write.set(bit)
	default:
		if a.write.containsBit(bit) {
			return fmt.Errorf("%w: component index %d read while write-borrowed", ErrConflictingAccess, idx)
		}
		a.read.set(bit)
	}
	return nil
}

// Merge combines two descriptors, failing if any component would end up
// with overlapping mutable access.
func (a ComponentAccess) Merge(b ComponentAccess) (ComponentAccess, error) {
	if a.write.intersects(b.read) || a.write.intersects(b.write) || a.read.intersects(b.write) {
		return ComponentAccess{}, ErrConflictingAccess
	}
	return ComponentAccess{
		read:  a.read.union(b.read),
		write: a.write.union(b.write),
	}, nil
}

// MergeAccess folds any number of descriptors into one, failing on the
// first conflict.
func MergeAccess(accs ...ComponentAccess) (ComponentAccess, error) {
	var out ComponentAccess
	for _, acc := range accs {
		var err error
		out, err = out.Merge(acc)
		if err != nil {
			return ComponentAccess{}, err
		}
	}
	return out, nil
}
