package builder

import "fmt"

// UnknownKeyError reports a registry lookup for a key that was never
// declared. It always indicates an assembly-order bug, never a data
// condition, and aborts the build.
type UnknownKeyError struct {
	Kind string // "variable" or "constraint"
	Key  Key
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("builder: unknown %s key %s", e.Kind, e.Key.Name())
}

// DuplicateKeyError reports a second declaration of an existing key. Keys are
// unique at creation time; a collision is the same class of defect as an
// unknown key.
type DuplicateKeyError struct {
	Kind string
	Key  Key
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("builder: duplicate %s key %s", e.Kind, e.Key.Name())
}
