package nestmap

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingKey reports a key (or a required segment of it) that is absent.
	ErrMissingKey = errors.New("nestmap: missing key")
	// ErrNotTraversable reports a scalar found where a sub-mapping was required.
	ErrNotTraversable = errors.New("nestmap: not a traversable node")
	// ErrCycleDetected reports a bang-string chase that revisited a key.
	ErrCycleDetected = errors.New("nestmap: cyclic bang-key reference")
	// ErrDepthExceeded reports a bang-string chase longer than the configured limit.
	ErrDepthExceeded = errors.New("nestmap: bang-key reference chain too deep")
	// ErrInvalidInput reports an input shape Update cannot merge.
	ErrInvalidInput = errors.New("nestmap: invalid input")
)

// Op names the kind of keyed access that failed.
type Op string

const (
	OpGet    Op = "get"
	OpSet    Op = "set"
	OpDelete Op = "delete"
)

func (op Op) phrase() string {
	switch op {
	case OpGet:
		return "retrieved from like a mapping"
	case OpSet:
		return "overwritten with a new sub-mapping"
	case OpDelete:
		return "be deleted from"
	default:
		return "modified"
	}
}

// KeyError describes a failed keyed access. Key is always the full key the
// caller asked for; Prefix is the bang-key of the offending node, if any.
type KeyError struct {
	Key    string
	Prefix string
	Op     Op
	Err    error
	detail string
}

func (e *KeyError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if errors.Is(e.Err, ErrMissingKey) {
		return fmt.Sprintf("%v: %q", e.Err, e.Key)
	}
	if e.detail != "" {
		return fmt.Sprintf("%v: key %q: %s", e.Err, e.Key, e.detail)
	}
	return fmt.Sprintf("%v: key %q: bang-key %q doesn't point to a sub-mapping but to a single value, "+
		"which cannot be %s. To replace or remove the value, call Delete(%q) first and then "+
		"optionally re-assign a new sub-mapping to the key",
		e.Err, e.Key, e.Prefix, e.Op.phrase(), e.Prefix)
}

func (e *KeyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func missingKey(key string, op Op) error {
	return &KeyError{Key: key, Op: op, Err: ErrMissingKey}
}

func notTraversable(key string, chunks []string, op Op) error {
	return &KeyError{Key: key, Prefix: joinChunks(chunks), Op: op, Err: ErrNotTraversable}
}

func occupiedBySubMap(key string) error {
	return &KeyError{
		Key: key, Prefix: key, Op: OpSet, Err: ErrNotTraversable,
		detail: fmt.Sprintf("bang-key %q points to a sub-mapping, which cannot be overwritten with a single value. "+
			"To replace the sub-mapping, call Delete(%q) first and then re-assign the key", key, key),
	}
}

// CycleError reports the chain of keys visited before a revisit was detected.
type CycleError struct {
	Key   string
	Chain []string
}

func (e *CycleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v: %q via %s", ErrCycleDetected, e.Key, strings.Join(e.Chain, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}
