package nestmap

import (
	"encoding/json"
	"errors"
)

// Trace captures provenance for a key lookup across the scoped layers of a
// Stack, strongest first.
type Trace struct {
	Path   string       `json:"path"`
	Layers []Provenance `json:"layers"`
}

// Provenance details how a specific scope contributed to a traced key.
type Provenance struct {
	Scope      Scope  `json:"scope"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Path       string `json:"path"`
	Value      any    `json:"value,omitempty"`
	Found      bool   `json:"found"`
}

// Winner returns the strongest layer that defines the path.
func (t Trace) Winner() (Provenance, bool) {
	for _, prov := range t.Layers {
		if prov.Found {
			return prov, true
		}
	}
	return Provenance{}, false
}

// ToJSON serialises the trace for logging or the CLI.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// Trace looks key up in every layer and records what each one holds. A
// trailing resolving marker is ignored; each layer resolves references
// within itself.
func (s *Stack) Trace(key string) (Trace, error) {
	if s == nil || len(s.layers) == 0 {
		return Trace{}, ErrEmptyStack
	}
	key, _ = trimResolvingMark(key)
	trace := Trace{Path: key, Layers: make([]Provenance, 0, len(s.layers))}
	for _, layer := range s.layers {
		prov := Provenance{
			Scope:      layer.Scope.clone(),
			SnapshotID: layer.SnapshotID,
			Path:       key,
		}
		value, err := layer.Tree.Get(key)
		switch {
		case err == nil:
			prov.Found = true
			prov.Value = value.Interface()
		case errors.Is(err, ErrMissingKey), errors.Is(err, ErrNotTraversable):
		default:
			return Trace{}, err
		}
		trace.Layers = append(trace.Layers, prov)
	}
	return trace, nil
}

// ResolveWithTrace returns the effective value of key together with its
// trace.
func (s *Stack) ResolveWithTrace(key string) (Value, Trace, error) {
	view, err := s.View()
	if err != nil {
		return Value{}, Trace{}, err
	}
	trace, err := s.Trace(key)
	if err != nil {
		return Value{}, Trace{}, err
	}
	value, err := view.Get(key)
	if err != nil {
		return Value{}, trace, err
	}
	return value, trace, nil
}

// FlattenWithProvenance lists every leaf key of the merged view with the
// layer that supplies its effective value.
func (s *Stack) FlattenWithProvenance() ([]Provenance, error) {
	view, err := s.View()
	if err != nil {
		return nil, err
	}
	var out []Provenance
	for key := range view.Keys() {
		trace, err := s.Trace(key)
		if err != nil {
			return nil, err
		}
		if winner, ok := trace.Winner(); ok {
			out = append(out, winner)
		}
	}
	return out, nil
}
