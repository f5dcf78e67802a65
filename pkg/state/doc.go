// Package state loads and saves per-scope configuration layers and assembles
// them into a nestmap.Stack.
//
// A Store only loads or saves the ordered tree (nestmap.Pairs) of a single
// Ref. The Resolver loads several scopes, wraps each in a nestmap.Layer and
// builds the Stack; the core nestmap package never touches storage.
//
// Data flow:
//
//	Store -> Resolver -> nestmap.NewStack(...) -> Stack.View() / Stack.Trace()
//
// Provenance:
//
//	Meta.SnapshotID becomes Layer.SnapshotID and shows up in Stack.Trace.
//
// Deterministic keys:
//
//	Ref.Identifier() gives "defaults/<domain>" for the defaults scope and
//	"<scope>/<id>/<domain>" for package, mode and user scopes, where id is
//	read from the "<scope>_id" scope metadata.
package state
