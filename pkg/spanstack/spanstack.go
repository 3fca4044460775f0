// Package spanstack maintains the ambient span scope for log serialization.
//
// Every instrumented span pushes one entry when it starts; the log hook walks
// the scope root-to-leaf while an event is being recorded. The stack lives in
// the context, so scoping follows context lifetimes with no synchronization.
package spanstack

import "context"

// Entry is one recorded span: its name plus the fields captured when the
// span started, stored as a pre-serialized JSON fragment.
type Entry struct {
	Name   string
	Fields string
}

type ctxKey struct{}

// node is an immutable link in the scope chain; contexts share unmodified
// ancestors structurally.
type node struct {
	parent *node
	entry  Entry
}

// Push returns a context whose span scope is extended with entry.
func Push(ctx context.Context, entry Entry) context.Context {
	parent, _ := ctx.Value(ctxKey{}).(*node)
	return context.WithValue(ctx, ctxKey{}, &node{parent: parent, entry: entry})
}

// Current returns the leaf entry of the scope, if any.
func Current(ctx context.Context) (Entry, bool) {
	n, _ := ctx.Value(ctxKey{}).(*node)
	if n == nil {
		return Entry{}, false
	}
	return n.entry, true
}

// Scope returns the entries of the active span scope ordered root to leaf.
// It returns nil when no span has been recorded on the context.
func Scope(ctx context.Context) []Entry {
	n, _ := ctx.Value(ctxKey{}).(*node)
	if n == nil {
		return nil
	}
	depth := 0
	for m := n; m != nil; m = m.parent {
		depth++
	}
	out := make([]Entry, depth)
	for m := n; m != nil; m = m.parent {
		depth--
		out[depth] = m.entry
	}
	return out
}
