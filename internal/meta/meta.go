// Package meta implements the metacontext: the process-wide store of
// metavariable entries, plus the constancy-constraint entries that live
// alongside them.
//
// The metacontext is the only mutable state in the elaborator. Every
// other datum is immutable and passed explicitly.
package meta

import (
	"github.com/ailang-lang/telescope/internal/value"
)

// Entry is one metacontext slot: Unsolved, Solved, or Constancy.
type Entry interface{ isEntry() }

// Unsolved is an open metavariable, blocked on the set of constancy
// constraints (named by their own meta id) that currently depend on it.
type Unsolved struct {
	Blockers map[value.MetaID]struct{}
	Type     value.Val
}

// Solved is a closed metavariable.
type Solved struct {
	Value value.Val
}

// Constancy is a deferred check that a telescope Dom is empty iff its
// codomain Cod does not use the telescope's bound variable. Len is the
// length of the *unextended* context in which Dom lives; the telescope's
// bound variable has level Len, and Cod has already been applied to that
// variable, so it lives in a context one longer than Len.
type Constancy struct {
	Len      int
	Dom      value.Val
	Cod      value.Val
	Blockers map[value.MetaID]struct{}
}

func (Unsolved) isEntry()  {}
func (Solved) isEntry()    {}
func (Constancy) isEntry() {}

// MetaContext is the mutable id -> Entry store plus the monotonic id
// counter used both for ordinary metas and for naming inserted telescope
// binders (Γ0, Γ1, …).
type MetaContext struct {
	entries []Entry
}

// New creates an empty metacontext.
func New() *MetaContext { return &MetaContext{} }

// NewMeta allocates a fresh id and stores entry under it.
func (m *MetaContext) NewMeta(entry Entry) value.MetaID {
	id := value.MetaID(len(m.entries))
	m.entries = append(m.entries, entry)
	return id
}

// LookupMeta returns the entry stored for m. Looking up an id that was
// never allocated is a programming error.
func (m *MetaContext) LookupMeta(id value.MetaID) Entry {
	return m.entries[id]
}

// WriteMeta overwrites the entry stored for m.
func (m *MetaContext) WriteMeta(id value.MetaID, entry Entry) {
	m.entries[id] = entry
}

// ModifyMeta applies f to the entry at id and stores the result.
func (m *MetaContext) ModifyMeta(id value.MetaID, f func(Entry) Entry) {
	m.entries[id] = f(m.entries[id])
}

// AlterMeta is ModifyMeta under another name and behaves identically: f
// may return any entry kind, and an id that was never allocated panics.
// Kept as a separate name so call sites can document intent.
func (m *MetaContext) AlterMeta(id value.MetaID, f func(Entry) Entry) {
	m.ModifyMeta(id, f)
}

// NextMId previews the id the next NewMeta call will allocate, used to
// name inserted telescope binders before they are themselves metas.
func (m *MetaContext) NextMId() value.MetaID { return value.MetaID(len(m.entries)) }

// All iterates over every allocated entry in allocation order.
func (m *MetaContext) All(f func(value.MetaID, Entry)) {
	for i, e := range m.entries {
		f(value.MetaID(i), e)
	}
}
