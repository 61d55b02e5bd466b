// Package cxt implements the elaboration context: the value environment,
// the parallel type environment, and the name/origin bookkeeping that
// bidirectional elaboration and unification thread through every call.
package cxt

import "github.com/ailang-lang/telescope/internal/value"

// Origin records whether a bound name came from the user's source or was
// inserted by the elaborator (an implicit lambda, a telescope binder). Only
// FromSource names are visible to ordinary name lookup.
type Origin int

const (
	FromSource Origin = iota
	Inserted
)

// TypeEntryKind distinguishes a let-bound name (must be skipped when
// closing a type over the context) from a lambda-bound one (must become a
// Π, or a PiTel when its type is a VRec).
type TypeEntryKind int

const (
	Bound TypeEntryKind = iota
	Defined
)

// TypeEntry is one slot of the parallel type environment.
type TypeEntry struct {
	Kind TypeEntryKind
	Type value.Val
}

// Cxt is the elaboration context. Vals, Types, Names and Origins always
// have equal length Len; Len always equals Vals.Len().
type Cxt struct {
	Vals    value.Env
	Types   []TypeEntry
	Names   []string
	Origins []Origin
	Len     int
}

// Empty is the context at the top level: no bindings.
func Empty() *Cxt {
	return &Cxt{}
}

func (c *Cxt) clone() *Cxt {
	n := *c
	n.Vals = c.Vals[:len(c.Vals):len(c.Vals)]
	n.Types = append([]TypeEntry(nil), c.Types...)
	n.Names = append([]string(nil), c.Names...)
	n.Origins = append([]Origin(nil), c.Origins...)
	return &n
}

// Bind pushes a bound variable of semantic type a with the given name and
// origin. The environment grows by a Skipped slot: a bound variable has no
// value until it is substituted for.
func Bind(c *Cxt, name string, origin Origin, a value.Val) *Cxt {
	n := c.clone()
	n.Vals = n.Vals.ExtendSkip()
	n.Types = append(n.Types, TypeEntry{Kind: Bound, Type: a})
	n.Names = append(n.Names, name)
	n.Origins = append(n.Origins, origin)
	n.Len++
	return n
}

// BindSrc is Bind with origin FromSource — the common case inside
// elaboration rules that bind a surface-named variable.
func BindSrc(c *Cxt, name string, a value.Val) *Cxt {
	return Bind(c, name, FromSource, a)
}

// Define pushes a let-bound variable with both a value and a type.
func Define(c *Cxt, name string, val value.Val, typ value.Val) *Cxt {
	n := c.clone()
	n.Vals = n.Vals.Extend(val)
	n.Types = append(n.Types, TypeEntry{Kind: Defined, Type: typ})
	n.Names = append(n.Names, name)
	n.Origins = append(n.Origins, FromSource)
	n.Len++
	return n
}

// LvlName maps a de Bruijn level to the name bound at that position.
func LvlName(c *Cxt, l value.Lvl) string {
	idx := int(l)
	if idx < 0 || idx >= len(c.Names) {
		return "?"
	}
	return c.Names[idx]
}
