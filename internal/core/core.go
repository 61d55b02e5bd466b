// Package core defines the elaborated core term representation, Tm.
//
// Tm is produced by the elaborator (internal/elaborate) and consumed by
// the evaluator (internal/nbe). Variables are de Bruijn indices, so Tm is
// stable under weakening: a closed sub-term can be copied into a deeper
// binding context without renaming.
package core

import "github.com/ailang-lang/telescope/internal/value"

// Tm is the base interface implemented by every core term former.
type Tm interface{ isTm() }

// Var is a bound variable reference by de Bruijn index (distance from its
// binder, counting inward).
type Var struct{ Idx int }

// Let is a non-recursive, annotated let-binding.
type Let struct {
	Name string
	Type Tm
	Val  Tm
	Body Tm
}

// Pi is a dependent function type, tagged with the icitness of its
// argument.
type Pi struct {
	Name string
	Icit value.Icit
	Dom  Tm
	Cod  Tm
}

// Lam is a lambda with an annotated domain (the domain is always recorded,
// even when the surface syntax omitted it — elaboration fills it in with a
// fresh meta or the Π's domain).
type Lam struct {
	Name string
	Icit value.Icit
	Dom  Tm
	Body Tm
}

// App is application, tagged with the icitness under which the argument
// was applied.
type App struct {
	Icit value.Icit
	Func Tm
	Arg  Tm
}

// U is the universe. Type-in-type: U has type U.
type U struct{}

// Meta is a reference to a metavariable pending solution in the
// metacontext.
type Meta struct{ Id value.MetaID }

// Skip represents explicit strengthening past a bound variable. It appears
// only inside types built by closingTy, and is eliminated either by
// evaluating a surrounding Let or by a matching Skipped environment slot.
type Skip struct{ Body Tm }

// PiTel is a Π generalized over a telescope-typed domain: Dom has type Tel,
// Cod is a function from a record of shape Dom to U.
type PiTel struct {
	Name string
	Dom  Tm
	Cod  Tm
}

// LamTel is the lambda dual of PiTel.
type LamTel struct {
	Name string
	Dom  Tm
	Body Tm
}

// AppTel is application of a telescope-abstracted function. The telescope
// domain type is stored explicitly (Dom) because, unlike an ordinary App,
// there is no Π to recover it from at quote time once the function has
// been forced to a neutral.
type AppTel struct {
	Dom  Tm
	Func Tm
	Arg  Tm
}

// Tel is the universe of telescopes.
type Tel struct{}

// TEmpty is the empty telescope.
type TEmpty struct{}

// TCons extends a telescope: Head is the type of the first component,
// Tail is a function from a record of shape Head to the rest of the
// telescope.
type TCons struct {
	Name string
	Head Tm
	Tail Tm
}

// Rec turns a telescope value into the type of records matching its shape.
type Rec struct{ Tel Tm }

// Tempty is the unique value of type Rec TEmpty.
type Tempty struct{}

// Tcons is a record cons cell, inhabiting Rec (TCons x Head Tail).
type Tcons struct {
	Head Tm
	Tail Tm
}

func (Var) isTm()    {}
func (Let) isTm()    {}
func (Pi) isTm()     {}
func (Lam) isTm()    {}
func (App) isTm()    {}
func (U) isTm()      {}
func (Meta) isTm()   {}
func (Skip) isTm()   {}
func (PiTel) isTm()  {}
func (LamTel) isTm() {}
func (AppTel) isTm() {}
func (Tel) isTm()    {}
func (TEmpty) isTm() {}
func (TCons) isTm()  {}
func (Rec) isTm()    {}
func (Tempty) isTm() {}
func (Tcons) isTm()  {}
