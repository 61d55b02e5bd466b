// Package unify implements conversion checking and higher-order pattern
// unification over value.Val, including the telescope/implicit-Π mediation
// a curried telescope domain requires, and the constancy constraints that
// elaboration defers when it cannot yet tell whether a telescope is
// degenerate. Constancy lives in this package (constancy.go) rather than
// its own, because tryConstancy calls Unify and a solved meta must in turn
// retry every constancy constraint it was blocking — a genuine two-way
// dependency that splitting into two packages would have to route back
// through an interface anyway.
package unify

import (
	"fmt"

	"github.com/ailang-lang/telescope/internal/meta"
	"github.com/ailang-lang/telescope/internal/nbe"
	"github.com/ailang-lang/telescope/internal/value"
)

// Error is the result of a failed unification or solve attempt. When the
// failure was found inside a sub-problem of this comparison, While holds
// that inner sub-problem's error.
type Error struct {
	Kind  string
	Lhs   value.Val
	Rhs   value.Val
	While *Error
}

func (e *Error) Error() string {
	msg := e.Kind
	if e.While != nil {
		return fmt.Sprintf("%s (while unifying %s)", msg, e.While.Kind)
	}
	return msg
}

func mismatch(lhs, rhs value.Val) *Error {
	return &Error{Kind: "type mismatch", Lhs: lhs, Rhs: rhs}
}

func wrapWhile(err error, outer *Error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		outer.While = e
		return outer
	}
	return err
}

// Unify compares t and u for definitional equality in a context of length
// d, solving any metavariables it can along the way. Both values are
// expected to already be in weak-head normal form produced by the same
// metacontext; Unify forces as needed internally.
func Unify(mcx *meta.MetaContext, d int, t, u value.Val) error {
	t = nbe.Force(mcx, t)
	u = nbe.Force(mcx, u)

	switch t := t.(type) {
	case value.VU:
		if _, ok := u.(value.VU); ok {
			return nil
		}
		return mismatch(t, u)

	case value.VPi:
		switch u := u.(type) {
		case value.VPi:
			if t.Icit != u.Icit {
				return mismatch(t, u)
			}
			if err := Unify(mcx, d, t.Dom, u.Dom); err != nil {
				return wrapWhile(err, mismatch(t, u))
			}
			v := value.VVar(value.Lvl(d))
			return Unify(mcx, d+1, t.Cod(v), u.Cod(v))
		case value.VPiTel:
			return mediateOrCollapse(mcx, d, u, t)
		default:
			return mismatch(t, u)
		}

	case value.VPiTel:
		switch u := u.(type) {
		case value.VPiTel:
			if err := Unify(mcx, d, t.Dom, u.Dom); err != nil {
				return wrapWhile(err, mismatch(t, u))
			}
			v := value.VVar(value.Lvl(d))
			return Unify(mcx, d+1, t.Cod(v), u.Cod(v))
		case value.VPi:
			return mediateOrCollapse(mcx, d, t, u)
		default:
			return collapseTel(mcx, d, t, u)
		}

	case value.VLam:
		v := value.VVar(value.Lvl(d))
		return Unify(mcx, d+1, t.Body(v), applyAsFunction(mcx, u, v, t.Icit))

	case value.VLamTel:
		v := value.VVar(value.Lvl(d))
		return Unify(mcx, d+1, t.Body(v), applyAsTelFunction(mcx, t.Dom, u, v))

	case value.VTel:
		if _, ok := u.(value.VTel); ok {
			return nil
		}
		return mismatch(t, u)

	case value.VTEmpty:
		if _, ok := u.(value.VTEmpty); ok {
			return nil
		}
		return mismatch(t, u)

	case value.VTCons:
		uu, ok := u.(value.VTCons)
		if !ok {
			return mismatch(t, u)
		}
		if err := Unify(mcx, d, t.Head, uu.Head); err != nil {
			return wrapWhile(err, mismatch(t, u))
		}
		v := value.VVar(value.Lvl(d))
		return Unify(mcx, d+1, t.Tail(v), uu.Tail(v))

	case value.VRec:
		uu, ok := u.(value.VRec)
		if !ok {
			return mismatch(t, u)
		}
		return Unify(mcx, d, t.Tel, uu.Tel)

	case value.VTempty:
		if _, ok := u.(value.VTempty); ok {
			return nil
		}
		return mismatch(t, u)

	case value.VTcons:
		uu, ok := u.(value.VTcons)
		if !ok {
			return mismatch(t, u)
		}
		if err := Unify(mcx, d, t.Head, uu.Head); err != nil {
			return wrapWhile(err, mismatch(t, u))
		}
		return Unify(mcx, d, t.Tail, uu.Tail)

	case value.VNe:
		switch {
		case isLamLike(u):
			v := value.VVar(value.Lvl(d))
			return Unify(mcx, d+1, applyAsFunction(mcx, t, v, lamIcit(u)), applyAsFunction(mcx, u, v, lamIcit(u)))
		default:
			return unifyNe(mcx, d, t, u)
		}

	default:
		return mismatch(t, u)
	}
}

func isLamLike(v value.Val) bool {
	switch v.(type) {
	case value.VLam, value.VLamTel:
		return true
	default:
		return false
	}
}

func lamIcit(v value.Val) value.Icit {
	if lam, ok := v.(value.VLam); ok {
		return lam.Icit
	}
	return value.Expl
}

func applyAsFunction(mcx *meta.MetaContext, fn value.Val, arg value.Val, icit value.Icit) value.Val {
	return nbe.VApp(mcx, fn, arg, icit)
}

func applyAsTelFunction(mcx *meta.MetaContext, dom value.Val, fn value.Val, arg value.Val) value.Val {
	return nbe.VAppTel(mcx, dom, fn, arg)
}

// mediateOrCollapse compares a telescope-generalized Π (tel) against an
// ordinary Π (pi). A non-implicit pi can never match a telescope directly
// other than by the telescope first collapsing to empty. An implicit pi
// is compared against tel's leading field by counting the implicit arity
// each side's codomain still carries once that field is supplied: if tel's
// count is at most pi's, mediateTelescope refines tel to carry pi's
// domain as its head with a fresh, still-open tail. Otherwise tel's
// codomain already carries more implicit fields than pi's, and the pair
// collapses by the usual telescope/Π equivalence: tel's domain must
// itself be empty.
func mediateOrCollapse(mcx *meta.MetaContext, d int, tel value.VPiTel, pi value.VPi) error {
	if pi.Icit != value.Impl {
		return collapseTel(mcx, d, tel, pi)
	}
	v := value.VVar(value.Lvl(d))
	lb := ImplArity(mcx, tel.Cod(v))
	rb := ImplArity(mcx, pi.Cod(v))
	if lb < rb+1 {
		return mediateTelescope(mcx, d, tel, pi)
	}
	return collapseTel(mcx, d, tel, pi)
}

// collapseTel applies the empty-telescope collapse: a PiTel whose domain
// is forced empty denotes the same function as its codomain applied to
// VTempty, so tel is equated with rhs by first forcing tel.Dom to
// VTEmpty and then unifying tel's body (with the telescope's own bound
// variable instantiated to VTempty) against rhs.
func collapseTel(mcx *meta.MetaContext, d int, tel value.VPiTel, rhs value.Val) error {
	if err := Unify(mcx, d, tel.Dom, value.VTEmpty{}); err != nil {
		return wrapWhile(err, mismatch(tel, rhs))
	}
	return Unify(mcx, d, tel.Cod(value.VTempty{}), rhs)
}

// mediateTelescope refines tel's domain to explicitly carry pi's domain
// as its leading field: tel.Dom is unified against a telescope cons cell
// headed by pi's domain, with a fresh Tel-sorted meta standing in for
// whatever fields remain after it. That meta is not itself closed over
// the ambient context — Unify only carries a de Bruijn depth, not the
// type information FreshMeta would need to close over every bound
// variable — so it stands for a telescope that is only further refined
// by subsequent mediation or constancy, never directly inspected for its
// free variables. A constancy constraint is registered for it against
// tel's codomain (instantiated at the new field), mirroring the check
// elaboration performs when it first introduces a telescope binder, and
// finally the two sides' bodies are unified with that field now bound in
// both.
func mediateTelescope(mcx *meta.MetaContext, d int, tel value.VPiTel, pi value.VPi) error {
	v := value.VVar(value.Lvl(d))
	m := mcx.NewMeta(meta.Unsolved{Type: value.VTel{}, Blockers: map[value.MetaID]struct{}{}})
	mVal := value.VMeta(m)
	tail := func(value.Val) value.Val { return mVal }
	cons := value.VTCons{Name: pi.Name, Head: pi.Dom, Tail: tail}
	if err := Unify(mcx, d, tel.Dom, cons); err != nil {
		return wrapWhile(err, mismatch(tel, pi))
	}
	if _, err := NewConstancy(mcx, d+1, mVal, tel.Cod(v)); err != nil {
		return err
	}
	return Unify(mcx, d+1, tel.Cod(v), pi.Cod(v))
}

// unifyNe compares two neutrals. Rigid-rigid requires identical heads and
// pointwise-equal spines; a meta head on either side attempts to solve
// that meta against the other side's whole value.
func unifyNe(mcx *meta.MetaContext, d int, t, u value.Val) error {
	tn, tok := t.(value.VNe)
	un, uok := u.(value.VNe)

	if tok && tn.Head.Tag == value.HMeta {
		return SolveMeta(mcx, d, tn.Head.Meta, tn.Sp, u)
	}
	if uok && un.Head.Tag == value.HMeta {
		return SolveMeta(mcx, d, un.Head.Meta, un.Sp, t)
	}
	if !tok || !uok {
		return mismatch(t, u)
	}
	if tn.Head != un.Head {
		return mismatch(t, u)
	}
	if len(tn.Sp) != len(un.Sp) {
		return mismatch(t, u)
	}
	for i := range tn.Sp {
		if err := unifyElim(mcx, d, tn.Sp[i], un.Sp[i]); err != nil {
			return wrapWhile(err, mismatch(t, u))
		}
	}
	return nil
}

func unifyElim(mcx *meta.MetaContext, d int, a, b value.Elim) error {
	if a.Tag != b.Tag {
		return mismatch(a.Arg, b.Arg)
	}
	switch a.Tag {
	case value.EApp:
		if a.Icit != b.Icit {
			return mismatch(a.Arg, b.Arg)
		}
		return Unify(mcx, d, a.Arg, b.Arg)
	case value.EAppTel:
		return Unify(mcx, d, a.Arg, b.Arg)
	case value.EProj1, value.EProj2:
		return nil
	default:
		return fmt.Errorf("unify: unhandled elim tag")
	}
}

// ImplArity reports how many leading implicit Π/telescope binders a is
// headed by, used by mediateOrCollapse to compare the implicit arity left
// in a telescope's and a Π's codomains.
func ImplArity(mcx *meta.MetaContext, a value.Val) int {
	a = nbe.Force(mcx, a)
	switch a := a.(type) {
	case value.VPi:
		if a.Icit == value.Impl {
			return 1 + ImplArity(mcx, a.Cod(value.VVar(0)))
		}
		return 0
	case value.VPiTel:
		return 1 + ImplArity(mcx, a.Cod(value.VVar(0)))
	default:
		return 0
	}
}
