// Package nbe implements normalization by evaluation over core.Tm and
// value.Val: eval drives a term down to weak-head normal form against a
// runtime environment, quote reads a value back up into a term against a
// context depth, and force resolves solved metavariables sitting at a
// value's head so callers never pattern-match on a stale VNe.
package nbe

import (
	"fmt"

	"github.com/ailang-lang/telescope/internal/core"
	"github.com/ailang-lang/telescope/internal/meta"
	"github.com/ailang-lang/telescope/internal/value"
)

// Eval evaluates a term to a value under env, looking up solved metas in
// mcx as it goes (a Meta term for an unsolved id becomes a fresh VNe; a
// solved one reduces no further here, that is force's job).
func Eval(mcx *meta.MetaContext, env value.Env, t core.Tm) value.Val {
	switch t := t.(type) {
	case core.Var:
		return env.Lookup(t.Idx)
	case core.Let:
		v := Eval(mcx, env, t.Val)
		return Eval(mcx, env.Extend(v), t.Body)
	case core.Pi:
		dom := Eval(mcx, env, t.Dom)
		name := t.Name
		cod := t.Cod
		return value.VPi{Name: name, Icit: t.Icit, Dom: dom, Cod: closure(mcx, env, cod)}
	case core.Lam:
		name := t.Name
		body := t.Body
		return value.VLam{Name: name, Icit: t.Icit, Body: closure(mcx, env, body)}
	case core.App:
		fn := Eval(mcx, env, t.Func)
		arg := Eval(mcx, env, t.Arg)
		return VApp(mcx, fn, arg, t.Icit)
	case core.U:
		return value.VU{}
	case core.Meta:
		return resolvedMetaVal(mcx, t.Id)
	case core.Skip:
		return Eval(mcx, env.ExtendSkip(), t.Body)
	case core.PiTel:
		dom := Eval(mcx, env, t.Dom)
		cod := t.Cod
		return value.VPiTel{Name: t.Name, Dom: dom, Cod: closure(mcx, env, cod)}
	case core.LamTel:
		dom := Eval(mcx, env, t.Dom)
		body := t.Body
		return value.VLamTel{Name: t.Name, Dom: dom, Body: closure(mcx, env, body)}
	case core.AppTel:
		dom := Eval(mcx, env, t.Dom)
		fn := Eval(mcx, env, t.Func)
		arg := Eval(mcx, env, t.Arg)
		return VAppTel(mcx, dom, fn, arg)
	case core.Tel:
		return value.VTel{}
	case core.TEmpty:
		return value.VTEmpty{}
	case core.TCons:
		head := Eval(mcx, env, t.Head)
		tail := t.Tail
		return value.VTCons{Name: t.Name, Head: head, Tail: closure(mcx, env, tail)}
	case core.Rec:
		return value.VRec{Tel: Eval(mcx, env, t.Tel)}
	case core.Tempty:
		return value.VTempty{}
	case core.Tcons:
		return value.VTcons{Head: Eval(mcx, env, t.Head), Tail: Eval(mcx, env, t.Tail)}
	default:
		panic(fmt.Sprintf("nbe: eval: unhandled Tm %T", t))
	}
}

// closure captures env and mcx so a Binder re-evaluates body against env
// extended by whatever argument it is later called with.
func closure(mcx *meta.MetaContext, env value.Env, body core.Tm) value.Binder {
	return func(arg value.Val) value.Val {
		return Eval(mcx, env.Extend(arg), body)
	}
}

// resolvedMetaVal looks up id: an Unsolved or Constancy entry yields a
// fresh neutral headed by the meta, a Solved entry yields its value
// directly (callers that need the value forced through further solved
// heads should route through Force instead of calling this alone).
func resolvedMetaVal(mcx *meta.MetaContext, id value.MetaID) value.Val {
	switch e := mcx.LookupMeta(id).(type) {
	case meta.Solved:
		return e.Value
	default:
		return value.VNe{Head: value.MetaHead(id)}
	}
}

// VApp applies fn to arg with the given icitness, beta-reducing when fn is
// a matching VLam and otherwise extending a neutral's spine.
func VApp(mcx *meta.MetaContext, fn value.Val, arg value.Val, icit value.Icit) value.Val {
	switch fn := fn.(type) {
	case value.VLam:
		return fn.Body(arg)
	case value.VNe:
		sp := append(fn.Sp[:len(fn.Sp):len(fn.Sp)], value.Elim{Tag: value.EApp, Icit: icit, Arg: arg})
		return value.VNe{Head: fn.Head, Sp: sp}
	default:
		panic(fmt.Sprintf("nbe: VApp: not a function value: %T", fn))
	}
}

// VAppTel applies a telescope-generalized function fn (a VLamTel or a
// neutral) to arg, given the telescope type dom the application happens
// at. Beta-reduces a matching VLamTel; otherwise records the elimination,
// carrying dom along so a later force/quote can still report the type an
// opaque application was performed at.
func VAppTel(mcx *meta.MetaContext, dom value.Val, fn value.Val, arg value.Val) value.Val {
	switch fn := fn.(type) {
	case value.VLamTel:
		return fn.Body(arg)
	case value.VNe:
		sp := append(fn.Sp[:len(fn.Sp):len(fn.Sp)], value.Elim{Tag: value.EAppTel, Arg: arg, TelTy: dom})
		return value.VNe{Head: fn.Head, Sp: sp}
	default:
		panic(fmt.Sprintf("nbe: VAppTel: not a telescope function value: %T", fn))
	}
}

// vAppSpine re-applies a whole spine to a freshly-unfolded head, used by
// Force when a meta at the head of a VNe turns out to be solved: the
// solution is neutral-free in general, so every eliminator collected while
// the head was still opaque must be replayed against it.
func vAppSpine(mcx *meta.MetaContext, head value.Val, sp value.Spine) value.Val {
	for _, el := range sp {
		switch el.Tag {
		case value.EApp:
			head = VApp(mcx, head, el.Arg, el.Icit)
		case value.EAppTel:
			head = VAppTel(mcx, el.TelTy, head, el.Arg)
		case value.EProj1:
			head = vProj1(head)
		case value.EProj2:
			head = vProj2(head)
		default:
			panic("nbe: vAppSpine: unhandled Elim tag")
		}
	}
	return head
}

// vProj1 and vProj2 project a telescope-shaped record value. This
// elaborator never constructs record values or emits these eliminators,
// but Force must still be able to replay them if a future caller does.
func vProj1(v value.Val) value.Val {
	if ne, ok := v.(value.VNe); ok {
		sp := append(ne.Sp[:len(ne.Sp):len(ne.Sp)], value.Elim{Tag: value.EProj1})
		return value.VNe{Head: ne.Head, Sp: sp}
	}
	panic(fmt.Sprintf("nbe: vProj1: not a neutral record: %T", v))
}

func vProj2(v value.Val) value.Val {
	if ne, ok := v.(value.VNe); ok {
		sp := append(ne.Sp[:len(ne.Sp):len(ne.Sp)], value.Elim{Tag: value.EProj2})
		return value.VNe{Head: ne.Head, Sp: sp}
	}
	panic(fmt.Sprintf("nbe: vProj2: not a neutral record: %T", v))
}

// Force unfolds solved metavariables sitting at v's head, replaying the
// accumulated spine against the solution and repeating until the head is
// either a variable or a genuinely unsolved meta. Every caller that is
// about to pattern-match on a Val's shape (unify, quote, elaboration's
// inference rules) must call Force first.
func Force(mcx *meta.MetaContext, v value.Val) value.Val {
	ne, ok := v.(value.VNe)
	if !ok || ne.Head.Tag != value.HMeta {
		return v
	}
	entry, ok := mcx.LookupMeta(ne.Head.Meta).(meta.Solved)
	if !ok {
		return v
	}
	return Force(mcx, vAppSpine(mcx, entry.Value, ne.Sp))
}

// Quote reads a value back into a term at context depth d (the number of
// variables currently in scope), converting each neutral variable's level
// l into the de Bruijn index d - l - 1. It forces before inspecting shape,
// so a quoted term never mentions an already-solved meta via its head
// (nested unsolved metas inside the solution's own neutral spine are of
// course still possible, and are left as Meta nodes).
func Quote(mcx *meta.MetaContext, d int, v value.Val) core.Tm {
	v = Force(mcx, v)
	switch v := v.(type) {
	case value.VNe:
		t := quoteHead(d, v.Head)
		return quoteSpine(mcx, d, t, v.Sp)
	case value.VLam:
		return core.Lam{Name: v.Name, Icit: v.Icit, Body: Quote(mcx, d+1, v.Body(value.VVar(value.Lvl(d))))}
	case value.VPi:
		return core.Pi{Name: v.Name, Icit: v.Icit, Dom: Quote(mcx, d, v.Dom), Cod: Quote(mcx, d+1, v.Cod(value.VVar(value.Lvl(d))))}
	case value.VU:
		return core.U{}
	case value.VTel:
		return core.Tel{}
	case value.VRec:
		return core.Rec{Tel: Quote(mcx, d, v.Tel)}
	case value.VTEmpty:
		return core.TEmpty{}
	case value.VTCons:
		return core.TCons{Name: v.Name, Head: Quote(mcx, d, v.Head), Tail: Quote(mcx, d+1, v.Tail(value.VVar(value.Lvl(d))))}
	case value.VTempty:
		return core.Tempty{}
	case value.VTcons:
		return core.Tcons{Head: Quote(mcx, d, v.Head), Tail: Quote(mcx, d, v.Tail)}
	case value.VPiTel:
		return core.PiTel{Name: v.Name, Dom: Quote(mcx, d, v.Dom), Cod: Quote(mcx, d+1, v.Cod(value.VVar(value.Lvl(d))))}
	case value.VLamTel:
		return core.LamTel{Name: v.Name, Dom: Quote(mcx, d, v.Dom), Body: Quote(mcx, d+1, v.Body(value.VVar(value.Lvl(d))))}
	default:
		panic(fmt.Sprintf("nbe: quote: unhandled Val %T", v))
	}
}

func quoteHead(d int, h value.Head) core.Tm {
	switch h.Tag {
	case value.HVar:
		return core.Var{Idx: d - int(h.Var) - 1}
	case value.HMeta:
		return core.Meta{Id: h.Meta}
	default:
		panic("nbe: quoteHead: unhandled HeadTag")
	}
}

func quoteSpine(mcx *meta.MetaContext, d int, t core.Tm, sp value.Spine) core.Tm {
	for _, el := range sp {
		switch el.Tag {
		case value.EApp:
			t = core.App{Icit: el.Icit, Func: t, Arg: Quote(mcx, d, el.Arg)}
		case value.EAppTel:
			t = core.AppTel{Dom: Quote(mcx, d, el.TelTy), Func: t, Arg: Quote(mcx, d, el.Arg)}
		case value.EProj1, value.EProj2:
			panic("nbe: quoteSpine: projection elims are not yet representable as core.Tm")
		default:
			panic("nbe: quoteSpine: unhandled Elim tag")
		}
	}
	return t
}

// LiftVal re-evaluates v, which was computed at context depth from, as
// though it had instead been computed at the larger depth to: it quotes v
// at from and re-evaluates the resulting term against an environment of
// the free variables at levels [0, from), which a context of depth to
// that merely extends the shorter one leaves unchanged.
func LiftVal(mcx *meta.MetaContext, from, to int, v value.Val) value.Val {
	if from == to {
		return v
	}
	env := make(value.Env, from)
	for l := 0; l < from; l++ {
		env[l] = value.EnvSlot{Defined: true, Val: value.VVar(value.Lvl(l))}
	}
	return Eval(mcx, env, Quote(mcx, from, v))
}
