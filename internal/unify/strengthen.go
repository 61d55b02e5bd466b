package unify

import (
	"fmt"

	"github.com/ailang-lang/telescope/internal/core"
	"github.com/ailang-lang/telescope/internal/meta"
	"github.com/ailang-lang/telescope/internal/nbe"
	"github.com/ailang-lang/telescope/internal/value"
)

// StrengtheningError reports why a meta spine failed the pattern
// condition, or why a solution could not be strengthened back into the
// meta's own scope.
type StrengtheningError struct {
	Kind string // "spine-non-var" | "non-linear-spine" | "spine-projection" | "scope-error" | "occurs-check"
	Lvl  value.Lvl
	Meta value.MetaID
}

func (e *StrengtheningError) Error() string {
	switch e.Kind {
	case "spine-non-var":
		return "pattern unification: meta applied to a non-variable argument"
	case "non-linear-spine":
		return fmt.Sprintf("pattern unification: meta applied to variable @%d more than once", e.Lvl)
	case "spine-projection":
		return "pattern unification: meta spine contains a record projection"
	case "scope-error":
		return fmt.Sprintf("pattern unification: variable @%d escapes the meta's scope", e.Lvl)
	case "occurs-check":
		return fmt.Sprintf("pattern unification: meta ?%d occurs in its own solution", e.Meta)
	default:
		return "pattern unification failure"
	}
}

// PartialRenaming is the result of inverting a meta's spine: Dom is the
// length of the context the solution will be built in (one slot per
// spine entry), Cod is the length of the context the right-hand side
// lives in, and Ren maps each codomain level that appeared in the spine
// to the domain level it corresponds to.
type PartialRenaming struct {
	Dom int
	Cod int
	Ren map[value.Lvl]value.Lvl
	Occ value.MetaID // the meta being solved, for the occurs check
}

// invert checks the pattern condition on sp (every entry a distinct bound
// variable, no projections) and builds the renaming from it.
func invert(cod int, occ value.MetaID, sp value.Spine) (PartialRenaming, error) {
	ren := map[value.Lvl]value.Lvl{}
	dom := 0
	for _, el := range sp {
		switch el.Tag {
		case value.EApp:
			v, ok := el.Arg.(value.VNe)
			if !ok || v.Head.Tag != value.HVar || len(v.Sp) != 0 {
				return PartialRenaming{}, &StrengtheningError{Kind: "spine-non-var"}
			}
			if _, taken := ren[v.Head.Var]; taken {
				return PartialRenaming{}, &StrengtheningError{Kind: "non-linear-spine", Lvl: v.Head.Var}
			}
			ren[v.Head.Var] = value.Lvl(dom)
			dom++
		case value.EAppTel:
			v, ok := el.Arg.(value.VNe)
			if !ok || v.Head.Tag != value.HVar || len(v.Sp) != 0 {
				return PartialRenaming{}, &StrengtheningError{Kind: "spine-non-var"}
			}
			if _, taken := ren[v.Head.Var]; taken {
				return PartialRenaming{}, &StrengtheningError{Kind: "non-linear-spine", Lvl: v.Head.Var}
			}
			ren[v.Head.Var] = value.Lvl(dom)
			dom++
		case value.EProj1, value.EProj2:
			return PartialRenaming{}, &StrengtheningError{Kind: "spine-projection"}
		default:
			return PartialRenaming{}, &StrengtheningError{Kind: "spine-non-var"}
		}
	}
	return PartialRenaming{Dom: dom, Cod: cod, Ren: ren, Occ: occ}, nil
}

// rename strengthens v, a value of the solving context (Cod levels), down
// into the meta's own scope (Dom levels), failing if v mentions a
// variable outside Ren's domain (a scope error) or the meta being solved
// itself (an occurs check failure, since a solution can never refer to
// its own metavariable).
func rename(mcx *meta.MetaContext, pren PartialRenaming, v value.Val) (core.Tm, error) {
	v = nbe.Force(mcx, v)
	switch v := v.(type) {
	case value.VNe:
		if v.Head.Tag == value.HMeta {
			if v.Head.Meta == pren.Occ {
				return nil, &StrengtheningError{Kind: "occurs-check", Meta: pren.Occ}
			}
			t, err := renameSpine(mcx, pren, core.Meta{Id: v.Head.Meta}, v.Sp)
			if err == nil {
				return t, nil
			}
			if se, ok := err.(*StrengtheningError); ok && se.Kind == "scope-error" {
				if pruned, perr := pruneMeta(mcx, pren, v.Head.Meta, v.Sp); perr == nil {
					return pruned, nil
				}
			}
			return nil, err
		}
		t, err := renameHead(pren, v.Head)
		if err != nil {
			return nil, err
		}
		return renameSpine(mcx, pren, t, v.Sp)
	case value.VLam:
		inner := extendRen(pren)
		body, err := rename(mcx, inner, v.Body(value.VVar(value.Lvl(pren.Cod))))
		if err != nil {
			return nil, err
		}
		return core.Lam{Name: v.Name, Icit: v.Icit, Body: body}, nil
	case value.VPi:
		dom, err := rename(mcx, pren, v.Dom)
		if err != nil {
			return nil, err
		}
		inner := extendRen(pren)
		cod, err := rename(mcx, inner, v.Cod(value.VVar(value.Lvl(pren.Cod))))
		if err != nil {
			return nil, err
		}
		return core.Pi{Name: v.Name, Icit: v.Icit, Dom: dom, Cod: cod}, nil
	case value.VU:
		return core.U{}, nil
	case value.VTel:
		return core.Tel{}, nil
	case value.VTEmpty:
		return core.TEmpty{}, nil
	case value.VTCons:
		head, err := rename(mcx, pren, v.Head)
		if err != nil {
			return nil, err
		}
		inner := extendRen(pren)
		tail, err := rename(mcx, inner, v.Tail(value.VVar(value.Lvl(pren.Cod))))
		if err != nil {
			return nil, err
		}
		return core.TCons{Name: v.Name, Head: head, Tail: tail}, nil
	case value.VRec:
		tel, err := rename(mcx, pren, v.Tel)
		if err != nil {
			return nil, err
		}
		return core.Rec{Tel: tel}, nil
	case value.VTempty:
		return core.Tempty{}, nil
	case value.VTcons:
		head, err := rename(mcx, pren, v.Head)
		if err != nil {
			return nil, err
		}
		tail, err := rename(mcx, pren, v.Tail)
		if err != nil {
			return nil, err
		}
		return core.Tcons{Head: head, Tail: tail}, nil
	case value.VPiTel:
		dom, err := rename(mcx, pren, v.Dom)
		if err != nil {
			return nil, err
		}
		inner := extendRen(pren)
		cod, err := rename(mcx, inner, v.Cod(value.VVar(value.Lvl(pren.Cod))))
		if err != nil {
			return nil, err
		}
		return core.PiTel{Name: v.Name, Dom: dom, Cod: cod}, nil
	case value.VLamTel:
		dom, err := rename(mcx, pren, v.Dom)
		if err != nil {
			return nil, err
		}
		inner := extendRen(pren)
		body, err := rename(mcx, inner, v.Body(value.VVar(value.Lvl(pren.Cod))))
		if err != nil {
			return nil, err
		}
		return core.LamTel{Name: v.Name, Dom: dom, Body: body}, nil
	default:
		return nil, fmt.Errorf("unify: rename: unhandled Val %T", v)
	}
}

func extendRen(pren PartialRenaming) PartialRenaming {
	ren := make(map[value.Lvl]value.Lvl, len(pren.Ren)+1)
	for k, v := range pren.Ren {
		ren[k] = v
	}
	ren[value.Lvl(pren.Cod)] = value.Lvl(pren.Dom)
	return PartialRenaming{Dom: pren.Dom + 1, Cod: pren.Cod + 1, Ren: ren, Occ: pren.Occ}
}

func renameHead(pren PartialRenaming, h value.Head) (core.Tm, error) {
	switch h.Tag {
	case value.HVar:
		lvl, ok := pren.Ren[h.Var]
		if !ok {
			return nil, &StrengtheningError{Kind: "scope-error", Lvl: h.Var}
		}
		return core.Var{Idx: pren.Dom - int(lvl) - 1}, nil
	case value.HMeta:
		return core.Meta{Id: h.Meta}, nil
	default:
		return nil, fmt.Errorf("unify: renameHead: unhandled HeadTag")
	}
}

// pruneMeta attempts Miller pruning on innerMeta, which appeared in the
// value being strengthened applied to the pure variable spine sp. If
// some of those variables are outside pren's domain but innerMeta is
// still unsolved, innerMeta can be restricted to a smaller meta that
// only takes the in-scope arguments, provided none of the kept
// arguments' own types depend on a dropped one. When that holds,
// innerMeta is solved to the restricted meta re-applied to the
// original spine, and the in-scope projection the caller actually
// needs — the restricted meta applied to just the kept arguments,
// renamed into pren's domain — is returned in its place.
func pruneMeta(mcx *meta.MetaContext, pren PartialRenaming, innerMeta value.MetaID, sp value.Spine) (core.Tm, error) {
	entry, ok := mcx.LookupMeta(innerMeta).(meta.Unsolved)
	if !ok {
		return nil, &StrengtheningError{Kind: "scope-error"}
	}

	type spineVar struct {
		lvl   value.Lvl
		tel   bool
		telTy value.Val
	}
	vars := make([]spineVar, len(sp))
	seen := map[value.Lvl]bool{}
	for i, el := range sp {
		switch el.Tag {
		case value.EApp, value.EAppTel:
		default:
			return nil, &StrengtheningError{Kind: "spine-projection"}
		}
		ne, ok := el.Arg.(value.VNe)
		if !ok || ne.Head.Tag != value.HVar || len(ne.Sp) != 0 || seen[ne.Head.Var] {
			return nil, &StrengtheningError{Kind: "scope-error"}
		}
		seen[ne.Head.Var] = true
		vars[i] = spineVar{lvl: ne.Head.Var, tel: el.Tag == value.EAppTel, telTy: el.TelTy}
	}

	keep := make([]bool, len(vars))
	anyDropped := false
	for i, sv := range vars {
		if _, ok := pren.Ren[sv.lvl]; ok {
			keep[i] = true
		} else {
			anyDropped = true
		}
	}
	if !anyDropped {
		return nil, &StrengtheningError{Kind: "scope-error"}
	}

	prunedTy, err := pruneType(mcx, entry.Type, keep, pren.Occ)
	if err != nil {
		return nil, err
	}
	newMeta := mcx.NewMeta(meta.Unsolved{Type: prunedTy, Blockers: map[value.MetaID]struct{}{}})

	var body core.Tm = core.Meta{Id: newMeta}
	for i, sv := range vars {
		if !keep[i] {
			continue
		}
		idx := len(vars) - 1 - i
		arg := core.Var{Idx: idx}
		if sv.tel {
			telTy := nbe.Quote(mcx, i, sv.telTy)
			body = core.AppTel{Dom: telTy, Func: body, Arg: arg}
		} else {
			body = core.App{Icit: value.Expl, Func: body, Arg: arg}
		}
	}
	for i := len(vars) - 1; i >= 0; i-- {
		if vars[i].tel {
			body = core.LamTel{Name: "x", Body: body}
		} else {
			body = core.Lam{Name: "x", Icit: value.Expl, Body: body}
		}
	}
	mcx.WriteMeta(innerMeta, meta.Solved{Value: nbe.Eval(mcx, nil, body)})
	for blocker := range entry.Blockers {
		if err := TryConstancy(mcx, blocker); err != nil {
			return nil, err
		}
	}

	var result core.Tm = core.Meta{Id: newMeta}
	for i, sv := range vars {
		if !keep[i] {
			continue
		}
		argLvl := pren.Ren[sv.lvl]
		arg := core.Var{Idx: pren.Dom - int(argLvl) - 1}
		if sv.tel {
			telTy, err := rename(mcx, pren, sv.telTy)
			if err != nil {
				return nil, err
			}
			result = core.AppTel{Dom: telTy, Func: result, Arg: arg}
		} else {
			result = core.App{Icit: value.Expl, Func: result, Arg: arg}
		}
	}
	return result, nil
}

// pruneType derives the type of a pruned meta that only takes the kept
// layers of ty's Pi/PiTel prefix (keep has one entry per original
// layer, outer to inner). A dropped layer's bound variable must not be
// referenced in any later kept layer's domain or in ty's own remaining
// tail, since the pruned meta no longer binds it; if it is, pruning is
// unsound and this fails with a scope error.
func pruneType(mcx *meta.MetaContext, ty value.Val, keep []bool, occ value.MetaID) (value.Val, error) {
	ren := map[value.Lvl]value.Lvl{}
	var doms []core.Tm
	var names []string
	var telescope []bool

	cur := ty
	newLvl := 0
	for i, k := range keep {
		var domVal value.Val
		var cod value.Binder
		var name string
		var tel bool
		switch p := nbe.Force(mcx, cur).(type) {
		case value.VPi:
			domVal, cod, name = p.Dom, p.Cod, p.Name
		case value.VPiTel:
			domVal, cod, name, tel = p.Dom, p.Cod, p.Name, true
		default:
			return nil, &StrengtheningError{Kind: "scope-error"}
		}
		if k {
			sub := PartialRenaming{Dom: newLvl, Cod: i, Ren: ren, Occ: occ}
			domTm, err := rename(mcx, sub, domVal)
			if err != nil {
				return nil, err
			}
			doms = append(doms, domTm)
			names = append(names, name)
			telescope = append(telescope, tel)
			ren[value.Lvl(i)] = value.Lvl(newLvl)
			newLvl++
		}
		cur = cod(value.VVar(value.Lvl(i)))
	}

	final := PartialRenaming{Dom: newLvl, Cod: len(keep), Ren: ren, Occ: occ}
	tailTm, err := rename(mcx, final, cur)
	if err != nil {
		return nil, err
	}

	t := tailTm
	for i := len(doms) - 1; i >= 0; i-- {
		if telescope[i] {
			t = core.PiTel{Name: names[i], Dom: doms[i], Cod: t}
		} else {
			t = core.Pi{Name: names[i], Icit: value.Expl, Dom: doms[i], Cod: t}
		}
	}
	return nbe.Eval(mcx, nil, t), nil
}

func renameSpine(mcx *meta.MetaContext, pren PartialRenaming, t core.Tm, sp value.Spine) (core.Tm, error) {
	for _, el := range sp {
		switch el.Tag {
		case value.EApp:
			arg, err := rename(mcx, pren, el.Arg)
			if err != nil {
				return nil, err
			}
			t = core.App{Icit: el.Icit, Func: t, Arg: arg}
		case value.EAppTel:
			dom, err := rename(mcx, pren, el.TelTy)
			if err != nil {
				return nil, err
			}
			arg, err := rename(mcx, pren, el.Arg)
			if err != nil {
				return nil, err
			}
			t = core.AppTel{Dom: dom, Func: t, Arg: arg}
		case value.EProj1, value.EProj2:
			return nil, &StrengtheningError{Kind: "spine-projection"}
		default:
			return nil, fmt.Errorf("unify: renameSpine: unhandled Elim tag")
		}
	}
	return t, nil
}
