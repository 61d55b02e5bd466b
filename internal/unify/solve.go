package unify

import (
	"fmt"

	"github.com/ailang-lang/telescope/internal/core"
	"github.com/ailang-lang/telescope/internal/cxt"
	"github.com/ailang-lang/telescope/internal/meta"
	"github.com/ailang-lang/telescope/internal/nbe"
	"github.com/ailang-lang/telescope/internal/value"
)

// SolveMeta solves metavariable m against rhs, given that m was applied to
// spine sp in a context of length d. It inverts the spine into a partial
// renaming, strengthens rhs through that renaming (occurs-checking m
// itself along the way), wraps the result into a closed lambda term, and
// writes it back as a Solved entry. Any constancy constraint that was
// blocked on m is then retried, since its Dom or Cod may now simplify.
func SolveMeta(mcx *meta.MetaContext, d int, m value.MetaID, sp value.Spine, rhs value.Val) error {
	entry, ok := mcx.LookupMeta(m).(meta.Unsolved)
	if !ok {
		return fmt.Errorf("unify: SolveMeta: meta ?%d is not in an unsolved state", m)
	}

	pren, err := invert(d, m, sp)
	if err != nil {
		return err
	}
	body, err := rename(mcx, pren, rhs)
	if err != nil {
		return err
	}
	solution := wrapLams(mcx, entry.Type, pren.Dom, body)
	val := nbe.Eval(mcx, nil, solution)
	mcx.WriteMeta(m, meta.Solved{Value: val})

	for blocker := range entry.Blockers {
		if err := TryConstancy(mcx, blocker); err != nil {
			return err
		}
	}
	return nil
}

// piLayer records the shape of one layer of a meta's Pi/PiTel prefix, as
// found by piPrefix, so wrapLams can pick the matching binder shape.
type piLayer struct {
	telescope bool
}

// piPrefix reads off the leading n Pi/PiTel layers of ty, evaluating each
// codomain at the corresponding bound variable to see the next layer. A
// layer ty does not itself name (fewer than n Pi/PiTel layers reachable,
// e.g. because ty is itself a meta) is simply treated as an ordinary Lam
// by wrapLams, which is always safe since Lam's own Dom field is
// never read back by Eval.
func piPrefix(mcx *meta.MetaContext, ty value.Val, n int) []piLayer {
	layers := make([]piLayer, 0, n)
	for i := 0; i < n; i++ {
		switch p := nbe.Force(mcx, ty).(type) {
		case value.VPi:
			layers = append(layers, piLayer{})
			ty = p.Cod(value.VVar(value.Lvl(i)))
		case value.VPiTel:
			layers = append(layers, piLayer{telescope: true})
			ty = p.Cod(value.VVar(value.Lvl(i)))
		default:
			return layers
		}
	}
	return layers
}

// wrapLams wraps body in n nested binders, outermost corresponding to de
// Bruijn level 0, matching the level-to-index convention rename used
// while strengthening body. ty is the meta's own declared type: each
// layer of its Pi/PiTel prefix says whether the matching binder must be
// an ordinary Lam or, for a telescope-typed domain, a LamTel.
func wrapLams(mcx *meta.MetaContext, ty value.Val, n int, body core.Tm) core.Tm {
	layers := piPrefix(mcx, ty, n)
	t := body
	for i := n - 1; i >= 0; i-- {
		if i < len(layers) && layers[i].telescope {
			t = core.LamTel{Name: "x", Body: t}
		} else {
			t = core.Lam{Name: "x", Icit: value.Expl, Body: t}
		}
	}
	return t
}

// FreshMeta allocates a new metavariable whose type is a (a value well
// formed in c), closing both the meta's own type and the term that stands
// for it at the use site over every Bound entry of c. Defined entries
// contribute a Skip to the type instead of a Pi, since their value is
// already determined by the surrounding let and does not need to be an
// explicit parameter of the meta.
func FreshMeta(mcx *meta.MetaContext, c *cxt.Cxt, a value.Val) core.Tm {
	closedTy := closingTy(mcx, c, a)
	closedTyVal := nbe.Eval(mcx, nil, closedTy)
	m := mcx.NewMeta(meta.Unsolved{Type: closedTyVal, Blockers: map[value.MetaID]struct{}{}})
	return closingTm(mcx, c, m)
}

// closingTy quotes a at depth c.Len and wraps it, from the innermost
// bound entry outward, into a binder for each Bound entry and a Skip for
// each Defined one. A Bound entry whose type is a VRec contributes a
// PiTel, since that entry was itself introduced as a telescope binder and
// the meta must be applied to it with AppTel, not App; every other Bound
// entry contributes an ordinary explicit Pi, matching the explicit
// application closingTm performs for it.
func closingTy(mcx *meta.MetaContext, c *cxt.Cxt, a value.Val) core.Tm {
	t := nbe.Quote(mcx, c.Len, a)
	for i := c.Len - 1; i >= 0; i-- {
		entry := c.Types[i]
		switch entry.Kind {
		case cxt.Defined:
			t = core.Skip{Body: t}
		default:
			if rec, ok := nbe.Force(mcx, entry.Type).(value.VRec); ok {
				dom := nbe.Quote(mcx, i, rec.Tel)
				t = core.PiTel{Name: c.Names[i], Dom: dom, Cod: t}
			} else {
				dom := nbe.Quote(mcx, i, entry.Type)
				t = core.Pi{Name: c.Names[i], Icit: value.Expl, Dom: dom, Cod: t}
			}
		}
	}
	return t
}

// closingTm builds the use-site term for a freshly allocated meta m: the
// meta applied to every Bound variable of c in outer-to-inner order,
// explicitly for an ordinary binder and via AppTel for a telescope one,
// mirroring closingTy's choice of Pi vs PiTel. Defined entries are
// skipped, mirroring closingTy's Skip.
func closingTm(mcx *meta.MetaContext, c *cxt.Cxt, m value.MetaID) core.Tm {
	var t core.Tm = core.Meta{Id: m}
	for i := 0; i < c.Len; i++ {
		entry := c.Types[i]
		if entry.Kind == cxt.Defined {
			continue
		}
		arg := core.Var{Idx: c.Len - 1 - i}
		if rec, ok := nbe.Force(mcx, entry.Type).(value.VRec); ok {
			dom := nbe.Quote(mcx, i, rec.Tel)
			t = core.AppTel{Dom: dom, Func: t, Arg: arg}
		} else {
			t = core.App{Icit: value.Expl, Func: t, Arg: arg}
		}
	}
	return t
}
