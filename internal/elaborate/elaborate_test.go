package elaborate

import (
	"testing"

	"github.com/ailang-lang/telescope/internal/ast"
	"github.com/ailang-lang/telescope/internal/core"
	"github.com/ailang-lang/telescope/internal/cxt"
	"github.com/ailang-lang/telescope/internal/meta"
	"github.com/ailang-lang/telescope/internal/nbe"
	"github.com/ailang-lang/telescope/internal/value"
	"github.com/stretchr/testify/require"
)

// TestUInfersToU checks the type-in-type base case.
func TestUInfersToU(t *testing.T) {
	e := New(meta.New(), false)
	tm, ty, err := e.Infer(cxt.Empty(), ast.RU{})
	require.NoError(t, err)
	require.Equal(t, core.U{}, tm)
	require.IsType(t, value.VU{}, ty)
}

// TestIdAppliedToUNormalizesToU elaborates
//
//	let id : {A} -> A -> A = \x. x in id U
//
// and checks the result normal form is U.
func TestIdAppliedToUNormalizesToU(t *testing.T) {
	e := New(meta.New(), false)

	idAnn := ast.RPi{Name: "A", Icit: value.Impl, Dom: ast.RU{}, Cod: ast.RPi{
		Name: "x", Icit: value.Expl, Dom: ast.RVar{Name: "A"}, Cod: ast.RVar{Name: "A"},
	}}
	idVal := ast.RLam{Name: "x", Icit: value.Expl, Body: ast.RVar{Name: "x"}}
	body := ast.RApp{Icit: value.Expl, Func: ast.RVar{Name: "id"}, Arg: ast.RU{}}
	prog := ast.RLet{Name: "id", Ann: idAnn, Val: idVal, Body: body}

	tm, ty, err := e.Infer(cxt.Empty(), prog)
	require.NoError(t, err)

	nf := nbe.Quote(e.Mcx, 0, nbe.Eval(e.Mcx, nil, tm))
	require.Equal(t, core.U{}, nf)
	require.IsType(t, value.VU{}, ty)
}

// TestConstUUtoU elaborates
//
//	let const : {A B} -> A -> B -> A = \x y. x in const U (U -> U)
//
// and checks the result normal form is U.
func TestConstUUtoU(t *testing.T) {
	e := New(meta.New(), false)

	constAnn := ast.RPi{Name: "A", Icit: value.Impl, Dom: ast.RU{}, Cod: ast.RPi{
		Name: "B", Icit: value.Impl, Dom: ast.RU{}, Cod: ast.RPi{
			Name: "x", Icit: value.Expl, Dom: ast.RVar{Name: "A"}, Cod: ast.RPi{
				Name: "y", Icit: value.Expl, Dom: ast.RVar{Name: "B"}, Cod: ast.RVar{Name: "A"},
			},
		},
	}}
	constVal := ast.RLam{Name: "x", Icit: value.Expl, Body: ast.RLam{Name: "y", Icit: value.Expl, Body: ast.RVar{Name: "x"}}}
	arrowUU := ast.RPi{Name: "_", Icit: value.Expl, Dom: ast.RU{}, Cod: ast.RU{}}
	body := ast.RApp{Icit: value.Expl,
		Func: ast.RApp{Icit: value.Expl, Func: ast.RVar{Name: "const"}, Arg: ast.RU{}},
		Arg:  arrowUU,
	}
	prog := ast.RLet{Name: "const", Ann: constAnn, Val: constVal, Body: body}

	tm, _, err := e.Infer(cxt.Empty(), prog)
	require.NoError(t, err)
	nf := nbe.Quote(e.Mcx, 0, nbe.Eval(e.Mcx, nil, tm))
	require.Equal(t, core.U{}, nf)
}

// TestLetFInfersAPiWithConcreteDomain elaborates `let f = λ(x:U). x in f`.
// Because the let-bound value has no annotation of its own, f is checked
// against a fresh unresolved meta, which triggers telescope-lambda
// insertion: a telescope binder Γ is inserted around f's value, and a
// constancy constraint is attached to Γ's domain. Since x's own type (U)
// never depends on Γ, the constraint resolves immediately and forces the
// telescope empty, collapsing f's declared type back down to an ordinary
// Π with a concrete, meta-free domain.
func TestLetFInfersAPiWithConcreteDomain(t *testing.T) {
	e := New(meta.New(), false)
	fVal := ast.RLam{Name: "x", Icit: value.Expl, Ann: ast.RU{}, Body: ast.RVar{Name: "x"}}
	prog := ast.RLet{Name: "f", Val: fVal, Body: ast.RVar{Name: "f"}}

	_, ty, err := e.Infer(cxt.Empty(), prog)
	require.NoError(t, err)

	pi, ok := ty.(value.VPi)
	require.True(t, ok, "expected a Π, got %#v", ty)
	require.IsType(t, value.VU{}, nbe.Force(e.Mcx, pi.Dom))
}

// TestHoleAgainstArrowType checks that a hole checked against (A:U) -> A
// -> A elaborates without error and produces a meta application.
func TestHoleAgainstArrowType(t *testing.T) {
	e := New(meta.New(), false)
	ty := ast.RPi{Name: "A", Icit: value.Expl, Dom: ast.RU{}, Cod: ast.RPi{
		Name: "x", Icit: value.Expl, Dom: ast.RVar{Name: "A"}, Cod: ast.RVar{Name: "A"},
	}}
	holeTm, err := e.Check(cxt.Empty(), ast.RHole{}, mustEvalTy(e, ty))
	require.NoError(t, err)
	require.NotNil(t, holeTm)
}

// TestTopLevelLamIsNotGeneralized checks InferTop does not wrap a
// definition that never pins down its argument's type in a leading
// implicit binder: its type is the lambda's own explicit Π, with the
// binder name carrying the top-level "*" prefix.
func TestTopLevelLamIsNotGeneralized(t *testing.T) {
	e := New(meta.New(), false)
	r := ast.RLam{Name: "x", Icit: value.Expl, Body: ast.RVar{Name: "x"}}
	tm, ty, err := e.InferTop(r)
	require.NoError(t, err)
	require.NotNil(t, tm)
	pi, ok := ty.(core.Pi)
	require.True(t, ok, "expected a Π, got %#v", ty)
	require.Equal(t, value.Expl, pi.Icit)
	require.Equal(t, "*x", pi.Name)
}

func mustEvalTy(e *Elaborator, r ast.Raw) value.Val {
	tm, err := e.Check(cxt.Empty(), r, value.VU{})
	if err != nil {
		panic(err)
	}
	return nbe.Eval(e.Mcx, nil, tm)
}
