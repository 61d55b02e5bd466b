package nbe

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ailang-lang/telescope/internal/core"
	"github.com/ailang-lang/telescope/internal/meta"
	"github.com/ailang-lang/telescope/internal/value"
)

// TestQuoteVarAtDepthOne checks that quoting a freshly-bound variable at
// depth 1 recovers index 0, the base case of the level/index conversion
// every deeper case builds on.
func TestQuoteVarAtDepthOne(t *testing.T) {
	mcx := meta.New()
	v := value.VVar(value.Lvl(0))
	got := Quote(mcx, 1, v)
	want := core.Var{Idx: 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Quote(1, VVar 0) mismatch (-want +got):\n%s", diff)
	}
}

// TestQuoteDeeperLevel exercises the general d - l - 1 formula for a
// variable bound before the most recent one.
func TestQuoteDeeperLevel(t *testing.T) {
	mcx := meta.New()
	v := value.VVar(value.Lvl(1))
	got := Quote(mcx, 3, v)
	want := core.Var{Idx: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Quote(3, VVar 1) mismatch (-want +got):\n%s", diff)
	}
}

// TestEvalBetaReducesLam checks that applying a Lam term to an argument,
// end to end through Eval + VApp, beta-reduces instead of building a
// neutral application.
func TestEvalBetaReducesLam(t *testing.T) {
	mcx := meta.New()
	// (\x. x) applied to U, represented as core terms.
	idTm := core.Lam{Name: "x", Icit: value.Expl, Dom: core.U{}, Body: core.Var{Idx: 0}}
	idVal := Eval(mcx, nil, idTm)
	result := VApp(mcx, idVal, value.VU{}, value.Expl)
	if _, ok := result.(value.VU); !ok {
		t.Fatalf("expected beta reduction to VU, got %#v", result)
	}
}

// TestForceUnfoldsSolvedMeta checks that Force replays a neutral meta
// spine against a subsequently solved value.
func TestForceUnfoldsSolvedMeta(t *testing.T) {
	mcx := meta.New()
	id := mcx.NewMeta(meta.Unsolved{Type: value.VU{}})
	ne := value.VNe{Head: value.MetaHead(id)}
	mcx.WriteMeta(id, meta.Solved{Value: value.VU{}})
	got := Force(mcx, ne)
	if _, ok := got.(value.VU); !ok {
		t.Fatalf("Force did not unfold solved meta, got %#v", got)
	}
}

// TestForceReplaysSpineOnSolve checks that an application built against an
// unsolved meta head is replayed correctly once that meta solves to a Lam.
func TestForceReplaysSpineOnSolve(t *testing.T) {
	mcx := meta.New()
	id := mcx.NewMeta(meta.Unsolved{Type: value.VU{}})
	neHead := value.VNe{Head: value.MetaHead(id)}
	applied := VApp(mcx, neHead, value.VU{}, value.Expl)

	solution := value.VLam{Name: "x", Icit: value.Expl, Body: func(v value.Val) value.Val { return v }}
	mcx.WriteMeta(id, meta.Solved{Value: solution})

	got := Force(mcx, applied)
	if _, ok := got.(value.VU); !ok {
		t.Fatalf("Force did not replay spine against solved lambda, got %#v", got)
	}
}

// TestLiftValIsIdentityWhenDepthsMatch checks the from == to fast path.
func TestLiftValIsIdentityWhenDepthsMatch(t *testing.T) {
	mcx := meta.New()
	v := value.VU{}
	got := LiftVal(mcx, 2, 2, v)
	if got != value.Val(v) {
		t.Fatalf("LiftVal with equal depths changed the value: %#v", got)
	}
}
