package parser

import (
	"testing"

	"github.com/ailang-lang/telescope/internal/ast"
	"github.com/ailang-lang/telescope/internal/value"
)

func stripAll(r ast.Raw) ast.Raw {
	r, _ = ast.StripPos(r)
	return r
}

func TestParseU(t *testing.T) {
	r, err := Parse("U", "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := stripAll(r).(ast.RU); !ok {
		t.Fatalf("got %#v, want RU", stripAll(r))
	}
}

func TestParseIdentityLambda(t *testing.T) {
	r, err := Parse(`\x. x`, "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	lam, ok := stripAll(r).(ast.RLam)
	if !ok {
		t.Fatalf("got %#v, want RLam", stripAll(r))
	}
	if lam.Name != "x" || lam.Icit != value.Expl {
		t.Fatalf("unexpected binder: %#v", lam)
	}
	if _, ok := stripAll(lam.Body).(ast.RVar); !ok {
		t.Fatalf("body = %#v, want RVar", stripAll(lam.Body))
	}
}

func TestParseExplicitPi(t *testing.T) {
	r, err := Parse("(A : U) -> A -> A", "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	pi, ok := stripAll(r).(ast.RPi)
	if !ok {
		t.Fatalf("got %#v, want RPi", stripAll(r))
	}
	if pi.Name != "A" || pi.Icit != value.Expl {
		t.Fatalf("unexpected outer pi: %#v", pi)
	}
	inner, ok := stripAll(pi.Cod).(ast.RPi)
	if !ok || inner.Icit != value.Expl {
		t.Fatalf("cod = %#v, want non-dependent explicit Pi", stripAll(pi.Cod))
	}
}

func TestParseImplicitPiSugarMultipleNames(t *testing.T) {
	r, err := Parse("{A B : U} -> A -> B -> A", "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	outer, ok := stripAll(r).(ast.RPi)
	if !ok || outer.Name != "A" || outer.Icit != value.Impl {
		t.Fatalf("outer = %#v, want implicit Pi named A", stripAll(r))
	}
	next, ok := stripAll(outer.Cod).(ast.RPi)
	if !ok || next.Name != "B" || next.Icit != value.Impl {
		t.Fatalf("next = %#v, want implicit Pi named B", stripAll(outer.Cod))
	}
}

func TestParseApplicationWithImplicitArg(t *testing.T) {
	r, err := Parse("id {U} U", "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	outer, ok := stripAll(r).(ast.RApp)
	if !ok || outer.Icit != value.Expl {
		t.Fatalf("outer = %#v, want explicit RApp", stripAll(r))
	}
	inner, ok := stripAll(outer.Func).(ast.RApp)
	if !ok || inner.Icit != value.Impl {
		t.Fatalf("inner = %#v, want implicit RApp", stripAll(outer.Func))
	}
}

func TestParseLetWithAnnotation(t *testing.T) {
	r, err := Parse("let id : {A : U} -> A -> A = \\{A} x. x in id {U} U", "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	let, ok := stripAll(r).(ast.RLet)
	if !ok || let.Name != "id" || let.Ann == nil {
		t.Fatalf("got %#v, want annotated RLet", stripAll(r))
	}
}

func TestParseTopLevelAscription(t *testing.T) {
	r, err := Parse("U : U", "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	let, ok := stripAll(r).(ast.RLet)
	if !ok {
		t.Fatalf("got %#v, want ascription encoded as RLet", stripAll(r))
	}
	if _, ok := stripAll(let.Val).(ast.RU); !ok {
		t.Fatalf("let.Val = %#v, want RU", stripAll(let.Val))
	}
}

func TestParseGroupedExpressionIsNotMistakenForPi(t *testing.T) {
	r, err := Parse(`(\x. x) U`, "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	app, ok := stripAll(r).(ast.RApp)
	if !ok {
		t.Fatalf("got %#v, want RApp", stripAll(r))
	}
	if _, ok := stripAll(app.Func).(ast.RLam); !ok {
		t.Fatalf("app.Func = %#v, want RLam", stripAll(app.Func))
	}
}

func TestParseHole(t *testing.T) {
	r, err := Parse("_", "test")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := stripAll(r).(ast.RHole); !ok {
		t.Fatalf("got %#v, want RHole", stripAll(r))
	}
}
