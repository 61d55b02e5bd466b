// Package elaborate implements bidirectional elaboration of surface terms
// (ast.Raw) into core terms (core.Tm), inserting implicit function and
// telescope arguments as it goes and deferring what it cannot yet decide
// to the metacontext as fresh metavariables or constancy constraints.
package elaborate

import (
	"fmt"

	"github.com/ailang-lang/telescope/internal/ast"
	"github.com/ailang-lang/telescope/internal/core"
	"github.com/ailang-lang/telescope/internal/cxt"
	"github.com/ailang-lang/telescope/internal/meta"
	"github.com/ailang-lang/telescope/internal/nbe"
	"github.com/ailang-lang/telescope/internal/unify"
	"github.com/ailang-lang/telescope/internal/value"
)

// Elaborator holds the single mutable metacontext a source file's worth
// of elaboration threads through, plus the feature switches that change
// how bidirectional inference behaves at an application.
type Elaborator struct {
	Mcx *meta.MetaContext

	// AltAppInference switches on an alternate rule for inferring the
	// function side of an explicit application: instead of inserting
	// every leading implicit (including telescope) argument before
	// matching against the expected arrow shape, it inserts only
	// ordinary implicit Pi arguments and leaves a leading PiTel for the
	// application rule itself to open one field at a time. Off by
	// default.
	AltAppInference bool
}

// New creates an elaborator sharing metacontext mcx.
func New(mcx *meta.MetaContext, altAppInference bool) *Elaborator {
	return &Elaborator{Mcx: mcx, AltAppInference: altAppInference}
}

// NameNotInScopeError is returned by Infer when an RVar has no matching
// user-visible binding in the context.
type NameNotInScopeError struct{ Name string }

func (e *NameNotInScopeError) Error() string {
	return fmt.Sprintf("name not in scope: %s", e.Name)
}

// IcitMismatchError is returned when an explicitly-tagged surface lambda
// or application does not match the icitness the expected type demands
// and no insertion rule applies.
type IcitMismatchError struct{ Expected, Got value.Icit }

func (e *IcitMismatchError) Error() string {
	return fmt.Sprintf("icity mismatch: expected %s, got %s", e.Expected, e.Got)
}

// ExpectedFunctionError is returned when an application's function side
// elaborates to something that is provably not a function, telescope
// function, or still-open metavariable.
type ExpectedFunctionError struct{ Got value.Val }

func (e *ExpectedFunctionError) Error() string {
	return "expected a function type at this application"
}

// lookup finds name among the FromSource bindings of c, innermost first,
// returning its de Bruijn index and semantic type. A binding stored under
// the "*"-prefixed spelling set by inferTopLams for a top-level postulate
// still matches an ordinary reference to name.
func lookup(c *cxt.Cxt, name string) (int, value.Val, bool) {
	for i := c.Len - 1; i >= 0; i-- {
		if c.Origins[i] != cxt.FromSource {
			continue
		}
		if c.Names[i] == name || c.Names[i] == "*"+name {
			return c.Len - 1 - i, c.Types[i].Type, true
		}
	}
	return 0, nil, false
}

// freshMetaVal allocates a fresh meta of type a in context c and returns
// both its use-site term and its evaluated value.
func (e *Elaborator) freshMetaVal(c *cxt.Cxt, a value.Val) (core.Tm, value.Val) {
	t := unify.FreshMeta(e.Mcx, c, a)
	return t, nbe.Eval(e.Mcx, c.Vals, t)
}

// insert repeatedly inserts a fresh implicit (or telescope) argument into
// (t, a) until a is no longer headed by an implicit Pi or a PiTel. Used
// after inferring the function side of an explicit application, and
// generally whenever a checking position needs a's outermost structure
// exposed.
func (e *Elaborator) insert(c *cxt.Cxt, t core.Tm, a value.Val) (core.Tm, value.Val, error) {
	for {
		a = nbe.Force(e.Mcx, a)
		switch av := a.(type) {
		case value.VPi:
			if av.Icit != value.Impl {
				return t, a, nil
			}
			argTm, argVal := e.freshMetaVal(c, av.Dom)
			t = core.App{Icit: value.Impl, Func: t, Arg: argTm}
			a = av.Cod(argVal)
		case value.VPiTel:
			argTm, argVal := e.freshMetaVal(c, value.VRec{Tel: av.Dom})
			t = core.AppTel{Dom: nbe.Quote(e.Mcx, c.Len, av.Dom), Func: t, Arg: argTm}
			a = av.Cod(argVal)
		default:
			return t, a, nil
		}
	}
}

// insertNoLam is insert, except it leaves (t, a) untouched when t is
// itself a surface-written implicit lambda: the user spelled out the
// implicit binder explicitly, so nothing should be auto-inserted in
// front of it.
func (e *Elaborator) insertNoLam(c *cxt.Cxt, raw ast.Raw, t core.Tm, a value.Val) (core.Tm, value.Val, error) {
	if lam, ok := raw.(ast.RLam); ok && lam.Icit == value.Impl {
		return t, a, nil
	}
	return e.insert(c, t, a)
}

// Infer synthesizes a term and its type from a surface term with no
// expected type available.
func (e *Elaborator) Infer(c *cxt.Cxt, r ast.Raw) (core.Tm, value.Val, error) {
	if sp, ok := r.(ast.RSrcPos); ok {
		return e.Infer(c, sp.Raw)
	}

	switch r := r.(type) {
	case ast.RVar:
		idx, ty, ok := lookup(c, r.Name)
		if !ok {
			return nil, nil, &NameNotInScopeError{Name: r.Name}
		}
		return e.insert(c, core.Var{Idx: idx}, ty)

	case ast.RU:
		return core.U{}, value.VU{}, nil

	case ast.RHole:
		_, tyVal := e.freshMetaVal(c, value.VU{})
		tmTm, tmVal := e.freshMetaVal(c, tyVal)
		return tmTm, tmVal, nil

	case ast.RPi:
		domTm, err := e.Check(c, r.Dom, value.VU{})
		if err != nil {
			return nil, nil, err
		}
		domVal := nbe.Eval(e.Mcx, c.Vals, domTm)
		c2 := cxt.BindSrc(c, r.Name, domVal)
		codTm, err := e.Check(c2, r.Cod, value.VU{})
		if err != nil {
			return nil, nil, err
		}
		return core.Pi{Name: r.Name, Icit: r.Icit, Dom: domTm, Cod: codTm}, value.VU{}, nil

	case ast.RLam:
		var domVal value.Val
		var domTm core.Tm
		if r.Ann != nil {
			var err error
			domTm, err = e.Check(c, r.Ann, value.VU{})
			if err != nil {
				return nil, nil, err
			}
			domVal = nbe.Eval(e.Mcx, c.Vals, domTm)
		} else {
			domTm, domVal = e.freshMetaVal(c, value.VU{})
		}
		c2 := cxt.BindSrc(c, r.Name, domVal)
		bodyTm, bodyTy, err := e.Infer(c2, r.Body)
		if err != nil {
			return nil, nil, err
		}
		codTm := nbe.Quote(e.Mcx, c2.Len, bodyTy)
		cod := func(v value.Val) value.Val { return nbe.Eval(e.Mcx, c.Vals.Extend(v), codTm) }
		return core.Lam{Name: r.Name, Icit: r.Icit, Dom: domTm, Body: bodyTm},
			value.VPi{Name: r.Name, Icit: r.Icit, Dom: domVal, Cod: cod}, nil

	case ast.RApp:
		return e.inferApp(c, r)

	case ast.RLet:
		var annVal value.Val
		var annTm core.Tm
		if r.Ann != nil {
			var err error
			annTm, err = e.Check(c, r.Ann, value.VU{})
			if err != nil {
				return nil, nil, err
			}
			annVal = nbe.Eval(e.Mcx, c.Vals, annTm)
		}
		var valTm core.Tm
		var valTy value.Val
		var err error
		if annVal != nil {
			valTm, err = e.Check(c, r.Val, annVal)
			valTy = annVal
		} else {
			_, tyVal := e.freshMetaVal(c, value.VU{})
			valTm, err = e.Check(c, r.Val, tyVal)
			valTy = nbe.Force(e.Mcx, tyVal)
		}
		if err != nil {
			return nil, nil, err
		}
		valVal := nbe.Eval(e.Mcx, c.Vals, valTm)
		c2 := cxt.Define(c, r.Name, valVal, valTy)
		bodyTm, bodyTy, err := e.Infer(c2, r.Body)
		if err != nil {
			return nil, nil, err
		}
		return core.Let{Name: r.Name, Type: nbe.Quote(e.Mcx, c.Len, valTy), Val: valTm, Body: bodyTm}, bodyTy, nil

	default:
		return nil, nil, fmt.Errorf("elaborate: infer: unhandled Raw %T", r)
	}
}

// inferApp infers an application, inserting leading implicit/telescope
// arguments on the function side before matching the argument's icitness
// against the now-exposed Π (or, under AltAppInference, stopping short of
// opening a telescope so the telescope's own fields are peeled one at a
// time by repeated explicit application instead of all at once).
func (e *Elaborator) inferApp(c *cxt.Cxt, r ast.RApp) (core.Tm, value.Val, error) {
	fTm, fTy, err := e.Infer(c, r.Func)
	if err != nil {
		return nil, nil, err
	}
	if r.Icit == value.Expl || !e.AltAppInference {
		fTm, fTy, err = e.insert(c, fTm, fTy)
		if err != nil {
			return nil, nil, err
		}
	}
	fTy = nbe.Force(e.Mcx, fTy)

	switch fv := fTy.(type) {
	case value.VPi:
		if fv.Icit != r.Icit {
			return nil, nil, &IcitMismatchError{Expected: fv.Icit, Got: r.Icit}
		}
		argTm, err := e.Check(c, r.Arg, fv.Dom)
		if err != nil {
			return nil, nil, err
		}
		argVal := nbe.Eval(e.Mcx, c.Vals, argTm)
		return core.App{Icit: r.Icit, Func: fTm, Arg: argTm}, fv.Cod(argVal), nil

	case value.VPiTel:
		argTm, err := e.Check(c, r.Arg, fv.Dom)
		if err != nil {
			return nil, nil, err
		}
		argVal := nbe.Eval(e.Mcx, c.Vals, argTm)
		return core.AppTel{Dom: nbe.Quote(e.Mcx, c.Len, fv.Dom), Func: fTm, Arg: argTm}, fv.Cod(argVal), nil

	case value.VNe:
		if fv.Head.Tag != value.HMeta {
			return nil, nil, &ExpectedFunctionError{Got: fTy}
		}
		_, domVal := e.freshMetaVal(c, value.VU{})
		codName := "x"
		c2 := cxt.Bind(c, codName, cxt.Inserted, domVal)
		codTm, _ := e.freshMetaVal(c2, value.VU{})
		cod := func(v value.Val) value.Val { return nbe.Eval(e.Mcx, c.Vals.Extend(v), codTm) }
		piVal := value.VPi{Name: codName, Icit: r.Icit, Dom: domVal, Cod: cod}
		if err := unify.Unify(e.Mcx, c.Len, fTy, piVal); err != nil {
			return nil, nil, err
		}
		argTm, err := e.Check(c, r.Arg, domVal)
		if err != nil {
			return nil, nil, err
		}
		argVal := nbe.Eval(e.Mcx, c.Vals, argTm)
		return core.App{Icit: r.Icit, Func: fTm, Arg: argTm}, cod(argVal), nil

	default:
		return nil, nil, &ExpectedFunctionError{Got: fTy}
	}
}

// Check elaborates a surface term against an expected type, inserting an
// implicit lambda or telescope lambda automatically when the expected
// type demands one that the surface term did not spell out.
func (e *Elaborator) Check(c *cxt.Cxt, r ast.Raw, expected value.Val) (core.Tm, error) {
	if sp, ok := r.(ast.RSrcPos); ok {
		return e.Check(c, sp.Raw, expected)
	}

	if _, ok := r.(ast.RHole); ok {
		t, _ := e.freshMetaVal(c, expected)
		return t, nil
	}

	expected = nbe.Force(e.Mcx, expected)

	if lam, ok := r.(ast.RLam); ok {
		if pi, ok := expected.(value.VPi); ok && lam.Icit == pi.Icit {
			var domVal value.Val = pi.Dom
			if lam.Ann != nil {
				annTm, err := e.Check(c, lam.Ann, value.VU{})
				if err != nil {
					return nil, err
				}
				annVal := nbe.Eval(e.Mcx, c.Vals, annTm)
				if err := unify.Unify(e.Mcx, c.Len, annVal, pi.Dom); err != nil {
					return nil, err
				}
			}
			c2 := cxt.BindSrc(c, lam.Name, domVal)
			v := value.VVar(value.Lvl(c.Len))
			bodyTm, err := e.Check(c2, lam.Body, pi.Cod(v))
			if err != nil {
				return nil, err
			}
			return core.Lam{Name: lam.Name, Icit: lam.Icit, Dom: nbe.Quote(e.Mcx, c.Len, domVal), Body: bodyTm}, nil
		}
	}

	if pi, ok := expected.(value.VPi); ok && pi.Icit == value.Impl {
		if lam, ok := r.(ast.RLam); !ok || lam.Icit != value.Impl {
			c2 := cxt.Bind(c, pi.Name, cxt.Inserted, pi.Dom)
			v := value.VVar(value.Lvl(c.Len))
			bodyTm, err := e.Check(c2, r, pi.Cod(v))
			if err != nil {
				return nil, err
			}
			return core.Lam{Name: pi.Name, Icit: value.Impl, Dom: nbe.Quote(e.Mcx, c.Len, pi.Dom), Body: bodyTm}, nil
		}
	}

	if tel, ok := expected.(value.VPiTel); ok {
		c2 := cxt.Bind(c, tel.Name, cxt.Inserted, value.VRec{Tel: tel.Dom})
		v := value.VVar(value.Lvl(c.Len))
		bodyTm, err := e.Check(c2, r, tel.Cod(v))
		if err != nil {
			return nil, err
		}
		return core.LamTel{Name: tel.Name, Dom: nbe.Quote(e.Mcx, c.Len, tel.Dom), Body: bodyTm}, nil
	}

	if ne, ok := expected.(value.VNe); ok && ne.Head.Tag == value.HMeta {
		name := fmt.Sprintf("Γ%d", e.Mcx.NextMId())
		_, domVal := e.freshMetaVal(c, value.VTel{})
		c2 := cxt.Bind(c, name, cxt.Inserted, value.VRec{Tel: domVal})
		bodyTm, bodyTy, err := e.Infer(c2, r)
		if err != nil {
			return nil, err
		}
		codTm := nbe.Quote(e.Mcx, c2.Len, bodyTy)
		cod := func(v value.Val) value.Val { return nbe.Eval(e.Mcx, c.Vals.Extend(v), codTm) }
		if _, err := unify.NewConstancy(e.Mcx, c.Len, domVal, bodyTy); err != nil {
			return nil, err
		}
		if err := unify.Unify(e.Mcx, c.Len, expected, value.VPiTel{Name: name, Dom: domVal, Cod: cod}); err != nil {
			return nil, err
		}
		return core.LamTel{Name: name, Dom: nbe.Quote(e.Mcx, c.Len, domVal), Body: bodyTm}, nil
	}

	if let, ok := r.(ast.RLet); ok {
		tm, ty, err := e.Infer(c, let)
		if err != nil {
			return nil, err
		}
		if err := unify.Unify(e.Mcx, c.Len, ty, expected); err != nil {
			return nil, err
		}
		return tm, nil
	}

	tm, ty, err := e.Infer(c, r)
	if err != nil {
		return nil, err
	}
	tm, ty, err = e.insertNoLam(c, r, tm, ty)
	if err != nil {
		return nil, err
	}
	if err := unify.Unify(e.Mcx, c.Len, ty, expected); err != nil {
		return nil, err
	}
	return tm, nil
}
