package elaborate

import (
	"github.com/ailang-lang/telescope/internal/ast"
	"github.com/ailang-lang/telescope/internal/core"
	"github.com/ailang-lang/telescope/internal/cxt"
	"github.com/ailang-lang/telescope/internal/nbe"
	"github.com/ailang-lang/telescope/internal/value"
)

// InferTop infers r in the empty context via inferTopLams.
func (e *Elaborator) InferTop(r ast.Raw) (core.Tm, core.Tm, error) {
	return e.inferTopLams(cxt.Empty(), r)
}

// inferTopLams treats a leading run of surface RLams as postulates: each
// one's name is prefixed with "*" before being bound, so that ordinary
// RVar lookup can still find it (lookup also tries the "*"-prefixed
// spelling) while signalling, for anything that inspects names later,
// that the binder came from the top level rather than from a user
// application. This is purely a naming convention — the elaborated term
// is still an ordinary nest of Lams, exactly as if the prefix were never
// added, and once the leading run of lambdas ends, the rest of r is
// elaborated by plain Infer with no further generalization performed:
// a top-level definition's type is only as polymorphic as what it
// actually writes down or what checking against a meta-typed position
// infers via telescope generalization.
func (e *Elaborator) inferTopLams(c *cxt.Cxt, r ast.Raw) (core.Tm, core.Tm, error) {
	if sp, ok := r.(ast.RSrcPos); ok {
		return e.inferTopLams(c, sp.Raw)
	}

	lam, ok := r.(ast.RLam)
	if !ok {
		tm, ty, err := e.Infer(c, r)
		if err != nil {
			return nil, nil, err
		}
		return tm, nbe.Quote(e.Mcx, c.Len, ty), nil
	}

	var domTm core.Tm
	var domVal value.Val
	if lam.Ann != nil {
		var err error
		domTm, err = e.Check(c, lam.Ann, value.VU{})
		if err != nil {
			return nil, nil, err
		}
		domVal = nbe.Eval(e.Mcx, c.Vals, domTm)
	} else {
		domTm, domVal = e.freshMetaVal(c, value.VU{})
	}

	postName := "*" + lam.Name
	c2 := cxt.BindSrc(c, postName, domVal)
	bodyTm, bodyTyTm, err := e.inferTopLams(c2, lam.Body)
	if err != nil {
		return nil, nil, err
	}
	tm := core.Lam{Name: postName, Icit: lam.Icit, Dom: domTm, Body: bodyTm}
	ty := core.Pi{Name: postName, Icit: lam.Icit, Dom: domTm, Cod: bodyTyTm}
	return tm, ty, nil
}
