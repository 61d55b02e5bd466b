// Package printer zonks elaborated terms (substituting solved metas and
// eliminating Skip nodes) and renders core.Tm and value.Val for CLI and
// REPL output, deliberately kept outside the elaboration core so neither
// depends on the other.
package printer

import (
	"fmt"
	"strings"

	"github.com/ailang-lang/telescope/internal/core"
	"github.com/ailang-lang/telescope/internal/meta"
	"github.com/ailang-lang/telescope/internal/nbe"
	"github.com/ailang-lang/telescope/internal/value"
)

// Zonk fully substitutes every solved meta reachable from t and removes
// Skip wrappers along the way, by round-tripping through eval/quote: a
// solved meta unfolds the moment Eval meets it, so quoting the result
// back at the same depth yields a term with no solved metas and no Skip
// left in it (eval already discharges Skip against the matching gap in
// its own environment).
func Zonk(mcx *meta.MetaContext, d int, t core.Tm) core.Tm {
	return nbe.Quote(mcx, d, nbe.Eval(mcx, emptyEnvOfLen(d), t))
}

// emptyEnvOfLen builds a d-slot environment of free variables, the
// identity substitution Zonk evaluates t under so that unsolved
// variables pass through unchanged.
func emptyEnvOfLen(d int) value.Env {
	env := make(value.Env, d)
	for i := 0; i < d; i++ {
		env[i] = value.EnvSlot{Defined: true, Val: value.VVar(value.Lvl(i))}
	}
	return env
}

// Tm renders a core term. Bound variables print as their de Bruijn index
// prefixed with '#' since no name table is threaded through at this
// layer; Val renders through Tm and prints bound variables the same way.
func Tm(t core.Tm) string {
	var b strings.Builder
	writeTm(&b, t)
	return b.String()
}

func writeTm(b *strings.Builder, t core.Tm) {
	switch t := t.(type) {
	case core.Var:
		fmt.Fprintf(b, "#%d", t.Idx)
	case core.Let:
		fmt.Fprintf(b, "let %s = ", t.Name)
		writeTm(b, t.Val)
		b.WriteString(" in ")
		writeTm(b, t.Body)
	case core.Pi:
		writeBinder(b, "Π", t.Name, t.Icit)
		b.WriteString(" : ")
		writeTm(b, t.Dom)
		b.WriteString(". ")
		writeTm(b, t.Cod)
	case core.Lam:
		writeBinder(b, "λ", t.Name, t.Icit)
		b.WriteString(". ")
		writeTm(b, t.Body)
	case core.App:
		writeTm(b, t.Func)
		b.WriteString(" ")
		if t.Icit == value.Impl {
			b.WriteString("{")
			writeTm(b, t.Arg)
			b.WriteString("}")
		} else {
			writeTm(b, t.Arg)
		}
	case core.U:
		b.WriteString("U")
	case core.Meta:
		fmt.Fprintf(b, "?%d", t.Id)
	case core.Skip:
		b.WriteString("skip ")
		writeTm(b, t.Body)
	case core.PiTel:
		fmt.Fprintf(b, "(%s : ", t.Name)
		writeTm(b, t.Dom)
		b.WriteString(") ▷ ")
		writeTm(b, t.Cod)
	case core.LamTel:
		fmt.Fprintf(b, "λᵗ%s. ", t.Name)
		writeTm(b, t.Body)
	case core.AppTel:
		writeTm(b, t.Func)
		b.WriteString(" @")
		writeTm(b, t.Arg)
	case core.Tel:
		b.WriteString("Tel")
	case core.TEmpty:
		b.WriteString("∅")
	case core.TCons:
		fmt.Fprintf(b, "(%s : ", t.Name)
		writeTm(b, t.Head)
		b.WriteString(") ▷ ")
		writeTm(b, t.Tail)
	case core.Rec:
		b.WriteString("Rec ")
		writeTm(b, t.Tel)
	case core.Tempty:
		b.WriteString("()")
	case core.Tcons:
		b.WriteString("(")
		writeTm(b, t.Head)
		b.WriteString(", ")
		writeTm(b, t.Tail)
		b.WriteString(")")
	default:
		fmt.Fprintf(b, "<?%T>", t)
	}
}

func writeBinder(b *strings.Builder, sym, name string, icit value.Icit) {
	if icit == value.Impl {
		fmt.Fprintf(b, "%s{%s}", sym, name)
	} else {
		fmt.Fprintf(b, "%s(%s)", sym, name)
	}
}

// Val renders a value by quoting it at depth d and printing the result
// with Tm. Levels are never printed as @n: a level at or above d quotes
// to a negative index and prints as such.
func Val(mcx *meta.MetaContext, d int, v value.Val) string {
	return Tm(nbe.Quote(mcx, d, v))
}
