// Package repl is an interactive session over the elaborator: each
// accepted line either extends a running context with a persistent
// 'let' binding or elaborates and evaluates a one-off term, grounded in
// the teacher's liner+fatih/color REPL loop.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/ailang-lang/telescope/internal/config"
	"github.com/ailang-lang/telescope/internal/core"
	"github.com/ailang-lang/telescope/internal/cxt"
	"github.com/ailang-lang/telescope/internal/elaborate"
	"github.com/ailang-lang/telescope/internal/errors"
	"github.com/ailang-lang/telescope/internal/meta"
	"github.com/ailang-lang/telescope/internal/nbe"
	"github.com/ailang-lang/telescope/internal/parser"
	"github.com/ailang-lang/telescope/internal/printer"
	"github.com/ailang-lang/telescope/internal/value"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Session holds the running elaboration state a REPL accumulates across
// lines: every persistent 'let' extends cx and mcx in place.
type Session struct {
	cx     *cxt.Cxt
	mcx    *meta.MetaContext
	elab   *elaborate.Elaborator
	history []string
}

// NewSession creates an empty session.
func NewSession(cfg config.Config) *Session {
	mcx := meta.New()
	return &Session{
		cx:   cxt.Empty(),
		mcx:  mcx,
		elab: elaborate.New(mcx, cfg.AltAppInference),
	}
}

// Eval elaborates and evaluates a one-off term against the session's
// current context, without extending it.
func (s *Session) Eval(src string) (termStr, typeStr string, err error) {
	raw, err := parser.Parse(src, "<repl>")
	if err != nil {
		return "", "", err
	}
	tm, ty, err := s.elab.Infer(s.cx, raw)
	if err != nil {
		return "", "", err
	}
	v := nbe.Eval(s.mcx, s.cx.Vals, tm)
	termStr = printer.Val(s.mcx, s.cx.Len, v)
	typeStr = printer.Val(s.mcx, s.cx.Len, ty)
	return termStr, typeStr, nil
}

// Bind elaborates a persistent 'let name (: ann)? = val' and extends the
// session's context with the result, returning the bound name and its
// zonked type for display.
func (s *Session) Bind(src string) (name, typeStr string, err error) {
	binding, err := parser.ParseTopLevelBindingSrc(src, "<repl>")
	if err != nil {
		return "", "", err
	}

	var valTm core.Tm
	var ty value.Val
	if binding.Ann != nil {
		annTm, err := s.elab.Check(s.cx, binding.Ann, value.VU{})
		if err != nil {
			return "", "", err
		}
		annVal := nbe.Eval(s.mcx, s.cx.Vals, annTm)
		valTm, err = s.elab.Check(s.cx, binding.Val, annVal)
		if err != nil {
			return "", "", err
		}
		ty = annVal
	} else {
		var err error
		valTm, ty, err = s.elab.Infer(s.cx, binding.Val)
		if err != nil {
			return "", "", err
		}
	}

	v := nbe.Eval(s.mcx, s.cx.Vals, valTm)
	s.cx = cxt.Define(s.cx, binding.Name, v, ty)
	return binding.Name, printer.Val(s.mcx, s.cx.Len, ty), nil
}

// Run starts the interactive loop on stdin/stdout.
func Run(cfg config.Config) {
	session := NewSession(cfg)

	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(true)

	historyFile := filepath.Join(os.TempDir(), ".telescope_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	fmt.Println(bold("telescope") + " " + dim("interactive session"))
	fmt.Println(dim("Type :help for help, :quit to exit"))
	fmt.Println()

	line.SetCompleter(func(l string) (c []string) {
		if strings.HasPrefix(l, ":") {
			for _, cmd := range []string{":help", ":quit", ":reset", ":history"} {
				if strings.HasPrefix(cmd, l) {
					c = append(c, cmd)
				}
			}
		}
		return
	})

	for {
		input, err := line.Prompt("λ> ")
		if err == io.EOF {
			fmt.Println(green("\nGoodbye!"))
			break
		}
		if err != nil {
			fmt.Printf("%s: %v\n", red("Error"), err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		session.history = append(session.history, input)

		if strings.HasPrefix(input, ":") {
			if handleCommand(session, input) {
				break
			}
			continue
		}

		session.processLine(input, os.Stdout)
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

func (s *Session) processLine(input string, out io.Writer) {
	if parser.LooksLikeTopLevelBinding(input) {
		name, ty, err := s.Bind(input)
		if err != nil {
			printErr(out, err)
			return
		}
		fmt.Fprintf(out, "%s : %s\n", green(name), ty)
		return
	}

	term, ty, err := s.Eval(input)
	if err != nil {
		printErr(out, err)
		return
	}
	fmt.Fprintf(out, "%s\n%s %s\n", term, dim(":"), ty)
}

func printErr(out io.Writer, err error) {
	if rep, ok := errors.AsReport(err); ok {
		fmt.Fprintf(out, "%s: %s\n", red(rep.Code), rep.Message)
		return
	}
	fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
}

func handleCommand(s *Session, cmd string) (quit bool) {
	switch {
	case cmd == ":quit" || cmd == ":q" || cmd == ":exit":
		fmt.Println(green("Goodbye!"))
		return true
	case cmd == ":help" || cmd == ":h":
		printHelp()
	case cmd == ":reset":
		*s = *NewSession(config.Default())
		fmt.Println(dim("session reset"))
	case cmd == ":history":
		for i, h := range s.history {
			fmt.Printf("%3d  %s\n", i+1, h)
		}
	default:
		fmt.Printf("%s: unknown command %q\n", red("Error"), cmd)
	}
	return false
}

func printHelp() {
	fmt.Println(bold("Commands:"))
	fmt.Println("  :help      show this message")
	fmt.Println("  :quit      exit the session")
	fmt.Println("  :reset     clear all bindings")
	fmt.Println("  :history   list every accepted line")
	fmt.Println()
	fmt.Println(bold("Terms:"))
	fmt.Println("  let id : {A : U} -> A -> A = \\{A} x. x   persistent binding")
	fmt.Println("  id U                                      one-off evaluation")
}
