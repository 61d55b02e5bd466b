// Command telescope elaborates, evaluates, and type-checks terms of the
// implicit-function-type, telescope-polymorphic calculus implemented by
// this module, plus an interactive REPL.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/ailang-lang/telescope/internal/config"
	"github.com/ailang-lang/telescope/internal/cxt"
	"github.com/ailang-lang/telescope/internal/elaborate"
	"github.com/ailang-lang/telescope/internal/errors"
	"github.com/ailang-lang/telescope/internal/meta"
	"github.com/ailang-lang/telescope/internal/nbe"
	"github.com/ailang-lang/telescope/internal/parser"
	"github.com/ailang-lang/telescope/internal/printer"
	"github.com/ailang-lang/telescope/internal/repl"
	"github.com/ailang-lang/telescope/internal/value"
)

var (
	red  = color.New(color.FgRed).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a telescope.yaml configuration file")
		colorFlag  = flag.Bool("color", true, "colorize CLI and REPL output")
		altApp     = flag.Bool("alt-app-inference", false, "use the alternate RApp inference rule")
		helpFlag   = flag.Bool("help", false, "show usage")
	)
	flag.Parse()

	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("config"), err)
			os.Exit(1)
		}
		cfg = loaded
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "color" {
			cfg.Color = *colorFlag
		}
	})
	if *altApp {
		cfg.AltAppInference = true
	}
	color.NoColor = !cfg.Color

	switch flag.Arg(0) {
	case "elab":
		runElab(cfg)
	case "eval":
		runEval(cfg)
	case "type":
		runType(cfg)
	case "repl":
		repl.Run(cfg)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), flag.Arg(0))
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(bold("telescope") + " - a dependently-typed elaborator with implicit telescopes")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  telescope elab   < term.tel   print the zonked elaborated core term")
	fmt.Println("  telescope eval   < term.tel   print the normal form")
	fmt.Println("  telescope type   < term.tel   print the inferred (or checked) type")
	fmt.Println("  telescope repl                start an interactive session")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}

// readStdinSplit reads stdin and, if it contains a blank-line-separated
// second section, returns it as the "type" half used by `telescope type`
// to check rather than infer.
func readStdinSplit() (term string, ty string, err error) {
	data, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		return "", "", err
	}
	parts := strings.SplitN(string(data), "\n\n", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
	}
	return strings.TrimSpace(parts[0]), "", nil
}

func fail(phase string, err error) {
	if rep, ok := errors.AsReport(err); ok {
		s, _ := rep.ToJSON(false)
		fmt.Fprintln(os.Stderr, s)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", red(phase), err)
	os.Exit(2)
}

func runElab(cfg config.Config) {
	term, _, err := readStdinSplit()
	if err != nil {
		fail("read", err)
	}
	raw, err := parser.Parse(term, "<stdin>")
	if err != nil {
		fail("parse", err)
	}

	mcx := meta.New()
	e := elaborate.New(mcx, cfg.AltAppInference)
	tm, _, err := e.InferTop(raw)
	if err != nil {
		fail("elaborate", err)
	}
	fmt.Println(printer.Tm(printer.Zonk(mcx, 0, tm)))
}

func runEval(cfg config.Config) {
	term, _, err := readStdinSplit()
	if err != nil {
		fail("read", err)
	}
	raw, err := parser.Parse(term, "<stdin>")
	if err != nil {
		fail("parse", err)
	}

	mcx := meta.New()
	e := elaborate.New(mcx, cfg.AltAppInference)
	tm, _, err := e.InferTop(raw)
	if err != nil {
		fail("elaborate", err)
	}
	v := nbe.Eval(mcx, nil, tm)
	fmt.Println(printer.Val(mcx, 0, v))
}

func runType(cfg config.Config) {
	term, tyStr, err := readStdinSplit()
	if err != nil {
		fail("read", err)
	}
	raw, err := parser.Parse(term, "<stdin>")
	if err != nil {
		fail("parse", err)
	}

	mcx := meta.New()
	e := elaborate.New(mcx, cfg.AltAppInference)

	if tyStr == "" {
		_, ty, err := e.InferTop(raw)
		if err != nil {
			fail("elaborate", err)
		}
		fmt.Println(printer.Tm(printer.Zonk(mcx, 0, ty)))
		return
	}

	tyRaw, err := parser.Parse(tyStr, "<stdin:type>")
	if err != nil {
		fail("parse", err)
	}
	c := cxt.Empty()
	tyTm, err := e.Check(c, tyRaw, value.VU{})
	if err != nil {
		fail("elaborate", err)
	}
	tyVal := nbe.Eval(mcx, c.Vals, tyTm)
	if _, err := e.Check(c, raw, tyVal); err != nil {
		fail("elaborate", err)
	}
	fmt.Println(printer.Val(mcx, 0, tyVal))
}
