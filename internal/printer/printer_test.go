package printer

import (
	"strings"
	"testing"

	"github.com/ailang-lang/telescope/internal/core"
	"github.com/ailang-lang/telescope/internal/meta"
	"github.com/ailang-lang/telescope/internal/value"
)

func TestZonkSubstitutesSolvedMeta(t *testing.T) {
	mcx := meta.New()
	id := mcx.NewMeta(meta.Unsolved{Type: value.VU{}})
	mcx.WriteMeta(id, meta.Solved{Value: value.VU{}})

	zonked := Zonk(mcx, 0, core.Meta{Id: id})
	if _, ok := zonked.(core.U); !ok {
		t.Fatalf("Zonk did not substitute solved meta, got %#v", zonked)
	}
}

func TestTmRendersMetaAndVar(t *testing.T) {
	s := Tm(core.App{Icit: value.Expl, Func: core.Meta{Id: 3}, Arg: core.Var{Idx: 0}})
	if !strings.Contains(s, "?3") || !strings.Contains(s, "#0") {
		t.Fatalf("Tm rendering missing expected tokens: %q", s)
	}
}

func TestValRendersUniverse(t *testing.T) {
	mcx := meta.New()
	if got := Val(mcx, 0, value.VU{}); got != "U" {
		t.Fatalf("Val(VU) = %q, want %q", got, "U")
	}
}
