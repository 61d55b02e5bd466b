package cxt

import (
	"testing"

	"github.com/ailang-lang/telescope/internal/value"
)

func TestBindExtendsWithSkipAndBoundKind(t *testing.T) {
	c := Bind(Empty(), "x", FromSource, value.VU{})
	if c.Len != 1 {
		t.Fatalf("Len = %d, want 1", c.Len)
	}
	if c.Types[0].Kind != Bound {
		t.Fatalf("Kind = %v, want Bound", c.Types[0].Kind)
	}
	if c.Vals[0].Defined {
		t.Fatalf("a Bind slot should not be Defined yet")
	}
}

func TestDefineStoresValueInEnvAndTypeSeparately(t *testing.T) {
	val := value.VU{}
	typ := value.VPi{Name: "A", Icit: value.Expl, Dom: value.VU{}}
	c := Define(Empty(), "x", val, typ)

	if c.Types[0].Kind != Defined {
		t.Fatalf("Kind = %v, want Defined", c.Types[0].Kind)
	}
	if _, ok := c.Types[0].Type.(value.VPi); !ok {
		t.Fatalf("Types[0].Type = %#v, want the VPi type, not the value", c.Types[0].Type)
	}
	if !c.Vals[0].Defined {
		t.Fatalf("Define should push a Defined env slot")
	}
	if _, ok := c.Vals[0].Val.(value.VU); !ok {
		t.Fatalf("Vals[0].Val = %#v, want the VU value, not the type", c.Vals[0].Val)
	}
}

func TestLvlNameTracksNames(t *testing.T) {
	c := BindSrc(BindSrc(Empty(), "x", value.VU{}), "y", value.VU{})
	if got := LvlName(c, 0); got != "x" {
		t.Fatalf("LvlName(0) = %q, want x", got)
	}
	if got := LvlName(c, 1); got != "y" {
		t.Fatalf("LvlName(1) = %q, want y", got)
	}
}
