package ast

import "testing"

func TestStripPos(t *testing.T) {
	inner := RVar{Name: "x"}
	wrapped := RSrcPos{Span: Span{Start: Pos{Line: 1, Column: 1, File: "t"}}, Raw: RSrcPos{
		Span: Span{Start: Pos{Line: 2, Column: 2, File: "t"}},
		Raw:  inner,
	}}

	stripped, span := StripPos(wrapped)
	if stripped != Raw(inner) {
		t.Fatalf("StripPos returned %#v, want %#v", stripped, inner)
	}
	if span == nil || span.Start.Line != 2 {
		t.Fatalf("StripPos returned span %#v, want innermost span at line 2", span)
	}
}

func TestStripPosNoWrapper(t *testing.T) {
	r := RHole{}
	stripped, span := StripPos(r)
	if stripped != Raw(r) || span != nil {
		t.Fatalf("StripPos on unwrapped node changed it: %#v, %#v", stripped, span)
	}
}
