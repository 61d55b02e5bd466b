package errors

import (
	"strings"
	"testing"
)

func TestNameNotInScopeRoundTripsThroughReportError(t *testing.T) {
	r := NameNotInScope("foo", nil)
	err := Wrap(r)

	got, ok := AsReport(err)
	if !ok {
		t.Fatalf("AsReport did not recover a Report from %v", err)
	}
	if got.Code != ELBNameNotInScope {
		t.Fatalf("Code = %q, want %q", got.Code, ELBNameNotInScope)
	}
	if !strings.Contains(err.Error(), "foo") {
		t.Fatalf("Error() = %q, want it to mention the missing name", err.Error())
	}
}

func TestToJSONCompactOmitsIndentation(t *testing.T) {
	r := OccursCheck(3, nil)
	s, err := r.ToJSON(true)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if strings.Contains(s, "\n") {
		t.Fatalf("compact ToJSON contains a newline: %q", s)
	}
	if !strings.Contains(s, UNIOccursCheck) {
		t.Fatalf("ToJSON missing code: %q", s)
	}
}

func TestUnifyErrorWhileNestsInnerReport(t *testing.T) {
	inner := UnifyError("U", "A -> A", nil)
	outer := UnifyErrorWhile(inner, "B", "A -> A", nil)
	while, ok := outer.Data["while"].(*Report)
	if !ok {
		t.Fatalf("Data[while] is not a *Report: %#v", outer.Data["while"])
	}
	if while.Code != UNIMismatch {
		t.Fatalf("nested report code = %q, want %q", while.Code, UNIMismatch)
	}
}
