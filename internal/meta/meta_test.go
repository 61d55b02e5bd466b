package meta

import (
	"testing"

	"github.com/ailang-lang/telescope/internal/value"
)

func TestNewMetaAllocatesIncreasingIDs(t *testing.T) {
	m := New()
	a := m.NewMeta(Unsolved{Type: value.VU{}})
	b := m.NewMeta(Unsolved{Type: value.VU{}})
	if b <= a {
		t.Fatalf("second id %d did not increase over first %d", b, a)
	}
	if m.NextMId() != b+1 {
		t.Fatalf("NextMId() = %d, want %d", m.NextMId(), b+1)
	}
}

func TestWriteMetaReplacesEntry(t *testing.T) {
	m := New()
	id := m.NewMeta(Unsolved{Type: value.VU{}})
	m.WriteMeta(id, Solved{Value: value.VU{}})
	if _, ok := m.LookupMeta(id).(Solved); !ok {
		t.Fatalf("LookupMeta(%d) = %#v, want Solved", id, m.LookupMeta(id))
	}
}

// TestBlockersRegistrationIsBijective checks the invariant SolveMeta and
// TryConstancy both depend on: every id registered in a Constancy entry's
// Blockers set must, for as long as that Constancy is unresolved, also
// appear in the Blockers set of the Unsolved meta it names — so that
// solving that meta knows to retry the constancy check.
func TestBlockersRegistrationIsBijective(t *testing.T) {
	m := New()
	blocked := m.NewMeta(Unsolved{Type: value.VU{}})
	constancyID := m.NewMeta(Constancy{
		Dom:      value.VU{},
		Cod:      value.VU{},
		Blockers: map[value.MetaID]struct{}{},
	})

	m.ModifyMeta(blocked, func(e Entry) Entry {
		u := e.(Unsolved)
		if u.Blockers == nil {
			u.Blockers = map[value.MetaID]struct{}{}
		}
		u.Blockers[constancyID] = struct{}{}
		return u
	})
	m.ModifyMeta(constancyID, func(e Entry) Entry {
		c := e.(Constancy)
		c.Blockers[blocked] = struct{}{}
		return c
	})

	u := m.LookupMeta(blocked).(Unsolved)
	if _, ok := u.Blockers[constancyID]; !ok {
		t.Fatalf("Unsolved(%d).Blockers missing constancy id %d", blocked, constancyID)
	}
	c := m.LookupMeta(constancyID).(Constancy)
	if _, ok := c.Blockers[blocked]; !ok {
		t.Fatalf("Constancy(%d).Blockers missing meta id %d", constancyID, blocked)
	}
}

func TestAllVisitsEveryEntryInAllocationOrder(t *testing.T) {
	m := New()
	m.NewMeta(Unsolved{Type: value.VU{}})
	m.NewMeta(Solved{Value: value.VU{}})

	var seen []value.MetaID
	m.All(func(id value.MetaID, _ Entry) { seen = append(seen, id) })
	if len(seen) != 2 || seen[0] != 0 || seen[1] != 1 {
		t.Fatalf("All visited %v, want [0 1]", seen)
	}
}
