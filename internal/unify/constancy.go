package unify

import (
	"github.com/ailang-lang/telescope/internal/meta"
	"github.com/ailang-lang/telescope/internal/nbe"
	"github.com/ailang-lang/telescope/internal/value"
)

// occKind classifies how (or whether) a bound variable occurs in a value.
type occKind int

const (
	occNone  occKind = iota // the variable is definitely absent
	occRigid                // the variable definitely occurs
	occFlex                 // occurrence depends on how the metas in Blockers resolve
)

// occurrence is the result of classifying a variable's presence in a
// value: occRigid and occNone are final, occFlex carries the set of
// unsolved metas whose eventual solution will decide the answer.
type occurrence struct {
	Kind     occKind
	Blockers map[value.MetaID]struct{}
}

func occNoneVal() occurrence  { return occurrence{Kind: occNone} }
func occRigidVal() occurrence { return occurrence{Kind: occRigid} }
func occFlexVal(m value.MetaID) occurrence {
	return occurrence{Kind: occFlex, Blockers: map[value.MetaID]struct{}{m: {}}}
}

func mergeOcc(a, b occurrence) occurrence {
	if a.Kind == occRigid || b.Kind == occRigid {
		return occRigidVal()
	}
	if a.Kind == occNone && b.Kind == occNone {
		return occNoneVal()
	}
	merged := make(map[value.MetaID]struct{}, len(a.Blockers)+len(b.Blockers))
	for k := range a.Blockers {
		merged[k] = struct{}{}
	}
	for k := range b.Blockers {
		merged[k] = struct{}{}
	}
	return occurrence{Kind: occFlex, Blockers: merged}
}

// dummyLvl stands in for a fresh bound variable when occurs must open a
// binder to look inside its body. It only needs to be distinct from the
// real level being searched for; since genuine contexts never approach
// this depth, reusing one sentinel across every opened binder is safe.
const dummyLvl = value.Lvl(1 << 30)

// occurs classifies whether lvl occurs in v: rigidly (under no meta),
// flexibly (only inside the spine argument of one or more unsolved
// metas), or not at all.
func occurs(mcx *meta.MetaContext, lvl value.Lvl, v value.Val) occurrence {
	v = nbe.Force(mcx, v)
	switch v := v.(type) {
	case value.VNe:
		if v.Head.Tag == value.HVar && v.Head.Var == lvl {
			return occRigidVal()
		}
		if v.Head.Tag == value.HMeta {
			if occursInSpine(mcx, lvl, v.Sp).Kind == occNone {
				return occNoneVal()
			}
			return occFlexVal(v.Head.Meta)
		}
		return occursInSpine(mcx, lvl, v.Sp)
	case value.VLam:
		return occurs(mcx, lvl, v.Body(value.VVar(dummyLvl)))
	case value.VPi:
		return mergeOcc(occurs(mcx, lvl, v.Dom), occurs(mcx, lvl, v.Cod(value.VVar(dummyLvl))))
	case value.VU, value.VTel, value.VTEmpty, value.VTempty:
		return occNoneVal()
	case value.VRec:
		return occurs(mcx, lvl, v.Tel)
	case value.VTCons:
		return mergeOcc(occurs(mcx, lvl, v.Head), occurs(mcx, lvl, v.Tail(value.VVar(dummyLvl))))
	case value.VTcons:
		return mergeOcc(occurs(mcx, lvl, v.Head), occurs(mcx, lvl, v.Tail))
	case value.VPiTel:
		return mergeOcc(occurs(mcx, lvl, v.Dom), occurs(mcx, lvl, v.Cod(value.VVar(dummyLvl))))
	case value.VLamTel:
		return mergeOcc(occurs(mcx, lvl, v.Dom), occurs(mcx, lvl, v.Body(value.VVar(dummyLvl))))
	default:
		return occNoneVal()
	}
}

func occursInSpine(mcx *meta.MetaContext, lvl value.Lvl, sp value.Spine) occurrence {
	occ := occNoneVal()
	for _, el := range sp {
		switch el.Tag {
		case value.EApp:
			occ = mergeOcc(occ, occurs(mcx, lvl, el.Arg))
		case value.EAppTel:
			occ = mergeOcc(occ, occurs(mcx, lvl, el.Arg))
			occ = mergeOcc(occ, occurs(mcx, lvl, el.TelTy))
		case value.EProj1, value.EProj2:
			// no payload to search
		}
	}
	return occ
}

// NewConstancy registers a deferred check that dom is the empty telescope
// iff cod (already applied to the telescope's own bound variable, which
// sits at level d) does not depend on that variable, and attempts to
// resolve it immediately.
func NewConstancy(mcx *meta.MetaContext, d int, dom, cod value.Val) (value.MetaID, error) {
	id := mcx.NewMeta(meta.Constancy{Len: d, Dom: dom, Cod: cod, Blockers: map[value.MetaID]struct{}{}})
	return id, TryConstancy(mcx, id)
}

// TryConstancy attempts to resolve the constancy constraint named by id.
// If the bound variable provably does not occur in Cod, the constraint
// forces Dom to the empty telescope. If it provably does occur, nothing
// needs enforcing and the constraint is simply dropped. If the answer is
// still contingent on unsolved metas, id re-registers itself as a blocker
// on each of them so solving any one re-triggers this check. Every retry
// first clears id's old blocker registrations so a meta that occurred
// flexibly on a previous attempt but not this one doesn't keep a stale
// pointer back to id.
func TryConstancy(mcx *meta.MetaContext, id value.MetaID) error {
	entry, ok := mcx.LookupMeta(id).(meta.Constancy)
	if !ok {
		return nil
	}
	for bm := range entry.Blockers {
		removeBlocker(mcx, bm, id)
	}
	lvl := value.Lvl(entry.Len)
	occ := occurs(mcx, lvl, entry.Cod)
	switch occ.Kind {
	case occNone:
		entry.Blockers = map[value.MetaID]struct{}{}
		mcx.WriteMeta(id, entry)
		return Unify(mcx, entry.Len, entry.Dom, value.VTEmpty{})
	case occRigid:
		entry.Blockers = map[value.MetaID]struct{}{}
		mcx.WriteMeta(id, entry)
		return nil
	default:
		for bm := range occ.Blockers {
			if err := addBlocker(mcx, bm, id); err != nil {
				return err
			}
		}
		entry.Blockers = occ.Blockers
		mcx.WriteMeta(id, entry)
		return nil
	}
}

// removeBlocker undoes addBlocker: it drops constancyID from target's
// Blockers set, if target is still unsolved.
func removeBlocker(mcx *meta.MetaContext, target value.MetaID, constancyID value.MetaID) {
	if e, ok := mcx.LookupMeta(target).(meta.Unsolved); ok {
		delete(e.Blockers, constancyID)
		mcx.WriteMeta(target, e)
	}
}

// addBlocker registers constancyID as a dependent of target so that
// SolveMeta retries constancyID once target solves. If target has
// already solved by the time we get here, retry immediately instead of
// losing the notification.
func addBlocker(mcx *meta.MetaContext, target value.MetaID, constancyID value.MetaID) error {
	switch e := mcx.LookupMeta(target).(type) {
	case meta.Unsolved:
		if e.Blockers == nil {
			e.Blockers = map[value.MetaID]struct{}{}
		}
		e.Blockers[constancyID] = struct{}{}
		mcx.WriteMeta(target, e)
		return nil
	case meta.Solved:
		return TryConstancy(mcx, constancyID)
	default:
		return nil
	}
}
