package value

// EnvSlot is one entry of the evaluation environment: either a value the
// binder has been instantiated with, or a gap left by a bound variable
// that has no value yet. Skipped slots still occupy a position — they
// count towards level numbering — and a Var that lands on one evaluates to
// the neutral variable at that slot's level.
type EnvSlot struct {
	Defined bool
	Val     Val
}

// Env is the snoc list of EnvSlot threaded through eval: Env[len-1] is the
// most recently bound variable (index 0 under de Bruijn indexing), Env[0]
// the outermost.
type Env []EnvSlot

// Extend returns a new environment with v bound as the newest variable.
// The three-index slice expression prevents the returned slice from
// aliasing storage that a sibling Extend call might also grow into.
func (e Env) Extend(v Val) Env {
	return append(e[:len(e):len(e)], EnvSlot{Defined: true, Val: v})
}

// ExtendSkip is Extend for a binder with no value yet available.
func (e Env) ExtendSkip() Env {
	return append(e[:len(e):len(e)], EnvSlot{Defined: false})
}

// Len reports the number of slots, i.e. the de Bruijn level one past the
// last bound variable.
func (e Env) Len() int { return len(e) }

// Lookup fetches the value bound at index idx (0 = most recently bound).
// A Skipped slot yields VVar of its own level, len(e)-1-idx.
func (e Env) Lookup(idx int) Val {
	slot := e[len(e)-1-idx]
	if !slot.Defined {
		return VVar(Lvl(len(e) - 1 - idx))
	}
	return slot.Val
}
