package solver

// Trail and reason bookkeeping: every assignment is pushed on the
// trail together with the clause (if any) that implied it, so that
// conflict analysis can resolve backwards and cancelUntil can undo
// whole decision levels at once.

type reasonKind byte

const (
	// reasonNone marks a decision or an assumption.
	reasonNone = reasonKind(iota)
	// reasonBinary is a binary clause; the other literal is stored inline.
	reasonBinary
	// reasonTernary is a ternary clause; both other literals are stored inline.
	reasonTernary
	// reasonLong is a clause from the arena, with the position of the
	// propagated literal inside it.
	reasonLong
)

// A reason describes why a literal was enqueued.
type reason struct {
	kind     reasonKind
	lit1     Lit // binary/ternary: another literal of the clause
	lit2     Lit // ternary: the remaining literal of the clause
	ref      clauseRef
	watchIdx int32 // position of the propagated literal in the long clause
}

var noReason = reason{kind: reasonNone, lit1: LitUndef, lit2: LitUndef, ref: clauseRefUndef}

// varData holds the level and reason of an assigned variable.
type varData struct {
	reason reason
	level  int32
}

func (s *Solver) varValue(v Var) value {
	return s.assigns[v]
}

func (s *Solver) litValue(l Lit) value {
	assign := s.assigns[l.Var()]
	if assign == Undef {
		return Undef
	}
	if (assign == True) == l.IsPositive() {
		return True
	}
	return False
}

func (s *Solver) level(v Var) int32 {
	return s.varData[v].level
}

func (s *Solver) decisionLevel() int {
	return len(s.trailLim)
}

// newDecisionLevel opens a new level; subsequent assignments belong to it.
func (s *Solver) newDecisionLevel() {
	s.trailLim = append(s.trailLim, len(s.trail))
}

// enqueue makes l true at the current decision level and records why.
func (s *Solver) enqueue(l Lit, from reason) {
	v := l.Var()
	if s.assigns[v] != Undef {
		panic("enqueueing an already assigned literal")
	}
	s.assigns[v] = lift(l.IsPositive())
	s.varData[v] = varData{reason: from, level: int32(s.decisionLevel())}
	s.agility.update(s.polarity[v] != l.IsPositive())
	s.trail = append(s.trail, l)
}

// cancelUntil undoes all assignments made at levels strictly above lvl.
// Every undone variable saves the sign it just had (phase saving) and is
// reinserted into the order heap.
func (s *Solver) cancelUntil(lvl int) {
	if s.decisionLevel() <= lvl {
		return
	}
	for i := len(s.trail) - 1; i >= s.trailLim[lvl]; i-- {
		l := s.trail[i]
		v := l.Var()
		s.assigns[v] = Undef
		s.varData[v].reason = noReason
		s.polarity[v] = l.IsPositive()
		s.insertVarOrder(v)
	}
	s.qhead = s.trailLim[lvl]
	s.trail = s.trail[:s.trailLim[lvl]]
	s.trailLim = s.trailLim[:lvl]
}

// insertVarOrder puts v back in the order heap if it is a decision variable.
func (s *Solver) insertVarOrder(v Var) {
	if !s.order.contains(int(v)) && s.decisionVar[v] {
		s.order.insert(int(v))
	}
}
