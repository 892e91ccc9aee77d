package solver

import "sort"

// Watch lists and the two-watched-literal propagator. Binary and
// ternary clauses are represented natively by their watch entries and
// never touch the arena; long clauses are watched on their first two
// positions and carry a blocker literal for the cheap satisfied check.

type watchKind byte

const (
	watchBinary = watchKind(iota)
	watchTernary
	watchLong
)

// A watch is an entry of a literal's watch list. The entry sits in
// watches[p] when the clause contains ¬p.
type watch struct {
	kind watchKind
	// blocker is, for long clauses, a likely-true literal short-circuiting
	// inspection; for binary clauses the other literal; for ternary
	// clauses the first of the two other literals.
	blocker Lit
	other   Lit // ternary: the second of the two other literals
	ref     clauseRef
	learnt  bool // binary only; long clauses carry the flag in their header
}

func (s *Solver) attachBinary(a, b Lit, learnt bool) {
	negA := a.Negation()
	negB := b.Negation()
	s.watches[negA] = append(s.watches[negA], watch{kind: watchBinary, blocker: b, ref: clauseRefUndef, learnt: learnt})
	s.watches[negB] = append(s.watches[negB], watch{kind: watchBinary, blocker: a, ref: clauseRefUndef, learnt: learnt})
	if learnt {
		s.stats.NbBinaryLearned++
	}
}

func (s *Solver) attachTernary(a, b, c Lit, learnt bool) {
	negA := a.Negation()
	negB := b.Negation()
	negC := c.Negation()
	s.watches[negA] = append(s.watches[negA], watch{kind: watchTernary, blocker: b, other: c, ref: clauseRefUndef})
	s.watches[negB] = append(s.watches[negB], watch{kind: watchTernary, blocker: a, other: c, ref: clauseRefUndef})
	s.watches[negC] = append(s.watches[negC], watch{kind: watchTernary, blocker: a, other: b, ref: clauseRefUndef})
	if learnt {
		s.stats.NbTernaryLearned++
	}
}

// attachLong watches the first two positions of the clause.
func (s *Solver) attachLong(cr clauseRef) {
	cl := s.db.slice(cr)
	neg0 := cl[0].Negation()
	neg1 := cl[1].Negation()
	s.watches[neg0] = append(s.watches[neg0], watch{kind: watchLong, blocker: cl[1], ref: cr})
	s.watches[neg1] = append(s.watches[neg1], watch{kind: watchLong, blocker: cl[0], ref: cr})
}

// detachLong removes the two watch entries of the clause.
func (s *Solver) detachLong(cr clauseRef) {
	cl := s.db.slice(cr)
	s.removeWatch(cl[0].Negation(), cr)
	s.removeWatch(cl[1].Negation(), cr)
}

func (s *Solver) removeWatch(p Lit, cr clauseRef) {
	ws := s.watches[p]
	for i := range ws {
		if ws[i].kind == watchLong && ws[i].ref == cr {
			copy(ws[i:], ws[i+1:])
			s.watches[p] = ws[:len(ws)-1]
			return
		}
	}
	panic("detaching a clause that is not watched")
}

// propagate drains the propagation queue, assigning every implied
// literal, until the queue is empty or a conflict is found. It returns
// the conflicting reason, or a reason of kind reasonNone.
// For binary and ternary conflicts, s.failLit holds the falsified
// watched literal completing the conflict clause.
func (s *Solver) propagate() reason {
	for s.qhead < len(s.trail) {
		p := s.trail[s.qhead] // p is now true; entries in watches[p] watch ¬p
		s.qhead++
		s.stats.NbPropagations++
		ws := s.watches[p]
		j := 0
		for i := 0; i < len(ws); i++ {
			w := ws[i]
			switch w.kind {
			case watchBinary:
				switch s.litValue(w.blocker) {
				case True:
					ws[j] = w
					j++
				case Undef:
					s.enqueue(w.blocker, reason{kind: reasonBinary, lit1: p.Negation(), lit2: LitUndef, ref: clauseRefUndef})
					ws[j] = w
					j++
				case False:
					s.failLit = p.Negation()
					return s.abortPropagation(p, ws, i, j, reason{kind: reasonBinary, lit1: w.blocker, lit2: LitUndef, ref: clauseRefUndef})
				}
			case watchTernary:
				v1 := s.litValue(w.blocker)
				v2 := s.litValue(w.other)
				switch {
				case v1 == True || v2 == True:
				case v1 == False && v2 == False:
					s.failLit = p.Negation()
					return s.abortPropagation(p, ws, i, j, reason{kind: reasonTernary, lit1: w.blocker, lit2: w.other, ref: clauseRefUndef})
				case v1 == Undef && v2 == False:
					s.enqueue(w.blocker, reason{kind: reasonTernary, lit1: p.Negation(), lit2: w.other, ref: clauseRefUndef})
				case v2 == Undef && v1 == False:
					s.enqueue(w.other, reason{kind: reasonTernary, lit1: p.Negation(), lit2: w.blocker, ref: clauseRefUndef})
				}
				ws[j] = w
				j++
			case watchLong:
				if s.litValue(w.blocker) == True {
					ws[j] = w
					j++
					continue
				}
				cl := s.db.slice(w.ref)
				falseLit := p.Negation()
				if cl[0] == falseLit {
					cl[0], cl[1] = cl[1], cl[0]
				}
				first := cl[0]
				if first != w.blocker && s.litValue(first) == True {
					w.blocker = first
					ws[j] = w
					j++
					continue
				}
				if moved := s.findNewWatch(w.ref, first); moved {
					continue // entry moved to another list
				}
				ws[j] = w
				j++
				if s.litValue(first) == Undef {
					s.enqueue(first, reason{kind: reasonLong, lit1: LitUndef, lit2: LitUndef, ref: w.ref, watchIdx: 0})
				} else {
					return s.abortPropagation(p, ws, i+1, j, reason{kind: reasonLong, lit1: LitUndef, lit2: LitUndef, ref: w.ref})
				}
			}
		}
		s.watches[p] = ws[:j]
	}
	return noReason
}

// findNewWatch scans positions 2.. of the clause for a non-false
// literal to watch instead of the falsified position 1. Literals that
// are false at level 0 are swapped out for good (watch-shrink).
func (s *Solver) findNewWatch(cr clauseRef, blocker Lit) bool {
	cl := s.db.slice(cr)
	shrinked := 0
	for k := 2; k < len(cl); k++ {
		if s.litValue(cl[k]) == False {
			if s.level(cl[k].Var()) == 0 && len(cl) > 3 {
				cl[k] = cl[len(cl)-1]
				s.db.shrinkOne(cr)
				cl = s.db.slice(cr)
				shrinked++
				k--
			}
			continue
		}
		cl[1], cl[k] = cl[k], cl[1]
		neg := cl[1].Negation()
		s.watches[neg] = append(s.watches[neg], watch{kind: watchLong, blocker: blocker, ref: cr})
		if shrinked > 0 {
			s.stats.NbShrinkedClauses++
			s.stats.NbShrinkedLits += uint64(shrinked)
		}
		return true
	}
	if shrinked > 0 {
		s.stats.NbShrinkedClauses++
		s.stats.NbShrinkedLits += uint64(shrinked)
	}
	return false
}

// abortPropagation keeps the not-yet-inspected watches of p and empties
// the queue so that the conflict is reported at once.
func (s *Solver) abortPropagation(p Lit, ws []watch, i, j int, confl reason) reason {
	for ; i < len(ws); i++ {
		ws[j] = ws[i]
		j++
	}
	s.watches[p] = ws[:j]
	s.qhead = len(s.trail)
	return confl
}

// locked reports whether the clause is the reason of its first literal.
func (s *Solver) locked(cr clauseRef) bool {
	first := s.db.slice(cr)[0]
	if s.litValue(first) != True {
		return false
	}
	r := s.varData[first.Var()].reason
	return r.kind == reasonLong && r.ref == cr
}

// reduceLearned deletes roughly half of the long learned clauses,
// keeping the ones with small glue, high activity, or currently used
// as a reason.
func (s *Solver) reduceLearned() {
	db := &s.db
	sort.Slice(s.learnts, func(i, j int) bool {
		hi := db.header(s.learnts[i])
		hj := db.header(s.learnts[j])
		if hi.glue() != hj.glue() {
			return hi.glue() > hj.glue() // Worst clauses first
		}
		if hi.activity != hj.activity {
			return hi.activity < hj.activity
		}
		return s.learnts[i] < s.learnts[j]
	})
	limit := len(s.learnts) / 2
	kept := s.learnts[:0]
	for i, cr := range s.learnts {
		h := db.header(cr)
		if i < limit && h.glue() > 2 && !s.locked(cr) {
			s.detachLong(cr)
			db.free(cr)
			s.stats.NbDeleted++
		} else {
			kept = append(kept, cr)
		}
	}
	s.learnts = kept
}
