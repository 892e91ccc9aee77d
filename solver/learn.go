package solver

// Conflict analysis: first-UIP resolution over the tagged reasons,
// followed by cache/watchlist based minimisation.

// analyze resolves the conflict into a learned clause whose asserting
// literal sits at position 0 and whose second literal carries the
// backjump level. It also computes the clause's glue.
// Must be called at decision level > 0.
func (s *Solver) analyze(confl reason) (learnt []Lit, btLevel, glue int) {
	learnt = append(s.learntBuf[:0], LitUndef) // Make room for the asserting literal
	pathC := 0
	p := LitUndef
	index := len(s.trail) - 1
	curLvl := int32(s.decisionLevel())

	handle := func(q Lit) {
		v := q.Var()
		if s.seenVar[v] || s.level(v) == 0 {
			return
		}
		s.varBumpActivity(v)
		s.seenVar[v] = true
		if s.level(v) == curLvl {
			pathC++
		} else {
			learnt = append(learnt, q)
		}
	}

	for {
		switch confl.kind {
		case reasonTernary:
			handle(confl.lit2)
			if p == LitUndef {
				handle(s.failLit)
			}
			handle(confl.lit1)
		case reasonBinary:
			if p == LitUndef {
				handle(s.failLit)
			}
			handle(confl.lit1)
		case reasonLong:
			s.claBumpActivity(confl.ref)
			for i, q := range s.db.slice(confl.ref) {
				if p != LitUndef && int32(i) == confl.watchIdx {
					continue // the pivot itself
				}
				handle(q)
			}
		default:
			panic("conflict analysis reached a decision")
		}

		// Walk the trail down to the next marked literal: the new pivot.
		for !s.seenVar[s.trail[index].Var()] {
			index--
		}
		p = s.trail[index]
		index--
		confl = s.varData[p.Var()].reason
		s.seenVar[p.Var()] = false
		pathC--
		if pathC <= 0 {
			break
		}
	}
	learnt[0] = p.Negation()
	s.stats.MaxLiterals += uint64(len(learnt))

	for _, l := range learnt[1:] {
		s.seenVar[l.Var()] = false
	}

	s.learntBuf = learnt[:0] // keep the grown buffer for the next conflict

	glue = s.calcNbLevels(learnt)
	if len(learnt) > 1 && s.conf.DoCache && s.conf.DoMinimLearntMore &&
		(s.conf.DoAlwaysFMinim ||
			float64(glue) < 0.65*s.glueHist.avgAll() ||
			float64(len(learnt)) < 0.65*s.conflSizeHist.avgAll()) {
		learnt = s.minimiseLearntFurther(learnt)
		glue = s.calcNbLevels(learnt)
	}
	s.stats.TotLiterals += uint64(len(learnt))

	if len(learnt) <= 1 {
		return learnt, 0, glue
	}
	maxI := 1
	for i := 2; i < len(learnt); i++ {
		if s.level(learnt[i].Var()) > s.level(learnt[maxI].Var()) {
			maxI = i
		}
	}
	learnt[1], learnt[maxI] = learnt[maxI], learnt[1]
	return learnt, int(s.level(learnt[1].Var())), glue
}

// calcNbLevels counts the distinct decision levels among lits.
func (s *Solver) calcNbLevels(lits []Lit) int {
	s.lvlStampCnt++
	stamp := s.lvlStampCnt
	nb := 0
	for _, l := range lits {
		lvl := s.level(l.Var())
		if s.lvlStamp[lvl] != stamp {
			s.lvlStamp[lvl] = stamp
			nb++
		}
	}
	if nb > maxGlue {
		return maxGlue
	}
	return nb
}

// minimiseLearntFurther performs self-subsuming resolution on the
// learned clause, using the implication cache and the binary/ternary
// watch entries already attached. Position 0 is never removed.
func (s *Solver) minimiseLearntFurther(cl []Lit) []Lit {
	s.stats.NbMinimTried++

	for _, l := range cl {
		s.seenLit[l] = true
	}
	for _, l := range cl {
		if !s.seenLit[l] {
			continue
		}
		// Cache-based minimisation: if ¬l entails q, then ¬q entails l
		// and ¬q is redundant in a clause containing l.
		if s.implCache != nil {
			for _, q := range s.implCache.Entails(l.Negation()) {
				s.seenLit[q.Negation()] = false
			}
		}
		// Watchlist-based minimisation: watches[¬l] holds the clauses
		// containing l.
		for _, w := range s.watches[l.Negation()] {
			switch w.kind {
			case watchBinary:
				s.seenLit[w.blocker.Negation()] = false
			case watchTernary:
				if s.seenLit[w.other] {
					s.seenLit[w.blocker.Negation()] = false
				}
				if s.seenLit[w.blocker] {
					s.seenLit[w.other.Negation()] = false
				}
			}
		}
	}

	s.seenLit[cl[0]] = true // the asserting literal stays
	j := 0
	for _, l := range cl {
		if s.seenLit[l] {
			cl[j] = l
			j++
		}
		s.seenLit[l] = false
	}
	return cl[:j]
}

// analyzeFinal expresses the falsification of the assumption p as a
// subset of the assumptions. The result, stored in s.conflict, contains
// p and every assumption reached by closing over the reasons of p.
func (s *Solver) analyzeFinal(p Lit) {
	s.conflict = s.conflict[:0]
	s.conflict = append(s.conflict, p)
	if s.decisionLevel() == 0 {
		return
	}
	s.seenVar[p.Var()] = true
	for i := len(s.trail) - 1; i >= s.trailLim[0]; i-- {
		x := s.trail[i].Var()
		if !s.seenVar[x] {
			continue
		}
		r := s.varData[x].reason
		switch r.kind {
		case reasonNone:
			// A decision inside the assumption prefix is an assumption.
			s.conflict = append(s.conflict, s.trail[i])
		case reasonBinary:
			s.markSeen(r.lit1)
		case reasonTernary:
			s.markSeen(r.lit1)
			s.markSeen(r.lit2)
		case reasonLong:
			for j, q := range s.db.slice(r.ref) {
				if int32(j) == r.watchIdx {
					continue
				}
				s.markSeen(q)
			}
		}
		s.seenVar[x] = false
	}
	s.seenVar[p.Var()] = false
}

func (s *Solver) markSeen(l Lit) {
	if s.level(l.Var()) > 0 {
		s.seenVar[l.Var()] = true
	}
}
