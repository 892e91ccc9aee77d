package solver

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Inter-worker clause exchange. The coordinator owns three append-only
// logs, one per learned clause shape; every worker keeps cursors into
// them and drains at safe points: right after deriving units at level 0
// and at each conflict-handling cycle. Logs are truncated only at the
// clean-up epoch, when every worker is quiesced at the barrier.

type sharedBin struct {
	a, b Lit
}

type sharedClause struct {
	lits []Lit
	glue int
}

// Shared is the exchange hub connecting the workers of one parallel
// solve: the learned-clause logs, the global conflict counter and the
// clean-up barrier.
type Shared struct {
	mu    sync.Mutex
	units []Lit
	bins  []sharedBin
	longs []sharedClause

	sumConflicts   atomic.Uint64
	nextCleanLimit atomic.Uint64
	cleanIncr      uint64

	unsat atomic.Bool

	barrier *barrier
}

// NewShared makes the exchange hub for nbWorkers workers.
func NewShared(nbWorkers int) *Shared {
	sh := &Shared{
		cleanIncr: 20000,
		barrier:   newBarrier(nbWorkers),
	}
	sh.nextCleanLimit.Store(sh.cleanIncr)
	return sh
}

// Leave permanently removes one worker from the clean-up barrier.
// Must be called exactly once per worker, after its Solve returns.
func (sh *Shared) Leave() {
	sh.barrier.leave()
}

// Unsat reports whether some worker derived a top-level contradiction.
func (sh *Shared) Unsat() bool {
	return sh.unsat.Load()
}

func (sh *Shared) truncateLogs() {
	sh.mu.Lock()
	sh.units = sh.units[:0]
	sh.bins = sh.bins[:0]
	sh.longs = sh.longs[:0]
	sh.mu.Unlock()
	sh.nextCleanLimit.Store(sh.sumConflicts.Load() + sh.cleanIncr)
}

// drainLocked copies the not-yet-seen log entries into the solver's
// inbox buffers. The caller holds sh.mu.
func (s *Solver) drainLocked() {
	sh := s.shared
	s.unitToAdd = append(s.unitToAdd, sh.units[s.lastUnit:]...)
	s.lastUnit = len(sh.units)
	s.binToAdd = append(s.binToAdd, sh.bins[s.lastBin:]...)
	s.lastBin = len(sh.bins)
	s.longToAdd = append(s.longToAdd, sh.longs[s.lastLong:]...)
	s.lastLong = len(sh.longs)
}

func (s *Solver) drainShared() {
	if s.shared == nil {
		return
	}
	s.shared.mu.Lock()
	s.drainLocked()
	s.shared.mu.Unlock()
}

// publishUnits appends freshly derived level-0 facts to the unit log.
func (s *Solver) publishUnits(units []Lit) {
	if s.shared == nil {
		return
	}
	sh := s.shared
	sh.mu.Lock()
	s.drainLocked()
	sh.units = append(sh.units, units...)
	s.lastUnit = len(sh.units)
	sh.mu.Unlock()
}

// publishLearnt shares a learned clause with the peers.
func (s *Solver) publishLearnt(lits []Lit, glue int) {
	if s.shared == nil {
		return
	}
	sh := s.shared
	sh.mu.Lock()
	s.drainLocked()
	switch len(lits) {
	case 1:
		sh.units = append(sh.units, lits[0])
		s.lastUnit = len(sh.units)
	case 2:
		sh.bins = append(sh.bins, sharedBin{a: lits[0], b: lits[1]})
		s.lastBin = len(sh.bins)
	default:
		cp := make([]Lit, len(lits))
		copy(cp, lits)
		sh.longs = append(sh.longs, sharedClause{lits: cp, glue: glue})
		s.lastLong = len(sh.longs)
	}
	sh.mu.Unlock()
}

func (s *Solver) reachedCleanLimit() bool {
	return s.shared != nil && s.lastSumConfl > s.shared.nextCleanLimit.Load()
}

// importPending integrates the inbox buffers into the current search
// state, whatever it is. It returns false on a top-level contradiction,
// which makes the whole problem Unsat.
func (s *Solver) importPending() bool {
	if s.shared == nil {
		return true
	}
	s.drainShared()
	for _, u := range s.unitToAdd {
		if !s.importUnit(u) {
			return s.importFailed()
		}
	}
	s.unitToAdd = s.unitToAdd[:0]
	for _, b := range s.binToAdd {
		if !s.importBin(b) {
			return s.importFailed()
		}
	}
	s.binToAdd = s.binToAdd[:0]
	for _, c := range s.longToAdd {
		if !s.importLong(c) {
			return s.importFailed()
		}
	}
	s.longToAdd = s.longToAdd[:0]
	return true
}

func (s *Solver) importFailed() bool {
	s.shared.unsat.Store(true)
	s.cancelUntil(0)
	return false
}

// importUnit integrates a peer's unit fact.
func (s *Solver) importUnit(u Lit) bool {
	if s.litValue(u) == True && s.level(u.Var()) == 0 {
		return true // already known
	}
	s.cancelUntil(0)
	s.stats.NbImported++
	switch s.litValue(u) {
	case Undef:
		s.enqueue(u, noReason)
	case False:
		return false
	}
	return true
}

// importBin attaches a peer's binary clause and re-establishes the
// watcher invariant, backjumping when both literals are false.
func (s *Solver) importBin(b sharedBin) bool {
	s.attachBinary(b.a, b.b, true)
	s.stats.NbImported++
	lits := [2]Lit{b.a, b.b}
	if s.litValue(lits[0]) == True || s.litValue(lits[1]) == True {
		return true
	}
	if s.litValue(lits[1]) == Undef {
		lits[0], lits[1] = lits[1], lits[0]
	}
	if s.litValue(lits[1]) == Undef { // both are unassigned
		return true
	}
	if s.litValue(lits[0]) == Undef { // one unassigned, the other false
		s.enqueue(lits[0], reason{kind: reasonBinary, lit1: lits[1], lit2: LitUndef, ref: clauseRefUndef})
		return true
	}
	// Both false: unassign the one bound last
	if s.level(lits[0].Var()) < s.level(lits[1].Var()) {
		lits[0], lits[1] = lits[1], lits[0]
	}
	if s.level(lits[0].Var()) == 0 {
		s.cancelUntil(0)
		return false
	}
	s.cancelUntil(int(s.level(lits[0].Var())) - 1)
	if s.litValue(lits[1]) == False {
		s.enqueue(lits[0], reason{kind: reasonBinary, lit1: lits[1], lit2: LitUndef, ref: clauseRefUndef})
	}
	// Otherwise both literals were bound at the same level and are now
	// unassigned, which is fine.
	return true
}

// importLong attaches a peer's clause of size 3 or more. Literal
// positions are ordered True first, then Undef, then False, ties broken
// by the higher level, so that the two watched positions are the best
// available.
func (s *Solver) importLong(c sharedClause) bool {
	lits := make([]Lit, len(c.lits))
	copy(lits, c.lits)
	sort.SliceStable(lits, func(i, j int) bool {
		vi := s.litValue(lits[i])
		vj := s.litValue(lits[j])
		if vi != vj {
			if vi == True {
				return true
			}
			if vj == True {
				return false
			}
			return vi == Undef
		}
		return s.level(lits[i].Var()) > s.level(lits[j].Var())
	})

	ternary := len(lits) == 3
	var cr clauseRef
	if ternary {
		s.attachTernary(lits[0], lits[1], lits[2], true)
	} else {
		cr = s.db.alloc(lits, true)
		s.db.header(cr).setGlue(c.glue)
		s.db.header(cr).activity = s.claInc
		s.learnts = append(s.learnts, cr)
		s.attachLong(cr)
	}
	s.stats.NbImported++

	enqueueFirst := func() {
		if ternary {
			s.enqueue(lits[0], reason{kind: reasonTernary, lit1: lits[1], lit2: lits[2], ref: clauseRefUndef})
		} else {
			s.enqueue(lits[0], reason{kind: reasonLong, lit1: LitUndef, lit2: LitUndef, ref: cr, watchIdx: 0})
		}
	}

	v0 := s.litValue(lits[0])
	if v0 == True || (v0 == Undef && s.litValue(lits[1]) == Undef) {
		return true
	}
	if v0 == Undef { // every other literal is false
		enqueueFirst()
		return true
	}
	// The whole clause is false
	lastLevel := int(s.level(lits[0].Var()))
	if lastLevel == 0 {
		s.cancelUntil(0)
		return false
	}
	s.cancelUntil(lastLevel - 1)
	if s.litValue(lits[1]) == False {
		enqueueFirst()
	}
	return true
}

// cleanupEpoch is the three-phase clean-up barrier: sync-inbox,
// detach-scheduled, release. Every worker drains the logs, the last
// one truncates them, then everybody resets its cursors, integrates its
// inbox and reduces its own learned database.
func (s *Solver) cleanupEpoch() bool {
	sh := s.shared
	s.logger.WithFields(logrus.Fields{
		"worker":       s.worker,
		"sumConflicts": sh.sumConflicts.Load(),
	}).Debug("clean-up epoch")

	sh.barrier.await() // sync-inbox: all workers are quiesced
	s.drainShared()
	if leader := sh.barrier.await(); leader { // detach-scheduled
		sh.truncateLogs()
	}
	sh.barrier.await() // release
	s.lastUnit, s.lastBin, s.lastLong = 0, 0, 0

	if !s.importPending() {
		return false
	}
	s.reduceLearned()
	return true
}
