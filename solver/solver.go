package solver

import (
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

const (
	varRescaleLimit   = 1e100 // Rescaling is needed to avoid overflowing
	claRescaleLimit   = 1e30
	defaultVarDecay   = 0.8   // On each var decay, how much varInc should be decayed at startup
	clauseDecay       = 0.999 // By how much clause bumping decays over time
	initNbMaxLearnts  = 2000  // Conflicts before the first learned-clause reduction
	incrNbMaxLearnts  = 300   // By how much the interval between reductions grows at each reduction
	progressLogPeriod = 5000  // Conflicts between two progress lines
)

// A Solver is one CDCL search engine. Several solvers may run in
// parallel on the same problem, connected through a Shared exchange;
// a lone solver works exactly the same with a nil Shared.
type Solver struct {
	conf   Config
	nbVars int

	db      clauseDB
	watches [][]watch   // for each literal, the clauses watching its negation
	learnts []clauseRef // long learned clauses, candidates for reduction

	assigns     []value
	varData     []varData
	polarity    []bool // saved sign of each var: true means last bound positive
	decisionVar []bool
	trail       []Lit
	trailLim    []int
	qhead       int
	failLit     Lit // on binary/ternary conflict, the falsified watched literal

	activity []float64 // how often each var is involved in conflicts
	varInc   float64
	varDecay float64
	claInc   float32
	order    queue

	// Analysis buffers
	seenVar     []bool
	seenLit     []bool
	lvlStamp    []uint64
	lvlStampCnt uint64
	learntBuf   []Lit

	agility         agility
	glueHist        history
	branchDepthHist history
	conflSizeHist   history

	rand  *rand.Rand
	burst bool // burst search: fully random picks

	implCache *ImplCache
	litReach  *Reachability

	assumptions []Lit
	conflict    []Lit
	model       []bool
	status      Status
	ok          bool

	interrupt atomic.Bool

	// Exchange state; see exchange.go
	shared       *Shared
	worker       int
	lastUnit     int
	lastBin      int
	lastLong     int
	unitToAdd    []Lit
	binToAdd     []sharedBin
	longToAdd    []sharedClause
	lastSumConfl uint64

	nbMaxLearnts int
	nextReduce   uint64

	stats  Stats
	logger *logrus.Entry
}

// searchParams are the limits of one restart-to-restart search episode.
type searchParams struct {
	conflictsToDo uint64
	conflictsDone uint64
	update        bool // false during burst search: do not touch stats & histories
	needToStop    bool
}

// New makes a solver for the given problem. nbVars should be consistent
// with the content of the clauses.
func New(pb *Problem, conf Config) *Solver {
	nbVars := pb.NbVars
	s := &Solver{
		conf:         conf,
		nbVars:       nbVars,
		watches:      make([][]watch, nbVars*2),
		assigns:      make([]value, nbVars),
		varData:      make([]varData, nbVars),
		polarity:     make([]bool, nbVars),
		decisionVar:  make([]bool, nbVars),
		activity:     make([]float64, nbVars),
		varInc:       1.0,
		varDecay:     defaultVarDecay,
		claInc:       1.0,
		seenVar:      make([]bool, nbVars),
		seenLit:      make([]bool, nbVars*2),
		lvlStamp:     make([]uint64, nbVars+1),
		rand:         rand.New(rand.NewSource(conf.OrigSeed)),
		agility:      newAgility(conf),
		failLit:      LitUndef,
		ok:           true,
		status:       Indet,
		nbMaxLearnts: initNbMaxLearnts,
		nextReduce:   initNbMaxLearnts,
	}
	for i := range s.varData {
		s.varData[i].reason = noReason
	}
	if pb.DecisionVars == nil {
		for i := range s.decisionVar {
			s.decisionVar[i] = true
		}
	} else {
		copy(s.decisionVar, pb.DecisionVars)
	}
	logger := logrus.New()
	logger.SetLevel(verbosityToLevel(conf.Verbosity))
	s.logger = logrus.NewEntry(logger)

	s.order = newQueue(s.activity)
	if conf.PolarityMode == PolarityAuto {
		s.calcDefaultPolarities(pb)
	}

	if pb.Status == Unsat {
		s.ok = false
		s.status = Unsat
		return s
	}
	for _, unit := range pb.Units {
		switch s.litValue(unit) {
		case Undef:
			s.enqueue(unit, noReason)
		case False:
			s.ok = false
			s.status = Unsat
			return s
		}
	}
	for _, lits := range pb.Clauses {
		s.attachOriginal(lits)
	}
	if confl := s.propagate(); confl.kind != reasonNone {
		s.ok = false
		s.status = Unsat
		return s
	}
	s.order.filter(func(n int) bool {
		return s.assigns[n] == Undef && s.decisionVar[n]
	})
	return s
}

func verbosityToLevel(verbosity int) logrus.Level {
	switch {
	case verbosity <= 0:
		return logrus.ErrorLevel
	case verbosity == 1:
		return logrus.WarnLevel
	case verbosity == 2:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}

// SetLogger replaces the solver's logger, typically to tag a worker id.
func (s *Solver) SetLogger(entry *logrus.Entry) {
	s.logger = entry
}

// UseCache hands the solver the read-only implication cache and
// reachability table computed by preprocessing.
func (s *Solver) UseCache(cache *ImplCache, reach *Reachability) {
	s.implCache = cache
	s.litReach = reach
}

// attachOriginal attaches one problem clause of size at least 2.
func (s *Solver) attachOriginal(lits []Lit) {
	switch len(lits) {
	case 2:
		s.attachBinary(lits[0], lits[1], false)
	case 3:
		s.attachTernary(lits[0], lits[1], lits[2], false)
	default:
		cr := s.db.alloc(lits, false)
		s.attachLong(cr)
	}
}

// calcDefaultPolarities seeds the saved polarities with a
// Jeroslow-Wang style occurrence count: short clauses weigh more.
func (s *Solver) calcDefaultPolarities(pb *Problem) {
	score := make([]float64, s.nbVars*2)
	for _, lits := range pb.Clauses {
		shift := len(lits)
		if shift > 30 {
			shift = 30
		}
		w := 1.0 / float64(uint(1)<<uint(shift))
		for _, l := range lits {
			score[l] += w
		}
	}
	for v := 0; v < s.nbVars; v++ {
		pos := Var(v).Lit()
		s.polarity[v] = score[pos] >= score[pos.Negation()]
	}
}

func (s *Solver) varDecayActivity() {
	s.varInc *= 1 / s.varDecay
}

func (s *Solver) varBumpActivity(v Var) {
	s.activity[v] += s.varInc
	if s.activity[v] > varRescaleLimit {
		for i := range s.activity {
			s.activity[i] *= 1 / varRescaleLimit
		}
		s.varInc *= 1 / varRescaleLimit
	}
	if s.order.contains(int(v)) {
		s.order.decrease(int(v))
	}
}

func (s *Solver) claDecayActivity() {
	s.claInc *= 1 / clauseDecay
}

func (s *Solver) claBumpActivity(cr clauseRef) {
	h := s.db.header(cr)
	if !h.learned() {
		return
	}
	h.activity += s.claInc
	if h.activity > claRescaleLimit {
		for _, cr2 := range s.learnts {
			s.db.header(cr2).activity *= 1 / claRescaleLimit
		}
		s.claInc *= 1 / claRescaleLimit
	}
}

func (s *Solver) randomVarFreq() float64 {
	if s.burst {
		return 1
	}
	return s.conf.RandomVarFreq
}

// pickSign selects the sign of the next decision on v, according to the
// polarity mode. true means the negative literal.
func (s *Solver) pickSign(v Var) bool {
	if s.burst {
		return s.rand.Intn(2) == 0
	}
	switch s.conf.PolarityMode {
	case PolarityPositive:
		return false
	case PolarityNegative:
		return true
	case PolarityRandom:
		return s.rand.Intn(2) == 0
	default:
		// Phase saving: polarity[v] holds the last bound sign, so this
		// re-picks the same value.
		return !s.polarity[v]
	}
}

// pickBranchLit chooses the next decision literal, or LitUndef if every
// decision variable is assigned (the formula is satisfied).
func (s *Solver) pickBranchLit() Lit {
	next := VarUndef
	var sign bool

	// Random decision, rarely
	if s.rand.Float64() < s.randomVarFreq() && !s.order.empty() {
		v := Var(s.order.get(s.rand.Intn(s.order.len())))
		if s.varValue(v) == Undef && s.decisionVar[v] {
			s.stats.NbRndDecisions++
			next = v
			sign = s.pickSign(v)
		}
	}

	// Activity based decision
	for next == VarUndef || s.varValue(next) != Undef || !s.decisionVar[next] {
		if s.order.empty() {
			return LitUndef
		}
		next = Var(s.order.removeMin())
		if s.varValue(next) != Undef || !s.decisionVar[next] {
			continue
		}
		sign = s.pickSign(next)
		if s.litReach == nil || s.rand.Intn(2) == 0 {
			continue
		}
		// Half of the time, branch on a literal dominating the pick
		dom := s.litReach.Dominator(next.SignedLit(sign))
		if dom != LitUndef && s.varValue(dom.Var()) == Undef && s.decisionVar[dom.Var()] {
			s.insertVarOrder(next) // the reachability table may be stale
			next = dom.Var()
			sign = !dom.IsPositive()
		}
	}
	return next.SignedLit(sign)
}

// newDecision consumes the next assumption or picks a branch literal.
// The boolean result is true when the search is over.
func (s *Solver) newDecision() (Status, bool) {
	next := LitUndef
	for next == LitUndef && s.decisionLevel() < len(s.assumptions) {
		p := s.assumptions[s.decisionLevel()]
		switch s.litValue(p) {
		case True:
			s.newDecisionLevel() // dummy level
		case False:
			s.analyzeFinal(p)
			return Unsat, true
		default:
			next = p
		}
	}
	if next == LitUndef {
		s.stats.NbDecisions++
		next = s.pickBranchLit()
		if next == LitUndef {
			return Sat, true
		}
	}
	s.newDecisionLevel()
	s.enqueue(next, noReason)
	return Indet, false
}

// checkNeedRestart flags the search episode for stopping when agility
// stagnates, the restart budget is exhausted, or an interrupt is set.
func (s *Solver) checkNeedRestart(params *searchParams) {
	if s.interrupt.Load() {
		params.needToStop = true
	}
	if s.agility.getAgility() < s.conf.AgilityLimit {
		s.agility.tooLow(params.conflictsDone)
	}
	if s.agility.getNumTooLow() > s.conf.NumTooLowAgilitiesLimit {
		s.logger.Debug("agility too low, restarting as soon as possible")
		params.needToStop = true
	}
	if params.conflictsDone > params.conflictsToDo {
		params.needToStop = true
	}
}

// handleConflict analyzes the conflict, backjumps, attaches the learned
// clause and publishes it. It returns false on a top-level conflict.
func (s *Solver) handleConflict(confl reason, params *searchParams) bool {
	s.stats.NbConflicts++
	params.conflictsDone++
	if s.shared != nil {
		s.lastSumConfl = s.shared.sumConflicts.Add(1)
	} else {
		s.lastSumConfl = s.stats.NbConflicts
	}
	if s.decisionLevel() == 0 {
		return false
	}
	learnt, btLevel, glue := s.analyze(confl)
	if params.update {
		s.branchDepthHist.push(uint64(s.decisionLevel()))
		s.glueHist.push(uint64(glue))
		s.conflSizeHist.push(uint64(len(learnt)))
	}
	s.cancelUntil(btLevel)

	switch len(learnt) {
	case 1:
		s.stats.NbUnitLearned++
		switch s.litValue(learnt[0]) {
		case Undef:
			s.enqueue(learnt[0], noReason)
		case False:
			return false // top-level contradiction
		}
	case 2:
		s.attachBinary(learnt[0], learnt[1], true)
		s.enqueue(learnt[0], reason{kind: reasonBinary, lit1: learnt[1], lit2: LitUndef, ref: clauseRefUndef})
	case 3:
		s.attachTernary(learnt[0], learnt[1], learnt[2], true)
		s.enqueue(learnt[0], reason{kind: reasonTernary, lit1: learnt[1], lit2: learnt[2], ref: clauseRefUndef})
	default:
		cr := s.db.alloc(learnt, true)
		s.db.header(cr).setGlue(glue)
		s.db.header(cr).activity = s.claInc
		s.learnts = append(s.learnts, cr)
		s.attachLong(cr)
		s.enqueue(learnt[0], reason{kind: reasonLong, lit1: LitUndef, lit2: LitUndef, ref: cr, watchIdx: 0})
	}
	s.stats.NbLearned++
	s.publishLearnt(learnt, glue)

	s.varDecayActivity()
	s.claDecayActivity()
	if s.stats.NbConflicts%5000 == 0 && s.varDecay < 0.95 {
		s.varDecay += 0.01
	}
	return true
}

// search runs propagation and decisions until SAT, UNSAT, a restart is
// triggered, or a clean-up epoch is reached.
func (s *Solver) search(params *searchParams) Status {
	if params.update {
		s.stats.NbRestarts++
		s.glueHist.clearWindow()
		if s.conf.PolarityMode == PolarityRndOnRestart {
			for v := range s.polarity {
				s.polarity[v] = s.rand.Intn(2) == 0
			}
		}
	}
	s.agility.reset()

	for {
		oldTrailSize := len(s.trail)
		confl := s.propagate()
		if s.decisionLevel() == 0 && len(s.trail) > oldTrailSize {
			s.publishUnits(s.trail[oldTrailSize:])
		}
		if confl.kind != reasonNone {
			s.checkNeedRestart(params)
			if !s.handleConflict(confl, params) {
				return Unsat
			}
			if !s.importPending() {
				return Unsat
			}
		} else {
			if params.needToStop || s.reachedCleanLimit() {
				s.cancelUntil(0)
				return Indet
			}
			st, done := s.newDecision()
			if done {
				return st
			}
		}
	}
}

// Solve looks for a total assignment extending the assumptions. It
// returns Sat, Unsat, or Indet when the conflict budget runs out or the
// solver is interrupted. On Unsat under assumptions, FinalConflict
// returns a conflicting subset of them.
func (s *Solver) Solve(assumps []Lit) Status {
	if !s.ok {
		s.status = Unsat
		return Unsat
	}
	if s.qhead != len(s.trail) {
		panic("solve called with a pending propagation queue")
	}
	s.assumptions = append(s.assumptions[:0], assumps...)
	s.conflict = s.conflict[:0]
	s.status = Indet
	s.branchDepthHist = newHistory(500)
	s.glueHist = newHistory(s.conf.ShortTermGlueHistorySize)
	s.conflSizeHist = newHistory(1000)

	maxConfls := s.conf.MaxConflicts
	if maxConfls == 0 {
		maxConfls = math.MaxUint64
	}

	s.drainShared()
	if !s.importPending() {
		return s.finishSolve(Unsat)
	}

	status := Indet
	if s.conf.DoBurstSearch {
		s.burst = true
		params := searchParams{conflictsToDo: s.conf.BurstSearchLen}
		status = s.search(&params)
		s.burst = false
		if status == Indet {
			s.rebuildOrderHeap()
		}
	}

	lastProgress := s.stats.NbConflicts
	var restartNb uint
	for status == Indet && !s.interrupt.Load() && s.stats.NbConflicts < maxConfls {
		restartNb++
		params := searchParams{
			conflictsToDo: uint64(luby(restartNb)) * uint64(s.conf.RestartFirst),
			update:        true,
		}
		status = s.search(&params)
		if status != Indet {
			break
		}
		s.rebuildOrderHeap()
		if s.reachedCleanLimit() {
			if !s.cleanupEpoch() {
				status = Unsat
				break
			}
		} else if s.shared == nil && s.stats.NbConflicts >= s.nextReduce {
			s.reduceLearned()
			s.nbMaxLearnts += incrNbMaxLearnts
			s.nextReduce = s.stats.NbConflicts + uint64(s.nbMaxLearnts)
		}
		if s.stats.NbConflicts >= lastProgress+progressLogPeriod {
			lastProgress = s.stats.NbConflicts
			s.logger.WithFields(logrus.Fields{
				"restarts":  s.stats.NbRestarts,
				"conflicts": s.stats.NbConflicts,
				"learnts":   len(s.learnts),
				"freeVars":  s.order.len(),
			}).Info("search progress")
		}
	}
	return s.finishSolve(status)
}

func (s *Solver) finishSolve(status Status) Status {
	if status == Sat {
		if s.model == nil {
			s.model = make([]bool, s.nbVars)
		}
		for v := range s.assigns {
			s.model[v] = s.assigns[v] == True
		}
	} else if status == Unsat && len(s.conflict) == 0 {
		s.ok = false
	}
	s.cancelUntil(0)
	s.status = status
	return status
}

func (s *Solver) rebuildOrderHeap() {
	s.order.filter(func(n int) bool {
		return s.assigns[n] == Undef && s.decisionVar[n]
	})
}

// Interrupt asks the solver to stop as soon as possible. The solver
// finishes its current propagation cycle and returns Indet.
func (s *Solver) Interrupt() {
	s.interrupt.Store(true)
}

// Status returns the result of the last Solve call.
func (s *Solver) Status() Status {
	return s.status
}

// Model returns the binding of each variable. It panics if the last
// solve call did not return Sat.
func (s *Solver) Model() []bool {
	if s.model == nil {
		panic("cannot call Model() on a non-Sat solver")
	}
	res := make([]bool, len(s.model))
	copy(res, s.model)
	return res
}

// FinalConflict returns the subset of the assumptions responsible for
// the Unsat answer of the last Solve call. It is empty when the
// formula is unsatisfiable regardless of the assumptions.
func (s *Solver) FinalConflict() []Lit {
	res := make([]Lit, len(s.conflict))
	copy(res, s.conflict)
	return res
}

// Stats returns the solver's statistics.
func (s *Solver) Stats() Stats {
	return s.stats
}
