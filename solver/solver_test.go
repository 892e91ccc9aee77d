package solver

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// verifyModel checks that the model satisfies every clause of the problem.
func verifyModel(t *testing.T, pb *Problem, model []bool) {
	t.Helper()
	require.Len(t, model, pb.NbVars)
	satisfied := func(l Lit) bool {
		return model[l.Var()] == l.IsPositive()
	}
	for _, unit := range pb.Units {
		require.True(t, satisfied(unit), "unit %d is falsified", unit.Int())
	}
	for _, clause := range pb.Clauses {
		sat := false
		for _, l := range clause {
			if satisfied(l) {
				sat = true
				break
			}
		}
		require.True(t, sat, "clause %v is falsified", clause)
	}
}

func TestEmptyFormula(t *testing.T) {
	s := New(&Problem{}, DefaultConfig())
	require.Equal(t, Sat, s.Solve(nil))
	require.Empty(t, s.Model())
}

func TestSingleUnit(t *testing.T) {
	pb := ParseSlice([][]int{{1}})
	s := New(pb, DefaultConfig())
	require.Equal(t, Sat, s.Solve(nil))
	require.Equal(t, []bool{true}, s.Model())
}

func TestContradictoryUnits(t *testing.T) {
	pb := ParseSlice([][]int{{1}, {-1}})
	s := New(pb, DefaultConfig())
	require.Equal(t, Unsat, s.Solve(nil))
}

func TestUnitLearningChain(t *testing.T) {
	// Forces learning unit -1, then a top-level conflict.
	pb := ParseSlice([][]int{{1, 2}, {1, -2}, {-1, 3}, {-1, -3}})
	s := New(pb, DefaultConfig())
	require.Equal(t, Unsat, s.Solve(nil))
}

func TestSimpleSat(t *testing.T) {
	cnf := [][]int{{1}, {-2, 3}, {-2, 4}, {-5, 3}, {-5, 6}, {-7, 3}, {-7, 8}, {-9, 10}, {-9, 4}, {-1, 10}, {-1, 6}, {3, 10}, {-3, -10}, {4, 6, 8}}
	pb := ParseSlice(cnf)
	s := New(pb, DefaultConfig())
	require.Equal(t, Sat, s.Solve(nil))
	verifyModel(t, pb, s.Model())
}

func TestAssumptionConflict(t *testing.T) {
	// All four clauses force a; assuming -a must fail with conflict {-a}.
	pb := ParseSlice([][]int{{1, 2, 3}, {1, 2, -3}, {1, -2, 3}, {1, -2, -3}})
	s := New(pb, DefaultConfig())
	notA := IntToLit(-1)
	require.Equal(t, Unsat, s.Solve([]Lit{notA}))
	require.Equal(t, []Lit{notA}, s.FinalConflict())

	// The formula itself is satisfiable.
	s2 := New(ParseSlice([][]int{{1, 2, 3}, {1, 2, -3}, {1, -2, 3}, {1, -2, -3}}), DefaultConfig())
	require.Equal(t, Sat, s2.Solve(nil))
}

func TestAssumptionsAreHonored(t *testing.T) {
	pb := ParseSlice([][]int{{1, 2}, {3, 4}})
	assumps := []Lit{IntToLit(-1), IntToLit(-3)}
	s := New(pb, DefaultConfig())
	require.Equal(t, Sat, s.Solve(assumps))
	model := s.Model()
	require.False(t, model[0])
	require.True(t, model[1])
	require.False(t, model[2])
	require.True(t, model[3])
}

// pigeonhole builds the classic formula placing nbPigeons into nbHoles.
func pigeonhole(nbPigeons, nbHoles int) *Problem {
	hole := func(p, h int) int { return p*nbHoles + h + 1 }
	var cnf [][]int
	for p := 0; p < nbPigeons; p++ {
		clause := make([]int, nbHoles)
		for h := 0; h < nbHoles; h++ {
			clause[h] = hole(p, h)
		}
		cnf = append(cnf, clause)
	}
	for h := 0; h < nbHoles; h++ {
		for p1 := 0; p1 < nbPigeons; p1++ {
			for p2 := p1 + 1; p2 < nbPigeons; p2++ {
				cnf = append(cnf, []int{-hole(p1, h), -hole(p2, h)})
			}
		}
	}
	return ParseSlice(cnf)
}

func TestPigeonhole(t *testing.T) {
	for _, nb := range []int{2, 3, 4} {
		pb := pigeonhole(nb+1, nb)
		s := New(pb, DefaultConfig())
		require.Equal(t, Unsat, s.Solve(nil), "pigeonhole %d in %d", nb+1, nb)
	}
}

func TestPigeonholeFits(t *testing.T) {
	pb := pigeonhole(3, 3)
	s := New(pb, DefaultConfig())
	require.Equal(t, Sat, s.Solve(nil))
	verifyModel(t, pb, s.Model())
}

// randomCNF builds a random 3-SAT instance.
func randomCNF(rnd *rand.Rand, nbVars, nbClauses int) *Problem {
	cnf := make([][]int, nbClauses)
	for i := range cnf {
		clause := make([]int, 3)
		for j := range clause {
			v := rnd.Intn(nbVars) + 1
			if rnd.Intn(2) == 0 {
				v = -v
			}
			clause[j] = v
		}
		cnf[i] = clause
	}
	return ParseSlice(cnf)
}

func TestRandomInstancesSound(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 30; i++ {
		pb := randomCNF(rnd, 30, 100)
		if pb.Status == Unsat {
			continue
		}
		s := New(pb, DefaultConfig())
		if s.Solve(nil) == Sat {
			verifyModel(t, pb, s.Model())
		}
	}
}

func TestDeterminismWithFixedSeed(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	pb := randomCNF(rnd, 60, 250)
	conf := DefaultConfig()
	conf.OrigSeed = 12345
	conf.RandomVarFreq = 0.05

	run := func() (Status, Stats) {
		rnd := rand.New(rand.NewSource(7))
		s := New(randomCNF(rnd, 60, 250), conf)
		st := s.Solve(nil)
		return st, s.Stats()
	}
	st1, stats1 := run()
	st2, stats2 := run()
	require.Equal(t, st1, st2)
	require.Equal(t, stats1.NbConflicts, stats2.NbConflicts)
	require.Equal(t, stats1.NbDecisions, stats2.NbDecisions)
	require.Equal(t, stats1.NbPropagations, stats2.NbPropagations)
	_ = pb
}

func TestConflictBudget(t *testing.T) {
	conf := DefaultConfig()
	conf.MaxConflicts = 1
	conf.DoBurstSearch = false
	conf.RestartFirst = 1
	pb := pigeonhole(6, 5)
	s := New(pb, conf)
	require.Equal(t, Indet, s.Solve(nil))
	require.NotZero(t, s.Stats().NbConflicts)

	// The budget is recoverable: solving again with a real budget works.
	conf.MaxConflicts = 0
	s2 := New(pb, conf)
	require.Equal(t, Unsat, s2.Solve(nil))
}

func TestPolarityModes(t *testing.T) {
	for _, mode := range []PolarityMode{PolarityAuto, PolarityPositive, PolarityNegative, PolarityRandom, PolarityRndOnRestart} {
		t.Run(mode.String(), func(t *testing.T) {
			conf := DefaultConfig()
			conf.PolarityMode = mode
			pb := pigeonhole(4, 4)
			s := New(pb, conf)
			require.Equal(t, Sat, s.Solve(nil))
			verifyModel(t, pb, s.Model())
		})
	}
}

func TestCancelUntilInvariants(t *testing.T) {
	pb := ParseSlice([][]int{{1, 2, 3}, {-1, 4}, {-4, 5, 6}, {2, -5}})
	s := New(pb, DefaultConfig())

	s.newDecisionLevel()
	s.enqueue(IntToLit(1), noReason)
	require.Nil(t, checkInvariants(s))
	require.Equal(t, reasonNone, s.propagate().kind)
	require.Nil(t, checkInvariants(s))

	s.newDecisionLevel()
	s.enqueue(IntToLit(-5), noReason)
	require.Equal(t, reasonNone, s.propagate().kind)
	require.Nil(t, checkInvariants(s))

	s.cancelUntil(1)
	require.Equal(t, 1, s.decisionLevel())
	for v := 0; v < pb.NbVars; v++ {
		if s.assigns[v] != Undef {
			require.LessOrEqual(t, s.level(Var(v)), int32(1))
		}
	}
	require.Nil(t, checkInvariants(s))

	// cancelUntil(0) is idempotent.
	s.cancelUntil(0)
	trailLen := len(s.trail)
	s.cancelUntil(0)
	require.Equal(t, trailLen, len(s.trail))
	require.Zero(t, s.decisionLevel())
	require.Nil(t, checkInvariants(s))
}

// checkInvariants verifies the core assignment/watch invariants at a
// propagation quiescence. It returns an error describing the first
// violation found.
func checkInvariants(s *Solver) error {
	onTrail := make(map[Var]int)
	for _, l := range s.trail {
		onTrail[l.Var()]++
		if s.litValue(l) != True {
			return fmt.Errorf("trail literal %d is not true", l.Int())
		}
	}
	for v, cnt := range onTrail {
		if cnt != 1 {
			return fmt.Errorf("var %d appears %d times on the trail", v+1, cnt)
		}
	}
	nbAssigned := 0
	for v := range s.assigns {
		if s.assigns[v] != Undef {
			nbAssigned++
			if onTrail[Var(v)] == 0 {
				return fmt.Errorf("var %d assigned but not on trail", v+1)
			}
		}
	}
	if nbAssigned != len(s.trail) {
		return fmt.Errorf("%d vars assigned but %d literals on trail", nbAssigned, len(s.trail))
	}
	for i := 1; i < len(s.trailLim); i++ {
		if s.trailLim[i-1] > s.trailLim[i] {
			return fmt.Errorf("trailLim not monotonic: %v", s.trailLim)
		}
	}
	// Watch lists and long-clause watched positions must agree.
	for p, ws := range s.watches {
		for _, w := range ws {
			if w.kind != watchLong {
				continue
			}
			cl := s.db.slice(w.ref)
			if cl[0].Negation() != Lit(p) && cl[1].Negation() != Lit(p) {
				return fmt.Errorf("clause %d watched by %d but neither watched position matches", w.ref, p)
			}
		}
	}
	for _, cr := range s.learnts {
		if s.db.header(cr).deleted() {
			return fmt.Errorf("deleted clause %d still listed", cr)
		}
		cl := s.db.slice(cr)
		if cl[0] == cl[1] {
			return fmt.Errorf("clause %d watches the same literal twice", cr)
		}
	}
	return nil
}

func TestInvariantsDuringSearch(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	pb := randomCNF(rnd, 40, 160)
	conf := DefaultConfig()
	conf.MaxConflicts = 200
	s := New(pb, conf)
	s.Solve(nil)
	require.Nil(t, checkInvariants(s))
}
