package solver

import (
	"math/rand"
	"testing"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
	"github.com/stretchr/testify/require"
)

func giniLit(l Lit) z.Lit {
	v := z.Var(l.Var() + 1)
	if l.IsPositive() {
		return v.Pos()
	}
	return v.Neg()
}

// giniVerdict solves the problem with the gini solver, as a reference.
func giniVerdict(pb *Problem) Status {
	g := gini.New()
	for _, unit := range pb.Units {
		g.Add(giniLit(unit))
		g.Add(0)
	}
	for _, clause := range pb.Clauses {
		for _, l := range clause {
			g.Add(giniLit(l))
		}
		g.Add(0)
	}
	switch g.Solve() {
	case 1:
		return Sat
	case -1:
		return Unsat
	default:
		return Indet
	}
}

func TestParallelScenarios(t *testing.T) {
	tests := []struct {
		name     string
		cnf      [][]int
		expected Status
	}{
		{"trivially unsat", [][]int{{1}, {-1}}, Unsat},
		{"unit chain", [][]int{{1, 2}, {1, -2}, {-1, 3}, {-1, -3}}, Unsat},
		{"simple sat", [][]int{{1, 2, 3}, {-1, -2}, {-2, -3}, {-1, -3}}, Sat},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pb := ParseSlice(test.cnf)
			res := SolveParallel(pb, DefaultConfig(), 2, nil)
			require.Equal(t, test.expected, res.Status)
			if res.Status == Sat {
				verifyModel(t, pb, res.Model)
			}
			require.Len(t, res.Stats, 2)
		})
	}
}

func TestParallelPigeonhole(t *testing.T) {
	res := SolveParallel(pigeonhole(5, 4), DefaultConfig(), 4, nil)
	require.Equal(t, Unsat, res.Status)
}

func TestParallelAssumptions(t *testing.T) {
	pb := ParseSlice([][]int{{1, 2, 3}, {1, 2, -3}, {1, -2, 3}, {1, -2, -3}})
	notA := IntToLit(-1)
	res := SolveParallel(pb, DefaultConfig(), 2, []Lit{notA})
	require.Equal(t, Unsat, res.Status)
	require.Equal(t, []Lit{notA}, res.Conflict)
}

// TestParallelAgainstReference cross-checks two-worker runs against the
// gini solver on random 3-SAT instances around the phase transition.
func TestParallelAgainstReference(t *testing.T) {
	rnd := rand.New(rand.NewSource(99))
	for i := 0; i < 15; i++ {
		pb := randomCNF(rnd, 25, 107)
		expected := giniVerdict(pb)
		res := SolveParallel(pb, DefaultConfig(), 2, nil)
		require.Equal(t, expected, res.Status, "instance %d", i)
		if res.Status == Sat {
			verifyModel(t, pb, res.Model)
		}
	}
}

// TestWorkerAgreement runs the same hard instance with one and with
// several workers: the verdicts must agree, and every model must
// satisfy the formula.
func TestWorkerAgreement(t *testing.T) {
	rnd := rand.New(rand.NewSource(4321))
	pb := randomCNF(rnd, 50, 210)

	single := New(pb, DefaultConfig())
	st := single.Solve(nil)

	res := SolveParallel(pb, DefaultConfig(), 3, nil)
	require.Equal(t, st, res.Status)
	if st == Sat {
		verifyModel(t, pb, single.Model())
		verifyModel(t, pb, res.Model)
	}
}

func TestParallelInterruptLosers(t *testing.T) {
	// Whatever the timing, a parallel run on an easy formula terminates
	// and every worker reports its statistics.
	pb := pigeonhole(4, 4)
	res := SolveParallel(pb, DefaultConfig(), 4, nil)
	require.Equal(t, Sat, res.Status)
	verifyModel(t, pb, res.Model)
	require.Len(t, res.Stats, 4)
}
