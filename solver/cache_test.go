package solver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildBinaryImplications(t *testing.T) {
	// {1, 2} and {1, 3}: ¬1 entails 2 and 3.
	bins := [][2]Lit{
		{IntToLit(1), IntToLit(2)},
		{IntToLit(1), IntToLit(3)},
	}
	cache, reach := BuildBinaryImplications(3, bins)

	not1 := IntToLit(-1)
	require.ElementsMatch(t, []Lit{IntToLit(2), IntToLit(3)}, cache.Entails(not1))
	require.Equal(t, []Lit{IntToLit(1)}, cache.Entails(IntToLit(-2)))

	// ¬1 implies 2, so ¬1 dominates 2. Its out-degree (2) beats any other.
	require.Equal(t, not1, reach.Dominator(IntToLit(2)))
	require.Equal(t, not1, reach.Dominator(IntToLit(3)))
	require.Equal(t, LitUndef, reach.Dominator(not1))
}

func TestMinimiseWithWatches(t *testing.T) {
	// The binary clause {1, -2} makes the literal 2 redundant in any
	// learned clause that also contains 1.
	pb := ParseSlice([][]int{{1, -2}, {1, 2, 3, 4}})
	s := New(pb, DefaultConfig())

	cl := []Lit{IntToLit(-3), IntToLit(1), IntToLit(2)}
	got := s.minimiseLearntFurther(cl)
	require.Equal(t, []Lit{IntToLit(-3), IntToLit(1)}, got)
}

func TestMinimiseWithCache(t *testing.T) {
	pb := ParseSlice([][]int{{1, 2, 3, 4}})
	s := New(pb, DefaultConfig())
	cache := NewImplCache(pb.NbVars)
	// ¬1 entails 2: ¬2 is redundant next to 1.
	cache.Add(IntToLit(-1), IntToLit(2))
	s.UseCache(cache, NewReachability(pb.NbVars))

	cl := []Lit{IntToLit(4), IntToLit(1), IntToLit(-2)}
	got := s.minimiseLearntFurther(cl)
	require.Equal(t, []Lit{IntToLit(4), IntToLit(1)}, got)
}

func TestMinimiseKeepsAssertingLit(t *testing.T) {
	// Even when position 0 could be minimised away, it must stay.
	pb := ParseSlice([][]int{{1, -2}, {1, 2, 3, 4}})
	s := New(pb, DefaultConfig())
	cl := []Lit{IntToLit(2), IntToLit(1)}
	got := s.minimiseLearntFurther(cl)
	require.Equal(t, IntToLit(2), got[0])
}

func TestSolveWithCache(t *testing.T) {
	// End to end: a run with the cache and reachability tables wired in
	// must stay sound.
	pb := pigeonhole(5, 4)
	cache, reach := BuildBinaryImplications(pb.NbVars, pb.binaries())
	s := New(pb, DefaultConfig())
	s.UseCache(cache, reach)
	require.Equal(t, Unsat, s.Solve(nil))

	pb2 := pigeonhole(4, 4)
	cache2, reach2 := BuildBinaryImplications(pb2.NbVars, pb2.binaries())
	s2 := New(pb2, DefaultConfig())
	s2.UseCache(cache2, reach2)
	require.Equal(t, Sat, s2.Solve(nil))
	verifyModel(t, pb2, s2.Model())
}
