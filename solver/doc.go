/*
Package solver implements a parallel, conflict-driven clause-learning
(CDCL) SAT solver.

Given a propositional formula in conjunctive normal form and an
optional list of assumption literals, it decides satisfiability. On
Sat, a total assignment extending the assumptions is available; on
Unsat under assumptions, a conflicting subset of the assumptions is.

Describing a problem

A problem can be parsed from a DIMACS stream:

	pb, err := solver.ParseCNF(f)

or built from a slice of slices of ints, each inner slice being one
clause:

	pb := solver.ParseSlice([][]int{
		{1, 2, 3},
		{-1, -2},
		{-3},
	})

Solving

A single worker is a Solver:

	s := solver.New(pb, solver.DefaultConfig())
	status := s.Solve(nil)
	if status == solver.Sat {
		model := s.Model()
		...
	}

Several diversified workers sharing learned clauses are run through
SolveParallel:

	res := solver.SolveParallel(pb, solver.DefaultConfig(), 4, nil)

Workers exchange unit, binary and longer learned clauses through
append-only logs and periodically meet at a clean-up barrier to reduce
their learned-clause databases. With one worker and a fixed seed the
search is fully deterministic; with several workers only the verdict is
deterministic.
*/
package solver
