package solver

import (
	"fmt"
	"strings"
)

// A Problem is a list of clauses & a nb of vars.
type Problem struct {
	NbVars  int     // Total nb of vars
	Clauses [][]Lit // List of non-empty, non-unit clauses
	Units   []Lit   // List of unit literals found in the problem
	Status  Status  // Trivially Unsat (empty clause or contradictory units) or Indet
	// DecisionVars flags the variables the solver may branch on.
	// A nil slice means every variable is a decision variable.
	DecisionVars []bool
}

// CNF returns a DIMACS CNF representation of the problem.
func (pb *Problem) CNF() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "p cnf %d %d\n", pb.NbVars, len(pb.Clauses)+len(pb.Units))
	for _, unit := range pb.Units {
		fmt.Fprintf(&sb, "%d 0\n", unit.Int())
	}
	for _, clause := range pb.Clauses {
		for _, lit := range clause {
			fmt.Fprintf(&sb, "%d ", lit.Int())
		}
		sb.WriteString("0\n")
	}
	return sb.String()
}

// binaries returns the binary clauses of the problem, used to seed the
// implication cache and the reachability table.
func (pb *Problem) binaries() [][2]Lit {
	var res [][2]Lit
	for _, clause := range pb.Clauses {
		if len(clause) == 2 {
			res = append(res, [2]Lit{clause[0], clause[1]})
		}
	}
	return res
}

// addClause normalizes lits and stores the clause: duplicate literals
// are removed, tautologies are dropped, empty clauses make the problem
// Unsat and unit clauses go to Units.
func (pb *Problem) addClause(lits []Lit) {
	j := 0
	for i, l := range lits {
		dup := false
		for _, l2 := range lits[:j] {
			if l2 == l {
				dup = true
				break
			}
			if l2 == l.Negation() {
				return // tautology
			}
		}
		if !dup {
			lits[j] = lits[i]
			j++
		}
	}
	lits = lits[:j]
	switch len(lits) {
	case 0:
		pb.Status = Unsat
	case 1:
		pb.addUnit(lits[0])
	default:
		pb.Clauses = append(pb.Clauses, lits)
	}
}

func (pb *Problem) addUnit(lit Lit) {
	for _, unit := range pb.Units {
		if unit == lit {
			return
		}
		if unit == lit.Negation() {
			pb.Status = Unsat
			return
		}
	}
	pb.Units = append(pb.Units, lit)
}
