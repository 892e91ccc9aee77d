package solver

// The implication cache and the literal reachability table. Both are
// read-only during search: they are built before solving (normally by
// inprocessing passes, here from the binary implication graph) and
// shared between all workers.

// An ImplCache records, for each literal l, a set of literals known to
// be entailed by l. The conflict analyzer uses it to drop redundant
// literals from learned clauses.
type ImplCache struct {
	entails [][]Lit
}

// NewImplCache returns an empty cache for the given number of variables.
func NewImplCache(nbVars int) *ImplCache {
	return &ImplCache{entails: make([][]Lit, nbVars*2)}
}

// Add records that l entails each of the given literals.
func (c *ImplCache) Add(l Lit, entailed ...Lit) {
	c.entails[l] = append(c.entails[l], entailed...)
}

// Entails returns the literals known to be entailed by l.
func (c *ImplCache) Entails(l Lit) []Lit {
	return c.entails[l]
}

// A Reachability table maps a literal to a dominating literal: one
// whose assignment entails it. Branching sometimes substitutes the
// dominator for the heuristic pick, deciding a stronger literal.
type Reachability struct {
	dom []Lit
}

// NewReachability returns a table with no dominators.
func NewReachability(nbVars int) *Reachability {
	r := &Reachability{dom: make([]Lit, nbVars*2)}
	for i := range r.dom {
		r.dom[i] = LitUndef
	}
	return r
}

// SetDominator records that assigning d entails l.
func (r *Reachability) SetDominator(l, d Lit) {
	r.dom[l] = d
}

// Dominator returns the recorded dominator of l, or LitUndef.
func (r *Reachability) Dominator(l Lit) Lit {
	return r.dom[l]
}

// BuildBinaryImplications fills an implication cache and a reachability
// table from the binary clauses of the problem. A binary clause {a, b}
// yields the implications ¬a → b and ¬b → a; the dominator chosen for a
// literal is its implier with the highest out-degree, ties broken by
// the smaller literal.
func BuildBinaryImplications(nbVars int, bins [][2]Lit) (*ImplCache, *Reachability) {
	cache := NewImplCache(nbVars)
	for _, bin := range bins {
		a, b := bin[0], bin[1]
		cache.Add(a.Negation(), b)
		cache.Add(b.Negation(), a)
	}
	reach := NewReachability(nbVars)
	for l := Lit(0); l < Lit(nbVars*2); l++ {
		best := LitUndef
		for _, bin := range bins {
			var implier Lit
			switch l {
			case bin[0]:
				implier = bin[1].Negation()
			case bin[1]:
				implier = bin[0].Negation()
			default:
				continue
			}
			if best == LitUndef ||
				len(cache.Entails(implier)) > len(cache.Entails(best)) ||
				(len(cache.Entails(implier)) == len(cache.Entails(best)) && implier < best) {
				best = implier
			}
		}
		if best != LitUndef {
			reach.SetDominator(l, best)
		}
	}
	return cache, reach
}
