package solver

// The clause arena. Long clauses (4 literals or more) are stored in a
// single flat literal slice and addressed through 32-bit clauseRefs, so
// that watchers and reasons stay small and the GC never chases a
// pointer graph of clauses. Binary and ternary clauses live in the
// watch lists only and never hit the arena.

type clauseDB struct {
	lits    []Lit
	headers []clauseHeader
	wasted  int // literals belonging to deleted clauses
}

// alloc stores a copy of lits in the arena and returns its reference.
func (db *clauseDB) alloc(lits []Lit, learned bool) clauseRef {
	if len(db.headers) >= int(clauseRefUndef) {
		panic("clause arena exhausted")
	}
	var flags uint32
	if learned {
		flags = learnedMask
	}
	off := len(db.lits)
	db.lits = append(db.lits, lits...)
	db.headers = append(db.headers, clauseHeader{
		off:   uint32(off),
		size:  uint32(len(lits)),
		flags: flags,
	})
	return clauseRef(len(db.headers) - 1)
}

// slice returns the current literals of the given clause.
// The slice aliases the arena: callers may reorder literals in place.
func (db *clauseDB) slice(cr clauseRef) []Lit {
	h := &db.headers[cr]
	return db.lits[h.off : h.off+h.size]
}

func (db *clauseDB) header(cr clauseRef) *clauseHeader {
	return &db.headers[cr]
}

func (db *clauseDB) len(cr clauseRef) int {
	return int(db.headers[cr].size)
}

// shrinkOne logically removes the last literal of the clause.
// The caller must have swapped the literal to remove into last position.
func (db *clauseDB) shrinkOne(cr clauseRef) {
	h := &db.headers[cr]
	if h.size <= 2 {
		panic("shrinking clause below two literals")
	}
	h.size--
	db.wasted++
}

// free marks the clause as deleted. Its literals are left in place;
// wasted tracks how much of the arena they occupy.
func (db *clauseDB) free(cr clauseRef) {
	h := &db.headers[cr]
	if h.deleted() {
		panic("freeing already freed clause")
	}
	h.flags |= deletedMask
	db.wasted += int(h.size)
}
