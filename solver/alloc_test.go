package solver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArenaAllocate(t *testing.T) {
	var db clauseDB
	c1 := []Lit{IntToLit(1), IntToLit(2), IntToLit(3), IntToLit(4)}
	c2 := []Lit{IntToLit(-1), IntToLit(-2), IntToLit(5), IntToLit(6), IntToLit(7)}
	r1 := db.alloc(c1, false)
	r2 := db.alloc(c2, true)

	require.Equal(t, c1, db.slice(r1))
	require.Equal(t, c2, db.slice(r2))
	require.False(t, db.header(r1).learned())
	require.True(t, db.header(r2).learned())

	db.header(r2).setGlue(3)
	require.Equal(t, 3, db.header(r2).glue())
	require.True(t, db.header(r2).learned(), "setting glue must not clobber the learned flag")
}

func TestArenaShrink(t *testing.T) {
	var db clauseDB
	cr := db.alloc([]Lit{IntToLit(1), IntToLit(2), IntToLit(3), IntToLit(4)}, true)
	cl := db.slice(cr)
	cl[2] = cl[len(cl)-1]
	db.shrinkOne(cr)
	require.Equal(t, 3, db.len(cr))
	require.Equal(t, []Lit{IntToLit(1), IntToLit(2), IntToLit(4)}, db.slice(cr))
	require.Equal(t, 1, db.wasted)
}

func TestArenaFree(t *testing.T) {
	var db clauseDB
	r1 := db.alloc([]Lit{IntToLit(1), IntToLit(2), IntToLit(3), IntToLit(4)}, true)
	r2 := db.alloc([]Lit{IntToLit(5), IntToLit(6), IntToLit(7), IntToLit(8)}, true)
	db.free(r1)
	require.True(t, db.header(r1).deleted())
	require.False(t, db.header(r2).deleted())
	require.Equal(t, 4, db.wasted)
	// Freed clauses keep their storage until the arena is rebuilt;
	// other clauses are unaffected.
	require.Equal(t, []Lit{IntToLit(5), IntToLit(6), IntToLit(7), IntToLit(8)}, db.slice(r2))
}

func TestGlueClamp(t *testing.T) {
	var h clauseHeader
	h.flags = learnedMask
	h.setGlue(maxGlue + 10)
	require.Equal(t, maxGlue, h.glue())
	require.True(t, h.learned())
	require.False(t, h.deleted())
}
