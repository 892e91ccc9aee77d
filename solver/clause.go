package solver

// A clauseRef is a compact handle on a clause living in the clause arena.
// Watchers and reasons store clauseRefs, never pointers.
type clauseRef uint32

// clauseRefUndef is the null clause reference.
const clauseRefUndef clauseRef = ^clauseRef(0)

const (
	learnedMask uint32 = 1 << 31
	deletedMask uint32 = 1 << 30
	glueMask    uint32 = ^(learnedMask | deletedMask)
	// maxGlue is the clamp value for glue (LBD) estimates.
	maxGlue = int(glueMask)
)

// A clauseHeader describes one clause of the arena: where its literals
// live, its logical size, its learned/deleted flags and glue value, and
// its activity.
type clauseHeader struct {
	off      uint32
	size     uint32
	flags    uint32 // learned flag, deleted flag and glue value
	activity float32
}

func (h *clauseHeader) learned() bool { return h.flags&learnedMask != 0 }
func (h *clauseHeader) deleted() bool { return h.flags&deletedMask != 0 }
func (h *clauseHeader) glue() int     { return int(h.flags & glueMask) }

func (h *clauseHeader) setGlue(glue int) {
	if glue > maxGlue {
		glue = maxGlue
	}
	h.flags = (h.flags &^ glueMask) | uint32(glue)
}
