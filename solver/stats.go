package solver

import (
	"runtime"

	"github.com/sirupsen/logrus"
)

// Stats are statistics about the resolution of the problem.
// They are provided for information purpose only.
type Stats struct {
	NbRestarts        uint64
	NbConflicts       uint64
	NbDecisions       uint64
	NbRndDecisions    uint64
	NbPropagations    uint64
	NbUnitLearned     uint64 // How many unit clauses were learned
	NbBinaryLearned   uint64 // How many binary clauses were learned
	NbTernaryLearned  uint64
	NbLearned         uint64 // How many clauses were learned
	NbDeleted         uint64 // How many learned clauses were deleted
	NbImported        uint64 // How many clauses were imported from peers
	NbShrinkedClauses uint64 // Clauses shortened through watch-shrink
	NbShrinkedLits    uint64 // Literals removed through watch-shrink
	NbMinimTried      uint64 // Learned clauses sent to further minimisation
	MaxLiterals       uint64 // Literals in first-UIP clauses before minimisation
	TotLiterals       uint64 // Literals in learned clauses after minimisation
}

// LitsDeletedPct is the share of conflict literals removed by
// minimisation.
func (st *Stats) LitsDeletedPct() float64 {
	if st.MaxLiterals == 0 {
		return 0
	}
	return float64(st.MaxLiterals-st.TotLiterals) * 100 / float64(st.MaxLiterals)
}

// RndDecisionsPct is the share of decisions that were random picks.
func (st *Stats) RndDecisionsPct() float64 {
	if st.NbDecisions == 0 {
		return 0
	}
	return float64(st.NbRndDecisions) * 100 / float64(st.NbDecisions)
}

// Log dumps the statistics as the fields of a single Info entry.
func (st *Stats) Log(logger *logrus.Logger) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	logger.WithFields(logrus.Fields{
		"restarts":          st.NbRestarts,
		"conflicts":         st.NbConflicts,
		"decisions":         st.NbDecisions,
		"rndDecisionsPct":   st.RndDecisionsPct(),
		"propagations":      st.NbPropagations,
		"unitLearned":       st.NbUnitLearned,
		"binaryLearned":     st.NbBinaryLearned,
		"learned":           st.NbLearned,
		"deleted":           st.NbDeleted,
		"imported":          st.NbImported,
		"watchShrinkCls":    st.NbShrinkedClauses,
		"watchShrinkLits":   st.NbShrinkedLits,
		"litsDeletedPct":    st.LitsDeletedPct(),
		"memMB":             mem.HeapAlloc / (1 << 20),
	}).Info("solver statistics")
}
