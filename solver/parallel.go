package solver

import (
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// The coordinator: fans the formula out to N diversified workers that
// share learned clauses, and returns the first definite verdict.
// With several workers the run is non-deterministic (clause exchange
// timing varies); only the verdict is guaranteed.

// A Result is the outcome of a parallel solve.
type Result struct {
	Status Status
	// Model binds every variable when Status is Sat.
	Model []bool
	// Conflict is the subset of the assumptions responsible for the
	// failure, when Status is Unsat and assumptions were given.
	Conflict []Lit
	// Stats holds the statistics of every worker.
	Stats []Stats
}

// Workers get different seeds, random frequencies, polarity modes and
// restart budgets, so that they explore different parts of the search
// space (the formula itself is the same for everybody).
func diversify(conf Config, worker int) Config {
	if worker == 0 {
		return conf
	}
	conf.OrigSeed += int64(worker) * 9176
	switch worker % 4 {
	case 1:
		conf.RandomVarFreq = 0.01
		conf.PolarityMode = PolarityNegative
		conf.RestartFirst = 150
	case 2:
		conf.RandomVarFreq = 0.05
		conf.PolarityMode = PolarityPositive
		conf.RestartFirst = 50
		conf.DoBurstSearch = false
	case 3:
		conf.RandomVarFreq = 0.001
		conf.PolarityMode = PolarityRndOnRestart
		conf.RestartFirst = 200
	}
	return conf
}

// SolveParallel solves the problem with nbWorkers parallel workers
// (one per CPU if nbWorkers is 0), under the given assumptions.
func SolveParallel(pb *Problem, conf Config, nbWorkers int, assumps []Lit) Result {
	if nbWorkers <= 0 {
		nbWorkers = runtime.NumCPU()
	}
	logger := logrus.New()
	logger.SetLevel(verbosityToLevel(conf.Verbosity))

	shared := NewShared(nbWorkers)
	cache, reach := BuildBinaryImplications(pb.NbVars, pb.binaries())

	solvers := make([]*Solver, nbWorkers)
	for i := range solvers {
		s := New(pb, diversify(conf, i))
		s.shared = shared
		s.worker = i
		s.UseCache(cache, reach)
		s.SetLogger(logger.WithField("worker", i))
		solvers[i] = s
	}

	type verdict struct {
		worker int
		status Status
	}
	verdicts := make(chan verdict, nbWorkers)
	var g errgroup.Group
	for i := range solvers {
		i := i
		g.Go(func() error {
			st := solvers[i].Solve(assumps)
			shared.Leave()
			verdicts <- verdict{worker: i, status: st}
			return nil
		})
	}

	winner := -1
	status := Indet
	for range solvers {
		v := <-verdicts
		if v.status != Indet && winner == -1 {
			winner = v.worker
			status = v.status
			logger.WithFields(logrus.Fields{"worker": v.worker, "status": v.status}).Info("first verdict")
			for j, other := range solvers {
				if j != winner {
					other.Interrupt()
				}
			}
		}
	}
	_ = g.Wait()

	res := Result{Status: status, Stats: make([]Stats, nbWorkers)}
	for i, s := range solvers {
		res.Stats[i] = s.Stats()
	}
	if winner >= 0 {
		switch status {
		case Sat:
			res.Model = solvers[winner].Model()
		case Unsat:
			res.Conflict = solvers[winner].FinalConflict()
		}
	}
	return res
}
