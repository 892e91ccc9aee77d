package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/crillab/parsat/solver"
)

// DIMACS exit codes.
const (
	exitSat     = 10
	exitUnsat   = 20
	exitUnknown = 0
)

var (
	nbWorkers    int
	verbosity    int
	maxConflicts uint64
	seed         int64
	randVarFreq  float64
	polarityMode string
	assumeLits   []int
	showStats    bool
)

func main() {
	debug.SetGCPercent(300)
	cmd := &cobra.Command{
		Use:          "parsat file.cnf",
		Short:        "parsat is a parallel CDCL SAT solver",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
	}
	flags := cmd.Flags()
	flags.IntVarP(&nbWorkers, "workers", "j", 1, "number of parallel workers (0 = one per CPU)")
	flags.IntVarP(&verbosity, "verbosity", "v", 0, "verbosity, from 0 (quiet) to 3 (debug)")
	flags.Uint64Var(&maxConflicts, "max-conflicts", 0, "per-worker conflict budget (0 = none)")
	flags.Int64Var(&seed, "seed", 0, "seed of the first worker's random source")
	flags.Float64Var(&randVarFreq, "random-var-freq", solver.DefaultConfig().RandomVarFreq, "frequency of random branching picks")
	flags.StringVar(&polarityMode, "polarity", "auto", "polarity mode: auto, positive, negative, random or rnd-on-restart")
	flags.IntSliceVar(&assumeLits, "assume", nil, "assumption literals, in DIMACS notation")
	flags.BoolVar(&showStats, "stats", false, "print solver statistics after solving")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(path string) error {
	logger := logrus.New()
	if verbosity >= 2 {
		logger.SetLevel(logrus.InfoLevel)
	}

	if !strings.HasSuffix(path, ".cnf") {
		return errors.Errorf("invalid file format for %q", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "could not open %q", path)
	}
	defer f.Close()
	pb, err := solver.ParseCNF(f)
	if err != nil {
		return errors.Wrapf(err, "could not parse DIMACS file %q", path)
	}

	conf := solver.DefaultConfig()
	conf.OrigSeed = seed
	conf.RandomVarFreq = randVarFreq
	conf.PolarityMode = solver.ParsePolarityMode(polarityMode)
	conf.MaxConflicts = maxConflicts
	conf.Verbosity = verbosity

	var assumps []solver.Lit
	for _, i := range assumeLits {
		assumps = append(assumps, solver.IntToLit(int32(i)))
	}

	res := solver.SolveParallel(pb, conf, nbWorkers, assumps)
	if showStats {
		for i := range res.Stats {
			res.Stats[i].Log(logger)
		}
	}
	switch res.Status {
	case solver.Sat:
		fmt.Println("s SATISFIABLE")
		outputModel(res.Model)
		os.Exit(exitSat)
	case solver.Unsat:
		fmt.Println("s UNSATISFIABLE")
		if len(res.Conflict) > 0 {
			var ints []string
			for _, l := range res.Conflict {
				ints = append(ints, fmt.Sprintf("%d", l.Int()))
			}
			fmt.Printf("c conflict: %s\n", strings.Join(ints, " "))
		}
		os.Exit(exitUnsat)
	default:
		fmt.Println("s INDETERMINATE")
		os.Exit(exitUnknown)
	}
	return nil
}

func outputModel(model []bool) {
	var sb strings.Builder
	sb.WriteString("v")
	for i, val := range model {
		if val {
			fmt.Fprintf(&sb, " %d", i+1)
		} else {
			fmt.Fprintf(&sb, " %d", -i-1)
		}
	}
	fmt.Println(sb.String())
}
