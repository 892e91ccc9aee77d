package solver

// PolarityMode tells how the sign of a decision literal is picked.
type PolarityMode byte

const (
	// PolarityAuto computes default polarities from clause occurrences,
	// then follows phase saving.
	PolarityAuto = PolarityMode(iota)
	// PolarityPositive always branches on the positive literal first.
	PolarityPositive
	// PolarityNegative always branches on the negative literal first.
	PolarityNegative
	// PolarityRandom picks a random sign at every decision.
	PolarityRandom
	// PolarityRndOnRestart re-randomizes saved polarities at each restart,
	// then follows phase saving.
	PolarityRndOnRestart
)

func (m PolarityMode) String() string {
	switch m {
	case PolarityAuto:
		return "auto"
	case PolarityPositive:
		return "positive"
	case PolarityNegative:
		return "negative"
	case PolarityRandom:
		return "random"
	case PolarityRndOnRestart:
		return "rnd-on-restart"
	default:
		panic("invalid polarity mode")
	}
}

// ParsePolarityMode converts an option string to a PolarityMode.
// Unknown strings map to PolarityAuto.
func ParsePolarityMode(s string) PolarityMode {
	switch s {
	case "positive":
		return PolarityPositive
	case "negative":
		return PolarityNegative
	case "random":
		return PolarityRandom
	case "rnd-on-restart":
		return PolarityRndOnRestart
	default:
		return PolarityAuto
	}
}

// Config carries all the tunables of one search worker.
type Config struct {
	OrigSeed      int64   // Seed of the worker's random source
	RandomVarFreq float64 // Probability of a random branching pick, in [0,1]
	PolarityMode  PolarityMode

	// Agility-based restarts
	AgilityG                  float64 // Decay of the phase-flip moving average
	AgilityLimit              float64 // Below this agility, the search is stagnating
	ForgetLowAgilityAfter     uint64
	CountAgilityFromThisConfl uint64
	NumTooLowAgilitiesLimit   uint64

	ShortTermGlueHistorySize int

	// Learned clause minimisation
	DoCache           bool // Use the implication cache during minimisation
	DoMinimLearntMore bool // Run cache/watch based minimisation at all
	DoAlwaysFMinim    bool // Minimise regardless of the glue/size averages

	// Burst search: a short fully-random search at the start of solving
	DoBurstSearch  bool
	BurstSearchLen uint64

	RestartFirst uint   // Base conflict budget of a restart, scaled by Luby
	MaxConflicts uint64 // 0 means no budget

	Verbosity int // 0 quiet .. 3 debug
}

// DefaultConfig returns the configuration used when no option is given.
func DefaultConfig() Config {
	return Config{
		OrigSeed:                  0,
		RandomVarFreq:             0.001,
		PolarityMode:              PolarityAuto,
		AgilityG:                  0.9999,
		AgilityLimit:              0.03,
		ForgetLowAgilityAfter:     75,
		CountAgilityFromThisConfl: 100,
		NumTooLowAgilitiesLimit:   30,
		ShortTermGlueHistorySize:  100,
		DoCache:                   true,
		DoMinimLearntMore:         true,
		DoAlwaysFMinim:            true,
		DoBurstSearch:             true,
		BurstSearchLen:            300,
		RestartFirst:              100,
		MaxConflicts:              0,
		Verbosity:                 0,
	}
}
