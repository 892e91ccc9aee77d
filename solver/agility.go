package solver

// Agility is an exponential moving average of phase flips: assignments
// whose sign disagrees with the variable's saved polarity. A persistently
// low agility means the search is stuck in one region of the assignment
// space and should be restarted.

type agility struct {
	g          float64 // decay factor of the moving average
	val        float64
	numTooLow  uint64
	lastTooLow uint64 // conflict count when agility was last too low
	forget     uint64 // forget the too-low count after this many quiet conflicts
	countFrom  uint64 // ignore agility before this many conflicts
}

func newAgility(conf Config) agility {
	return agility{
		g:         conf.AgilityG,
		forget:    conf.ForgetLowAgilityAfter,
		countFrom: conf.CountAgilityFromThisConfl,
	}
}

// update feeds one assignment into the moving average.
func (a *agility) update(flipped bool) {
	a.val *= a.g
	if flipped {
		a.val += 1 - a.g
	}
}

func (a *agility) getAgility() float64 {
	return a.val
}

// tooLow records that agility was below the limit at the given conflict
// count. Counts older than the forget window are discarded first.
func (a *agility) tooLow(confl uint64) {
	if confl < a.countFrom {
		return
	}
	if a.lastTooLow+a.forget < confl {
		a.numTooLow = 0
	}
	a.numTooLow++
	a.lastTooLow = confl
}

func (a *agility) getNumTooLow() uint64 {
	return a.numTooLow
}

// reset clears the too-low counter. Called on restart.
func (a *agility) reset() {
	a.numTooLow = 0
}
