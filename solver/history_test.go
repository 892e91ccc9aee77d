package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryWindow(t *testing.T) {
	h := newHistory(3)
	assert.False(t, h.full())
	h.push(2)
	h.push(4)
	assert.Equal(t, 3.0, h.avg())
	h.push(6)
	assert.True(t, h.full())
	assert.Equal(t, 4.0, h.avg())

	// The window slides, the cumulative average does not.
	h.push(8)
	assert.Equal(t, 6.0, h.avg())
	assert.Equal(t, 5.0, h.avgAll())
}

func TestHistoryClearWindow(t *testing.T) {
	h := newHistory(2)
	h.push(10)
	h.push(20)
	h.clearWindow()
	assert.False(t, h.full())
	assert.Equal(t, 0.0, h.avg())
	assert.Equal(t, 15.0, h.avgAll())
	h.push(2)
	assert.Equal(t, 2.0, h.avg())
}

func TestAgilityFlips(t *testing.T) {
	conf := DefaultConfig()
	conf.AgilityG = 0.9
	a := newAgility(conf)
	assert.Equal(t, 0.0, a.getAgility())
	a.update(true)
	assert.InDelta(t, 0.1, a.getAgility(), 1e-9)
	a.update(false)
	assert.InDelta(t, 0.09, a.getAgility(), 1e-9)
	for i := 0; i < 1000; i++ {
		a.update(true)
	}
	assert.InDelta(t, 1.0, a.getAgility(), 1e-3)
}

func TestAgilityTooLowCounting(t *testing.T) {
	conf := DefaultConfig()
	conf.CountAgilityFromThisConfl = 10
	conf.ForgetLowAgilityAfter = 5
	a := newAgility(conf)

	a.tooLow(3) // before countFrom: ignored
	assert.Zero(t, a.getNumTooLow())

	a.tooLow(10)
	a.tooLow(11)
	assert.Equal(t, uint64(2), a.getNumTooLow())

	// A long quiet stretch forgets previous counts.
	a.tooLow(30)
	assert.Equal(t, uint64(1), a.getNumTooLow())

	a.reset()
	assert.Zero(t, a.getNumTooLow())
}
