package main

import (
	"testing"

	"dscheirer.com/chimebox/i2c"
	"gotest.tools/assert"
)

func TestInitBackends(t *testing.T) {
	rt, _, _ := testRuntime()

	p, err := initPins(rt)
	assert.NilError(t, err)
	lp, ok := p.(*logPins)
	assert.Assert(t, ok)
	assert.Assert(t, lp.opened)

	s, err := initSounds(rt)
	assert.NilError(t, err)
	_, ok = s.(*noSounds)
	assert.Assert(t, ok)

	d, err := initDisplay(rt)
	assert.NilError(t, err)
	_, ok = d.(*logDisplay)
	assert.Assert(t, ok)
}

func TestInitBackendsUnknown(t *testing.T) {
	rt, _, _ := testRuntimeWith(map[string]interface{}{
		sHardware: "abacus",
		sDisplay:  "hologram",
	})

	_, err := initPins(rt)
	assert.Assert(t, isFault(err, hardwareInitFault))

	_, err = initDisplay(rt)
	assert.Assert(t, isFault(err, hardwareInitFault))
}

func TestLogDisplay(t *testing.T) {
	rt, _, _ := testRuntime()
	ld := testDisplay(rt)

	assert.NilError(t, ld.show(2))
	assert.Equal(t, ld.showing(), 2)
	assert.ErrorContains(t, ld.show(numChimes), "no image")
	assert.NilError(t, ld.clear())
	assert.NilError(t, ld.close())
	assert.DeepEqual(t, ld.auditLog(), []string{"show 2", "clear", "close"})
}

func TestSevensegDisplay(t *testing.T) {
	rt, _, _ := testRuntime()
	sim := &i2c.Sim{Address: 0x70}
	ss, err := openSevensegDisplay(rt.settings, rt.chimes, sim)
	assert.NilError(t, err)

	// "tD" is right justified
	assert.NilError(t, ss.show(5))
	assert.Assert(t, ss.ssb.Digit(0) == 0)
	assert.Assert(t, ss.ssb.Digit(3) != 0)

	assert.NilError(t, ss.clear())
	for d := 0; d < 4; d++ {
		assert.Equal(t, ss.ssb.Digit(d), byte(0))
	}

	assert.ErrorContains(t, ss.show(-1), "no image")
	assert.NilError(t, ss.close())
	assert.Assert(t, sim.Closed())
}

func TestLogPinsMuxAudit(t *testing.T) {
	lp := newLogPins()
	for i := 0; i < maxMuxAudit+10; i++ {
		lp.setMux(muxCode(i % 8))
	}
	w := lp.muxWrites()
	assert.Assert(t, len(w) <= maxMuxAudit)
	assert.Equal(t, w[len(w)-1], muxCode((maxMuxAudit+9)%8))

	assert.NilError(t, lp.close())
	assert.Assert(t, lp.isClosed())
	assert.Equal(t, lp.mux, muxAllOff)
}
