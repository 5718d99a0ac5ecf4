package main

import (
	"testing"
	"time"

	"gotest.tools/assert"
)

const dLightSleep = 5 * time.Millisecond

// frameLights reports whether a frame lights the given light
func frameLights(frame []muxCode, light int) bool {
	for _, c := range frame {
		if c == lightMux(light) {
			return true
		}
	}
	return false
}

func TestMuxCodes(t *testing.T) {
	assert.Equal(t, lightMux(0).lines(), [3]bool{false, false, false})
	assert.Equal(t, lightMux(1).lines(), [3]bool{false, false, true})
	assert.Equal(t, lightMux(4).lines(), [3]bool{true, false, false})
	assert.Equal(t, lightMux(5).lines(), [3]bool{true, false, true})
	// S0 is the high bit
	assert.Equal(t, muxPower.lines(), [3]bool{true, true, false})
	assert.Equal(t, muxAllOff.lines(), [3]bool{true, true, true})
}

func TestIdleFrame(t *testing.T) {
	ls := newLightState(300 * time.Millisecond)
	assert.DeepEqual(t, ls.frame(), []muxCode{0, 1, 2, 3, 4, 5, muxPower})
}

func TestPulseTiming(t *testing.T) {
	ls := newLightState(300 * time.Millisecond)
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Assert(t, ls.apply(lightsPulse(2), start))

	expected := []struct {
		at time.Duration
		on bool
	}{
		{0, true},
		{150 * time.Millisecond, true},
		{320 * time.Millisecond, false},
		{460 * time.Millisecond, false},
		{610 * time.Millisecond, true},
	}
	for _, e := range expected {
		ls.advance(start.Add(e.at))
		f := ls.frame()
		assert.Equal(t, frameLights(f, 2), e.on, "at %v", e.at)
		// the power light is always in the frame
		assert.Equal(t, f[len(f)-1], muxPower)
		// nothing else ever gets lit
		for i := 0; i < numChimes; i++ {
			if i != 2 {
				assert.Assert(t, !frameLights(f, i), "light %d at %v", i, e.at)
			}
		}
	}
}

func TestPulseFrameShape(t *testing.T) {
	ls := newLightState(300 * time.Millisecond)
	now := time.Now()
	ls.apply(lightsPulse(4), now)
	assert.DeepEqual(t, ls.frame(), []muxCode{muxAllOff, 4, muxAllOff, muxPower})

	ls.advance(now.Add(300 * time.Millisecond))
	assert.DeepEqual(t, ls.frame(), []muxCode{muxAllOff, muxPower})
}

func TestIdleAfterPulse(t *testing.T) {
	ls := newLightState(300 * time.Millisecond)
	now := time.Now()
	ls.apply(lightsPulse(3), now)
	assert.Assert(t, ls.apply(lightsIdle(), now.Add(time.Second)))
	assert.Equal(t, ls.target, -1)
	assert.DeepEqual(t, ls.frame(), []muxCode{0, 1, 2, 3, 4, 5, muxPower})
}

func TestRepeatedCommandKeepsPhase(t *testing.T) {
	ls := newLightState(300 * time.Millisecond)
	now := time.Now()
	ls.apply(lightsPulse(1), now)
	ls.advance(now.Add(310 * time.Millisecond))
	assert.Assert(t, !ls.pulseOn)
	// same pulse again does not restart it lit
	assert.Assert(t, !ls.apply(lightsPulse(1), now.Add(310*time.Millisecond)))
	assert.Assert(t, !ls.pulseOn)
}

func TestShutdownIsTerminal(t *testing.T) {
	ls := newLightState(300 * time.Millisecond)
	now := time.Now()
	assert.Assert(t, ls.apply(lightsShutdown(), now))
	assert.Assert(t, !ls.apply(lightsPulse(1), now))
	assert.DeepEqual(t, ls.frame(), []muxCode{muxAllOff})
}

func lastWrites(lp *logPins, n int) []muxCode {
	w := lp.muxWrites()
	if len(w) < n {
		return w
	}
	return w[len(w)-n:]
}

func TestLightAnimatorRuns(t *testing.T) {
	rt, clock, comms := testRuntime()
	lp := testPins(rt)
	lp.disableLog = true

	go runLightAnimator(rt)
	// wait for one cycle to start
	clock.BlockUntil(1)
	assert.DeepEqual(t, lastWrites(lp, 7), []muxCode{0, 1, 2, 3, 4, 5, muxPower})

	comms.lights <- lightsPulse(2)
	testBlockDuration(clock, dLightSleep, dLightSleep)
	assert.DeepEqual(t, lastWrites(lp, 4), []muxCode{muxAllOff, 2, muxAllOff, muxPower})

	// 150ms into the pulse, still lit
	testBlockDuration(clock, dLightSleep, 150*time.Millisecond)
	assert.DeepEqual(t, lastWrites(lp, 4), []muxCode{muxAllOff, 2, muxAllOff, muxPower})

	// 320ms, dark half
	testBlockDuration(clock, dLightSleep, 170*time.Millisecond)
	assert.DeepEqual(t, lastWrites(lp, 4), []muxCode{muxAllOff, muxPower, muxAllOff, muxPower})

	// 460ms, still dark
	testBlockDuration(clock, dLightSleep, 140*time.Millisecond)
	assert.DeepEqual(t, lastWrites(lp, 4), []muxCode{muxAllOff, muxPower, muxAllOff, muxPower})

	// back to idle, the old target is not left on by itself
	comms.lights <- lightsIdle()
	testBlockDuration(clock, dLightSleep, dLightSleep)
	assert.DeepEqual(t, lastWrites(lp, 7), []muxCode{0, 1, 2, 3, 4, 5, muxPower})

	// shut down and join
	comms.lights <- lightsShutdown()
	clock.Advance(dLightSleep)
	waitClosed(t, comms.lightsDone, "light animator")
	assert.DeepEqual(t, lastWrites(lp, 1), []muxCode{muxAllOff})
}

func TestLightAnimatorIdleStep(t *testing.T) {
	rt, clock, comms := testRuntimeWith(map[string]interface{}{sIdleStep: time.Millisecond})
	lp := testPins(rt)

	go runLightAnimator(rt)
	// one hold after each light, then the frame sleep
	for i := 0; i < numChimes; i++ {
		clock.BlockUntil(1)
		assert.Equal(t, lastWrites(lp, 1)[0], lightMux(i))
		clock.Advance(time.Millisecond)
	}
	clock.BlockUntil(1)
	assert.Equal(t, lastWrites(lp, 1)[0], muxPower)

	comms.lights <- lightsShutdown()
	clock.Advance(dLightSleep)
	waitClosed(t, comms.lightsDone, "light animator")
}
