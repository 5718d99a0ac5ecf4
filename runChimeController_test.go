package main

import (
	"testing"
	"time"

	"gotest.tools/assert"
)

func testController(rt runtimeConfig) *chimeController {
	scanner := newMatrixScanner(rt)
	scanner.start()
	return newChimeController(rt, scanner)
}

// stepOnce runs one pass and fails if it asks to shut down
func stepOnce(t *testing.T, cc *chimeController) {
	reason, stop := cc.step()
	assert.Assert(t, !stop, "unexpected shutdown: %s", reason)
}

func TestStartEachChime(t *testing.T) {
	for i := 0; i < numChimes; i++ {
		rt, _, comms := testRuntime()
		cc := testController(rt)
		lp := testPins(rt)

		lp.press(i)
		stepOnce(t, cc)

		assert.Equal(t, cc.state, stateActive)
		assert.Equal(t, cc.active, i)
		assert.Equal(t, lightRead(t, comms.lights), lightsPulse(i))
		lightNoRead(t, comms.lights)
		assert.Equal(t, testDisplay(rt).showing(), i)
		assert.Equal(t, testSounds(rt).current, rt.chimes[i].audioClip)
		// the take cleared it
		assert.Equal(t, cc.scanner.currentSelection(), selNone)

		// held, nothing new happens
		stepOnce(t, cc)
		assert.Equal(t, testSounds(rt).playCount(), 1)
		lightNoRead(t, comms.lights)
	}
}

func TestRepressCancels(t *testing.T) {
	rt, _, comms := testRuntime()
	cc := testController(rt)
	lp := testPins(rt)
	ns := testSounds(rt)

	lp.press(2)
	stepOnce(t, cc)
	assert.Equal(t, lightRead(t, comms.lights), lightsPulse(2))

	lp.release(2)
	stepOnce(t, cc)
	assert.Equal(t, cc.state, stateActive)

	lp.press(2)
	stepOnce(t, cc)
	assert.Equal(t, cc.state, stateIdle)
	assert.Equal(t, lightRead(t, comms.lights), lightsIdle())
	assert.Assert(t, !ns.isPlaying())
	assert.Equal(t, testDisplay(rt).showing(), selNone)
	assert.Equal(t, cc.scanner.currentSelection(), selNone)

	// still held, does not start again
	stepOnce(t, cc)
	assert.Equal(t, cc.state, stateIdle)
	assert.Equal(t, ns.playCount(), 1)
}

func TestOtherButtonIgnoredWhileActive(t *testing.T) {
	rt, _, comms := testRuntime()
	cc := testController(rt)
	lp := testPins(rt)

	lp.press(0)
	stepOnce(t, cc)
	lightRead(t, comms.lights)
	lp.release(0)
	stepOnce(t, cc)

	lp.press(5)
	stepOnce(t, cc)
	assert.Equal(t, cc.state, stateActive)
	assert.Equal(t, cc.active, 0)
	lightNoRead(t, comms.lights)
	// consumed, not left waiting for the chime to end
	assert.Equal(t, cc.scanner.currentSelection(), selNone)
	assert.Equal(t, testSounds(rt).playCount(), 1)
}

func TestChimeCompletes(t *testing.T) {
	rt, _, comms := testRuntime()
	cc := testController(rt)
	lp := testPins(rt)

	lp.press(1)
	stepOnce(t, cc)
	lightRead(t, comms.lights)

	testSounds(rt).finish()
	stepOnce(t, cc)
	assert.Equal(t, cc.state, stateIdle)
	assert.Equal(t, lightRead(t, comms.lights), lightsIdle())
	assert.Equal(t, testDisplay(rt).showing(), selNone)

	// holding through the end does not restart it
	stepOnce(t, cc)
	assert.Equal(t, cc.state, stateIdle)

	assert.DeepEqual(t, testEvents(rt).kinds(), []eventKind{evChimeStart, evChimeEnd})
	assert.Equal(t, testEvents(rt).events()[1].Reason, endFinished)
}

func TestAudioLoadFailure(t *testing.T) {
	rt, _, comms := testRuntime()
	cc := testController(rt)
	lp := testPins(rt)
	testSounds(rt).failClip(rt.chimes[3].audioClip)

	lp.press(3)
	stepOnce(t, cc)
	assert.Equal(t, cc.state, stateIdle)
	lightNoRead(t, comms.lights)
	assert.Equal(t, len(testDisplay(rt).auditLog()), 0)
	assert.DeepEqual(t, testEvents(rt).kinds(), []eventKind{evChimeFailed})
	snap := rt.status.snapshot()
	assert.Assert(t, snap.LastError != "")
	assert.Equal(t, snap.FailedChime, 3)
	assert.Equal(t, snap.State, "idle")

	// a different chime still works
	lp.release(3)
	stepOnce(t, cc)
	lp.press(4)
	stepOnce(t, cc)
	assert.Equal(t, cc.state, stateActive)
	assert.Equal(t, lightRead(t, comms.lights), lightsPulse(4))
}

func TestInterruptStops(t *testing.T) {
	rt, _, comms := testRuntime()
	cc := testController(rt)

	comms.requestQuit()
	// safe to ask twice
	comms.requestQuit()
	reason, stop := cc.step()
	assert.Assert(t, stop)
	assert.Equal(t, reason, shutdownInterrupt)
}

func TestPowerButtonStops(t *testing.T) {
	rt, _, _ := testRuntime()
	cc := testController(rt)

	testPins(rt).setPower(true)
	reason, stop := cc.step()
	assert.Assert(t, stop)
	assert.Equal(t, reason, shutdownPower)
}

// shutdown with no animator running: the join times out and teardown goes on
func TestShutdownJoinTimeout(t *testing.T) {
	rt, clock, comms := testRuntime()
	cc := testController(rt)
	lp := testPins(rt)

	lp.press(3)
	stepOnce(t, cc)
	assert.Equal(t, lightRead(t, comms.lights), lightsPulse(3))

	done := make(chan struct{})
	go func() {
		defer close(done)
		cc.shutdown(shutdownInterrupt)
	}()

	// waiting on the join
	clock.BlockUntil(1)
	// chime torn down before the animator is told to stop
	assert.Equal(t, lightRead(t, comms.lights), lightsIdle())
	assert.Equal(t, lightRead(t, comms.lights), lightsShutdown())
	assert.Assert(t, !testSounds(rt).isPlaying())
	assert.Equal(t, cc.scanner.currentSelection(), selNone)
	assert.Assert(t, !lp.isClosed())

	clock.Advance(rt.settings.GetDuration(sShutdownWt))
	waitClosed(t, done, "shutdown")

	assert.Assert(t, testSounds(rt).isClosed())
	assert.Assert(t, lp.isClosed())
	assert.Equal(t, lp.activeRows(), [numRows]bool{})
	audit := testDisplay(rt).auditLog()
	assert.DeepEqual(t, audit[len(audit)-2:], []string{"clear", "close"})
	assert.DeepEqual(t, testEvents(rt).kinds(), []eventKind{evChimeStart, evChimeEnd, evShutdown})
	assert.Equal(t, testEvents(rt).events()[1].Reason, endShutdown)
	assert.Assert(t, testEvents(rt).closed)
	// interrupt does not power off the host
	assert.Equal(t, testPower(rt).requests, 0)
	assert.Equal(t, rt.status.snapshot().State, "shutdown:interrupt")
}

func TestShutdownJoinsAnimator(t *testing.T) {
	rt, clock, comms := testRuntime()
	cc := testController(rt)
	lp := testPins(rt)

	go runLightAnimator(rt)
	clock.BlockUntil(1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		cc.shutdown(shutdownPower)
	}()

	// animator asleep plus the join timeout
	clock.BlockUntil(2)
	clock.Advance(dLightSleep)
	waitClosed(t, comms.lightsDone, "light animator")
	waitClosed(t, done, "shutdown")

	assert.Assert(t, lp.isClosed())
	assert.Equal(t, testPower(rt).requests, 1)
	assert.DeepEqual(t, testEvents(rt).kinds(), []eventKind{evShutdown})
	assert.Equal(t, testEvents(rt).events()[0].Reason, string(shutdownPower))
}

type panicSounds struct {
	*noSounds
}

func (ps panicSounds) play(clip string) error {
	panic("audio exploded")
}

func TestPanicShutsDown(t *testing.T) {
	rt, clock, comms := testRuntime()
	rt.sounds = panicSounds{newNoSounds()}
	lp := testPins(rt)
	scanner := newMatrixScanner(rt)
	scanner.start()

	lp.press(0)
	done := make(chan shutdownReason, 1)
	go func() {
		done <- runChimeController(rt, scanner)
	}()

	// join timeout, no animator running
	clock.BlockUntil(1)
	clock.Advance(rt.settings.GetDuration(sShutdownWt))

	select {
	case reason := <-done:
		assert.Equal(t, reason, shutdownPanic)
	case <-time.After(time.Second):
		assert.Assert(t, false, "controller did not stop")
	}
	assert.Equal(t, lightRead(t, comms.lights), lightsShutdown())
	assert.Assert(t, lp.isClosed())
}

// press chime 3, let it pulse, it finishes on its own, back to idle
func TestChimeThreeScenario(t *testing.T) {
	rt, clock, comms := testRuntime()
	lp := testPins(rt)
	lp.disableLog = true
	ns := testSounds(rt)
	scanner := newMatrixScanner(rt)
	scanner.start()
	cc := newChimeController(rt, scanner)

	go runLightAnimator(rt)
	clock.BlockUntil(1)

	lp.press(3)
	stepOnce(t, cc)
	lp.release(3)
	assert.Equal(t, ns.current, rt.chimes[3].audioClip)
	assert.Equal(t, testDisplay(rt).showing(), rt.chimes[3].imageKey)

	testBlockDuration(clock, dLightSleep, dLightSleep)
	assert.DeepEqual(t, lastWrites(lp, 4), []muxCode{muxAllOff, 3, muxAllOff, muxPower})

	testBlockDuration(clock, dLightSleep, 320*time.Millisecond)
	assert.DeepEqual(t, lastWrites(lp, 2), []muxCode{muxAllOff, muxPower})

	ns.finish()
	stepOnce(t, cc)
	assert.Equal(t, cc.state, stateIdle)
	testBlockDuration(clock, dLightSleep, dLightSleep)
	assert.DeepEqual(t, lastWrites(lp, 7), []muxCode{0, 1, 2, 3, 4, 5, muxPower})
	assert.Equal(t, testDisplay(rt).showing(), selNone)
	assert.Equal(t, ns.playCount(), 1)
	assert.Assert(t, !ns.isPlaying())
	assert.DeepEqual(t, testDisplay(rt).auditLog(), []string{"show 3", "clear"})
	assert.Equal(t, scanner.currentSelection(), selNone)

	comms.requestQuit()
	reason, stop := cc.step()
	assert.Assert(t, stop)
	done := make(chan struct{})
	go func() {
		defer close(done)
		cc.shutdown(reason)
	}()
	clock.BlockUntil(2)
	clock.Advance(dLightSleep)
	waitClosed(t, done, "shutdown")
	assert.Equal(t, lastWrites(lp, 1)[0], muxAllOff)
	assert.Assert(t, lp.isClosed())
	assert.Assert(t, scanner.stopped)
	assert.DeepEqual(t, testDisplay(rt).auditLog(), []string{"show 3", "clear", "close"})
}
