package main

import (
	"fmt"
)

type chimeState int

const (
	stateIdle chimeState = iota
	stateActive
)

func (s chimeState) String() string {
	if s == stateActive {
		return "active"
	}
	return "idle"
}

type shutdownReason string

const (
	shutdownInterrupt shutdownReason = "interrupt"
	shutdownPower     shutdownReason = "power-button"
	shutdownPanic     shutdownReason = "panic"
)

// why a chime ended
const (
	endCancelled = "cancelled"
	endFinished  = "finished"
	endShutdown  = "shutdown"
)

type chimeController struct {
	rt      runtimeConfig
	scanner *matrixScanner
	state   chimeState
	active  int
}

func newChimeController(rt runtimeConfig, scanner *matrixScanner) *chimeController {
	return &chimeController{rt: rt, scanner: scanner, state: stateIdle, active: selNone}
}

// runChimeController runs the main loop until an interrupt or the power
// button, then tears everything down.  Returns the reason it stopped.
func runChimeController(rt runtimeConfig, scanner *matrixScanner) shutdownReason {
	rt = rt.withLogger("Controller")
	cc := newChimeController(rt, scanner)
	reason := cc.loop()
	cc.shutdown(reason)
	return reason
}

func (cc *chimeController) loop() (reason shutdownReason) {
	defer func() {
		if r := recover(); r != nil {
			cc.rt.logger.Printf("recovered from panic: %v", r)
			reason = shutdownPanic
		}
	}()

	pollTime := cc.rt.settings.GetDuration(sPollTime)
	for {
		if reason, stop := cc.step(); stop {
			return reason
		}
		cc.rt.clock.Sleep(pollTime)
	}
}

// step is one pass of the loop, true when it is time to shut down
func (cc *chimeController) step() (shutdownReason, bool) {
	select {
	case <-cc.rt.comms.quit:
		cc.rt.logger.Println("interrupt requested")
		return shutdownInterrupt, true
	default:
	}

	if cc.scanner.powerPressed() {
		cc.rt.logger.Println("power button pressed")
		return shutdownPower, true
	}

	if !cc.scanner.edgeMode {
		cc.scanner.poll()
	}

	sel := cc.scanner.takeSelection()
	switch cc.state {
	case stateIdle:
		if sel >= 0 {
			cc.startChime(sel)
		}
	case stateActive:
		if sel == cc.active {
			cc.endChime(endCancelled)
		} else if !cc.rt.sounds.isPlaying() {
			cc.endChime(endFinished)
		} else if sel >= 0 {
			cc.rt.logger.Printf("ignoring button %d, chime %d is playing", sel, cc.active)
		}
	}
	return "", false
}

func (cc *chimeController) startChime(i int) {
	if i < 0 || i >= len(cc.rt.chimes) {
		cc.rt.logger.Printf("no chime for button %d", i)
		return
	}
	chime := cc.rt.chimes[i]

	if err := cc.rt.sounds.play(chime.audioClip); err != nil {
		if !isFault(err, audioLoadFault) {
			err = newFault(audioLoadFault, err, "chime %d (%s)", i, chime.name)
		}
		cc.rt.logger.Println(err.Error())
		cc.rt.status.chimeFailed(i, err)
		cc.publish(chimeEvent{Kind: evChimeFailed, Chime: i, Name: chime.name, Reason: err.Error()})
		return
	}

	if err := cc.rt.display.show(chime.imageKey); err != nil {
		cc.rt.logger.Printf("display failed: %s", err.Error())
	}
	cc.sendLights(lightsPulse(chime.light))
	cc.state = stateActive
	cc.active = i

	cc.rt.logger.Printf("playing chime %d (%s)", i, chime.name)
	cc.rt.status.chimeStarted(i, chime.name)
	cc.publish(chimeEvent{Kind: evChimeStart, Chime: i, Name: chime.name})
}

func (cc *chimeController) endChime(why string) {
	i := cc.active
	cc.rt.sounds.stop()
	cc.sendLights(lightsIdle())
	if err := cc.rt.display.clear(); err != nil {
		cc.rt.logger.Printf("display clear failed: %s", err.Error())
	}
	cc.scanner.clearSelection()
	cc.state = stateIdle
	cc.active = selNone

	cc.rt.logger.Printf("chime %d %s", i, why)
	cc.rt.status.chimeEnded()
	cc.publish(chimeEvent{Kind: evChimeEnd, Chime: i, Name: cc.chimeName(i), Reason: why})
}

// shutdown releases everything in order, the animator is joined before the
// pins are closed
func (cc *chimeController) shutdown(reason shutdownReason) {
	cc.rt.logger.Printf("shutting down (%s)", reason)
	if cc.state == stateActive {
		cc.endChime(endShutdown)
	}

	cc.sendLights(lightsShutdown())
	wait := cc.rt.settings.GetDuration(sShutdownWt)
	select {
	case <-cc.rt.comms.lightsDone:
	case <-cc.rt.clock.After(wait):
		err := newFault(shutdownRaceFault, nil, "light animator still running after %v", wait)
		cc.rt.logger.Println(err.Error())
	}

	cc.scanner.stop()
	cc.rt.sounds.close()
	if err := cc.rt.display.close(); err != nil {
		cc.rt.logger.Printf("display close: %s", err.Error())
	}
	if err := cc.rt.pins.close(); err != nil {
		cc.rt.logger.Printf("pins close: %s", err.Error())
	}

	cc.rt.status.shutdown(string(reason))
	cc.publish(chimeEvent{Kind: evShutdown, Chime: selNone, Reason: string(reason)})
	cc.rt.events.close()

	if reason != shutdownPower {
		return
	}
	if err := cc.rt.power.powerOff(); err != nil {
		cc.rt.logger.Printf("host power-off failed: %s", err.Error())
	}
}

// sendLights never blocks once the animator has exited
func (cc *chimeController) sendLights(cmd lightCommand) {
	select {
	case cc.rt.comms.lights <- cmd:
		cc.rt.status.setLightPhase(cmd.phase)
	case <-cc.rt.comms.lightsDone:
		cc.rt.logger.Printf("animator gone, dropped %v", cmd.phase)
	}
}

func (cc *chimeController) publish(e chimeEvent) {
	cc.rt.status.addEvent()
	cc.rt.events.publish(e)
}

func (cc *chimeController) chimeName(i int) string {
	if i < 0 || i >= len(cc.rt.chimes) {
		return fmt.Sprintf("chime%d", i)
	}
	return cc.rt.chimes[i].name
}
