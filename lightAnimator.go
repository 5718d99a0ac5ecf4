package main

import (
	"fmt"
	"time"
)

// muxCode is the 3-bit address on S0 (high bit), S1, S2
type muxCode uint8

// lights 0-5 use codes 0-5
const (
	muxPower  muxCode = 6
	muxAllOff muxCode = 7
)

func lightMux(light int) muxCode {
	return muxCode(light)
}

// lines returns the S0, S1, S2 levels for the code
func (c muxCode) lines() [3]bool {
	return [3]bool{c&4 != 0, c&2 != 0, c&1 != 0}
}

func (c muxCode) String() string {
	switch c {
	case muxPower:
		return "power"
	case muxAllOff:
		return "off"
	default:
		return fmt.Sprintf("light%d", int(c))
	}
}

type lightPhase int

const (
	phaseIdle lightPhase = iota
	phasePulse
	phaseShuttingDown
)

func (p lightPhase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phasePulse:
		return "pulse"
	case phaseShuttingDown:
		return "shutting-down"
	default:
		return "unknown"
	}
}

// lightCommand always carries both fields so the animator never sees half an update
type lightCommand struct {
	phase  lightPhase
	target int
}

// channel messaging functions
func lightsIdle() lightCommand {
	return lightCommand{phase: phaseIdle, target: -1}
}

func lightsPulse(light int) lightCommand {
	return lightCommand{phase: phasePulse, target: light}
}

func lightsShutdown() lightCommand {
	return lightCommand{phase: phaseShuttingDown, target: -1}
}

// lightState is owned by the animator goroutine
type lightState struct {
	phase      lightPhase
	target     int
	pulseTime  time.Duration
	pulseOn    bool
	lastToggle time.Time
}

func newLightState(pulseTime time.Duration) *lightState {
	return &lightState{phase: phaseIdle, target: -1, pulseTime: pulseTime}
}

// apply returns false for a command that changes nothing
func (ls *lightState) apply(cmd lightCommand, now time.Time) bool {
	if ls.phase == phaseShuttingDown {
		// terminal
		return false
	}
	if cmd.phase == ls.phase && cmd.target == ls.target {
		return false
	}
	ls.phase = cmd.phase
	ls.target = cmd.target
	if cmd.phase == phasePulse {
		// pulses start lit
		ls.pulseOn = true
		ls.lastToggle = now
	}
	return true
}

// advance flips the pulse once for every half period that has gone by
func (ls *lightState) advance(now time.Time) {
	if ls.phase != phasePulse || ls.pulseTime <= 0 {
		return
	}
	for now.Sub(ls.lastToggle) >= ls.pulseTime {
		ls.pulseOn = !ls.pulseOn
		ls.lastToggle = ls.lastToggle.Add(ls.pulseTime)
	}
}

// frame is the list of mux writes for one pass of the animator
func (ls *lightState) frame() []muxCode {
	switch ls.phase {
	case phaseIdle:
		codes := make([]muxCode, 0, numChimes+1)
		for i := 0; i < numChimes; i++ {
			codes = append(codes, lightMux(i))
		}
		return append(codes, muxPower)
	case phasePulse:
		// all-off between writes keeps the shared lines from ghosting
		codes := []muxCode{muxAllOff}
		if ls.pulseOn && ls.target >= 0 && ls.target < numChimes {
			codes = append(codes, lightMux(ls.target), muxAllOff)
		}
		return append(codes, muxPower)
	default:
		return []muxCode{muxAllOff}
	}
}

func startLightAnimator(rt runtimeConfig) {
	go runLightAnimator(rt.withLogger("Lights"))
}

func runLightAnimator(rt runtimeConfig) {
	defer close(rt.comms.lightsDone)
	defer func() {
		rt.logger.Println("exiting runLightAnimator")
	}()

	settings := rt.settings
	tick := settings.GetDuration(sLightTime)
	idleStep := settings.GetDuration(sIdleStep)
	ls := newLightState(settings.GetDuration(sPulseTime))
	muxFailing := false

	for {
		now := rt.clock.Now()

		// read all incoming messages at once
		keepReading := true
		for keepReading {
			select {
			case cmd := <-rt.comms.lights:
				if ls.apply(cmd, now) {
					rt.logger.Printf("lights %v (target %d)", cmd.phase, cmd.target)
				}
			default:
				keepReading = false
			}
		}

		ls.advance(now)
		frame := ls.frame()
		for i, code := range frame {
			err := rt.pins.setMux(code)
			if err != nil && !muxFailing {
				rt.logger.Printf("mux write failed: %s", err.Error())
			} else if err == nil && muxFailing {
				rt.logger.Println("mux writes recovered")
			}
			muxFailing = err != nil

			// optional per-light hold while rotating
			if ls.phase == phaseIdle && idleStep > 0 && i < len(frame)-1 {
				rt.clock.Sleep(idleStep)
			}
		}

		if ls.phase == phaseShuttingDown {
			return
		}

		rt.clock.Sleep(tick)
	}
}
