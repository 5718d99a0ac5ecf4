// utility functions
package main

import (
	"sync"

	"github.com/jonboulle/clockwork"
)

type commChannels struct {
	quit       chan struct{}     // closed on an external interrupt
	lights     chan lightCommand // controller -> animator
	lightsDone chan struct{}     // closed when the animator exits
	quitOnce   *sync.Once
}

// requestQuit is safe to call from any goroutine, any number of times
func (c commChannels) requestQuit() {
	c.quitOnce.Do(func() { close(c.quit) })
}

type runtimeConfig struct {
	settings configSettings
	comms    commChannels
	clock    clockwork.Clock
	logger   flogger
	chimes   []chimeDefinition
	pins     pins
	sounds   sounds
	display  display
	power    hostPower
	events   eventFeed
	status   *chimeStatus
}

// list of compiled-in backends, filled in by init() in the backend files
var features []string

func initCommChannels() commChannels {
	return commChannels{
		quit:       make(chan struct{}),
		lights:     make(chan lightCommand, 16),
		lightsDone: make(chan struct{}),
		quitOnce:   &sync.Once{},
	}
}

func initRuntime(settings configSettings, clock clockwork.Clock) runtimeConfig {
	return runtimeConfig{
		settings: settings,
		comms:    initCommChannels(),
		clock:    clock,
		logger:   &ThreadLogger{name: "Main"},
		chimes:   loadChimes(settings),
		status:   newChimeStatus(clock.Now()),
	}
}

// withLogger returns a copy of rt that logs under a different name
func (rt runtimeConfig) withLogger(name string) runtimeConfig {
	rt.logger = &ThreadLogger{name: name}
	return rt
}
