package main

import (
	"sync"

	"github.com/pkg/errors"
)

// noSounds pretends to play, clips "finish" when a test says so
type noSounds struct {
	mu      sync.Mutex
	playing bool
	current string
	played  []string
	stops   int
	closed  bool
	failing map[string]bool
	logger  flogger
}

func newNoSounds() *noSounds {
	return &noSounds{failing: map[string]bool{}, logger: &ThreadLogger{name: "Audio"}}
}

func (ns *noSounds) play(clip string) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.logger.Println("STUB: play " + clip)
	ns.playing = false
	if ns.failing[clip] {
		return newFault(audioLoadFault, errors.New("no such clip"), "clip %s", clip)
	}
	ns.current = clip
	ns.played = append(ns.played, clip)
	ns.playing = true
	return nil
}

func (ns *noSounds) stop() {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.stops++
	ns.playing = false
	ns.current = ""
}

func (ns *noSounds) isPlaying() bool {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.playing
}

func (ns *noSounds) close() {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.playing = false
	ns.closed = true
}

// test helpers

func (ns *noSounds) finish() {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.playing = false
}

func (ns *noSounds) failClip(clip string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.failing[clip] = true
}

func (ns *noSounds) playCount() int {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return len(ns.played)
}

func (ns *noSounds) isClosed() bool {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.closed
}
