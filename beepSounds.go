//go:build !noaudio
// +build !noaudio

package main

import (
	"math"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
)

// beepSounds decodes with beep and lets the speaker mixer tell us when a
// clip runs out
type beepSounds struct {
	volume float64
	logger flogger

	mu          sync.Mutex
	speakerRate beep.SampleRate
	gen         int
	playing     bool
	current     beep.StreamSeekCloser
}

func newBeepSounds(volume float64) *beepSounds {
	return &beepSounds{volume: volume, logger: &ThreadLogger{name: "Audio"}}
}

func (bs *beepSounds) play(clip string) error {
	bs.stop()

	f, err := os.Open(clip)
	if err != nil {
		return newFault(audioLoadFault, err, "clip %s", clip)
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return newFault(audioLoadFault, err, "decode %s", clip)
	}

	bs.mu.Lock()
	if bs.speakerRate == 0 {
		// the speaker runs at the rate of the first clip, later ones get resampled
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			bs.mu.Unlock()
			streamer.Close()
			return newFault(audioLoadFault, err, "speaker")
		}
		bs.speakerRate = format.SampleRate
	}
	var s beep.Streamer = streamer
	if format.SampleRate != bs.speakerRate {
		s = beep.Resample(4, format.SampleRate, bs.speakerRate, streamer)
	}
	bs.gen++
	gen := bs.gen
	bs.playing = true
	bs.current = streamer
	bs.mu.Unlock()

	vol := &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   math.Log2(bs.volume),
		Silent:   bs.volume <= 0,
	}
	speaker.Play(beep.Seq(vol, beep.Callback(func() {
		bs.finished(gen)
	})))
	return nil
}

// finished runs on the speaker goroutine
func (bs *beepSounds) finished(gen int) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if bs.gen == gen {
		bs.playing = false
	}
}

func (bs *beepSounds) stop() {
	bs.mu.Lock()
	ready := bs.speakerRate != 0
	bs.mu.Unlock()
	if ready {
		// takes the speaker lock, so never called with bs.mu held
		speaker.Clear()
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()
	if bs.current != nil {
		bs.current.Close()
		bs.current = nil
	}
	bs.gen++
	bs.playing = false
}

func (bs *beepSounds) isPlaying() bool {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.playing
}

func (bs *beepSounds) close() {
	bs.stop()
}
