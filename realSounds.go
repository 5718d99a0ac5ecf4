//go:build !noaudio
// +build !noaudio

package main

import (
	"os/exec"
	"strconv"
	"sync"
)

// mpg123 scales output by -f, 32768 is unity
const mpg123Unity = 32768

// mpg123Sounds runs the mpg123 binary, the pi's audio stack is happiest with it
type mpg123Sounds struct {
	player string
	volume float64
	logger flogger

	mu      sync.Mutex
	cmd     *exec.Cmd
	gen     int
	playing bool
}

func newMpg123Sounds(volume float64) *mpg123Sounds {
	return &mpg123Sounds{player: "mpg123", volume: volume, logger: &ThreadLogger{name: "Audio"}}
}

func (ms *mpg123Sounds) args(clip string) []string {
	scale := int(ms.volume * mpg123Unity)
	return []string{"-q", "-f", strconv.Itoa(scale), clip}
}

func (ms *mpg123Sounds) play(clip string) error {
	ms.stop()

	// mpg123 exits quietly on a bad file, check it here so the caller hears about it
	if err := probeClip(clip); err != nil {
		return err
	}

	cmd := exec.Command(ms.player, ms.args(clip)...)
	if err := cmd.Start(); err != nil {
		return newFault(audioLoadFault, err, "start %s", ms.player)
	}

	ms.mu.Lock()
	ms.gen++
	gen := ms.gen
	ms.cmd = cmd
	ms.playing = true
	ms.mu.Unlock()

	go func() {
		err := cmd.Wait()
		ms.mu.Lock()
		defer ms.mu.Unlock()
		if ms.gen != gen {
			// stopped or replaced
			return
		}
		ms.playing = false
		ms.cmd = nil
		if err != nil {
			ms.logger.Printf("%s: %v", clip, err)
		}
	}()
	return nil
}

func (ms *mpg123Sounds) stop() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.cmd == nil {
		return
	}
	ms.logger.Println("Stopping playback")
	ms.cmd.Process.Kill()
	ms.cmd = nil
	ms.playing = false
	ms.gen++
}

func (ms *mpg123Sounds) isPlaying() bool {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.playing
}

func (ms *mpg123Sounds) close() {
	ms.stop()
}
