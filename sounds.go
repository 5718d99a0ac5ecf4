//go:build !noaudio
// +build !noaudio

package main

import (
	"io"
	"os"
	"sync"

	"github.com/bobertlo/go-mpg123/mpg123"
	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

func init() {
	features = append(features, "audio")
}

const framesPerBuf = 2048

func newAudioBackend(rt runtimeConfig, name string) (sounds, error) {
	volume := rt.settings.GetFloat(sVolume)
	switch name {
	case "mpg123":
		return newMpg123Sounds(volume), nil
	case "portaudio":
		return newPortaudioSounds(volume)
	case "beep":
		return newBeepSounds(volume), nil
	default:
		return nil, errors.Errorf("unknown audio backend %q", name)
	}
}

// openDecoder opens an mp3 and pins the output to 16 bit samples
func openDecoder(fname string) (*mpg123.Decoder, int64, int, error) {
	if _, err := os.Stat(fname); err != nil {
		return nil, 0, 0, err
	}

	decoder, err := mpg123.NewDecoder("")
	if err != nil {
		return nil, 0, 0, errors.Wrap(err, "mpg123 decoder")
	}

	if err = decoder.Open(fname); err != nil {
		decoder.Delete()
		return nil, 0, 0, errors.Wrapf(err, "open %s", fname)
	}

	// get audio format information
	rate, channels, _ := decoder.GetFormat()
	if rate <= 0 || channels <= 0 {
		decoder.Close()
		decoder.Delete()
		return nil, 0, 0, errors.Errorf("%s is not decodable", fname)
	}

	// make sure output format does not change
	decoder.FormatNone()
	decoder.Format(rate, channels, mpg123.ENC_SIGNED_16)

	return decoder, rate, channels, nil
}

func closeDecoder(decoder *mpg123.Decoder) {
	decoder.Close()
	decoder.Delete()
}

// probeClip checks that a clip exists and decodes before anything is started
func probeClip(fname string) error {
	decoder, _, _, err := openDecoder(fname)
	if err != nil {
		return newFault(audioLoadFault, err, "clip %s", fname)
	}
	closeDecoder(decoder)
	return nil
}

// scale little-endian 16 bit samples into out, zero filling the tail
func scaleSamples(b []byte, n int, volume float64, out []int16) {
	samples := n / 2
	for i := range out {
		if i >= samples {
			out[i] = 0
			continue
		}
		v := int16(uint16(b[2*i]) | uint16(b[2*i+1])<<8)
		out[i] = int16(float64(v) * volume)
	}
}

// portaudioSounds decodes in process and streams the samples itself
type portaudioSounds struct {
	volume float64
	logger flogger

	mu      sync.Mutex
	gen     int
	playing bool
	stopCh  chan struct{}
	done    chan struct{}
}

func newPortaudioSounds(volume float64) (*portaudioSounds, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, newFault(hardwareInitFault, err, "portaudio")
	}
	return &portaudioSounds{volume: volume, logger: &ThreadLogger{name: "Audio"}}, nil
}

func (ps *portaudioSounds) play(clip string) error {
	ps.stop()

	decoder, rate, channels, err := openDecoder(clip)
	if err != nil {
		return newFault(audioLoadFault, err, "clip %s", clip)
	}

	out := make([]int16, framesPerBuf*channels)
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(rate), framesPerBuf, out)
	if err != nil {
		closeDecoder(decoder)
		return newFault(audioLoadFault, err, "output stream")
	}
	if err = stream.Start(); err != nil {
		stream.Close()
		closeDecoder(decoder)
		return newFault(audioLoadFault, err, "start stream")
	}

	ps.mu.Lock()
	ps.gen++
	gen := ps.gen
	ps.playing = true
	ps.stopCh = make(chan struct{})
	ps.done = make(chan struct{})
	stopCh, done := ps.stopCh, ps.done
	ps.mu.Unlock()

	go func() {
		defer close(done)
		defer closeDecoder(decoder)
		defer stream.Close()

		raw := make([]byte, len(out)*2)
		for {
			select {
			case <-stopCh:
				stream.Stop()
				return
			default:
			}

			n, err := decoder.Read(raw)
			if n > 0 {
				scaleSamples(raw, n, ps.volume, out)
				if werr := stream.Write(); werr != nil {
					ps.logger.Printf("stream write: %s", werr.Error())
				}
			}
			if err != nil {
				if err != io.EOF {
					ps.logger.Printf("decode %s: %s", clip, err.Error())
				}
				stream.Stop()
				ps.finished(gen)
				return
			}
		}
	}()
	return nil
}

func (ps *portaudioSounds) finished(gen int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.gen == gen {
		ps.playing = false
	}
}

func (ps *portaudioSounds) stop() {
	ps.mu.Lock()
	stopCh, done := ps.stopCh, ps.done
	ps.stopCh, ps.done = nil, nil
	ps.gen++
	ps.playing = false
	ps.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done
}

func (ps *portaudioSounds) isPlaying() bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.playing
}

func (ps *portaudioSounds) close() {
	ps.stop()
	portaudio.Terminate()
}
