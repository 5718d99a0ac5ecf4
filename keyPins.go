package main

import (
	"fmt"
	"sync"
	"time"

	// keyboard for sim mode
	"github.com/nsf/termbox-go"
)

const (
	keyHold    = 100 * time.Millisecond
	keyRedraw  = 50 * time.Millisecond
	keyLitTime = 25 * time.Millisecond
)

func init() {
	features = append(features, "keyboard-pins")
}

// keyPins runs the simulated matrix from the terminal: 1-6 press a button,
// p holds the power button, ctrl-c quits
type keyPins struct {
	*logPins
	rt runtimeConfig

	mu        sync.Mutex
	lastWrite [8]time.Time
	stop      chan struct{}
	wg        sync.WaitGroup
}

func newKeyPins() *keyPins {
	lp := newLogPins()
	// the terminal belongs to termbox
	lp.disableLog = true
	return &keyPins{logPins: lp}
}

func (kp *keyPins) open(rt runtimeConfig) error {
	kp.rt = rt
	if err := termbox.Init(); err != nil {
		return newFault(hardwareInitFault, err, "termbox")
	}
	termbox.SetInputMode(termbox.InputEsc)

	if err := kp.logPins.open(rt); err != nil {
		termbox.Close()
		return err
	}

	kp.stop = make(chan struct{})
	kp.wg.Add(2)
	go kp.readKeys()
	go kp.redraw()
	return nil
}

func (kp *keyPins) setMux(code muxCode) error {
	kp.mu.Lock()
	kp.lastWrite[code&7] = kp.rt.clock.Now()
	kp.mu.Unlock()
	return kp.logPins.setMux(code)
}

func (kp *keyPins) readKeys() {
	defer kp.wg.Done()
	for {
		ev := termbox.PollEvent()
		switch ev.Type {
		case termbox.EventInterrupt:
			return
		case termbox.EventKey:
			if ev.Key == termbox.KeyCtrlC {
				kp.rt.comms.requestQuit()
				continue
			}
			switch {
			case ev.Ch >= '1' && ev.Ch <= '6':
				button := int(ev.Ch - '1')
				kp.press(button)
				go func() {
					kp.rt.clock.Sleep(keyHold)
					kp.release(button)
				}()
			case ev.Ch == 'p' || ev.Ch == 'P':
				kp.setPower(true)
			}
		}
	}
}

func (kp *keyPins) lit(code muxCode, now time.Time) bool {
	kp.mu.Lock()
	defer kp.mu.Unlock()
	return now.Sub(kp.lastWrite[code]) < keyLitTime
}

func drawText(x int, y int, fg termbox.Attribute, msg string) {
	for i, ch := range msg {
		termbox.SetCell(x+i, y, ch, fg, termbox.ColorDefault)
	}
}

func (kp *keyPins) redraw() {
	defer kp.wg.Done()
	for {
		select {
		case <-kp.stop:
			return
		default:
		}

		now := kp.rt.clock.Now()
		termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
		drawText(0, 0, termbox.ColorDefault, "chimebox: 1-6 chime, p power, ctrl-c quit")
		for i := 0; i < numChimes; i++ {
			fg := termbox.ColorDefault
			if kp.lit(lightMux(i), now) {
				fg = termbox.ColorYellow | termbox.AttrBold
			}
			drawText(i*4, 2, fg, fmt.Sprintf("[%d]", i+1))
		}
		fg := termbox.ColorDefault
		if kp.lit(muxPower, now) {
			fg = termbox.ColorRed | termbox.AttrBold
		}
		drawText(numChimes*4+2, 2, fg, "(pwr)")
		termbox.Flush()

		kp.rt.clock.Sleep(keyRedraw)
	}
}

func (kp *keyPins) close() error {
	if kp.stop != nil {
		close(kp.stop)
		termbox.Interrupt()
		kp.wg.Wait()
		termbox.Close()
		kp.stop = nil
	}
	return kp.logPins.close()
}
