//go:build linux
// +build linux

package main

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

func init() {
	features = append(features, "gpiocdev-pins")
}

// cdevPins uses the gpio character device.  The three mux lines are one
// request so a code change is a single atomic write.
type cdevPins struct {
	layout pinLayout
	chip   *gpiocdev.Chip
	mux    *gpiocdev.Lines
	rows   [numRows]*gpiocdev.Line
	cols   [numCols]*gpiocdev.Line
	power  *gpiocdev.Line
	logger flogger

	mu     sync.Mutex
	onEdge func(col int)
}

func newCdevPins() (pins, error) {
	return &cdevPins{}, nil
}

func (cp *cdevPins) open(rt runtimeConfig) error {
	cp.layout = loadPinLayout(rt.settings)
	cp.logger = &ThreadLogger{name: "Pins"}

	chipName := rt.settings.GetString(sGPIOChip)
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return newFault(hardwareInitFault, err, "open gpio chip %s", chipName)
	}
	cp.chip = chip

	cp.mux, err = chip.RequestLines(cp.layout.mux[:], gpiocdev.AsOutput(1, 1, 1))
	if err != nil {
		cp.close()
		return newFault(hardwareInitFault, err, "request mux lines %v", cp.layout.mux)
	}

	for i, n := range cp.layout.rows {
		// high is inactive
		cp.rows[i], err = chip.RequestLine(n, gpiocdev.AsOutput(1))
		if err != nil {
			cp.close()
			return newFault(hardwareInitFault, err, "request row %d (line %d)", i, n)
		}
	}

	for i, n := range cp.layout.cols {
		col := i
		cp.cols[i], err = chip.RequestLine(n,
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithFallingEdge,
			gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
				cp.columnEvent(col)
			}))
		if err != nil {
			cp.close()
			return newFault(hardwareInitFault, err, "request column %d (line %d)", i, n)
		}
	}

	cp.power, err = chip.RequestLine(cp.layout.power, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		cp.close()
		return newFault(hardwareInitFault, err, "request power line %d", cp.layout.power)
	}

	cp.logger.Printf("opened %s, layout %+v", chipName, cp.layout)
	return nil
}

// events arrive on the library's watcher goroutine
func (cp *cdevPins) columnEvent(col int) {
	cp.mu.Lock()
	onEdge := cp.onEdge
	cp.mu.Unlock()
	if onEdge != nil {
		onEdge(col)
	}
}

func (cp *cdevPins) setMux(code muxCode) error {
	lines := code.lines()
	values := make([]int, len(lines))
	for i, on := range lines {
		if on {
			values[i] = 1
		}
	}
	return cp.mux.SetValues(values)
}

func (cp *cdevPins) setRow(row int, active bool) {
	v := 1
	if active {
		v = 0
	}
	if err := cp.rows[row].SetValue(v); err != nil {
		cp.logger.Printf("row %d: %s", row, err.Error())
	}
}

func (cp *cdevPins) readColumn(col int) bool {
	v, err := cp.cols[col].Value()
	if err != nil {
		cp.logger.Printf("column %d: %s", col, err.Error())
		return false
	}
	return v == 0
}

func (cp *cdevPins) powerPressed() bool {
	v, err := cp.power.Value()
	if err != nil {
		return false
	}
	return v == 0
}

func (cp *cdevPins) watchColumns(onEdge func(col int)) error {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.onEdge = onEdge
	return nil
}

// close blanks the mux and hands every line back as an input
func (cp *cdevPins) close() error {
	cp.mu.Lock()
	cp.onEdge = nil
	cp.mu.Unlock()

	// closing a column waits for its event handler to return
	var errs []error
	for i, c := range cp.cols {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, errors.Wrapf(err, "close column %d", i))
		}
		cp.cols[i] = nil
	}
	if cp.mux != nil {
		if err := cp.setMux(muxAllOff); err != nil {
			errs = append(errs, errors.Wrap(err, "mux off"))
		}
		if err := cp.mux.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close mux"))
		}
		cp.mux = nil
	}
	for i, r := range cp.rows {
		if r == nil {
			continue
		}
		if err := r.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, errors.Wrapf(err, "release row %d", i))
		}
		if err := r.Close(); err != nil {
			errs = append(errs, errors.Wrapf(err, "close row %d", i))
		}
		cp.rows[i] = nil
	}
	if cp.power != nil {
		if err := cp.power.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close power"))
		}
		cp.power = nil
	}
	if cp.chip != nil {
		if err := cp.chip.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close chip"))
		}
		cp.chip = nil
	}

	if len(errs) > 0 {
		return errors.Errorf("close errors: %v", errs)
	}
	return nil
}
