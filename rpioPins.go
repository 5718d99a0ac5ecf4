package main

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stianeikeland/go-rpio/v4"
)

func init() {
	features = append(features, "rpio-pins")
}

// rpioPins drives the lines through /dev/gpiomem.  Rows and columns are
// active low, the power button is pulled up and pressed when low.
type rpioPins struct {
	layout   pinLayout
	mux      [3]rpio.Pin
	rows     [numRows]rpio.Pin
	cols     [numCols]rpio.Pin
	power    rpio.Pin
	clock    clockwork.Clock
	edgeTime time.Duration
	logger   flogger

	mu       sync.Mutex
	stopEdge chan struct{}
	edgeDone chan struct{}
}

func (rp *rpioPins) open(rt runtimeConfig) error {
	rp.layout = loadPinLayout(rt.settings)
	rp.clock = rt.clock
	rp.edgeTime = rt.settings.GetDuration(sEdgeTime)
	rp.logger = &ThreadLogger{name: "Pins"}

	if err := rpio.Open(); err != nil {
		return newFault(hardwareInitFault, err, "rpio")
	}

	for i, n := range rp.layout.mux {
		rp.mux[i] = rpio.Pin(n)
		rp.mux[i].Output()
	}
	rp.setMux(muxAllOff)

	for i, n := range rp.layout.rows {
		rp.rows[i] = rpio.Pin(n)
		rp.rows[i].Output()
		rp.rows[i].High()
	}

	for i, n := range rp.layout.cols {
		rp.cols[i] = rpio.Pin(n)
		rp.cols[i].Input()
		rp.cols[i].PullUp() // GND => button press
	}

	rp.power = rpio.Pin(rp.layout.power)
	rp.power.Input()
	rp.power.PullUp()

	rp.logger.Printf("opened, layout %+v", rp.layout)
	return nil
}

func (rp *rpioPins) setMux(code muxCode) error {
	for i, on := range code.lines() {
		if on {
			rp.mux[i].High()
		} else {
			rp.mux[i].Low()
		}
	}
	return nil
}

func (rp *rpioPins) setRow(row int, active bool) {
	if active {
		rp.rows[row].Low()
	} else {
		rp.rows[row].High()
	}
}

func (rp *rpioPins) readColumn(col int) bool {
	return rp.cols[col].Read() == rpio.Low
}

func (rp *rpioPins) powerPressed() bool {
	return rp.power.Read() == rpio.Low
}

// watchColumns latches falling edges in hardware and polls the latch
func (rp *rpioPins) watchColumns(onEdge func(col int)) error {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if rp.stopEdge != nil {
		return nil
	}

	for _, c := range rp.cols {
		c.Detect(rpio.FallEdge)
	}
	rp.stopEdge = make(chan struct{})
	rp.edgeDone = make(chan struct{})

	go func(stop chan struct{}, done chan struct{}) {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			for col, c := range rp.cols {
				if c.EdgeDetected() {
					onEdge(col)
				}
			}
			rp.clock.Sleep(rp.edgeTime)
		}
	}(rp.stopEdge, rp.edgeDone)
	return nil
}

func (rp *rpioPins) close() error {
	rp.mu.Lock()
	stop, done := rp.stopEdge, rp.edgeDone
	rp.stopEdge, rp.edgeDone = nil, nil
	rp.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
		for _, c := range rp.cols {
			c.Detect(rpio.NoEdge)
		}
	}

	rp.setMux(muxAllOff)
	for _, r := range rp.rows {
		r.High()
	}
	return rpio.Close()
}
