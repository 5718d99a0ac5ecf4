package main

import (
	"sync"
)

const maxMuxAudit = 4096

// logPins simulates the matrix and the mux in memory.  Used for tests and
// for running without a pi (-hardware log).
type logPins struct {
	mu         sync.Mutex
	opened     bool
	closed     bool
	mux        muxCode
	muxAudit   []muxCode
	rows       [numRows]bool // true is driven active
	pressed    [numChimes]bool
	power      bool
	onEdge     func(col int)
	disableLog bool
	logger     flogger
}

func init() {
	features = append(features, "log-pins")
}

func newLogPins() *logPins {
	return &logPins{mux: muxAllOff, logger: &ThreadLogger{name: "Pins"}}
}

func (lp *logPins) open(rt runtimeConfig) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.opened = true
	lp.closed = false
	return nil
}

func (lp *logPins) setMux(code muxCode) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.mux = code
	// the animator writes hundreds of codes a second, only keep the recent ones
	if len(lp.muxAudit) >= maxMuxAudit {
		lp.muxAudit = append(lp.muxAudit[:0], lp.muxAudit[maxMuxAudit/2:]...)
	}
	lp.muxAudit = append(lp.muxAudit, code)
	return nil
}

func (lp *logPins) setRow(row int, active bool) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.rows[row] = active
}

// a column reads active if any pressed button sits on an active row of that column
func (lp *logPins) readColumn(col int) bool {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	for b, down := range lp.pressed {
		pos := matrixTable[b]
		if down && pos.col == col && lp.rows[pos.row] {
			return true
		}
	}
	return false
}

func (lp *logPins) powerPressed() bool {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.power
}

func (lp *logPins) watchColumns(onEdge func(col int)) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.onEdge = onEdge
	return nil
}

func (lp *logPins) close() error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.closed = true
	lp.mux = muxAllOff
	for i := range lp.rows {
		lp.rows[i] = false
	}
	return nil
}

// simulation helpers

func (lp *logPins) press(button int) {
	lp.mu.Lock()
	lp.pressed[button] = true
	onEdge := lp.onEdge
	lp.mu.Unlock()
	if !lp.disableLog {
		lp.logger.Printf("press %d", button)
	}
	if onEdge != nil {
		onEdge(matrixTable[button].col)
	}
}

func (lp *logPins) release(button int) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.pressed[button] = false
}

func (lp *logPins) setPower(pressed bool) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.power = pressed
}

// fire a column edge without changing the matrix (contact bounce)
func (lp *logPins) bounce(col int) {
	lp.mu.Lock()
	onEdge := lp.onEdge
	lp.mu.Unlock()
	if onEdge != nil {
		onEdge(col)
	}
}

func (lp *logPins) muxWrites() []muxCode {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return append([]muxCode(nil), lp.muxAudit...)
}

func (lp *logPins) activeRows() [numRows]bool {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.rows
}

func (lp *logPins) isClosed() bool {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.closed
}
