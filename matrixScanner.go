package main

import (
	"sync"
	"time"
)

const (
	numRows = 3
	numCols = 2
)

// selection values other than a button index
const (
	selNotScanned = -2
	selNone       = -1
)

type matrixPos struct {
	row int
	col int
}

// button index -> where it sits in the matrix
var matrixTable = [numChimes]matrixPos{
	{row: 0, col: 0},
	{row: 0, col: 1},
	{row: 1, col: 0},
	{row: 1, col: 1},
	{row: 2, col: 0},
	{row: 2, col: 1},
}

func buttonAt(row int, col int) int {
	for b, pos := range matrixTable {
		if pos.row == row && pos.col == col {
			return b
		}
	}
	return selNone
}

// buttonSelection is written by the scanner (poll or edge callback) and
// consumed by the controller
type buttonSelection struct {
	mu     sync.Mutex
	value  int
	writes int
}

func (bs *buttonSelection) set(v int) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.value = v
	bs.writes++
}

func (bs *buttonSelection) get() int {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.value
}

// take returns the selection and, if it was a button, resets it to none
func (bs *buttonSelection) take() int {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	v := bs.value
	if v >= 0 {
		bs.value = selNone
	}
	return v
}

func (bs *buttonSelection) updates() int {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.writes
}

type matrixScanner struct {
	rt       runtimeConfig
	edgeMode bool
	debounce time.Duration

	// scanMu keeps a callback scan from interleaving row drives with a poll
	scanMu   sync.Mutex
	lastRaw  int
	lastEdge [numCols]time.Time
	seenEdge [numCols]bool
	stopped  bool

	sel buttonSelection
}

func newMatrixScanner(rt runtimeConfig) *matrixScanner {
	ms := &matrixScanner{
		rt:       rt,
		edgeMode: rt.settings.GetString(sScanMode) == "edge",
		debounce: rt.settings.GetDuration(sDebounce),
		lastRaw:  selNotScanned,
	}
	ms.sel.value = selNotScanned
	return ms
}

// start puts the rows in their resting state and, in edge mode, hooks up
// the column callbacks
func (ms *matrixScanner) start() error {
	ms.scanMu.Lock()
	if ms.edgeMode {
		ms.armRows()
	} else {
		ms.releaseRows()
	}
	ms.scanMu.Unlock()

	if !ms.edgeMode {
		return nil
	}
	ms.rt.logger.Printf("edge-triggered scanning, debounce %v", ms.debounce)
	return ms.rt.pins.watchColumns(ms.columnEdge)
}

// stop waits for any scan in progress and turns later edges and polls into
// no-ops, so the pins can be closed underneath the scanner
func (ms *matrixScanner) stop() {
	ms.scanMu.Lock()
	defer ms.scanMu.Unlock()
	ms.stopped = true
}

func (ms *matrixScanner) releaseRows() {
	for row := 0; row < numRows; row++ {
		ms.rt.pins.setRow(row, false)
	}
}

// with every row driven, any press pulls its column low and fires an edge
func (ms *matrixScanner) armRows() {
	for row := 0; row < numRows; row++ {
		ms.rt.pins.setRow(row, true)
	}
}

// scanMatrix probes one row at a time.  Caller holds scanMu.
func (ms *matrixScanner) scanMatrix() int {
	if ms.edgeMode {
		ms.releaseRows()
		defer ms.armRows()
	}

	found := selNone
	hits := 0
	for row := 0; row < numRows; row++ {
		ms.rt.pins.setRow(row, true)
		var active [numCols]bool
		for col := 0; col < numCols; col++ {
			active[col] = ms.rt.pins.readColumn(col)
		}
		// put the row back before probing the next one
		ms.rt.pins.setRow(row, false)

		for col, on := range active {
			if on {
				hits++
				found = buttonAt(row, col)
			}
		}
	}

	if hits > 1 {
		err := newFault(inputFault, nil, "%d lines active at once", hits)
		ms.rt.logger.Println(err.Error())
		return selNone
	}
	return found
}

// poll is the cooperative scan, called once per controller loop.  Only a
// change in what is held down is written, so holding a button does not
// keep re-selecting it.
func (ms *matrixScanner) poll() {
	ms.scanMu.Lock()
	defer ms.scanMu.Unlock()
	if ms.stopped {
		return
	}

	raw := ms.scanMatrix()
	if raw == ms.lastRaw {
		return
	}
	ms.lastRaw = raw
	if raw >= 0 {
		ms.rt.logger.Printf("button %d pressed", raw)
	}
	ms.sel.set(raw)
}

// columnEdge is the falling-edge callback for a column line
func (ms *matrixScanner) columnEdge(col int) {
	if col < 0 || col >= numCols {
		return
	}

	ms.scanMu.Lock()
	defer ms.scanMu.Unlock()
	if ms.stopped {
		return
	}

	now := ms.rt.clock.Now()
	if ms.seenEdge[col] && now.Sub(ms.lastEdge[col]) < ms.debounce {
		return
	}

	raw := ms.scanMatrix()
	if raw < 0 {
		// contact still open, leave the window shut so the settled press counts
		return
	}
	ms.seenEdge[col] = true
	ms.lastEdge[col] = now
	ms.rt.logger.Printf("button %d pressed (column %d edge)", raw, col)
	ms.sel.set(raw)
}

func (ms *matrixScanner) currentSelection() int {
	return ms.sel.get()
}

func (ms *matrixScanner) takeSelection() int {
	return ms.sel.take()
}

func (ms *matrixScanner) clearSelection() {
	ms.sel.set(selNone)
}

func (ms *matrixScanner) powerPressed() bool {
	return ms.rt.pins.powerPressed()
}
