package main

// gpio lines the core needs; row/column/power levels are already translated
// to "active" so the scanner never deals with pull directions
type pins interface {
	open(rt runtimeConfig) error
	setMux(code muxCode) error
	setRow(row int, active bool)
	readColumn(col int) bool
	powerPressed() bool
	watchColumns(onEdge func(col int)) error
	close() error
}

type sounds interface {
	play(clip string) error
	stop()
	isPlaying() bool
	close()
}

type display interface {
	show(imageKey int) error
	clear() error
	close() error
}

type hostPower interface {
	powerOff() error
}

type eventFeed interface {
	publish(e chimeEvent)
	close()
}

// BCM line numbers for everything on the pins interface
type pinLayout struct {
	power int
	mux   [3]int // S0, S1, S2
	rows  [numRows]int
	cols  [numCols]int
}

func loadPinLayout(settings configSettings) pinLayout {
	return pinLayout{
		power: settings.GetInt(sPinPower),
		mux:   [3]int{settings.GetInt(sPinS0), settings.GetInt(sPinS1), settings.GetInt(sPinS2)},
		rows:  [numRows]int{settings.GetInt(sPinRow0), settings.GetInt(sPinRow1), settings.GetInt(sPinRow2)},
		cols:  [numCols]int{settings.GetInt(sPinCol0), settings.GetInt(sPinCol1)},
	}
}
