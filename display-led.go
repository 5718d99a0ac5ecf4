package main

import (
	"dscheirer.com/chimebox/i2c"
	"dscheirer.com/chimebox/sevenseg"
	"github.com/pkg/errors"
)

// sevensegDisplay shows the chime's label on the segment backpack
type sevensegDisplay struct {
	ssb    *sevenseg.Display
	chimes []chimeDefinition
}

func openSevensegDisplay(settings configSettings, chimes []chimeDefinition, dev i2c.Device) (*sevensegDisplay, error) {
	var err error
	if dev == nil {
		dev, err = i2c.Open(settings.GetByte(sI2CDev), settings.GetInt(sI2CBus))
		if err != nil {
			return nil, err
		}
	}
	ssb, err := sevenseg.Open(dev)
	if err != nil {
		dev.Close()
		return nil, err
	}
	ssb.DebugDump(settings.GetBool(sDebug))
	if err := ssb.DisplayOn(true); err != nil {
		ssb.Close()
		return nil, err
	}
	return &sevensegDisplay{ssb: ssb, chimes: chimes}, nil
}

func (ss *sevensegDisplay) show(imageKey int) error {
	if imageKey < 0 || imageKey >= len(ss.chimes) {
		return errors.Errorf("no image %d", imageKey)
	}
	return ss.ssb.Print(ss.chimes[imageKey].label)
}

func (ss *sevensegDisplay) clear() error {
	return ss.ssb.Clear()
}

func (ss *sevensegDisplay) close() error {
	return ss.ssb.Close()
}
