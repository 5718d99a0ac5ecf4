package main

import (
	"github.com/pkg/errors"
)

func initPins(rt runtimeConfig) (pins, error) {
	var p pins
	switch name := rt.settings.GetString(sHardware); name {
	case "rpio":
		p = &rpioPins{}
	case "gpiocdev":
		var err error
		if p, err = newCdevPins(); err != nil {
			return nil, newFault(hardwareInitFault, err, "pins")
		}
	case "log":
		p = newLogPins()
	case "keyboard":
		p = newKeyPins()
	default:
		return nil, newFault(hardwareInitFault, nil, "unknown %s %q", sHardware, name)
	}

	if err := p.open(rt); err != nil {
		if !isFault(err, hardwareInitFault) {
			err = newFault(hardwareInitFault, err, "open pins")
		}
		return nil, err
	}
	return p, nil
}

func initSounds(rt runtimeConfig) (sounds, error) {
	name := rt.settings.GetString(sAudio)
	if name == "none" {
		return newNoSounds(), nil
	}
	s, err := newAudioBackend(rt, name)
	if err != nil {
		return nil, newFault(hardwareInitFault, err, "audio")
	}
	return s, nil
}

func initDisplay(rt runtimeConfig) (display, error) {
	switch name := rt.settings.GetString(sDisplay); name {
	case "log":
		return newLogDisplay(rt.chimes), nil
	case "sevenseg":
		d, err := openSevensegDisplay(rt.settings, rt.chimes, nil)
		if err != nil {
			return nil, newFault(hardwareInitFault, err, "display")
		}
		return d, nil
	default:
		return nil, newFault(hardwareInitFault, errors.Errorf("unknown %s %q", sDisplay, name), "display")
	}
}
