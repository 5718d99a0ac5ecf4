package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/jonboulle/clockwork"
)

// chimebox -config={config file} [-debug] [-hardware=rpio|gpiocdev|log|keyboard] [-dump]

var (
	configFile = flag.String("config", "/etc/default/chimebox/config.conf", "JSON configuration file")
	debug      = flag.Bool("debug", false, "copy the log to stdout")
	hardware   = flag.String("hardware", "", "override the hardware setting")
	dump       = flag.Bool("dump", false, "print the settings and exit")
)

// releaseHardware closes whatever was opened before a startup failure
func releaseHardware(rt runtimeConfig) {
	if rt.sounds != nil {
		rt.sounds.close()
	}
	if rt.display != nil {
		rt.display.close()
	}
	if rt.pins != nil {
		rt.pins.close()
	}
}

// chimeboxMain is the real entry point, defers here run before main exits
func chimeboxMain() error {
	flag.Parse()

	// read config information
	settings := initSettings(*configFile)
	if *hardware != "" {
		settings.set(sHardware, *hardware)
	}
	if *debug {
		settings.set(sDebug, true)
	}

	if *dump {
		log.SetOutput(os.Stdout)
		settings.Dump()
		return nil
	}

	logFile, err := setupLogging(settings, *debug)
	if err != nil {
		return err
	}
	defer logFile.Close()

	feats := append([]string(nil), features...)
	sort.Strings(feats)
	log.Printf("chimebox starting, features: %s", strings.Join(feats, ", "))

	rt := initRuntime(settings, clockwork.NewRealClock())

	if rt.pins, err = initPins(rt); err != nil {
		return err
	}
	if rt.sounds, err = initSounds(rt); err != nil {
		releaseHardware(rt)
		return err
	}
	if rt.display, err = initDisplay(rt); err != nil {
		releaseHardware(rt)
		return err
	}
	if rt.power, err = initHostPower(rt.settings); err != nil {
		releaseHardware(rt)
		return newFault(hardwareInitFault, err, "host power")
	}
	rt.events = initEventFeed(rt)

	scanner := newMatrixScanner(rt.withLogger("Scanner"))
	if err := scanner.start(); err != nil {
		releaseHardware(rt)
		rt.events.close()
		return newFault(hardwareInitFault, err, "column edge detection")
	}

	// ctrl-c and service stop both end up in the normal shutdown path
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		sig := <-signals
		log.Printf("caught %v", sig)
		rt.comms.requestQuit()
	}()

	status := startStatusService(rt)
	defer status.stop()

	rt.events.publish(chimeEvent{Kind: evStartup, Chime: selNone})
	startLightAnimator(rt)

	reason := runChimeController(rt, scanner)
	log.Printf("chimebox stopped (%s)", reason)
	return nil
}

func main() {
	if err := chimeboxMain(); err != nil {
		log.Fatalf("chimebox: %s", err.Error())
	}
}
