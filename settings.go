package main

import (
	"io/ioutil"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/pkg/errors"
)

// setting names
const (
	sLogFile     = "logFile"
	sLogMaxSize  = "logMaxSize"
	sLogBackups  = "logBackups"
	sDebug       = "debug"
	sHardware    = "hardware"
	sGPIOChip    = "gpioChip"
	sScanMode    = "scanMode"
	sAudio       = "audio"
	sVolume      = "volume"
	sMusicPath   = "musicPath"
	sDisplay     = "display"
	sI2CBus      = "i2cBus"
	sI2CDev      = "i2cDevice"
	sPollTime    = "pollTime"
	sLightTime   = "lightTime"
	sPulseTime   = "pulseTime"
	sIdleStep    = "idleStep"
	sDebounce    = "debounce"
	sEdgeTime    = "edgeTime"
	sShutdownWt  = "shutdownWait"
	sPowerOff    = "shutdownMethod"
	sPowerCmd    = "shutdownCmd"
	sStatusAddr  = "statusAddr"
	sMQTTBroker  = "mqttBroker"
	sMQTTTopic   = "mqttTopic"
	sPinPower    = "pinPower"
	sPinS0       = "pinS0"
	sPinS1       = "pinS1"
	sPinS2       = "pinS2"
	sPinRow0     = "pinRow0"
	sPinRow1     = "pinRow1"
	sPinRow2     = "pinRow2"
	sPinCol0     = "pinCol0"
	sPinCol1     = "pinCol1"
	sChimePrefix = "chime"
	sLabelPrefix = "label"
)

// keep settings generic, type-convert on the fly
type configSettings struct {
	settings map[string]interface{}
}

func defaultSettings() configSettings {
	s := make(map[string]interface{})

	// setting the type here makes the conversion "automatic" later
	s[sLogFile] = "/var/log/chimebox.log"
	s[sLogMaxSize] = 5
	s[sLogBackups] = 3
	s[sDebug] = false
	s[sHardware] = "rpio"
	s[sGPIOChip] = "gpiochip0"
	s[sScanMode] = "poll"
	s[sAudio] = "mpg123"
	s[sVolume] = 0.25
	s[sMusicPath] = "/etc/default/chimebox/chimes"
	s[sDisplay] = "log"
	s[sI2CBus] = 1
	s[sI2CDev] = byte(0x70)
	s[sPollTime] = 20 * time.Millisecond
	s[sLightTime] = 5 * time.Millisecond
	s[sPulseTime] = 300 * time.Millisecond
	s[sIdleStep] = time.Duration(0)
	s[sDebounce] = 200 * time.Millisecond
	s[sEdgeTime] = 5 * time.Millisecond
	s[sShutdownWt] = 2 * time.Second
	s[sPowerOff] = "exec"
	s[sPowerCmd] = "shutdown -h now"
	s[sStatusAddr] = ""
	s[sMQTTBroker] = ""
	s[sMQTTTopic] = "chimebox/events"

	// BCM numbering
	s[sPinPower] = 3
	s[sPinS0] = 4
	s[sPinS1] = 17
	s[sPinS2] = 27
	s[sPinRow0] = 24
	s[sPinRow1] = 25
	s[sPinRow2] = 5
	s[sPinCol0] = 6
	s[sPinCol1] = 12

	for i, c := range defaultChimes {
		s[chimeKey(i)] = c.file
		s[labelKey(i)] = c.label
	}

	return configSettings{settings: s}
}

func chimeKey(i int) string {
	return sChimePrefix + strconv.Itoa(i)
}

func labelKey(i int) string {
	return sLabelPrefix + strconv.Itoa(i)
}

// settingsFromJSON overlays any known key found in data, keeping the default's type
func (s *configSettings) settingsFromJSON(data []byte) error {
	tmp := defaultSettings()
	for k, initVal := range tmp.settings {
		// ignore missing fields
		raw, dataType, _, err := jsonparser.Get(data, k)
		if dataType == jsonparser.NotExist {
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "setting %s", k)
		}
		str := string(raw)

		switch initVal.(type) {
		case uint8:
			var val uint64
			// hex strings like "0x70" are common for i2c addresses
			val, err = strconv.ParseUint(str, 0, 8)
			if err == nil {
				s.settings[k] = byte(val)
			}
		case int:
			var val int64
			val, err = strconv.ParseInt(str, 0, 64)
			if err == nil {
				s.settings[k] = int(val)
			}
		case float64:
			var val float64
			val, err = strconv.ParseFloat(str, 64)
			if err == nil {
				s.settings[k] = val
			}
		case bool:
			var val bool
			// accept true, "true", "TRUE"...
			val, err = strconv.ParseBool(strings.ToLower(str))
			if err == nil {
				s.settings[k] = val
			}
		case time.Duration:
			var val time.Duration
			val, err = time.ParseDuration(str)
			if err == nil {
				s.settings[k] = val
			}
		case string:
			if dataType != jsonparser.String {
				err = errors.Errorf("not a string: %s", str)
				break
			}
			s.settings[k], err = jsonparser.ParseString(raw)
		default:
			err = errors.Errorf("bad type: %T", initVal)
		}
		if err != nil {
			return errors.Wrapf(err, "setting %s", k)
		}
	}
	return nil
}

// initSettings loads defaults and overlays the config file, if there is one
func initSettings(configFile string) configSettings {
	log.Println("initSettings")

	s := defaultSettings()
	if configFile == "" {
		return s
	}

	data, err := ioutil.ReadFile(configFile)
	if err != nil {
		log.Printf("Could not load conf file '%s', using defaults", configFile)
		return s
	}

	log.Printf("Reading configuration from '%s'", configFile)

	if err := s.settingsFromJSON(data); err != nil {
		log.Fatalf("Bad configuration in '%s': %s", configFile, err.Error())
	}

	return s
}

func (s *configSettings) GetString(key string) string {
	switch v := s.settings[key].(type) {
	case string:
		return v
	default:
		return ""
	}
}

func (s *configSettings) GetBool(key string) bool {
	switch v := s.settings[key].(type) {
	case bool:
		return v
	default:
		return false
	}
}

func (s *configSettings) GetDuration(key string) time.Duration {
	switch v := s.settings[key].(type) {
	case time.Duration:
		return v
	default:
		return -1
	}
}

func (s *configSettings) GetByte(key string) byte {
	switch v := s.settings[key].(type) {
	case byte:
		return v
	case int: // cast to byte
		return byte(v)
	default:
		return 0
	}
}

func (s *configSettings) GetInt(key string) int {
	switch v := s.settings[key].(type) {
	case int:
		return v
	case byte:
		return int(v)
	default:
		return 0
	}
}

func (s *configSettings) GetFloat(key string) float64 {
	switch v := s.settings[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (s *configSettings) Dump() {
	keys := make([]string, 0, len(s.settings))
	for k := range s.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := s.settings[k]
		log.Printf("%s : %T: %v\n", k, v, v)
	}
}

// set overrides one setting, used for command line flags
func (s *configSettings) set(key string, value interface{}) {
	s.settings[key] = value
}
