// Package sevenseg drives a 4 digit HT16K33 seven segment backpack.
package sevenseg

import (
	"fmt"
	"log"
	"strings"

	"dscheirer.com/chimebox/i2c"
	"github.com/pkg/errors"
)

// HT16K33 commands
const (
	cmdOscOn       = 0x21
	cmdDisplayOn   = 0x81
	cmdDisplayOff  = 0x80
	cmdBrightness  = 0xE0
	maxBrightness  = 15
	ledDecimalMask = 0x80
	displaySize    = 1 + 5*2
	numDigits      = 4
)

// positions of segments
const (
	LED_TOP  = 0
	LED_TOPR = 1
	LED_BOTR = 2
	LED_BOT  = 3
	LED_BOTL = 4
	LED_TOPL = 5
	LED_MID  = 6
)

// translate characters to bitmasks
var digitValues = map[byte]byte{
	' ': 0x00,
	'-': 0x40,
	'_': 0x08,
	'0': 0x3F,
	'1': 0x06,
	'2': 0x5B,
	'3': 0x4F,
	'4': 0x66,
	'5': 0x6D,
	'6': 0x7D,
	'7': 0x07,
	'8': 0x7F,
	'9': 0x6F,
	'A': 0x77,
	'B': 0x7C,
	'C': 0x39,
	'c': 0x58,
	'D': 0x5E,
	'E': 0x79,
	'F': 0x71,
	'G': 0x3D,
	'H': 0x76,
	'h': 0x74,
	'I': 0x06,
	'i': 0x04,
	'L': 0x38,
	'l': 0x06,
	'n': 0x54,
	'O': 0x3F,
	'o': 0x5C,
	'P': 0x73,
	'R': 0x50,
	'S': 0x6D,
	't': 0x78,
	'U': 0x3E,
	'u': 0x1C,
	'Y': 0x6E,
}

type Display struct {
	dev     i2c.Device
	buf     [displaySize]byte
	shown   [displaySize]byte
	written bool
	dump    bool
}

// Open starts the oscillator and blanks the display
func Open(dev i2c.Device) (*Display, error) {
	d := &Display{dev: dev}
	if err := dev.WriteByte(cmdOscOn); err != nil {
		return nil, errors.Wrap(err, "oscillator on")
	}
	if err := d.SetBrightness(maxBrightness); err != nil {
		return nil, err
	}
	if err := d.Clear(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Display) DebugDump(on bool) {
	d.dump = on
}

func (d *Display) DisplayOn(on bool) error {
	cmd := byte(cmdDisplayOn)
	if !on {
		cmd = cmdDisplayOff
	}
	return d.dev.WriteByte(cmd)
}

func (d *Display) SetBrightness(level uint8) error {
	if level > maxBrightness {
		return errors.Errorf("bad brightness level: %d", level)
	}
	return d.dev.WriteByte(cmdBrightness | level)
}

// the colon sits between digits 1 and 2
func digitPos(digit int) int {
	if digit > 1 {
		digit++
	}
	return 1 + digit*2
}

func altCase(char byte) byte {
	if char >= 'A' && char <= 'Z' {
		return char + 'a' - 'A'
	} else if char >= 'a' && char <= 'z' {
		return char + 'A' - 'a'
	}
	return char
}

func mask(char byte, decimalOn bool) (byte, error) {
	val, ok := digitValues[char]
	if !ok {
		// try alternate cases
		val, ok = digitValues[altCase(char)]
		if !ok {
			return 0, errors.Errorf("bad value: %q", char)
		}
	}
	if decimalOn {
		val |= ledDecimalMask
	}
	return val, nil
}

// Print right justifies msg; a '.' lights the decimal of the digit before it
func (d *Display) Print(msg string) error {
	var buf [displaySize]byte
	pos := numDigits - 1
	i := len(msg) - 1
	for ; i >= 0 && pos >= 0; i-- {
		target := msg[i]
		dotOn := false
		if target == '.' {
			dotOn = true
			target = ' '
			if i > 0 && msg[i-1] != '.' {
				i--
				target = msg[i]
			}
		}
		m, err := mask(target, dotOn)
		if err != nil {
			return err
		}
		buf[digitPos(pos)] = m
		pos--
	}
	if i != -1 {
		return errors.New("too many characters: " + msg)
	}
	d.buf = buf
	return d.refresh()
}

func (d *Display) Clear() error {
	d.buf = [displaySize]byte{}
	return d.refresh()
}

// Digit returns the segment mask currently set for a digit
func (d *Display) Digit(digit int) byte {
	return d.buf[digitPos(digit)]
}

func (d *Display) refresh() error {
	// refreshing on the same thing?
	if d.written && d.shown == d.buf {
		return nil
	}
	if d.dump {
		log.Println(d.String())
	}
	// byte 0 is the display ram address
	if _, err := d.dev.Write(d.buf[:]); err != nil {
		return err
	}
	d.shown = d.buf
	d.written = true
	return nil
}

func (d *Display) Close() error {
	d.Clear()
	d.DisplayOn(false)
	return d.dev.Close()
}

// String draws the buffer as ascii segments
func (d *Display) String() string {
	var rows [5]strings.Builder
	for digit := 0; digit < numDigits; digit++ {
		m := d.buf[digitPos(digit)]
		seg := func(bit uint, on string, off string) string {
			if m&(1<<bit) != 0 {
				return on
			}
			return off
		}
		rows[0].WriteString(" " + seg(LED_TOP, "-", " ") + "  ")
		rows[1].WriteString(seg(LED_TOPL, "|", " ") + " " + seg(LED_TOPR, "|", " ") + " ")
		rows[2].WriteString(" " + seg(LED_MID, "-", " ") + "  ")
		rows[3].WriteString(seg(LED_BOTL, "|", " ") + " " + seg(LED_BOTR, "|", " ") + " ")
		rows[4].WriteString(" " + seg(LED_BOT, "-", " ") + seg(7, ".", " ") + " ")
	}
	out := "\n"
	for _, r := range rows {
		out += fmt.Sprintln(strings.TrimRight(r.String(), " "))
	}
	return out
}
