// Package i2c talks to a single device on a linux i2c bus.
package i2c

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// I2C_SLAVE selects the device address for following reads and writes
const I2C_SLAVE = 0x0703

// Device is what a driver needs from the bus
type Device interface {
	WriteByte(b byte) error
	Write(buf []byte) (int, error)
	Close() error
}

type I2C struct {
	f       *os.File
	address uint8
}

// Open a connection to the device at address on /dev/i2c-<bus>
func Open(address uint8, bus int) (*I2C, error) {
	name := fmt.Sprintf("/dev/i2c-%d", bus)
	f, err := os.OpenFile(name, os.O_RDWR, 0600)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	if err := unix.IoctlSetInt(int(f.Fd()), I2C_SLAVE, int(address)); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "select 0x%02x on %s", address, name)
	}
	return &I2C{f: f, address: address}, nil
}

func (d *I2C) WriteByte(b byte) error {
	_, err := d.f.Write([]byte{b})
	return err
}

func (d *I2C) Write(buf []byte) (int, error) {
	return d.f.Write(buf)
}

func (d *I2C) Close() error {
	return d.f.Close()
}

// Sim records writes instead of touching a bus
type Sim struct {
	Address uint8
	Verbose bool

	mu     sync.Mutex
	writes [][]byte
	closed bool
}

func (s *Sim) WriteByte(b byte) error {
	_, err := s.Write([]byte{b})
	return err
}

func (s *Sim) Write(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.New("write on closed device")
	}
	s.writes = append(s.writes, append([]byte(nil), buf...))
	if s.Verbose {
		log.Printf("i2c 0x%02x write: % x", s.Address, buf)
	}
	return len(buf), nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Writes returns a copy of everything written so far
func (s *Sim) Writes() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.writes))
	copy(out, s.writes)
	return out
}

func (s *Sim) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
