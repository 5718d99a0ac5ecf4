package main

import (
	"fmt"

	"github.com/pkg/errors"
)

type faultKind int

const (
	inputFault faultKind = iota
	audioLoadFault
	hardwareInitFault
	shutdownRaceFault
)

var faultNames = map[faultKind]string{
	inputFault:        "input fault",
	audioLoadFault:    "audio load fault",
	hardwareInitFault: "hardware init fault",
	shutdownRaceFault: "shutdown race fault",
}

func (k faultKind) String() string {
	if s, ok := faultNames[k]; ok {
		return s
	}
	return fmt.Sprintf("fault(%d)", int(k))
}

// fault tags an error with the recovery policy that applies to it
type fault struct {
	kind  faultKind
	cause error
}

func (f *fault) Error() string {
	if f.cause == nil {
		return f.kind.String()
	}
	return f.kind.String() + ": " + f.cause.Error()
}

// Cause lets errors.Cause unwrap down to the original error
func (f *fault) Cause() error {
	return f.cause
}

func newFault(kind faultKind, cause error, format string, args ...interface{}) error {
	if cause == nil {
		cause = errors.Errorf(format, args...)
	} else {
		cause = errors.Wrapf(cause, format, args...)
	}
	return &fault{kind: kind, cause: cause}
}

// isFault walks the wrap chain looking for a fault of the given kind
func isFault(err error, kind faultKind) bool {
	for err != nil {
		if f, ok := err.(*fault); ok {
			return f.kind == kind
		}
		c, ok := err.(interface{ Cause() error })
		if !ok {
			return false
		}
		err = c.Cause()
	}
	return false
}
