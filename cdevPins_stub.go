//go:build !linux
// +build !linux

package main

import (
	"github.com/pkg/errors"
)

func newCdevPins() (pins, error) {
	return nil, errors.New("gpiocdev is only available on linux")
}
