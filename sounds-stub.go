//go:build noaudio
// +build noaudio

package main

import (
	"github.com/pkg/errors"
)

func init() {
	features = append(features, "noaudio")
}

func newAudioBackend(rt runtimeConfig, name string) (sounds, error) {
	return nil, errors.Errorf("audio backend %q not built in (noaudio)", name)
}
