package main

import (
	"path/filepath"
	"strings"
)

const numChimes = 6

// chimeDefinition is everything that happens for one button
type chimeDefinition struct {
	name      string
	audioClip string
	light     int // light index on the mux
	imageKey  int // display asset
	label     string
}

var defaultChimes = [numChimes]struct {
	file  string
	label string
}{
	{"chainsaw.mp3", "SAU"},
	{"fight_song.mp3", "FIGH"},
	{"first_down.mp3", "1St"},
	{"hype.mp3", "HYPE"},
	{"osu.mp3", "OSU"},
	{"touchdown.mp3", "tD"},
}

// loadChimes builds the static chime table, one entry per button
func loadChimes(settings configSettings) []chimeDefinition {
	musicPath := settings.GetString(sMusicPath)
	chimes := make([]chimeDefinition, numChimes)
	for i := range chimes {
		file := settings.GetString(chimeKey(i))
		clip := file
		if !filepath.IsAbs(file) {
			clip = filepath.Join(musicPath, file)
		}
		chimes[i] = chimeDefinition{
			name:      strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)),
			audioClip: clip,
			light:     i,
			imageKey:  i,
			label:     settings.GetString(labelKey(i)),
		}
	}
	return chimes
}
