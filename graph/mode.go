package graph

import (
	"github.com/pkg/errors"
)

// Mode is a travel modality. Each mode has its own cost scaling, turn
// penalties and one-way handling, which live in the route planner
// configuration.
type Mode uint8

const (
	ModeCar Mode = iota
	ModeBike
	ModeWalk
	ModeTransit
)

var modeNames = map[Mode]string{
	ModeCar:     "car",
	ModeBike:    "bike",
	ModeWalk:    "walk",
	ModeTransit: "transit",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

func ParseMode(name string) (Mode, error) {
	for mode, modeName := range modeNames {
		if modeName == name {
			return mode, nil
		}
	}
	return 0, errors.Errorf("Unknown travel mode '%s'", name)
}

// ModeSet is a bitmask of the modes a way is applicable to.
type ModeSet uint8

func NewModeSet(modes ...Mode) ModeSet {
	var set ModeSet
	for _, mode := range modes {
		set |= 1 << mode
	}
	return set
}

// AllModes contains every travel mode.
var AllModes = NewModeSet(ModeCar, ModeBike, ModeWalk, ModeTransit)

func (s ModeSet) Contains(mode Mode) bool {
	return s&(1<<mode) != 0
}
