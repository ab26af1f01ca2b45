package app

import (
	"errors"
	"fmt"
)

// ErrUnknownMode is returned for run modes other than the four supported ones.
var ErrUnknownMode = errors.New("unknown run mode")

// Mode selects which stages run and which collections are cleared first.
type Mode int

const (
	// ModeFresh runs discovery and then scrapes everything pending.
	ModeFresh Mode = iota
	// ModeResume skips discovery and scrapes what is still pending.
	ModeResume
	// ModeReset clears both collections, then discovers and scrapes.
	ModeReset
	// ModeRescrape clears stored content and scrapes every candidate again.
	ModeRescrape
)

var modeNames = map[Mode]string{
	ModeFresh:    "fresh",
	ModeResume:   "resume",
	ModeReset:    "reset",
	ModeRescrape: "rescrape",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// plan lists the steps a mode performs, in execution order.
type plan struct {
	dropCandidates bool
	dropContent    bool
	resetStatus    bool
	discover       bool
}

func (m Mode) plan() (plan, error) {
	switch m {
	case ModeFresh:
		return plan{discover: true}, nil
	case ModeResume:
		return plan{}, nil
	case ModeReset:
		return plan{dropCandidates: true, dropContent: true, discover: true}, nil
	case ModeRescrape:
		return plan{dropContent: true, resetStatus: true}, nil
	default:
		return plan{}, fmt.Errorf("%w: %s", ErrUnknownMode, m)
	}
}
