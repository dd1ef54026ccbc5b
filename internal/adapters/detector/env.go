// Package detector selects how pipeline progress is presented.
package detector

import (
	"os"

	"golang.org/x/term"
)

// ProgressMode is the presentation of compile progress.
type ProgressMode int

const (
	// ModeAuto picks a mode from the environment.
	ModeAuto ProgressMode = iota
	// ModeLinear prints one line per finished step.
	ModeLinear
	// ModeQuiet prints nothing but the result.
	ModeQuiet
)

// String returns the flag value that selects m.
func (m ProgressMode) String() string {
	switch m {
	case ModeLinear:
		return "linear"
	case ModeQuiet:
		return "quiet"
	default:
		return "auto"
	}
}

// DetectEnvironment returns the mode suited to the current process.
// Progress is shown when stderr is a terminal or when running under CI.
func DetectEnvironment() ProgressMode {
	ci := os.Getenv("CI")
	return detect(term.IsTerminal(int(os.Stderr.Fd())), ci == "true" || ci == "1")
}

func detect(isTTY, isCI bool) ProgressMode {
	if isTTY || isCI {
		return ModeLinear
	}
	return ModeQuiet
}

// ResolveMode applies the user's --progress flag on top of the detected mode.
// Unknown values fall back to the detected mode.
func ResolveMode(autoDetected ProgressMode, userFlag string) ProgressMode {
	switch userFlag {
	case "linear", "ci":
		return ModeLinear
	case "quiet", "none":
		return ModeQuiet
	default:
		if autoDetected == ModeAuto {
			return ModeQuiet
		}
		return autoDetected
	}
}
