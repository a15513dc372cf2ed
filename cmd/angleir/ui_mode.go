package main

import (
	"fmt"
	"os"
	"strings"
)

// autoSwitch is the value of an auto|on|off flag such as --color and --ui.
type autoSwitch uint8

const (
	switchAuto autoSwitch = iota
	switchOn
	switchOff
)

func parseSwitch(flag, value string) (autoSwitch, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return switchAuto, nil
	case "on":
		return switchOn, nil
	case "off":
		return switchOff, nil
	}
	return switchAuto, fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
}

// enabled decides an auto switch with detect.
func (s autoSwitch) enabled(detect func() bool) bool {
	switch s {
	case switchOn:
		return true
	case switchOff:
		return false
	}
	return detect()
}

// useProgressView shows the progress view in auto mode for multi-script builds on a terminal.
func useProgressView(mode autoSwitch, quiet bool, files int) bool {
	return mode.enabled(func() bool {
		return !quiet && files > 1 && isTerminal(os.Stdout)
	})
}
