package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode is the value of --ui.
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func parseUIMode(value string) (uiMode, error) {
	switch m := uiMode(strings.ToLower(strings.TrimSpace(value))); m {
	case "":
		return uiModeAuto, nil
	case uiModeAuto, uiModeOn, uiModeOff:
		return m, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// uiEnv is what the auto mode looks at besides the flag.
type uiEnv struct {
	getenv   func(string) string
	terminal func() bool
}

func processUIEnv() uiEnv {
	return uiEnv{
		getenv:   os.Getenv,
		terminal: func() bool { return isTerminal(os.Stderr) && isTerminal(os.Stdout) },
	}
}

// progressView decides whether a run draws the unit progress view on stderr.
// Json output never gets one, whatever --ui says; the auto mode also stays
// quiet on dumb terminals and in CI logs.
func progressView(mode uiMode, format string, env uiEnv) bool {
	if format != "pretty" {
		return false
	}
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	}
	if env.getenv("TERM") == "dumb" || env.getenv("CI") != "" {
		return false
	}
	return env.terminal()
}
