package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode is the value of --ui; it implements pflag.Value so cobra rejects
// bad input while parsing.
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch m := uiMode(strings.TrimSpace(strings.ToLower(value))); m {
	case "":
		return uiModeAuto, nil
	case uiModeAuto, uiModeOn, uiModeOff:
		return m, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

func (m *uiMode) String() string { return string(*m) }

func (m *uiMode) Set(value string) error {
	parsed, err := readUIMode(value)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m *uiMode) Type() string { return "auto|on|off" }

// shouldUseTUI: прогресс рисуется в stderr, поэтому смотрим на него, а не на
// stdout. В auto режиме dumb-терминалы и CI получают обычный вывод.
func shouldUseTUI(mode uiMode) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	}
	if os.Getenv("CI") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal(os.Stderr)
}
