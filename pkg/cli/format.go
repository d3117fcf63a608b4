// Package cli provides shared formatting helpers for the routeaudit CLI.
package cli

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// colorEnabled is false when NO_COLOR is set (per no-color.org) or stdout
// is not a terminal.
var colorEnabled = os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(os.Stdout.Fd()))

// SetColor forces ANSI colors on or off and returns the previous setting.
func SetColor(enabled bool) bool {
	prev := colorEnabled
	colorEnabled = enabled
	return prev
}

func paint(code, s string) string {
	if !colorEnabled {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// Green wraps s in ANSI green.
func Green(s string) string { return paint("32", s) }

// Yellow wraps s in ANSI yellow.
func Yellow(s string) string { return paint("33", s) }

// Red wraps s in ANSI red.
func Red(s string) string { return paint("31", s) }

// Bold wraps s in ANSI bold.
func Bold(s string) string { return paint("1", s) }

// Dim wraps s in ANSI dim.
func Dim(s string) string { return paint("2", s) }

// Status renders "ok" in green or "FAIL" in red.
func Status(ok bool) string {
	if ok {
		return Green("ok")
	}
	return Red("FAIL")
}

// DotPad pads name with dots to the given width.
// Example: DotPad("core.yaml", 20) → "core.yaml .........."
func DotPad(name string, width int) string {
	if width <= 0 || len(name) >= width-1 {
		return name
	}
	dots := width - len(name) - 1
	return name + " " + strings.Repeat(".", dots)
}
