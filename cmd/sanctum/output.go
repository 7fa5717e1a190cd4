package main

import (
	"fmt"
	"os"
)

// ANSI escapes for terminal output, disabled by --no-color.
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + ansiReset
}

// note prints a glyph-prefixed message to stderr so generated reflections on
// stdout stay clean for piping.
func note(color, glyph, format string, args ...any) {
	fmt.Fprintln(os.Stderr, colorize(color, glyph+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) {
	note(ansiGreen, "✓", format, args...)
}

func printError(format string, args ...any) {
	note(ansiRed, "✗", format, args...)
}

func printWarning(format string, args ...any) {
	note(ansiYellow, "⚠", format, args...)
}

func printStep(format string, args ...any) {
	note(ansiCyan, "→", format, args...)
}

// printStatus renders one labelled line of the status/awaken summaries.
func printStatus(label string, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s %s\n",
		colorize(ansiBold, label+":"), fmt.Sprintf(format, args...))
}
