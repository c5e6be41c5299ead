// Package output provides colored terminal output for the CLI.
//
// Status messages (success, info, plain, risk headlines) go to stdout;
// warnings and errors go to stderr so JSON output on stdout stays parseable.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Style names a kind of message and decides its color and stream.
type Style int

// Message styles.
const (
	StylePlain Style = iota
	StyleSuccess
	StyleInfo
	StyleWarn
	StyleError
)

// toStderr reports whether messages of this style belong on stderr.
func (s Style) toStderr() bool {
	return s == StyleWarn || s == StyleError
}

//nolint:gochecknoglobals // Output package requires package-level state for consistent formatting
var (
	styles = map[Style]*color.Color{
		StyleSuccess: color.New(color.FgGreen, color.Bold),
		StyleInfo:    color.New(color.FgCyan),
		StyleWarn:    color.New(color.FgYellow),
		StyleError:   color.New(color.FgRed, color.Bold),
	}

	// levelColors colors risk headlines by level name.
	levelColors = map[string]*color.Color{
		"LOW":      color.New(color.FgGreen),
		"MEDIUM":   color.New(color.FgCyan),
		"HIGH":     color.New(color.FgYellow, color.Bold),
		"CRITICAL": color.New(color.FgRed, color.Bold),
	}

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	mu sync.Mutex
)

// Init enables colors unless NO_COLOR is set.
func Init() {
	color.NoColor = os.Getenv("NO_COLOR") != ""
}

// SetStdout sets the standard output writer (useful for testing)
func SetStdout(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	stdout = w
}

// SetStderr sets the standard error writer (useful for testing)
func SetStderr(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	stderr = w
}

// Stdout returns the current stdout writer
func Stdout() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return stdout
}

// Stderr returns the current stderr writer
func Stderr() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return stderr
}

// Print writes one line in the given style.
func Print(style Style, msg string) {
	mu.Lock()
	defer mu.Unlock()

	w := stdout
	if style.toStderr() {
		w = stderr
	}
	if c, ok := styles[style]; ok {
		_, _ = c.Fprintln(w, msg)
		return
	}
	_, _ = fmt.Fprintln(w, msg)
}

// Success prints a success message in green
func Success(msg string) { Print(StyleSuccess, msg) }

// Successf prints a formatted success message
func Successf(format string, args ...any) { Print(StyleSuccess, fmt.Sprintf(format, args...)) }

// Info prints an info message in cyan
func Info(msg string) { Print(StyleInfo, msg) }

// Infof prints a formatted info message
func Infof(format string, args ...any) { Print(StyleInfo, fmt.Sprintf(format, args...)) }

// Warn prints a warning to stderr in yellow
func Warn(msg string) { Print(StyleWarn, msg) }

// Warnf prints a formatted warning
func Warnf(format string, args ...any) { Print(StyleWarn, fmt.Sprintf(format, args...)) }

// Error prints an error to stderr in red
func Error(msg string) { Print(StyleError, msg) }

// Errorf prints a formatted error
func Errorf(format string, args ...any) { Print(StyleError, fmt.Sprintf(format, args...)) }

// Plain prints a message without color
func Plain(msg string) { Print(StylePlain, msg) }

// Plainf prints a formatted message without color
func Plainf(format string, args ...any) { Print(StylePlain, fmt.Sprintf(format, args...)) }

// Risk prints a headline to stdout colored by risk level (LOW, MEDIUM, HIGH,
// CRITICAL). Unknown levels print uncolored.
func Risk(level, msg string) {
	mu.Lock()
	defer mu.Unlock()

	if c, ok := levelColors[strings.ToUpper(level)]; ok {
		_, _ = c.Fprintln(stdout, msg)
		return
	}
	_, _ = fmt.Fprintln(stdout, msg)
}

// List prints items as an indented bullet list on stdout.
func List(items []string) {
	mu.Lock()
	defer mu.Unlock()

	for _, item := range items {
		_, _ = fmt.Fprintf(stdout, "  - %s\n", item)
	}
}
