package utils

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Logger provides structured logging for the application
type Logger struct {
	dryRun  bool
	verbose bool
	out     io.Writer
	errOut  io.Writer
}

// NewLogger creates a new logger instance writing to stdout/stderr
func NewLogger(dryRun bool) *Logger {
	return &Logger{dryRun: dryRun, out: os.Stdout, errOut: os.Stderr}
}

// NewLoggerWithWriters creates a logger writing to the given writers.
// Both may be the same writer.
func NewLoggerWithWriters(out, errOut io.Writer, dryRun bool) *Logger {
	return &Logger{dryRun: dryRun, out: out, errOut: errOut}
}

// SetVerbose enables Debug output
func (l *Logger) SetVerbose(enabled bool) {
	l.verbose = enabled
}

// IsDryRun reports whether the logger was created for a dry run
func (l *Logger) IsDryRun() bool {
	return l.dryRun
}

// Success logs a success message in green
func (l *Logger) Success(msg string, args ...interface{}) {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(l.out, green("✓ "+msg)+"\n", args...)
}

// Info logs an informational message in cyan
func (l *Logger) Info(msg string, args ...interface{}) {
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(l.out, cyan(msg)+"\n", args...)
}

// Plain logs an uncolored message
func (l *Logger) Plain(msg string, args ...interface{}) {
	fmt.Fprintf(l.out, msg+"\n", args...)
}

// Warning logs a warning message in yellow
func (l *Logger) Warning(msg string, args ...interface{}) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(l.out, yellow("⚠ "+msg)+"\n", args...)
}

// Error logs an error message in red
func (l *Logger) Error(msg string, err error, args ...interface{}) {
	red := color.New(color.FgRed).SprintFunc()
	if err != nil {
		fmt.Fprintf(l.errOut, red("✗ "+msg+": %v")+"\n", append(args, err)...)
	} else {
		fmt.Fprintf(l.errOut, red("✗ "+msg)+"\n", args...)
	}
}

// Debug logs a debug message in dim/gray, only in verbose mode
func (l *Logger) Debug(msg string, args ...interface{}) {
	if !l.verbose {
		return
	}
	dim := color.New(color.Faint).SprintFunc()
	fmt.Fprintf(l.out, dim(msg)+"\n", args...)
}

// DryRun logs a dry-run action in yellow
func (l *Logger) DryRun(action string, msg string, args ...interface{}) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(l.out, yellow("[DRY-RUN] %s: "+msg)+"\n", append([]interface{}{action}, args...)...)
}
