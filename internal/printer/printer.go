// Package printer hands label segments to the operating system spooler.
package printer

import (
	"context"
	"os/exec"
	"strings"

	"labelwatch/internal/errors"
	"labelwatch/internal/log"
)

// Printer is the print primitive: spool the raw file at path to printerID.
// An empty printerID selects the system default printer.
type Printer interface {
	Print(ctx context.Context, path, printerID string) error
}

// LPR spools files with the lpr command in raw mode, so the printer receives
// the bytes unprocessed.
type LPR struct {
	command string
}

// NewLPR creates an lpr printer. An empty command means "lpr" on PATH.
func NewLPR(command string) *LPR {
	if strings.TrimSpace(command) == "" {
		command = "lpr"
	}
	return &LPR{command: command}
}

// Command returns the spooler executable
func (p *LPR) Command() string {
	return p.command
}

// Print runs lpr and waits for it to exit
func (p *LPR) Print(ctx context.Context, path, printerID string) error {
	args := Args(path, printerID)
	log.LogWithFields(log.F("command", p.command), log.F("args", strings.Join(args, " "))).Debug("Running print command")

	out, err := exec.CommandContext(ctx, p.command, args...).CombinedOutput()
	if err != nil {
		return errors.NewPrintError("print failed", printerID, path, err).
			WithOutput(strings.TrimSpace(string(out)))
	}
	return nil
}

// Args builds the lpr arguments for a raw print of path
func Args(path, printerID string) []string {
	args := make([]string, 0, 5)
	if printerID != "" {
		args = append(args, "-P", printerID)
	}
	return append(args, "-o", "raw", path)
}

var _ Printer = (*LPR)(nil)
