package testutils

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// CreateTestFilesWithContent creates test files with specific content
func CreateTestFilesWithContent(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644)
		require.NoError(t, err)
	}
}

// WriteLabelFile writes a label file into dir and returns its path
func WriteLabelFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// PrintCall is one invocation of the print primitive
type PrintCall struct {
	Path    string
	Printer string
	// Content is what the spool file held at the time of the call
	Content []byte
	// Existed is false when the spool file could not be read during the call
	Existed bool
}

// RecordingPrinter is a print primitive that records invocations instead of
// spawning a spooler
type RecordingPrinter struct {
	mu      sync.Mutex
	calls   []PrintCall
	fail    map[string]error
	failAll error
	delay   time.Duration
}

// NewRecordingPrinter creates a printer that accepts every job
func NewRecordingPrinter() *RecordingPrinter {
	return &RecordingPrinter{fail: make(map[string]error)}
}

// FailPrinter makes every print to printer return err
func (p *RecordingPrinter) FailPrinter(printer string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail[printer] = err
}

// FailAll makes every print return err
func (p *RecordingPrinter) FailAll(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failAll = err
}

// SetDelay makes every print take at least d, like a slow spooler
func (p *RecordingPrinter) SetDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
}

// Print records the call and the spool file content
func (p *RecordingPrinter) Print(_ context.Context, path, printer string) error {
	content, err := os.ReadFile(path)

	p.mu.Lock()
	delay := p.delay
	p.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, PrintCall{
		Path:    path,
		Printer: printer,
		Content: content,
		Existed: err == nil,
	})
	if p.failAll != nil {
		return p.failAll
	}
	return p.fail[printer]
}

// Calls returns a copy of the recorded calls in order
func (p *RecordingPrinter) Calls() []PrintCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PrintCall, len(p.calls))
	copy(out, p.calls)
	return out
}

// WaitForCalls polls until at least n calls were recorded or timeout expires
func (p *RecordingPrinter) WaitForCalls(n int, timeout time.Duration) []PrintCall {
	deadline := time.Now().Add(timeout)
	for {
		calls := p.Calls()
		if len(calls) >= n || time.Now().After(deadline) {
			return calls
		}
		time.Sleep(10 * time.Millisecond)
	}
}
