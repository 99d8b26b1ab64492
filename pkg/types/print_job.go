package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Segment is one independently printed slice of a label file.
// Segments are immutable: accessors return copies and WithPrinter returns
// a new value.
type Segment struct {
	content []byte
	printer string
}

// NewSegment creates a segment targeting the system default printer
func NewSegment(content []byte) Segment {
	c := make([]byte, len(content))
	copy(c, content)
	return Segment{content: c}
}

// Content returns a copy of the segment bytes
func (s Segment) Content() []byte {
	c := make([]byte, len(s.content))
	copy(c, s.content)
	return c
}

// Len returns the size of the segment in bytes
func (s Segment) Len() int {
	return len(s.content)
}

// Printer returns the target printer; empty means the system default
func (s Segment) Printer() string {
	return s.printer
}

// WithPrinter returns a copy of the segment targeting printer
func (s Segment) WithPrinter(printer string) Segment {
	return Segment{content: s.content, printer: printer}
}

// PrintJob is the one-or-two segment unit derived from a single file event.
// For two segments, segment 0 goes to printer1 and segment 1 to printer2.
type PrintJob struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Segments []Segment `json:"-"`
	// Dropped counts delimiter-separated parts after the second one that
	// were not printed.
	Dropped int `json:"dropped,omitempty"`
}

// NewPrintJob creates a job with a fresh identifier
func NewPrintJob(source string, segments ...Segment) PrintJob {
	return PrintJob{
		ID:       uuid.NewString(),
		Source:   source,
		Segments: segments,
	}
}

// WithSource returns a copy of the job bound to source. A job without an
// identifier gets one.
func (j PrintJob) WithSource(source string) PrintJob {
	j.Source = source
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return j
}

// IsSplit reports whether the job prints as two segments
func (j PrintJob) IsSplit() bool {
	return len(j.Segments) == 2
}

// String returns a short description for log lines
func (j PrintJob) String() string {
	sizes := make([]string, len(j.Segments))
	for i, s := range j.Segments {
		sizes[i] = fmt.Sprintf("%dB", s.Len())
	}
	return fmt.Sprintf("job %s (%s) segments=[%s]", j.ID, j.Source, strings.Join(sizes, " "))
}

// SegmentResult is the outcome of printing a single segment
type SegmentResult struct {
	Index     int    `json:"index"`
	Printer   string `json:"printer,omitempty"`
	SpoolPath string `json:"spool_path"`
	Err       error  `json:"error,omitempty"`
}

// DispatchResult is the combined outcome of dispatching a PrintJob
type DispatchResult struct {
	JobID    string          `json:"job_id"`
	Segments []SegmentResult `json:"segments"`
	// Aborted is set when spool files could not be written and nothing was printed.
	Aborted  bool  `json:"aborted"`
	WriteErr error `json:"write_error,omitempty"`
	// CleanupErr collects spool file removal failures. They never affect Printed.
	CleanupErr error `json:"cleanup_error,omitempty"`
}

// Printed returns how many segments were accepted by the print primitive
func (r DispatchResult) Printed() int {
	n := 0
	for _, s := range r.Segments {
		if s.Err == nil {
			n++
		}
	}
	return n
}

// OK reports whether every segment printed
func (r DispatchResult) OK() bool {
	return !r.Aborted && len(r.Segments) > 0 && r.Printed() == len(r.Segments)
}

// Err joins every failure recorded in the result
func (r DispatchResult) Err() error {
	errs := []error{r.WriteErr}
	for _, s := range r.Segments {
		errs = append(errs, s.Err)
	}
	errs = append(errs, r.CleanupErr)
	return errors.Join(errs...)
}
