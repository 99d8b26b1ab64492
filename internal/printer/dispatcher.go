package printer

import (
	"context"
	"os"

	"labelwatch/internal/config"
	"labelwatch/internal/errors"
	"labelwatch/internal/log"
	"labelwatch/pkg/types"
)

// Spool suffixes for the two segments of a split job
const (
	FirstSuffix  = ".first"
	SecondSuffix = ".second"
)

var (
	spoolSuffixes = [2]string{FirstSuffix, SecondSuffix}
	segmentNames  = [2]string{"card", "form"}
)

// SpoolPath returns the spool file for segment index (0 or 1) of a job read
// from source
func SpoolPath(source string, index int) string {
	return source + spoolSuffixes[index]
}

// Dispatcher turns print jobs into print primitive calls
type Dispatcher struct {
	printer Printer
}

// NewDispatcher creates a dispatcher printing through p
func NewDispatcher(p Printer) *Dispatcher {
	return &Dispatcher{printer: p}
}

// Dispatch prints job. A single-segment job prints its source file as-is on
// the default printer. A split job writes each segment to a spool file next
// to the source and prints segment 0 on printer1, then segment 1 on
// printer2. Spool files are removed before Dispatch returns, whatever the
// outcome. Failures are recorded in the result and logged; none of them
// stop the other segment from printing.
func (d *Dispatcher) Dispatch(ctx context.Context, job types.PrintJob, cfg *config.Configuration) types.DispatchResult {
	logger := log.LogWithFields(log.F("job", job.ID), log.F("file", job.Source))

	switch len(job.Segments) {
	case 1:
		return d.dispatchSingle(ctx, job, logger)
	case 2:
		return d.dispatchSplit(ctx, job, cfg, logger)
	default:
		err := errors.Newf("print job must have 1 or 2 segments, got %d", len(job.Segments))
		logger.WithError(err).Error("Refusing to dispatch job")
		return types.DispatchResult{JobID: job.ID, Aborted: true, WriteErr: err}
	}
}

func (d *Dispatcher) dispatchSingle(ctx context.Context, job types.PrintJob, logger *log.Logger) (result types.DispatchResult) {
	result.JobID = job.ID
	seg := job.Segments[0]

	// The source file is printed untouched; only a job without a file on
	// disk needs spooling.
	path := job.Source
	if path == "" {
		sp := &spool{}
		defer func() { result.CleanupErr = sp.cleanup(logger) }()

		var err error
		path, err = sp.write("", FirstSuffix, seg.Content())
		if err != nil {
			result.Aborted = true
			result.WriteErr = err
			logger.WithError(err).Error("Error writing spool file")
			return result
		}
	}

	logger.With(log.F("spool", path)).Info("Printing label file on default printer")
	err := d.printer.Print(ctx, path, seg.Printer())
	if err != nil {
		logger.WithError(err).Error("Print command failed")
	}
	result.Segments = []types.SegmentResult{{Index: 0, Printer: seg.Printer(), SpoolPath: path, Err: err}}
	return result
}

func (d *Dispatcher) dispatchSplit(ctx context.Context, job types.PrintJob, cfg *config.Configuration, logger *log.Logger) (result types.DispatchResult) {
	result.JobID = job.ID
	segments := []types.Segment{
		job.Segments[0].WithPrinter(cfg.Printer1()),
		job.Segments[1].WithPrinter(cfg.Printer2()),
	}

	sp := &spool{}
	defer func() { result.CleanupErr = sp.cleanup(logger) }()

	// Both spool files must exist before anything prints.
	paths := make([]string, len(segments))
	for i, seg := range segments {
		path, err := sp.write(job.Source, spoolSuffixes[i], seg.Content())
		if err != nil {
			result.Aborted = true
			result.WriteErr = err
			logger.WithError(err).Error("Error writing spool files, job not printed")
			return result
		}
		paths[i] = path
	}

	for i, seg := range segments {
		segLogger := logger.With(log.F("segment", segmentNames[i]), log.F("printer", seg.Printer()), log.F("spool", paths[i]))
		segLogger.Infof("Printing %s part", segmentNames[i])

		err := d.printer.Print(ctx, paths[i], seg.Printer())
		if err != nil {
			segLogger.WithError(err).Error("Print command failed")
		}
		result.Segments = append(result.Segments, types.SegmentResult{
			Index:     i,
			Printer:   seg.Printer(),
			SpoolPath: paths[i],
			Err:       err,
		})
	}
	return result
}

// spool tracks the files it created so they can be removed on every path
type spool struct {
	created []string
}

// write materializes content next to source, or in the temp directory when
// there is no source
func (s *spool) write(source, suffix string, content []byte) (string, error) {
	var f *os.File
	var err error
	if source == "" {
		f, err = os.CreateTemp("", "labelwatch-*"+suffix)
	} else {
		// A file already at the spool path belongs to someone else.
		f, err = os.OpenFile(source+suffix, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	}
	if err != nil {
		if os.IsExist(err) {
			return "", errors.NewFileError("spool file already exists", source+suffix, errors.FileWriteFailed, err)
		}
		return "", errors.NewFileError("cannot create spool file", source+suffix, errors.FileWriteFailed, err)
	}
	path := f.Name()
	s.created = append(s.created, path)

	if _, err := f.Write(content); err != nil {
		f.Close()
		return "", errors.NewFileError("cannot write spool file", path, errors.FileWriteFailed, err)
	}
	if err := f.Close(); err != nil {
		return "", errors.NewFileError("cannot write spool file", path, errors.FileWriteFailed, err)
	}
	return path, nil
}

func (s *spool) cleanup(logger *log.Logger) error {
	var errs []error
	for _, path := range s.created {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			ferr := errors.NewFileError("cannot remove spool file", path, errors.FileDeleteFailed, err)
			logger.WithError(ferr).Error("Error deleting spool file")
			errs = append(errs, ferr)
			continue
		}
		logger.With(log.F("spool", path)).Debug("Removed spool file")
	}
	s.created = nil
	return errors.Join(errs...)
}
