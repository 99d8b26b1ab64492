// Package label understands label-printer files: which file names are label
// files, and how a file carrying a card and a form is cut into two segments.
package label

import (
	"bytes"

	"labelwatch/pkg/types"
)

// Delimiter separates the card part of a label file from the form part
const Delimiter = "##########BEGIN FORM##########"

var delimiter = []byte(Delimiter)

// Split turns raw file content into a print job.
//
// Without the delimiter the job has one segment holding the whole content.
// With it, segment 0 is the text before the first delimiter and segment 1
// the text between the first and second delimiter. Anything after a second
// delimiter is not printed and is counted in PrintJob.Dropped. Segments are
// trimmed of surrounding whitespace only.
func Split(content []byte) types.PrintJob {
	if !bytes.Contains(content, delimiter) {
		return types.PrintJob{
			Segments: []types.Segment{types.NewSegment(bytes.TrimSpace(content))},
		}
	}

	parts := bytes.Split(content, delimiter)
	return types.PrintJob{
		Segments: []types.Segment{
			types.NewSegment(bytes.TrimSpace(parts[0])),
			types.NewSegment(bytes.TrimSpace(parts[1])),
		},
		Dropped: len(parts) - 2,
	}
}

// HasDelimiter reports whether content would be split into two segments
func HasDelimiter(content []byte) bool {
	return bytes.Contains(content, delimiter)
}
