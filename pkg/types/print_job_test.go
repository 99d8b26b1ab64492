package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentIsImmutable(t *testing.T) {
	raw := []byte("CARD DATA")
	seg := NewSegment(raw)
	raw[0] = 'X'
	assert.Equal(t, "CARD DATA", string(seg.Content()))

	out := seg.Content()
	out[0] = 'Y'
	assert.Equal(t, "CARD DATA", string(seg.Content()))

	targeted := seg.WithPrinter("Zebra")
	assert.Equal(t, "", seg.Printer())
	assert.Equal(t, "Zebra", targeted.Printer())
	assert.Equal(t, "CARD DATA", string(targeted.Content()))
}

func TestPrintJobWithSource(t *testing.T) {
	job := PrintJob{Segments: []Segment{NewSegment([]byte("a"))}}
	bound := job.WithSource("/labels/a.zpl")

	assert.Empty(t, job.Source)
	assert.Equal(t, "/labels/a.zpl", bound.Source)
	assert.NotEmpty(t, bound.ID)
	assert.False(t, bound.IsSplit())

	again := bound.WithSource("/labels/b.zpl")
	assert.Equal(t, bound.ID, again.ID)
}

func TestDispatchResult(t *testing.T) {
	printErr := errors.New("printer offline")
	result := DispatchResult{
		Segments: []SegmentResult{
			{Index: 0, Printer: "A"},
			{Index: 1, Printer: "B", Err: printErr},
		},
	}
	assert.Equal(t, 1, result.Printed())
	assert.False(t, result.OK())
	assert.ErrorIs(t, result.Err(), printErr)

	ok := DispatchResult{Segments: []SegmentResult{{Index: 0}}}
	assert.True(t, ok.OK())
	assert.NoError(t, ok.Err())

	aborted := DispatchResult{Aborted: true, WriteErr: errors.New("disk full")}
	assert.False(t, aborted.OK())
	assert.Error(t, aborted.Err())
}
