package label

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func segmentStrings(t *testing.T, content string) []string {
	t.Helper()
	job := Split([]byte(content))
	out := make([]string, len(job.Segments))
	for i, s := range job.Segments {
		out[i] = string(s.Content())
	}
	return out
}

func TestSplitWithoutDelimiter(t *testing.T) {
	for _, content := range []string{
		"SINGLE LABEL",
		"  ^XA^FO50,50^FDHello^FS^XZ \n",
		"",
		"\n\tline one\n\n  line two  \n",
		"##########BEGIN FORM#########", // one '#' short
	} {
		job := Split([]byte(content))
		require.Len(t, job.Segments, 1, "content %q", content)
		assert.Equal(t, strings.TrimSpace(content), string(job.Segments[0].Content()))
		assert.False(t, job.IsSplit())
		assert.Zero(t, job.Dropped)
	}
}

func TestSplitScenario(t *testing.T) {
	got := segmentStrings(t, "CARD DATA\n##########BEGIN FORM##########\nFORM DATA")
	assert.Equal(t, []string{"CARD DATA", "FORM DATA"}, got)

	got = segmentStrings(t, "SINGLE LABEL")
	assert.Equal(t, []string{"SINGLE LABEL"}, got)
}

func TestSplitReconstructsStructure(t *testing.T) {
	cases := []struct{ card, form string }{
		{"^XA^FDcard^FS^XZ", "^XA^FDform^FS^XZ"},
		{"", "form only"},
		{"card only", ""},
		{"a\n  b\n", "\n c  d"},
	}
	for _, tc := range cases {
		content := tc.card + Delimiter + tc.form
		job := Split([]byte(content))
		require.Len(t, job.Segments, 2)

		first, second := job.Segments[0].Content(), job.Segments[1].Content()
		assert.False(t, bytes.Contains(first, []byte(Delimiter)))
		assert.False(t, bytes.Contains(second, []byte(Delimiter)))

		rebuilt := string(first) + Delimiter + string(second)
		expected := strings.TrimSpace(tc.card) + Delimiter + strings.TrimSpace(tc.form)
		assert.Equal(t, expected, rebuilt)
	}
}

func TestSplitKeepsInteriorWhitespace(t *testing.T) {
	got := segmentStrings(t, "  A  \n  B  "+Delimiter+"\tC \t D\t")
	assert.Equal(t, []string{"A  \n  B", "C \t D"}, got)
}

func TestSplitRepeatedDelimiter(t *testing.T) {
	job := Split([]byte("one" + Delimiter + "two" + Delimiter + "three" + Delimiter + "four"))
	require.Len(t, job.Segments, 2)
	assert.Equal(t, "one", string(job.Segments[0].Content()))
	assert.Equal(t, "two", string(job.Segments[1].Content()))
	assert.Equal(t, 2, job.Dropped)
	assert.True(t, HasDelimiter([]byte("x"+Delimiter)))
}

func TestMatcher(t *testing.T) {
	m := DefaultMatcher()
	for path, want := range map[string]bool{
		"/home/u/Downloads/label.zpl":        true,
		"/home/u/Downloads/label.lbl":        true,
		"label.zpl":                          true,
		"/home/u/Downloads/label.ZPL":        false,
		"/home/u/Downloads/label.Lbl":        false,
		"/home/u/Downloads/label.zpl.first":  false,
		"/home/u/Downloads/label.zpl.second": false,
		"/home/u/Downloads/label.txt":        false,
		"/home/u/Downloads/zpl":              false,
		"/home/u/Downloads.zpl/readme.md":    false,
	} {
		assert.Equal(t, want, m.Match(path), "path %s", path)
	}
	assert.Equal(t, DefaultPattern, m.Pattern())
}

func TestNewMatcher(t *testing.T) {
	m, err := NewMatcher("*.{epl,zpl}")
	require.NoError(t, err)
	assert.True(t, m.Match("/x/a.epl"))
	assert.False(t, m.Match("/x/a.lbl"))
}
