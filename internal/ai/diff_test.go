package ai

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDiff(files, linesPerFile int) string {
	var b strings.Builder
	for f := 0; f < files; f++ {
		fmt.Fprintf(&b, "diff --git a/pkg/file%d.go b/pkg/file%d.go\n", f, f)
		b.WriteString("index abc123..def456 100644\n")
		fmt.Fprintf(&b, "--- a/pkg/file%d.go\n+++ b/pkg/file%d.go\n", f, f)
		fmt.Fprintf(&b, "@@ -1,1 +1,%d @@\n", linesPerFile)
		for i := 0; i < linesPerFile; i++ {
			fmt.Fprintf(&b, "+line %d of file %d\n", i, f)
		}
	}
	return b.String()
}

func TestNewDiffTruncator(t *testing.T) {
	truncator := NewDiffTruncator(DefaultConfig())

	require.NotNil(t, truncator)
	assert.Equal(t, 8000, truncator.MaxChars)
	assert.Equal(t, 80, truncator.MaxLinesPerFile)
}

func TestDiffTruncator_TruncateDiff(t *testing.T) {
	t.Run("small diff passes through unchanged", func(t *testing.T) {
		truncator := &DiffTruncator{MaxChars: 4000, MaxLinesPerFile: 50}
		diff := buildDiff(1, 3)

		out, cut, files := truncator.TruncateDiff(diff)

		assert.Equal(t, diff, out)
		assert.False(t, cut)
		assert.Equal(t, 1, files)
	})

	t.Run("long file section keeps header and first lines", func(t *testing.T) {
		truncator := &DiffTruncator{MaxChars: 400, MaxLinesPerFile: 5}
		diff := buildDiff(1, 40)

		out, cut, files := truncator.TruncateDiff(diff)

		assert.True(t, cut)
		assert.Equal(t, 1, files)
		assert.Contains(t, out, "diff --git a/pkg/file0.go b/pkg/file0.go")
		assert.Contains(t, out, "@@ -1,1 +1,40 @@")
		assert.Contains(t, out, "+line 4 of file 0")
		assert.NotContains(t, out, "+line 5 of file 0")
		assert.Contains(t, out, markerSectionTruncated)
	})

	t.Run("files beyond the budget are dropped", func(t *testing.T) {
		truncator := &DiffTruncator{MaxChars: 500, MaxLinesPerFile: 5}
		diff := buildDiff(10, 5)

		out, cut, files := truncator.TruncateDiff(diff)

		assert.True(t, cut)
		assert.Equal(t, 10, files)
		assert.Contains(t, out, "file0.go")
		assert.NotContains(t, out, "file9.go")
		assert.Contains(t, out, markerFilesTruncated)
		assert.LessOrEqual(t, len(out), 500+len(markerFilesTruncated)+3)
	})
}

func TestDiffTruncator_TruncateText(t *testing.T) {
	truncator := &DiffTruncator{MaxChars: 5, MaxLinesPerFile: 10}

	out, cut := truncator.TruncateText("abc")
	assert.Equal(t, "abc", out)
	assert.False(t, cut)

	out, cut = truncator.TruncateText("héllo wörld")
	assert.True(t, cut)
	assert.True(t, strings.HasPrefix(out, "héllo"))
	assert.Contains(t, out, markerTextTruncated)
}

func TestFindHeaderEndIndex(t *testing.T) {
	assert.Equal(t, 3, findHeaderEndIndex([]string{"--- a/x", "+++ b/x", "@@ -1 +1 @@", "+x"}))
	assert.Equal(t, 4, findHeaderEndIndex([]string{"a", "b", "c", "d", "e"}))
	assert.Equal(t, 2, findHeaderEndIndex([]string{"a", "b"}))
}

func TestSplitDiffIntoSections(t *testing.T) {
	sections := splitDiffIntoSections(buildDiff(3, 1))

	require.Len(t, sections, 3)
	for i, s := range sections {
		assert.True(t, strings.HasPrefix(s, "diff --git"), "section %d", i)
	}
	assert.Empty(t, splitDiffIntoSections("  \n"))
}
