package ai

import (
	"strings"
	"unicode/utf8"
)

// Truncation markers inserted where prompt content was cut.
const (
	markerSectionTruncated = "[...truncated]"
	markerFilesTruncated   = "[additional files truncated for brevity]"
	markerTextTruncated    = "[...description truncated]"
)

// DiffTruncator keeps prompt content within budget while preserving file headers.
// Thread-safe (stateless after construction).
type DiffTruncator struct {
	// MaxChars is the maximum total characters.
	MaxChars int

	// MaxLinesPerFile is the maximum content lines kept per file section.
	MaxLinesPerFile int
}

// NewDiffTruncator creates a truncator with the given configuration.
func NewDiffTruncator(cfg *Config) *DiffTruncator {
	return &DiffTruncator{
		MaxChars:        cfg.DiffMaxChars,
		MaxLinesPerFile: cfg.DiffMaxLinesPerFile,
	}
}

// TruncateDiff shortens a unified diff section by section.
//
// Every file keeps its header and @@ line plus at most MaxLinesPerFile
// content lines. Files are added in order until the character budget is
// reached. The second result reports whether anything was cut; the third
// is the number of file sections in the input.
func (t *DiffTruncator) TruncateDiff(fullDiff string) (string, bool, int) {
	sections := splitDiffIntoSections(fullDiff)
	if len(fullDiff) <= t.MaxChars {
		return fullDiff, false, len(sections)
	}

	var result strings.Builder
	for _, section := range sections {
		cut := t.truncateSection(section)
		if result.Len()+len(cut) > t.MaxChars {
			result.WriteString("\n\n" + markerFilesTruncated + "\n")
			break
		}
		result.WriteString(cut)
	}

	return result.String(), true, len(sections)
}

// TruncateText shortens free text such as a ticket description on a rune boundary.
func (t *DiffTruncator) TruncateText(text string) (string, bool) {
	if utf8.RuneCountInString(text) <= t.MaxChars {
		return text, false
	}
	runes := []rune(text)
	return string(runes[:t.MaxChars]) + "\n" + markerTextTruncated, true
}

// truncateSection truncates a single file's diff section.
func (t *DiffTruncator) truncateSection(section string) string {
	lines := strings.Split(section, "\n")

	keep := findHeaderEndIndex(lines) + t.MaxLinesPerFile
	if keep >= len(lines) {
		return section
	}

	return strings.Join(lines[:keep], "\n") + "\n" + markerSectionTruncated + "\n"
}

// findHeaderEndIndex finds the index where the actual diff content starts.
// The first @@ marker is kept with the header.
func findHeaderEndIndex(lines []string) int {
	for i, line := range lines {
		if strings.HasPrefix(line, "@@") {
			return i + 1
		}
	}
	return min(len(lines), 4)
}

// splitDiffIntoSections splits a unified diff into per-file sections.
func splitDiffIntoSections(diff string) []string {
	parts := strings.Split(diff, "diff --git")

	sections := make([]string, 0, len(parts))
	for i, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if i > 0 {
			part = "diff --git" + part
		}
		sections = append(sections, part)
	}

	return sections
}
