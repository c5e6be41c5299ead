package source

import (
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// FileChange summarizes one file of a unified diff.
type FileChange struct {
	// Path is the file path relative to the repository root.
	Path string

	// ChangeType is "added", "modified", "deleted" or "renamed".
	ChangeType string

	LinesAdded   int
	LinesRemoved int
}

// DiffStats summarizes a whole unified diff.
type DiffStats struct {
	Files        []FileChange
	LinesAdded   int
	LinesRemoved int
}

// ChangedLines returns the number of added plus removed lines.
func (s DiffStats) ChangedLines() int {
	return s.LinesAdded + s.LinesRemoved
}

// Paths returns the path of every changed file.
func (s DiffStats) Paths() []string {
	paths := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

// ParseDiff parses a unified (optionally multi-file, git-style) diff.
//
// Text that contains no file header at all is not an error for the
// underlying parser; ok is false in that case so callers can tell an
// empty diff from an unparsable one.
func ParseDiff(text string) (stats DiffStats, ok bool) {
	if strings.TrimSpace(text) == "" {
		return DiffStats{}, false
	}

	fileDiffs, err := diff.NewMultiFileDiffReader(strings.NewReader(text)).ReadAllFiles()
	if err != nil || len(fileDiffs) == 0 {
		return DiffStats{}, false
	}

	for _, fd := range fileDiffs {
		fc := FileChange{
			Path:       diffPath(fd),
			ChangeType: changeType(fd),
		}
		for _, hunk := range fd.Hunks {
			// file headers never reach the hunk body
			for _, line := range strings.Split(string(hunk.Body), "\n") {
				switch {
				case strings.HasPrefix(line, "+"):
					fc.LinesAdded++
				case strings.HasPrefix(line, "-"):
					fc.LinesRemoved++
				}
			}
		}
		if fc.Path == "" {
			continue
		}
		stats.LinesAdded += fc.LinesAdded
		stats.LinesRemoved += fc.LinesRemoved
		stats.Files = append(stats.Files, fc)
	}

	return stats, len(stats.Files) > 0
}

// diffPath returns the repository path of a file diff, preferring the new name.
func diffPath(fd *diff.FileDiff) string {
	name := fd.NewName
	if name == "" || name == "/dev/null" {
		name = fd.OrigName
	}
	if name == "/dev/null" {
		return ""
	}
	name = strings.TrimPrefix(name, "b/")
	name = strings.TrimPrefix(name, "a/")
	return name
}

func changeType(fd *diff.FileDiff) string {
	switch {
	case fd.OrigName == "/dev/null":
		return "added"
	case fd.NewName == "/dev/null":
		return "deleted"
	case strings.TrimPrefix(fd.OrigName, "a/") != strings.TrimPrefix(fd.NewName, "b/"):
		return "renamed"
	default:
		return "modified"
	}
}
