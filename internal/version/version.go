// Package version holds build metadata and the API version negotiation rules.
package version

import (
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Build metadata, set with -ldflags "-X github.com/mrz1836/compliance-copilot/internal/version.version=..."
//
//nolint:gochecknoglobals // set by the linker
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// APIVersion is the semantic version of the /v1 HTTP contract.
const APIVersion = "1.0.0"

// ErrUnsupportedVersion is returned when a client asks for an API version this server does not serve.
var ErrUnsupportedVersion = errors.New("unsupported API version")

// commitHashPattern matches short and full git hashes with an optional -dirty suffix.
var commitHashPattern = regexp.MustCompile(`^[0-9a-fA-F]{7,40}(-dirty)?$`)

// Info describes the running binary.
type Info struct {
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	BuildDate  string `json:"build_date"`
	APIVersion string `json:"api_version"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the build information, falling back to module data embedded by
// the Go toolchain when the linker flags were not set.
func Get() Info {
	info := Info{
		Version:    version,
		Commit:     commit,
		BuildDate:  buildDate,
		APIVersion: APIVersion,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "none" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.BuildDate == "unknown" {
					info.BuildDate = s.Value
				}
			}
		}
	}

	return info
}

// Short returns the version string shown to users.
func (i Info) Short() string {
	if isCommitHash(i.Version) {
		return "dev-" + i.Version
	}
	return i.Version
}

// NormalizeVersion strips a leading "v", surrounding spaces and any
// pre-release or build suffix.
func NormalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "v")
	if idx := strings.IndexAny(v, "-+"); idx >= 0 {
		v = v[:idx]
	}
	return v
}

// CompareVersions compares two versions and returns -1, 0 or 1.
// Versions that are not valid semver (such as "dev") sort before every release.
func CompareVersions(v1, v2 string) int {
	a, errA := semver.NewVersion(NormalizeVersion(v1))
	b, errB := semver.NewVersion(NormalizeVersion(v2))
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	default:
		return a.Compare(b)
	}
}

// Negotiate checks a client's Accept-Version header against APIVersion.
//
// The header holds a semver constraint such as "1", "^1.0" or ">= 1.0, < 2".
// An empty header accepts the current version.
func Negotiate(accept string) error {
	accept = strings.TrimSpace(accept)
	if accept == "" {
		return nil
	}

	constraint, err := semver.NewConstraint(accept)
	if err != nil {
		return fmt.Errorf("%w: invalid constraint %q: %w", ErrUnsupportedVersion, accept, err)
	}

	if !constraint.Check(semver.MustParse(APIVersion)) {
		return fmt.Errorf("%w: %q does not match %s", ErrUnsupportedVersion, accept, APIVersion)
	}
	return nil
}

func isCommitHash(v string) bool {
	return commitHashPattern.MatchString(v)
}
