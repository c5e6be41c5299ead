//go:build mage

// Magefile for compliance-copilot build, test and run tasks
package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/magefile/mage/sh"
)

const (
	binaryPath     = "bin/compliance-copilot"
	mainPackage    = "./cmd/compliance-copilot"
	versionPackage = "github.com/mrz1836/compliance-copilot/internal/version"
)

// Commander interface allows for dependency injection in tests
type Commander interface {
	RunV(cmd string, args ...string) error
	Output(cmd string, args ...string) (string, error)
}

// ShCommander wraps the mage sh helpers for production use
type ShCommander struct{}

// RunV implements Commander interface
func (s ShCommander) RunV(cmd string, args ...string) error {
	return sh.RunV(cmd, args...)
}

// Output implements Commander interface
func (s ShCommander) Output(cmd string, args ...string) (string, error) {
	return sh.Output(cmd, args...)
}

// CommanderManager manages the current commander instance
type CommanderManager struct {
	mu        sync.RWMutex
	commander Commander
}

// defaultManager is the package-level manager
var defaultManager = &CommanderManager{commander: ShCommander{}} //nolint:gochecknoglobals // Required for mage pattern

// setCommander allows setting the commander for testing
func setCommander(c Commander) {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	defaultManager.commander = c
}

// getCommander returns the current commander
func getCommander() Commander {
	defaultManager.mu.RLock()
	defer defaultManager.mu.RUnlock()
	return defaultManager.commander
}

// nowFunc is swapped in tests to pin the build date
var nowFunc = time.Now //nolint:gochecknoglobals // test seam

// ldflags stamps the binary with the version, commit and build date from git.
// Outside a git checkout the version package defaults stay in place.
func ldflags() string {
	c := getCommander()

	version := "dev"
	if out, err := c.Output("git", "describe", "--tags", "--always", "--dirty"); err == nil && strings.TrimSpace(out) != "" {
		version = strings.TrimPrefix(strings.TrimSpace(out), "v")
	}
	commit := "none"
	if out, err := c.Output("git", "rev-parse", "--short", "HEAD"); err == nil && strings.TrimSpace(out) != "" {
		commit = strings.TrimSpace(out)
	}

	return strings.Join([]string{
		"-s", "-w",
		fmt.Sprintf("-X %s.version=%s", versionPackage, version),
		fmt.Sprintf("-X %s.commit=%s", versionPackage, commit),
		fmt.Sprintf("-X %s.buildDate=%s", versionPackage, nowFunc().UTC().Format(time.RFC3339)),
	}, " ")
}

// Build compiles the binary into bin/ with version metadata
func Build() error {
	return getCommander().RunV("go", "build", "-ldflags", ldflags(), "-o", binaryPath, mainPackage)
}

// Test runs the unit tests
func Test() error {
	return getCommander().RunV("go", "test", "./...")
}

// TestQuick runs the unit tests in short mode
func TestQuick() error {
	return getCommander().RunV("go", "test", "-short", "./...")
}

// TestRace runs the unit tests with the race detector
func TestRace() error {
	return getCommander().RunV("go", "test", "-race", "-timeout=10m", "./...")
}

// Fuzz runs each fuzz target of the errors package for a short while
func Fuzz() error {
	for _, target := range []string{"FuzzWrapWithContext", "FuzzValidationHelpers", "FuzzNotFoundError"} {
		if err := getCommander().RunV("go", "test", "-run=^$", "-fuzz=^"+target+"$",
			"-fuzztime=15s", "./internal/errors"); err != nil {
			return fmt.Errorf("fuzz %s failed: %w", target, err)
		}
	}
	return nil
}

// Bench runs the cache, worker pool and output benchmarks
func Bench() error {
	return getCommander().RunV("go", "test", "-run=^$", "-bench=.", "-benchmem",
		"-benchtime=100ms", "-timeout=20m", "./...")
}

// TestAll runs the race tests and then the benchmarks
func TestAll() error {
	if err := TestRace(); err != nil {
		return fmt.Errorf("race tests failed: %w", err)
	}
	return Bench()
}

// Serve starts the HTTP API from source
func Serve() error {
	return getCommander().RunV("go", "run", mainPackage, "serve")
}

// ScoringValidate checks COPILOT_SCORING_FILE, or the embedded defaults when unset
func ScoringValidate() error {
	return getCommander().RunV("go", "run", mainPackage, "scoring", "validate")
}
