package env

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFilesFromDir(t *testing.T) {
	t.Run("missing files are not an error", func(t *testing.T) {
		require.NoError(t, LoadEnvFilesFromDir(t.TempDir()))
	})

	t.Run("local file takes precedence over base file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
			[]byte("COPILOT_TEST_SHARED=base\nCOPILOT_TEST_BASE_ONLY=base\n"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"),
			[]byte("COPILOT_TEST_SHARED=local\n"), 0o600))

		t.Cleanup(func() {
			_ = os.Unsetenv("COPILOT_TEST_SHARED")
			_ = os.Unsetenv("COPILOT_TEST_BASE_ONLY")
		})

		require.NoError(t, LoadEnvFilesFromDir(dir))
		assert.Equal(t, "local", os.Getenv("COPILOT_TEST_SHARED"))
		assert.Equal(t, "base", os.Getenv("COPILOT_TEST_BASE_ONLY"))
	})

	t.Run("process environment is never overwritten", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
			[]byte("COPILOT_TEST_PROCESS=file\n"), 0o600))
		t.Setenv("COPILOT_TEST_PROCESS", "process")

		require.NoError(t, LoadEnvFilesFromDir(dir))
		assert.Equal(t, "process", os.Getenv("COPILOT_TEST_PROCESS"))
	})
}

func TestGetEnvWithFallback(t *testing.T) {
	t.Setenv("COPILOT_TEST_SET", "value")

	assert.Equal(t, "value", GetEnvWithFallback("COPILOT_TEST_SET", "fallback"))
	assert.Equal(t, "fallback", GetEnvWithFallback("COPILOT_TEST_UNSET_VALUE", "fallback"))
}

func TestParser(t *testing.T) {
	var warnings []string
	p := Parser{Warn: func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}}

	t.Setenv("COPILOT_TEST_INT", "42")
	t.Setenv("COPILOT_TEST_BAD_INT", "forty-two")
	t.Setenv("COPILOT_TEST_FLOAT", "0.25")
	t.Setenv("COPILOT_TEST_BOOL", "false")
	t.Setenv("COPILOT_TEST_BAD_BOOL", "maybe")
	t.Setenv("COPILOT_TEST_SECONDS", "15")
	t.Setenv("COPILOT_TEST_DURATION", "250ms")

	assert.Equal(t, 42, p.Int("COPILOT_TEST_INT", 1))
	assert.Equal(t, 1, p.Int("COPILOT_TEST_BAD_INT", 1))
	assert.InEpsilon(t, 0.25, p.Float("COPILOT_TEST_FLOAT", 1.0), 0.0001)
	assert.False(t, p.Bool("COPILOT_TEST_BOOL", true))
	assert.True(t, p.Bool("COPILOT_TEST_BAD_BOOL", true))
	assert.True(t, p.Bool("COPILOT_TEST_MISSING_BOOL", true))
	assert.Equal(t, 15*time.Second, p.Seconds("COPILOT_TEST_SECONDS", time.Second))
	assert.Equal(t, 250*time.Millisecond, p.Seconds("COPILOT_TEST_DURATION", time.Second))
	assert.Equal(t, "default", p.String("COPILOT_TEST_MISSING_STRING", "default"))

	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "COPILOT_TEST_BAD_INT")
	assert.Contains(t, warnings[1], "COPILOT_TEST_BAD_BOOL")
}

func TestParserNilWarn(t *testing.T) {
	t.Setenv("COPILOT_TEST_BAD_FLOAT", "nope")

	assert.InEpsilon(t, 0.5, Parser{}.Float("COPILOT_TEST_BAD_FLOAT", 0.5), 0.0001)
}
