package risk

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"LOW", LevelLow},
		{"medium", LevelMedium},
		{" High ", LevelHigh},
		{"Critical", LevelCritical},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range []string{"", "SEVERE", "moderate", "0"} {
		_, err := ParseLevel(bad)
		require.ErrorIs(t, err, appErrors.ErrValidation, bad)
	}
}

func TestLevelOrdering(t *testing.T) {
	levels := Levels()
	for i := 1; i < len(levels); i++ {
		assert.Greater(t, levels[i], levels[i-1])
	}
	assert.Equal(t, LevelHigh, Max(LevelHigh, LevelMedium))
	assert.Equal(t, LevelCritical, Max(LevelLow, LevelCritical))
}

func TestLevelText(t *testing.T) {
	data, err := json.Marshal(map[string]Level{"level": LevelMedium})
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"MEDIUM"}`, string(data))

	var out map[string]Level
	require.NoError(t, json.Unmarshal([]byte(`{"level":"critical"}`), &out))
	assert.Equal(t, LevelCritical, out["level"])

	require.Error(t, json.Unmarshal([]byte(`{"level":"severe"}`), &out))

	_, err = json.Marshal(struct{ L Level }{})
	require.Error(t, err)
	assert.False(t, Level(0).Valid())
	assert.Equal(t, "Level(9)", Level(9).String())
}
