package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func TestMarshalUnmarshal(t *testing.T) {
	data, err := MarshalJSON(sample{Name: "pr", Items: []string{"a", "b"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"pr","items":["a","b"]}`, string(data))

	got, err := UnmarshalJSON[sample](data)
	require.NoError(t, err)
	assert.Equal(t, "pr", got.Name)
	assert.Equal(t, []string{"a", "b"}, got.Items)
}

func TestMarshalJSON_Unsupported(t *testing.T) {
	_, err := MarshalJSON(make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal to JSON")
}

func TestUnmarshalJSON_Invalid(t *testing.T) {
	_, err := UnmarshalJSON[sample]([]byte(`{"name":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal JSON")
}

func TestDecodeStrict(t *testing.T) {
	_, err := DecodeStrict[sample]([]byte(`{"name":"x","extra":1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")

	got, err := DecodeStrict[sample]([]byte(`{"name":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, "x", got.Name)
}

func TestPrettyPrint(t *testing.T) {
	out, err := PrettyPrint(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", out)
}
