package errors //nolint:revive,nolintlint // internal test package, name conflict intentional

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// FuzzWrapWithContext verifies WrapWithContext never panics and keeps the chain.
func FuzzWrapWithContext(f *testing.F) {
	f.Add("normal operation")
	f.Add("")
	f.Add("with\nnewline")
	f.Add("with\x00null")
	f.Add(strings.Repeat("a", 4000))
	f.Add("unicode: 日本語 中文 한국어") //nolint:gosmopolitan // intentional unicode test data

	baseErr := errors.New("base error") //nolint:err113 // test-only error for fuzz testing
	f.Fuzz(func(t *testing.T, operation string) {
		if len(operation) > 5000 {
			t.Skipf("Input too large: %d bytes (limit: 5000)", len(operation))
		}

		result := WrapWithContext(baseErr, operation)
		require.Error(t, result)
		require.ErrorIs(t, result, baseErr)
		_ = result.Error()
	})
}

// FuzzValidationHelpers verifies every validation helper stays in the validation class.
func FuzzValidationHelpers(f *testing.F) {
	f.Add("title", "value")
	f.Add("", "")
	f.Add("payload.diff", "<script>")
	f.Add("labels[3]", strings.Repeat("x", 600))

	f.Fuzz(func(t *testing.T, field, value string) {
		if len(field)+len(value) > 5000 {
			t.Skip("input too large")
		}

		for _, err := range []error{
			ValidationError(field, value),
			InvalidFieldError(field, value),
			EmptyFieldError(field),
			RequiredFieldError(field),
			FieldTooLongError(field, len(value)),
			UnsafeInputError(value),
		} {
			require.ErrorIs(t, err, ErrValidation)
			require.True(t, IsValidationClass(err))
			require.False(t, IsBackendClass(err))
		}
	})
}

// FuzzNotFoundError verifies lookups keep their key in the message.
func FuzzNotFoundError(f *testing.F) {
	f.Add("fingerprint", "3f2a")
	f.Add("identifier", "acme/api#1")
	f.Add("", "")

	f.Fuzz(func(t *testing.T, kind, key string) {
		err := NotFoundError(kind, key)
		require.ErrorIs(t, err, ErrNotFound)
		require.Contains(t, err.Error(), key)
	})
}
