// Package testutil provides shared helpers for tests: testify mock return
// handling and payload fixtures on disk.
package testutil

import (
	"fmt"

	"github.com/stretchr/testify/mock"
)

// HandleTwoValueReturn unpacks the (result, error) pair a mocked method was set up to return.
// A mock configured with only an error, or with the wrong result type, yields an error
// instead of a panic.
func HandleTwoValueReturn[T any](args mock.Arguments) (T, error) {
	var zero T

	if len(args) < 2 {
		if len(args) == 1 {
			if err, ok := args.Get(0).(error); ok {
				return zero, err
			}
		}
		return zero, fmt.Errorf("mock not properly configured: expected 2 return values, got %d", len(args)) //nolint:err113 // test mock misconfiguration
	}

	if args.Get(0) == nil {
		return zero, args.Error(1)
	}

	result, ok := args.Get(0).(T)
	if !ok {
		return zero, fmt.Errorf("mock result is %T, not the expected type", args.Get(0)) //nolint:err113 // test mock misconfiguration
	}

	return result, args.Error(1)
}
