package logger

import (
	"testing"

	"go.uber.org/zap/zaptest"
)

// NewTestLogger creates a Logger that writes through testing.TB.
func NewTestLogger(t testing.TB) Logger {
	return &zapWrapper{l: zaptest.NewLogger(t)}
}
