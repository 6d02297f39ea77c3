package workerpool

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain enables goroutine leak detection for all tests in this package.
// A worker that survives Close fails the run.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
