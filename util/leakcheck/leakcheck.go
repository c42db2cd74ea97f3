// Package leakcheck asserts that tests leave no goroutines behind.
package leakcheck

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Check records the goroutine count and returns a func that waits for the
// count to drop back. Usage: defer leakcheck.Check(t)()
func Check(t *testing.T) func() {
	t.Helper()
	before := runtime.NumGoroutine()
	return func() {
		t.Helper()
		Assert(t, before)
	}
}

// Assert waits up to five seconds for the goroutine count to reach before,
// dumping stacks to the test log if it does not.
func Assert(t *testing.T, before int) {
	t.Helper()
	ok := assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 5*time.Second, 50*time.Millisecond, "goroutine leak detected")
	if !ok {
		buf := make([]byte, 1<<20)
		n := runtime.Stack(buf, true)
		t.Logf("leaked %d goroutines:\n%s", runtime.NumGoroutine()-before, buf[:n])
	}
}
