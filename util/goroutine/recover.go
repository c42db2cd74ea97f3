// Package goroutine runs background work without letting a panic take the
// process down.
package goroutine

import (
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"
)

// StackTraceBufferSize is the buffer size for stack trace collection
const StackTraceBufferSize = 4096

// Recover logs a panic raised in the calling goroutine. It must be deferred.
// With a nil logger the panic goes to stderr.
func Recover(name string, logger *zap.SugaredLogger) {
	if r := recover(); r != nil {
		report(name, r, logger)
	}
}

// Go runs fn in a new goroutine. A panic in fn is logged and, when errCh is
// not nil, delivered to it as an error.
func Go(name string, logger *zap.SugaredLogger, errCh chan<- error, fn func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				report(name, r, logger)
				send(errCh, fmt.Errorf("goroutine %s panicked: %v", name, r))
			}
		}()
		if err := fn(); err != nil {
			send(errCh, err)
		}
	}()
}

func send(errCh chan<- error, err error) {
	if errCh == nil {
		return
	}
	select {
	case errCh <- err:
	default:
	}
}

func report(name string, r interface{}, logger *zap.SugaredLogger) {
	buf := make([]byte, StackTraceBufferSize)
	n := runtime.Stack(buf, false)

	if logger == nil {
		fmt.Fprintf(os.Stderr, "PANIC in goroutine %s (no logger): %v\n%s\n", name, r, buf[:n])
		return
	}
	logger.Errorw("Goroutine panic recovered",
		"goroutine", name,
		"panic", r,
		"stack", string(buf[:n]))
}
