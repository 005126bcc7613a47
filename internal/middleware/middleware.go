package middleware

import (
	"runtime/debug"
	"time"

	"github.com/pavelc4/clipnova-tg-bot/pkg/logger"
)

const slowThreshold = 2 * time.Second

type Middleware func(next func()) func()

// Recover keeps a panicking update from taking the process down.
func Recover(next func()) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered", "error", r, "stack", string(debug.Stack()))
			}
		}()
		next()
	}
}

// Logger times the wrapped handler. Downloads make long handlers normal,
// so only slow ones are logged at info.
func Logger(name string) Middleware {
	return func(next func()) func() {
		return func() {
			start := time.Now()

			defer func() {
				duration := time.Since(start)
				if duration > slowThreshold {
					logger.Info("Handler completed (slow)", "name", name, "duration", duration)
				} else {
					logger.Debug("Handler completed", "name", name, "duration", duration)
				}
			}()

			next()
		}
	}
}

func Chain(f func(), middlewares ...Middleware) func() {
	for i := len(middlewares) - 1; i >= 0; i-- {
		f = middlewares[i](f)
	}
	return f
}
