// Package parallel holds the small synchronization helpers shared by the
// worker pools: first-error collection and panic capture across goroutines.
package parallel

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// ErrorCollector records the first non-nil error reported by any goroutine.
// The zero value is ready to use.
type ErrorCollector struct {
	mu  sync.Mutex
	err error
}

// SetError stores err if it is non-nil and no error has been stored yet.
func (c *ErrorCollector) SetError(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
}

// Err returns the first recorded error, or nil.
func (c *ErrorCollector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// PanicError carries a value recovered from a panicking worker together with
// the worker's stack at the time of the panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Recover must be deferred directly by a worker goroutine. A recovered panic
// is stored in c as a *PanicError.
func (c *ErrorCollector) Recover() {
	if r := recover(); r != nil {
		c.SetError(&PanicError{Value: r, Stack: debug.Stack()})
	}
}

// Repanic re-raises a panic captured by Recover in the calling goroutine,
// using the original panic value. It does nothing if no panic was captured.
func (c *ErrorCollector) Repanic() {
	if pe, ok := c.Err().(*PanicError); ok {
		panic(pe.Value)
	}
}
