// Package logging provides the structured logging interface used across the
// collatz components. Production code logs through zerolog; a standard
// library adapter exists for callers that already own a *log.Logger.
package logging
