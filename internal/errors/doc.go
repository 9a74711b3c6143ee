// Package apperrors defines structured application error types that separate
// configuration failures from bad command-line input, and maps each class to
// a process exit code.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// Wrapped errors remain reachable through errors.Is() and errors.As().
package apperrors
