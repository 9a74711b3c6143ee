// Package orchestration runs one batch of Collatz transforms end to end: it
// dispatches the inputs, feeds progress to a reporter, records metrics,
// traces and logs, and hands a BatchResult to the presentation layer through
// the ProgressReporter and ResultPresenter interfaces.
package orchestration
