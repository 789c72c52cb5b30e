// Package executor wraps a single capability invocation with dependency
// checks, a timeout, caller cancellation, panic recovery, and result
// normalization.
//
// Invocation semantics are at-most-once observed: once the adapter gives up
// on a call (timeout or cancellation) it reports failure and cancels the
// executor's context, but it does not wait for the executor to return. An
// executor that ignores its context may still finish its work in the
// background.
package executor
