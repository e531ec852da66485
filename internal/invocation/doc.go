// Package invocation runs capability invocations with cooperative cancellation.
//
// Each invocation gets a fresh Token. Cancelling it cancels the context handed
// to the capability handle; streaming invocations additionally stop pulling
// chunks at the next chunk boundary and keep what was accumulated so far.
// Cancellation is an outcome, not an error.
package invocation
