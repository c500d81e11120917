// Package failure classifies errors returned by instrumented calls.
//
// Classify decides whether an error is a circuit breaker rejection, which
// callers log with breaker-specific detail. The decision never changes how
// the error propagates.
//
// Decision order, first match wins:
//
//  1. the error itself is a breaker rejection
//  2. a breaker rejection appears anywhere in its wrap chain
//  3. the call's named breaker is open
//  4. with no breaker name, any known breaker is open
//  5. the message of some error in the chain mentions the circuit breaker
//
// Step 4 is coarse. It marks a failure as breaker-related whenever any
// breaker happens to be open, even one unrelated to the call.
package failure
