/*
Package retry wraps provider calls in a bounded exponential-backoff
loop.

The policy defaults to 3 attempts, a 100ms base delay doubling up to a
10s cap, and full jitter. Only errors classified retryable by the
errdefs taxonomy are retried; validation, authentication, not-found,
and conflict errors surface after a single attempt. The final error is
the last one observed, annotated with the attempt count.
*/
package retry
