// Package mock implements every service and client contract against
// an in-memory world. It is the reference provider: contract tests
// run against it, and applications use it for local development.
//
// Asynchronous resources (deployments, functions, jobs, clusters)
// advance one pending status transition per observation, so a test
// that polls reaches the terminal state deterministically without
// depending on wall-clock time. Randomness (job failures) and latency
// injection are controlled through the "mock.seed" and
// "mock.latencyMs" extra options.
package mock
