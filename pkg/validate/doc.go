/*
Package validate checks typed records against JSON Schemas compiled
once and reused.

The built-in schema covers application dependency descriptors; custom
schemas compile through NewCustom. Failures are returned as explicit
results, never raised across the package boundary, with JSON-pointer
paths and human-readable, domain-oriented messages.
*/
package validate
