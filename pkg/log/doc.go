/*
Package log provides structured logging built on zerolog.

Adapters obtain child loggers through WithComponent or WithProvider so
every line carries its origin. Secret material is never logged at any
level.
*/
package log
