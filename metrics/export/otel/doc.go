// Package otel bridges engine metrics into an OpenTelemetry meter using
// observable instruments. Counter values are read from a fresh engine
// snapshot on every collection cycle.
package otel
