// Package telemetry exports scheduler metrics through OpenTelemetry.
//
// Metrics implements task.Metrics on top of an OpenTelemetry meter: load
// outcomes, retries and drops are counters, and the number of occupied
// execution slots is an up-down counter. Setup installs a global meter
// provider that periodically writes those metrics with the stdout exporter.
package telemetry
