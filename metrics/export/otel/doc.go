// Package otel publishes authcore metrics through an OpenTelemetry Meter.
//
// Each counter becomes an Int64ObservableCounter and each histogram bucket an
// Int64ObservableGauge. One callback reads the engine snapshot per collection.
// The caller owns the MeterProvider.
package otel
