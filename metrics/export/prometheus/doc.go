// Package prometheus renders authcore metrics in the Prometheus text
// exposition format.
//
// The exporter keeps no registry of its own; mount [Exporter.Handler] on
// whatever mux serves /metrics. Counters are named authcore_*_total and the
// single histogram is authcore_verify_latency_seconds.
package prometheus
