// Package prometheus adapts core.MetricsRecorder to
// github.com/prometheus/client_golang.
package prometheus
