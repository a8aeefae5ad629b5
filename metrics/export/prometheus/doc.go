// Package prometheus exposes client metrics as a prometheus.Collector.
package prometheus
