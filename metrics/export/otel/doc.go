// Package otel bridges client metrics to OpenTelemetry observable instruments.
package otel
