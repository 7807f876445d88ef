// Package internaldefs holds the metric name and bucket definitions shared
// by the Prometheus and OTel exporters, so both expose identical series.
package internaldefs
