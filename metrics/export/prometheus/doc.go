// Package prometheus exposes engine metrics as a prometheus.Collector.
// Register the collector on a registry and serve it with promhttp; the
// collector reads a fresh snapshot on every scrape.
package prometheus
