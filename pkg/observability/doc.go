// Package observability exposes the render pipeline to Prometheus.
//
// Metrics registers one collector per pipeline concern and turns it into
// domain.LifecycleHooks that can be merged with any other hooks passed to the
// engine.
package observability
