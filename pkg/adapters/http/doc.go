// Package http exposes a page service over HTTP: page creation and updates
// routed with chi, a server-sent event stream of host calls per page, and
// Prometheus metrics.
package http
