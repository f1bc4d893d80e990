// Package middleware wraps snapshot stores with cross-cutting behavior such as
// encryption at rest.
package middleware
