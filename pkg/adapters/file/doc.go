// Package file persists page snapshots as JSON files on the local filesystem.
package file
