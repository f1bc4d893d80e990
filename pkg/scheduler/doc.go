// Package scheduler batches the patches of a reconciliation pass per boundary
// and flushes them as one host update call per boundary.
//
// Passes are single-writer: Begin blocks until the previous pass committed or
// aborted. Patches addressed to a boundary destroyed within the pass are
// dropped rather than delivered.
package scheduler
