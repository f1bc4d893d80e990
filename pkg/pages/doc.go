/*
Package pages manages many mounted pages, one render engine per page.

It serializes passes of the same page with reference-counted local locks and,
across replicas, an optional distributed locker. Committed snapshots are kept in
a ports.SnapshotStore; a page that is not resident is restored from its snapshot
with a fresh mount before the next pass runs.
*/
package pages
