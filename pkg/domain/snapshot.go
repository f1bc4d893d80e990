package domain

import "time"

// Snapshot is the committed state of one page: the last tree that completed a
// pass and the boundaries it was partitioned into. NextBoundary is the first id
// not yet issued, so a restored page never hands out an id twice.
type Snapshot struct {
	PageID       string     `json:"page_id" yaml:"page_id"`
	Version      uint64     `json:"version" yaml:"version"`
	Tree         *Node      `json:"tree" yaml:"tree"`
	Boundaries   []Boundary `json:"boundaries" yaml:"boundaries"`
	NextBoundary BoundaryID `json:"next_boundary,omitempty" yaml:"next_boundary,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at" yaml:"updated_at"`
}

// PassReport summarizes one reconciliation pass.
type PassReport struct {
	PassID    uint64       `json:"pass_id"`
	Renders   int          `json:"renders"`
	Mutations int          `json:"mutations"`
	Patches   int          `json:"patches"`
	Calls     []CallReport `json:"calls"`
	Stale     []BoundaryID `json:"stale,omitempty"`
	Created   []BoundaryID `json:"created,omitempty"`
	Destroyed []BoundaryID `json:"destroyed,omitempty"`
}

// CallReport describes one host update call of a pass.
type CallReport struct {
	BoundaryID  BoundaryID `json:"boundary"`
	Patches     int        `json:"patches"`
	PayloadSize int        `json:"payload_size"`
	Error       string     `json:"error,omitempty"`
}
