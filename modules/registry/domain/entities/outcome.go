package entities

import "errors"

// UpsertResult tallies what a batch of natural-key upserts did.
type UpsertResult struct {
	Created   int
	Updated   int
	Unchanged int
}

func (r *UpsertResult) Add(o UpsertResult) {
	r.Created += o.Created
	r.Updated += o.Updated
	r.Unchanged += o.Unchanged
}

// LinkRow is one dependent row as seen by the linker.
type LinkRow struct {
	ID      int64
	Ref     *string
	Current *int64
}

// LinkUpdate sets (or clears, when Target is nil) one row's link.
type LinkUpdate struct {
	ID     int64
	Target *int64
}

// ErrMissingTable marks a storage failure caused by an absent target table.
var ErrMissingTable = errors.New("target table missing")
