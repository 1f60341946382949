package id

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// NewRun returns a run identifier stamped with the run's creation time.
// Run IDs sort by creation time, which is the order `journal runs` lists;
// the shared monotonic entropy keeps IDs of the same millisecond ordered.
func NewRun(created time.Time) string {
	return ulid.MustNew(ulid.Timestamp(created.UTC()), ulid.DefaultEntropy()).String()
}

// Created extracts the creation time encoded in a run ID.
func Created(runID string) (time.Time, error) {
	id, err := ulid.ParseStrict(runID)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(id.Time()).UTC(), nil
}
