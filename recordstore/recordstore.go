package recordstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means the patient has no state document yet.
	ErrNotFound = errors.New("patient state not found")

	// ErrVersionConflict means a conditional write lost a race: the
	// state changed since it was read. Callers re-read and retry.
	ErrVersionConflict = errors.New("patient state version conflict")
)

// State is one patient's full medication document: medication name to
// end-date string or the as-needed marker, plus the version token the
// document was read at.
type State struct {
	Medications map[string]string
	Version     int64
}

// Store holds one durable document per patient. Reads return the full
// mapping; writes replace the full mapping conditional on the version
// read (compare-and-swap). The merge itself is computed by the caller,
// never by the store.
type Store interface {
	Read(ctx context.Context, patientId string) (State, error)
	Write(ctx context.Context, patientId string, medications map[string]string, version int64) error
	CreateUser(ctx context.Context, patientId string) error
}
