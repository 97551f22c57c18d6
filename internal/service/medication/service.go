package medication

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/w-h-a/medrecord/record"
	"github.com/w-h-a/medrecord/recordstore"
)

// writes retry on version conflicts this many times before giving up
const maxWriteAttempts = 3

// Service owns the per-patient medication lifecycle: merging newly
// extracted medications into persisted state and pruning expired
// entries. Both operate on the entire state document with a
// conditional full overwrite.
type Service struct {
	store recordstore.Store
}

// Merge overwrites only the medication names present in endDates;
// all other persisted entries are left untouched.
func (s *Service) Merge(ctx context.Context, patientId string, endDates map[string]record.EndDate) error {
	if len(endDates) == 0 {
		return nil
	}

	var err error

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		state, readErr := s.read(ctx, patientId)
		if readErr != nil {
			return readErr
		}

		for name, endDate := range endDates {
			state.Medications[name] = endDate.String()
		}

		err = s.store.Write(ctx, patientId, state.Medications, state.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, recordstore.ErrVersionConflict) {
			return err
		}
	}

	return fmt.Errorf("merge for patient %s: %w", patientId, err)
}

// Prune removes dated entries that expired strictly before ref.
// As-needed entries always survive. Entries whose stored value parses
// as neither are kept and logged, never dropped.
func (s *Service) Prune(ctx context.Context, patientId string, ref time.Time) (map[string]string, error) {
	var err error

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		state, readErr := s.store.Read(ctx, patientId)
		if readErr != nil {
			if errors.Is(readErr, recordstore.ErrNotFound) {
				return map[string]string{}, nil
			}
			return nil, readErr
		}

		surviving := make(map[string]string, len(state.Medications))

		for name, value := range state.Medications {
			endDate, parseErr := record.ParseEndDate(value)
			if parseErr != nil {
				slog.WarnContext(ctx, "keeping medication with unparsable end date", "medication", name, "error", parseErr)
				surviving[name] = value
				continue
			}

			if endDate.Before(ref) {
				continue
			}

			surviving[name] = value
		}

		if len(surviving) == len(state.Medications) {
			return surviving, nil
		}

		err = s.store.Write(ctx, patientId, surviving, state.Version)
		if err == nil {
			return surviving, nil
		}
		if !errors.Is(err, recordstore.ErrVersionConflict) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("prune for patient %s: %w", patientId, err)
}

// read returns current state, lazily starting from an empty document
// for first-time patients.
func (s *Service) read(ctx context.Context, patientId string) (recordstore.State, error) {
	state, err := s.store.Read(ctx, patientId)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return recordstore.State{Medications: map[string]string{}}, nil
		}
		return recordstore.State{}, err
	}
	return state, nil
}

func New(store recordstore.Store) *Service {
	return &Service{
		store: store,
	}
}
