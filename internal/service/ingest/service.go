package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/w-h-a/medrecord/extractor"
	"github.com/w-h-a/medrecord/internal/service/clinical"
	"github.com/w-h-a/medrecord/internal/service/index"
	"github.com/w-h-a/medrecord/internal/service/medication"
	"github.com/w-h-a/medrecord/record"
)

// Service is the ingestion pipeline: text acquisition, clinical
// extraction, medication lifecycle merge, and chunk indexing for one
// document. A failed extraction degrades to an empty record so that
// indexing still proceeds; a document that yields no text at all
// aborts the request.
type Service struct {
	extractor   extractor.Extractor
	clinical    *clinical.Service
	medications *medication.Service
	indexer     *index.Service
	collection  string
	now         func() time.Time
}

type Result struct {
	Text     string
	Record   record.ClinicalRecord
	Chunks   int
	Degraded bool
}

func (s *Service) Ingest(ctx context.Context, patientId string, path string) (Result, error) {
	// lifecycle prune pass ahead of every ingestion; best effort
	if _, err := s.medications.Prune(ctx, patientId, s.now()); err != nil {
		slog.WarnContext(ctx, "prune pass failed", "patient", patientId, "error", err)
	}

	text, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return Result{}, fmt.Errorf("text acquisition: %w", err)
	}

	if len(text) == 0 {
		return Result{}, extractor.ErrNoTextFound
	}

	result := Result{Text: text}

	clinicalRecord, err := s.clinical.Extract(ctx, text)
	if err != nil {
		// one bad extraction must not abort the pipeline's other
		// side effects; indexing still proceeds
		var parseErr *clinical.ParseError
		if errors.As(err, &parseErr) {
			slog.ErrorContext(ctx, "could not parse extraction output", "patient", patientId, "error", err)
		} else {
			slog.ErrorContext(ctx, "clinical extraction call failed", "patient", patientId, "error", err)
		}
		result.Degraded = true
		clinicalRecord = record.ClinicalRecord{}
	}

	result.Record = clinicalRecord

	if len(clinicalRecord.Medications) > 0 {
		endDates := medication.ResolveEndDates(s.now(), clinicalRecord.Medications)
		if err := s.medications.Merge(ctx, patientId, endDates); err != nil {
			slog.ErrorContext(ctx, "medication merge failed", "patient", patientId, "error", err)
			result.Degraded = true
		}
	}

	chunks, err := s.indexer.Index(ctx, s.collection, text)
	if err != nil {
		return Result{}, fmt.Errorf("indexing: %w", err)
	}

	result.Chunks = chunks

	return result, nil
}

func New(
	extractor extractor.Extractor,
	clinical *clinical.Service,
	medications *medication.Service,
	indexer *index.Service,
	collection string,
) *Service {
	return &Service{
		extractor:   extractor,
		clinical:    clinical,
		medications: medications,
		indexer:     indexer,
		collection:  collection,
		now:         time.Now,
	}
}
