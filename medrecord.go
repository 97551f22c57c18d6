package medrecord

import (
	"context"
	"time"

	"github.com/w-h-a/medrecord/embedder"
	"github.com/w-h-a/medrecord/extractor"
	"github.com/w-h-a/medrecord/generator"
	"github.com/w-h-a/medrecord/internal/service/clinical"
	"github.com/w-h-a/medrecord/internal/service/index"
	"github.com/w-h-a/medrecord/internal/service/ingest"
	"github.com/w-h-a/medrecord/internal/service/medication"
	"github.com/w-h-a/medrecord/internal/service/query"
	"github.com/w-h-a/medrecord/record"
	"github.com/w-h-a/medrecord/recordstore"
	"github.com/w-h-a/medrecord/vectorstore"
)

// MedRecord is the facade over the ingestion, lifecycle, and
// retrieval services. All provider clients are injected; the facade
// owns no process-wide state.
type MedRecord struct {
	ingest      *ingest.Service
	query       *query.Service
	medications *medication.Service
	vectors     vectorstore.Store
	patients    recordstore.Store
}

// Ingest runs the full pipeline for one staged document and returns
// the extracted text and structured record.
func (m *MedRecord) Ingest(ctx context.Context, patientId string, path string) (ingest.Result, error) {
	return m.ingest.Ingest(ctx, patientId, path)
}

// Answer runs retrieval-augmented answering against the named
// collection.
func (m *MedRecord) Answer(ctx context.Context, userQuery string, collection string) (string, error) {
	return m.query.Answer(ctx, userQuery, collection)
}

// PruneMedications removes expired entries from the patient's
// medication state and returns what survived.
func (m *MedRecord) PruneMedications(ctx context.Context, patientId string) (map[string]string, error) {
	return m.medications.Prune(ctx, patientId, time.Now())
}

// ResolveEndDates exposes end-date resolution for callers that manage
// their own state.
func (m *MedRecord) ResolveEndDates(ref time.Time, medications []record.Medication) map[string]record.EndDate {
	return medication.ResolveEndDates(ref, medications)
}

// Signup provisions a patient: an empty vector collection named after
// the patient and an empty state document.
func (m *MedRecord) Signup(ctx context.Context, patientId string) error {
	if err := m.vectors.CreateCollection(ctx, patientId); err != nil {
		return err
	}
	return m.patients.CreateUser(ctx, patientId)
}

type Config struct {
	Extractor   extractor.Extractor
	Generator   generator.Generator
	Embedder    embedder.Embedder
	VectorStore vectorstore.Store
	RecordStore recordstore.Store

	// IngestCollection is the shared namespace documents are indexed
	// into at upload time.
	IngestCollection string
	ChunkSize        int
	TopK             int
}

func New(config Config) *MedRecord {
	medications := medication.New(config.RecordStore)
	indexer := index.New(config.Embedder, config.VectorStore, config.ChunkSize)

	return &MedRecord{
		ingest: ingest.New(
			config.Extractor,
			clinical.New(config.Generator),
			medications,
			indexer,
			config.IngestCollection,
		),
		query:       query.New(config.Embedder, config.VectorStore, config.Generator, config.TopK),
		medications: medications,
		vectors:     config.VectorStore,
		patients:    config.RecordStore,
	}
}
