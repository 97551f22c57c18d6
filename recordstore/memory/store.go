package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/w-h-a/medrecord/recordstore"
)

type document struct {
	medications map[string]string
	version     int64
}

type memoryStore struct {
	options recordstore.Options
	docs    map[string]document
	mtx     sync.RWMutex
}

func (s *memoryStore) Read(ctx context.Context, patientId string) (recordstore.State, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	doc, ok := s.docs[patientId]
	if !ok {
		return recordstore.State{}, recordstore.ErrNotFound
	}

	cpy := make(map[string]string, len(doc.medications))
	maps.Copy(cpy, doc.medications)

	return recordstore.State{
		Medications: cpy,
		Version:     doc.version,
	}, nil
}

func (s *memoryStore) Write(ctx context.Context, patientId string, medications map[string]string, version int64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	doc, ok := s.docs[patientId]

	if !ok {
		if version != 0 {
			return recordstore.ErrVersionConflict
		}
	} else if doc.version != version {
		return recordstore.ErrVersionConflict
	}

	cpy := make(map[string]string, len(medications))
	maps.Copy(cpy, medications)

	s.docs[patientId] = document{
		medications: cpy,
		version:     version + 1,
	}

	return nil
}

func (s *memoryStore) CreateUser(ctx context.Context, patientId string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.docs[patientId]; !ok {
		s.docs[patientId] = document{
			medications: map[string]string{},
			version:     1,
		}
	}

	return nil
}

func NewStore(opts ...recordstore.Option) recordstore.Store {
	options := recordstore.NewOptions(opts...)

	return &memoryStore{
		options: options,
		docs:    map[string]document{},
		mtx:     sync.RWMutex{},
	}
}
