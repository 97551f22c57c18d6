package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	getsafe "github.com/w-h-a/medrecord/util/get_safe"
	"github.com/w-h-a/medrecord/vectorstore"
)

type qdrantStore struct {
	options vectorstore.Options
	client  *http.Client
}

func (s *qdrantStore) CreateCollection(ctx context.Context, name string) error {
	distance := s.options.Distance
	if len(distance) == 0 {
		distance = "Cosine"
	}

	req := map[string]any{
		"vectors": map[string]any{
			"size":     s.options.VectorSize,
			"distance": distance,
		},
	}

	path := fmt.Sprintf("/collections/%s", url.PathEscape(name))

	var rsp qdrantEnvelope[json.RawMessage]

	if err := s.do(ctx, http.MethodPut, path, req, &rsp); err != nil {
		return err
	}

	if !strings.EqualFold(rsp.Status.State, "ok") {
		return errors.New(rsp.Status.Error)
	}

	return nil
}

func (s *qdrantStore) GetCollection(ctx context.Context, name string) error {
	path := fmt.Sprintf("/collections/%s", url.PathEscape(name))

	var rsp qdrantEnvelope[json.RawMessage]

	if err := s.do(ctx, http.MethodGet, path, nil, &rsp); err != nil {
		if strings.Contains(err.Error(), "404") {
			return vectorstore.ErrCollectionNotFound
		}
		return err
	}

	if !strings.EqualFold(rsp.Status.State, "ok") {
		return vectorstore.ErrCollectionNotFound
	}

	return nil
}

func (s *qdrantStore) Upsert(ctx context.Context, collection string, ids []string, embeddings [][]float32, documents []string, metadata map[string]any) error {
	if len(ids) != len(embeddings) || len(ids) != len(documents) {
		return errors.New("ids, embeddings, and documents must align")
	}

	points := make([]map[string]any, 0, len(ids))

	for i := range ids {
		// qdrant point ids must be uuids, so the caller's id travels
		// in the payload
		payload := map[string]any{
			"document_id": ids[i],
			"content":     documents[i],
			"metadata":    metadata,
			"created_at":  time.Now().UTC().Format(time.RFC3339Nano),
		}

		points = append(points, map[string]any{
			"id":      uuid.New().String(),
			"vector":  embeddings[i],
			"payload": payload,
		})
	}

	req := map[string]any{
		"points": points,
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", url.PathEscape(collection))

	var rsp qdrantEnvelope[json.RawMessage]

	if err := s.do(ctx, http.MethodPut, path, req, &rsp); err != nil {
		return err
	}

	if !strings.EqualFold(rsp.Status.State, "ok") && len(rsp.Status.Error) > 0 {
		return errors.New(rsp.Status.Error)
	}

	return nil
}

func (s *qdrantStore) Query(ctx context.Context, collection string, embedding []float32, k int) ([]vectorstore.Document, error) {
	if k < 1 {
		return nil, nil
	}

	req := map[string]any{
		"vector":       embedding,
		"limit":        k,
		"with_payload": true,
	}

	path := fmt.Sprintf("/collections/%s/points/search", url.PathEscape(collection))

	var rsp qdrantEnvelope[[]qdrantPointResult]

	if err := s.do(ctx, http.MethodPost, path, req, &rsp); err != nil {
		if strings.Contains(err.Error(), "404") {
			return nil, vectorstore.ErrCollectionNotFound
		}
		return nil, err
	}

	results := make([]vectorstore.Document, 0, len(rsp.Result))

	for _, point := range rsp.Result {
		payload := point.Payload

		doc := vectorstore.Document{
			Id:       getsafe.String(payload, "document_id"),
			Content:  getsafe.String(payload, "content"),
			Metadata: getsafe.Metadata(payload, "metadata"),
			Score:    float32(point.Score),
		}

		results = append(results, doc)
	}

	return results, nil
}

func (s *qdrantStore) do(ctx context.Context, method string, path string, req any, rsp any) error {
	u := s.options.Location + path

	var buf io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, u, buf)
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")

	if len(s.options.ApiKey) > 0 {
		request.Header.Set("api-key", s.options.ApiKey)
		request.Header.Set("Authorization", "Bearer "+s.options.ApiKey)
	}

	response, err := s.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("qdrant http %d: %s", response.StatusCode, string(payload))
	}

	if rsp != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, rsp); err != nil {
			return err
		}
	}

	return nil
}

func NewStore(opts ...vectorstore.Option) vectorstore.Store {
	options := vectorstore.NewOptions(opts...)

	if len(options.Location) == 0 || options.VectorSize == 0 {
		panic("missing location or vector size for qdrant store")
	}

	client := &http.Client{
		Timeout: 15 * time.Second,
	}

	return &qdrantStore{
		options: options,
		client:  client,
	}
}
