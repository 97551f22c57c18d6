package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	medrecord "github.com/w-h-a/medrecord"
	"github.com/w-h-a/medrecord/extractor"
	"github.com/w-h-a/medrecord/extractor/document"
	"github.com/w-h-a/medrecord/generator"
	recordmemory "github.com/w-h-a/medrecord/recordstore/memory"
	vectormemory "github.com/w-h-a/medrecord/vectorstore/memory"
)

type stubExtractor struct {
	text string
	err  error
}

func (s *stubExtractor) Extract(ctx context.Context, path string) (string, error) {
	return s.text, s.err
}

type stubGenerator struct {
	output string
}

func (s *stubGenerator) Generate(ctx context.Context, messages []generator.Message, opts ...generator.GenerateOption) (string, error) {
	return s.output, nil
}

type stubEmbedder struct{}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0}
	}
	return vectors, nil
}

func newTestServer(t *testing.T, pdf extractor.Extractor) *Server {
	t.Helper()

	app := medrecord.New(medrecord.Config{
		Extractor:        document.NewExtractor(pdf, &stubExtractor{err: extractor.ErrNoTextFound}),
		Generator:        &stubGenerator{output: `{"type_of_record": "prescription"}`},
		Embedder:         &stubEmbedder{},
		VectorStore:      vectormemory.NewStore(),
		RecordStore:      recordmemory.NewStore(),
		IngestCollection: "medical_docs",
		ChunkSize:        500,
		TopK:             3,
	})

	return NewServer(
		app,
		WithUploadDir(t.TempDir()),
	)
}

func multipartUpload(t *testing.T, filename string, content string, userId string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	assert.NoError(t, err)

	_, err = part.Write([]byte(content))
	assert.NoError(t, err)

	assert.NoError(t, writer.WriteField("user_id", userId))
	assert.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func stagedFiles(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, filepath.Join(dir, entry.Name()))
	}
	return names
}

func TestUploadExtractsAndCleansUp(t *testing.T) {
	server := newTestServer(t, &stubExtractor{text: "Patient takes Metformin."})

	body, contentType := multipartUpload(t, "scan.pdf", "%PDF-1.4 fake", "patient-1")

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var rsp map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rsp))
	assert.Equal(t, "Patient takes Metformin.", rsp["extracted_text"])

	// staged upload is removed after processing
	assert.Empty(t, stagedFiles(t, server.options.UploadDir))
}

func TestUploadUnsupportedExtension(t *testing.T) {
	server := newTestServer(t, &stubExtractor{text: "irrelevant"})

	body, contentType := multipartUpload(t, "notes.docx", "some bytes", "patient-1")

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, stagedFiles(t, server.options.UploadDir))
}

func TestUploadExtractionFailureCleansUp(t *testing.T) {
	server := newTestServer(t, &stubExtractor{err: extractor.ErrNoTextFound})

	body, contentType := multipartUpload(t, "blank.pdf", "%PDF-1.4 fake", "patient-1")

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, stagedFiles(t, server.options.UploadDir))
}

func TestQueryDefaultsUser(t *testing.T) {
	server := newTestServer(t, &stubExtractor{})

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query": "what medications?"}`))
	rec := httptest.NewRecorder()

	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var rsp map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rsp))
	assert.NotEmpty(t, rsp["response"])
}

func TestUpdateMedications(t *testing.T) {
	server := newTestServer(t, &stubExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/update_medications?user_id=patient-1", nil)
	rec := httptest.NewRecorder()

	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Medications updated successfully.")
}

func TestSignup(t *testing.T) {
	server := newTestServer(t, &stubExtractor{})

	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"user_id": "patient-9"}`))
	rec := httptest.NewRecorder()

	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User created successfully")
}

func TestSignupRequiresUserId(t *testing.T) {
	server := newTestServer(t, &stubExtractor{})

	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
