package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	medrecord "github.com/w-h-a/medrecord"
	"github.com/w-h-a/medrecord/extractor"
)

const defaultUser = "default_user"

type Server struct {
	options Options
	app     *medrecord.MedRecord
	router  *mux.Router
}

func (s *Server) Run() error {
	var handler http.Handler = s.router
	for i := len(s.options.Middleware) - 1; i >= 0; i-- {
		handler = s.options.Middleware[i](handler)
	}

	slog.InfoContext(s.options.Context, "http server listening", "address", s.options.Address)

	return http.ListenAndServe(s.options.Address, handler)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	userId := r.FormValue("user_id")
	if len(userId) == 0 {
		userId = defaultUser
	}

	path, err := s.stage(file, header.Filename)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to stage upload", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	// the staged file is removed regardless of outcome
	defer os.Remove(path)

	result, err := s.app.Ingest(r.Context(), userId, path)
	if err != nil {
		if errors.Is(err, extractor.ErrUnsupportedFormat) {
			writeError(w, http.StatusBadRequest, "unsupported file type")
			return
		}
		slog.ErrorContext(r.Context(), "ingestion failed", "user", userId, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("extraction failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"extracted_text": result.Text,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query  string `json:"query"`
		UserId string `json:"user_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.UserId) == 0 {
		req.UserId = defaultUser
	}

	answer, err := s.app.Answer(r.Context(), req.Query, req.UserId)
	if err != nil {
		slog.ErrorContext(r.Context(), "query failed", "user", req.UserId, "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response": answer,
	})
}

func (s *Server) handleUpdateMedications(w http.ResponseWriter, r *http.Request) {
	userId := r.URL.Query().Get("user_id")
	if len(userId) == 0 {
		userId = defaultUser
	}

	if _, err := s.app.PruneMedications(r.Context(), userId); err != nil {
		slog.ErrorContext(r.Context(), "prune failed", "user", userId, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("error updating medications: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Medications updated successfully.",
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserId string `json:"user_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.UserId) == 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := s.app.Signup(r.Context(), req.UserId); err != nil {
		slog.ErrorContext(r.Context(), "signup failed", "user", req.UserId, "error", err)
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Unsuccessful",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User created successfully",
	})
}

// stage copies the upload to a uniquely named temporary path under the
// upload directory, preserving the original extension for routing.
func (s *Server) stage(file io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(s.options.UploadDir, 0o755); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.options.UploadDir, uuid.New().String()+ext)

	out, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(path)
		return "", err
	}

	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", err
	}

	return path, nil
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(context.Background(), "failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{
		"detail": detail,
	})
}

func NewServer(app *medrecord.MedRecord, opts ...Option) *Server {
	options := NewOptions(opts...)

	s := &Server{
		options: options,
		app:     app,
	}

	router := mux.NewRouter()
	router.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)
	router.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	router.HandleFunc("/update_medications", s.handleUpdateMedications).Methods(http.MethodGet)
	router.HandleFunc("/signup", s.handleSignup).Methods(http.MethodPost)

	s.router = router

	return s
}
