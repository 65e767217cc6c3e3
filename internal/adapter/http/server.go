package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"unicode/utf8"

	"github.com/cwygoda/imagepress/internal/domain"
)

// maxUploadBytes caps how much of an upload is read into memory.
const maxUploadBytes = 32 << 20

// Submitter accepts a CSV submission and returns the new job's ID.
type Submitter interface {
	Submit(ctx context.Context, csvText string) (string, error)
}

// Server is the HTTP adapter for the image processing service.
type Server struct {
	svc        *domain.JobService
	dispatcher Submitter
	assets     domain.AssetStore
	mux        *http.ServeMux
	server     *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(svc *domain.JobService, dispatcher Submitter, assets domain.AssetStore, addr string) *Server {
	s := &Server{
		svc:        svc,
		dispatcher: dispatcher,
		assets:     assets,
		mux:        http.NewServeMux(),
	}
	s.routes()
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("GET /status/{id}", s.handleStatus)
	s.mux.HandleFunc("GET /output/{filename}", s.handleOutput)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// uploadResponse is the JSON response for POST /upload.
type uploadResponse struct {
	RequestID string `json:"request_id"`
}

// statusResponse is the JSON response for GET /status/{id}.
type statusResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// errorResponse is the JSON error response.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	if !utf8.Valid(data) {
		s.writeError(w, http.StatusBadRequest, "File is not valid text")
		return
	}

	id, err := s.dispatcher.Submit(r.Context(), string(data))
	if err != nil {
		log.Printf("submit error: %v", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusAccepted, uploadResponse{RequestID: id})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	job, err := s.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			s.writeError(w, http.StatusNotFound, "Invalid request ID")
			return
		}
		log.Printf("get job error: %v", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, statusResponse{
		RequestID: job.ID,
		Status:    string(job.Status),
	})
}

func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")

	path, err := s.assets.Path(filename)
	if err != nil {
		if errors.Is(err, domain.ErrAssetNotFound) {
			s.writeError(w, http.StatusNotFound, "Not found")
			return
		}
		log.Printf("resolve asset error: %v", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.ServeFile(w, r, path)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ServeHTTP implements http.Handler for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.server.Addr
}
