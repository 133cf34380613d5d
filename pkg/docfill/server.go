package docfill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// docxContentType is the MIME type for Word documents.
const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// FillRequest is the JSON body of the fill endpoints. Placeholder values map
// token names to replacement text; images map IMAGE_ token names to base64
// payloads.
type FillRequest struct {
	Placeholders map[string]string `json:"placeholders"`
	Images       map[string]string `json:"images"`
	TemplateKey  string            `json:"template_key"`
	// OutputFilename names the attachment on direct downloads.
	OutputFilename string `json:"output_filename"`
	// OutputKey is the store key requested by fill-and-upload.
	OutputKey string `json:"output_key"`
}

// UploadResponse is the JSON body returned by the fill-and-upload endpoint.
type UploadResponse struct {
	Success   bool     `json:"success"`
	OutputKey string   `json:"output_key"`
	OutputURL string   `json:"output_url,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Server exposes the fill service over HTTP.
type Server struct {
	cfg     *Config
	service *Service
}

// NewServer creates a Server over the given store. A nil cfg falls back to
// the global configuration.
func NewServer(cfg *Config, store BlobStore) *Server {
	if cfg == nil {
		cfg = GetGlobalConfig()
	}
	return &Server{
		cfg:     cfg,
		service: NewService(cfg, store),
	}
}

// Handler returns the route table as an http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /fill", s.handleFill)
	mux.HandleFunc("POST /fill-and-upload", s.handleFillAndUpload)
	return mux
}

// ListenAndServe runs the HTTP server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		GetLogger().WithField("addr", s.cfg.ListenAddr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleFill fills a template and streams the document back as an
// attachment. Non-fatal fill problems (individual image failures) are logged
// and reported in a response header; the document is still returned.
func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeFillRequest(w, r)
	if !ok {
		return
	}

	doc, err := s.service.FillFromStore(r.Context(), req.TemplateKey, req.Placeholders, req.Images)
	if doc == nil {
		s.writeFillError(w, err)
		return
	}
	if err != nil {
		GetLogger().Warn("fill completed with errors: %v", err)
		w.Header().Set("X-Fill-Warnings", fmt.Sprintf("%d", countErrors(err)))
	}

	filename := req.OutputFilename
	if filename == "" {
		filename = s.cfg.DefaultOutputName
	}

	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// handleFillAndUpload fills a template, stores the result, and reports the
// key and URL it landed at.
func (s *Server) handleFillAndUpload(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeFillRequest(w, r)
	if !ok {
		return
	}

	key, url, err := s.service.FillAndUpload(r.Context(), req.TemplateKey, req.OutputKey, req.Placeholders, req.Images)
	if key == "" {
		s.writeFillError(w, err)
		return
	}

	resp := UploadResponse{
		Success:   true,
		OutputKey: key,
		OutputURL: url,
	}
	if err != nil {
		resp.Warnings = errorStrings(err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) decodeFillRequest(w http.ResponseWriter, r *http.Request) (*FillRequest, bool) {
	var req FillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("invalid request body: %v", err),
		})
		return nil, false
	}
	return &req, true
}

// writeFillError maps classified fill errors to HTTP statuses.
func (s *Server) writeFillError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var notFound *TemplateNotFoundError
	var storeErr *StoreError
	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &storeErr):
		status = http.StatusBadGateway
	}

	GetLogger().Error("fill request failed: %v", err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// countErrors reports how many individual errors an error value carries.
func countErrors(err error) int {
	var multi *MultiError
	if errors.As(err, &multi) {
		return multi.Len()
	}
	if err != nil {
		return 1
	}
	return 0
}

// errorStrings flattens an error value into one message per underlying error.
func errorStrings(err error) []string {
	var multi *MultiError
	if errors.As(err, &multi) {
		msgs := make([]string, 0, multi.Len())
		for _, e := range multi.Errors() {
			msgs = append(msgs, e.Error())
		}
		return msgs
	}
	if err != nil {
		return []string{err.Error()}
	}
	return nil
}
