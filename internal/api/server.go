package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"DocLedger/internal/document"
	"DocLedger/internal/logger"
	"DocLedger/internal/validation"
)

const (
	// maxBatchSize is the maximum size of a batch request body in bytes.
	maxBatchSize = 1 << 20 // 1 MB
)

// Verdict is the response of POST /validate.
type Verdict struct {
	Valid  bool          `json:"valid"`            // Valid is true when no consensus error was found
	Errors []VerdictItem `json:"errors,omitempty"` // Errors lists the consensus errors in report order
}

// VerdictItem is one consensus error of a verdict.
type VerdictItem struct {
	Kind    string `json:"kind"`    // Kind is the error kind name
	Message string `json:"message"` // Message is the error text
}

// Server is the HTTP API server.
type Server struct {
	addr     string       // addr is the HTTP listen address
	service  *Service     // service validates submitted batches
	server   *http.Server // server is the underlying HTTP server
	listener net.Listener // listener is bound by Start
}

// New creates a new HTTP API server.
func New(addr string, service *Service) *Server {
	return &Server{addr: addr, service: service}
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /validate", s.handleValidate)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start binds the listen address and serves in a goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http api started", "addr", ln.Addr().String())

		if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// handleValidate handles POST /validate requests.
// The body is the JSON form of a batch; ?fee=1 also checks the fee.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBatchSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if len(body) > maxBatchSize {
		writeError(w, http.StatusRequestEntityTooLarge, "batch too large")
		return
	}

	raw, err := document.DecodeBatchJSON(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid batch JSON")
		return
	}

	checkFee := r.URL.Query().Get("fee") == "1"

	result, err := s.service.Check(raw, checkFee)
	if err != nil {
		logger.Error("validate batch", "error", err)
		writeError(w, http.StatusInternalServerError, "validation failed")
		return
	}

	verdict := newVerdict(result)

	status := http.StatusOK
	if !verdict.Valid {
		status = http.StatusUnprocessableEntity
	}

	logger.Debug("batch judged", "valid", verdict.Valid, "errors", len(verdict.Errors), "fee", checkFee)

	writeJSON(w, status, verdict)
}

// handleHealth handles GET /health requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func newVerdict(result *validation.Result) Verdict {
	v := Verdict{Valid: result.IsValid()}

	for _, e := range result.Errors() {
		v.Errors = append(v.Errors, VerdictItem{Kind: e.Kind().String(), Message: e.Error()})
	}

	return v
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
