package mockapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server is a local stand-in for the image-embed backend. It speaks
// the same wire format as the real endpoint so the sender can be
// exercised without network access to the production API.
type Server struct {
	log        *logrus.Logger
	router     *mux.Router
	httpServer *http.Server
	apiKey     string
	endpoint   string
}

// embedRequest mirrors the upload envelope.
type embedRequest struct {
	ContentType string         `json:"content_type"`
	ImageBase64 string         `json:"image_base64"`
	Metadata    map[string]any `json:"metadata"`
}

// embedResponse is the mock reply document.
type embedResponse struct {
	Status        string   `json:"status"`
	EmbeddingID   string   `json:"embedding_id"`
	ReceivedBytes int      `json:"received_bytes"`
	ContentType   string   `json:"content_type"`
	MetadataKeys  []string `json:"metadata_keys"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer creates a mock API server expecting the given key on the
// configured endpoint path.
func NewServer(log *logrus.Logger, endpoint, apiKey string) *Server {
	s := &Server{
		log:      log,
		router:   mux.NewRouter(),
		apiKey:   apiKey,
		endpoint: endpoint,
	}
	s.router.HandleFunc(endpoint, s.handleEmbed).Methods("POST")
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server on the given port and blocks until it stops.
func (s *Server) Start(port int) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	s.log.Infof("mock API listening on :%d%s", port, s.endpoint)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("api-key")
	if key == "" {
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "API key required"})
		return
	}
	if key != s.apiKey {
		s.writeJSON(w, http.StatusForbidden, errorResponse{Error: "invalid API key"})
		return
	}

	var req embedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	raw, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid base64 payload"})
		return
	}

	keys := make([]string, 0, len(req.Metadata))
	for k := range req.Metadata {
		keys = append(keys, k)
	}

	s.log.Infof("mock embed: %d bytes, content_type=%s", len(raw), req.ContentType)
	s.writeJSON(w, http.StatusOK, embedResponse{
		Status:        "ok",
		EmbeddingID:   fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		ReceivedBytes: len(raw),
		ContentType:   req.ContentType,
		MetadataKeys:  keys,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Errorf("failed to encode response: %v", err)
	}
}
