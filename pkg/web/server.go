package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/campus-nav/pkg/engine"
	"github.com/ritzau/campus-nav/pkg/importer"
	"github.com/ritzau/campus-nav/pkg/logging"
	"github.com/ritzau/campus-nav/pkg/model"
	"github.com/ritzau/campus-nav/pkg/pubsub"
)

//go:embed static/*
var staticFiles embed.FS

// Server exposes one engine over HTTP. Engine calls are serialised by mu.
type Server struct {
	router     *mux.Router
	mu         sync.Mutex
	engine     *engine.Engine
	publisher  *pubsub.SSEPublisher
	importMode importer.Mode
	httpServer *http.Server
}

// NewPublisher creates the publisher the engine and the server share
func NewPublisher() *pubsub.SSEPublisher {
	ssePublisher := pubsub.NewSSEPublisher()

	// Configure topic buffering
	// graph_state: buffer last 5 events, replay only last event so a new page knows the revision
	ssePublisher.ConfigureTopic(pubsub.TopicGraphState, pubsub.TopicConfig{
		BufferSize: 5,
		ReplayAll:  false, // Only send current state
	})

	// notices are only interesting to clients connected when they happen
	ssePublisher.ConfigureTopic(pubsub.TopicNotices, pubsub.TopicConfig{
		BufferSize: 0,
	})

	return ssePublisher
}

// NewServer creates a web server over e. The engine should publish to publisher.
// importMode is used by /api/import when the request does not name a mode.
func NewServer(e *engine.Engine, publisher *pubsub.SSEPublisher, importMode importer.Mode) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		engine:     e,
		publisher:  publisher,
		importMode: importMode,
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler with logging middleware applied
func (s *Server) Handler() http.Handler {
	return s.router
}

// Import applies records to the engine under the server lock. The file
// watcher uses it to merge changed record files.
func (s *Server) Import(nodes []model.NodeRecord, edges []model.EdgeRecord, mode importer.Mode) (importer.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Import(nodes, edges, mode)
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)

	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/{topic:graph_state|notices}", s.handleSubscribe).Methods("GET")

	// Graph state and edits
	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/stats", s.handleStats).Methods("GET")
	s.router.HandleFunc("/api/locations", s.handleAddLocation).Methods("POST")
	s.router.HandleFunc("/api/locations/{name}", s.handleGetLocation).Methods("GET")
	s.router.HandleFunc("/api/locations/{name}", s.handleUpdateLocation).Methods("PATCH")
	s.router.HandleFunc("/api/locations/{name}", s.handleRemoveLocation).Methods("DELETE")
	s.router.HandleFunc("/api/paths", s.handleAddPath).Methods("POST")
	s.router.HandleFunc("/api/paths/{from}/{to}", s.handleUpdatePath).Methods("PATCH")
	s.router.HandleFunc("/api/paths/{from}/{to}", s.handleRemovePath).Methods("DELETE")
	s.router.HandleFunc("/api/selection", s.handleRemoveSelected).Methods("DELETE")

	// Interaction
	s.router.HandleFunc("/api/click", s.handleClick).Methods("POST")
	s.router.HandleFunc("/api/reset", s.handleReset).Methods("POST")
	s.router.HandleFunc("/api/undo", s.handleUndo).Methods("POST")
	s.router.HandleFunc("/api/redo", s.handleRedo).Methods("POST")

	// Routing
	s.router.HandleFunc("/api/route", s.handleRoute).Methods("GET")
	s.router.HandleFunc("/api/routes/recommended", s.handleRecommendedRoutes).Methods("GET")
	s.router.HandleFunc("/api/routes/validate", s.handleValidateRoute).Methods("POST")

	// Records
	s.router.HandleFunc("/api/import", s.handleImport).Methods("POST")
	s.router.HandleFunc("/api/export", s.handleExport).Methods("GET")

	// Serve static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("embedded static files missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*") // CORS support

	// Create subscription
	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	// Send initial comment to establish connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	// Stream events until the client goes away or the publisher closes
	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.WarnContext(r.Context(), "error writing SSE event", "topic", topic, "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

// Start serves on port until Shutdown is called
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()
	logging.Info("starting web server", "url", fmt.Sprintf("http://localhost%s", addr))

	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown closes SSE streams and stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.publisher.Close(); err != nil {
		logging.Warn("failed to close publisher", "error", err)
	}
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
