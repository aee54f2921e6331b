package server

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"

	"xdigest/internal/report"
	"xdigest/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server is the HTTP server for browsing past reports.
type Server struct {
	store *store.Store
	index *template.Template
	mux   *http.ServeMux
}

// New creates a new Server.
func New(st *store.Store) (*Server, error) {
	index, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parsing index template: %w", err)
	}

	s := &Server{store: st, index: index, mux: http.NewServeMux()}
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/report/", s.handleReport)
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	reports, err := s.store.GetRecentReports(30)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	stats, err := s.store.GetStats()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := s.index.Execute(w, map[string]any{
		"Reports": reports,
		"Stats":   stats,
	}); err != nil {
		log.Printf("Rendering index: %v", err)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/report/")
	if id == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	rpt, err := s.store.GetReport(id)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if rpt == nil {
		http.NotFound(w, r)
		return
	}

	html, err := report.RenderHTML(rpt)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

// Serve starts the server on the given port, bound to localhost.
func Serve(st *store.Store, port int) error {
	srv, err := New(st)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
