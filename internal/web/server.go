// Package web serves the self-service conversion form: drop .gliffy files
// in a browser, get .excalidraw files back. One file returns the converted
// document directly, several return a zip.
//
// The server is deliberately thin — no auth, no CSRF, no rate limiting —
// and meant to run behind a reverse proxy that provides those.
package web

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/excalift/excalift/pkg/convert"
	"github.com/excalift/excalift/pkg/observability"
	"github.com/excalift/excalift/pkg/tidmap"
)

// Upload limits, matching what Confluence-exported diagrams realistically
// weigh.
const (
	MaxFileSize    = 10 << 20 // per uploaded file
	MaxRequestSize = 64 << 20
	MaxFiles       = 20
)

// Server handles the upload form and conversion endpoint.
type Server struct {
	Logger   *log.Logger
	Resolver tidmap.Resolver
}

// NewServer creates a server. A nil resolver disables image substitution; a
// nil logger falls back to the default logger.
func NewServer(resolver tidmap.Resolver, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if resolver == nil {
		resolver = tidmap.Null{}
	}
	return &Server{Logger: logger, Resolver: resolver}
}

// Router builds the HTTP routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/convert", s.handleConvert)
	r.Get("/healthz", s.handleHealth)
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"status":"ok"}`)
}

type converted struct {
	name string
	data []byte
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestSize)
	if err := r.ParseMultipartForm(MaxRequestSize); err != nil {
		s.jsonError(w, http.StatusBadRequest, "request too large or not multipart")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		files = r.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		s.jsonError(w, http.StatusBadRequest, "no file provided")
		return
	}
	if len(files) > MaxFiles {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("too many files (%d), maximum is %d", len(files), MaxFiles))
		return
	}

	var results []converted
	var failures []string

	for _, header := range files {
		name := filepath.Base(header.Filename)
		if !strings.HasSuffix(name, ".gliffy") && !strings.HasSuffix(name, ".json") {
			failures = append(failures, name+": not a .gliffy file")
			continue
		}
		data, err := readUpload(header)
		if err != nil {
			failures = append(failures, name+": "+err.Error())
			continue
		}

		observability.Convert().OnConvertStart(r.Context(), name)
		start := time.Now()
		doc := convert.ConvertJSON(data, s.Resolver)
		out, err := json.Marshal(doc)
		observability.Convert().OnConvertComplete(r.Context(), name, len(doc.Elements), 0, time.Since(start), err)
		if err != nil {
			failures = append(failures, name+": conversion failed")
			continue
		}
		results = append(results, converted{name: outputName(name), data: out})
	}

	s.Logger.Info("conversion request", "files", len(files), "converted", len(results), "failed", len(failures))

	if len(results) == 0 {
		msg := "no file could be converted"
		if len(failures) > 0 {
			msg += ": " + strings.Join(truncateList(failures, 5), "; ")
		}
		s.jsonError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	if len(results) == 1 {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="`+results[0].name+`"`)
		_, _ = w.Write(results[0].data)
		return
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, res := range results {
		f, err := zw.Create(res.name)
		if err != nil {
			s.jsonError(w, http.StatusInternalServerError, "building archive failed")
			return
		}
		_, _ = f.Write(res.data)
	}
	if err := zw.Close(); err != nil {
		s.jsonError(w, http.StatusInternalServerError, "building archive failed")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="gliffy_converted.zip"`)
	_, _ = w.Write(buf.Bytes())
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	if header.Size > MaxFileSize {
		return nil, fmt.Errorf("file too large (%.2f MB), maximum is %d MB", float64(header.Size)/(1<<20), MaxFileSize>>20)
	}
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, MaxFileSize))
}

// outputName swaps the source extension for .excalidraw.
func outputName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".excalidraw"
}

func truncateList(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	out := append([]string{}, items[:n]...)
	return append(out, fmt.Sprintf("and %d more", len(items)-n))
}

func (s *Server) jsonError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
