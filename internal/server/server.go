// Package server exposes the board over HTTP: the JSON API used by the web
// UI, export/import of data.json and the static UI files.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/gmllt/kban/internal/board"
	"github.com/gmllt/kban/internal/logger"
	"github.com/gmllt/kban/internal/state"
	"github.com/gmllt/kban/internal/transfer"
)

// maxImportSize bounds uploaded board files.
const maxImportSize = 10 << 20

type Options struct {
	Addr            string
	StaticDir       string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration

	// AllowJSONComments lets imports contain comments and trailing commas.
	AllowJSONComments bool
}

type Server struct {
	opts     Options
	state    *state.Container
	importer *transfer.Importer
	log      *slog.Logger
}

func New(opts Options, c *state.Container, log *slog.Logger) *Server {
	log = logger.OrDefault(log)
	return &Server{
		opts:     opts,
		state:    c,
		importer: transfer.NewImporter(c, transfer.Options{AllowComments: opts.AllowJSONComments}, log),
		log:      log,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/board", s.getBoard).Methods(http.MethodGet)
	api.HandleFunc("/lanes", s.addLane).Methods(http.MethodPost)
	api.HandleFunc("/lanes/{laneID}", s.editLane).Methods(http.MethodPut)
	api.HandleFunc("/lanes/{laneID}", s.deleteLane).Methods(http.MethodDelete)
	api.HandleFunc("/cards", s.addCard).Methods(http.MethodPost)
	api.HandleFunc("/lanes/{laneID}/cards/{cardID}", s.editCard).Methods(http.MethodPut)
	api.HandleFunc("/lanes/{laneID}/cards/{cardID}", s.deleteCard).Methods(http.MethodDelete)
	api.HandleFunc("/move", s.move).Methods(http.MethodPost)
	api.HandleFunc("/export", s.export).Methods(http.MethodGet)
	api.HandleFunc("/import", s.importBoard).Methods(http.MethodPost)

	if s.opts.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.opts.StaticDir)))
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:        s.opts.Addr,
		Handler:     s.Router(),
		ReadTimeout: s.opts.ReadTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("kanban server starting", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.log.Info("kanban server stopping")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("error encoding response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxImportSize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) getBoard(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.state.Board())
}

func (s *Server) addLane(w http.ResponseWriter, r *http.Request) {
	b := s.state.AddLane()
	s.log.Info("lane added", "lane", b[len(b)-1].ID)
	s.writeJSON(w, http.StatusCreated, b)
}

type laneUpdate struct {
	Title string `json:"title"`
}

func (s *Server) editLane(w http.ResponseWriter, r *http.Request) {
	laneID := mux.Vars(r)["laneID"]
	var req laneUpdate
	if err := decode(r, &req); err != nil {
		s.log.Warn("error decoding lane update", "error", err)
		s.writeError(w, http.StatusBadRequest, "invalid lane update")
		return
	}
	s.writeJSON(w, http.StatusOK, s.state.EditLaneTitle(laneID, req.Title))
}

func (s *Server) deleteLane(w http.ResponseWriter, r *http.Request) {
	laneID := mux.Vars(r)["laneID"]
	s.log.Info("lane deleted", "lane", laneID)
	s.writeJSON(w, http.StatusOK, s.state.DeleteLane(laneID))
}

func (s *Server) addCard(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusCreated, s.state.AddCard())
}

type cardUpdate struct {
	Title string `json:"title"`
	Info  string `json:"info"`
}

func (s *Server) editCard(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req cardUpdate
	if err := decode(r, &req); err != nil {
		s.log.Warn("error decoding card update", "error", err)
		s.writeError(w, http.StatusBadRequest, "invalid card update")
		return
	}
	s.writeJSON(w, http.StatusOK, s.state.EditCard(vars["laneID"], vars["cardID"], req.Title, req.Info))
}

func (s *Server) deleteCard(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.writeJSON(w, http.StatusOK, s.state.DeleteCard(vars["laneID"], vars["cardID"]))
}

func (s *Server) move(w http.ResponseWriter, r *http.Request) {
	var drop board.DropResult
	if err := decode(r, &drop); err != nil {
		s.log.Warn("error decoding drop result", "error", err)
		s.writeError(w, http.StatusBadRequest, "invalid drop result")
		return
	}
	s.writeJSON(w, http.StatusOK, s.state.Move(drop))
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", transfer.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": transfer.Filename}))
	if err := transfer.Export(w, s.state.Board()); err != nil {
		s.log.Error("error exporting board", "error", err)
	}
}

// importBoard accepts either a multipart upload in the "file" field or the
// board JSON as the raw request body.
func (s *Server) importBoard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	var body io.Reader = r.Body
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		f, _, err := r.FormFile("file")
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "missing file")
			return
		}
		defer f.Close()
		body = f
	}

	b, err := s.importer.ImportFrom(r.Context(), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		if errors.Is(err, board.ErrInvalidBoard) {
			s.writeError(w, http.StatusBadRequest, "file is not a valid board")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "import failed")
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}
