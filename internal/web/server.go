// Package web serves the task navigator over HTTP: HTML pages for humans
// and automation drivers, a JSON API for widgets and harnesses, a
// websocket stream of verdict transitions, and Prometheus metrics.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/taskbench/internal/runner"
	"github.com/roach88/taskbench/internal/viewer"
)

// maxBodyBytes bounds record and submission payloads.
const maxBodyBytes = 1 << 20

// Server holds the HTTP surface state.
type Server struct {
	ctrl     *viewer.Controller
	hub      *Hub
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// NewServer wires the handlers. A nil gatherer serves the default registry.
func NewServer(ctrl *viewer.Controller, hub *Hub, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = slog.Default()
	}
	if hub == nil {
		hub = NewHub(logger)
	}
	return &Server{ctrl: ctrl, hub: hub, gatherer: gatherer, logger: logger}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /tasks/{id}", s.handleTask)
	mux.HandleFunc("GET /api/tasks", s.handleAPITasks)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleAPITask)
	mux.HandleFunc("GET /api/record", s.handleGetRecord)
	mux.HandleFunc("POST /api/record", s.handlePublish)
	mux.HandleFunc("POST /api/submission", s.handleSubmit)
	mux.HandleFunc("GET /api/verdict", s.handleVerdict)
	mux.Handle("GET /ws", s.hub)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Serve listens on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown failed", slog.Any("error", err))
		}
	}()

	s.logger.Info("viewer listening", slog.String("addr", addr))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleIndex serves the task list.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, listTemplate, s.ctrl.List())
}

// handleTask opens a task. Unknown or malformed ids redirect to the list.
func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	page, err := s.ctrl.Open(id, r.URL.Query().Get("mode") == "test")
	if errors.Is(err, viewer.ErrUnknownTask) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, taskTemplate, page)
}

func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		s.logger.Error("render failed", slog.Any("error", err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes()) //nolint:errcheck
}

func (s *Server) handleAPITasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.List())
}

func (s *Server) handleAPITask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "task id must be an integer")
		return
	}
	page, err := s.ctrl.Open(id, r.URL.Query().Get("mode") == "test")
	if errors.Is(err, viewer.ErrUnknownTask) {
		writeError(w, http.StatusNotFound, "UNKNOWN_TASK", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Record().Snapshot())
}

// handlePublish shallow-merges a JSON object into the record.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&fields); err != nil || fields == nil {
		writeError(w, http.StatusBadRequest, "INVALID_RECORD", "body must be a JSON object")
		return
	}
	s.ctrl.Publish(fields)
	writeJSON(w, http.StatusOK, map[string]any{
		"version": s.ctrl.Record().Version(),
	})
}

// handleSubmit routes the raw body through the submission channel.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", err.Error())
		return
	}
	value := s.ctrl.Submit(string(body))
	writeJSON(w, http.StatusOK, map[string]any{"value": value})
}

func (s *Server) handleVerdict(w http.ResponseWriter, r *http.Request) {
	id, v, err := s.ctrl.Verdict()
	if runner.IsNotBound(err) {
		writeError(w, http.StatusNotFound, string(runner.ErrCodeNotBound), "no graded task is open")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"task_id":   id,
		"success":   v.Success,
		"message":   v.Message,
		"indicator": v.Indicator(),
	})
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}
