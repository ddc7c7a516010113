// Package server is the reference REST backend for the task resource.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskdesk/internal/service"
	"taskdesk/internal/store"
)

// Options configures a Server.
type Options struct {
	// JWTSecret enables bearer auth on mutating routes when non-empty.
	JWTSecret string

	// Logger receives access and error logs. Defaults to log.Default().
	Logger *log.Logger

	// AllowedOrigins for CORS. Defaults to any origin.
	AllowedOrigins []string
}

// Server serves the task API over a Store.
type Server struct {
	store   store.Store
	opts    Options
	logger  *log.Logger
	metrics *metrics
	handler http.Handler
}

// New builds the router and middleware chain.
func New(st store.Store, opts Options) *Server {
	s := &Server{
		store:  st,
		opts:   opts,
		logger: opts.Logger,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}

	registry := prometheus.NewRegistry()
	s.metrics = newMetrics(registry)

	r := mux.NewRouter()
	r.Use(s.requestID, s.accessLog)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/tasks", s.listTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.requireAuth(s.createTask)).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", s.getTask).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", s.requireAuth(s.updateTask)).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{id}", s.requireAuth(s.deleteTask)).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{id}/toggle", s.requireAuth(s.toggleTask)).Methods(http.MethodPatch)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.List(r.Context())
	if err != nil {
		s.fail(w, r, err, "failed to fetch tasks")
		return
	}
	respondWithJSON(w, http.StatusOK, tasks)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	task, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "failed to fetch task")
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

// maxBodySize bounds request bodies read by decodeBody.
const maxBodySize = 1 << 20

type taskInput struct {
	Title       *string `json:"title"`
	Description string  `json:"description"`
	Completed   *bool   `json:"completed"`
}

func (in taskInput) title() string {
	if in.Title == nil {
		return ""
	}
	return strings.TrimSpace(*in.Title)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var in taskInput
	if !decodeBody(w, r, &in) {
		return
	}
	draft := service.Draft{Title: in.title(), Description: in.Description}
	if err := draft.Validate(); err != nil {
		respondWithError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	task, err := s.store.Create(r.Context(), draft)
	if err != nil {
		s.fail(w, r, err, "failed to create task")
		return
	}
	respondWithJSON(w, http.StatusCreated, task)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	var in taskInput
	if !decodeBody(w, r, &in) {
		return
	}
	task := service.Task{ID: id, Title: in.title(), Description: in.Description}
	if err := task.Validate(); err != nil {
		respondWithError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	// An omitted completed keeps the stored value.
	if in.Completed != nil {
		task.Completed = *in.Completed
	} else {
		current, err := s.store.Get(r.Context(), id)
		if err != nil {
			s.fail(w, r, err, "failed to update task")
			return
		}
		task.Completed = current.Completed
	}

	updated, err := s.store.Update(r.Context(), task)
	if err != nil {
		s.fail(w, r, err, "failed to update task")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err, "failed to delete task")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "task deleted"})
}

func (s *Server) toggleTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	var in struct {
		Completed *bool `json:"completed"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Completed == nil {
		respondWithError(w, http.StatusBadRequest, "completed is required")
		return
	}

	task, err := s.store.SetCompleted(r.Context(), id, *in.Completed)
	if err != nil {
		s.fail(w, r, err, "failed to toggle task")
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

// fail maps store errors to responses. Only unexpected errors are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "task not found")
		return
	}
	s.logger.Printf("%s %s [%s]: %s: %v", r.Method, r.URL.Path, requestIDFrom(r.Context()), msg, err)
	respondWithError(w, http.StatusInternalServerError, msg)
}

func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "invalid task id")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		respondWithError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), service.ErrInvalid.Error()+": ")
}

// respondWithJSON formats and sends a JSON response.
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, msg string) {
	respondWithJSON(w, code, map[string]string{"error": msg})
}
