package web

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/Joseda-hg/lazyteam/internal/api"
	"github.com/Joseda-hg/lazyteam/internal/db"
	"github.com/Joseda-hg/lazyteam/internal/model"
	"github.com/Joseda-hg/lazyteam/internal/taskcard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"formatDate":  formatDate,
	"statusColor": taskcard.StatusColor,
}

var (
	indexTemplate = template.Must(template.New("index.tmpl").Funcs(templateFuncs).ParseFS(templateFS, "templates/index.tmpl"))
	taskTemplate  = template.Must(template.New("task.tmpl").Funcs(templateFuncs).ParseFS(templateFS, "templates/task.tmpl"))
)

type Server struct {
	store    *db.Store
	registry *prometheus.Registry
	logins   *prometheus.CounterVec
	requests *prometheus.CounterVec
}

func NewServer(store *db.Store) *Server {
	registry := prometheus.NewRegistry()
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lazyteam_login_attempts_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lazyteam_api_requests_total",
		Help: "API requests by route and status code.",
	}, []string{"route", "code"})
	registry.MustRegister(logins, requests)

	return &Server{store: store, registry: registry, logins: logins, requests: requests}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.indexHandler)
	mux.HandleFunc("GET /tasks/{id}", s.taskHandler)
	mux.Handle("POST /api/login", s.instrument("login", s.loginHandler))
	mux.Handle("GET /api/members/{id}", s.instrument("member", s.memberHandler))
	mux.Handle("GET /api/profile/{id}", s.instrument("profile", s.profileHandler))
	mux.Handle("GET /api/tasks", s.instrument("tasks", s.apiTasksHandler))
	mux.Handle("GET /api/tasks/{id}", s.instrument("task", s.apiTaskHandler))
	mux.Handle("DELETE /api/tasks/{id}", s.instrument("delete_task", s.apiDeleteTaskHandler))
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTasks(r.Context(), r.URL.Query().Get("employeeId"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	data := struct {
		Total int
		Tasks []model.Task
	}{Total: len(tasks), Tasks: tasks}

	if err := indexTemplate.Execute(w, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
}

func (s *Server) taskHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	task, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	history, err := s.store.ListHistory(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	data := struct {
		Task    model.Task
		History []db.HistoryEntry
	}{Task: task, History: history}

	if err := taskTemplate.Execute(w, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		s.logins.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := s.store.Authenticate(r.Context(), creds.ID, creds.Password)
	if errors.Is(err, db.ErrInvalidCredentials) {
		s.logins.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	if err != nil {
		s.logins.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.logins.WithLabelValues("accepted").Inc()
	writeJSON(w, user)
}

func (s *Server) memberHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := s.store.GetEmployee(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, profile.Member)
}

func (s *Server) profileHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := s.store.GetEmployee(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, profile)
}

func (s *Server) apiTasksHandler(w http.ResponseWriter, r *http.Request) {
	employeeID := strings.TrimSpace(r.URL.Query().Get("employeeId"))
	tasks, err := s.store.ListTasks(r.Context(), employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, tasks)
}

func (s *Server) apiTaskHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	task, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	history, err := s.store.ListHistory(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	payload := struct {
		Task    model.Task        `json:"task"`
		History []db.HistoryEntry `json:"history"`
	}{Task: task, History: history}

	writeJSON(w, payload)
}

func (s *Server) apiDeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		log.Printf("%s %s -> %d [%s]", r.Method, r.URL.Path, rec.status, r.Header.Get(api.RequestIDHeader))
	})
}

func statusFor(err error) int {
	if errors.Is(err, db.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func formatDate(value string) string {
	formatted, err := taskcard.FormatDate(value)
	if err != nil {
		return value
	}
	return formatted
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
