package controlplane

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fentz26/cleanops/internal/assignment"
	"github.com/fentz26/cleanops/internal/models"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Version is reported by /health.
var Version = "dev"

// Server provides the HTTP API for cleanops.
type Server struct {
	service  *Service
	addr     string
	gatherer prometheus.Gatherer
	log      logrus.FieldLogger
	server   *http.Server
}

// NewServer creates a new HTTP server. gatherer backs /metrics and defaults
// to the global Prometheus registry.
func NewServer(service *Service, addr string, gatherer prometheus.Gatherer, logger logrus.FieldLogger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		service:  service,
		addr:     addr,
		gatherer: gatherer,
		log:      logger,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	// Match on the escaped path so an id carrying "/" cannot reach another route.
	r := mux.NewRouter().UseEncodedPath()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// Departments
	r.HandleFunc("/departments", s.createDepartment).Methods(http.MethodPost)
	r.HandleFunc("/departments", s.listDepartments).Methods(http.MethodGet)
	r.HandleFunc("/departments/{id}", s.getDepartment).Methods(http.MethodGet)
	r.HandleFunc("/departments/{id}/tasks", s.departmentHistory).Methods(http.MethodGet)
	r.HandleFunc("/departments/{id}/assign", s.assignDepartment).Methods(http.MethodPost)
	r.HandleFunc("/departments/{id}/reset", s.resetDepartment).Methods(http.MethodPost)

	// Employees
	r.HandleFunc("/employees", s.createEmployee).Methods(http.MethodPost)
	r.HandleFunc("/employees", s.listEmployees).Methods(http.MethodGet)
	r.HandleFunc("/employees/{id}/tasks", s.employeeTasks).Methods(http.MethodGet)

	// Assignments and tasks
	r.HandleFunc("/assignments/batch", s.assignBatch).Methods(http.MethodPost)
	r.HandleFunc("/tasks", s.listTasks).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{id}", s.getTask).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{id}/status", s.advanceTask).Methods(http.MethodPost)

	r.HandleFunc("/stats", s.getStats).Methods(http.MethodGet)
	r.HandleFunc("/audit", s.getAudit).Methods(http.MethodGet)

	r.Use(s.logRequests)
	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.log.WithField("addr", s.addr).Info("starting cleanops daemon")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("request")
	})
}

// --- Health ---

// HealthResponse is the /health body.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		OK:      true,
		DB:      "ok",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.service.Ping(ctx); err != nil {
		resp.OK = false
		resp.DB = err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// --- Departments ---

type createDepartmentRequest struct {
	Name       string `json:"name"`
	AccessCode string `json:"access_code"`
}

func (s *Server) createDepartment(w http.ResponseWriter, r *http.Request) {
	var req createDepartmentRequest
	if !decode(w, r, &req) {
		return
	}
	dept, err := s.service.CreateDepartment(r.Context(), req.Name, req.AccessCode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dept)
}

func (s *Server) listDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := s.service.ListDepartments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if depts == nil {
		depts = []models.Department{}
	}
	writeJSON(w, http.StatusOK, depts)
}

func (s *Server) getDepartment(w http.ResponseWriter, r *http.Request) {
	dept, err := s.service.GetDepartment(r.Context(), pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dept)
}

func (s *Server) departmentHistory(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.service.DepartmentHistory(r.Context(), pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeTasks(w, tasks)
}

type assignRequest struct {
	EmployeeID string `json:"employee_id"`
}

// AssignResponse is the body of a single assignment.
type AssignResponse struct {
	Kind     string               `json:"kind"`
	Task     *models.CleaningTask `json:"task"`
	Previous *models.CleaningTask `json:"previous,omitempty"`
}

func (s *Server) assignDepartment(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.service.Assign(r.Context(), pathID(r), req.EmployeeID)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if res.Kind == assignment.KindUnchanged {
		status = http.StatusOK
	}
	writeJSON(w, status, AssignResponse{Kind: string(res.Kind), Task: res.Task, Previous: res.Previous})
}

func (s *Server) resetDepartment(w http.ResponseWriter, r *http.Request) {
	dept, err := s.service.ResetDepartment(r.Context(), pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dept)
}

// --- Employees ---

type createEmployeeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) createEmployee(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if !decode(w, r, &req) {
		return
	}
	emp, err := s.service.CreateEmployee(r.Context(), req.Name, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, emp)
}

func (s *Server) listEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := s.service.ListEmployees(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if emps == nil {
		emps = []models.Employee{}
	}
	writeJSON(w, http.StatusOK, emps)
}

func (s *Server) employeeTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.service.EmployeeTasks(r.Context(), pathID(r), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeTasks(w, tasks)
}

// --- Assignments & Tasks ---

type batchRequest struct {
	EmployeeID    string   `json:"employee_id"`
	DepartmentIDs []string `json:"department_ids"`
}

func (s *Server) assignBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.service.AssignBatch(r.Context(), req.DepartmentIDs, req.EmployeeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := s.service.ListTasks(r.Context(), models.TaskFilter{
		Status:       models.TaskStatus(q.Get("status")),
		EmployeeID:   q.Get("employee_id"),
		DepartmentID: q.Get("department_id"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeTasks(w, tasks)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.service.GetTask(r.Context(), pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type advanceRequest struct {
	Status     string `json:"status"`
	EmployeeID string `json:"employee_id"`
}

// AdvanceResponse is the body of a status change.
type AdvanceResponse struct {
	From models.TaskStatus    `json:"from"`
	Task *models.CleaningTask `json:"task"`
}

func (s *Server) advanceTask(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if !decode(w, r, &req) {
		return
	}
	change, err := s.service.AdvanceTaskStatus(r.Context(), pathID(r), models.TaskStatus(req.Status), req.EmployeeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AdvanceResponse{From: change.From, Task: change.Task})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	out, err := s.service.GetAggregateStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, fmt.Errorf("invalid limit %q: %w", raw, models.ErrValidation))
			return
		}
		limit = n
	}
	entries, err := s.service.AuditTrail(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.PDREntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// --- Helpers ---

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, fmt.Errorf("invalid json: %v: %w", err, models.ErrValidation))
		return false
	}
	return true
}

// pathID returns the unescaped {id} route variable.
func pathID(r *http.Request) string {
	id := mux.Vars(r)["id"]
	if v, err := url.PathUnescape(id); err == nil {
		return v
	}
	return id
}

func writeTasks(w http.ResponseWriter, tasks []models.CleaningTask) {
	if tasks == nil {
		tasks = []models.CleaningTask{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), ErrorResponse{Error: err.Error(), Kind: models.ErrorKind(err)})
}
