package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/surendarrv/datagrid/internal/utils"
)

const maxSalary = 200000

type salaryRequest struct {
	EmployeeID *int `json:"employeeId"`
	NewSalary  *int `json:"newSalary"`
}

type salaryResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	Error        string `json:"error,omitempty"`
	EmployeeID   int    `json:"employeeId,omitempty"`
	NewSalary    int    `json:"newSalary,omitempty"`
	RowsAffected int    `json:"rowsAffected,omitempty"`
}

// payroll is an in-memory EMP_SALARY table keyed by employee id.
type payroll struct {
	mu        sync.Mutex
	employees int
	salaries  map[int]int
	delay     time.Duration
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	employees := flag.Int("employees", 1000, "number of known employee ids (1..n)")
	delay := flag.Duration("delay", 0, "artificial latency per update")
	flag.Parse()

	logger := utils.NewLogger("info", false).With(slog.String("component", "mock-payroll"))
	p := &payroll{employees: *employees, salaries: make(map[int]int), delay: *delay}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      logRequests(logger, newMux(p)),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	logger.Info("mock payroll listening", slog.String("address", *addr))
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func newMux(p *payroll) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/api/updatesalary", p.updateSalary)
	return mux
}

func (p *payroll) updateSalary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-r.Context().Done():
			return
		}
	}

	var req salaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EmployeeID == nil || req.NewSalary == nil {
		writeJSON(w, http.StatusBadRequest, salaryResponse{Status: "ERROR", Error: "Invalid input parameters"})
		return
	}
	id, salary := *req.EmployeeID, *req.NewSalary
	switch {
	case salary > maxSalary:
		writeJSON(w, http.StatusBadRequest, salaryResponse{Status: "ERROR", Error: "Salary cannot exceed $200,000"})
		return
	case salary < 0:
		writeJSON(w, http.StatusBadRequest, salaryResponse{Status: "ERROR", Error: "Salary cannot be negative"})
		return
	case id < 1 || id > p.employees:
		writeJSON(w, http.StatusNotFound, salaryResponse{Status: "ERROR", Error: "Employee not found in EMP_SALARY table"})
		return
	}

	p.mu.Lock()
	p.salaries[id] = salary
	p.mu.Unlock()

	writeJSON(w, http.StatusOK, salaryResponse{
		Status:       "SUCCESS",
		Message:      "Salary updated successfully in EMP_SALARY table",
		EmployeeID:   id,
		NewSalary:    salary,
		RowsAffected: 1,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode error", slog.Any("error", err))
	}
}

func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rw.status),
			slog.Duration("elapsed", time.Since(start)))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
