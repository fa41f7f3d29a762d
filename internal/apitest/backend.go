// Package apitest runs an in-memory employee backend for tests. It speaks the
// same /api contract the client consumes and records every request it sees.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
)

type employee struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Department  string `json:"department"`
	JoiningDate string `json:"joiningDate"`
}

type attendanceRecord struct {
	EmployeeID int    `json:"employeeId"`
	Date       string `json:"date"`
}

type override struct {
	status int
	body   string
}

type Backend struct {
	*httptest.Server

	mu         sync.Mutex
	nextID     int
	employees  []employee
	attendance []attendanceRecord
	requests   []string
	overrides  map[string]override
}

func NewBackend() *Backend {
	b := &Backend{nextID: 1, overrides: map[string]override{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/employees", b.employeesHandler)
	mux.HandleFunc("/api/attendance", b.attendanceHandler)
	mux.HandleFunc("/api/report", b.reportHandler)
	b.Server = httptest.NewServer(b.record(mux))
	return b
}

// AddEmployee seeds an employee without going through HTTP and returns its id.
func (b *Backend) AddEmployee(name, department, joiningDate string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := employee{ID: b.nextID, Name: name, Department: department, JoiningDate: joiningDate}
	b.nextID++
	b.employees = append(b.employees, e)
	return strconv.Itoa(e.ID)
}

// Respond makes every later request matching method and path answer with
// status and body instead of the normal handler.
func (b *Backend) Respond(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides[method+" "+path] = override{status: status, body: body}
}

// Requests lists "METHOD /path?query" for every request received, in order.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.requests))
	copy(out, b.requests)
	return out
}

func (b *Backend) CountRequests(method, path string) int {
	count := 0
	for _, req := range b.Requests() {
		target := strings.SplitN(strings.TrimPrefix(req, method+" "), "?", 2)[0]
		if strings.HasPrefix(req, method+" ") && target == path {
			count++
		}
	}
	return count
}

func (b *Backend) ResetRequests() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = nil
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		entry := r.Method + " " + r.URL.Path
		if r.URL.RawQuery != "" {
			entry += "?" + r.URL.RawQuery
		}
		b.requests = append(b.requests, entry)
		o, overridden := b.overrides[r.Method+" "+r.URL.Path]
		b.mu.Unlock()

		if overridden {
			w.WriteHeader(o.status)
			_, _ = w.Write([]byte(o.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) employeesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		b.mu.Lock()
		out := make([]employee, len(b.employees))
		copy(out, b.employees)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		name := strings.TrimSpace(req["name"])
		department := strings.TrimSpace(req["department"])
		joiningDate := strings.TrimSpace(req["joiningDate"])
		if name == "" || department == "" || joiningDate == "" {
			writeError(w, http.StatusBadRequest, "Missing fields")
			return
		}
		b.mu.Lock()
		e := employee{ID: b.nextID, Name: name, Department: department, JoiningDate: joiningDate}
		b.nextID++
		b.employees = append(b.employees, e)
		b.mu.Unlock()
		writeJSON(w, http.StatusCreated, e)
	case http.MethodDelete:
		id, err := strconv.Atoi(r.URL.Query().Get("id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Missing id")
			return
		}
		b.mu.Lock()
		removed := false
		for i, e := range b.employees {
			if e.ID == id {
				b.employees = append(b.employees[:i], b.employees[i+1:]...)
				removed = true
				break
			}
		}
		b.mu.Unlock()
		if !removed {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (b *Backend) attendanceHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		id, err := strconv.Atoi(strings.TrimSpace(req["employeeId"]))
		date := strings.TrimSpace(req["date"])
		if err != nil || date == "" {
			writeError(w, http.StatusBadRequest, "Missing fields")
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		exists := false
		for _, e := range b.employees {
			if e.ID == id {
				exists = true
				break
			}
		}
		if !exists {
			writeError(w, http.StatusNotFound, "Employee not found")
			return
		}
		b.attendance = append(b.attendance, attendanceRecord{EmployeeID: id, Date: date})
		writeJSON(w, http.StatusCreated, map[string]string{"status": "attendance recorded"})
	case http.MethodGet:
		filter := r.URL.Query().Get("employeeId")
		b.mu.Lock()
		out := make([]attendanceRecord, 0)
		for _, rec := range b.attendance {
			if filter == "" || strconv.Itoa(rec.EmployeeID) == filter {
				out = append(out, rec)
			}
		}
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, out)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (b *Backend) reportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	b.mu.Lock()
	departments := map[string]int{}
	for _, e := range b.employees {
		departments[e.Department]++
	}
	attendance := map[string]int{}
	for _, rec := range b.attendance {
		attendance[strconv.Itoa(rec.EmployeeID)]++
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"departmentCounts": departments,
		"attendanceCounts": attendance,
	})
}

// EmployeeIDs returns the ids currently stored, ascending.
func (b *Backend) EmployeeIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]int, 0, len(b.employees))
	for _, e := range b.employees {
		ids = append(ids, e.ID)
	}
	sort.Ints(ids)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strconv.Itoa(id))
	}
	return out
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
