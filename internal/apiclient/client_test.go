package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/phillip-england/empdesk/internal/apiclient"
	"github.com/phillip-england/empdesk/internal/apitest"
)

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var e apiclient.Employee
	if err := json.Unmarshal([]byte(`{"id":7,"name":"Ann"}`), &e); err != nil {
		t.Fatalf("decode numeric id: %v", err)
	}
	if e.ID != "7" {
		t.Fatalf("expected id 7, got %q", e.ID)
	}
	if err := json.Unmarshal([]byte(`{"id":" abc ","name":"Ann"}`), &e); err != nil {
		t.Fatalf("decode string id: %v", err)
	}
	if e.ID != "abc" {
		t.Fatalf("expected id abc, got %q", e.ID)
	}

	out, err := json.Marshal(apiclient.AttendanceRecord{EmployeeID: "1", Date: "05-03-2025"})
	if err != nil {
		t.Fatalf("encode record: %v", err)
	}
	if string(out) != `{"employeeId":"1","date":"05-03-2025"}` {
		t.Fatalf("unexpected record encoding %s", out)
	}
}

func TestClientRoundTrip(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()
	client := apiclient.New(backend.URL, time.Second)
	ctx := context.Background()

	if err := client.CreateEmployee(ctx, apiclient.NewEmployee{Name: "Ann", Department: "Eng", JoiningDate: "10-01-2024"}); err != nil {
		t.Fatalf("create employee: %v", err)
	}
	employees, err := client.ListEmployees(ctx)
	if err != nil {
		t.Fatalf("list employees: %v", err)
	}
	if len(employees) != 1 || employees[0].ID != "1" || employees[0].Name != "Ann" {
		t.Fatalf("unexpected employees %+v", employees)
	}

	if err := client.MarkAttendance(ctx, apiclient.AttendanceRecord{EmployeeID: "1", Date: "05-03-2025"}); err != nil {
		t.Fatalf("mark attendance: %v", err)
	}
	result, err := client.QueryAttendance(ctx, "1")
	if err != nil {
		t.Fatalf("query attendance: %v", err)
	}
	if !result.IsList || len(result.Records) != 1 || result.Records[0].Date != "05-03-2025" || result.Records[0].EmployeeID != "1" {
		t.Fatalf("unexpected attendance %+v", result)
	}

	report, err := client.GetReport(ctx)
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if !strings.Contains(string(report), `"Eng":1`) {
		t.Fatalf("unexpected report %s", report)
	}

	if err := client.DeleteEmployee(ctx, "1"); err != nil {
		t.Fatalf("delete employee: %v", err)
	}
	employees, err = client.ListEmployees(ctx)
	if err != nil {
		t.Fatalf("list employees after delete: %v", err)
	}
	if len(employees) != 0 {
		t.Fatalf("expected no employees after delete, got %+v", employees)
	}

	requests := backend.Requests()
	if requests[len(requests)-2] != "DELETE /api/employees?id=1" {
		t.Fatalf("unexpected delete request %q", requests[len(requests)-2])
	}
}

func TestCreateEmployeeKeepsResponseBody(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()
	client := apiclient.New(backend.URL, time.Second)

	err := client.CreateEmployee(context.Background(), apiclient.NewEmployee{Name: "Ann"})
	if err == nil {
		t.Fatalf("expected error for missing fields")
	}
	var statusErr *apiclient.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if statusErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", statusErr.StatusCode)
	}
	body, ok := apiclient.ResponseBody(err)
	if !ok || !strings.Contains(body, "Missing fields") {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestCreateEmployeeRequiresCreatedStatus(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()
	backend.Respond(http.MethodPost, "/api/employees", http.StatusOK, "accepted")
	client := apiclient.New(backend.URL, time.Second)

	err := client.CreateEmployee(context.Background(), apiclient.NewEmployee{Name: "Ann", Department: "Eng", JoiningDate: "x"})
	if body, ok := apiclient.ResponseBody(err); !ok || body != "accepted" {
		t.Fatalf("expected 200 to be treated as failure with body, got %v", err)
	}
}

func TestQueryAttendanceNonArray(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()
	backend.Respond(http.MethodGet, "/api/attendance", http.StatusNotFound, `{"error":"none"}`)
	client := apiclient.New(backend.URL, time.Second)

	result, err := client.QueryAttendance(context.Background(), "3")
	if err != nil {
		t.Fatalf("query attendance: %v", err)
	}
	if result.IsList {
		t.Fatalf("expected non-list result")
	}
}

func TestQueryAttendanceMalformedBody(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()
	backend.Respond(http.MethodGet, "/api/attendance", http.StatusOK, `[{"employeeId":`)
	client := apiclient.New(backend.URL, time.Second)

	if _, err := client.QueryAttendance(context.Background(), "3"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestDeleteEmployeeFailureStatus(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()
	client := apiclient.New(backend.URL, time.Second)

	err := client.DeleteEmployee(context.Background(), "99")
	var statusErr *apiclient.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 status error, got %v", err)
	}
}

func TestGetReportRejectsInvalidJSON(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()
	backend.Respond(http.MethodGet, "/api/report", http.StatusOK, "not json")
	client := apiclient.New(backend.URL, time.Second)

	if _, err := client.GetReport(context.Background()); err == nil {
		t.Fatalf("expected invalid json error")
	}
}
