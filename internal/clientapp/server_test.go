package clientapp

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/phillip-england/empdesk/internal/apitest"
	"github.com/phillip-england/empdesk/internal/sheets"
	"github.com/xuri/excelize/v2"
)

func newTestHandler(t *testing.T) (http.Handler, *apitest.Backend) {
	t.Helper()
	backend := apitest.NewBackend()
	t.Cleanup(backend.Close)
	handler := NewHandler(Config{
		APIBaseURL:         backend.URL,
		APITimeout:         time.Second,
		Now:                func() time.Time { return time.Date(2025, time.March, 5, 12, 0, 0, 0, time.Local) },
		DisableRequestLogs: true,
	})
	return handler, backend
}

func serve(t *testing.T, handler http.Handler, req *http.Request) (*httptest.ResponseRecorder, *goquery.Document) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return rec, doc
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func notices(doc *goquery.Document) []string {
	var out []string
	doc.Find(".notice").Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.Text())
	})
	return out
}

func TestIndexRendersEmployeesAndReport(t *testing.T) {
	handler, backend := newTestHandler(t)
	backend.AddEmployee("Ann", "Eng", "2024-01-10")

	rec, doc := serve(t, handler, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	rows := doc.Find("#empTable tbody tr[data-employee-id]")
	if rows.Length() != 1 {
		t.Fatalf("expected 1 row, got %d", rows.Length())
	}
	cells := rows.First().Find("td")
	if cells.Eq(1).Text() != "Ann" || cells.Eq(2).Text() != "Eng" || cells.Eq(3).Text() != "2024-01-10" {
		t.Fatalf("unexpected cells %q", cells.Text())
	}
	buttons := rows.First().Find("button[data-action]")
	if buttons.Length() != 3 {
		t.Fatalf("expected three action buttons, got %d", buttons.Length())
	}
	if value, _ := rows.First().Find(`button[data-action="delete"]`).Attr("value"); value != "delete:1" {
		t.Fatalf("unexpected delete value %q", value)
	}
	if !strings.Contains(doc.Find("#report").Text(), `"departmentCounts": {`) {
		t.Fatalf("expected pretty report, got %q", doc.Find("#report").Text())
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Fatalf("expected security headers")
	}
}

func TestIndexShowsLoadFailure(t *testing.T) {
	handler, backend := newTestHandler(t)
	backend.Respond(http.MethodGet, "/api/employees", http.StatusInternalServerError, "down")

	_, doc := serve(t, handler, httptest.NewRequest(http.MethodGet, "/", nil))
	if doc.Find("#employees-error").Text() != "Unable to load employees" {
		t.Fatalf("expected visible load error")
	}
}

func TestDeleteAsksBeforeSending(t *testing.T) {
	handler, backend := newTestHandler(t)
	id := backend.AddEmployee("Ann", "Eng", "2024-01-10")

	_, doc := serve(t, handler, postForm("/actions", url.Values{"action": {"delete:" + id}}))
	if doc.Find("#prompt").Text() != "Delete employee #1?" {
		t.Fatalf("expected confirmation prompt, got %q", doc.Find("#prompt").Text())
	}
	if len(backend.Requests()) != 0 {
		t.Fatalf("confirmation page must not call the backend, got %v", backend.Requests())
	}

	_, doc = serve(t, handler, postForm("/actions", url.Values{"action": {"delete:" + id}, "confirm": {"no"}}))
	if backend.CountRequests(http.MethodDelete, "/api/employees") != 0 {
		t.Fatalf("declined delete must not call the backend, got %v", backend.Requests())
	}
	if doc.Find("#empTable tbody tr[data-employee-id]").Length() != 1 {
		t.Fatalf("declined delete should render the unchanged table")
	}

	_, doc = serve(t, handler, postForm("/actions", url.Values{"action": {"delete:" + id}, "confirm": {"yes"}}))
	if len(backend.EmployeeIDs()) != 0 {
		t.Fatalf("employee should be deleted")
	}
	if doc.Find("#empTable tbody tr[data-employee-id]").Length() != 0 {
		t.Fatalf("deleted employee still rendered")
	}
}

func TestMarkAndViewAttendance(t *testing.T) {
	handler, backend := newTestHandler(t)
	id := backend.AddEmployee("Ann", "Eng", "2024-01-10")

	_, doc := serve(t, handler, postForm("/actions", url.Values{"action": {"mark-attendance:" + id}}))
	if got := notices(doc); len(got) != 1 || got[0] != "Attendance recorded" {
		t.Fatalf("unexpected notices %v", got)
	}
	requests := backend.Requests()
	if requests[0] != "POST /api/attendance" {
		t.Fatalf("unexpected first request %v", requests)
	}

	_, doc = serve(t, handler, postForm("/actions", url.Values{"action": {"view-attendance:" + id}}))
	if got := notices(doc); len(got) != 1 || got[0] != "Attendance for #1:\n05-03-2025" {
		t.Fatalf("unexpected attendance notice %q", got)
	}
}

func TestFirstActionAfterStartRendersTable(t *testing.T) {
	handler, backend := newTestHandler(t)
	id := backend.AddEmployee("Ann", "Eng", "2024-01-10")

	_, doc := serve(t, handler, postForm("/actions", url.Values{"action": {"view-attendance:" + id}}))
	if got := notices(doc); len(got) != 1 || got[0] != "No attendance" {
		t.Fatalf("unexpected notices %v", got)
	}
	if doc.Find("#empTable tbody tr[data-employee-id]").Length() != 1 {
		t.Fatalf("expected the employee table to be loaded")
	}
	if !strings.Contains(doc.Find("#report").Text(), "departmentCounts") {
		t.Fatalf("expected the report to be loaded")
	}
}

func TestClockUsesConfiguredLocation(t *testing.T) {
	fixed := time.Date(2025, time.March, 5, 23, 30, 0, 0, time.UTC)
	cfg := Config{
		Now:      func() time.Time { return fixed },
		Location: time.FixedZone("UTC+9", 9*60*60),
	}
	if got := cfg.Clock()().Format("02-01-2006"); got != "06-03-2025" {
		t.Fatalf("expected the configured zone's date, got %q", got)
	}
	if got := (Config{Now: func() time.Time { return fixed }}).Clock()(); !got.Equal(fixed) || got.Location() != time.UTC {
		t.Fatalf("expected unchanged time without a location, got %v", got)
	}
}

func TestUnknownActionRejected(t *testing.T) {
	handler, backend := newTestHandler(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postForm("/actions", url.Values{"action": {"explode:1"}}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(backend.Requests()) != 0 {
		t.Fatalf("unknown action must not call the backend")
	}
}

func TestAddEmployeeClearsFormOnCreated(t *testing.T) {
	handler, backend := newTestHandler(t)

	_, doc := serve(t, handler, postForm("/employees", url.Values{
		"name":        {" Ann "},
		"department":  {"Eng "},
		"joiningDate": {"2024-01-10"},
	}))
	for _, field := range []string{"#name", "#department", "#joiningDate"} {
		if value, _ := doc.Find(field).Attr("value"); value != "" {
			t.Fatalf("expected %s to be cleared, got %q", field, value)
		}
	}
	if backend.CountRequests(http.MethodGet, "/api/employees") != 1 || backend.CountRequests(http.MethodGet, "/api/report") != 1 {
		t.Fatalf("expected one refresh each, got %v", backend.Requests())
	}
	if doc.Find("#empTable tbody tr[data-employee-id] td").Eq(1).Text() != "Ann" {
		t.Fatalf("new employee not rendered")
	}
}

func TestAddEmployeeFailureKeepsInputs(t *testing.T) {
	handler, backend := newTestHandler(t)
	backend.Respond(http.MethodPost, "/api/employees", http.StatusBadRequest, `{"error":"Invalid date format, use dd-MM-yyyy"}`)

	_, doc := serve(t, handler, postForm("/employees", url.Values{
		"name":        {"Ann"},
		"department":  {"Eng"},
		"joiningDate": {"2024-01-10"},
	}))
	if value, _ := doc.Find("#joiningDate").Attr("value"); value != "2024-01-10" {
		t.Fatalf("expected joining date kept, got %q", value)
	}
	if value, _ := doc.Find("#name").Attr("value"); value != "Ann" {
		t.Fatalf("expected name kept, got %q", value)
	}
	if got := notices(doc); len(got) != 1 || got[0] != `Add failed: {"error":"Invalid date format, use dd-MM-yyyy"}` {
		t.Fatalf("unexpected notices %v", got)
	}
}

func TestImportAndExport(t *testing.T) {
	handler, _ := newTestHandler(t)

	file := excelize.NewFile()
	sheet := file.GetSheetName(0)
	rows := [][]any{{"Name", "Department", "Joining Date"}, {"Ann", "Eng", "10-01-2024"}, {"Bob", "Ops", 45301}}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		values := row
		if err := file.SetSheetRow(sheet, cell, &values); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	var workbook bytes.Buffer
	if _, err := file.WriteTo(&workbook); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("sheet_file", "staff.xlsx")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(workbook.Bytes()); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()
	req := httptest.NewRequest(http.MethodPost, "/employees/import", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	_, doc := serve(t, handler, req)
	if got := notices(doc); len(got) == 0 || got[0] != "Imported 2 of 2 employees" {
		t.Fatalf("unexpected import notices %v", got)
	}
	if doc.Find("#empTable tbody tr[data-employee-id]").Length() != 2 {
		t.Fatalf("expected imported rows rendered")
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export.xlsx", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != sheets.ContentType {
		t.Fatalf("unexpected export response %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	exported, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer exported.Close()
	exportedRows, err := exported.GetRows(sheets.EmployeesSheet)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(exportedRows) != 3 || exportedRows[2][3] != "10-01-2024" {
		t.Fatalf("unexpected exported rows %v", exportedRows)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/actions", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
