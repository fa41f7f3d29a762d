// Package controller holds the employee client logic: it loads backend data
// into view models and turns user actions into backend calls followed by the
// refreshes they require. Front ends own all rendering and prompting.
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/phillip-england/empdesk/internal/apiclient"
)

const (
	msgDeleteFailed       = "Delete failed"
	msgAttendanceRecorded = "Attendance recorded"
	msgAttendanceFailed   = "Attendance failed"
	msgAddFailed          = "Add failed: "
	msgEmployeesFailed    = "Unable to load employees"
	msgReportFailed       = "Unable to load report"
	msgAttendanceLoadFail = "Unable to load attendance"
)

type Backend interface {
	ListEmployees(ctx context.Context) ([]apiclient.Employee, error)
	CreateEmployee(ctx context.Context, employee apiclient.NewEmployee) error
	DeleteEmployee(ctx context.Context, id apiclient.ID) error
	MarkAttendance(ctx context.Context, record apiclient.AttendanceRecord) error
	QueryAttendance(ctx context.Context, employeeID apiclient.ID) (apiclient.AttendanceResult, error)
	ListAttendance(ctx context.Context) ([]apiclient.AttendanceRecord, error)
	GetReport(ctx context.Context) (json.RawMessage, error)
}

// Prompter is the user-facing boundary: a yes/no question and a notice.
type Prompter interface {
	Confirm(message string) bool
	Notify(message string)
}

type Options struct {
	// Now supplies the current time in the zone attendance is recorded in.
	// Defaults to time.Now.
	Now func() time.Time
}

type Controller struct {
	backend Backend
	now     func() time.Time

	mu   sync.Mutex
	view View

	listIssued    uint64
	listApplied   uint64
	reportIssued  uint64
	reportApplied uint64
}

func New(backend Backend, opts Options) *Controller {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{backend: backend, now: now}
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.clone()
}

func (c *Controller) Load(ctx context.Context) error {
	return errors.Join(c.RefreshEmployees(ctx), c.RefreshReport(ctx))
}

// RefreshEmployees replaces the table rows with the backend's list. A
// response is dropped if a later-issued refresh has already been applied.
func (c *Controller) RefreshEmployees(ctx context.Context) error {
	c.mu.Lock()
	c.listIssued++
	seq := c.listIssued
	c.mu.Unlock()

	employees, err := c.backend.ListEmployees(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.listApplied {
		return nil
	}
	c.listApplied = seq
	if err != nil {
		log.Printf("employee list refresh failed: %v", err)
		c.view.Employees.Err = msgEmployeesFailed
		return err
	}
	c.view.Employees = RenderEmployeeTable(employees)
	return nil
}

func (c *Controller) RefreshReport(ctx context.Context) error {
	c.mu.Lock()
	c.reportIssued++
	seq := c.reportIssued
	c.mu.Unlock()

	raw, err := c.backend.GetReport(ctx)
	var panel ReportPanel
	if err == nil {
		panel, err = RenderReport(raw)
		if err != nil {
			err = fmt.Errorf("render report: %w", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.reportApplied {
		return nil
	}
	c.reportApplied = seq
	if err != nil {
		log.Printf("report refresh failed: %v", err)
		c.view.Report.Err = msgReportFailed
		return err
	}
	c.view.Report = panel
	return nil
}

// EnsureLoaded fetches the list and the report if they have never been
// applied, so a first request that is not a page load still renders data.
func (c *Controller) EnsureLoaded(ctx context.Context) error {
	c.mu.Lock()
	needList := c.listApplied == 0
	needReport := c.reportApplied == 0
	c.mu.Unlock()

	var errs []error
	if needList {
		errs = append(errs, c.RefreshEmployees(ctx))
	}
	if needReport {
		errs = append(errs, c.RefreshReport(ctx))
	}
	return errors.Join(errs...)
}

// RefreshError means the backend accepted the change but reloading the views
// afterwards failed. Callers must not treat it as a failed change.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return "refresh after change: " + e.Err.Error()
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

func refreshFailed(err error) error {
	if err == nil {
		return nil
	}
	return &RefreshError{Err: err}
}

func (c *Controller) refreshAll(ctx context.Context) error {
	return refreshFailed(errors.Join(c.RefreshEmployees(ctx), c.RefreshReport(ctx)))
}

// Delete asks for confirmation first; a declined prompt sends nothing.
func (c *Controller) Delete(ctx context.Context, ui Prompter, id apiclient.ID) error {
	if !ui.Confirm(DeletePrompt(id)) {
		return nil
	}
	if err := c.backend.DeleteEmployee(ctx, id); err != nil {
		log.Printf("delete employee %s failed: %v", id, err)
		ui.Notify(msgDeleteFailed)
		return err
	}
	return c.refreshAll(ctx)
}

// MarkAttendance records today for the employee. Only the report is
// refreshed since employee fields do not change.
func (c *Controller) MarkAttendance(ctx context.Context, ui Prompter, id apiclient.ID) error {
	record := apiclient.AttendanceRecord{EmployeeID: id, Date: FormatDate(c.now())}
	if err := c.backend.MarkAttendance(ctx, record); err != nil {
		log.Printf("mark attendance for %s failed: %v", id, err)
		ui.Notify(msgAttendanceFailed)
		return err
	}
	ui.Notify(msgAttendanceRecorded)
	return refreshFailed(c.RefreshReport(ctx))
}

func (c *Controller) ViewAttendance(ctx context.Context, ui Prompter, id apiclient.ID) error {
	result, err := c.backend.QueryAttendance(ctx, id)
	if err != nil {
		log.Printf("view attendance for %s failed: %v", id, err)
		ui.Notify(msgAttendanceLoadFail)
		return err
	}
	ui.Notify(AttendanceNotice(id, result))
	return nil
}

// AddEmployee submits the form and returns the form state to show next:
// cleared after a 201, the submitted values otherwise.
func (c *Controller) AddEmployee(ctx context.Context, ui Prompter, form AddForm) (AddForm, error) {
	employee := apiclient.NewEmployee{
		Name:        strings.TrimSpace(form.Name),
		Department:  strings.TrimSpace(form.Department),
		JoiningDate: form.JoiningDate,
	}
	if err := c.backend.CreateEmployee(ctx, employee); err != nil {
		log.Printf("add employee failed: %v", err)
		detail, ok := apiclient.ResponseBody(err)
		if !ok {
			detail = "backend unavailable"
		}
		ui.Notify(msgAddFailed + detail)
		return form, err
	}
	return AddForm{}, c.refreshAll(ctx)
}

type ImportFailure struct {
	Row    int
	Name   string
	Reason string
}

type ImportResult struct {
	Created  int
	Failures []ImportFailure
}

// ImportEmployees creates each employee in order and refreshes the views once
// at the end. Row numbers in failures start at firstRow.
func (c *Controller) ImportEmployees(ctx context.Context, ui Prompter, employees []apiclient.NewEmployee, firstRow int) (ImportResult, error) {
	var result ImportResult
	for i, employee := range employees {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		employee.Name = strings.TrimSpace(employee.Name)
		employee.Department = strings.TrimSpace(employee.Department)
		if err := c.backend.CreateEmployee(ctx, employee); err != nil {
			reason, ok := apiclient.ResponseBody(err)
			if !ok {
				reason = err.Error()
			}
			result.Failures = append(result.Failures, ImportFailure{Row: firstRow + i, Name: employee.Name, Reason: strings.TrimSpace(reason)})
			continue
		}
		result.Created++
	}

	ui.Notify(fmt.Sprintf("Imported %d of %d employees", result.Created, len(employees)))
	for _, failure := range result.Failures {
		ui.Notify(fmt.Sprintf("Row %d (%s): %s", failure.Row, failure.Name, failure.Reason))
	}
	if result.Created == 0 {
		return result, nil
	}
	return result, c.refreshAll(ctx)
}

type Snapshot struct {
	Employees  []apiclient.Employee
	Attendance []apiclient.AttendanceRecord
	Report     json.RawMessage
}

// Snapshot reads everything an export needs. It does not touch the view.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	employees, err := c.backend.ListEmployees(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	attendance, err := c.backend.ListAttendance(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	report, err := c.backend.GetReport(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Employees: employees, Attendance: attendance, Report: report}, nil
}
