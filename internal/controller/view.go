package controller

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/phillip-england/empdesk/internal/apiclient"
)

type View struct {
	Employees EmployeeTable
	Report    ReportPanel
}

type EmployeeTable struct {
	Rows []EmployeeRow
	Err  string
}

type EmployeeRow struct {
	ID          string
	Name        string
	Department  string
	JoiningDate string
	Actions     []RowAction
}

type RowAction struct {
	Kind  ActionKind
	Label string
	// Value is what a front end submits back to Dispatch.
	Value string
}

type ReportPanel struct {
	Text string
	Err  string
}

type AddForm struct {
	Name        string
	Department  string
	JoiningDate string
}

func (f AddForm) Empty() bool {
	return f.Name == "" && f.Department == "" && f.JoiningDate == ""
}

func (v View) clone() View {
	rows := make([]EmployeeRow, len(v.Employees.Rows))
	copy(rows, v.Employees.Rows)
	v.Employees.Rows = rows
	return v
}

func RenderEmployeeTable(employees []apiclient.Employee) EmployeeTable {
	rows := make([]EmployeeRow, 0, len(employees))
	for _, e := range employees {
		rows = append(rows, EmployeeRow{
			ID:          e.ID.String(),
			Name:        e.Name,
			Department:  e.Department,
			JoiningDate: e.JoiningDate,
			Actions:     rowActions(e.ID),
		})
	}
	return EmployeeTable{Rows: rows}
}

func rowActions(id apiclient.ID) []RowAction {
	actions := make([]RowAction, 0, len(actionLabels))
	for _, kind := range rowActionOrder {
		actions = append(actions, RowAction{
			Kind:  kind,
			Label: actionLabels[kind],
			Value: Action{Kind: kind, EmployeeID: id}.String(),
		})
	}
	return actions
}

// RenderReport pretty-prints the report with a two space indent. The content
// is not interpreted.
func RenderReport(raw json.RawMessage) (ReportPanel, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(raw), "", "  "); err != nil {
		return ReportPanel{}, err
	}
	return ReportPanel{Text: buf.String()}, nil
}

// AttendanceNotice is the message shown for a view-attendance result. An
// empty list reads the same as no list at all.
func AttendanceNotice(id apiclient.ID, result apiclient.AttendanceResult) string {
	if !result.IsList || len(result.Records) == 0 {
		return "No attendance"
	}
	dates := make([]string, 0, len(result.Records))
	for _, rec := range result.Records {
		dates = append(dates, rec.Date)
	}
	return "Attendance for #" + id.String() + ":\n" + strings.Join(dates, "\n")
}

func DeletePrompt(id apiclient.ID) string {
	return "Delete employee #" + id.String() + "?"
}
