// Package sheets moves employee data in and out of spreadsheets.
package sheets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/phillip-england/empdesk/internal/apiclient"
	"github.com/xuri/excelize/v2"
)

const (
	EmployeesSheet  = "Employees"
	AttendanceSheet = "Attendance"
	ReportSheet     = "Report"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WriteWorkbook writes an xlsx with one sheet each for employees, attendance
// records and the pretty-printed report.
func WriteWorkbook(w io.Writer, employees []apiclient.Employee, attendance []apiclient.AttendanceRecord, report json.RawMessage) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	if err := file.SetSheetName(file.GetSheetName(0), EmployeesSheet); err != nil {
		return fmt.Errorf("name employees sheet: %w", err)
	}
	if _, err := file.NewSheet(AttendanceSheet); err != nil {
		return fmt.Errorf("create attendance sheet: %w", err)
	}
	if _, err := file.NewSheet(ReportSheet); err != nil {
		return fmt.Errorf("create report sheet: %w", err)
	}

	daysPresent := map[apiclient.ID]int{}
	for _, rec := range attendance {
		daysPresent[rec.EmployeeID]++
	}

	if err := setRow(file, EmployeesSheet, 1, "ID", "Name", "Department", "Joining Date", "Days Present"); err != nil {
		return err
	}
	for i, e := range employees {
		if err := setRow(file, EmployeesSheet, i+2, e.ID.String(), e.Name, e.Department, e.JoiningDate, daysPresent[e.ID]); err != nil {
			return err
		}
	}

	if err := setRow(file, AttendanceSheet, 1, "Employee ID", "Date"); err != nil {
		return err
	}
	for i, rec := range attendance {
		if err := setRow(file, AttendanceSheet, i+2, rec.EmployeeID.String(), rec.Date); err != nil {
			return err
		}
	}

	var pretty bytes.Buffer
	if len(bytes.TrimSpace(report)) > 0 {
		if err := json.Indent(&pretty, report, "", "  "); err != nil {
			return fmt.Errorf("format report: %w", err)
		}
	}
	for i, line := range strings.Split(pretty.String(), "\n") {
		if err := setRow(file, ReportSheet, i+1, line); err != nil {
			return err
		}
	}

	if err := file.SetColWidth(EmployeesSheet, "B", "C", 24); err != nil {
		return fmt.Errorf("size employee columns: %w", err)
	}
	if err := file.SetColWidth(ReportSheet, "A", "A", 60); err != nil {
		return fmt.Errorf("size report column: %w", err)
	}

	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(file *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := file.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
