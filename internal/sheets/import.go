package sheets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/phillip-england/empdesk/internal/apiclient"
	"github.com/xuri/excelize/v2"
)

var ErrMissingColumns = errors.New("spreadsheet must have name, department and joining date columns")

// FirstDataRow is the spreadsheet row number of the first employee, after the
// header.
const FirstDataRow = 2

// ReadEmployees parses an .xls or .xlsx sheet whose header row names the
// name, department and joining date columns. Blank rows are skipped.
func ReadEmployees(reader io.Reader, filename string) ([]apiclient.NewEmployee, error) {
	rows, err := readRowsFromSpreadsheet(reader, filename)
	if err != nil {
		return nil, err
	}

	nameIdx, departmentIdx, joiningIdx := -1, -1, -1
	for idx, header := range rows[0] {
		switch normalizeHeader(header) {
		case "name", "employee name":
			nameIdx = idx
		case "department", "dept":
			departmentIdx = idx
		case "joining date", "joiningdate", "joining_date", "joined":
			joiningIdx = idx
		}
	}
	if nameIdx < 0 || departmentIdx < 0 || joiningIdx < 0 {
		return nil, ErrMissingColumns
	}

	employees := make([]apiclient.NewEmployee, 0, len(rows)-1)
	for _, row := range rows[1:] {
		employee := apiclient.NewEmployee{
			Name:        cellValue(row, nameIdx),
			Department:  cellValue(row, departmentIdx),
			JoiningDate: normalizeJoiningDate(cellValue(row, joiningIdx)),
		}
		if employee.Name == "" && employee.Department == "" && employee.JoiningDate == "" {
			continue
		}
		employees = append(employees, employee)
	}
	return employees, nil
}

func readRowsFromSpreadsheet(reader io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows := workbook.ReadAllCells(100000)
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	case ".xlsx", ".xlsm":
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows, err := file.GetRows(sheetName)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("unsupported spreadsheet type %q", ext)
	}
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.Join(strings.Fields(header), " "))
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// normalizeJoiningDate turns Excel date serials into DD-MM-YYYY and leaves
// every other value as typed.
func normalizeJoiningDate(value string) string {
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		// Plain years and small numbers are not serial dates.
		if serial >= 20000 && serial <= 80000 {
			if parsed, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return parsed.Format("02-01-2006")
			}
		}
	}
	return value
}
