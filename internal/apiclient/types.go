package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is an opaque employee key. Backends encode it as a JSON number or
// string; it always travels as a string.
type ID string

func (id ID) String() string {
	return string(id)
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number: %w", err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*id = ID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ID(n.String())
	return nil
}

type Employee struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Department  string `json:"department"`
	JoiningDate string `json:"joiningDate"`
}

type NewEmployee struct {
	Name        string `json:"name"`
	Department  string `json:"department"`
	JoiningDate string `json:"joiningDate"`
}

type AttendanceRecord struct {
	EmployeeID ID     `json:"employeeId"`
	Date       string `json:"date"`
}

// AttendanceResult.IsList is false when the backend answered with something
// other than a JSON array.
type AttendanceResult struct {
	Records []AttendanceRecord
	IsList  bool
}
