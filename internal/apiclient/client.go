package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiPrefix = "/api"

// Client talks to the employee backend. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) ListEmployees(ctx context.Context) ([]Employee, error) {
	resp, body, err := c.do(ctx, http.MethodGet, "/employees", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError("list employees", resp.StatusCode, body)
	}
	var employees []Employee
	if err := json.Unmarshal(body, &employees); err != nil {
		return nil, fmt.Errorf("list employees: decode: %w", err)
	}
	return employees, nil
}

// CreateEmployee succeeds only on 201 Created; any other status is a
// StatusError carrying the response body verbatim.
func (c *Client) CreateEmployee(ctx context.Context, employee NewEmployee) error {
	payload, err := json.Marshal(employee)
	if err != nil {
		return fmt.Errorf("create employee: encode: %w", err)
	}
	resp, body, err := c.do(ctx, http.MethodPost, "/employees", nil, payload)
	if err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return newStatusError("create employee", resp.StatusCode, body)
	}
	return nil
}

func (c *Client) DeleteEmployee(ctx context.Context, id ID) error {
	query := url.Values{"id": {id.String()}}
	resp, body, err := c.do(ctx, http.MethodDelete, "/employees", query, nil)
	if err != nil {
		return fmt.Errorf("delete employee %s: %w", id, err)
	}
	if !isOK(resp.StatusCode) {
		return newStatusError("delete employee", resp.StatusCode, body)
	}
	return nil
}

func (c *Client) MarkAttendance(ctx context.Context, record AttendanceRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("mark attendance: encode: %w", err)
	}
	resp, body, err := c.do(ctx, http.MethodPost, "/attendance", nil, payload)
	if err != nil {
		return fmt.Errorf("mark attendance: %w", err)
	}
	if !isOK(resp.StatusCode) {
		return newStatusError("mark attendance", resp.StatusCode, body)
	}
	return nil
}

// QueryAttendance decodes the body whatever the status, since a backend that
// has no records may answer with a non-array object instead of a list.
func (c *Client) QueryAttendance(ctx context.Context, employeeID ID) (AttendanceResult, error) {
	query := url.Values{"employeeId": {employeeID.String()}}
	_, body, err := c.do(ctx, http.MethodGet, "/attendance", query, nil)
	if err != nil {
		return AttendanceResult{}, fmt.Errorf("query attendance: %w", err)
	}
	result, err := decodeAttendance(body)
	if err != nil {
		return AttendanceResult{}, fmt.Errorf("query attendance: %w", err)
	}
	return result, nil
}

func (c *Client) ListAttendance(ctx context.Context) ([]AttendanceRecord, error) {
	resp, body, err := c.do(ctx, http.MethodGet, "/attendance", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError("list attendance", resp.StatusCode, body)
	}
	result, err := decodeAttendance(body)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return result.Records, nil
}

func (c *Client) GetReport(ctx context.Context) (json.RawMessage, error) {
	resp, body, err := c.do(ctx, http.MethodGet, "/report", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError("get report", resp.StatusCode, body)
	}
	if !json.Valid(body) {
		return nil, errors.New("get report: response is not valid json")
	}
	return json.RawMessage(body), nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte) (*http.Response, []byte, error) {
	target := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp, body, nil
}

func decodeAttendance(body []byte) (AttendanceResult, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if !json.Valid(trimmed) {
			return AttendanceResult{}, errors.New("response is not valid json")
		}
		return AttendanceResult{}, nil
	}
	var records []AttendanceRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return AttendanceResult{}, fmt.Errorf("decode: %w", err)
	}
	return AttendanceResult{Records: records, IsList: true}, nil
}

func isOK(status int) bool {
	return status >= 200 && status <= 299
}
