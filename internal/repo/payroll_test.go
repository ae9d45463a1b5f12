package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/surendarrv/datagrid/internal/models"
	"github.com/surendarrv/datagrid/internal/utils"
)

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestUpdateSalaryPostsRequest(t *testing.T) {
	client := NewPayrollClient("https://payroll.example.com/base/", "", time.Second, nil)
	client.httpClient = newTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost {
			t.Fatalf("unexpected method %s", req.Method)
		}
		if req.URL.Path != "/base/v1/api/updatesalary" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		if ct := req.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("unexpected content type %q", ct)
		}
		body, _ := io.ReadAll(req.Body)
		var got map[string]int
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if got["employeeId"] != 12 || got["newSalary"] != 64000 {
			t.Fatalf("unexpected body %s", body)
		}
		return jsonResponse(http.StatusOK, `{"status":"SUCCESS","employeeId":12,"newSalary":64000,"rowsAffected":1}`), nil
	}))

	if err := client.UpdateSalary(context.Background(), models.SalaryUpdate{EmployeeID: 12, NewSalary: 64000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateSalaryAcceptsEmptyReply(t *testing.T) {
	client := NewPayrollClient("https://payroll.example.com", "", time.Second, nil)
	client.httpClient = newTestClient(roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, ""), nil
	}))
	if err := client.UpdateSalary(context.Background(), models.SalaryUpdate{EmployeeID: 1, NewSalary: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateSalaryNonOKIsRemoteError(t *testing.T) {
	client := NewPayrollClient("https://payroll.example.com", "/custom", time.Second, nil)
	client.httpClient = newTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/custom" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		return jsonResponse(http.StatusBadRequest, `{"status":"ERROR","error":"Salary cannot exceed $200,000"}`), nil
	}))

	err := client.UpdateSalary(context.Background(), models.SalaryUpdate{EmployeeID: 1, NewSalary: 1})
	if !errors.Is(err, utils.ErrRemote) {
		t.Fatalf("expected ErrRemote, got %v", err)
	}
}

func TestUpdateSalaryTransportError(t *testing.T) {
	client := NewPayrollClient("https://payroll.example.com", "", time.Second, nil)
	client.httpClient = newTestClient(roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}))
	if err := client.UpdateSalary(context.Background(), models.SalaryUpdate{}); !errors.Is(err, utils.ErrRemote) {
		t.Fatalf("expected ErrRemote, got %v", err)
	}
}

func TestUpdateSalaryWithoutBaseURL(t *testing.T) {
	client := NewPayrollClient("", "", time.Second, nil)
	if err := client.UpdateSalary(context.Background(), models.SalaryUpdate{}); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
}

func TestLoggingPayrollHonoursContext(t *testing.T) {
	mock := LoggingPayroll{Delay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := mock.UpdateSalary(ctx, models.SalaryUpdate{EmployeeID: 1}); !errors.Is(err, utils.ErrRemote) {
		t.Fatalf("expected ErrRemote on cancellation, got %v", err)
	}

	var buf bytes.Buffer
	quick := LoggingPayroll{Logger: utils.NewLoggerTo(&buf, "info", true)}
	if err := quick.UpdateSalary(context.Background(), models.SalaryUpdate{EmployeeID: 5, NewSalary: 900}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"employeeId":5`) {
		t.Fatalf("expected request to be logged, got %s", buf.String())
	}
}
