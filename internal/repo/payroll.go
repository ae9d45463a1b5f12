package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/surendarrv/datagrid/internal/models"
	"github.com/surendarrv/datagrid/internal/utils"
)

// DefaultSalaryPath is the payroll endpoint for salary updates.
const DefaultSalaryPath = "/v1/api/updatesalary"

// PayrollResponse is the optional JSON envelope returned by the payroll service.
type PayrollResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	Error        string `json:"error,omitempty"`
	EmployeeID   int    `json:"employeeId,omitempty"`
	NewSalary    int    `json:"newSalary,omitempty"`
	RowsAffected int    `json:"rowsAffected,omitempty"`
}

// PayrollClient posts salary updates to the payroll service.
type PayrollClient struct {
	baseURL    string
	salaryPath string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewPayrollClient constructs a client targeting baseURL.
func NewPayrollClient(baseURL, salaryPath string, timeout time.Duration, logger *slog.Logger) *PayrollClient {
	if salaryPath == "" {
		salaryPath = DefaultSalaryPath
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PayrollClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		salaryPath: salaryPath,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// UpdateSalary sends update. Only HTTP 200 counts as success; any other
// outcome returns an error wrapping utils.ErrRemote.
func (c *PayrollClient) UpdateSalary(ctx context.Context, update models.SalaryUpdate) error {
	var resp PayrollResponse
	if err := c.postJSON(ctx, c.resolvePath(c.salaryPath), update, &resp); err != nil {
		return utils.NewAppError("payroll.update_salary", fmt.Sprintf("employee %d", update.EmployeeID), errors.Join(utils.ErrRemote, err))
	}
	c.logger.Debug("payroll accepted salary update",
		slog.Int("id", update.EmployeeID),
		slog.String("status", resp.Status),
		slog.Int("rows", resp.RowsAffected))
	return nil
}

func (c *PayrollClient) resolvePath(p string) string {
	if c.baseURL == "" {
		return ""
	}
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}

// postJSON posts payload and decodes a JSON reply into out when the body is
// non-empty. An undecodable reply to a 200 is logged, not failed.
func (c *PayrollClient) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	if endpoint == "" {
		return fmt.Errorf("empty endpoint")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("payroll returned %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil || len(bytes.TrimSpace(data)) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("payroll reply not understood", slog.Any("error", err))
	}
	return nil
}

// LoggingPayroll stands in for the payroll service when none is configured:
// it waits Delay, logs the request and reports success.
type LoggingPayroll struct {
	Delay  time.Duration
	Logger *slog.Logger
}

// UpdateSalary implements reconcile.Client.
func (m LoggingPayroll) UpdateSalary(ctx context.Context, update models.SalaryUpdate) error {
	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return utils.NewAppError("payroll.mock", "update salary", errors.Join(utils.ErrRemote, ctx.Err()))
		}
	}
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("mock payroll call",
		slog.String("endpoint", DefaultSalaryPath),
		slog.Int("employeeId", update.EmployeeID),
		slog.Int("newSalary", update.NewSalary),
		slog.Int("status", http.StatusOK))
	return nil
}
