package clients

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

	"sigea-portal-svc/src/internal/config"
	"sigea-portal-svc/src/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// APIError is a non-2xx answer from the SIGEA backend. Message carries the
// backend's own explanation when the body had one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("sigea backend returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("sigea backend returned status: %d", e.StatusCode)
}

// UserMessage returns a message fit for display: the backend's message when
// err carries one, fallback otherwise.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// SigeaClient handles communication with the SIGEA REST backend
type SigeaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSigeaClient creates new backend client
func NewSigeaClient(cfg *config.Configuration) *SigeaClient {
	return &SigeaClient{
		baseURL: strings.TrimRight(cfg.Backend.URL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Backend.Timeout) * time.Second,
		},
	}
}

// Login exchanges credentials for a session token
func (c *SigeaClient) Login(ctx context.Context, email, password string) (string, error) {
	var response models.LoginResponse
	body := models.LoginRequest{Email: email, Password: password}

	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &response); err != nil {
		return "", err
	}
	if response.Token == "" {
		return "", fmt.Errorf("login response without token: %w", models.ErrInvalidResponse)
	}

	return response.Token, nil
}

// GetActivities lists the activity catalog
func (c *SigeaClient) GetActivities(ctx context.Context, token string) ([]models.CatalogActivity, error) {
	var envelope models.Envelope[[]models.CatalogActivity]
	if err := c.do(ctx, http.MethodGet, "/actividades", token, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.ExtraData, nil
}

// GetActivity retrieves one activity with its sessions
func (c *SigeaClient) GetActivity(ctx context.Context, token, activityID string) (*models.CatalogActivity, error) {
	var envelope models.Envelope[*models.CatalogActivity]
	path := "/actividades/" + url.PathEscape(activityID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &envelope); err != nil {
		return nil, err
	}
	if envelope.ExtraData == nil {
		return nil, &APIError{StatusCode: http.StatusNotFound, Message: envelope.Message}
	}
	return envelope.ExtraData, nil
}

// GetAttendanceDashboard fetches the dashboard aggregate
func (c *SigeaClient) GetAttendanceDashboard(ctx context.Context, token string) (*models.Envelope[[]models.DashboardActivity], error) {
	var envelope models.Envelope[[]models.DashboardActivity]
	if err := c.do(ctx, http.MethodGet, "/asistencias/dashboard", token, nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

// SaveAttendanceBulk writes every mark of one activity in a single request
func (c *SigeaClient) SaveAttendanceBulk(ctx context.Context, token, activityID string, marks []models.AttendanceMark) error {
	path := fmt.Sprintf("/asistencias/actividades/%s/bulk", url.PathEscape(activityID))
	return c.do(ctx, http.MethodPost, path, token, marks, nil)
}

// MarkAttendance writes a single attendance record
func (c *SigeaClient) MarkAttendance(ctx context.Context, token string, req models.AttendanceRequest) error {
	return c.do(ctx, http.MethodPost, "/asistencias", token, req, nil)
}

// CreatePayment starts a payment for an enrollment
func (c *SigeaClient) CreatePayment(ctx context.Context, token string, req models.PaymentRequest) (*models.PaymentResponse, error) {
	var envelope models.Envelope[*models.PaymentResponse]
	if err := c.do(ctx, http.MethodPost, "/pagos", token, req, &envelope); err != nil {
		return nil, err
	}
	if envelope.ExtraData == nil {
		return nil, fmt.Errorf("payment response without data: %w", models.ErrInvalidResponse)
	}
	return envelope.ExtraData, nil
}

func (c *SigeaClient) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method":     method,
			"path":       path,
			"request_id": requestID,
		}).Error("SIGEA backend call failed")
		return fmt.Errorf("failed to call sigea backend: %w: %v", models.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	logrus.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"request_id": requestID,
		"elapsed":    time.Since(start).String(),
	}).Debug("SIGEA backend call completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// readErrorMessage pulls "message" (or "error") out of an error body.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
