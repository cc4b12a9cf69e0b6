// Package rpc — клиент HTTP-интерфейса бэк-офиса для терминала.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/domain/ports"
	"blackboxbe/internal/service/backoffice"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultRetryWaitMax = 5 * time.Second
)

// RemoteError — ответ бэк-офиса с кодом ошибки.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("back office responded %d: %s", e.Status, e.Message)
}

// Config — параметры клиента.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	RetryMax int
	Logger   retryablehttp.LeveledLogger // может быть nil
}

// Client реализует ports.SessionBackend поверх HTTP.
type Client struct {
	retry   *retryablehttp.Client
	baseURL string
}

var _ ports.SessionBackend = (*Client)(nil)

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = defaultRetryWaitMax
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.Logger = nil
	if cfg.Logger != nil {
		retryClient.Logger = cfg.Logger
	}
	// ответы 4xx и 5xx разбираются вызывающим кодом
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		retry:   retryClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

type workStatusResponse struct {
	ClockedIn bool `json:"clocked_in"`
}

type setWorkStatusResponse struct {
	ClockedIDs []int64 `json:"clocked_ids"`
}

type cashBoxOpeningResponse struct {
	CashBoxOpening int `json:"cash_box_opening_number"`
}

type errorResponse struct {
	Message     string `json:"message"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

func (c *Client) WorkStatus(ctx context.Context, sessionID, cashierID int64, employee bool) (bool, error) {
	q := url.Values{}
	q.Set("cashier_id", strconv.FormatInt(cashierID, 10))
	q.Set("employee", strconv.FormatBool(employee))

	var resp workStatusResponse
	err := c.do(ctx, http.MethodGet, sessionPath(sessionID, "/work-status")+"?"+q.Encode(), nil, &resp)
	if err != nil {
		return false, err
	}
	return resp.ClockedIn, nil
}

func (c *Client) SetWorkStatus(ctx context.Context, status models.WorkStatus) ([]int64, error) {
	var resp setWorkStatusResponse
	err := c.do(ctx, http.MethodPut, sessionPath(status.SessionID, "/work-status"), status, &resp)
	if err != nil {
		return nil, err
	}
	return resp.ClockedIDs, nil
}

func (c *Client) RegisterOrder(ctx context.Context, order models.OrderExport) error {
	return c.do(ctx, http.MethodPost, "/api/orders", order, nil)
}

func (c *Client) SaveDraft(ctx context.Context, order models.OrderExport) error {
	return c.do(ctx, http.MethodPost, "/api/orders/drafts", order, nil)
}

// IncreaseCashBoxOpening не повторяется при сбое: повтор может увеличить счётчик дважды.
func (c *Client) IncreaseCashBoxOpening(ctx context.Context, sessionID int64) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sessionPath(sessionID, "/cashbox-openings"), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.retry.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("back office request failed: %w", err)
	}
	defer resp.Body.Close()

	var out cashBoxOpeningResponse
	if err := decode(resp, &out); err != nil {
		return 0, err
	}
	return out.CashBoxOpening, nil
}

// OpenSession открывает сессию на бэк-офисе.
func (c *Client) OpenSession(ctx context.Context, req backoffice.OpenSessionRequest) (models.SessionInfo, error) {
	var info models.SessionInfo
	err := c.do(ctx, http.MethodPost, "/api/sessions", req, &info)
	return info, err
}

// Session возвращает сессию по идентификатору.
func (c *Client) Session(ctx context.Context, id int64) (models.SessionInfo, error) {
	var info models.SessionInfo
	err := c.do(ctx, http.MethodGet, sessionPath(id, ""), nil, &info)
	return info, err
}

// SessionReport возвращает отчёт о продажах сессии.
func (c *Client) SessionReport(ctx context.Context, id int64) (models.Report, error) {
	var report models.Report
	err := c.do(ctx, http.MethodGet, sessionPath(id, "/report"), nil, &report)
	return report, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.retry.Do(req)
	if err != nil {
		return fmt.Errorf("back office request failed: %w", err)
	}
	defer resp.Body.Close()

	return decode(resp, out)
}

// decode разбирает ответ; отказы 422 превращаются в ValidationError с исходной причиной
func decode(resp *http.Response, out any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		var e errorResponse
		raw, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(raw, &e); err != nil || e.Message == "" {
			e.Message = strings.TrimSpace(string(raw))
		}

		switch resp.StatusCode {
		case http.StatusUnprocessableEntity:
			reason := models.ReasonByText(e.Reason)
			if reason == nil {
				reason = errors.New(e.Reason)
			}
			return &models.ValidationError{Reason: reason, Message: e.Message}
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", e.Description, models.ErrNotFound)
		}
		return &RemoteError{Status: resp.StatusCode, Message: e.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func sessionPath(id int64, suffix string) string {
	return "/api/sessions/" + strconv.FormatInt(id, 10) + suffix
}
