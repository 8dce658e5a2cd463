package api

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

	"github.com/Joseda-hg/lazyteam/internal/model"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

var ErrUnauthorized = errors.New("unauthorized")

// StatusError is returned for any non-2xx response other than 401.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status code %d", e.StatusCode)
	}
	return e.Message
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Login(ctx context.Context, employeeID, password string) (model.User, error) {
	var user model.User
	err := c.do(ctx, http.MethodPost, "/api/login", model.Credentials{ID: employeeID, Password: password}, &user)
	if err != nil {
		return model.User{}, err
	}
	if user.ID == "" {
		return model.User{}, fmt.Errorf("login response missing id")
	}
	return user, nil
}

func (c *Client) Member(ctx context.Context, id string) (model.Member, error) {
	var member model.Member
	if err := c.do(ctx, http.MethodGet, "/api/members/"+url.PathEscape(id), nil, &member); err != nil {
		return model.Member{}, err
	}
	return member, nil
}

func (c *Client) Profile(ctx context.Context, id string) (model.Profile, error) {
	var profile model.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile/"+url.PathEscape(id), nil, &profile); err != nil {
		return model.Profile{}, err
	}
	return profile, nil
}

func (c *Client) Tasks(ctx context.Context, employeeID string) ([]model.Task, error) {
	path := "/api/tasks"
	if employeeID != "" {
		path += "?employeeId=" + url.QueryEscape(employeeID)
	}
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return &StatusError{StatusCode: resp.StatusCode}
	}

	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
		return &StatusError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
}
