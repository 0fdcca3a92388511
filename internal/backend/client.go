// Package backend is the REST client for the ticketing API the composer sits in
// front of.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/config"
	"github.com/spec-kit/ticket-desk/internal/domain"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client calls the ticketing REST API.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient constructs a client from configuration.
func NewClient(cfg config.BackendConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.APIToken,
		timeout: cfg.Timeout(),
		logger:  logger,
	}
}

// Subcategories lists the subcategories of a category.
func (c *Client) Subcategories(ctx context.Context, categoryID string) ([]domain.Subcategory, error) {
	var out []domain.Subcategory
	path := "/api/categories/" + url.PathEscape(categoryID) + "/subcategories"
	if err := c.getJSON(ctx, path, nil, &out); err != nil {
		return nil, apperrors.NewFetchFailed("subcategories", err)
	}
	return out, nil
}

// FieldDefinitions lists the dynamic fields of a category, optionally narrowed
// to one subcategory.
func (c *Client) FieldDefinitions(ctx context.Context, categoryID, subcategoryID string) ([]domain.FieldDefinition, error) {
	var query url.Values
	if subcategoryID != "" {
		query = url.Values{"subcategoryId": []string{subcategoryID}}
	}
	var out []domain.FieldDefinition
	path := "/api/categories/" + url.PathEscape(categoryID) + "/fields"
	if err := c.getJSON(ctx, path, query, &out); err != nil {
		return nil, apperrors.NewFetchFailed("field definitions", err)
	}
	return out, nil
}

// Studios lists studios.
func (c *Client) Studios(ctx context.Context) ([]domain.Studio, error) {
	var out []domain.Studio
	if err := c.getJSON(ctx, "/api/studios", nil, &out); err != nil {
		return nil, apperrors.NewFetchFailed("studios", err)
	}
	return out, nil
}

// Analyze asks the backend for sentiment and tags of a ticket.
func (c *Client) Analyze(ctx context.Context, req domain.SentimentRequest) (*domain.SentimentResult, error) {
	var out domain.SentimentResult
	if err := c.postJSON(ctx, "/api/analyze-sentiment", req, &out); err != nil {
		return nil, err
	}
	if out.Sentiment == "" {
		return nil, errors.New("sentiment missing from analysis response")
	}
	return &out, nil
}

// CreateTicket posts the submission payload.
func (c *Client) CreateTicket(ctx context.Context, payload domain.SubmissionPayload) (*domain.CreatedTicket, error) {
	var raw json.RawMessage
	if err := c.postJSON(ctx, "/api/tickets", payload, &raw); err != nil {
		return nil, err
	}
	created := &domain.CreatedTicket{Raw: raw}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, created); err != nil {
			return nil, fmt.Errorf("decode created ticket: %w", err)
		}
	}
	created.Raw = raw
	return created, nil
}

// ListTickets returns the raw ticket listing for the given query string.
func (c *Client) ListTickets(ctx context.Context, rawQuery string) ([]byte, error) {
	return c.getRaw(ctx, "/api/tickets", rawQuery)
}

// DashboardStats returns the raw dashboard statistics.
func (c *Client) DashboardStats(ctx context.Context, rawQuery string) ([]byte, error) {
	return c.getRaw(ctx, "/api/dashboard/stats", rawQuery)
}

func (c *Client) getRaw(ctx context.Context, path, rawQuery string) ([]byte, error) {
	target := c.baseURL + path
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	body, err := c.do(ctx, c.prepare(fiber.Get(target)))
	if err != nil {
		return nil, apperrors.NewFetchFailed(strings.TrimPrefix(path, "/api/"), err)
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	body, err := c.do(ctx, c.prepare(fiber.Get(target)))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	agent := c.prepare(fiber.Post(c.baseURL + path)).JSON(in)
	body, err := c.do(ctx, agent)
	if err != nil {
		return err
	}
	if len(body) == 0 || out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *Client) prepare(agent *fiber.Agent) *fiber.Agent {
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if c.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	return agent
}

// do runs the request honoring the context deadline; the agent itself has no
// context support so the earlier of deadline and client timeout applies.
func (c *Client) do(ctx context.Context, agent *fiber.Agent) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(agent)
		return nil, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	agent.Timeout(timeout)

	start := time.Now()
	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		err := errors.Join(errs...)
		c.logger.Warn("backend request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, err
	}
	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		apiErr := &APIError{Status: status, Message: errorMessage(status, body)}
		c.logger.Warn("backend returned error", zap.Int("status", status), zap.String("message", apiErr.Message))
		return nil, apiErr
	}
	return body, nil
}

// errorMessage extracts a human readable message from an error body.
func errorMessage(status int, body []byte) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		var s string
		if json.Unmarshal(envelope.Error, &s) == nil && s != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(envelope.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return fmt.Sprintf("request failed with status %d", status)
}
