package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"campusvote/internal/session"
	"campusvote/pkg/errors"
	"campusvote/pkg/logger"
	"campusvote/pkg/metrics"

	"github.com/oklog/ulid/v2"
)

// Client issues requests against the election backend. It attaches the
// current session credential to every outbound request and is the single
// point where an authentication rejection is detected and turned into the
// session store's Unauthenticated transition.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   *session.Store
	log        *logger.Logger

	// onAuthReject runs after the session purge when the backend rejects the
	// credential. The container wires the full cache purge here.
	onAuthReject func()
}

// New creates a transport client for the given base URL.
func New(baseURL string, timeout time.Duration, sessions *session.Store, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		sessions: sessions,
		log:      log,
	}
}

// OnAuthReject registers a hook invoked whenever the backend signals that the
// credential is invalid or expired, regardless of which operation triggered it.
func (c *Client) OnAuthReject(fn func()) {
	c.onAuthReject = fn
}

// Get issues a GET request and decodes the 2xx response body into out.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body and decodes the 2xx response
// body into out. out may be nil when the caller only cares about success.
func (c *Client) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return errors.NewInternalError("failed to marshal request body", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return errors.NewInternalError("failed to create request", err)
	}

	requestID := ulid.Make().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.sessions.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	dur := time.Since(start)
	metrics.ObserveRequestDuration(method, dur.Seconds())
	if err != nil {
		c.log.WithFields(map[string]interface{}{
			"method":     method,
			"path":       path,
			"request_id": requestID,
		}).WithError(err).Warn("Backend request failed")
		return errors.NewExternalError("election backend is unreachable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewExternalError("failed to read backend response", err)
	}

	c.log.WithFields(map[string]interface{}{
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"duration":   dur,
		"request_id": requestID,
	}).Debug("Backend request completed")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(respBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return errors.NewExternalError("failed to parse backend response", err)
		}
		return nil
	}

	return c.errorFromResponse(resp.StatusCode, respBody)
}

// errorFromResponse maps a non-2xx backend response onto the error taxonomy.
// An authentication rejection additionally forces the session store to
// Unauthenticated and fires the purge hook before the error is surfaced.
func (c *Client) errorFromResponse(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		c.sessions.Clear()
		if c.onAuthReject != nil {
			c.onAuthReject()
		}
		return errors.NewAuthenticationError(messageFromBody(body, "authentication credential was rejected"))
	case http.StatusNotFound:
		return errors.NewNotFoundError(messageFromBody(body, "resource not found"))
	case http.StatusBadRequest:
		fields := map[string]interface{}{}
		_ = json.Unmarshal(body, &fields)
		return errors.NewBusinessError(rejectionMessage(fields), fields)
	default:
		return errors.NewExternalError(
			fmt.Sprintf("election backend returned status %d", status),
			fmt.Errorf("%s", strings.TrimSpace(string(body))),
		)
	}
}

// rejectionMessage picks the most specific field from a rejection body, in
// the portal's precedence order: candidate, then position, then error.
func rejectionMessage(fields map[string]interface{}) string {
	for _, key := range []string{"candidate", "position", "error", "detail"} {
		if v, ok := fields[key]; ok {
			if msg := firstString(v); msg != "" {
				return msg
			}
		}
	}
	// Serializer rejections on other fields (registration and the like)
	// carry the same shape under different keys.
	for _, v := range fields {
		if msg := firstString(v); msg != "" {
			return msg
		}
	}
	return "request was rejected by the backend"
}

// firstString unwraps DRF-style field errors, which arrive either as a string
// or as an array of strings.
func firstString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []interface{}:
		if len(t) > 0 {
			if s, ok := t[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

func messageFromBody(body []byte, fallback string) string {
	fields := map[string]interface{}{}
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range []string{"error", "detail", "message"} {
			if v, ok := fields[key]; ok {
				if msg := firstString(v); msg != "" {
					return msg
				}
			}
		}
	}
	return fallback
}
