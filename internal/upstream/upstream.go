// Package upstream holds the HTTP plumbing shared by the bank-data and
// budgeting clients: JSON request execution, status validation and error
// logging.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const redacted = "[redacted]"

// Error is a non-2xx response from an upstream API.
type Error struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, body)
}

// HasStatus reports whether err is an upstream Error with the given status.
func HasStatus(err error, status int) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.StatusCode == status
}

// Call describes one JSON request.
type Call struct {
	Method string
	URL    string
	Header http.Header
	// Body is JSON-encoded when non-nil.
	Body any
	// SecretBody hides the request body from error logs.
	SecretBody bool
}

// Do sends c and decodes a 2xx JSON response into out (if out is non-nil).
// A non-2xx response is logged at error level with the request and response
// context and returned as *Error.
func Do(ctx context.Context, hc *http.Client, log *zap.Logger, c Call, out any) error {
	var reqBody []byte
	if c.Body != nil {
		b, err := json.Marshal(c.Body)
		if err != nil {
			return fmt.Errorf("marshaling %s %s body: %w", c.Method, c.URL, err)
		}
		reqBody = b
	}

	req, err := http.NewRequestWithContext(ctx, c.Method, c.URL, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("creating %s %s request: %w", c.Method, c.URL, err)
	}
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", c.Method, c.URL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s %s response: %w", c.Method, c.URL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		loggedBody := string(reqBody)
		if c.SecretBody {
			loggedBody = redacted
		}
		log.Error("upstream request failed",
			zap.String("method", c.Method),
			zap.String("url", c.URL),
			zap.Int("status", resp.StatusCode),
			zap.Any("request_headers", RedactHeaders(req.Header)),
			zap.String("request_body", loggedBody),
			zap.Any("response_headers", map[string][]string(resp.Header)),
			zap.String("response_body", string(respBody)),
		)
		return &Error{
			Method:     c.Method,
			URL:        c.URL,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", c.Method, c.URL, err)
	}
	return nil
}

// RedactHeaders returns a copy of h with credential values hidden.
func RedactHeaders(h http.Header) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, vs := range h {
		if strings.EqualFold(k, "Authorization") {
			out[k] = []string{redacted}
			continue
		}
		out[k] = append([]string(nil), vs...)
	}
	return out
}
