package common

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const maxErrorBody = 64 * 1024

// ErrorParser turns a non-2xx response into an error.
type ErrorParser func(statusCode int, body []byte) error

// JSONRequest is one JSON call. Body and Out are optional.
type JSONRequest struct {
	Method      string
	URL         string
	BearerToken string
	Body        any
	Out         any
}

// DoJSON sends r.Body as JSON and decodes a 2xx response into r.Out. Other
// statuses are returned as parseError's error, unwrapped.
func DoJSON(ctx context.Context, client *http.Client, r JSONRequest, parseError ErrorParser) error {
	var body io.Reader
	if r.Body != nil {
		encoded, err := json.Marshal(r.Body)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return err
	}
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.BearerToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return parseError(resp.StatusCode, bodyBytes)
	}

	if r.Out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.Out); err != nil {
		return fmt.Errorf("could not parse response from %s: %w", r.URL, err)
	}
	return nil
}
