package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPStatusError carries the non-2xx status and a body excerpt so the
// classifier can distinguish overload from model-not-found from oversized
// input without re-reading the response.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: ollama returned status %d: %s", e.Operation, e.StatusCode, e.Body)
}

const maxErrorBodyBytes = 512

func (c *Client) postJSON(ctx context.Context, path string, request any, response any, operation string) error {
	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", operation, err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", operation, err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(httpResponse.Body, maxErrorBodyBytes))
		return &HTTPStatusError{
			Operation:  operation,
			StatusCode: httpResponse.StatusCode,
			Body:       string(bytes.TrimSpace(excerpt)),
		}
	}

	if response == nil {
		return nil
	}
	if err := json.NewDecoder(httpResponse.Body).Decode(response); err != nil {
		return fmt.Errorf("%s: decode response: %w", operation, err)
	}
	return nil
}
