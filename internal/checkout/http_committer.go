package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DecrementRequest is the body of a remote stock commit
type DecrementRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// DecrementResponse is the body returned by the stock commit endpoint. The
// committed flag is authoritative regardless of the HTTP status.
type DecrementResponse struct {
	Committed      bool   `json:"committed"`
	RemainingStock *int   `json:"remaining_stock,omitempty"`
	Error          string `json:"error,omitempty"`
}

// apiKeyHeader is the header the decrement endpoint is guarded by
const apiKeyHeader = "X-Admin-Key"

// HTTPCommitter commits stock through a remote decrement endpoint
type HTTPCommitter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPCommitter creates a committer for the service at baseURL. apiKey is
// sent with every request when set. Requests carry trace context through an
// instrumented transport.
func NewHTTPCommitter(baseURL, apiKey string, timeout time.Duration) *HTTPCommitter {
	return &HTTPCommitter{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *HTTPCommitter) CommitDecrement(ctx context.Context, productID uuid.UUID, qty int) (CommitResult, error) {
	body, err := json.Marshal(DecrementRequest{Quantity: qty})
	if err != nil {
		return CommitResult{}, fmt.Errorf("failed to marshal decrement request: %w", err)
	}

	endpoint := c.baseURL + "/api/products/" + url.PathEscape(productID.String()) + "/decrement"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return CommitResult{}, fmt.Errorf("%w: build request: %w", domain.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return CommitResult{}, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	var decoded DecrementResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return CommitResult{}, fmt.Errorf("%w: decode response (status %d): %w", domain.ErrTransport, resp.StatusCode, err)
	}

	result := CommitResult{Committed: decoded.Committed, RemainingStock: decoded.RemainingStock}

	switch {
	case decoded.Committed:
		return result, nil
	case resp.StatusCode == http.StatusNotFound:
		return result, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	case resp.StatusCode >= http.StatusInternalServerError:
		return result, fmt.Errorf("%w: status %d: %s", domain.ErrTransport, resp.StatusCode, decoded.Error)
	case resp.StatusCode >= http.StatusBadRequest && resp.StatusCode != http.StatusConflict:
		return result, fmt.Errorf("%w: status %d: %s", domain.ErrValidation, resp.StatusCode, decoded.Error)
	default:
		return result, nil
	}
}
