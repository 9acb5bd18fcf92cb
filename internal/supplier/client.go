package supplier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zidir/medcom-backend/pkg/config"
	"github.com/zidir/medcom-backend/pkg/logger"
)

// Result is the outcome of a single availability probe. Available stays nil
// when the supplier answered without a usable availability flag. Placeholder
// marks results produced locally while the supplier API is disabled.
type Result struct {
	Available   *bool
	Placeholder bool
	Error       string
}

// Client checks product availability at the wholesale supplier.
type Client interface {
	CheckAvailability(ctx context.Context, productCode string) Result
}

// New selects the real HTTP client or the placeholder generator depending on
// whether the supplier integration is enabled.
func New(cfg config.SupplierAPIConfig, logg *logger.Logger) (Client, error) {
	if !cfg.Enabled {
		return &placeholderClient{rand: rand.New(rand.NewSource(time.Now().UnixNano()))}, nil
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("supplier api base url is required when enabled")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid supplier api base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logg:    logg,
	}, nil
}

// placeholderClient fabricates availability locally so the rest of the
// pipeline can run without supplier credentials.
type placeholderClient struct {
	rand *rand.Rand
}

func (c *placeholderClient) CheckAvailability(ctx context.Context, productCode string) Result {
	available := c.rand.Intn(2) == 0
	return Result{Available: &available, Placeholder: true}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	logg    *logger.Logger
}

type availabilityResponse struct {
	Available *bool `json:"available"`
}

// CheckAvailability performs GET {baseUrl}/products/{code}/availability.
// Transport failures and non-2xx statuses degrade to unavailable with the
// error recorded instead of propagating, so one flaky probe never aborts a
// monitor cycle.
func (c *httpClient) CheckAvailability(ctx context.Context, productCode string) Result {
	endpoint := fmt.Sprintf("%s/products/%s/availability", c.baseURL, url.PathEscape(productCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return unavailable(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if c.logg != nil {
			c.logg.Warn(ctx, fmt.Sprintf("supplier availability request failed: %v", err))
		}
		return unavailable(fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return unavailable(fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	var body availabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return unavailable(fmt.Sprintf("decode response: %v", err))
	}

	// A 2xx answer without the availability flag is treated as unknown.
	return Result{Available: body.Available}
}

func unavailable(reason string) Result {
	available := false
	return Result{Available: &available, Error: reason}
}
