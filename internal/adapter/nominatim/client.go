package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/sunsettings/internal/domain"
	"github.com/couchcryptid/sunsettings/internal/observability"
)

const upstream = "nominatim"

// Client implements domain.Geocoder using the Nominatim reverse geocoding API.
type Client struct {
	userAgent  string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim client. Nominatim's usage policy requires an
// identifying User-Agent.
func NewClient(baseURL, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// ReverseGeocode converts coordinates to a short place label.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Place, error) {
	params := url.Values{
		"format":         {"jsonv2"},
		"lat":            {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', 6, 64)},
		"zoom":           {"10"},
		"addressdetails": {"1"},
	}

	start := time.Now()
	place, err := c.doRequest(ctx, c.baseURL+"/reverse?"+params.Encode())
	c.metrics.UpstreamDuration.WithLabelValues(upstream).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamErrors.WithLabelValues(upstream).Inc()
		c.logger.Warn("reverse geocode failed", "lat", lat, "lon", lon, "error", err)
		return domain.Place{}, err
	}
	return place, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.Place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Place{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Place{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Place{}, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return domain.Place{}, fmt.Errorf("decode response: %w", err)
	}
	// Unknown coordinates (open sea) come back as {"error": "Unable to geocode"}.
	if r.Error != "" {
		return domain.Place{}, nil
	}
	return r.toPlace(), nil
}

// Nominatim API response types.

type response struct {
	DisplayName string  `json:"display_name"`
	Address     address `json:"address"`
	Error       string  `json:"error"`
}

type address struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	County       string `json:"county"`
	State        string `json:"state"`
	CountryCode  string `json:"country_code"`
}

// locality picks the most specific settlement name.
func (a address) locality() string {
	for _, name := range []string{a.City, a.Town, a.Village, a.Municipality, a.County, a.State} {
		if name != "" {
			return name
		}
	}
	return ""
}

func (r response) toPlace() domain.Place {
	cc := strings.ToUpper(r.Address.CountryCode)
	label := r.Address.locality()
	switch {
	case label == "":
		label = r.DisplayName
	case cc != "":
		label += ", " + cc
	}
	return domain.Place{
		Label:       label,
		DisplayName: r.DisplayName,
		CountryCode: cc,
	}
}
