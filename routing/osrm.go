package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/chetak-health/chetak-api/geo"
	"github.com/chetak-health/chetak-api/observability"
)

const (
	// DefaultOSRMURL is the public OSRM demo server
	DefaultOSRMURL     = "https://router.project-osrm.org"
	defaultHTTPTimeout = 10 * time.Second
	maxBodyBytes       = 4 << 20
)

// OSRMClient implements Provider against an OSRM HTTP server
type OSRMClient struct {
	baseURL string
	hc      *http.Client
	rl      *rate.Limiter
	group   singleflight.Group
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Geometry geo.LineString `json:"geometry"`
		Distance float64        `json:"distance"`
		Duration float64        `json:"duration"`
	} `json:"routes"`
}

// NewOSRMClient creates an OSRM client. rps <= 0 disables client side rate limiting and a
// nil httpClient gets a default with a 10s timeout.
func NewOSRMClient(baseURL string, rps float64, httpClient *http.Client) *OSRMClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultOSRMURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	limit := rate.Inf
	burst := 0
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = int(rps) + 1
	}
	return &OSRMClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      httpClient,
		rl:      rate.NewLimiter(limit, burst),
	}
}

// Route implements the Provider interface. Identical lookups in flight at the same time
// share one request. The shared request is not tied to any one caller's deadline; each
// caller stops waiting when its own context ends.
func (c *OSRMClient) Route(ctx context.Context, from, to geo.Coordinate) (*Route, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.baseURL, from.Longitude, from.Latitude, to.Longitude, to.Latitude)

	ch := c.group.DoChan(url, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout())
		defer cancel()
		return c.fetch(fctx, url)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Route), nil
	}
}

func (c *OSRMClient) fetchTimeout() time.Duration {
	if c.hc.Timeout > 0 {
		return c.hc.Timeout
	}
	return defaultHTTPTimeout
}

func (c *OSRMClient) fetch(ctx context.Context, url string) (*Route, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, fmt.Errorf("osrm rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build osrm request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("osrm", "route", 0, time.Since(start))
		return nil, fmt.Errorf("osrm request failed: %w", err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("osrm", "route", resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read osrm response: %w", err)
	}

	var decoded osrmResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("osrm returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to decode osrm response: %w", err)
	}

	// OSRM answers NoRoute/NoSegment with a 400 and a code in the body
	if decoded.Code == "NoRoute" || decoded.Code == "NoSegment" {
		return nil, ErrNoRoute
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("osrm returned status %d: %s %s", resp.StatusCode, decoded.Code, decoded.Message)
	}
	if decoded.Code != "Ok" || len(decoded.Routes) == 0 {
		return nil, ErrNoRoute
	}

	r := decoded.Routes[0]
	if len(r.Geometry.Coordinates) < 2 {
		return nil, ErrNoRoute
	}
	return &Route{
		Geometry:        r.Geometry,
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
	}, nil
}
