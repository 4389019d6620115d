// Package osrm calculates road routes with an OSRM-compatible HTTP service.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"routeopt/internal/core/domain/model/kernel"
	"routeopt/internal/core/domain/model/routing"
	"routeopt/internal/pkg/errs"

	"github.com/golang/geo/s2"
)

const (
	serviceName    = "routing"
	defaultTimeout = 10 * time.Second
	defaultProfile = "driving"
)

type Options struct {
	BaseURL string
	Profile string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	profile string
	http    *http.Client
}

func NewClient(opts Options) *Client {
	if opts.Profile == "" {
		opts.Profile = defaultProfile
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		profile: opts.Profile,
		http:    &http.Client{Timeout: opts.Timeout},
	}
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Legs     []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
			Steps    []struct {
				Geometry struct {
					Coordinates [][2]float64 `json:"coordinates"`
				} `json:"geometry"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// Calculate requests one route through all points of the request. Any
// transport or service failure is returned as errs.UpstreamUnavailableError.
func (c *Client) Calculate(ctx context.Context, request routing.Request) (routing.Route, error) {
	if err := request.Validate(); err != nil {
		return routing.Route{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.routeURL(request), nil)
	if err != nil {
		return routing.Route{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return routing.Route{}, errs.NewUpstreamUnavailableError(serviceName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return routing.Route{}, errs.NewUpstreamUnavailableError(serviceName, err)
	}

	var decoded routeResponse
	if err = json.Unmarshal(body, &decoded); err != nil {
		return routing.Route{}, errs.NewUpstreamUnavailableError(serviceName,
			fmt.Errorf("status %d: %w", resp.StatusCode, err))
	}
	if resp.StatusCode != http.StatusOK || decoded.Code != "Ok" || len(decoded.Routes) == 0 {
		return routing.Route{}, errs.NewUpstreamUnavailableError(serviceName,
			fmt.Errorf("status %d, code %q: %s", resp.StatusCode, decoded.Code, decoded.Message))
	}

	return toRoute(request, decoded), nil
}

func (c *Client) routeURL(request routing.Request) string {
	coords := make([]string, 0, len(request.Waypoints)+2)
	for _, p := range request.Points() {
		coords = append(coords,
			strconv.FormatFloat(p.Lon(), 'f', -1, 64)+","+strconv.FormatFloat(p.Lat(), 'f', -1, 64))
	}

	query := url.Values{}
	query.Set("overview", "false")
	query.Set("steps", "true")
	query.Set("geometries", "geojson")
	if request.AvoidTolls {
		query.Set("exclude", "toll")
	}

	return fmt.Sprintf("%s/route/v1/%s/%s?%s", c.baseURL, c.profile, strings.Join(coords, ";"), query.Encode())
}

func toRoute(request routing.Request, decoded routeResponse) routing.Route {
	best := decoded.Routes[0]
	route := routing.Route{
		Legs:       make([]routing.Leg, 0, len(best.Legs)),
		DistanceKm: best.Distance / 1000,
		Duration:   int64(best.Duration),
		BBox:       kernel.NewBoundingBox(request.Points()...),
	}

	for _, leg := range best.Legs {
		path := make([]s2.LatLng, 0)
		for _, step := range leg.Steps {
			for _, coord := range step.Geometry.Coordinates {
				ll := s2.LatLngFromDegrees(coord[1], coord[0])
				if n := len(path); n > 0 && path[n-1] == ll {
					continue
				}
				path = append(path, ll)
				route.BBox = route.BBox.Extend(ll)
			}
		}

		route.Legs = append(route.Legs, routing.Leg{
			DistanceKm: leg.Distance / 1000,
			Duration:   int64(leg.Duration),
			Path:       path,
		})
	}

	return route
}
