package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"market-delivery-service/internal/domain"
	"market-delivery-service/internal/platform/obs"
	"market-delivery-service/internal/ports"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://api.openrouteservice.org"

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ORSGeocoder implements ports.Geocoder using OpenRouteService
// (/geocode/search). Results are read from and written to an optional
// persistent cache keyed by the whitespace-normalized address.
//
// The geocoder is safe for concurrent use.
type ORSGeocoder struct {
	session        *http.Client
	apiKey         string
	baseURL        string
	country        string
	cache          ports.GeocodeCache
	limiter        *rate.Limiter
	metrics        *obs.Metrics
	initialBackoff time.Duration
}

type Option func(*ORSGeocoder)

func WithBaseURL(u string) Option {
	return func(o *ORSGeocoder) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithCountry restricts results to an ISO 3166 country code, e.g. "TZ".
func WithCountry(code string) Option {
	return func(o *ORSGeocoder) { o.country = strings.TrimSpace(code) }
}

func WithCache(c ports.GeocodeCache) Option {
	return func(o *ORSGeocoder) { o.cache = c }
}

// WithRateLimit throttles outbound requests to stay inside the ORS quota.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *ORSGeocoder) { o.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

func WithMetrics(m *obs.Metrics) Option {
	return func(o *ORSGeocoder) { o.metrics = m }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *ORSGeocoder) { o.session = c }
}

func NewORSGeocoder(apiKey string, opts ...Option) (*ORSGeocoder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	g := &ORSGeocoder{
		session:        &http.Client{Timeout: 10 * time.Second},
		apiKey:         apiKey,
		baseURL:        DefaultBaseURL,
		initialBackoff: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Geocode resolves a free-form address to coordinates. Unknown addresses fail
// with ports.ErrAddressNotFound.
func (o *ORSGeocoder) Geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	norm := normalize(address)
	if norm == "" {
		return domain.Coordinates{}, errors.New("geocode: address must be non-empty")
	}

	if o.cache != nil {
		cached, err := o.cache.GetMany(ctx, []string{norm})
		if err != nil {
			slog.WarnContext(ctx, "geocode cache read failed", "req_id", obs.RequestID(ctx), "err", err)
		} else if c, ok := cached[norm]; ok {
			o.metrics.RecordGeocode("cached")
			return c, nil
		}
	}

	c, err := o.search(ctx, norm)
	if err != nil {
		if errors.Is(err, ports.ErrAddressNotFound) {
			o.metrics.RecordGeocode("not_found")
		} else {
			o.metrics.RecordGeocode("error")
		}
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", norm, err)
	}
	o.metrics.RecordGeocode("ok")

	if o.cache != nil {
		if err := o.cache.PutMany(ctx, map[string]domain.Coordinates{norm: c}); err != nil {
			slog.WarnContext(ctx, "geocode cache write failed", "req_id", obs.RequestID(ctx), "err", err)
		}
	}
	return c, nil
}

func (o *ORSGeocoder) search(ctx context.Context, norm string) (domain.Coordinates, error) {
	endpoint := o.baseURL + "/geocode/search"

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodGet, endpoint)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		if o.country != "" {
			q.Set("boundary.country", o.country)
		}
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinates{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, ports.ErrAddressNotFound
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, errors.New("invalid coordinate format")
	}

	// ORS returns [lon, lat].
	c, err := domain.NewCoordinates(coords[1], coords[0])
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode result out of range: %v", err)
	}
	return c, nil
}
