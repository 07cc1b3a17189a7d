package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"market-delivery-service/internal/domain"
	"market-delivery-service/internal/platform/obs"
	"slices"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Resolution outcomes reported to metrics.
const (
	OutcomeZone        = "zone"
	OutcomeFallback    = "fallback"
	OutcomeUnavailable = "unavailable"
	OutcomeNotFound    = "not_found"
	OutcomeInvalid     = "invalid"
	OutcomeError       = "error"
)

const (
	defaultMinDeliveryMinutes = 30
	defaultMinutesPerKm       = 3.0
)

// DeliveryService composes zone resolution, fee calculation and nearest-market
// search over an immutable configuration snapshot. It holds no mutable state
// and is safe for concurrent use.
type DeliveryService struct {
	minDeliveryMinutes int
	minutesPerKm       float64
	metrics            *obs.Metrics
	tracer             trace.Tracer
}

type DeliveryOption func(*DeliveryService)

// WithEstimate sets the travel-time estimate used when a zone has none:
// minMinutes + distance*minutesPerKm.
func WithEstimate(minMinutes int, minutesPerKm float64) DeliveryOption {
	return func(s *DeliveryService) {
		s.minDeliveryMinutes = minMinutes
		s.minutesPerKm = minutesPerKm
	}
}

func WithMetrics(m *obs.Metrics) DeliveryOption {
	return func(s *DeliveryService) { s.metrics = m }
}

func NewDeliveryService(opts ...DeliveryOption) *DeliveryService {
	s := &DeliveryService{
		minDeliveryMinutes: defaultMinDeliveryMinutes,
		minutesPerKm:       defaultMinutesPerKm,
		tracer:             otel.Tracer(obs.TracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve the zone and fee for point in the given market.
//
// Errors: domain.ErrInvalidCoordinate or domain.ErrInvalidOrderTotal for bad
// input, domain.ErrMarketNotFound for unknown or inactive markets, and
// domain.ErrUnavailableZone when the market cannot deliver to point.
func (s *DeliveryService) ResolveDelivery(
	ctx context.Context,
	snap *domain.Snapshot,
	marketID int64,
	point domain.Coordinates,
	orderTotal decimal.Decimal,
) (res domain.Resolution, err error) {
	_, span := s.tracer.Start(ctx, "delivery.resolve", trace.WithAttributes(
		attribute.Int64("market.id", marketID),
	))
	defer func() {
		s.finish(span, err, res)
		span.End()
	}()

	if err := validateRequest(point, orderTotal); err != nil {
		return domain.Resolution{}, fmt.Errorf("resolve delivery: %w", err)
	}
	if snap == nil {
		return domain.Resolution{}, errors.New("resolve delivery: snapshot is nil")
	}

	market, err := snap.Market(marketID)
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("resolve delivery: %w", err)
	}

	res, err = s.resolve(market, point, orderTotal)
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("resolve delivery: %w", err)
	}
	return res, nil
}

// Find the nearest active market to point.
func (s *DeliveryService) FindNearest(
	ctx context.Context,
	point domain.Coordinates,
	markets []*domain.Market,
) (domain.NearestResult, error) {
	_, span := s.tracer.Start(ctx, "delivery.find_nearest", trace.WithAttributes(
		attribute.Int("markets.count", len(markets)),
	))
	defer span.End()

	if err := point.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.NearestResult{}, fmt.Errorf("find nearest: %w", err)
	}

	m, d, ok := NearestMarket(point, markets)
	if !ok {
		span.SetStatus(codes.Error, domain.ErrNoMarketsAvailable.Error())
		return domain.NearestResult{}, fmt.Errorf("find nearest: %w", domain.ErrNoMarketsAvailable)
	}

	span.SetAttributes(attribute.Int64("market.id", m.ID), attribute.Float64("distance_km", d))
	return domain.NearestResult{Market: m, DistanceKm: d}, nil
}

// Quote every active market that can deliver to point, cheapest first.
// Ties go to the shorter distance, then the lower market id. Markets that
// cannot deliver to point, including those out of range, are left out, so the
// result may be empty. Fails with domain.ErrNoMarketsAvailable when the
// snapshot has no active markets.
func (s *DeliveryService) QuoteMarkets(
	ctx context.Context,
	snap *domain.Snapshot,
	point domain.Coordinates,
	orderTotal decimal.Decimal,
) (_ []domain.Resolution, err error) {
	_, span := s.tracer.Start(ctx, "delivery.quote_markets")
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	quotes, err := s.quoteMarkets(snap, point, orderTotal)
	if err != nil {
		return nil, fmt.Errorf("quote markets: %w", err)
	}
	span.SetAttributes(attribute.Int("quotes.count", len(quotes)))
	return quotes, nil
}

// Return the cheapest deliverable market for point, ranked as in QuoteMarkets.
func (s *DeliveryService) QuoteBestMarket(
	ctx context.Context,
	snap *domain.Snapshot,
	point domain.Coordinates,
	orderTotal decimal.Decimal,
) (best domain.Resolution, err error) {
	_, span := s.tracer.Start(ctx, "delivery.best_quote")
	defer func() {
		s.finish(span, err, best)
		span.End()
	}()

	quotes, err := s.quoteMarkets(snap, point, orderTotal)
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("best quote: %w", err)
	}
	if len(quotes) == 0 {
		return domain.Resolution{}, fmt.Errorf("best quote: %w: no market delivers to %v", domain.ErrUnavailableZone, point)
	}
	return quotes[0], nil
}

func (s *DeliveryService) quoteMarkets(
	snap *domain.Snapshot,
	point domain.Coordinates,
	orderTotal decimal.Decimal,
) ([]domain.Resolution, error) {
	if err := validateRequest(point, orderTotal); err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, errors.New("snapshot is nil")
	}

	markets := snap.ActiveMarkets()
	if len(markets) == 0 {
		return nil, domain.ErrNoMarketsAvailable
	}

	quotes := make([]domain.Resolution, 0, len(markets))
	for _, m := range markets {
		r, err := s.resolve(m, point, orderTotal)
		if errors.Is(err, domain.ErrUnavailableZone) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("market %d: %w", m.ID, err)
		}
		quotes = append(quotes, r)
	}

	slices.SortFunc(quotes, compareQuotes)
	return quotes, nil
}

// compareQuotes orders by fee, then distance within distanceTieEpsilonKm,
// then market id.
func compareQuotes(a, b domain.Resolution) int {
	if c := a.Fee.Cmp(b.Fee); c != 0 {
		return c
	}
	if a.DistanceKm < b.DistanceKm-distanceTieEpsilonKm {
		return -1
	}
	if b.DistanceKm < a.DistanceKm-distanceTieEpsilonKm {
		return 1
	}
	return cmp.Compare(a.MarketID, b.MarketID)
}

func (s *DeliveryService) resolve(market *domain.Market, point domain.Coordinates, orderTotal decimal.Decimal) (domain.Resolution, error) {
	if d := domain.Distance(market.Location, point); !market.WithinRange(d) {
		return domain.Resolution{}, fmt.Errorf(
			"%w: %.2f km exceeds market %d delivery range of %.2f km",
			domain.ErrUnavailableZone, d, market.ID, market.MaxDeliveryKm,
		)
	}

	zone, dist := ResolveZone(market, point)

	breakdown, err := ComputeFee(market, zone, dist, orderTotal)
	if err != nil {
		return domain.Resolution{}, err
	}

	return domain.Resolution{
		MarketID:         market.ID,
		MarketName:       market.Name,
		Zone:             zone,
		DistanceKm:       dist,
		Fee:              breakdown.Total,
		Breakdown:        breakdown,
		Fallback:         zone == nil,
		EstimatedMinutes: s.estimateMinutes(zone, dist),
	}, nil
}

func (s *DeliveryService) estimateMinutes(zone *domain.Zone, distanceKm float64) int {
	if zone != nil && zone.EstimatedMinutes > 0 {
		return zone.EstimatedMinutes
	}
	return s.minDeliveryMinutes + int(distanceKm*s.minutesPerKm)
}

func validateRequest(point domain.Coordinates, orderTotal decimal.Decimal) error {
	if err := point.Validate(); err != nil {
		return err
	}
	if orderTotal.IsNegative() {
		return fmt.Errorf("%w: %s is negative", domain.ErrInvalidOrderTotal, orderTotal)
	}
	return nil
}

// finish records the outcome on the span and in metrics.
func (s *DeliveryService) finish(span trace.Span, err error, res domain.Resolution) {
	outcome := outcomeOf(err, res)
	s.metrics.RecordResolution(outcome)
	span.SetAttributes(attribute.String("delivery.outcome", outcome))

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(
		attribute.Int64("market.id", res.MarketID),
		attribute.Float64("distance_km", res.DistanceKm),
		attribute.String("fee", res.Fee.StringFixed(feeScale)),
	)
	if res.Zone != nil {
		span.SetAttributes(attribute.Int64("zone.id", res.Zone.ID))
	}
}

func outcomeOf(err error, res domain.Resolution) string {
	switch {
	case err == nil && res.Fallback:
		return OutcomeFallback
	case err == nil:
		return OutcomeZone
	case errors.Is(err, domain.ErrUnavailableZone):
		return OutcomeUnavailable
	case errors.Is(err, domain.ErrMarketNotFound), errors.Is(err, domain.ErrNoMarketsAvailable):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrInvalidCoordinate), errors.Is(err, domain.ErrInvalidOrderTotal):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}
