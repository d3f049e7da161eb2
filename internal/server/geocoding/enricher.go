package geocoding

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/seichilog/seichilog/internal/logging"
	"github.com/seichilog/seichilog/internal/server/metrics"
	"github.com/seichilog/seichilog/internal/server/models"
)

// Resolver resolves a free-text location. *Client satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, text string) (*Result, error)
}

// Enricher attaches coordinates to report submissions.
type Enricher struct {
	resolver Resolver
	logger   logging.Logger
}

func NewEnricher(resolver Resolver, logger logging.Logger) *Enricher {
	return &Enricher{resolver: resolver, logger: logger}
}

// EnrichAll geocodes every report lacking coordinates, concurrently. Reports
// that already carry both coordinates are left untouched without an external
// call, so re-edits never re-geocode. A miss or failure for one report is
// logged and leaves that report's coordinates nil; it never delays or fails
// the others.
func (e *Enricher) EnrichAll(ctx context.Context, reports []*models.ReportSubmission) {
	g, gctx := errgroup.WithContext(ctx)

	for _, rep := range reports {
		if rep.Latitude != nil && rep.Longitude != nil {
			metrics.GeocodeRequestsTotal.WithLabelValues("cached").Inc()
			continue
		}

		rep := rep
		g.Go(func() error {
			res, err := e.resolver.Resolve(gctx, rep.Location)
			if err != nil {
				metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
				e.logger.Warn(gctx, "geocoding failed", "location", rep.Location, "error", err.Error())
				return nil
			}
			if res == nil {
				metrics.GeocodeRequestsTotal.WithLabelValues("miss").Inc()
				e.logger.Warn(gctx, "geocoding returned no result", "location", rep.Location)
				return nil
			}

			metrics.GeocodeRequestsTotal.WithLabelValues("hit").Inc()
			rep.Latitude = &res.Latitude
			rep.Longitude = &res.Longitude
			rep.GeocodedAddress = &res.Address
			return nil
		})
	}

	// workers only ever return nil; failures are per-report warnings
	_ = g.Wait()
}
