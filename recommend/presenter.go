// Package recommend turns a ranked hospital list into the recommendation shown to a
// patient and glues classification, ranking and presentation into one assessment.
package recommend

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/chetak-health/chetak-api/geo"
	"github.com/chetak-health/chetak-api/models"
	"github.com/chetak-health/chetak-api/routing"
)

const (
	// DefaultRouteTimeout bounds the routing provider call
	DefaultRouteTimeout = 10 * time.Second
	// DefaultEmergencyContact is the helpline returned when nothing matched
	DefaultEmergencyContact = "8329227255"

	noMatchMessage = "We could not find a hospital matching the specific needs based on available data and your location. Please call the emergency helpline immediately."
)

// Presenter builds recommendations. A nil Routes always produces a straight-line route.
type Presenter struct {
	Routes           routing.Provider
	RouteTimeout     time.Duration
	EmergencyContact string
}

// Present builds the recommendation for an already ranked list. The ranked order is
// kept as is; index 0 is the best match.
func (p Presenter) Present(ctx context.Context, origin geo.Coordinate, needs models.MedicalNeeds, ranked []models.RankedHospital) models.Recommendation {
	rec := models.Recommendation{
		Needs:        needs,
		UrgencyLabel: needs.UrgencyLabel(),
		Origin:       origin,
		Alternatives: []models.RecommendedHospital{},
	}

	if len(ranked) == 0 {
		rec.Status = models.StatusNoMatch
		rec.Message = noMatchMessage
		rec.EmergencyContact = p.emergencyContact()
		return rec
	}

	rec.Status = models.StatusMatched
	rec.Best = &models.RecommendedHospital{RankedHospital: ranked[0], Role: models.RoleBest}
	for _, r := range ranked[1:] {
		rec.Alternatives = append(rec.Alternatives, models.RecommendedHospital{RankedHospital: r, Role: models.RoleAlternative})
	}
	rec.Route = p.route(ctx, origin, ranked[0])
	return rec
}

func (p Presenter) route(ctx context.Context, origin geo.Coordinate, best models.RankedHospital) *models.Route {
	dest := best.Coordinate()
	fallback := &models.Route{
		Geometry:   geo.StraightLine(origin, dest),
		DistanceKm: round2(geo.DistanceKm(origin, dest)),
		Fallback:   true,
	}
	if p.Routes == nil {
		return fallback
	}

	timeout := p.RouteTimeout
	if timeout <= 0 {
		timeout = DefaultRouteTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r, err := p.Routes.Route(ctx, origin, dest)
	if err != nil {
		if errors.Is(err, routing.ErrNoRoute) {
			zap.S().Infow("no driving route, using straight line", "hospital", best.Name)
		} else {
			zap.S().Warnw("routing provider failed, using straight line", "hospital", best.Name, "error", err)
		}
		return fallback
	}
	if r == nil || len(r.Geometry.Coordinates) < 2 {
		zap.S().Warnw("routing provider returned no geometry, using straight line", "hospital", best.Name)
		return fallback
	}

	return &models.Route{
		Geometry:        r.Geometry,
		DistanceKm:      round2(r.DistanceMeters / 1000),
		DurationMinutes: math.Round(r.DurationSeconds / 60),
	}
}

func (p Presenter) emergencyContact() string {
	if p.EmergencyContact == "" {
		return DefaultEmergencyContact
	}
	return p.EmergencyContact
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
