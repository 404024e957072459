// Package routing fetches driving routes between a patient and a hospital.
package routing

import (
	"context"
	"errors"

	"github.com/chetak-health/chetak-api/geo"
)

// ErrNoRoute is returned when the provider answered but found no route
var ErrNoRoute = errors.New("routing: no route found")

// Route is a driving route as reported by the provider
type Route struct {
	Geometry        geo.LineString `json:"geometry"`
	DistanceMeters  float64        `json:"distanceMeters"`
	DurationSeconds float64        `json:"durationSeconds"`
}

// Provider defines the interface for routing services
type Provider interface {
	// Route returns the driving route from one coordinate to another
	Route(ctx context.Context, from, to geo.Coordinate) (*Route, error)
}
