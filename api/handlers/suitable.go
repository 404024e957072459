package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/chetak-health/chetak-api/api"
	"github.com/chetak-health/chetak-api/config"
	"github.com/chetak-health/chetak-api/databases"
	"github.com/chetak-health/chetak-api/geo"
	"github.com/chetak-health/chetak-api/models"
	"github.com/chetak-health/chetak-api/ranking"
)

// Suitable serves the server side hospital search
type Suitable struct {
	DB           databases.HospitalDatabase
	Policy       ranking.Policy
	RadiusMeters float64
	Limit        int64
}

// FindSuitableHandler returns hospitals near lat/lon that pass the optional ICU,
// specialist and equipment filters, nearest first.
func (s Suitable) FindSuitableHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	origin := geo.Coordinate{Latitude: lat, Longitude: lon}
	if errLat != nil || errLon != nil {
		config.ErrorStatus("lat and lon are required", http.StatusBadRequest, w, geo.ErrInvalidCoordinate)
		return
	}
	if err := origin.Validate(); err != nil {
		config.ErrorStatus("lat or lon out of range", http.StatusBadRequest, w, err)
		return
	}

	needs := models.MedicalNeeds{NeedsSpecialist: strings.ToLower(strings.TrimSpace(q.Get("specialist")))}
	if v := q.Get("needsICU"); v != "" {
		icu, err := strconv.ParseBool(v)
		if err != nil {
			config.ErrorStatus("needsICU must be true or false", http.StatusBadRequest, w, err)
			return
		}
		needs.NeedsICU = icu
	}
	for _, e := range q["equipment"] {
		if e = strings.TrimSpace(e); e != "" {
			needs.RequiredEquipment = append(needs.RequiredEquipment, e)
		}
	}

	if s.DB == nil {
		config.ErrorStatus("Database service unavailable. Please try again later.", http.StatusServiceUnavailable, w, errors.New("no database connection"))
		return
	}

	zap.S().Infow("find suitable hospitals",
		"lat", lat,
		"lon", lon,
		"needsICU", needs.NeedsICU,
		"specialist", needs.NeedsSpecialist,
		"equipment", needs.RequiredEquipment)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	ranked, err := s.DB.FindSuitable(ctx, databases.SuitabilityQuery{
		Origin:       origin,
		Needs:        needs,
		Policy:       s.Policy,
		RadiusMeters: s.RadiusMeters,
		Limit:        s.Limit,
	})
	if err != nil {
		if isUnavailable(err) {
			config.ErrorStatus("Database service unavailable. Please try again later.", http.StatusServiceUnavailable, w, err)
			return
		}
		config.ErrorStatus("Database query error", http.StatusInternalServerError, w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, ranked)
}

func isUnavailable(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, mongo.ErrClientDisconnected) ||
		mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}
