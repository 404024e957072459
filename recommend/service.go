package recommend

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chetak-health/chetak-api/directory"
	"github.com/chetak-health/chetak-api/geo"
	"github.com/chetak-health/chetak-api/models"
	"github.com/chetak-health/chetak-api/observability"
	"github.com/chetak-health/chetak-api/ranking"
	"github.com/chetak-health/chetak-api/triage"
)

// ErrInputAmbiguous is returned when the patient gave neither a category nor any details
var ErrInputAmbiguous = errors.New("please select a condition or describe the emergency")

// Service runs a complete assessment for one patient
type Service struct {
	Classifier triage.Classifier
	Directory  directory.Directory
	Ranker     ranking.Ranker
	Presenter  Presenter
}

// Assess classifies the input, ranks the directory and presents the result. A missing
// location falls back to geo.DefaultOrigin. Directory failures degrade to a no match
// result rather than an error.
func (s *Service) Assess(ctx context.Context, input models.PatientInput) (models.Recommendation, error) {
	if strings.TrimSpace(input.ConditionCategory) == "" && strings.TrimSpace(input.FreeTextDetails) == "" {
		return models.Recommendation{}, ErrInputAmbiguous
	}

	origin := geo.DefaultOrigin
	if input.Location != nil {
		if err := input.Location.Validate(); err != nil {
			return models.Recommendation{}, err
		}
		origin = *input.Location
	}

	id := uuid.New().String()
	log := zap.S().With("assessment", id)

	needs := s.Classifier.Classify(ctx, input)

	hospitals, err := s.Directory.FindCandidates(ctx)
	if err != nil {
		log.Errorw("hospital directory unavailable, treating as empty", "error", err)
		hospitals = nil
	}

	ranked := s.Ranker.Rank(origin, needs, hospitals)
	rec := s.Presenter.Present(ctx, origin, needs, ranked)
	rec.AssessmentID = id

	observability.ObserveAssessment(rec.Status, needs.UrgencyLevel)
	log.Infow("assessment complete",
		"category", triage.NormalizeCategory(input.ConditionCategory),
		"urgency", needs.UrgencyLevel,
		"specialist", needs.NeedsSpecialist,
		"status", rec.Status,
		"candidates", len(ranked))
	return rec, nil
}
