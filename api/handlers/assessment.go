package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/chetak-health/chetak-api/api"
	"github.com/chetak-health/chetak-api/config"
	"github.com/chetak-health/chetak-api/geo"
	"github.com/chetak-health/chetak-api/models"
	"github.com/chetak-health/chetak-api/recommend"
	"github.com/chetak-health/chetak-api/triage"
)

// Assessment serves patient assessments
type Assessment struct {
	Service    *recommend.Service
	Classifier triage.Classifier
}

// CreateAssessmentHandler classifies the patient's condition and recommends a hospital
func (a Assessment) CreateAssessmentHandler(w http.ResponseWriter, r *http.Request) {
	var input models.PatientInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}

	rec, err := a.Service.Assess(r.Context(), input)
	switch {
	case errors.Is(err, recommend.ErrInputAmbiguous):
		config.ErrorStatus("input is ambiguous", http.StatusUnprocessableEntity, w, err)
		return
	case errors.Is(err, geo.ErrInvalidCoordinate):
		config.ErrorStatus("invalid location", http.StatusBadRequest, w, err)
		return
	case err != nil:
		config.ErrorStatus("failed to assess patient", http.StatusInternalServerError, w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, rec)
}

// NeedsHandler only classifies the condition
func (a Assessment) NeedsHandler(w http.ResponseWriter, r *http.Request) {
	var input models.PatientInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}
	if strings.TrimSpace(input.ConditionCategory) == "" && strings.TrimSpace(input.FreeTextDetails) == "" {
		config.ErrorStatus("input is ambiguous", http.StatusUnprocessableEntity, w, recommend.ErrInputAmbiguous)
		return
	}
	api.WriteJSON(w, http.StatusOK, a.Classifier.Classify(r.Context(), input))
}
