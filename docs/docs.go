// Package docs Chetak Emergency API.
//
// Documentation of the Chetak emergency hospital matching API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//     Host: https://chetak-api.herokuapp.com
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - bearer
//
//    SecurityDefinitions:
//    bearer:
//      type: apiKey
//      name: Authorization
//      in: header
//
// swagger:meta
package docs

import (
	"github.com/chetak-health/chetak-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route POST /api/v1/assessments assessment createAssessment
// Classifies a patient's condition and recommends the nearest suitable hospital.
// responses:
//   200: assessmentResponse
//   400: errorResponse
//   422: errorResponse

// swagger:parameters createAssessment
type assessmentParamsWrapper struct {
	// in:body
	Body models.PatientInput
}

// The recommendation with the best hospital, alternatives and a route.
// swagger:response assessmentResponse
type assessmentResponseWrapper struct {
	// in:body
	Body models.Recommendation
}

// swagger:route POST /api/v1/needs assessment classifyNeeds
// Classifies a patient's condition without looking up hospitals.
// responses:
//   200: needsResponse
//   422: errorResponse

// The medical needs derived from the condition.
// swagger:response needsResponse
type needsResponseWrapper struct {
	// in:body
	Body models.MedicalNeeds
}

// swagger:route GET /api/find-suitable hospital findSuitable
// Lists hospitals near a point that meet the ICU, specialist and equipment filters.
// responses:
//   200: suitableResponse
//   400: errorResponse
//   503: errorResponse

// swagger:parameters findSuitable
type findSuitableParamsWrapper struct {
	// in:query
	// required: true
	Lat float64 `json:"lat"`
	// in:query
	// required: true
	Lon float64 `json:"lon"`
	// in:query
	NeedsICU bool `json:"needsICU"`
	// in:query
	Specialist string `json:"specialist"`
	// in:query
	Equipment []string `json:"equipment"`
}

// Suitable hospitals, nearest first.
// swagger:response suitableResponse
type suitableResponseWrapper struct {
	// in:body
	Body []models.RankedHospital
}

// swagger:route GET /api/hospital/profile hospital hospitalProfile
// Returns the authenticated hospital.
// security:
//   bearer: []
// responses:
//   200: hospitalResponse
//   401: errorResponse

// A hospital account.
// swagger:response hospitalResponse
type hospitalResponseWrapper struct {
	// in:body
	Body models.Hospital
}

// An error message.
// swagger:response errorResponse
type errorResponseWrapper struct {
	// in:body
	Body models.ErrorMessageResponse
}
