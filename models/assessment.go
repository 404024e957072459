package models

import "github.com/chetak-health/chetak-api/geo"

// Condition categories a patient can select
const (
	ConditionCardiac  = "cardiac"
	ConditionStroke   = "stroke"
	ConditionAccident = "accident"
	ConditionAllergy  = "allergy"
	ConditionLabor    = "labor"
	ConditionOther    = "other"
)

// Urgency bounds
const (
	MinUrgency = 1
	MaxUrgency = 5
)

var urgencyLabels = []string{"Low", "Moderate", "High", "Very High", "Critical"}

// PatientInput is what the patient-facing client collects for one assessment
type PatientInput struct {
	ConditionCategory string          `json:"conditionCategory"`
	FreeTextDetails   string          `json:"freeTextDetails"`
	Location          *geo.Coordinate `json:"location,omitempty"`
}

// MedicalNeeds is the structured assessment derived from a patient's condition
type MedicalNeeds struct {
	NeedsICU          bool     `json:"needsICU"`
	NeedsSpecialist   string   `json:"needsSpecialist,omitempty"`
	UrgencyLevel      int      `json:"urgencyLevel"`
	RequiredEquipment []string `json:"requiredEquipment"`
	ConditionLabel    string   `json:"conditionLabel"`
}

// UrgencyLabel returns the human readable urgency for the level
func (m MedicalNeeds) UrgencyLabel() string {
	return UrgencyLabel(m.UrgencyLevel)
}

// UrgencyLabel maps an urgency level 1-5 to its label. Out of range levels are clamped.
func UrgencyLabel(level int) string {
	return urgencyLabels[ClampUrgency(level)-MinUrgency]
}

// ClampUrgency forces an urgency level into [MinUrgency, MaxUrgency]
func ClampUrgency(level int) int {
	if level < MinUrgency {
		return MinUrgency
	}
	if level > MaxUrgency {
		return MaxUrgency
	}
	return level
}

// Recommendation statuses
const (
	StatusMatched = "matched"
	StatusNoMatch = "no_match"
)

// Roles of a hospital within a recommendation
const (
	RoleBest        = "best"
	RoleAlternative = "alternative"
)

// RecommendedHospital is a ranked hospital tagged with its role in the recommendation
type RecommendedHospital struct {
	RankedHospital `bson:",inline"`
	Role           string `json:"role"`
}

// Route is the path from the patient to the best hospital. Fallback is set when no
// driving route was available and the geometry is a straight line.
type Route struct {
	Geometry        geo.LineString `json:"geometry"`
	DistanceKm      float64        `json:"distanceKm"`
	DurationMinutes float64        `json:"durationMinutes"`
	Fallback        bool           `json:"fallback"`
}

// Recommendation is the result of one assessment
type Recommendation struct {
	AssessmentID     string                `json:"assessmentId"`
	Status           string                `json:"status"`
	Message          string                `json:"message,omitempty"`
	Needs            MedicalNeeds          `json:"needs"`
	UrgencyLabel     string                `json:"urgencyLabel"`
	Origin           geo.Coordinate        `json:"origin"`
	Best             *RecommendedHospital  `json:"best,omitempty"`
	Alternatives     []RecommendedHospital `json:"alternatives"`
	Route            *Route                `json:"route,omitempty"`
	EmergencyContact string                `json:"emergencyContact,omitempty"`
}
