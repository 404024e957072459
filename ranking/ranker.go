// Package ranking filters hospitals against a patient's medical needs and orders the
// survivors by distance from the patient.
package ranking

import (
	"sort"

	"github.com/chetak-health/chetak-api/geo"
	"github.com/chetak-health/chetak-api/models"
	"github.com/chetak-health/chetak-api/triage"
)

// Policy holds the tunable parts of the suitability filter
type Policy struct {
	// PermissiveSpecialists lets a hospital listing "emergency" or "general" satisfy any
	// specialist requirement.
	PermissiveSpecialists bool
}

// DefaultPolicy is the policy the service runs with unless configured otherwise
var DefaultPolicy = Policy{PermissiveSpecialists: true}

// Ranker filters and sorts hospitals. The zero value is a strict ranker.
type Ranker struct {
	Policy Policy
}

// New creates a ranker with the given policy
func New(policy Policy) Ranker {
	return Ranker{Policy: policy}
}

// SpecialistTags returns the specialist tags that satisfy the needs, or nil when any
// hospital does.
func SpecialistTags(needs models.MedicalNeeds, policy Policy) []string {
	if needs.NeedsSpecialist == "" {
		return nil
	}
	tags := []string{needs.NeedsSpecialist}
	if policy.PermissiveSpecialists {
		tags = append(tags, triage.SpecialistEmergency, triage.SpecialistGeneral)
	}
	return tags
}

// EquipmentTags returns the equipment tags of which a hospital must have at least one,
// or nil when there is no equipment requirement.
func EquipmentTags(needs models.MedicalNeeds) []string {
	if len(needs.RequiredEquipment) == 0 {
		return nil
	}
	return append([]string{}, needs.RequiredEquipment...)
}

// Suitable reports whether the hospital meets every hard requirement
func (r Ranker) Suitable(h models.Hospital, needs models.MedicalNeeds) bool {
	if needs.NeedsICU && !h.HasICU {
		return false
	}
	if tags := SpecialistTags(needs, r.Policy); tags != nil && !anyTag(h.HasSpecialist, tags) {
		return false
	}
	if tags := EquipmentTags(needs); tags != nil && !anyTag(h.HasEquipment, tags) {
		return false
	}
	return true
}

// Rank returns the suitable hospitals sorted by distance from origin, nearest first.
// Hospitals at equal distance keep their directory order. The directory is not modified.
func (r Ranker) Rank(origin geo.Coordinate, needs models.MedicalNeeds, directory []models.Hospital) []models.RankedHospital {
	ranked := make([]models.RankedHospital, 0, len(directory))
	for _, h := range directory {
		if !r.Suitable(h, needs) {
			continue
		}
		ranked = append(ranked, models.RankedHospital{
			Hospital:   h,
			DistanceKm: geo.DistanceKm(origin, h.Coordinate()),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})
	return ranked
}

func anyTag(has func(string) bool, tags []string) bool {
	for _, t := range tags {
		if has(t) {
			return true
		}
	}
	return false
}
