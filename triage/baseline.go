package triage

import (
	"strings"

	"github.com/chetak-health/chetak-api/models"
)

type baseline struct {
	needsICU   bool
	specialist string
	urgency    int
	equipment  []string
	label      string
	// escalate adjusts the baseline from the free text; nil means no escalation
	escalate func(text string, needs *models.MedicalNeeds)
}

func (b baseline) apply(text string) models.MedicalNeeds {
	needs := models.MedicalNeeds{
		NeedsICU:          b.needsICU,
		NeedsSpecialist:   b.specialist,
		UrgencyLevel:      b.urgency,
		RequiredEquipment: append([]string{}, b.equipment...),
		ConditionLabel:    b.label,
	}
	if b.escalate != nil && text != "" {
		b.escalate(text, &needs)
	}
	return needs
}

var baselines = map[string]baseline{
	models.ConditionCardiac: {
		needsICU:   true,
		specialist: "cardiologist",
		urgency:    5,
		equipment:  []string{"defibrillator", "cardiac_monitor", "ecg"},
		label:      "Cardiac",
	},
	models.ConditionStroke: {
		needsICU:   true,
		specialist: "neurologist",
		urgency:    5,
		equipment:  []string{"ct_scanner", "mri"},
		label:      "Stroke",
	},
	models.ConditionAccident: {
		needsICU:   true,
		specialist: "orthopedic",
		urgency:    4,
		equipment:  []string{"x_ray", "orthopedic_tools", "trauma_equipment", "ct_scanner"},
		label:      "Accident / Trauma",
	},
	models.ConditionAllergy: {
		specialist: "allergist",
		urgency:    3,
		equipment:  []string{"allergy_test_kits", "epinephrine"},
		label:      "Allergic Reaction",
		escalate: func(text string, needs *models.MedicalNeeds) {
			if containsAny(text, "breathing difficulty", "anaphylaxis") {
				needs.NeedsICU = true
				needs.UrgencyLevel = 5
				needs.NeedsSpecialist = SpecialistEmergency
			}
		},
	},
	models.ConditionLabor: {
		specialist: "obstetrician",
		urgency:    4,
		equipment:  []string{"obstetric_ultrasound", "fetal_monitor"},
		label:      "Labor / Pregnancy",
		escalate: func(text string, needs *models.MedicalNeeds) {
			if containsAny(text, "bleeding", "distress") {
				needs.NeedsICU = true
				needs.UrgencyLevel = 5
			}
		},
	},
}

func containsAny(text string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
