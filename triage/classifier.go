package triage

import (
	"context"
	"strings"

	"github.com/chetak-health/chetak-api/models"
)

// Specialist tags assigned when no rule picked one
const (
	SpecialistEmergency = "emergency"
	SpecialistGeneral   = "general"
)

// Labels used when the category carries no label of its own
const (
	LabelDescribed   = "Described Condition"
	LabelUnspecified = "Unspecified Condition"
)

// Classifier defines the interface for deriving medical needs from a patient's condition
type Classifier interface {
	// Classify maps a condition category and free text description to medical needs
	Classify(ctx context.Context, input models.PatientInput) models.MedicalNeeds
}

// RuleBasedClassifier applies the category baselines and then the ordered keyword rules
type RuleBasedClassifier struct {
	rules []Rule
}

// NewRuleBasedClassifier creates a classifier using DefaultRules
func NewRuleBasedClassifier() *RuleBasedClassifier {
	return &RuleBasedClassifier{rules: DefaultRules()}
}

// Classify implements the Classifier interface
func (c *RuleBasedClassifier) Classify(ctx context.Context, input models.PatientInput) models.MedicalNeeds {
	return classify(input.ConditionCategory, input.FreeTextDetails, c.rules)
}

// Classify runs the default rule set. It never fails; unknown categories are treated as "other".
func Classify(category, details string) models.MedicalNeeds {
	return classify(category, details, DefaultRules())
}

// NormalizeCategory lower-cases the category and maps anything unknown to "other"
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if _, ok := baselines[c]; ok {
		return c
	}
	return models.ConditionOther
}

func classify(category, details string, rules []Rule) models.MedicalNeeds {
	text := strings.ToLower(strings.TrimSpace(details))

	var needs models.MedicalNeeds
	if b, ok := baselines[NormalizeCategory(category)]; ok {
		needs = b.apply(text)
	} else {
		needs = models.MedicalNeeds{UrgencyLevel: 2, RequiredEquipment: []string{}, ConditionLabel: LabelUnspecified}
		if text != "" {
			needs.ConditionLabel = LabelDescribed
			needs = Reduce(needs, rules, text)
		}
	}

	needs.UrgencyLevel = models.ClampUrgency(needs.UrgencyLevel)

	// urgency 3 with no specialist is deliberately left unassigned
	if needs.NeedsSpecialist == "" && needs.UrgencyLevel >= 4 {
		needs.NeedsSpecialist = SpecialistEmergency
	}
	if needs.NeedsSpecialist == "" && needs.UrgencyLevel < 3 {
		needs.NeedsSpecialist = SpecialistGeneral
	}
	return needs
}
