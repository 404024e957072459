package triage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chetak-health/chetak-api/models"
)

func TestClassifyCategoryBaselines(t *testing.T) {
	tests := []struct {
		category string
		want     models.MedicalNeeds
	}{
		{models.ConditionCardiac, models.MedicalNeeds{NeedsICU: true, NeedsSpecialist: "cardiologist", UrgencyLevel: 5, RequiredEquipment: []string{"defibrillator", "cardiac_monitor", "ecg"}, ConditionLabel: "Cardiac"}},
		{models.ConditionStroke, models.MedicalNeeds{NeedsICU: true, NeedsSpecialist: "neurologist", UrgencyLevel: 5, RequiredEquipment: []string{"ct_scanner", "mri"}, ConditionLabel: "Stroke"}},
		{models.ConditionAccident, models.MedicalNeeds{NeedsICU: true, NeedsSpecialist: "orthopedic", UrgencyLevel: 4, RequiredEquipment: []string{"x_ray", "orthopedic_tools", "trauma_equipment", "ct_scanner"}, ConditionLabel: "Accident / Trauma"}},
		{models.ConditionAllergy, models.MedicalNeeds{NeedsICU: false, NeedsSpecialist: "allergist", UrgencyLevel: 3, RequiredEquipment: []string{"allergy_test_kits", "epinephrine"}, ConditionLabel: "Allergic Reaction"}},
		{models.ConditionLabor, models.MedicalNeeds{NeedsICU: false, NeedsSpecialist: "obstetrician", UrgencyLevel: 4, RequiredEquipment: []string{"obstetric_ultrasound", "fetal_monitor"}, ConditionLabel: "Labor / Pregnancy"}},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.category, ""))
		})
	}
}

func TestClassifyCategoryIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, Classify("cardiac", ""), Classify("  CARDIAC ", ""))
}

func TestClassifyBaselineIsNotShared(t *testing.T) {
	first := Classify(models.ConditionCardiac, "")
	first.RequiredEquipment[0] = "mutated"

	second := Classify(models.ConditionCardiac, "")
	assert.Equal(t, "defibrillator", second.RequiredEquipment[0])
}

func TestClassifyAllergyEscalation(t *testing.T) {
	for _, details := range []string{"signs of Anaphylaxis", "breathing difficulty after peanuts"} {
		needs := Classify(models.ConditionAllergy, details)
		assert.True(t, needs.NeedsICU, details)
		assert.Equal(t, 5, needs.UrgencyLevel, details)
		assert.Equal(t, SpecialistEmergency, needs.NeedsSpecialist, details)
		assert.Equal(t, []string{"allergy_test_kits", "epinephrine"}, needs.RequiredEquipment, details)
	}

	needs := Classify(models.ConditionAllergy, "mild itching")
	assert.False(t, needs.NeedsICU)
	assert.Equal(t, 3, needs.UrgencyLevel)
}

func TestClassifyLaborEscalation(t *testing.T) {
	needs := Classify(models.ConditionLabor, "heavy bleeding")
	assert.True(t, needs.NeedsICU)
	assert.Equal(t, 5, needs.UrgencyLevel)
	assert.Equal(t, "obstetrician", needs.NeedsSpecialist)

	needs = Classify(models.ConditionLabor, "contractions every 5 minutes")
	assert.False(t, needs.NeedsICU)
	assert.Equal(t, 4, needs.UrgencyLevel)
}

func TestClassifyCardiacScenario(t *testing.T) {
	needs := Classify("cardiac", "")

	assert.True(t, needs.NeedsICU)
	assert.Equal(t, "cardiologist", needs.NeedsSpecialist)
	assert.Equal(t, 5, needs.UrgencyLevel)
	assert.Equal(t, []string{"defibrillator", "cardiac_monitor", "ecg"}, needs.RequiredEquipment)
}

func TestClassifyChestPainAndBreathingLastRuleWins(t *testing.T) {
	needs := Classify("other", "severe chest pain and breathing difficulty")

	assert.Equal(t, 5, needs.UrgencyLevel)
	assert.True(t, needs.NeedsICU)
	assert.Equal(t, "pulmonologist", needs.NeedsSpecialist)
	assert.Equal(t, []string{"ventilator", "pulse_oximeter"}, needs.RequiredEquipment)
	assert.Equal(t, "Breathing Difficulty", needs.ConditionLabel)
}

func TestClassifyOtherKeywordRules(t *testing.T) {
	tests := []struct {
		details    string
		specialist string
		urgency    int
		icu        bool
		label      string
	}{
		{"Heart attack symptoms", "cardiologist", 5, true, "Suspected Cardiac Event"},
		{"sudden numbness in left arm", "neurologist", 5, true, "Suspected Stroke"},
		{"broken wrist", "orthopedic", 4, false, "Injury / Fracture"},
		{"severe fracture of the leg", "orthopedic", 4, true, "Injury / Fracture"},
		{"asthma attack", "pulmonologist", 5, true, "Breathing Difficulty"},
		{"pregnant and contractions started", "obstetrician", 4, false, "Pregnancy / Labor"},
		{"pregnant with bleeding", "obstetrician", 4, true, "Pregnancy / Labor"},
		{"rash on arms", "allergist", 3, false, "Allergic Reaction"},
		{"allergy, possible anaphylaxis", "allergist", 3, true, "Allergic Reaction"},
		{"burn from hot oil", "general_surgeon", 4, false, "Burn Injury"},
		{"extensive burn on back", "general_surgeon", 4, true, "Burn Injury"},
	}
	for _, tt := range tests {
		t.Run(tt.details, func(t *testing.T) {
			needs := Classify(models.ConditionOther, tt.details)
			assert.Equal(t, tt.specialist, needs.NeedsSpecialist)
			assert.Equal(t, tt.urgency, needs.UrgencyLevel)
			assert.Equal(t, tt.icu, needs.NeedsICU)
			assert.Equal(t, tt.label, needs.ConditionLabel)
		})
	}
}

func TestClassifyUnknownCategoryIsOther(t *testing.T) {
	assert.Equal(t, Classify(models.ConditionOther, "chest pain"), Classify("fever", "chest pain"))
	assert.Equal(t, Classify(models.ConditionOther, ""), Classify("", ""))
	assert.Equal(t, models.ConditionOther, NormalizeCategory("sprained ankle"))
	assert.Equal(t, models.ConditionStroke, NormalizeCategory("Stroke"))
}

func TestClassifyOtherWithoutKeywordMatch(t *testing.T) {
	needs := Classify(models.ConditionOther, "feeling dizzy")
	assert.Equal(t, 2, needs.UrgencyLevel)
	assert.Equal(t, SpecialistGeneral, needs.NeedsSpecialist)
	assert.Equal(t, LabelDescribed, needs.ConditionLabel)
	assert.False(t, needs.NeedsICU)
	assert.Empty(t, needs.RequiredEquipment)

	needs = Classify(models.ConditionOther, "   ")
	assert.Equal(t, 2, needs.UrgencyLevel)
	assert.Equal(t, LabelUnspecified, needs.ConditionLabel)
	assert.Equal(t, SpecialistGeneral, needs.NeedsSpecialist)
}

func TestClassifyLaterRuleOverwritesICU(t *testing.T) {
	// cardiac sets ICU, the injury rule that follows clears it when not severe
	needs := Classify(models.ConditionOther, "chest pain after a minor injury")
	assert.Equal(t, 5, needs.UrgencyLevel)
	assert.Equal(t, "orthopedic", needs.NeedsSpecialist)
	assert.False(t, needs.NeedsICU)
}

func TestReduceUrgencyNeverDecreases(t *testing.T) {
	texts := []string{
		"allergic reaction with breathing difficulty",
		"chest pain, numbness, fracture, asthma, pregnant, rash, burn",
		"rash",
		"burn and hives",
	}
	for _, text := range texts {
		acc := models.MedicalNeeds{UrgencyLevel: 2}
		for _, r := range DefaultRules() {
			p, ok := r.Match(text)
			if !ok {
				continue
			}
			next := Merge(acc, p)
			require.GreaterOrEqual(t, next.UrgencyLevel, acc.UrgencyLevel, "%s: rule %s lowered urgency", text, r.Name)
			acc = next
		}
		assert.GreaterOrEqual(t, acc.UrgencyLevel, 2)
	}
}

func TestMergeLastWriteWins(t *testing.T) {
	acc := models.MedicalNeeds{UrgencyLevel: 5, NeedsSpecialist: "cardiologist", NeedsICU: true, ConditionLabel: "a"}
	out := Merge(acc, Partial{Urgency: 3, Specialist: "allergist", Label: "b", Equipment: []string{"epinephrine"}})

	assert.Equal(t, 5, out.UrgencyLevel)
	assert.Equal(t, "allergist", out.NeedsSpecialist)
	assert.False(t, out.NeedsICU)
	assert.Equal(t, "b", out.ConditionLabel)
	assert.Equal(t, []string{"epinephrine"}, out.RequiredEquipment)
}

func TestRulesAreIndependent(t *testing.T) {
	for _, r := range DefaultRules() {
		_, ok := r.Match("nothing relevant here")
		assert.False(t, ok, r.Name)
	}
}

func TestMidUrgencyWithoutSpecialistStaysUnassigned(t *testing.T) {
	c := &RuleBasedClassifier{rules: []Rule{{
		Name: "vague",
		Match: func(text string) (Partial, bool) {
			return Partial{Urgency: 3, Label: "Vague"}, true
		},
	}}}

	needs := c.Classify(context.Background(), models.PatientInput{ConditionCategory: "other", FreeTextDetails: "something"})
	assert.Equal(t, 3, needs.UrgencyLevel)
	assert.Empty(t, needs.NeedsSpecialist)
}

func TestRuleBasedClassifierMatchesPackageClassify(t *testing.T) {
	c := NewRuleBasedClassifier()
	input := models.PatientInput{ConditionCategory: "other", FreeTextDetails: "slurred speech"}

	assert.Equal(t, Classify(input.ConditionCategory, input.FreeTextDetails), c.Classify(context.Background(), input))
}
