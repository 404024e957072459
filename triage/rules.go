package triage

import "github.com/chetak-health/chetak-api/models"

// Partial is what a single keyword rule contributes to the medical needs
type Partial struct {
	NeedsICU   bool
	Specialist string
	Urgency    int
	Equipment  []string
	Label      string
}

// Rule is a pure keyword rule over lower-cased free text
type Rule struct {
	Name  string
	Match func(text string) (Partial, bool)
}

// Merge folds a rule result into the accumulated needs. Urgency only ever rises;
// ICU, specialist, equipment and label are last-write-wins.
func Merge(acc models.MedicalNeeds, p Partial) models.MedicalNeeds {
	if p.Urgency > acc.UrgencyLevel {
		acc.UrgencyLevel = p.Urgency
	}
	acc.NeedsICU = p.NeedsICU
	acc.NeedsSpecialist = p.Specialist
	acc.RequiredEquipment = append([]string{}, p.Equipment...)
	acc.ConditionLabel = p.Label
	return acc
}

// Reduce applies the rules left to right
func Reduce(acc models.MedicalNeeds, rules []Rule, text string) models.MedicalNeeds {
	for _, r := range rules {
		if p, ok := r.Match(text); ok {
			acc = Merge(acc, p)
		}
	}
	return acc
}

// keywordRule matches when any keyword appears. When icuWhen is given the ICU flag
// depends on those words instead of p.NeedsICU.
func keywordRule(name string, keywords []string, p Partial, icuWhen ...string) Rule {
	return Rule{
		Name: name,
		Match: func(text string) (Partial, bool) {
			if !containsAny(text, keywords...) {
				return Partial{}, false
			}
			out := p
			out.Equipment = append([]string{}, p.Equipment...)
			if len(icuWhen) > 0 {
				out.NeedsICU = containsAny(text, icuWhen...)
			}
			return out, true
		},
	}
}

// DefaultRules returns the keyword rules in evaluation order
func DefaultRules() []Rule {
	return []Rule{
		keywordRule("cardiac",
			[]string{"chest pain", "heart attack", "palpitations"},
			Partial{NeedsICU: true, Specialist: "cardiologist", Urgency: 5, Equipment: []string{"cardiac_monitor", "ecg"}, Label: "Suspected Cardiac Event"},
		),
		keywordRule("stroke",
			[]string{"stroke symptoms", "numbness", "slurred speech"},
			Partial{NeedsICU: true, Specialist: "neurologist", Urgency: 5, Equipment: []string{"ct_scanner", "mri"}, Label: "Suspected Stroke"},
		),
		keywordRule("injury",
			[]string{"broken", "fracture", "injury", "accident", "trauma"},
			Partial{Specialist: "orthopedic", Urgency: 4, Equipment: []string{"x_ray", "orthopedic_tools"}, Label: "Injury / Fracture"},
			"severe", "major",
		),
		keywordRule("breathing",
			[]string{"breathing", "breathe", "asthma", "respiratory"},
			Partial{NeedsICU: true, Specialist: "pulmonologist", Urgency: 5, Equipment: []string{"ventilator", "pulse_oximeter"}, Label: "Breathing Difficulty"},
		),
		keywordRule("obstetric",
			[]string{"pregnant", "labor", "contractions", "water broke"},
			Partial{Specialist: "obstetrician", Urgency: 4, Equipment: []string{"obstetric_ultrasound", "fetal_monitor"}, Label: "Pregnancy / Labor"},
			"bleeding", "distress",
		),
		keywordRule("allergy",
			[]string{"allergic", "allergy", "rash", "hives"},
			Partial{Specialist: "allergist", Urgency: 3, Equipment: []string{"epinephrine"}, Label: "Allergic Reaction"},
			"anaphylaxis", "breathing difficulty",
		),
		keywordRule("burn",
			[]string{"burn"},
			Partial{Specialist: "general_surgeon", Urgency: 4, Equipment: []string{"burn_dressings"}, Label: "Burn Injury"},
			"severe", "extensive",
		),
	}
}
