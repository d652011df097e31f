// Package fault diagnoses equipment faults from observed symptoms using a
// fixed rule table.
package fault

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"electrohub/backend/services/electrohub/internal/validate"
)

var (
	// ErrUnknownFault is returned for a fault type or cause index outside the rule table.
	ErrUnknownFault = errors.New("fault type or cause not found")
	// ErrUnknownComponent is returned when no test procedure exists.
	ErrUnknownComponent = errors.New("no test procedures for component")
)

// UnknownFault is the primary fault reported when no rule matches.
const UnknownFault = "Unknown"

// MaxSymptoms bounds one diagnosis request.
const MaxSymptoms = 64

// Match is a rule hit scored by the share of its symptoms observed.
type Match struct {
	FaultType       string   `json:"fault_type"`
	MatchScore      float64  `json:"match_score"`
	MatchedSymptoms []string `json:"matched_symptoms"`
	Causes          []Cause  `json:"causes"`
}

// Diagnosis is the best match plus up to two alternatives.
type Diagnosis struct {
	PrimaryFault      string   `json:"primary_fault"`
	Confidence        float64  `json:"confidence"`
	MatchedSymptoms   []string `json:"matched_symptoms"`
	ProbableCauses    []Cause  `json:"probable_causes"`
	AlternativeFaults []Match  `json:"alternative_faults"`
	Message           string   `json:"message,omitempty"`
}

// Diagnose scores every rule against the symptoms. Equal scores keep rule order.
func Diagnose(symptoms []string) (Diagnosis, error) {
	if len(symptoms) > MaxSymptoms {
		return Diagnosis{}, validate.Errorf("symptoms", "must contain at most %d entries", MaxSymptoms)
	}
	observed := make(map[string]struct{}, len(symptoms))
	for _, s := range symptoms {
		observed[s] = struct{}{}
	}

	var matches []Match
	for _, rule := range Rules {
		var hit []string
		for _, s := range rule.Symptoms {
			if _, ok := observed[s]; ok {
				hit = append(hit, s)
			}
		}
		if len(hit) == 0 {
			continue
		}
		matches = append(matches, Match{
			FaultType:       rule.FaultType,
			MatchScore:      float64(len(hit)) / float64(len(rule.Symptoms)),
			MatchedSymptoms: hit,
			Causes:          rule.Causes,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})

	if len(matches) == 0 {
		return Diagnosis{
			PrimaryFault:      UnknownFault,
			MatchedSymptoms:   []string{},
			ProbableCauses:    []Cause{},
			AlternativeFaults: []Match{},
			Message:           "No matching fault patterns found. Consider detailed inspection.",
		}, nil
	}

	top := matches[0]
	alt := matches[1:]
	if len(alt) > 2 {
		alt = alt[:2]
	}
	return Diagnosis{
		PrimaryFault:      top.FaultType,
		Confidence:        validate.RoundN(top.MatchScore*100, 1),
		MatchedSymptoms:   top.MatchedSymptoms,
		ProbableCauses:    top.Causes,
		AlternativeFaults: alt,
	}, nil
}

// RepairSteps is the checklist for one cause.
type RepairSteps struct {
	Cause       string   `json:"cause"`
	Priority    int      `json:"priority"`
	RepairSteps []string `json:"repair_steps"`
	SafetyNote  string   `json:"safety_note"`
}

// GetRepairSteps returns the checks for the cause at causeIndex of a fault type.
func GetRepairSteps(faultType string, causeIndex int) (RepairSteps, error) {
	for _, rule := range Rules {
		if rule.FaultType != faultType {
			continue
		}
		if causeIndex < 0 || causeIndex >= len(rule.Causes) {
			break
		}
		c := rule.Causes[causeIndex]
		return RepairSteps{
			Cause:       c.Cause,
			Priority:    c.Priority,
			RepairSteps: c.Checks,
			SafetyNote:  "Always disconnect power before performing repairs",
		}, nil
	}
	return RepairSteps{}, ErrUnknownFault
}

// ComponentTests lists bench tests for a component kind.
type ComponentTests struct {
	Component string   `json:"component"`
	Tests     []string `json:"tests"`
}

// GetComponentTests looks up a component kind case-insensitively.
func GetComponentTests(kind string) (ComponentTests, error) {
	component := strings.ToLower(strings.TrimSpace(kind))
	tests, ok := ComponentTestProcedures[component]
	if !ok {
		return ComponentTests{}, fmt.Errorf("%w: %s", ErrUnknownComponent, kind)
	}
	return ComponentTests{Component: component, Tests: tests}, nil
}

// Report wraps a diagnosis with prose conclusions.
type Report struct {
	Title           string    `json:"title"`
	InputSymptoms   []string  `json:"input_symptoms"`
	Diagnosis       Diagnosis `json:"diagnosis"`
	Conclusions     []string  `json:"conclusions"`
	Recommendations []string  `json:"recommendations"`
}

// DiagnosisReport grades confidence and points at the first checks of the top cause.
func DiagnosisReport(symptoms []string, d Diagnosis) Report {
	var conclusions []string
	switch {
	case d.Confidence > 70:
		conclusions = append(conclusions, "High confidence diagnosis: "+d.PrimaryFault)
	case d.Confidence > 40:
		conclusions = append(conclusions,
			"Moderate confidence diagnosis: "+d.PrimaryFault,
			"Additional testing recommended to confirm")
	default:
		conclusions = append(conclusions,
			"Low confidence diagnosis - multiple potential causes",
			"Systematic troubleshooting approach recommended")
	}
	if len(d.ProbableCauses) > 0 {
		top := d.ProbableCauses[0]
		checks := top.Checks
		if len(checks) > 2 {
			checks = checks[:2]
		}
		conclusions = append(conclusions,
			"Most likely cause: "+top.Cause,
			"First steps: "+strings.Join(checks, ", "))
	}
	if symptoms == nil {
		symptoms = []string{}
	}
	return Report{
		Title:         "Fault Diagnosis Report",
		InputSymptoms: symptoms,
		Diagnosis:     d,
		Conclusions:   conclusions,
		Recommendations: []string{
			"Follow repair steps in priority order",
			"Document all findings during troubleshooting",
			"Verify fix before returning to service",
		},
	}
}

// AllSymptoms returns every known symptom, sorted.
func AllSymptoms() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, rule := range Rules {
		for _, s := range rule.Symptoms {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				out = append(out, s)
			}
		}
	}
	sort.Strings(out)
	return out
}

// FaultTypes returns the fault types in rule order.
func FaultTypes() []string {
	out := make([]string, 0, len(Rules))
	for _, rule := range Rules {
		out = append(out, rule.FaultType)
	}
	return out
}
