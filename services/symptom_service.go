package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"nutrilens/models"
	"nutrilens/utils"

	"gorm.io/gorm"
)

const (
	UrgencyLow       = "low"
	UrgencyModerate  = "moderate"
	UrgencyHigh      = "high"
	UrgencyEmergency = "emergency"
)

const defaultDisclaimer = "This is not a medical diagnosis. If symptoms are severe or worsening, contact a healthcare professional or emergency services."

var redFlagSymptoms = []string{
	"chest pain", "difficulty breathing", "shortness of breath", "can't breathe", "cannot breathe",
	"unconscious", "fainting", "seizure", "severe bleeding", "coughing blood", "vomiting blood",
	"slurred speech", "face drooping", "numbness on one side", "suicidal", "anaphylaxis", "throat swelling",
}

type SymptomRequest struct {
	Symptoms []string
	Duration string
	Severity int
	Notes    string
}

type PossibleCondition struct {
	Name        string `json:"name"`
	Likelihood  string `json:"likelihood"`
	Description string `json:"description,omitempty"`
}

type SymptomAssessment struct {
	PossibleConditions []PossibleCondition `json:"possible_conditions"`
	Urgency            string              `json:"urgency"`
	Recommendations    []string            `json:"recommendations"`
	WhenToSeeDoctor    string              `json:"when_to_see_doctor"`
	Disclaimer         string              `json:"disclaimer"`
	RedFlags           []string            `json:"red_flags,omitempty"`
}

type SymptomCheckResult struct {
	HistoryID  uint              `json:"history_id"`
	Symptoms   []string          `json:"symptoms"`
	Duration   string            `json:"duration,omitempty"`
	Severity   int               `json:"severity,omitempty"`
	Assessment SymptomAssessment `json:"assessment"`
	CreatedAt  time.Time         `json:"created_at"`
}

type SymptomService struct {
	db    *gorm.DB
	ai    Generator
	users *UserService
}

func NewSymptomService(db *gorm.DB, ai Generator, users *UserService) *SymptomService {
	return &SymptomService{db: db, ai: ai, users: users}
}

func (s *SymptomService) Check(ctx context.Context, userID uint, req SymptomRequest) (*SymptomCheckResult, error) {
	req.Symptoms = nonNil(cleanList(req.Symptoms))
	if len(req.Symptoms) == 0 {
		return nil, fmt.Errorf("%w: at least one symptom is required", ErrValidation)
	}
	if req.Severity < 0 || req.Severity > 10 {
		return nil, fmt.Errorf("%w: severity must be between 1 and 10", ErrValidation)
	}

	profile, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	raw, err := s.ai.Generate(ctx, symptomPrompt(req, profile.Summary()))
	if err != nil {
		return nil, err
	}
	assessment := ParseSymptomAssessment(raw)
	applyRedFlags(&assessment, req)

	res := &SymptomCheckResult{
		Symptoms:   req.Symptoms,
		Duration:   req.Duration,
		Severity:   req.Severity,
		Assessment: assessment,
	}
	title := truncateRunes("Symptom check: "+strings.Join(req.Symptoms, ", "), 120)
	summary := fmt.Sprintf("Urgency: %s", assessment.Urgency)
	if len(assessment.PossibleConditions) > 0 {
		summary += fmt.Sprintf(". Most likely: %s", assessment.PossibleConditions[0].Name)
	}

	h, err := recordHistory(s.db.WithContext(ctx), userID, models.HistorySymptom, 0, title, summary, res)
	if err != nil {
		return nil, fmt.Errorf("save symptom check: %w", err)
	}
	res.HistoryID, res.CreatedAt = h.ID, h.CreatedAt
	return res, nil
}

// ParseSymptomAssessment coerces model output; the disclaimer is always set.
func ParseSymptomAssessment(raw string) SymptomAssessment {
	a := SymptomAssessment{
		PossibleConditions: []PossibleCondition{},
		Urgency:            UrgencyModerate,
		Recommendations:    []string{},
		Disclaimer:         defaultDisclaimer,
	}

	obj, err := utils.ExtractJSONObject(raw)
	if err != nil {
		if text := strings.TrimSpace(raw); text != "" {
			a.Recommendations = []string{text}
		}
		return a
	}

	if v, ok := utils.Lookup(obj, "possible_conditions", "conditions"); ok {
		switch t := v.(type) {
		case []any:
			for _, it := range t {
				if m, ok := it.(map[string]any); ok {
					pc := PossibleCondition{
						Name:        utils.StringField(m, "name", "condition"),
						Likelihood:  strings.ToLower(utils.StringField(m, "likelihood", "probability")),
						Description: utils.StringField(m, "description", "details"),
					}
					if pc.Name != "" {
						a.PossibleConditions = append(a.PossibleConditions, pc)
					}
				} else if name := utils.ToString(it); name != "" {
					a.PossibleConditions = append(a.PossibleConditions, PossibleCondition{Name: name})
				}
			}
		default:
			for _, name := range utils.ToStringSlice(t) {
				a.PossibleConditions = append(a.PossibleConditions, PossibleCondition{Name: name})
			}
		}
	}
	a.Urgency = normalizeUrgency(utils.StringField(obj, "urgency", "urgency_level", "triage"))
	a.Recommendations = nonNil(utils.ListField(obj, "recommendations", "advice", "self_care"))
	a.WhenToSeeDoctor = utils.StringField(obj, "when_to_see_doctor", "see_doctor")
	if d := utils.StringField(obj, "disclaimer"); d != "" {
		a.Disclaimer = d
	}
	return a
}

func normalizeUrgency(u string) string {
	u = strings.ToLower(u)
	switch {
	case strings.Contains(u, "emergency"), strings.Contains(u, "critical"):
		return UrgencyEmergency
	case strings.Contains(u, "high"), strings.Contains(u, "urgent"):
		return UrgencyHigh
	case strings.Contains(u, "low"), strings.Contains(u, "mild"):
		return UrgencyLow
	default:
		return UrgencyModerate
	}
}

func urgencyRank(u string) int {
	switch u {
	case UrgencyEmergency:
		return 3
	case UrgencyHigh:
		return 2
	case UrgencyModerate:
		return 1
	}
	return 0
}

// applyRedFlags raises urgency to at least high when a red-flag symptom or
// a severity of 9+ is reported.
func applyRedFlags(a *SymptomAssessment, req SymptomRequest) {
	text := strings.ToLower(strings.Join(append(append([]string{}, req.Symptoms...), req.Notes), " | "))
	for _, flag := range redFlagSymptoms {
		if strings.Contains(text, flag) {
			a.RedFlags = append(a.RedFlags, flag)
		}
	}
	if (len(a.RedFlags) > 0 || req.Severity >= 9) && urgencyRank(a.Urgency) < urgencyRank(UrgencyHigh) {
		a.Urgency = UrgencyHigh
	}
	if len(a.RedFlags) > 0 && a.WhenToSeeDoctor == "" {
		a.WhenToSeeDoctor = "Seek medical care immediately."
	}
}

// truncateRunes shortens s to at most n characters, ending in "...".
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func cleanList(items []string) []string {
	var out []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
