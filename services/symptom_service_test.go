package services

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"nutrilens/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSymptomService(t *testing.T) (*SymptomService, *fakeAI, *models.User) {
	db := newTestDB(t)
	ai := &fakeAI{}
	user := createUser(t, db, "sick@example.com", func(u *models.User) {
		u.HealthConditions = "asthma"
	})
	return NewSymptomService(db, ai, NewUserService(db, nil)), ai, user
}

func TestSymptomCheckRedFlagRaisesUrgency(t *testing.T) {
	svc, ai, user := newSymptomService(t)
	ai.reply = `{"possible_conditions": [{"name": "Muscle strain", "likelihood": "High"}], "urgency": "low", "recommendations": "rest"}`

	res, err := svc.Check(context.Background(), user.ID, SymptomRequest{
		Symptoms: []string{"Chest pain", " "},
		Duration: "2 hours",
		Severity: 6,
	})
	require.NoError(t, err)
	assert.Equal(t, UrgencyHigh, res.Assessment.Urgency)
	assert.Equal(t, []string{"chest pain"}, res.Assessment.RedFlags)
	assert.Equal(t, []string{"Chest pain"}, res.Symptoms)
	assert.Equal(t, "high", res.Assessment.PossibleConditions[0].Likelihood)
	assert.NotEmpty(t, res.Assessment.Disclaimer)
	assert.NotEmpty(t, res.Assessment.WhenToSeeDoctor)
	assert.NotZero(t, res.HistoryID)
	assert.Contains(t, ai.lastPrompt(), "asthma")
}

func TestSymptomCheckKeepsModelUrgency(t *testing.T) {
	svc, ai, user := newSymptomService(t)
	ai.reply = `{"possible_conditions": ["Common cold"], "urgency": "Low", "disclaimer": "Not advice."}`

	res, err := svc.Check(context.Background(), user.ID, SymptomRequest{Symptoms: []string{"runny nose"}, Severity: 2})
	require.NoError(t, err)
	assert.Equal(t, UrgencyLow, res.Assessment.Urgency)
	assert.Equal(t, "Not advice.", res.Assessment.Disclaimer)
	assert.Equal(t, "Common cold", res.Assessment.PossibleConditions[0].Name)
	assert.Empty(t, res.Assessment.RedFlags)
}

func TestSymptomCheckValidation(t *testing.T) {
	svc, ai, user := newSymptomService(t)

	_, err := svc.Check(context.Background(), user.ID, SymptomRequest{Symptoms: []string{"", "  "}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Check(context.Background(), user.ID, SymptomRequest{Symptoms: []string{"cough"}, Severity: 11})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, ai.prompts)
}

func TestSymptomCheckAIUnavailable(t *testing.T) {
	svc, ai, user := newSymptomService(t)
	ai.err = ErrAIUnavailable

	_, err := svc.Check(context.Background(), user.ID, SymptomRequest{Symptoms: []string{"cough"}})
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestParseSymptomAssessmentPlainText(t *testing.T) {
	a := ParseSymptomAssessment("Drink fluids and rest.")
	assert.Equal(t, UrgencyModerate, a.Urgency)
	assert.Equal(t, []string{"Drink fluids and rest."}, a.Recommendations)
	assert.Equal(t, defaultDisclaimer, a.Disclaimer)
}

func TestApplyRedFlagsSeverity(t *testing.T) {
	a := SymptomAssessment{Urgency: UrgencyEmergency}
	applyRedFlags(&a, SymptomRequest{Symptoms: []string{"headache"}, Severity: 10})
	assert.Equal(t, UrgencyEmergency, a.Urgency)

	a = SymptomAssessment{Urgency: UrgencyLow}
	applyRedFlags(&a, SymptomRequest{Symptoms: []string{"headache"}, Severity: 9})
	assert.Equal(t, UrgencyHigh, a.Urgency)
}

func TestSymptomCheckLongTitleStaysValidUTF8(t *testing.T) {
	svc, ai, user := newSymptomService(t)
	ai.reply = `{"urgency": "low"}`

	res, err := svc.Check(context.Background(), user.ID, SymptomRequest{
		Symptoms: []string{"a" + strings.Repeat("é", 200), "douleur à la tête"},
	})
	require.NoError(t, err)

	var h models.History
	require.NoError(t, svc.db.First(&h, res.HistoryID).Error)
	assert.True(t, utf8.ValidString(h.Title))
	assert.Equal(t, 120, utf8.RuneCountInString(h.Title))
	assert.True(t, strings.HasSuffix(h.Title, "é..."))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "ééé...", truncateRunes(strings.Repeat("é", 20), 6))
}
