package services

import (
	"context"
	"encoding/json"
	"testing"

	"nutrilens/models"
	"nutrilens/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peanutBarReply = "```json\n" + `{
  "product_name": "Crunchy Peanut Bar",
  "serving_size": "40g",
  "nutrients": {"calories": "190 kcal", "sugar": "14 g", "sodium": "120mg", "protein": 6},
  "ingredients": "peanuts, sugar, glucose syrup, salt",
  "allergens": ["peanuts"],
  "health_score": "6",
  "verdict": "Safe in moderation",
  "summary": "A sweet peanut snack.",
  "benefits": ["- Protein"],
  "concerns": ["Added sugar"]
}` + "\n```"

func TestFoodScanAllergenForcesAvoid(t *testing.T) {
	f := newScanFixture(t)
	user := createUser(t, f.db, "nut@example.com", func(u *models.User) {
		u.Allergies = "Peanuts"
	})
	f.ai.reply = peanutBarReply

	svc := NewFoodService(f.deps)
	res, err := svc.Scan(context.Background(), user.ID, testImage(t, "bar"))
	require.NoError(t, err)

	assert.Equal(t, "Crunchy Peanut Bar", res.Analysis.ProductName)
	assert.Equal(t, VerdictAvoid, res.Analysis.Verdict)
	assert.Equal(t, 6, res.Analysis.HealthScore)
	assert.Equal(t, 190.0, res.Analysis.Nutrients[utils.NutrientCalories])
	assert.Equal(t, []string{"peanuts", "sugar", "glucose syrup", "salt"}, res.Analysis.Ingredients)
	assert.Contains(t, codes(res.Warnings), "allergen_match")
	assert.NotZero(t, res.ID)
	assert.NotZero(t, res.HistoryID)
	assert.Contains(t, f.ai.lastPrompt(), "Peanuts")

	alerts, err := f.alerts.List(context.Background(), user.ID, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.HistoryFood, alerts[0].Source)

	var h models.History
	require.NoError(t, f.db.First(&h, res.HistoryID).Error)
	assert.Equal(t, models.HistoryFood, h.Kind)
	assert.Equal(t, res.ID, h.RefID)
	assert.Equal(t, "Crunchy Peanut Bar", h.Title)
}

func TestFoodScanSafeWithoutFindings(t *testing.T) {
	f := newScanFixture(t)
	user := createUser(t, f.db, "plain@example.com", nil)
	f.ai.reply = `{"product_name": "Sparkling Water", "nutrients": {"calories": 0}, "health_score": 9, "verdict": "safe"}`

	svc := NewFoodService(f.deps)
	res, err := svc.Scan(context.Background(), user.ID, testImage(t, "water"))
	require.NoError(t, err)
	assert.Equal(t, VerdictSafe, res.Analysis.Verdict)
	assert.Empty(t, res.Warnings)
	assert.False(t, res.FromCache)

	again, err := svc.Scan(context.Background(), user.ID, testImage(t, "water"))
	require.NoError(t, err)
	assert.True(t, again.FromCache)
	assert.Equal(t, 1, f.ocr.Calls())

	alerts, err := f.alerts.List(context.Background(), user.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestFoodGetOwnerOnly(t *testing.T) {
	f := newScanFixture(t)
	owner := createUser(t, f.db, "owner@example.com", nil)
	other := createUser(t, f.db, "other@example.com", nil)
	f.ai.reply = `{"product_name": "Rice Cakes", "health_score": 7, "verdict": "safe"}`

	svc := NewFoodService(f.deps)
	res, err := svc.Scan(context.Background(), owner.ID, testImage(t, "rice"))
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), owner.ID, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rice Cakes", got.Analysis.ProductName)
	assert.Equal(t, "Nutrition Facts ...", got.ExtractedText)

	_, err = svc.Get(context.Background(), other.ID, res.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFoodScanNoText(t *testing.T) {
	f := newScanFixture(t)
	user := createUser(t, f.db, "blank@example.com", nil)
	f.ocr.text = ""

	_, err := NewFoodService(f.deps).Scan(context.Background(), user.ID, testImage(t, "blank"))
	assert.ErrorIs(t, err, ErrNoText)
	assert.Empty(t, f.ai.prompts)
}

func TestParseFoodAnalysisFallback(t *testing.T) {
	a := ParseFoodAnalysis("Sorry, I can't tell what this is.")
	assert.Equal(t, "Unknown product", a.ProductName)
	assert.Equal(t, VerdictCaution, a.Verdict)
	assert.Equal(t, "Sorry, I can't tell what this is.", a.Summary)
	assert.NotNil(t, a.Ingredients)
}

func TestReconcileVerdict(t *testing.T) {
	high := []utils.Warning{{Code: "sodium_very_high", Severity: utils.High}}
	assert.Equal(t, VerdictCaution, reconcileVerdict(VerdictSafe, high))
	assert.Equal(t, VerdictAvoid, reconcileVerdict(VerdictAvoid, high))
	assert.Equal(t, VerdictSafe, reconcileVerdict(VerdictSafe, []utils.Warning{{Severity: utils.Caution}}))
	assert.Equal(t, VerdictAvoid, reconcileVerdict(VerdictSafe, []utils.Warning{{Code: "gluten_present", Severity: utils.High}}))
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 1, clampScore(0))
	assert.Equal(t, 8, clampScore(7.6))
	assert.Equal(t, 10, clampScore(85))
}

func TestNormalizeVerdict(t *testing.T) {
	cases := map[string]string{
		"safe":                VerdictSafe,
		"Good choice":         VerdictSafe,
		"Healthy":             VerdictSafe,
		"Not safe":            VerdictAvoid,
		"Unhealthy":           VerdictAvoid,
		"not healthy for you": VerdictAvoid,
		"unsafe":              VerdictAvoid,
		"Not recommended":     VerdictAvoid,
		"Avoid":               VerdictAvoid,
		"Safe in moderation":  VerdictCaution,
		"not bad":             VerdictCaution,
		"Limit intake":        VerdictCaution,
		"":                    VerdictCaution,
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeVerdict(in), in)
	}
}

func TestParseFoodAnalysisHealthScore(t *testing.T) {
	a := ParseFoodAnalysis(`{"product_name": "Mystery Snack", "verdict": "caution"}`)
	assert.Zero(t, a.HealthScore)
	raw, err := json.Marshal(a)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "health_score")

	assert.Zero(t, ParseFoodAnalysis(`{"health_score": "unknown"}`).HealthScore)
	assert.Equal(t, 7, ParseFoodAnalysis(`{"health_score": "7"}`).HealthScore)
	assert.Equal(t, 1, ParseFoodAnalysis(`{"health_score": 0}`).HealthScore)
}

func codes(ws []utils.Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}
