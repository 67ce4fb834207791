package services

import (
	"context"
	"testing"

	"nutrilens/models"
	"nutrilens/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedicineScanDuplicateIngredient(t *testing.T) {
	f := newScanFixture(t)
	user := createUser(t, f.db, "med@example.com", func(u *models.User) {
		u.Medications = "Tylenol (acetaminophen) 500mg"
	})
	f.ai.reply = `Here is the analysis:
{"name": "NightCold Relief", "generic_name": "acetaminophen / doxylamine",
 "active_ingredients": ["Acetaminophen 325 mg", "Doxylamine succinate 6.25 mg"],
 "uses": "cold symptoms; sleep", "side_effects": ["drowsiness"],
 "safe_for_user": true, "summary": "Night-time cold relief."}`

	svc := NewMedicineService(f.deps)
	res, err := svc.Scan(context.Background(), user.ID, testImage(t, "nightcold"))
	require.NoError(t, err)

	assert.Equal(t, "NightCold Relief", res.Analysis.Name)
	assert.False(t, res.Analysis.SafeForUser)
	assert.Contains(t, codes(res.Alerts), "duplicate_ingredient")
	assert.Equal(t, []string{"cold symptoms", "sleep"}, res.Analysis.Uses)

	alerts, err := f.alerts.List(context.Background(), user.ID, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.HistoryMedicine, alerts[0].Source)

	got, err := svc.Get(context.Background(), user.ID, res.ID)
	require.NoError(t, err)
	assert.False(t, got.Analysis.SafeForUser)
	assert.Len(t, got.Alerts, len(res.Alerts))
}

func TestMedicineScanSafe(t *testing.T) {
	f := newScanFixture(t)
	user := createUser(t, f.db, "ok@example.com", nil)
	f.ai.reply = `{"name": "Vitamin D3", "active_ingredients": ["cholecalciferol"], "safe_for_user": "yes"}`

	res, err := NewMedicineService(f.deps).Scan(context.Background(), user.ID, testImage(t, "vitd"))
	require.NoError(t, err)
	assert.True(t, res.Analysis.SafeForUser)
	assert.Empty(t, res.Alerts)
}

func TestParseMedicineAnalysisDefaultsUnsafe(t *testing.T) {
	a := ParseMedicineAnalysis(`{"name": "Mystery pills"}`)
	assert.Equal(t, "Mystery pills", a.Name)
	assert.False(t, a.SafeForUser)

	a = ParseMedicineAnalysis("no json here")
	assert.Equal(t, "Unknown medicine", a.Name)
	assert.False(t, a.SafeForUser)
}

func TestMedicineProfileChecks(t *testing.T) {
	a := MedicineAnalysis{
		Name:              "Amoxil",
		ActiveIngredients: []string{"Amoxicillin 500 mg"},
		Interactions:      []string{"Warfarin may increase bleeding risk"},
	}
	ws := MedicineProfileChecks(a, utils.AssessmentContext{
		Allergies:   []string{"amoxicillin"},
		Medications: []string{"warfarin 5mg"},
	})
	assert.ElementsMatch(t, []string{"medicine_allergy", "interaction_with_current"}, codes(ws))
}

func TestMedicineProfileChecksMatchesWholeNames(t *testing.T) {
	ws := MedicineProfileChecks(MedicineAnalysis{
		Name:              "Vitamin C Plus",
		ActiveIngredients: []string{"Vitamin C 500mg"},
		Interactions:      []string{"Vitamin K antagonists"},
	}, utils.AssessmentContext{Medications: []string{"Vitamin D 1000 IU"}})
	assert.Empty(t, ws)

	ws = MedicineProfileChecks(MedicineAnalysis{
		ActiveIngredients: []string{"Acetaminophen 325 mg"},
		Interactions:      []string{"Do not combine with other acetaminophen products"},
	}, utils.AssessmentContext{Medications: []string{"Tylenol (acetaminophen) 500mg"}})
	assert.ElementsMatch(t, []string{"duplicate_ingredient", "interaction_with_current"}, codes(ws))
}

func TestMedicineNames(t *testing.T) {
	assert.Equal(t, []string{"tylenol", "acetaminophen"}, medicineNames("Tylenol (acetaminophen) 500mg"))
	assert.Equal(t, []string{"doxylamine succinate"}, medicineNames("Doxylamine succinate 6.25 mg"))
	assert.Equal(t, []string{"vitamin d3"}, medicineNames("Vitamin D3 1000 IU"))
	assert.Empty(t, medicineNames("500 mg"))
	assert.False(t, sharesName([]string{"vitamin c"}, []string{"vitamin d"}))
	assert.True(t, sharesName([]string{"ibuprofen"}, []string{"ibuprofen lysine"}))
}
