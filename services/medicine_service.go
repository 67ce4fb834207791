package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"nutrilens/models"
	"nutrilens/utils"

	"gorm.io/gorm"
)

// MedicineAnalysis is the coerced model reply for a medicine label.
type MedicineAnalysis struct {
	Name              string   `json:"name"`
	GenericName       string   `json:"generic_name,omitempty"`
	ActiveIngredients []string `json:"active_ingredients"`
	Uses              []string `json:"uses"`
	Dosage            string   `json:"dosage,omitempty"`
	SideEffects       []string `json:"side_effects"`
	Warnings          []string `json:"warnings"`
	Interactions      []string `json:"interactions"`
	Contraindications []string `json:"contraindications"`
	SafeForUser       bool     `json:"safe_for_user"`
	Summary           string   `json:"summary"`
}

type MedicineScanResult struct {
	ID            uint             `json:"id"`
	HistoryID     uint             `json:"history_id"`
	ImageURL      string           `json:"image_url,omitempty"`
	ExtractedText string           `json:"extracted_text"`
	FromCache     bool             `json:"from_cache"`
	Analysis      MedicineAnalysis `json:"analysis"`
	Alerts        []utils.Warning  `json:"alerts"`
	CreatedAt     time.Time        `json:"created_at"`
}

type MedicineService struct {
	deps *ScanDeps
}

func NewMedicineService(deps *ScanDeps) *MedicineService {
	return &MedicineService{deps: deps}
}

func (s *MedicineService) Scan(ctx context.Context, userID uint, img utils.Image) (*MedicineScanResult, error) {
	in, err := s.deps.prepare(ctx, userID, models.HistoryMedicine, img)
	if err != nil {
		return nil, err
	}

	raw, err := s.deps.AI.Generate(ctx, medicinePrompt(in.text, in.profile.Summary()))
	if err != nil {
		return nil, err
	}
	analysis := ParseMedicineAnalysis(raw)

	alerts := MedicineProfileChecks(analysis, in.profile.AssessmentContext())
	if utils.HasHigh(alerts) {
		analysis.SafeForUser = false
	}
	if alerts == nil {
		alerts = []utils.Warning{}
	}

	res := &MedicineScanResult{
		ImageURL:      in.imageURL,
		ExtractedText: in.text,
		FromCache:     in.cached,
		Analysis:      analysis,
		Alerts:        alerts,
	}
	med := &models.Medicine{
		UserID:        userID,
		ImageHash:     in.hash,
		ImageURL:      in.imageURL,
		Name:          analysis.Name,
		GenericName:   analysis.GenericName,
		ExtractedText: in.text,
		SafeForUser:   analysis.SafeForUser,
		Analysis:      utils.MustJSON(analysis),
		Warnings:      utils.MustJSON(alerts),
	}

	err = s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(med).Error; err != nil {
			return err
		}
		res.ID, res.CreatedAt = med.ID, med.CreatedAt
		h, err := recordHistory(tx, userID, models.HistoryMedicine, med.ID, analysis.Name, analysis.Summary, res)
		if err != nil {
			return err
		}
		res.HistoryID = h.ID
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save medicine scan: %w", err)
	}

	if !analysis.SafeForUser {
		s.deps.alert(ctx, userID, models.HistoryMedicine,
			fmt.Sprintf("%s may not be safe for you. Check with your doctor or pharmacist.", analysis.Name))
	}
	return res, nil
}

func (s *MedicineService) Get(ctx context.Context, userID, id uint) (*MedicineScanResult, error) {
	var med models.Medicine
	err := s.deps.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&med).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	res := &MedicineScanResult{
		ID:            med.ID,
		ImageURL:      med.ImageURL,
		ExtractedText: med.ExtractedText,
		CreatedAt:     med.CreatedAt,
	}
	if err := decodeStored(med.Analysis, &res.Analysis); err != nil {
		return nil, err
	}
	if err := decodeStored(med.Warnings, &res.Alerts); err != nil {
		return nil, err
	}
	return res, nil
}

// ParseMedicineAnalysis coerces model output into a MedicineAnalysis.
// safe_for_user defaults to false when the model does not say.
func ParseMedicineAnalysis(raw string) MedicineAnalysis {
	a := MedicineAnalysis{
		ActiveIngredients: []string{},
		Uses:              []string{},
		SideEffects:       []string{},
		Warnings:          []string{},
		Interactions:      []string{},
		Contraindications: []string{},
	}

	obj, err := utils.ExtractJSONObject(raw)
	if err != nil {
		a.Name = "Unknown medicine"
		a.Summary = strings.TrimSpace(raw)
		return a
	}

	a.Name = utils.StringField(obj, "name", "brand_name", "medicine_name")
	if a.Name == "" {
		a.Name = "Unknown medicine"
	}
	a.GenericName = utils.StringField(obj, "generic_name", "generic")
	a.ActiveIngredients = nonNil(utils.ListField(obj, "active_ingredients", "ingredients"))
	a.Uses = nonNil(utils.ListField(obj, "uses", "indications", "purpose"))
	a.Dosage = utils.StringField(obj, "dosage", "directions", "dose")
	a.SideEffects = nonNil(utils.ListField(obj, "side_effects"))
	a.Warnings = nonNil(utils.ListField(obj, "warnings", "precautions"))
	a.Interactions = nonNil(utils.ListField(obj, "interactions", "drug_interactions"))
	a.Contraindications = nonNil(utils.ListField(obj, "contraindications"))
	if safe, ok := utils.BoolField(obj, "safe_for_user", "safe", "is_safe"); ok {
		a.SafeForUser = safe
	}
	a.Summary = utils.StringField(obj, "summary", "overview")
	return a
}

// MedicineProfileChecks flags allergies to an active ingredient and active
// ingredients the user already takes.
func MedicineProfileChecks(a MedicineAnalysis, ctx utils.AssessmentContext) []utils.Warning {
	var ws []utils.Warning
	ingredients := strings.ToLower(strings.Join(append([]string{a.Name, a.GenericName}, a.ActiveIngredients...), " | "))

	for _, allergy := range ctx.Allergies {
		al := strings.ToLower(strings.TrimSpace(allergy))
		if al != "" && strings.Contains(ingredients, al) {
			ws = append(ws, utils.Warning{
				Code:     "medicine_allergy",
				Severity: utils.High,
				Message:  fmt.Sprintf("Contains %s, which you listed as an allergy.", allergy),
			})
		}
	}

	for _, current := range ctx.Medications {
		taken := medicineNames(current)
		if len(taken) == 0 {
			continue
		}
		for _, ing := range a.ActiveIngredients {
			if sharesName(medicineNames(ing), taken) {
				ws = append(ws, utils.Warning{
					Code:     "duplicate_ingredient",
					Severity: utils.High,
					Message:  fmt.Sprintf("%s overlaps with %s you already take; doubling up can cause an overdose.", strings.TrimSpace(ing), current),
				})
				break
			}
		}
	}

	for _, inter := range a.Interactions {
		il := " " + strings.Join(nameWords(inter), " ") + " "
		for _, current := range ctx.Medications {
			for _, name := range medicineNames(current) {
				if strings.Contains(il, " "+name+" ") {
					ws = append(ws, utils.Warning{
						Code:     "interaction_with_current",
						Severity: utils.Caution,
						Message:  fmt.Sprintf("Listed interaction involves %s: %s", current, inter),
					})
					break
				}
			}
		}
	}
	return ws
}

var doseUnits = map[string]bool{
	"mg": true, "mcg": true, "µg": true, "ug": true, "g": true, "ml": true, "iu": true,
	"tablet": true, "tablets": true, "capsule": true, "capsules": true,
}

// medicineNames splits a medication entry such as "Tylenol (acetaminophen) 500mg"
// into its names, here "tylenol" and "acetaminophen", with doses dropped.
func medicineNames(s string) []string {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return strings.ContainsRune("()[],;/+", r)
	})
	var out []string
	for _, p := range parts {
		if words := nameWords(p); len(words) > 0 {
			out = append(out, strings.Join(words, " "))
		}
	}
	return out
}

func nameWords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '%' && r != '-'
	})
	var out []string
	for _, f := range fields {
		f = strings.Trim(f, ".-")
		if f == "" || doseUnits[f] || strings.HasSuffix(f, "%") || unicode.IsDigit([]rune(f)[0]) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// sharesName reports whether any name in a equals one in b or contains it
// as whole words, so "vitamin c" and "vitamin d" do not overlap.
func sharesName(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			px, py := " "+x+" ", " "+y+" "
			if strings.Contains(px, py) || strings.Contains(py, px) {
				return true
			}
		}
	}
	return false
}

func decodeStored(raw string, v any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode stored analysis: %w", err)
	}
	return nil
}
