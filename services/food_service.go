package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"nutrilens/models"
	"nutrilens/utils"

	"gorm.io/gorm"
)

const (
	VerdictSafe    = "safe"
	VerdictCaution = "caution"
	VerdictAvoid   = "avoid"
)

// FoodAnalysis is the coerced model reply for a food label.
type FoodAnalysis struct {
	ProductName     string             `json:"product_name"`
	ServingSize     string             `json:"serving_size,omitempty"`
	Nutrients       map[string]float64 `json:"nutrients"`
	Ingredients     []string           `json:"ingredients"`
	Allergens       []string           `json:"allergens"`
	HealthScore     int                `json:"health_score,omitempty"`
	Verdict         string             `json:"verdict"`
	Summary         string             `json:"summary"`
	Benefits        []string           `json:"benefits"`
	Concerns        []string           `json:"concerns"`
	Recommendations []string           `json:"recommendations"`
}

// FoodScanResult is returned by POST /scan/food and stored as history payload.
type FoodScanResult struct {
	ID            uint            `json:"id"`
	HistoryID     uint            `json:"history_id"`
	ImageURL      string          `json:"image_url,omitempty"`
	ExtractedText string          `json:"extracted_text"`
	FromCache     bool            `json:"from_cache"`
	Analysis      FoodAnalysis    `json:"analysis"`
	Warnings      []utils.Warning `json:"warnings"`
	CreatedAt     time.Time       `json:"created_at"`
}

type FoodService struct {
	deps *ScanDeps
}

func NewFoodService(deps *ScanDeps) *FoodService {
	return &FoodService{deps: deps}
}

func (s *FoodService) Scan(ctx context.Context, userID uint, img utils.Image) (*FoodScanResult, error) {
	in, err := s.deps.prepare(ctx, userID, models.HistoryFood, img)
	if err != nil {
		return nil, err
	}

	raw, err := s.deps.AI.Generate(ctx, foodPrompt(in.text, in.profile.Summary()))
	if err != nil {
		return nil, err
	}
	analysis := ParseFoodAnalysis(raw)

	warnings := utils.AssessLabel(utils.LabelFacts{
		ProductName: analysis.ProductName,
		Nutrients:   analysis.Nutrients,
		Ingredients: analysis.Ingredients,
		Allergens:   analysis.Allergens,
	}, in.profile.AssessmentContext())
	analysis.Verdict = reconcileVerdict(analysis.Verdict, warnings)
	if warnings == nil {
		warnings = []utils.Warning{}
	}

	res := &FoodScanResult{
		ImageURL:      in.imageURL,
		ExtractedText: in.text,
		FromCache:     in.cached,
		Analysis:      analysis,
		Warnings:      warnings,
	}
	scan := &models.FoodScan{
		UserID:        userID,
		ImageHash:     in.hash,
		ImageURL:      in.imageURL,
		ProductName:   analysis.ProductName,
		ExtractedText: in.text,
		HealthScore:   analysis.HealthScore,
		Verdict:       analysis.Verdict,
		Analysis:      utils.MustJSON(analysis),
		Warnings:      utils.MustJSON(warnings),
	}

	err = s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(scan).Error; err != nil {
			return err
		}
		res.ID, res.CreatedAt = scan.ID, scan.CreatedAt
		h, err := recordHistory(tx, userID, models.HistoryFood, scan.ID, analysis.ProductName, analysis.Summary, res)
		if err != nil {
			return err
		}
		res.HistoryID = h.ID
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save food scan: %w", err)
	}

	if analysis.Verdict == VerdictAvoid {
		s.deps.alert(ctx, userID, models.HistoryFood,
			fmt.Sprintf("%s is not recommended for your profile.", analysis.ProductName))
	}
	return res, nil
}

func (s *FoodService) Get(ctx context.Context, userID, id uint) (*FoodScanResult, error) {
	var scan models.FoodScan
	err := s.deps.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&scan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	res := &FoodScanResult{
		ID:            scan.ID,
		ImageURL:      scan.ImageURL,
		ExtractedText: scan.ExtractedText,
		CreatedAt:     scan.CreatedAt,
	}
	if err := decodeStored(scan.Analysis, &res.Analysis); err != nil {
		return nil, err
	}
	if err := decodeStored(scan.Warnings, &res.Warnings); err != nil {
		return nil, err
	}
	return res, nil
}

// ParseFoodAnalysis coerces model output into a FoodAnalysis. Output that
// holds no JSON object becomes a summary-only analysis.
func ParseFoodAnalysis(raw string) FoodAnalysis {
	a := FoodAnalysis{
		Nutrients:       map[string]float64{},
		Ingredients:     []string{},
		Allergens:       []string{},
		Benefits:        []string{},
		Concerns:        []string{},
		Recommendations: []string{},
	}

	obj, err := utils.ExtractJSONObject(raw)
	if err != nil {
		a.ProductName = "Unknown product"
		a.Summary = strings.TrimSpace(raw)
		a.Verdict = VerdictCaution
		return a
	}

	a.ProductName = utils.StringField(obj, "product_name", "name", "product")
	if a.ProductName == "" {
		a.ProductName = "Unknown product"
	}
	a.ServingSize = utils.StringField(obj, "serving_size", "serving")
	if v, ok := utils.Lookup(obj, "nutrients", "nutrition", "nutrition_facts"); ok {
		if m, ok := v.(map[string]any); ok {
			a.Nutrients = utils.NormalizeNutrients(m)
		}
	}
	a.Ingredients = nonNil(utils.ListField(obj, "ingredients"))
	a.Allergens = nonNil(utils.ListField(obj, "allergens", "allergen_warnings"))
	if v, ok := utils.Lookup(obj, "health_score", "score", "rating"); ok {
		if f, ok := utils.ToFloat(v); ok {
			a.HealthScore = clampScore(f)
		}
	}
	a.Verdict = normalizeVerdict(utils.StringField(obj, "verdict", "recommendation_level", "safety"))
	a.Summary = utils.StringField(obj, "summary", "overview", "analysis")
	a.Benefits = nonNil(utils.ListField(obj, "benefits", "pros"))
	a.Concerns = nonNil(utils.ListField(obj, "concerns", "cons", "risks"))
	a.Recommendations = nonNil(utils.ListField(obj, "recommendations", "tips", "suggestions"))
	return a
}

// normalizeVerdict maps free-form model wording onto safe, caution or avoid.
// Negated wording ("not safe", "unhealthy") is never read as safe.
func normalizeVerdict(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if containsAnyOf(v, "avoid", "unsafe", "not safe", "unhealthy", "not healthy", "not recommended", "dangerous") {
		return VerdictAvoid
	}
	if containsAnyOf(v, "caution", "moderat", "limit", "occasional", "not ") {
		return VerdictCaution
	}
	for _, w := range strings.FieldsFunc(v, func(r rune) bool { return !unicode.IsLetter(r) }) {
		switch w {
		case "safe", "good", "healthy", "recommended":
			return VerdictSafe
		}
	}
	return VerdictCaution
}

func containsAnyOf(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// reconcileVerdict never lets a high-severity rule finding stay "safe";
// allergen and gluten matches force "avoid".
func reconcileVerdict(verdict string, ws []utils.Warning) string {
	for _, w := range ws {
		if w.Severity == utils.High && (w.Code == "allergen_match" || w.Code == "gluten_present") {
			return VerdictAvoid
		}
	}
	if verdict == VerdictSafe && utils.HasHigh(ws) {
		return VerdictCaution
	}
	return verdict
}

func clampScore(f float64) int {
	s := int(f + 0.5)
	if s < 1 {
		return 1
	}
	if s > 10 {
		return 10
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
