package utils

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// WarningSeverity categorizes how serious a finding is.
type WarningSeverity string

const (
	Info    WarningSeverity = "info"
	Caution WarningSeverity = "caution"
	High    WarningSeverity = "high"
)

// Warning is a structured finding shown next to the AI analysis.
type Warning struct {
	Code           string          `json:"code"`
	Severity       WarningSeverity `json:"severity"`
	Message        string          `json:"message"`
	Metric         string          `json:"metric,omitempty"`
	Value          float64         `json:"value,omitempty"`
	Limit          float64         `json:"limit,omitempty"`
	PercentOfLimit float64         `json:"percent_of_limit,omitempty"`
	Reference      string          `json:"reference,omitempty"`
}

// AssessmentContext is the slice of a health profile the rules look at.
type AssessmentContext struct {
	AgeYears           int
	Sex                string
	CalorieTarget      float64 // 0 means 2000 kcal
	Conditions         []string
	Allergies          []string
	DietaryPreferences []string
	Medications        []string
}

// LabelFacts is what the nutrient engine needs from a scanned label.
type LabelFacts struct {
	ProductName string
	Nutrients   map[string]float64
	Ingredients []string
	Allergens   []string
}

// Nutrient keys used in FoodAnalysis.Nutrients.
const (
	NutrientCalories   = "calories"
	NutrientProtein    = "protein_g"
	NutrientCarbs      = "carbs_g"
	NutrientFat        = "fat_g"
	NutrientSatFat     = "saturated_fat_g"
	NutrientTransFat   = "trans_fat_g"
	NutrientSugar      = "sugar_g"
	NutrientAddedSugar = "added_sugar_g"
	NutrientFiber      = "fiber_g"
	NutrientSodium     = "sodium_mg"
	NutrientPotassium  = "potassium_mg"
	NutrientServing    = "serving_size_g"
)

var nutrientAliases = map[string][]string{
	NutrientCalories:   {"calories", "energy", "kcal", "energy_kcal", "ENERC_KCAL"},
	NutrientProtein:    {"protein_g", "protein", "PROCNT"},
	NutrientCarbs:      {"carbs_g", "carbohydrates", "carbohydrate", "total_carbohydrate", "carbs", "CHOCDF"},
	NutrientFat:        {"fat_g", "total_fat", "fat", "FAT"},
	NutrientSatFat:     {"saturated_fat_g", "saturated_fat", "sat_fat", "FASAT"},
	NutrientTransFat:   {"trans_fat_g", "trans_fat", "FATRN"},
	NutrientSugar:      {"sugar_g", "sugars", "total_sugars", "sugar", "SUGAR"},
	NutrientAddedSugar: {"added_sugar_g", "added_sugars", "added_sugar", "SUGAR.added"},
	NutrientFiber:      {"fiber_g", "dietary_fiber", "fibre", "fiber", "FIBTG"},
	NutrientSodium:     {"sodium_mg", "sodium", "salt_mg", "NA"},
	NutrientPotassium:  {"potassium_mg", "potassium", "K"},
	NutrientServing:    {"serving_size_g", "serving_weight_g", "serving_g"},
}

// NormalizeNutrients maps label/model spellings onto the canonical keys.
// Unknown keys are kept as-is.
func NormalizeNutrients(in map[string]any) map[string]float64 {
	out := make(map[string]float64, len(in))
	claimed := map[string]bool{}
	for canon, aliases := range nutrientAliases {
		for _, a := range aliases {
			var (
				v  any
				ok bool
				k  string
			)
			for mk, mv := range in {
				if normalizeKey(mk) == normalizeKey(a) {
					v, ok, k = mv, true, mk
					break
				}
			}
			if !ok {
				continue
			}
			if f, good := ToFloat(v); good {
				out[canon] = f
				claimed[k] = true
				break
			}
		}
	}
	for k, v := range in {
		if claimed[k] {
			continue
		}
		if f, ok := ToFloat(v); ok {
			out[normalizeKey(k)] = f
		}
	}
	// Labels often list salt instead of sodium: 1 g salt ≈ 400 mg sodium.
	if _, ok := out[NutrientSodium]; !ok {
		if salt, ok := out["saltg"]; ok {
			out[NutrientSodium] = round2(salt * 400)
		} else if salt, ok := out["salt"]; ok {
			out[NutrientSodium] = round2(salt * 400)
		}
	}
	return out
}

// AssessLabel runs the dietary-guideline rules followed by profile rules.
func AssessLabel(facts LabelFacts, ctx AssessmentContext) []Warning {
	ws := AssessNutrientsDGA(facts.ProductName, facts.Nutrients, ctx)
	ws = append(ws, AssessProfile(facts, ctx)...)
	sort.SliceStable(ws, func(i, j int) bool {
		return severityRank(ws[i].Severity) > severityRank(ws[j].Severity)
	})
	return ws
}

// HasHigh reports whether any finding is high severity.
func HasHigh(ws []Warning) bool {
	for _, w := range ws {
		if w.Severity == High {
			return true
		}
	}
	return false
}

func severityRank(s WarningSeverity) int {
	switch s {
	case High:
		return 2
	case Caution:
		return 1
	}
	return 0
}

// AssessNutrientsDGA applies Dietary Guidelines 2020–2025 thresholds to one
// serving. Rules only fire for nutrients that were reported.
func AssessNutrientsDGA(productName string, n map[string]float64, ctx AssessmentContext) []Warning {
	var ws []Warning

	kcal := n[NutrientCalories]
	carbG, protG, fatG := n[NutrientCarbs], n[NutrientProtein], n[NutrientFat]
	if kcal <= 0 && (carbG > 0 || protG > 0 || fatG > 0) {
		kcal = 4*carbG + 4*protG + 9*fatG
	}

	kcalTarget := ctx.CalorieTarget
	if kcalTarget <= 0 {
		kcalTarget = 2000
	}

	// Added sugars: <10% kcal/day, none under age 2.
	added, total := n[NutrientAddedSugar], n[NutrientSugar]
	if ctx.AgeYears > 0 && ctx.AgeYears < 2 {
		if added > 0 {
			ws = append(ws, Warning{
				Code: "added_sugars_infants", Severity: High,
				Message: "Under age 2: avoid added sugars.",
				Metric:  "added_sugar_g", Value: round2(added),
				Reference: dgaRef("Added sugars: avoid for <2y"),
			})
		}
	} else {
		switch {
		case kcal > 0 && added > 0 && added*4/kcal >= 0.10:
			pct := added * 4 / kcal * 100
			ws = append(ws, Warning{
				Code: "added_sugars_high_item", Severity: High,
				Message: fmt.Sprintf("High added sugars for this item (%.0f%% of its calories).", pct),
				Metric:  "added_sugar_%_of_item_kcal", Value: round2(pct), Limit: 10,
				Reference: dgaRef("Added sugars ≤10% kcal"),
			})
		case kcal > 0 && added <= 0 && total > 0 && total*4/kcal >= 0.10:
			pct := total * 4 / kcal * 100
			ws = append(ws, Warning{
				Code: "total_sugars_proxy_high", Severity: Caution,
				Message: fmt.Sprintf("High sugars for this item (%.0f%% of its calories), possibly including added sugars.", pct),
				Metric:  "total_sugar_%_of_item_kcal", Value: round2(pct), Limit: 10,
				Reference: dgaRef("Added sugars ≤10% kcal"),
			})
		}
		if w, ok := dailyShare("added_sugars", "added-sugar", added, kcalTarget*0.10/4, "<10% kcal/day from added sugars"); ok {
			ws = append(ws, w)
		}
	}

	// Saturated fat: <10% kcal/day for age ≥2.
	sat := n[NutrientSatFat]
	if (ctx.AgeYears == 0 || ctx.AgeYears >= 2) && kcal > 0 && sat > 0 && sat*9/kcal >= 0.10 {
		pct := sat * 9 / kcal * 100
		ws = append(ws, Warning{
			Code: "sat_fat_high_item", Severity: High,
			Message: fmt.Sprintf("High saturated fat for this item (%.0f%% of its calories).", pct),
			Metric:  "saturated_fat_%_of_item_kcal", Value: round2(pct), Limit: 10,
			Reference: dgaRef("Saturated fat ≤10% kcal"),
		})
	}
	if w, ok := dailyShare("sat_fat", "saturated-fat", sat, kcalTarget*0.10/9, "<10% kcal/day from saturated fat"); ok {
		ws = append(ws, w)
	}
	if sat <= 0 && containsAny(strings.ToLower(productName), highSatSources...) {
		ws = append(ws, Warning{
			Code: "satfat_source_heuristic", Severity: Info,
			Message:   "Likely high in saturated fat; consider leaner options or plant oils.",
			Reference: dgaRef("Shift from saturated to unsaturated fats"),
		})
	}

	// Sodium: age-aware CDRR.
	sodium := n[NutrientSodium]
	if sodium > 0 {
		limit := sodiumLimitByAge(ctx.AgeYears)
		share := sodium / limit
		switch {
		case share >= 0.40:
			ws = append(ws, sodiumWarning("sodium_very_high", High, "Very high", share))
		case share >= 0.20:
			ws = append(ws, sodiumWarning("sodium_high", Caution, "High", share))
		}
		if kcal > 0 && sodium/kcal*100 >= 400 {
			ws = append(ws, Warning{
				Code: "sodium_dense", Severity: Info,
				Message: "High sodium density relative to calories; consider lower-sodium alternatives.",
				Metric:  "sodium_mg_per_100kcal", Value: round2(sodium / kcal * 100),
				Reference: dgaRef("Choose lower-sodium options"),
			})
		}
		if k := n[NutrientPotassium]; k > 0 && sodium/k > 1.5 {
			ws = append(ws, Warning{
				Code: "sodium_potassium_ratio_high", Severity: Info,
				Message: "Higher sodium relative to potassium; add potassium-rich foods.",
				Metric:  "na_to_k_ratio", Value: round2(sodium / k),
				Reference: dgaRef("Shift to potassium-rich foods while reducing sodium"),
			})
		}
	}

	if trans := n[NutrientTransFat]; trans > 0 {
		sev := Caution
		if trans >= 0.5 {
			sev = High
		}
		ws = append(ws, Warning{
			Code: "trans_fat_present", Severity: sev,
			Message: fmt.Sprintf("Contains trans fat (%.2fg); keep intake as low as possible.", trans),
			Metric:  "trans_fat_g", Value: round2(trans),
			Reference: dgaRef("Avoid trans fat"),
		})
	}

	if fiber := n[NutrientFiber]; kcal > 0 && carbG >= 15 && fiber > 0 {
		per100 := fiber / kcal * 100
		switch {
		case per100 < 1.0:
			ws = append(ws, Warning{
				Code: "fiber_low_nudge", Severity: Info,
				Message: "Low dietary fiber for a carbohydrate food; consider whole grains, fruits or vegetables.",
				Metric:  "fiber_g_per_100kcal", Value: round2(per100),
				Reference: dgaRef("Emphasize fiber-rich foods"),
			})
		case per100 >= 2.5:
			ws = append(ws, Warning{
				Code: "fiber_high_positive", Severity: Info,
				Message: "Good fiber density.",
				Metric:  "fiber_g_per_100kcal", Value: round2(per100),
				Reference: dgaRef("Emphasize fiber-rich foods"),
			})
		}
	}

	if serving := n[NutrientServing]; serving > 0 && kcal > 0 {
		per100g := kcal / serving * 100
		if per100g >= 275 {
			ws = append(ws, Warning{
				Code: "energy_density_very_high", Severity: Info,
				Message: "Very energy-dense food; mindful portions help it fit a healthy pattern.",
				Metric:  "kcal_per_100g", Value: round2(per100g),
				Reference: dgaRef("Moderate high-energy-density foods"),
			})
		}
	}

	return ws
}

// AssessProfile matches the label against the user's allergies, conditions
// and dietary preferences.
func AssessProfile(facts LabelFacts, ctx AssessmentContext) []Warning {
	var ws []Warning
	corpus := strings.ToLower(strings.Join(append(append([]string{facts.ProductName}, facts.Ingredients...), facts.Allergens...), " | "))
	n := facts.Nutrients

	for _, allergy := range ctx.Allergies {
		a := strings.ToLower(strings.TrimSpace(allergy))
		if a == "" {
			continue
		}
		terms := append([]string{a}, allergenSynonyms[a]...)
		if hit := firstContained(corpus, terms); hit != "" {
			ws = append(ws, Warning{
				Code: "allergen_match", Severity: High,
				Message: fmt.Sprintf("Contains %s, which matches your %s allergy.", hit, allergy),
			})
		}
	}

	for _, cond := range ctx.Conditions {
		c := strings.ToLower(cond)
		switch {
		case strings.Contains(c, "diabet"):
			sugar := math.Max(n[NutrientSugar], n[NutrientAddedSugar])
			if sugar >= 10 {
				ws = append(ws, Warning{
					Code: "diabetes_sugar", Severity: High,
					Message: fmt.Sprintf("%.0fg sugar per serving; this can raise blood glucose quickly.", sugar),
					Metric:  "sugar_g", Value: round2(sugar), Limit: 10,
				})
			} else if sugar >= 5 {
				ws = append(ws, Warning{
					Code: "diabetes_sugar", Severity: Caution,
					Message: fmt.Sprintf("Moderate sugar (%.0fg per serving); account for it in your carb budget.", sugar),
					Metric:  "sugar_g", Value: round2(sugar), Limit: 10,
				})
			}
		case strings.Contains(c, "hypertension"), strings.Contains(c, "blood pressure"), strings.Contains(c, "heart"):
			if sodium := n[NutrientSodium]; sodium >= 460 {
				ws = append(ws, Warning{
					Code: "hypertension_sodium", Severity: High,
					Message: fmt.Sprintf("%.0fmg sodium per serving is high for someone managing blood pressure.", sodium),
					Metric:  "sodium_mg", Value: round2(sodium), Limit: 460,
				})
			}
		case strings.Contains(c, "kidney"), strings.Contains(c, "renal"):
			if k := n[NutrientPotassium]; k >= 300 {
				ws = append(ws, Warning{
					Code: "kidney_potassium", Severity: Caution,
					Message: fmt.Sprintf("%.0fmg potassium per serving; check against your renal diet limits.", k),
					Metric:  "potassium_mg", Value: round2(k), Limit: 300,
				})
			}
		case strings.Contains(c, "celiac"), strings.Contains(c, "coeliac"), strings.Contains(c, "gluten"):
			if hit := firstContained(corpus, glutenSources); hit != "" {
				ws = append(ws, Warning{
					Code: "gluten_present", Severity: High,
					Message: fmt.Sprintf("Contains %s (gluten source).", hit),
				})
			}
		case strings.Contains(c, "lactose"):
			if hit := firstContained(corpus, dairySources); hit != "" {
				ws = append(ws, Warning{
					Code: "lactose_present", Severity: Caution,
					Message: fmt.Sprintf("Contains %s, which may contain lactose.", hit),
				})
			}
		case strings.Contains(c, "cholesterol"):
			if sat := n[NutrientSatFat]; sat >= 4 {
				ws = append(ws, Warning{
					Code: "cholesterol_sat_fat", Severity: Caution,
					Message: fmt.Sprintf("%.1fg saturated fat per serving; limit when managing cholesterol.", sat),
					Metric:  "saturated_fat_g", Value: round2(sat),
				})
			}
		}
	}

	for _, pref := range ctx.DietaryPreferences {
		p := strings.ToLower(pref)
		var sources []string
		switch {
		case strings.Contains(p, "vegan"):
			sources = append(append(append([]string{}, meatSources...), dairySources...), "egg", "honey", "gelatin")
		case strings.Contains(p, "vegetarian"):
			sources = append(append([]string{}, meatSources...), "gelatin")
		case strings.Contains(p, "halal"), strings.Contains(p, "kosher"):
			sources = []string{"pork", "lard", "bacon", "ham"}
		default:
			continue
		}
		if hit := firstContained(corpus, sources); hit != "" {
			ws = append(ws, Warning{
				Code: "diet_conflict", Severity: Caution,
				Message: fmt.Sprintf("Contains %s, which conflicts with your %s preference.", hit, pref),
			})
		}
	}
	return ws
}

func dailyShare(code, label string, grams, dailyLimit float64, ref string) (Warning, bool) {
	if grams <= 0 || dailyLimit <= 0 {
		return Warning{}, false
	}
	share := grams / dailyLimit
	w := Warning{
		Metric:         code + "_%_of_daily_limit",
		Value:          round2(share * 100),
		Limit:          100,
		PercentOfLimit: round2(share * 100),
		Reference:      dgaRef(ref),
	}
	switch {
	case share >= 0.40:
		w.Code, w.Severity = code+"_very_high_daily_share", High
		w.Message = fmt.Sprintf("This serving provides ~%.0f%% of the daily %s limit.", share*100, label)
	case share >= 0.20:
		w.Code, w.Severity = code+"_high_daily_share", Caution
		w.Message = fmt.Sprintf("High share of the daily %s limit from one serving (~%.0f%%).", label, share*100)
	default:
		return Warning{}, false
	}
	return w, true
}

func sodiumWarning(code string, sev WarningSeverity, adj string, share float64) Warning {
	return Warning{
		Code:           code,
		Severity:       sev,
		Message:        fmt.Sprintf("%s sodium for one serving (≈%.0f%% of the daily limit).", adj, share*100),
		Metric:         "sodium_%_of_daily_limit_per_serving",
		Value:          round2(share * 100),
		Limit:          100,
		PercentOfLimit: round2(share * 100),
		Reference:      dgaRef("Limit sodium (CDRR)"),
	}
}

func sodiumLimitByAge(age int) float64 {
	switch {
	case age > 0 && age <= 3:
		return 1200
	case age >= 4 && age <= 8:
		return 1500
	case age >= 9 && age <= 13:
		return 1800
	default:
		return 2300
	}
}

func dgaRef(where string) string {
	return "Dietary Guidelines for Americans, 2020–2025: " + where
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func containsAny(s string, subs ...string) bool {
	return firstContained(s, subs) != ""
}

func firstContained(s string, subs []string) string {
	for _, sub := range subs {
		if sub != "" && containsAffirmed(s, sub) {
			return sub
		}
	}
	return ""
}

var negatingPrefixes = []string{"no ", "non-", "non ", "without ", "free of ", "free from ", "zero "}

// containsAffirmed reports whether sub occurs in s at least once outside a
// negation such as "gluten-free", "dairy free" or "no milk".
func containsAffirmed(s, sub string) bool {
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], sub)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(sub)
		for end < len(s) && isWordByte(s[end]) {
			end++
		}
		if !negatedAt(s, start, end) {
			return true
		}
		from = start + len(sub)
	}
	return false
}

func negatedAt(s string, start, end int) bool {
	rest := s[end:]
	if (strings.HasPrefix(rest, "-free") || strings.HasPrefix(rest, " free")) &&
		(len(rest) == 5 || !isWordByte(rest[5])) {
		return true
	}
	head := s[:start]
	for _, p := range negatingPrefixes {
		if strings.HasSuffix(head, p) {
			k := len(head) - len(p)
			if k == 0 || !isWordByte(head[k-1]) {
				return true
			}
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

var (
	highSatSources = []string{"butter", "ghee", "cream", "cheese", "bacon", "sausage", "shortening", "palm oil", "palm kernel", "coconut oil", "lard"}
	glutenSources  = []string{"wheat", "barley", "rye", "malt", "semolina", "spelt", "gluten"}
	dairySources   = []string{"milk", "whey", "casein", "lactose", "cream", "butter", "cheese", "yogurt"}
	meatSources    = []string{"beef", "pork", "chicken", "fish", "anchov", "gelatin", "lard", "bacon", "ham", "meat"}

	allergenSynonyms = map[string][]string{
		"peanut":    {"peanut", "groundnut", "arachis"},
		"peanuts":   {"peanut", "groundnut", "arachis"},
		"tree nuts": {"almond", "cashew", "hazelnut", "walnut", "pecan", "pistachio", "macadamia"},
		"nuts":      {"almond", "cashew", "hazelnut", "walnut", "pecan", "pistachio", "peanut"},
		"milk":      dairySources,
		"dairy":     dairySources,
		"egg":       {"egg", "albumin", "lysozyme"},
		"eggs":      {"egg", "albumin", "lysozyme"},
		"soy":       {"soy", "soya", "lecithin (soy"},
		"wheat":     glutenSources,
		"gluten":    glutenSources,
		"fish":      {"fish", "anchov", "cod", "salmon", "tuna"},
		"shellfish": {"shrimp", "prawn", "crab", "lobster", "shellfish"},
		"sesame":    {"sesame", "tahini"},
	}
)
