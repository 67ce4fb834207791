package services

import (
	"fmt"
	"strings"
)

// ProfileSummary is the part of the health profile sent to the model.
type ProfileSummary struct {
	Age                int
	Sex                string
	HeightCm           float64
	WeightKg           float64
	BMI                float64
	ActivityLevel      string
	Conditions         []string
	Allergies          []string
	DietaryPreferences []string
	Medications        []string
	Goals              []string
}

func (p ProfileSummary) String() string {
	var b strings.Builder
	line := func(label, v string) {
		if v != "" {
			fmt.Fprintf(&b, "- %s: %s\n", label, v)
		}
	}
	if p.Age > 0 {
		line("Age", fmt.Sprintf("%d", p.Age))
	}
	line("Sex", p.Sex)
	if p.HeightCm > 0 && p.WeightKg > 0 {
		line("Height/weight", fmt.Sprintf("%.0f cm / %.1f kg (BMI %.1f)", p.HeightCm, p.WeightKg, p.BMI))
	}
	line("Activity level", p.ActivityLevel)
	line("Health conditions", listOrNone(p.Conditions))
	line("Allergies", listOrNone(p.Allergies))
	line("Dietary preferences", strings.Join(p.DietaryPreferences, ", "))
	line("Current medications", listOrNone(p.Medications))
	line("Goals", strings.Join(p.Goals, ", "))
	return b.String()
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none reported"
	}
	return strings.Join(items, ", ")
}

func foodPrompt(labelText string, p ProfileSummary) string {
	return fmt.Sprintf(`You are a registered dietitian. Analyse this food label for the user below.

User profile:
%s
Label text (OCR):
"""
%s
"""

Respond with a single JSON object and nothing else, using these keys:
{
  "product_name": string,
  "serving_size": string,
  "nutrients": {"calories": number, "protein_g": number, "carbs_g": number, "fat_g": number,
                "saturated_fat_g": number, "trans_fat_g": number, "sugar_g": number, "added_sugar_g": number,
                "fiber_g": number, "sodium_mg": number, "potassium_mg": number, "serving_size_g": number},
  "ingredients": [string],
  "allergens": [string],
  "health_score": integer 1-10,
  "verdict": "safe" | "caution" | "avoid",
  "summary": string,
  "benefits": [string],
  "concerns": [string],
  "recommendations": [string]
}
Omit nutrients that are not on the label. Personalise the verdict and concerns to the profile.`, p, labelText)
}

func medicinePrompt(labelText string, p ProfileSummary) string {
	return fmt.Sprintf(`You are a clinical pharmacist. Explain this medicine label for the user below.

User profile:
%s
Label text (OCR):
"""
%s
"""

Respond with a single JSON object and nothing else, using these keys:
{
  "name": string,
  "generic_name": string,
  "active_ingredients": [string],
  "uses": [string],
  "dosage": string,
  "side_effects": [string],
  "warnings": [string],
  "interactions": [string],
  "contraindications": [string],
  "safe_for_user": boolean,
  "summary": string
}
Check interactions against the user's current medications and conditions.`, p, labelText)
}

func symptomPrompt(req SymptomRequest, p ProfileSummary) string {
	return fmt.Sprintf(`You are a cautious medical triage assistant. You do not diagnose.

User profile:
%s
Reported symptoms: %s
Duration: %s
Severity (1-10): %d
Notes: %s

Respond with a single JSON object and nothing else, using these keys:
{
  "possible_conditions": [{"name": string, "likelihood": "low" | "medium" | "high", "description": string}],
  "urgency": "low" | "moderate" | "high" | "emergency",
  "recommendations": [string],
  "when_to_see_doctor": string,
  "disclaimer": string
}`, p, strings.Join(req.Symptoms, ", "), orUnknown(req.Duration), req.Severity, orUnknown(req.Notes))
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not given"
	}
	return s
}
