package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	cases := map[string]string{
		"bare":        `{"product_name": "Oat Bar", "health_score": 7}`,
		"fenced":      "Here you go:\n```json\n{\"product_name\": \"Oat Bar\", \"health_score\": 7}\n```\nEnjoy!",
		"fenced bare": "```\n{\"product_name\": \"Oat Bar\", \"health_score\": 7}\n```",
		"prose":       `Sure! The analysis is {"product_name": "Oat Bar", "health_score": 7} as requested.`,
		"array":       `[{"product_name": "Oat Bar", "health_score": 7}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			obj, err := ExtractJSONObject(raw)
			require.NoError(t, err)
			assert.Equal(t, "Oat Bar", obj["product_name"])
			assert.Equal(t, float64(7), obj["health_score"])
		})
	}
}

func TestExtractJSONObjectNoObject(t *testing.T) {
	_, err := ExtractJSONObject("I could not read the label, sorry.")
	assert.ErrorIs(t, err, ErrNoJSONObject)

	_, err = ExtractJSONObject("")
	assert.ErrorIs(t, err, ErrNoJSONObject)
}

func TestToFloat(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{12.5, 12.5, true},
		{"12.5 g", 12.5, true},
		{"1,200 mg", 1200, true},
		{"0,5g", 0.5, true},
		{"<1g", 1, true},
		{"trace", 0, false},
		{true, 1, true},
		{nil, 0, false},
	}
	for _, c := range cases {
		got, ok := ToFloat(c.in)
		assert.Equal(t, c.ok, ok, "%v", c.in)
		assert.InDelta(t, c.want, got, 1e-9, "%v", c.in)
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"sugar", "oats", "salt"}, SplitList("sugar, oats, salt"))
	assert.Equal(t, []string{"Take with food", "2 tablets daily"}, SplitList("- Take with food\n- 2 tablets daily"))
	assert.Equal(t, []string{"first", "second"}, SplitList("1. first\n2) second"))
	assert.Empty(t, SplitList("  "))
}

func TestFieldHelpers(t *testing.T) {
	obj := map[string]any{
		"Product Name": "Granola",
		"health-score": "8/10",
		"allergens":    "milk; peanuts",
		"safe":         "yes",
		"concerns":     []any{"sugar", map[string]any{"name": "sodium"}, ""},
	}
	assert.Equal(t, "Granola", StringField(obj, "product_name"))
	assert.Equal(t, float64(8), FloatField(obj, "health_score"))
	assert.Equal(t, []string{"milk", "peanuts"}, ListField(obj, "allergens"))
	assert.Equal(t, []string{"sugar", "sodium"}, ListField(obj, "concerns"))

	safe, ok := BoolField(obj, "safe")
	assert.True(t, ok)
	assert.True(t, safe)

	_, ok = BoolField(obj, "missing")
	assert.False(t, ok)
}

func TestJoinList(t *testing.T) {
	assert.Equal(t, "diabetes,hypertension", JoinList([]string{" diabetes", "", "hypertension "}))
	assert.Equal(t, "", JoinList(nil))
}
