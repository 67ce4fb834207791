package utils

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var ErrNoJSONObject = errors.New("no JSON object in model output")

var fenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// ExtractJSONObject pulls the first JSON object out of free-form model
// output: bare JSON, fenced ```json blocks, or JSON surrounded by prose.
func ExtractJSONObject(raw string) (map[string]any, error) {
	candidates := []string{strings.TrimSpace(raw)}
	for _, m := range fenceRe.FindAllStringSubmatch(raw, -1) {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if i, j := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); i >= 0 && j > i {
		candidates = append(candidates, raw[i:j+1])
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(c), &obj); err == nil && obj != nil {
			return obj, nil
		}
		// Some replies are a single-element array around the object.
		var arr []map[string]any
		if err := json.Unmarshal([]byte(c), &arr); err == nil && len(arr) > 0 && arr[0] != nil {
			return arr[0], nil
		}
	}
	return nil, ErrNoJSONObject
}

var bulletRe = regexp.MustCompile(`^\s*(?:[-•*]|\d+[.)])\s*`)

var (
	thousandsRe = regexp.MustCompile(`-?\d{1,3}(?:,\d{3})+(?:\.\d+)?`)
	numberRe    = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)
)

// ToFloat coerces numbers, numeric strings ("12.5 g", "1,200 mg", "0,5")
// and bools.
func ToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t)
	case int:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		loc := numberRe.FindStringIndex(t)
		if loc == nil {
			return 0, false
		}
		if tl := thousandsRe.FindStringIndex(t); tl != nil && tl[0] == loc[0] {
			f, err := strconv.ParseFloat(strings.ReplaceAll(t[tl[0]:tl[1]], ",", ""), 64)
			return f, err == nil
		}
		m := strings.ReplaceAll(t[loc[0]:loc[1]], ",", ".")
		f, err := strconv.ParseFloat(m, 64)
		return f, err == nil
	}
	return 0, false
}

// ToString renders scalars as text; nil becomes "".
func ToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		return strings.Join(ToStringSlice(t), ", ")
	}
	b, _ := json.Marshal(v)
	return string(b)
}

// ToStringSlice accepts an array or a delimited string (comma, semicolon,
// newline or bullet list) and returns trimmed, non-empty items.
func ToStringSlice(v any) []string {
	var out []string
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		for _, it := range t {
			if m, ok := it.(map[string]any); ok {
				if s := firstString(m, "name", "title", "text", "description"); s != "" {
					out = append(out, s)
				}
				continue
			}
			if s := ToString(it); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return SplitList(t)
	}
	if s := ToString(v); s != "" {
		return []string{s}
	}
	return nil
}

// SplitList splits free text on newlines, semicolons or commas and strips
// bullet prefixes.
func SplitList(s string) []string {
	sep := ","
	switch {
	case strings.Contains(s, "\n"):
		sep = "\n"
	case strings.Contains(s, ";"):
		sep = ";"
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(bulletRe.ReplaceAllString(part, ""))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// JoinList is the inverse of SplitList for comma-joined profile columns.
func JoinList(items []string) string {
	clean := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			clean = append(clean, it)
		}
	}
	return strings.Join(clean, ",")
}

// Lookup returns the first key present in m, matching case-insensitively
// and treating spaces, dashes and underscores alike.
func Lookup(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	for _, k := range keys {
		nk := normalizeKey(k)
		for mk, v := range m {
			if normalizeKey(mk) == nk {
				return v, true
			}
		}
	}
	return nil, false
}

func firstString(m map[string]any, keys ...string) string {
	v, _ := Lookup(m, keys...)
	return ToString(v)
}

func normalizeKey(k string) string {
	r := strings.NewReplacer(" ", "", "_", "", "-", "")
	return strings.ToLower(r.Replace(k))
}

// StringField, FloatField and ListField read a coerced value by any of keys.
func StringField(m map[string]any, keys ...string) string {
	return firstString(m, keys...)
}

func FloatField(m map[string]any, keys ...string) float64 {
	v, ok := Lookup(m, keys...)
	if !ok {
		return 0
	}
	f, _ := ToFloat(v)
	return f
}

func ListField(m map[string]any, keys ...string) []string {
	v, _ := Lookup(m, keys...)
	return ToStringSlice(v)
}

func BoolField(m map[string]any, keys ...string) (bool, bool) {
	v, ok := Lookup(m, keys...)
	if !ok {
		return false, false
	}
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "safe", "y":
			return true, true
		case "false", "no", "unsafe", "n":
			return false, true
		}
	case float64:
		return t != 0, true
	}
	return false, false
}

// MustJSON marshals v for a text column.
func MustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
