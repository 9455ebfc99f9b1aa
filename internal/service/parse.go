package service

// Parsing helpers for model output. Upstream models often wrap JSON in
// prose or code fences, so extraction is greedy: first balanced {...} span,
// falling back to the first balanced [...] span.

func extractJSON(s string) string {
	start := -1
	end := -1
	braceCount := 0

	for i, c := range s {
		if c == '{' {
			if start == -1 {
				start = i
			}
			braceCount++
		} else if c == '}' {
			braceCount--
			if braceCount == 0 && start != -1 {
				end = i + 1
				break
			}
		}
	}

	if start == -1 || end == -1 {
		return extractJSONArray(s)
	}
	return s[start:end]
}

func extractJSONArray(s string) string {
	start := -1
	end := -1
	bracketCount := 0

	for i, c := range s {
		if c == '[' {
			if start == -1 {
				start = i
			}
			bracketCount++
		} else if c == ']' {
			bracketCount--
			if bracketCount == 0 && start != -1 {
				end = i + 1
				break
			}
		}
	}

	if start == -1 || end == -1 {
		return ""
	}
	return s[start:end]
}

// asFloat coerces a loosely typed JSON value to float64.
func asFloat(v any, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return fallback
}

// asString coerces a loosely typed JSON value to string.
func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asStringSlice coerces a loosely typed JSON array to []string, dropping
// non-string elements.
func asStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
