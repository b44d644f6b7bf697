package mrz

import "strings"

// ScanText searches free-form extracted text for two consecutive lines that
// look like a TD3 machine-readable zone. It is a best-effort heuristic:
// callers must treat a non-match as "MRZ unavailable", not as an error, and
// must not assume a returned pair parses cleanly.
func ScanText(text string) (line1, line2 string, ok bool) {
	var candidates []string
	for _, raw := range strings.Split(text, "\n") {
		cleaned := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
		if len(cleaned) < LineLength-2 || len(cleaned) > LineLength+2 {
			continue
		}
		if mrzCharRatio(cleaned) < 0.9 {
			continue
		}
		if len(cleaned) > LineLength {
			cleaned = cleaned[:LineLength]
		}
		candidates = append(candidates, cleaned)
	}

	for i := 0; i+1 < len(candidates); i++ {
		first, second := candidates[i], candidates[i+1]
		if len(first) != LineLength || len(second) != LineLength {
			continue
		}
		if first[0] != 'P' || first[1] != filler {
			continue
		}
		if !hasDigit(second[birthDateStart:birthDateEnd]) {
			continue
		}
		return first, second, true
	}
	return "", "", false
}

func mrzCharRatio(s string) float64 {
	if s == "" {
		return 0
	}
	valid := 0
	for i := 0; i < len(s); i++ {
		if _, ok := charValue(s[i]); ok {
			valid++
		}
	}
	return float64(valid) / float64(len(s))
}

func hasDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}
	return false
}
