package router

import "strings"

// matchKeyword returns the first keyword of the entry that appears in the
// query as a whole word or phrase, case-insensitively. Longer keywords are
// checked first so the more specific trigger wins.
func matchKeyword(query string, keywords []string) (string, bool) {
	queryLower := strings.ToLower(query)

	ordered := make([]string, len(keywords))
	copy(ordered, keywords)
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if len(ordered[j]) > len(ordered[i]) {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}

	for _, keyword := range ordered {
		if keyword == "" {
			continue
		}
		if containsPhrase(queryLower, strings.ToLower(keyword)) {
			return keyword, true
		}
	}
	return "", false
}

// containsPhrase checks for the phrase on word boundaries.
func containsPhrase(query, phrase string) bool {
	idx := strings.Index(query, phrase)
	if idx == -1 {
		return false
	}

	if idx > 0 && isWordChar(query[idx-1]) {
		return false
	}
	if end := idx + len(phrase); end < len(query) && isWordChar(query[end]) {
		return false
	}
	return true
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}
