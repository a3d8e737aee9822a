package domain

import "strings"

const filterAll = "all"

// containsFold reports whether term occurs in s, ignoring case. An empty
// term matches everything.
func containsFold(s, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(term))
}

func anyValue(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, filterAll)
}
