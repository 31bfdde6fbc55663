package engine

import (
	"strings"

	"github.com/bharatprops/lifecycle-api/internal/domain"
)

// Intent labels produced by DetectIntent
const (
	IntentInvestor = "investor"
	IntentEndUser  = "end_user"
)

var investorKeywords = []string{
	"investor",
	"investment",
	"roi",
	"rental yield",
	"rental income",
	"resale",
	"appreciation",
	"portfolio",
}

// DetectIntent classifies a lead as investor or end-user from its tags,
// notes and activity notes. The default is end-user; investor wins only
// on an explicit keyword hit.
func DetectIntent(lead *domain.Lead, activities []domain.Activity) string {
	if lead == nil {
		return IntentEndUser
	}

	for _, tag := range lead.Tags {
		if containsInvestorKeyword(tag) {
			return IntentInvestor
		}
	}
	if containsInvestorKeyword(lead.Notes) {
		return IntentInvestor
	}
	for _, act := range activities {
		if containsInvestorKeyword(act.Notes) {
			return IntentInvestor
		}
	}
	return IntentEndUser
}

func containsInvestorKeyword(s string) bool {
	if s == "" {
		return false
	}
	s = strings.ToLower(s)
	for _, kw := range investorKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// normalizeKey folds a free-text lookup key (lead source, budget match)
// to the lower-cased, trimmed form the config tables are keyed by.
func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
