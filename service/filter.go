package service

import (
	"strings"

	"github.com/blake-osondu/jobdroid-service/model"
)

// MatchesPreferences reports whether a posting passes every active
// filter: title keyword, location substring, salary threshold, and
// experience level. Inactive filters (empty preference) always pass.
func MatchesPreferences(posting model.JobPosting, prefs model.Preferences) bool {
	return matchesTitle(posting.Title, prefs.Titles) &&
		matchesLocation(posting.Location, prefs.Locations) &&
		matchesSalary(posting.Salary, prefs.MinSalary) &&
		matchesExperience(posting.Experience, prefs.ExperienceLevel)
}

// matchesTitle requires at least one preferred keyword to appear as a
// whole word in the posting title.
func matchesTitle(title string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}

	tokens := tokenize(title)
	for _, keyword := range keywords {
		want := tokenize(keyword)
		if len(want) == 0 {
			continue
		}
		if containsAll(tokens, want) {
			return true
		}
	}
	return false
}

// matchesLocation uses case-insensitive substring matching; "Remote"
// in preferences matches "Remote (US)" in a posting.
func matchesLocation(location string, preferred []string) bool {
	if len(preferred) == 0 {
		return true
	}

	location = strings.ToLower(location)
	for _, p := range preferred {
		if strings.Contains(location, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// matchesSalary passes postings with unknown salary; filtering blind
// would silently drop most listings.
func matchesSalary(salary, minSalary int) bool {
	if minSalary <= 0 || salary <= 0 {
		return true
	}
	return salary >= minSalary
}

func matchesExperience(level, preferred string) bool {
	if preferred == "" || level == "" {
		return true
	}
	return strings.EqualFold(level, preferred)
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}

func containsAll(tokens, want []string) bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}
