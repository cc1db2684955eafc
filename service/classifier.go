package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/blake-osondu/jobdroid-service/model"
)

// Known field types the mapper can resolve against a profile.
const (
	FieldFirstName         = "first_name"
	FieldLastName          = "last_name"
	FieldFullName          = "full_name"
	FieldEmail             = "email"
	FieldPhone             = "phone"
	FieldLocation          = "location"
	FieldLinkedIn          = "linkedin"
	FieldSummary           = "summary"
	FieldCoverLetter       = "cover_letter"
	FieldResumeUpload      = "resume_upload"
	FieldSalaryExpectation = "salary_expectation"
	FieldExperienceYears   = "experience_years"
	FieldEducation         = "education"
	FieldUnknown           = "unknown"
)

// Classification is the typed result of classifying one form field.
type Classification struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// FieldClassifier determines the purpose of a form field. Implementations
// must be deterministic for identical inputs so that mapping is
// reproducible; swapping implementations requires no orchestrator change.
type FieldClassifier interface {
	Classify(ctx context.Context, field model.FormField) (Classification, error)
}

// fieldPattern scores one recognizable field type.
type fieldPattern struct {
	fieldType string
	re        *regexp.Regexp
}

// Ordered: more specific patterns first so "first_name" wins over
// "full_name" on a field named first_name.
var fieldPatterns = []fieldPattern{
	{FieldFirstName, regexp.MustCompile(`first[_\- ]?name|given[_\- ]?name`)},
	{FieldLastName, regexp.MustCompile(`last[_\- ]?name|family[_\- ]?name|surname`)},
	{FieldFullName, regexp.MustCompile(`full[_\- ]?name|\bname\b`)},
	{FieldEmail, regexp.MustCompile(`e[_\- ]?mail`)},
	{FieldPhone, regexp.MustCompile(`phone|telephone|mobile|cell`)},
	{FieldLinkedIn, regexp.MustCompile(`linked[_\- ]?in`)},
	{FieldLocation, regexp.MustCompile(`location|city|address`)},
	{FieldCoverLetter, regexp.MustCompile(`cover[_\- ]?letter|introduction|motivation`)},
	{FieldResumeUpload, regexp.MustCompile(`resume|\bcv\b|curriculum|upload|attachment`)},
	{FieldSalaryExpectation, regexp.MustCompile(`salary|compensation|pay[_\- ]?expectation`)},
	{FieldExperienceYears, regexp.MustCompile(`years[_\- ]?(of[_\- ]?)?experience|experience[_\- ]?years|\bexperience\b`)},
	{FieldEducation, regexp.MustCompile(`education|degree|qualification`)},
	{FieldSummary, regexp.MustCompile(`summary|about[_\- ]?(you|me)|bio\b`)},
}

// PatternClassifier classifies fields by matching their id, label, and
// placeholder against a fixed pattern table. It needs no network and is
// fully deterministic.
type PatternClassifier struct{}

// NewPatternClassifier returns the default rule-based classifier.
func NewPatternClassifier() *PatternClassifier {
	return &PatternClassifier{}
}

// Classify scores the field against the pattern table. A hit on the
// field id scores highest, label next, placeholder lowest; no hit
// returns FieldUnknown with zero confidence.
func (c *PatternClassifier) Classify(_ context.Context, field model.FormField) (Classification, error) {
	id := strings.ToLower(field.ID)
	label := strings.ToLower(field.Label)
	placeholder := strings.ToLower(field.Placeholder)

	// A file input that matches nothing else is almost certainly the
	// resume slot on an application form.
	if field.Kind == "file" {
		if cl, ok := match(id, 0.95); ok {
			return cl, nil
		}
		return Classification{Type: FieldResumeUpload, Confidence: 0.75}, nil
	}

	if cl, ok := match(id, 0.95); ok {
		return cl, nil
	}
	if cl, ok := match(label, 0.85); ok {
		return cl, nil
	}
	if cl, ok := match(placeholder, 0.6); ok {
		return cl, nil
	}

	return Classification{Type: FieldUnknown, Confidence: 0}, nil
}

func match(text string, confidence float64) (Classification, bool) {
	if text == "" {
		return Classification{}, false
	}
	for _, p := range fieldPatterns {
		if p.re.MatchString(text) {
			return Classification{Type: p.fieldType, Confidence: confidence}, true
		}
	}
	return Classification{}, false
}
