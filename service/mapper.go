package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/blake-osondu/jobdroid-service/model"
)

// ResumeURLProvider turns a stored resume object name into a URL a
// platform can fetch during submission.
type ResumeURLProvider interface {
	ResumeURL(ctx context.Context, objectName string) (string, error)
}

// FieldMapper builds the (field → value) assignments for one submission
// attempt. It is pure with respect to the form and profile: given the
// same inputs and a deterministic classifier, it produces the same
// mapping. It never submits anything.
type FieldMapper struct {
	classifier    FieldClassifier
	resumes       ResumeURLProvider // may be nil; resume fields then carry the object name
	minConfidence float64
}

// NewFieldMapper wires a mapper with its classification capability and
// confidence threshold.
func NewFieldMapper(classifier FieldClassifier, resumes ResumeURLProvider, minConfidence float64) *FieldMapper {
	return &FieldMapper{
		classifier:    classifier,
		resumes:       resumes,
		minConfidence: minConfidence,
	}
}

// Map classifies every field in the schema and resolves the known types
// against the profile. Fields below the confidence threshold or of
// unknown type are left unresolved; when such a field is required, Map
// fails with UnmappableFieldError rather than guessing.
func (m *FieldMapper) Map(ctx context.Context, schema model.FormSchema, profile model.ApplicantProfile) (model.FieldMapping, error) {
	mapping := model.FieldMapping{Fields: make([]model.MappedField, 0, len(schema.Fields))}

	for _, field := range schema.Fields {
		cl, err := m.classifier.Classify(ctx, field)
		if err != nil {
			return model.FieldMapping{}, fmt.Errorf("classify field %q: %w", field.ID, err)
		}

		mapped := model.MappedField{
			FieldID:    field.ID,
			Type:       cl.Type,
			Confidence: cl.Confidence,
		}

		if cl.Type == FieldUnknown || cl.Confidence < m.minConfidence {
			if field.Required {
				return model.FieldMapping{}, &model.UnmappableFieldError{
					FieldID:    field.ID,
					Type:       cl.Type,
					Confidence: cl.Confidence,
				}
			}
			mapping.Fields = append(mapping.Fields, mapped)
			continue
		}

		value, ok, err := m.resolve(ctx, cl.Type, profile)
		if err != nil {
			return model.FieldMapping{}, err
		}
		if !ok {
			// Recognized type with no profile attribute behind it.
			if field.Required {
				return model.FieldMapping{}, &model.UnmappableFieldError{
					FieldID:    field.ID,
					Type:       cl.Type,
					Confidence: cl.Confidence,
				}
			}
			mapping.Fields = append(mapping.Fields, mapped)
			continue
		}

		mapped.Value = value
		mapped.Resolved = true
		mapping.Fields = append(mapping.Fields, mapped)
	}

	return mapping, nil
}

// resolve is the fixed type → profile attribute table.
func (m *FieldMapper) resolve(ctx context.Context, fieldType string, profile model.ApplicantProfile) (string, bool, error) {
	switch fieldType {
	case FieldFirstName:
		return profile.FirstName, profile.FirstName != "", nil
	case FieldLastName:
		return profile.LastName, profile.LastName != "", nil
	case FieldFullName:
		name := profile.FullName()
		return name, name != "", nil
	case FieldEmail:
		return profile.Email, profile.Email != "", nil
	case FieldPhone:
		return profile.Phone, profile.Phone != "", nil
	case FieldLocation:
		return profile.Location, profile.Location != "", nil
	case FieldLinkedIn:
		return profile.LinkedInURL, profile.LinkedInURL != "", nil
	case FieldSummary:
		return profile.Summary, profile.Summary != "", nil
	case FieldCoverLetter:
		return profile.CoverLetter, profile.CoverLetter != "", nil
	case FieldEducation:
		return profile.Education, profile.Education != "", nil
	case FieldSalaryExpectation:
		if profile.SalaryExpectation == 0 {
			return "", false, nil
		}
		return strconv.Itoa(profile.SalaryExpectation), true, nil
	case FieldExperienceYears:
		if profile.ExperienceYears == 0 {
			return "", false, nil
		}
		return strconv.Itoa(profile.ExperienceYears), true, nil
	case FieldResumeUpload:
		if profile.ResumeObject == "" {
			return "", false, nil
		}
		if m.resumes == nil {
			return profile.ResumeObject, true, nil
		}
		url, err := m.resumes.ResumeURL(ctx, profile.ResumeObject)
		if err != nil {
			return "", false, fmt.Errorf("resolve resume URL: %w", err)
		}
		return url, true, nil
	}
	return "", false, nil
}
