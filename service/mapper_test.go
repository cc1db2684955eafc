package service

import (
	"context"
	"reflect"
	"testing"

	"github.com/blake-osondu/jobdroid-service/model"
)

type fakeResumeProvider struct{}

func (fakeResumeProvider) ResumeURL(_ context.Context, objectName string) (string, error) {
	return "https://resumes.test/" + objectName, nil
}

func testProfile() model.ApplicantProfile {
	return model.ApplicantProfile{
		FirstName:         "Ada",
		LastName:          "Lovelace",
		Email:             "ada@example.com",
		Phone:             "+15551234567",
		Location:          "Remote",
		SalaryExpectation: 120000,
		ExperienceYears:   7,
		ResumeObject:      "ada/resume.pdf",
	}
}

func TestMapperResolvesKnownFields(t *testing.T) {
	mapper := NewFieldMapper(NewPatternClassifier(), fakeResumeProvider{}, 0.7)

	schema := model.FormSchema{Fields: []model.FormField{
		{ID: "first_name", Required: true},
		{ID: "last_name", Required: true},
		{ID: "email", Required: true},
		{ID: "resume", Kind: "file", Required: true},
		{ID: "salary_expectation"},
	}}

	mapping, err := mapper.Map(context.Background(), schema, testProfile())
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	values := mapping.ResolvedValues()
	want := map[string]string{
		"first_name":         "Ada",
		"last_name":          "Lovelace",
		"email":              "ada@example.com",
		"resume":             "https://resumes.test/ada/resume.pdf",
		"salary_expectation": "120000",
	}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("Resolved values = %v, want %v", values, want)
	}
}

func TestMapperPreservesFieldOrder(t *testing.T) {
	mapper := NewFieldMapper(NewPatternClassifier(), nil, 0.7)

	schema := model.FormSchema{Fields: []model.FormField{
		{ID: "email"},
		{ID: "first_name"},
		{ID: "phone"},
	}}

	mapping, err := mapper.Map(context.Background(), schema, testProfile())
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	if len(mapping.Fields) != 3 {
		t.Fatalf("Expected 3 mapped fields, got %d", len(mapping.Fields))
	}
	for i, wantID := range []string{"email", "first_name", "phone"} {
		if mapping.Fields[i].FieldID != wantID {
			t.Errorf("Field %d = %s, want %s", i, mapping.Fields[i].FieldID, wantID)
		}
	}
}

func TestMapperUnknownOptionalFieldUnresolved(t *testing.T) {
	mapper := NewFieldMapper(NewPatternClassifier(), nil, 0.7)

	schema := model.FormSchema{Fields: []model.FormField{
		{ID: "email"},
		{ID: "favorite_dinosaur"},
	}}

	mapping, err := mapper.Map(context.Background(), schema, testProfile())
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	if len(mapping.Fields) != 2 {
		t.Fatalf("Expected 2 mapped fields, got %d", len(mapping.Fields))
	}
	if mapping.Fields[1].Resolved {
		t.Error("Expected unknown field to be unresolved")
	}
	if mapping.Fields[1].Value != "" {
		t.Error("Expected unresolved field to carry no value, never a guess")
	}
}

func TestMapperUnmappableRequiredField(t *testing.T) {
	mapper := NewFieldMapper(NewPatternClassifier(), nil, 0.7)

	schema := model.FormSchema{Fields: []model.FormField{
		{ID: "email"},
		{ID: "favorite_dinosaur", Required: true},
	}}

	_, err := mapper.Map(context.Background(), schema, testProfile())
	if err == nil {
		t.Fatal("Expected UnmappableFieldError")
	}
	if !model.IsUnmappable(err) {
		t.Errorf("Expected unmappable-field error, got %v", err)
	}
}

func TestMapperBelowConfidenceThreshold(t *testing.T) {
	// Placeholder-only hits score 0.6, below a 0.7 threshold.
	mapper := NewFieldMapper(NewPatternClassifier(), nil, 0.7)

	schema := model.FormSchema{Fields: []model.FormField{
		{ID: "f1", Placeholder: "your email", Required: true},
	}}

	_, err := mapper.Map(context.Background(), schema, testProfile())
	if !model.IsUnmappable(err) {
		t.Errorf("Expected unmappable-field error below threshold, got %v", err)
	}
}

func TestMapperRequiredFieldWithEmptyProfileAttribute(t *testing.T) {
	mapper := NewFieldMapper(NewPatternClassifier(), nil, 0.7)

	profile := testProfile()
	profile.Phone = ""

	schema := model.FormSchema{Fields: []model.FormField{
		{ID: "phone", Required: true},
	}}

	_, err := mapper.Map(context.Background(), schema, profile)
	if !model.IsUnmappable(err) {
		t.Errorf("Expected unmappable-field error for empty profile attribute, got %v", err)
	}
}

func TestMapperResumeWithoutProvider(t *testing.T) {
	mapper := NewFieldMapper(NewPatternClassifier(), nil, 0.7)

	schema := model.FormSchema{Fields: []model.FormField{
		{ID: "resume", Kind: "file", Required: true},
	}}

	mapping, err := mapper.Map(context.Background(), schema, testProfile())
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if mapping.Fields[0].Value != "ada/resume.pdf" {
		t.Errorf("Expected raw object name without provider, got %s", mapping.Fields[0].Value)
	}
}

func TestMapperDeterministic(t *testing.T) {
	mapper := NewFieldMapper(NewPatternClassifier(), fakeResumeProvider{}, 0.7)

	schema := model.FormSchema{Fields: []model.FormField{
		{ID: "first_name", Required: true},
		{ID: "email", Required: true},
		{ID: "resume", Kind: "file"},
		{ID: "mystery_field"},
	}}

	first, err := mapper.Map(context.Background(), schema, testProfile())
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	second, err := mapper.Map(context.Background(), schema, testProfile())
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical mappings, got %+v and %+v", first, second)
	}
}
