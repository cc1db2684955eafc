package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/blake-osondu/jobdroid-service/config"
	"github.com/blake-osondu/jobdroid-service/model"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

const classifyPrompt = `You classify fields on job application forms.

Given the field below, answer with valid JSON only. Do not wrap the output in markdown code blocks.

Allowed types: first_name, last_name, full_name, email, phone, location, linkedin, summary, cover_letter, resume_upload, salary_expectation, experience_years, education, unknown.

Output schema:
{"type": "<one allowed type>", "confidence": <0.0 to 1.0>}

Field:
  id: %q
  label: %q
  placeholder: %q
  kind: %q
`

// LLMClassifier classifies form fields with a language model. It
// implements FieldClassifier so the mapper does not care which
// classifier is wired in.
type LLMClassifier struct {
	client llms.Model
}

// NewLLMClassifier initializes the model client from configuration. The
// API key is read from the configured environment variable.
func NewLLMClassifier(ctx context.Context, cfg *config.LLMConfig) (*LLMClassifier, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key: %s is not set", cfg.APIKeyEnv)
	}

	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return &LLMClassifier{client: llm}, nil
}

// Classify asks the model for a typed classification. Responses that are
// not valid JSON or name an unlisted type come back as unknown with zero
// confidence rather than as an error; a transport failure is an error.
func (c *LLMClassifier) Classify(ctx context.Context, field model.FormField) (Classification, error) {
	prompt := fmt.Sprintf(classifyPrompt, field.ID, field.Label, field.Placeholder, field.Kind)

	resp, err := llms.GenerateFromSinglePrompt(ctx, c.client, prompt)
	if err != nil {
		return Classification{}, fmt.Errorf("field classification request failed: %w", err)
	}

	return parseClassification(resp), nil
}

var allowedTypes = map[string]bool{
	FieldFirstName: true, FieldLastName: true, FieldFullName: true,
	FieldEmail: true, FieldPhone: true, FieldLocation: true,
	FieldLinkedIn: true, FieldSummary: true, FieldCoverLetter: true,
	FieldResumeUpload: true, FieldSalaryExpectation: true,
	FieldExperienceYears: true, FieldEducation: true, FieldUnknown: true,
}

func parseClassification(resp string) Classification {
	// Some models wrap JSON in code fences despite instructions.
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")

	var cl Classification
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp)), &cl); err != nil {
		return Classification{Type: FieldUnknown, Confidence: 0}
	}
	if !allowedTypes[cl.Type] {
		return Classification{Type: FieldUnknown, Confidence: 0}
	}
	if cl.Confidence < 0 {
		cl.Confidence = 0
	}
	if cl.Confidence > 1 {
		cl.Confidence = 1
	}
	return cl
}
