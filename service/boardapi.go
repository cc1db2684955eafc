package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blake-osondu/jobdroid-service/model"
)

// BoardAdapter speaks to job boards that expose a JSON application API.
// One instance covers one platform; the orchestrator drives it through
// the PlatformAdapter contract.
type BoardAdapter struct {
	platform   string
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// NewBoardAdapter creates an adapter for a JSON job-board API.
func NewBoardAdapter(platform, baseURL, apiToken string) *BoardAdapter {
	return &BoardAdapter{
		platform: platform,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (a *BoardAdapter) Platform() string { return a.platform }

type boardSearchResponse struct {
	Jobs     []boardJob `json:"jobs"`
	NextPage string     `json:"next_page"`
}

type boardJob struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Company    string `json:"company"`
	Location   string `json:"location"`
	Salary     int    `json:"salary"`
	URL        string `json:"url"`
	Experience string `json:"experience_level"`
}

type boardDetailResponse struct {
	Job         boardJob          `json:"job"`
	Description string            `json:"description"`
	Expired     bool              `json:"expired"`
	Form        []boardFormField  `json:"form"`
	Metadata    map[string]string `json:"metadata"`
}

type boardFormField struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder"`
	Kind        string `json:"kind"`
	Required    bool   `json:"required"`
}

type boardSubmitRequest struct {
	Fields map[string]string `json:"fields"`
}

type boardSubmitResponse struct {
	Confirmed bool   `json:"confirmed"`
	Reference string `json:"reference"`
	ErrorMsg  string `json:"error,omitempty"`
}

// SearchJobs fetches one page of postings matching the preferences.
func (a *BoardAdapter) SearchJobs(ctx context.Context, prefs model.Preferences, pageToken string, session Session) (SearchPage, error) {
	q := url.Values{}
	if len(prefs.Titles) > 0 {
		q.Set("q", strings.Join(prefs.Titles, " "))
	}
	if len(prefs.Locations) > 0 {
		q.Set("location", strings.Join(prefs.Locations, ","))
	}
	if prefs.MinSalary > 0 {
		q.Set("min_salary", fmt.Sprintf("%d", prefs.MinSalary))
	}
	if pageToken != "" {
		q.Set("page", pageToken)
	}

	var result boardSearchResponse
	if err := a.doJSON(ctx, http.MethodGet, "/jobs?"+q.Encode(), nil, &result, session); err != nil {
		return SearchPage{}, err
	}

	page := SearchPage{NextPageToken: result.NextPage}
	for _, j := range result.Jobs {
		page.Postings = append(page.Postings, a.toPosting(j))
	}
	return page, nil
}

// ParseJobDetails loads the posting's detail record and form schema.
func (a *BoardAdapter) ParseJobDetails(ctx context.Context, posting model.JobPosting, session Session) (JobDetail, error) {
	var result boardDetailResponse
	if err := a.doJSON(ctx, http.MethodGet, "/jobs/"+url.PathEscape(posting.ID), nil, &result, session); err != nil {
		return JobDetail{}, err
	}

	detail := JobDetail{
		Posting:     posting,
		Description: result.Description,
		Expired:     result.Expired,
	}
	for _, f := range result.Form {
		detail.Form.Fields = append(detail.Form.Fields, model.FormField{
			ID:          f.ID,
			Label:       f.Label,
			Placeholder: f.Placeholder,
			Kind:        f.Kind,
			Required:    f.Required,
		})
	}
	return detail, nil
}

// ValidatePosting rejects expired postings and ones with no form.
func (a *BoardAdapter) ValidatePosting(_ context.Context, detail JobDetail) bool {
	return !detail.Expired && len(detail.Form.Fields) > 0
}

// SubmitApplication posts the mapped form values.
func (a *BoardAdapter) SubmitApplication(ctx context.Context, detail JobDetail, mapping model.FieldMapping, session Session) (SubmissionResult, error) {
	req := boardSubmitRequest{Fields: mapping.ResolvedValues()}

	var result boardSubmitResponse
	path := "/jobs/" + url.PathEscape(detail.Posting.ID) + "/apply"
	if err := a.doJSON(ctx, http.MethodPost, path, req, &result, session); err != nil {
		return SubmissionResult{}, err
	}
	if !result.Confirmed {
		reason := result.ErrorMsg
		if reason == "" {
			reason = "no reason given"
		}
		return SubmissionResult{}, model.Permanent(fmt.Errorf("application rejected: %s", reason))
	}
	return SubmissionResult{Confirmed: true, ConfirmedID: result.Reference}, nil
}

// doJSON performs one API call with the session identity attached and
// classifies failures as transient or permanent.
func (a *BoardAdapter) doJSON(ctx context.Context, method, path string, body, out any, session Session) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if a.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiToken)
	}
	req.Header.Set("Content-Type", "application/json")
	if session.ID != "" {
		req.Header.Set("X-Session-ID", session.ID)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return model.Transient(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Transient(fmt.Errorf("failed to read response: %w", err))
	}

	if err := classifyStatus(resp.StatusCode, data); err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return model.Transient(fmt.Errorf("failed to parse response: %w, body: %s", err, string(data)))
		}
	}
	return nil
}

// classifyStatus maps HTTP status codes onto the retry taxonomy.
// Timeouts, throttling, and server errors are worth retrying; client
// errors are not.
func classifyStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
		return model.Transient(fmt.Errorf("platform returned %d: %s", status, string(body)))
	default:
		return model.Permanent(fmt.Errorf("platform returned %d: %s", status, string(body)))
	}
}

func (a *BoardAdapter) toPosting(j boardJob) model.JobPosting {
	return model.JobPosting{
		ID:         j.ID,
		Platform:   a.platform,
		Title:      j.Title,
		Company:    j.Company,
		Location:   j.Location,
		Salary:     j.Salary,
		URL:        j.URL,
		Experience: j.Experience,
	}
}
