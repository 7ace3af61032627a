package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"labvault.app/internal/reports"
)

const (
	defaultBaseURL = "https://api.openai.com/v1/chat/completions"
	defaultModel   = "gpt-4o-mini"
)

// OpenAI generates report insights through the chat completions API. The
// model is instructed to answer with a strict JSON object matching
// reports.Insights.
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// OpenAIOption configures OpenAI.
type OpenAIOption func(*OpenAI)

// WithModel overrides the default model.
func WithModel(model string) OpenAIOption {
	return func(o *OpenAI) {
		if model != "" {
			o.model = model
		}
	}
}

// WithBaseURL points the generator at a different completions endpoint.
func WithBaseURL(u string) OpenAIOption {
	return func(o *OpenAI) {
		if u != "" {
			o.baseURL = u
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) OpenAIOption {
	return func(o *OpenAI) {
		if h != nil {
			o.http = h
		}
	}
}

// NewOpenAI builds a generator. The API key is required.
func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAI, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("insight: missing API key")
	}
	o := &OpenAI{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

const systemPrompt = "You are a clinical lab assistant summarizing blood test results for a patient. " +
	"Answer with a single JSON object with keys: summary (string), recommendations (array of strings), " +
	"risk_assessment (string), critical_parameters (array of parameter names). " +
	"Be factual, avoid diagnoses, and advise consulting a doctor for abnormal values."

func (o *OpenAI) Generate(ctx context.Context, report *reports.Report) (*reports.Insights, error) {
	payload := map[string]any{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": describeReport(report)},
		},
		"temperature":     0.2,
		"response_format": map[string]string{"type": "json_object"},
	}
	buf, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("insight: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("insight: openai error: %s", resp.Status)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("insight: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("insight: empty completion")
	}

	var insights reports.Insights
	if err := json.Unmarshal([]byte(out.Choices[0].Message.Content), &insights); err != nil {
		return nil, fmt.Errorf("insight: malformed completion: %w", err)
	}
	if insights.Summary == "" {
		return nil, errors.New("insight: completion missing summary")
	}
	return &insights, nil
}

func describeReport(report *reports.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lab report dated %s", report.ReportDate.Format("2006-01-02"))
	if report.LabName != "" {
		fmt.Fprintf(&b, " from %s", report.LabName)
	}
	b.WriteString(". Parameters:\n")
	for _, p := range report.Parameters {
		fmt.Fprintf(&b, "- %s: %s", p.Name, p.Value)
		if p.Unit != "" {
			fmt.Fprintf(&b, " %s", p.Unit)
		}
		if p.NormalRange != "" {
			fmt.Fprintf(&b, " (normal: %s)", p.NormalRange)
		}
		fmt.Fprintf(&b, " [%s/%s]\n", p.Status, p.RiskLevel)
	}
	return b.String()
}
