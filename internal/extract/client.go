package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"labvault.app/internal/reports"
)

// Extraction runs against an external model and can take a while on large
// scans.
const defaultTimeout = 2 * time.Minute

// Client calls the document extraction service: it receives a report file
// and returns the structured lab parameters read out of it.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient builds an extractor talking to the given endpoint.
func NewClient(endpoint, apiKey string, opts ...ClientOption) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("extract: endpoint is required")
	}
	c := &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type extractionResponse struct {
	LabName    string              `json:"lab_name"`
	ReportDate string              `json:"report_date"`
	Parameters []reports.Parameter `json:"parameters"`
}

func (c *Client) Extract(ctx context.Context, data []byte, fileType string) (reports.Extraction, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "report."+fileType)
	if err != nil {
		return reports.Extraction{}, err
	}
	if _, err := part.Write(data); err != nil {
		return reports.Extraction{}, err
	}
	if err := mw.WriteField("file_type", fileType); err != nil {
		return reports.Extraction{}, err
	}
	if err := mw.Close(); err != nil {
		return reports.Extraction{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return reports.Extraction{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return reports.Extraction{}, fmt.Errorf("extract: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return reports.Extraction{}, fmt.Errorf("extract: unexpected status %d", resp.StatusCode)
	}

	var payload extractionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&payload); err != nil {
		return reports.Extraction{}, fmt.Errorf("extract: decode response: %w", err)
	}
	if len(payload.Parameters) == 0 {
		return reports.Extraction{}, errors.New("extract: no parameters found")
	}

	out := reports.Extraction{
		LabName:    payload.LabName,
		Parameters: payload.Parameters,
	}
	if payload.ReportDate != "" {
		// Tolerate date-only values alongside full timestamps.
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if ts, err := time.Parse(layout, payload.ReportDate); err == nil {
				out.ReportDate = ts.UTC()
				break
			}
		}
	}
	return out, nil
}

// Disabled is the extractor used when no extraction endpoint is configured.
// Every upload fails processing, but the API surface stays available.
type Disabled struct{}

func (Disabled) Extract(ctx context.Context, data []byte, fileType string) (reports.Extraction, error) {
	return reports.Extraction{}, errors.New("extract: no extraction endpoint configured")
}
