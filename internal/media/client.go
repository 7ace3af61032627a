package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"labvault.app/internal/reports"
)

const defaultTimeout = 30 * time.Second

// Client uploads report files to a cloudinary-style media host. Files land
// under the configured folder; the host hands back a public id used for later
// deletion.
type Client struct {
	baseURL string
	apiKey  string
	folder  string
	http    *http.Client
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

// WithFolder places uploads under a named folder on the media host.
func WithFolder(folder string) ClientOption {
	return func(c *Client) { c.folder = folder }
}

// NewClient builds a media client for the given host.
func NewClient(baseURL, apiKey string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("media: base url is required")
	}
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		folder:  "reports",
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

func (c *Client) Upload(ctx context.Context, data []byte, originalName, fileType string) (reports.MediaObject, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", originalName)
	if err != nil {
		return reports.MediaObject{}, err
	}
	if _, err := part.Write(data); err != nil {
		return reports.MediaObject{}, err
	}
	if err := mw.WriteField("folder", c.folder); err != nil {
		return reports.MediaObject{}, err
	}
	if err := mw.WriteField("resource_type", resourceTypeFor(fileType)); err != nil {
		return reports.MediaObject{}, err
	}
	if err := mw.Close(); err != nil {
		return reports.MediaObject{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return reports.MediaObject{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return reports.MediaObject{}, fmt.Errorf("media upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return reports.MediaObject{}, fmt.Errorf("media upload: unexpected status %d", resp.StatusCode)
	}

	var payload uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return reports.MediaObject{}, fmt.Errorf("media upload: decode response: %w", err)
	}
	if payload.SecureURL == "" || payload.PublicID == "" {
		return reports.MediaObject{}, fmt.Errorf("media upload: incomplete response")
	}
	return reports.MediaObject{URL: payload.SecureURL, PublicID: payload.PublicID}, nil
}

func (c *Client) Delete(ctx context.Context, publicID, fileType string) error {
	form := url.Values{
		"public_id":     {publicID},
		"resource_type": {resourceTypeFor(fileType)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/destroy",
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("media delete: %w", err)
	}
	defer resp.Body.Close()
	// A missing asset is already the desired end state.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("media delete: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// resourceTypeFor maps file types to the media host's resource classes. PDFs
// are stored as raw assets, images go through the image pipeline.
func resourceTypeFor(fileType string) string {
	if fileType == "pdf" {
		return "raw"
	}
	return "image"
}
