// Package runware is a client for the Runware image inference API.
package runware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL = "https://api.runware.ai"
	defaultModel   = "runware:100@1"

	taskImageInference = "imageInference"

	// maxImageBytes bounds image downloads.
	maxImageBytes = 32 << 20
)

// ErrMissingAPIKey is returned before any request when no API key is configured.
var ErrMissingAPIKey = eris.New("runware: RUNWARE_API_KEY is not set")

// Client generates and downloads images.
type Client interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*Image, error)
	Download(ctx context.Context, imageURL string) ([]byte, error)
}

// ImageRequest describes one image inference task.
type ImageRequest struct {
	PositivePrompt string
	NegativePrompt string
	Width          int
	Height         int
	Model          string
}

// Image is a generated image.
type Image struct {
	TaskUUID  string  `json:"taskUUID"`
	ImageUUID string  `json:"imageUUID"`
	ImageURL  string  `json:"imageURL"`
	Cost      float64 `json:"cost"`
}

type task struct {
	TaskType       string `json:"taskType"`
	TaskUUID       string `json:"taskUUID"`
	PositivePrompt string `json:"positivePrompt"`
	NegativePrompt string `json:"negativePrompt,omitempty"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Model          string `json:"model"`
	NumberResults  int    `json:"numberResults"`
	OutputType     string `json:"outputType"`
	OutputFormat   string `json:"outputFormat"`
	IncludeCost    bool   `json:"includeCost"`
}

type taskResponse struct {
	Data   []Image     `json:"data"`
	Errors []taskError `json:"errors"`
}

type taskError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	TaskUUID string `json:"taskUUID"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *httpClient) {
		c.model = model
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// NewClient creates a Runware client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		http: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) GenerateImage(ctx context.Context, req ImageRequest) (*Image, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(req.PositivePrompt) == "" {
		return nil, eris.New("runware: empty prompt")
	}

	t := task{
		TaskType:       taskImageInference,
		TaskUUID:       uuid.NewString(),
		PositivePrompt: req.PositivePrompt,
		NegativePrompt: req.NegativePrompt,
		Width:          orDefault(req.Width, 1024),
		Height:         orDefault(req.Height, 1024),
		Model:          req.Model,
		NumberResults:  1,
		OutputType:     "URL",
		OutputFormat:   "PNG",
		IncludeCost:    true,
	}
	if t.Model == "" {
		t.Model = c.model
	}

	body, err := json.Marshal([]task{t})
	if err != nil {
		return nil, eris.Wrap(err, "runware: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/images", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "runware: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "runware: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "runware: read response")
	}

	var result taskResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("runware: unexpected status %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, eris.Wrap(err, "runware: unmarshal response")
	}
	if len(result.Errors) > 0 {
		return nil, eris.Errorf("runware: task failed: %s: %s", result.Errors[0].Code, result.Errors[0].Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("runware: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	for i := range result.Data {
		if result.Data[i].TaskUUID == t.TaskUUID && result.Data[i].ImageURL != "" {
			return &result.Data[i], nil
		}
	}
	return nil, eris.Errorf("runware: no image returned for task %s", t.TaskUUID)
}

func (c *httpClient) Download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "runware: create download request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "runware: download image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("runware: download status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, eris.Wrap(err, "runware: read image")
	}
	return data, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
