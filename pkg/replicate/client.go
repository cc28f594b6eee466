// Package replicate wraps the small slice of Replicate's HTTP API that the
// image-generation skill needs: create a prediction, poll it to a terminal
// state and collect the output file URLs.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"github.com/skillforge/skillet/pkg/logger"
)

const (
	defaultBaseURL      = "https://api.replicate.com"
	defaultPollInterval = 2 * time.Second
	defaultMaxAttempts  = 150
	httpClientTimeout   = 60 * time.Second
)

// Client talks to the Replicate API
type Client struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	pollInterval time.Duration
	maxAttempts  uint
}

// Option is a function that configures a Client
type Option func(*Client)

// WithBaseURL overrides the API base URL
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithPollInterval sets the delay between prediction status polls
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// WithMaxAttempts caps the number of status polls before giving up
func WithMaxAttempts(n uint) Option {
	return func(c *Client) {
		c.maxAttempts = n
	}
}

// NewClient creates a Replicate client authenticated with the given API token
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:      defaultBaseURL,
		token:        token,
		httpClient:   &http.Client{Timeout: httpClientTimeout},
		pollInterval: defaultPollInterval,
		maxAttempts:  defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PredictionInput is the model input payload (prompt, dimensions, etc.)
type PredictionInput map[string]any

// Prediction is a Replicate prediction resource
type Prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

// Terminal prediction statuses
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
)

// Done reports whether the prediction reached a terminal state
func (p *Prediction) Done() bool {
	return p.Status == StatusSucceeded || p.Status == StatusFailed || p.Status == StatusCanceled
}

// OutputURLs flattens the prediction output into a list of file URLs.
// Models return either a single URL string or a list of them.
func (p *Prediction) OutputURLs() []string {
	if len(p.Output) == 0 {
		return nil
	}

	var single string
	if err := json.Unmarshal(p.Output, &single); err == nil {
		return []string{single}
	}

	var many []string
	if err := json.Unmarshal(p.Output, &many); err == nil {
		return many
	}
	return nil
}

// CreatePrediction starts a prediction for the given model version
func (c *Client) CreatePrediction(ctx context.Context, version string, input PredictionInput) (*Prediction, error) {
	payload, err := json.Marshal(map[string]any{
		"version": version,
		"input":   input,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshaling prediction request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/predictions", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "building prediction request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	return c.doPrediction(req)
}

// GetPrediction fetches the current state of a prediction
func (c *Client) GetPrediction(ctx context.Context, id string) (*Prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1/predictions/%s", c.baseURL, id), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building prediction request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.doPrediction(req)
}

func (c *Client) doPrediction(req *http.Request) (*Prediction, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "calling replicate API")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading replicate response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("replicate API error: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var prediction Prediction
	if err := json.Unmarshal(body, &prediction); err != nil {
		return nil, errors.Wrap(err, "decoding prediction")
	}
	return &prediction, nil
}

// Wait polls a prediction until it reaches a terminal state. A failed or
// canceled prediction is an error; exhausting the attempt budget is too.
func (c *Client) Wait(ctx context.Context, id string) (*Prediction, error) {
	var result *Prediction

	err := retry.Do(
		func() error {
			prediction, err := c.GetPrediction(ctx, id)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			switch prediction.Status {
			case StatusSucceeded:
				result = prediction
				return nil
			case StatusFailed, StatusCanceled:
				return retry.Unrecoverable(errors.Errorf("prediction %s %s: %s", id, prediction.Status, prediction.Error))
			default:
				logger.G(ctx).WithField("prediction_id", id).WithField("status", prediction.Status).Debug("Prediction still running")
				return errors.Errorf("prediction %s still %s", id, prediction.Status)
			}
		},
		retry.Attempts(c.maxAttempts),
		retry.Delay(c.pollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Generate creates a prediction and waits for it to finish
func (c *Client) Generate(ctx context.Context, version string, input PredictionInput) (*Prediction, error) {
	prediction, err := c.CreatePrediction(ctx, version, input)
	if err != nil {
		return nil, err
	}

	if prediction.Done() {
		if prediction.Status != StatusSucceeded {
			return nil, errors.Errorf("prediction %s %s: %s", prediction.ID, prediction.Status, prediction.Error)
		}
		return prediction, nil
	}

	return c.Wait(ctx, prediction.ID)
}

// Download fetches a prediction output file
func (c *Client) Download(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building download request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "downloading %s", fileURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("downloading %s: HTTP %d", fileURL, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
