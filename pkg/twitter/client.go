package twitter

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/skillforge/skillet/pkg/logger"
)

const (
	defaultBaseURL    = "https://cdn.syndication.twimg.com"
	httpClientTimeout = 30 * time.Second
	userAgent         = "Mozilla/5.0 (compatible; skillet)"
)

// Client fetches tweet documents and media from the syndication endpoint
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option is a function that configures a Client
type Option func(*Client)

// WithBaseURL overrides the syndication endpoint base URL
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

// NewClient creates a syndication client
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: httpClientTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup fetches the tweet document for the given ID
func (c *Client) Lookup(ctx context.Context, id string) (*Document, error) {
	lookupURL := fmt.Sprintf("%s/tweet-result?id=%s&token=%s", c.baseURL, id, syndicationToken(id))

	logger.G(ctx).WithField("tweet_id", id).Debug("Fetching tweet from syndication endpoint")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building lookup request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching tweet %s", id)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Wrapf(ErrNotFound, "tweet %s", id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading response for tweet %s", id)
	}

	return ParseDocument(body)
}

// Download performs a plain GET for a media URL and returns the raw bytes
func (c *Client) Download(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building download request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "downloading %s", mediaURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", mediaURL)
	}
	return data, nil
}

// syndicationToken computes the token query parameter the endpoint expects:
// (id / 1e15 * pi) rendered in base 36 with zeros and the radix point stripped
func syndicationToken(id string) string {
	n, err := strconv.ParseFloat(id, 64)
	if err != nil {
		return "0"
	}

	val := n / 1e15 * math.Pi
	token := formatBase36(val)

	token = strings.ReplaceAll(token, "0", "")
	token = strings.ReplaceAll(token, ".", "")
	return token
}

const base36Digits = "0123456789abcdefghijklmnopqrstuvwxyz"

func formatBase36(val float64) string {
	if val < 0 || math.IsNaN(val) || math.IsInf(val, 0) {
		return "0"
	}

	intPart := int64(val)
	frac := val - float64(intPart)

	var sb strings.Builder
	sb.WriteString(strconv.FormatInt(intPart, 36))
	sb.WriteByte('.')

	for i := 0; i < 10; i++ {
		frac *= 36
		digit := int(frac)
		sb.WriteByte(base36Digits[digit])
		frac -= float64(digit)
	}

	return sb.String()
}
