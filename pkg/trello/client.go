// Package trello is a thin client for the slice of Trello's REST API used by
// the board-management skill: reading boards, lists and cards, and creating
// cards. Authentication is the key/token query-string scheme.
package trello

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultBaseURL    = "https://api.trello.com"
	httpClientTimeout = 30 * time.Second
)

// Board is a Trello board
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// List is a column on a board
type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Card is a card in a list
type Card struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Desc string `json:"desc"`
	URL  string `json:"url"`
}

// Client talks to the Trello REST API
type Client struct {
	baseURL    string
	key        string
	token      string
	httpClient *http.Client
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

// NewClient creates a Trello client with key/token credentials
func NewClient(key, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		key:        key,
		token:      token,
		httpClient: &http.Client{Timeout: httpClientTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Boards returns the authenticated member's boards
func (c *Client) Boards(ctx context.Context) ([]Board, error) {
	var boards []Board
	if err := c.do(ctx, http.MethodGet, "/1/members/me/boards", url.Values{"fields": {"name,url"}}, &boards); err != nil {
		return nil, errors.Wrap(err, "listing boards")
	}
	return boards, nil
}

// Lists returns the lists on a board
func (c *Client) Lists(ctx context.Context, boardID string) ([]List, error) {
	var lists []List
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/1/boards/%s/lists", boardID), nil, &lists); err != nil {
		return nil, errors.Wrapf(err, "listing lists for board %s", boardID)
	}
	return lists, nil
}

// Cards returns the cards in a list
func (c *Client) Cards(ctx context.Context, listID string) ([]Card, error) {
	var cards []Card
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/1/lists/%s/cards", listID), nil, &cards); err != nil {
		return nil, errors.Wrapf(err, "listing cards for list %s", listID)
	}
	return cards, nil
}

// CreateCard creates a card at the bottom of a list
func (c *Client) CreateCard(ctx context.Context, listID, name, desc string) (*Card, error) {
	params := url.Values{
		"idList": {listID},
		"name":   {name},
	}
	if desc != "" {
		params.Set("desc", desc)
	}

	var card Card
	if err := c.do(ctx, http.MethodPost, "/1/cards", params, &card); err != nil {
		return nil, errors.Wrap(err, "creating card")
	}
	return &card, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.key)
	params.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "building request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling trello API")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading trello response")
	}

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("trello API error: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "decoding trello response")
	}
	return nil
}
