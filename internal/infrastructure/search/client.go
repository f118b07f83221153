package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Default endpoints. Overridable for tests.
const (
	DefaultSerperURL     = "https://google.serper.dev"
	DefaultDuckDuckGoURL = "https://api.duckduckgo.com"
)

// Client performs web searches via the Serper API, falling back to the
// DuckDuckGo instant answer API when no key is configured or Serper fails.
type Client struct {
	serperClient   *resty.Client
	fallbackClient *resty.Client
	apiKey         string
}

// NewClient creates a search client. An empty apiKey routes every query to
// the fallback.
func NewClient(serperURL, duckDuckGoURL, apiKey string) *Client {
	return &Client{
		serperClient: resty.New().
			SetBaseURL(serperURL).
			SetTimeout(15 * time.Second),
		fallbackClient: resty.New().
			SetBaseURL(duckDuckGoURL).
			SetTimeout(15 * time.Second),
		apiKey: apiKey,
	}
}

// Result is one search hit.
type Result struct {
	Title   string
	Link    string
	Snippet string
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
	AnswerBox struct {
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
		Title   string `json:"title"`
	} `json:"answerBox"`
}

// Search runs a query and returns up to num results.
func (c *Client) Search(ctx context.Context, query string, num int) ([]Result, error) {
	if c.hasAPIKey() {
		if results, err := c.searchViaSerper(ctx, query, num); err == nil {
			return results, nil
		}
	}
	return c.searchViaDuckDuckGo(ctx, query, num)
}

func (c *Client) searchViaSerper(ctx context.Context, query string, num int) ([]Result, error) {
	var parsed serperResponse
	resp, err := c.serperClient.R().
		SetContext(ctx).
		SetHeader("X-API-KEY", c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"q": query, "num": num}).
		SetResult(&parsed).
		Post("/search")
	if err != nil {
		return nil, fmt.Errorf("query serper api: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("serper api error (status %d): %s", resp.StatusCode(), resp.String())
	}

	results := make([]Result, 0, len(parsed.Organic)+1)
	if answer := strings.TrimSpace(parsed.AnswerBox.Answer); answer != "" {
		results = append(results, Result{Title: parsed.AnswerBox.Title, Snippet: answer})
	}
	for _, o := range parsed.Organic {
		results = append(results, Result{Title: o.Title, Link: o.Link, Snippet: o.Snippet})
	}
	if num > 0 && len(results) > num {
		results = results[:num]
	}
	return results, nil
}

type duckDuckGoResponse struct {
	Heading       string           `json:"Heading"`
	AbstractText  string           `json:"AbstractText"`
	AbstractURL   string           `json:"AbstractURL"`
	RelatedTopics []duckDuckTopics `json:"RelatedTopics"`
}

type duckDuckTopics struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}

func (c *Client) searchViaDuckDuckGo(ctx context.Context, query string, num int) ([]Result, error) {
	var parsed duckDuckGoResponse
	resp, err := c.fallbackClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      query,
			"format": "json",
		}).
		SetResult(&parsed).
		Get("/")
	if err != nil {
		return nil, fmt.Errorf("query duckduckgo api: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("duckduckgo api error (status %d)", resp.StatusCode())
	}

	var results []Result
	if strings.TrimSpace(parsed.AbstractText) != "" {
		results = append(results, Result{
			Title:   parsed.Heading,
			Link:    parsed.AbstractURL,
			Snippet: parsed.AbstractText,
		})
	}
	for _, topic := range parsed.RelatedTopics {
		if strings.TrimSpace(topic.Text) == "" {
			continue
		}
		results = append(results, Result{Title: topic.Text, Link: topic.FirstURL, Snippet: topic.Text})
		if num > 0 && len(results) >= num {
			break
		}
	}
	return results, nil
}

func (c *Client) hasAPIKey() bool {
	return strings.TrimSpace(c.apiKey) != ""
}
