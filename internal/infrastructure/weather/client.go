package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the OpenWeatherMap REST endpoint.
const DefaultBaseURL = "https://api.openweathermap.org"

// Client queries the OpenWeatherMap current weather API.
type Client struct {
	httpClient *resty.Client
	apiKey     string
}

// NewClient creates an OpenWeatherMap client. baseURL is overridable for tests.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second),
		apiKey: apiKey,
	}
}

// Report is the subset of the current weather response the bot formats.
type Report struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

type apiError struct {
	Cod     any    `json:"cod"`
	Message string `json:"message"`
}

// CurrentWeather fetches the current conditions for a city. units is one of
// metric, imperial, or standard.
func (c *Client) CurrentWeather(ctx context.Context, city, units string) (*Report, error) {
	var report Report
	var errBody apiError

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     city,
			"appid": c.apiKey,
			"units": units,
		}).
		SetResult(&report).
		SetError(&errBody).
		Get("/data/2.5/weather")
	if err != nil {
		return nil, fmt.Errorf("query weather api: %w", err)
	}

	if resp.IsError() {
		switch resp.StatusCode() {
		case 404:
			return nil, ErrCityNotFound
		case 401:
			return nil, ErrBadAPIKey
		default:
			return nil, fmt.Errorf("weather api error (status %d): %s", resp.StatusCode(), errBody.Message)
		}
	}

	return &report, nil
}
