package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrCityNotFound means OpenWeatherMap does not know the requested city.
	ErrCityNotFound = errors.New("city not found")
	// ErrBadAPIKey means the configured API key was rejected.
	ErrBadAPIKey = errors.New("invalid openweathermap api key")
)

// ToolName is the function name exposed to the agent runtime.
const ToolName = "fetch_weather"

// Tool adapts the weather client to the agent tool contract.
type Tool struct {
	client *Client
}

// NewTool wraps a weather client.
func NewTool(client *Client) *Tool {
	return &Tool{client: client}
}

func (t *Tool) Name() string { return ToolName }

func (t *Tool) Description() string {
	return "Fetch the current weather for a city using OpenWeatherMap. " +
		"Returns temperature, conditions, humidity and wind speed."
}

func (t *Tool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{
				"type":        "string",
				"description": "City name, e.g. \"London\", \"New York\", \"Tokyo\"",
			},
			"unit": map[string]any{
				"type":        "string",
				"enum":        []string{"metric", "imperial", "standard"},
				"description": "Temperature unit: metric (Celsius), imperial (Fahrenheit) or standard (Kelvin)",
			},
		},
		"required": []string{"location"},
	}
}

type toolArgs struct {
	Location string `json:"location"`
	Unit     string `json:"unit"`
}

// Execute runs the lookup. Lookup failures are returned as tool output so
// the model can relay them to the user.
func (t *Tool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var parsed toolArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return "", fmt.Errorf("parse weather tool arguments: %w", err)
	}

	city := strings.TrimSpace(parsed.Location)
	if city == "" {
		return "Error: no location provided", nil
	}

	unit := parsed.Unit
	switch unit {
	case "metric", "imperial", "standard":
	default:
		unit = "metric"
	}

	report, err := t.client.CurrentWeather(ctx, city, unit)
	if err != nil {
		switch {
		case errors.Is(err, ErrCityNotFound):
			return fmt.Sprintf("Error: city %q not found. Check the spelling or try a different city.", city), nil
		case errors.Is(err, ErrBadAPIKey):
			return "Error: the weather service rejected the API key.", nil
		default:
			return fmt.Sprintf("Error: failed to fetch weather data: %v", err), nil
		}
	}

	return FormatReport(report, unit), nil
}

// FormatReport renders a report as the multi-line reply sent to chats.
func FormatReport(r *Report, unit string) string {
	tempUnit := map[string]string{"metric": "°C", "imperial": "°F", "standard": "K"}[unit]
	if tempUnit == "" {
		tempUnit = "°C"
	}
	windUnit := "m/s"
	if unit == "imperial" {
		windUnit = "mph"
	}

	description := ""
	if len(r.Weather) > 0 {
		description = capitalize(r.Weather[0].Description)
	}

	return fmt.Sprintf(
		"Weather in %s, %s:\n"+
			"Temperature: %.1f%s (feels like %.1f%s)\n"+
			"Conditions: %s\n"+
			"Humidity: %d%%\n"+
			"Wind speed: %.1f %s",
		r.Name, r.Sys.Country,
		r.Main.Temp, tempUnit, r.Main.FeelsLike, tempUnit,
		description,
		r.Main.Humidity,
		r.Wind.Speed, windUnit,
	)
}

func capitalize(s string) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
