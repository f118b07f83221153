package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the production Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Client is a Resty-backed Telegram Bot API client.
type Client struct {
	httpClient *resty.Client
	baseURL    string
	token      string
}

// NewClient creates a Bot API client. baseURL is overridable for tests.
func NewClient(baseURL, token string) *Client {
	return &Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(30 * time.Second),
		baseURL: baseURL,
		token:   token,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
}

type sendMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendMessage posts a plain text message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.send(ctx, sendMessageRequest{ChatID: chatID, Text: text})
}

// SendMessageWithMarkup posts a message with an inline keyboard attached.
func (c *Client) SendMessageWithMarkup(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) error {
	return c.send(ctx, sendMessageRequest{ChatID: chatID, Text: text, ReplyMarkup: markup})
}

func (c *Client) send(ctx context.Context, body sendMessageRequest) error {
	var result apiResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post(c.methodPath("sendMessage"))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	if resp.IsError() || !result.OK {
		return fmt.Errorf("send message: telegram api error (status %d): %s", resp.StatusCode(), result.Description)
	}
	return nil
}

// AnswerCallbackQuery acknowledges an inline keyboard press with a short
// notification.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	var result apiResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"callback_query_id": callbackQueryID,
			"text":              text,
		}).
		SetResult(&result).
		Post(c.methodPath("answerCallbackQuery"))
	if err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}
	if resp.IsError() || !result.OK {
		return fmt.Errorf("answer callback query: telegram api error (status %d): %s", resp.StatusCode(), result.Description)
	}
	return nil
}

// SetWebhook registers webhookURL as the bot's update target, protected by
// the shared secret. Pending updates queued before registration are dropped.
func (c *Client) SetWebhook(ctx context.Context, webhookURL, secret string) error {
	var result apiResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"url":                  webhookURL,
			"secret_token":         secret,
			"allowed_updates":      []string{"message", "callback_query"},
			"drop_pending_updates": true,
		}).
		SetResult(&result).
		Post(c.methodPath("setWebhook"))
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	if resp.IsError() || !result.OK {
		return fmt.Errorf("set webhook: telegram api error (status %d): %s", resp.StatusCode(), result.Description)
	}
	return nil
}

// FileURL resolves a file_id to a downloadable URL via getFile.
func (c *Client) FileURL(ctx context.Context, fileID string) (string, error) {
	var result apiResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("file_id", fileID).
		SetResult(&result).
		Get(c.methodPath("getFile"))
	if err != nil {
		return "", fmt.Errorf("get file: %w", err)
	}
	if resp.IsError() || !result.OK {
		return "", fmt.Errorf("get file: telegram api error (status %d): %s", resp.StatusCode(), result.Description)
	}

	var file File
	if err := json.Unmarshal(result.Result, &file); err != nil {
		return "", fmt.Errorf("get file: decode result: %w", err)
	}
	if file.FilePath == "" {
		return "", fmt.Errorf("get file: empty file_path for %s", fileID)
	}
	return fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, file.FilePath), nil
}

func (c *Client) methodPath(method string) string {
	return fmt.Sprintf("/bot%s/%s", c.token, method)
}
