package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SecretTokenHeader carries the secret configured with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// APIError is returned when the Bot API answers with ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTPClient: &http.Client{
			// Must exceed the long-polling timeout used by GetUpdates.
			Timeout: 90 * time.Second,
		},
	}
}

// call posts params as JSON to the named method and decodes the result into out
// when out is non-nil.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	jsonData, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.BaseURL, c.Token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// The URL embeds the token; never let it reach the logs.
		return fmt.Errorf("failed to send %s request: %s", method, c.redact(err.Error()))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var response APIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return fmt.Errorf("failed to parse %s response (status %d): %w", method, resp.StatusCode, err)
	}
	if !response.OK {
		return &APIError{Method: method, Code: response.ErrorCode, Description: response.Description}
	}
	if out == nil || len(response.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(response.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

func (c *Client) redact(s string) string {
	if c.Token == "" {
		return s
	}
	return strings.ReplaceAll(s, c.Token, "<token>")
}

func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error) {
	var msg Message
	if err := c.call(ctx, "sendMessage", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessageText replaces the text and inline keyboard of a bot message.
func (c *Client) EditMessageText(ctx context.Context, req EditMessageTextRequest) error {
	return c.call(ctx, "editMessageText", req, nil)
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, req AnswerCallbackQueryRequest) error {
	return c.call(ctx, "answerCallbackQuery", req, nil)
}

// GetUpdates long-polls for updates with id >= req.Offset.
func (c *Client) GetUpdates(ctx context.Context, req GetUpdatesRequest) ([]Update, error) {
	var updates []Update
	if err := c.call(ctx, "getUpdates", req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func (c *Client) SetWebhook(ctx context.Context, req SetWebhookRequest) error {
	return c.call(ctx, "setWebhook", req, nil)
}

func (c *Client) DeleteWebhook(ctx context.Context, req DeleteWebhookRequest) error {
	return c.call(ctx, "deleteWebhook", req, nil)
}
