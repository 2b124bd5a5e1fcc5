package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		io.WriteString(w, `{"ok":true,"result":{"message_id":55,"chat":{"id":42,"type":"private"},"text":"hi"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "123:abc")
	msg, err := client.SendMessage(context.Background(), SendMessageRequest{
		ChatID:    42,
		Text:      "hi",
		ParseMode: ParseModeMarkdown,
		ReplyMarkup: &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{
			{Text: "Menu", CallbackData: "menu"},
		}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "/bot123:abc/sendMessage", gotPath)
	assert.EqualValues(t, 42, gotBody["chat_id"])
	assert.Equal(t, "Markdown", gotBody["parse_mode"])
	assert.Contains(t, gotBody, "reply_markup")
	assert.Equal(t, int64(55), msg.MessageID)
	assert.Equal(t, int64(42), msg.Chat.ID)
}

func TestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	}))
	defer server.Close()

	err := NewClient(server.URL, "123:abc").AnswerCallbackQuery(context.Background(), AnswerCallbackQueryRequest{CallbackQueryID: "1"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "answerCallbackQuery", apiErr.Method)
	assert.Equal(t, 400, apiErr.Code)
	assert.Contains(t, apiErr.Error(), "chat not found")
}

func TestTransportErrorHidesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	err := NewClient(url, "123:secret").DeleteWebhook(context.Background(), DeleteWebhookRequest{})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "123:secret")
}

func TestGetUpdates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GetUpdatesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(100), req.Offset)
		io.WriteString(w, `{"ok":true,"result":[
			{"update_id":100,"message":{"message_id":1,"from":{"id":42,"is_bot":false,"first_name":"Alice"},"chat":{"id":42,"type":"private"},"date":0,
				"web_app_data":{"data":"{\"items\":[]}","button_text":"Order"}}},
			{"update_id":101,"callback_query":{"id":"cb1","from":{"id":42,"is_bot":false,"first_name":"Alice"},"data":"menu"}}
		]}`)
	}))
	defer server.Close()

	updates, err := NewClient(server.URL, "t").GetUpdates(context.Background(), GetUpdatesRequest{Offset: 100, Timeout: 1})
	require.NoError(t, err)
	require.Len(t, updates, 2)
	require.NotNil(t, updates[0].Message.WebAppData)
	assert.Equal(t, `{"items":[]}`, updates[0].Message.WebAppData.Data)
	require.NotNil(t, updates[1].CallbackQuery)
	assert.Equal(t, "menu", updates[1].CallbackQuery.Data)
}

func TestMessageCommand(t *testing.T) {
	tests := map[string]string{
		"/start":            "start",
		"/start payload":    "start",
		"/menu@CoffeeBot":   "menu",
		"/my_orders\nextra": "my_orders",
		"hello":             "",
		"/":                 "",
		"":                  "",
	}
	for text, want := range tests {
		assert.Equal(t, want, (&Message{Text: text}).Command(), text)
	}
	assert.Equal(t, "", (*Message)(nil).Command())
}
