package telegram_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meteogram/meteogram/internal/infrastructure/telegram"
)

func TestUpdate_MessageFields(t *testing.T) {
	payload := `{
		"update_id": 10,
		"message": {
			"message_id": 1,
			"from": {"id": 42, "is_bot": false, "first_name": "Ada"},
			"chat": {"id": 99, "type": "private"},
			"text": "weather in London?"
		}
	}`

	var update telegram.Update
	require.NoError(t, json.Unmarshal([]byte(payload), &update))

	assert.Equal(t, int64(99), update.ChatID())
	assert.Equal(t, "weather in London?", update.Text())
	assert.False(t, update.IsCallback())

	sender := update.Sender()
	require.NotNil(t, sender)
	assert.Equal(t, "Ada", sender.FirstName)
	assert.False(t, sender.IsBot)
}

func TestUpdate_CallbackFields(t *testing.T) {
	payload := `{
		"update_id": 11,
		"callback_query": {
			"id": "cb-1",
			"from": {"id": 42, "is_bot": false, "first_name": "Ada"},
			"message": {"message_id": 2, "chat": {"id": 99}},
			"data": "approve:abc-123"
		}
	}`

	var update telegram.Update
	require.NoError(t, json.Unmarshal([]byte(payload), &update))

	assert.True(t, update.IsCallback())
	assert.Equal(t, int64(99), update.ChatID())
	assert.Equal(t, "approve:abc-123", update.Text())
}

func TestUpdate_EditedMessageFallback(t *testing.T) {
	payload := `{
		"update_id": 12,
		"edited_message": {
			"message_id": 3,
			"chat": {"id": 99},
			"text": "corrected question"
		}
	}`

	var update telegram.Update
	require.NoError(t, json.Unmarshal([]byte(payload), &update))

	assert.Equal(t, int64(99), update.ChatID())
	assert.Equal(t, "corrected question", update.Text())
	require.NotNil(t, update.IncomingMessage())
}

func TestUpdate_EmptyUpdate(t *testing.T) {
	var update telegram.Update
	assert.Equal(t, int64(0), update.ChatID())
	assert.Equal(t, "", update.Text())
	assert.Nil(t, update.Sender())
	assert.Nil(t, update.IncomingMessage())
}

func TestMessage_LargestPhoto(t *testing.T) {
	msg := &telegram.Message{
		Photo: []telegram.PhotoSize{
			{FileID: "small", Width: 90, Height: 90},
			{FileID: "large", Width: 800, Height: 600},
			{FileID: "medium", Width: 320, Height: 240},
		},
	}

	largest := msg.LargestPhoto()
	require.NotNil(t, largest)
	assert.Equal(t, "large", largest.FileID)

	var empty telegram.Message
	assert.Nil(t, empty.LargestPhoto())
}
