package worker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meteogram/meteogram/internal/infrastructure/telegram"
	"github.com/meteogram/meteogram/internal/worker"
)

func TestInboundFromUpdate_TextMessage(t *testing.T) {
	update := &telegram.Update{
		Message: &telegram.Message{
			Chat: telegram.Chat{ID: 99},
			From: &telegram.User{FirstName: "Ada", IsBot: false},
			Text: "weather in London?",
		},
	}

	in := worker.InboundFromUpdate(update)

	assert.Equal(t, int64(99), in.ChatID)
	assert.Equal(t, "weather in London?", in.Text)
	assert.Equal(t, "Ada", in.SenderFirstName)
	assert.False(t, in.IsCallback)
	assert.Empty(t, in.PhotoFileID)
}

func TestInboundFromUpdate_Callback(t *testing.T) {
	update := &telegram.Update{
		CallbackQuery: &telegram.CallbackQuery{
			ID:      "cb-1",
			From:    &telegram.User{FirstName: "Ada"},
			Message: &telegram.Message{Chat: telegram.Chat{ID: 99}},
			Data:    "approve:abc-123",
		},
	}

	in := worker.InboundFromUpdate(update)

	assert.True(t, in.IsCallback)
	assert.Equal(t, "cb-1", in.CallbackID)
	assert.Equal(t, "approve:abc-123", in.CallbackData)
	assert.Equal(t, int64(99), in.ChatID)
}

func TestInboundFromUpdate_PhotoWithCaption(t *testing.T) {
	update := &telegram.Update{
		Message: &telegram.Message{
			Chat:    telegram.Chat{ID: 99},
			Caption: "what is this cloud?",
			Photo: []telegram.PhotoSize{
				{FileID: "small", Width: 90, Height: 90},
				{FileID: "large", Width: 800, Height: 600},
			},
		},
	}

	in := worker.InboundFromUpdate(update)

	assert.Equal(t, "large", in.PhotoFileID)
	assert.Equal(t, "what is this cloud?", in.Caption)
}

func TestInboundFromUpdate_Document(t *testing.T) {
	update := &telegram.Update{
		Message: &telegram.Message{
			Chat: telegram.Chat{ID: 99},
			Document: &telegram.Document{
				FileID:   "doc-1",
				FileName: "forecast.csv",
				MimeType: "text/csv",
			},
		},
	}

	in := worker.InboundFromUpdate(update)

	assert.Equal(t, "doc-1", in.DocumentFileID)
	assert.Equal(t, "forecast.csv", in.DocumentName)
	assert.Equal(t, "text/csv", in.DocumentMime)
}

func TestInboundFromUpdate_BotSender(t *testing.T) {
	update := &telegram.Update{
		Message: &telegram.Message{
			Chat: telegram.Chat{ID: 99},
			From: &telegram.User{FirstName: "OtherBot", IsBot: true},
			Text: "beep",
		},
	}

	in := worker.InboundFromUpdate(update)
	assert.True(t, in.SenderIsBot)
}
