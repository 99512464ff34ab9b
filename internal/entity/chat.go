package entity

import (
	"strings"
	"time"
)

type ChatMessage struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// NewChatMessage - trims the text and stamps missing timestamps (unix millis).
func NewChatMessage(sender, text string, timestamp int64, now time.Time) ChatMessage {
	if timestamp <= 0 {
		timestamp = now.UnixMilli()
	}

	return ChatMessage{
		Sender:    strings.TrimSpace(sender),
		Text:      strings.TrimSpace(text),
		Timestamp: timestamp,
	}
}

func (that ChatMessage) IsEmpty() bool {
	return that.Text == ""
}
