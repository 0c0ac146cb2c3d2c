// ABOUTME: Message types for the Quaddle chat service.

package model

import (
	"strconv"
	"time"
)

// MessageID is a Quaddle message snowflake.
type MessageID uint64

// Timestamp returns the creation time embedded in the ID.
func (id MessageID) Timestamp() time.Time { return snowflakeTime(uint64(id)) }

func (id MessageID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseMessageID parses the decimal form of a message ID.
func ParseMessageID(s string) (MessageID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	return MessageID(n), err
}

// Message is a single chat message. The server may add fields over time;
// unknown fields are ignored on decode.
type Message struct {
	ID      MessageID `json:"id"`
	Author  User      `json:"author"`
	Channel ChannelID `json:"channel"`
	Content string    `json:"content"`
}
