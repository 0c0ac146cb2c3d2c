// ABOUTME: Channel identifier type for the Quaddle chat service.

package model

import (
	"strconv"
	"time"
)

// ChannelID is a Quaddle channel snowflake.
type ChannelID uint64

// Timestamp returns the creation time embedded in the ID.
func (id ChannelID) Timestamp() time.Time { return snowflakeTime(uint64(id)) }

func (id ChannelID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseChannelID parses the decimal form of a channel ID.
func ParseChannelID(s string) (ChannelID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	return ChannelID(n), err
}
