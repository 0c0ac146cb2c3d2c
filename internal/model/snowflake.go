// ABOUTME: Snowflake identifier plumbing shared by all Quaddle ID types.
// ABOUTME: IDs embed a millisecond timestamp relative to the Quaddle epoch.

package model

import "time"

// Epoch is the instant Quaddle snowflake timestamps count from.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// timestampOffset is the bit position of the millisecond timestamp within
// a snowflake; the low bits hold server-assigned sequence data.
const timestampOffset = 22

// snowflakeTime extracts the creation time embedded in a snowflake.
func snowflakeTime(sf uint64) time.Time {
	return Epoch.Add(time.Duration(sf>>timestampOffset) * time.Millisecond)
}
