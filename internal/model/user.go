// ABOUTME: User identity types for the Quaddle chat service.

package model

import (
	"strconv"
	"time"
)

// UserID is a Quaddle user snowflake.
type UserID uint64

// Timestamp returns the creation time embedded in the ID.
func (id UserID) Timestamp() time.Time { return snowflakeTime(uint64(id)) }

func (id UserID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseUserID parses the decimal form of a user ID.
func ParseUserID(s string) (UserID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	return UserID(n), err
}

// User is a Quaddle user account as the API reports it.
type User struct {
	ID   UserID `json:"id"`
	Name string `json:"name"`
}
