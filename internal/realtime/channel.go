package realtime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidChannelID is returned for channel ids that are not a "min_max"
// user-id pair.
var ErrInvalidChannelID = errors.New("invalid channel id")

// DirectChannelID derives the canonical shared channel id for a pair of
// users. The same pair always yields the same id regardless of order, so
// chat history and live delivery never fork into two parallel rooms.
func DirectChannelID(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d_%d", a, b)
}

// CanonicalizeChannelID parses an externally supplied channel id and returns
// its canonical form. Callers must never trust the ordering of an id parsed
// from a URL path or client payload.
func CanonicalizeChannelID(raw string) (string, error) {
	parts := strings.Split(raw, "_")
	if len(parts) != 2 {
		return "", ErrInvalidChannelID
	}
	a, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return "", ErrInvalidChannelID
	}
	b, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", ErrInvalidChannelID
	}
	return DirectChannelID(a, b), nil
}

// Per-user topics. Each connected client is subscribed to its own four.

// PresenceTopic carries {userId, status} events about the user's friends.
func PresenceTopic(userID int64) string {
	return fmt.Sprintf("user/%d/presence", userID)
}

// NotificationsTopic carries the user's full current notification list.
func NotificationsTopic(userID int64) string {
	return fmt.Sprintf("user/%d/notifications", userID)
}

// FriendsTopic carries an opaque refresh signal; consumers re-fetch.
func FriendsTopic(userID int64) string {
	return fmt.Sprintf("user/%d/friends", userID)
}

// ChatTopic carries delivered messages, once per involved user.
func ChatTopic(userID int64) string {
	return fmt.Sprintf("user/%d/chat", userID)
}

// UserTopics returns every topic a user's connections subscribe to.
func UserTopics(userID int64) []string {
	return []string{
		PresenceTopic(userID),
		NotificationsTopic(userID),
		FriendsTopic(userID),
		ChatTopic(userID),
	}
}
