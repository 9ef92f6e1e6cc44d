package realtime

import "encoding/json"

// Envelope is a delivered topic message as seen by a subscriber.
type Envelope struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

// Client is one live connection subscribed to topics via the hub.
type Client struct {
	ID     string
	UserID int64
	Events chan Envelope
}

// NewClient constructs a client with an initialized event channel.
func NewClient(id string, userID int64) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		Events: make(chan Envelope, 16),
	}
}
