// Package chat persists and delivers direct messages between friends.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/webcrafter/webcrafter-server/internal/realtime"
	"github.com/webcrafter/webcrafter-server/internal/store"
)

// DefaultHistoryLimit bounds how many messages a history read returns.
const DefaultHistoryLimit = 50

// ErrEmptyMessage is returned when a message has no content.
var ErrEmptyMessage = errors.New("message content is empty")

// Service provides direct message business logic.
type Service struct {
	store        store.Store
	pub          realtime.Publisher
	historyLimit int
	log          *zerolog.Logger
}

// New creates a chat service. historyLimit <= 0 falls back to the default.
func New(st store.Store, pub realtime.Publisher, historyLimit int, logger *zerolog.Logger) *Service {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Service{
		store:        st,
		pub:          pub,
		historyLimit: historyLimit,
		log:          logger,
	}
}

// Send persists a message under the pair's canonical channel and delivers it
// once to the sender's and once to the receiver's personal chat topic. The
// two deliveries are independent: one failing never blocks the other.
func (s *Service) Send(ctx context.Context, senderID, receiverID int64, content string) (*store.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	msg := &store.ChatMessage{
		ChannelID: realtime.DirectChannelID(senderID, receiverID),
		SenderID:  senderID,
		Content:   content,
	}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	for _, uid := range []int64{receiverID, senderID} {
		if err := s.pub.Publish(ctx, realtime.ChatTopic(uid), msg); err != nil {
			s.log.Warn().Err(err).Int64("user_id", uid).Str("channel_id", msg.ChannelID).Msg("chat publish failed")
		}
	}
	return msg, nil
}

// History returns a channel's messages in chronological order. The incoming
// channel id may be reversed or otherwise client-supplied and is always
// re-canonicalized first.
func (s *Service) History(ctx context.Context, rawChannelID string) ([]*store.ChatMessage, error) {
	channelID, err := realtime.CanonicalizeChannelID(rawChannelID)
	if err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, channelID, s.historyLimit)
}

// Purge deletes a channel's history; used when a friendship is removed.
func (s *Service) Purge(ctx context.Context, rawChannelID string) error {
	channelID, err := realtime.CanonicalizeChannelID(rawChannelID)
	if err != nil {
		return err
	}
	if _, err := s.store.PurgeChannel(ctx, channelID); err != nil {
		return fmt.Errorf("purge channel: %w", err)
	}
	return nil
}
