// Package friends implements the friend relationship state machine and the
// notification fan-out that follows every mutation of it.
package friends

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/webcrafter/webcrafter-server/internal/presence"
	"github.com/webcrafter/webcrafter-server/internal/realtime"
	"github.com/webcrafter/webcrafter-server/internal/store"
)

// Common errors for friend operations.
var (
	ErrCannotFriendSelf = errors.New("cannot send friend request to yourself")
	ErrRelationExists   = errors.New("relation already exists")
	ErrRequestNotFound  = errors.New("friend request not found")
	ErrUserNotFound     = errors.New("user not found")
)

// FriendsRefreshSignal is the opaque payload of a friends-topic publish;
// the consumer re-fetches its list.
const FriendsRefreshSignal = "refresh"

// FriendInfo is a friend with live connect status attached.
type FriendInfo struct {
	ID            int64  `json:"id"`
	Nickname      string `json:"nickname"`
	Email         string `json:"email"`
	Bio           string `json:"bio"`
	ConnectStatus string `json:"connectStatus"`
}

// Service provides friend management business logic.
type Service struct {
	store    store.Store
	registry presence.Registry
	pub      realtime.Publisher
	log      *zerolog.Logger
}

// New creates a friends service.
func New(st store.Store, registry presence.Registry, pub realtime.Publisher, logger *zerolog.Logger) *Service {
	return &Service{
		store:    st,
		registry: registry,
		pub:      pub,
		log:      logger,
	}
}

// SendRequest creates a pending edge from one user to another, files a
// notification in the target's inbox, and pushes the target's refreshed
// notification list.
func (s *Service) SendRequest(ctx context.Context, myID, targetID int64) error {
	if myID == targetID {
		return ErrCannotFriendSelf
	}

	if _, err := s.store.GetUserByID(ctx, targetID); err != nil {
		return ErrUserNotFound
	}

	exists, err := s.store.RelationExists(ctx, myID, targetID)
	if err != nil {
		return fmt.Errorf("check relation: %w", err)
	}
	if exists {
		return ErrRelationExists
	}

	if _, err := s.store.CreateFriendRequest(ctx, myID, targetID); err != nil {
		return fmt.Errorf("create friend request: %w", err)
	}

	noti := &store.Notification{
		ReceiverID: targetID,
		SenderID:   myID,
		Type:       store.NotificationFriendRequest,
	}
	if err := s.store.InsertNotification(ctx, noti); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	s.pushNotificationsRefresh(ctx, targetID)
	return nil
}

// AcceptRequest flips the pending edge to accepted, removes the triggering
// notification, and refreshes both parties' friend lists plus the accepter's
// notifications.
func (s *Service) AcceptRequest(ctx context.Context, myID, senderID, notificationID int64) error {
	if err := s.store.AcceptFriendRequest(ctx, senderID, myID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRequestNotFound
		}
		return fmt.Errorf("accept request: %w", err)
	}

	if err := s.store.DeleteNotification(ctx, notificationID); err != nil {
		s.log.Warn().Err(err).Int64("notification_id", notificationID).Msg("delete notification failed")
	}

	s.pushFriendsRefresh(ctx, myID)
	s.pushFriendsRefresh(ctx, senderID)
	s.pushNotificationsRefresh(ctx, myID)
	return nil
}

// RejectRequest removes the pending edge and the triggering notification.
// Only the rejecting party's notification view is refreshed; the requester
// is not told.
func (s *Service) RejectRequest(ctx context.Context, myID, senderID, notificationID int64) error {
	if err := s.store.DeletePendingRequest(ctx, senderID, myID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRequestNotFound
		}
		return fmt.Errorf("reject request: %w", err)
	}

	if err := s.store.DeleteNotification(ctx, notificationID); err != nil {
		s.log.Warn().Err(err).Int64("notification_id", notificationID).Msg("delete notification failed")
	}

	s.pushNotificationsRefresh(ctx, myID)
	return nil
}

// DeleteFriend removes the edge, purges the pair's chat history, and
// refreshes both parties. The edge removal is the authoritative action: a
// failed purge is logged, never rolled back.
func (s *Service) DeleteFriend(ctx context.Context, myID, friendID int64) error {
	if err := s.store.DeleteFriendship(ctx, myID, friendID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRequestNotFound
		}
		return fmt.Errorf("delete friendship: %w", err)
	}

	channelID := realtime.DirectChannelID(myID, friendID)
	if _, err := s.store.PurgeChannel(ctx, channelID); err != nil {
		s.log.Warn().Err(err).Str("channel_id", channelID).Msg("chat purge failed after friend deletion")
	}

	s.pushFriendsRefresh(ctx, myID)
	s.pushFriendsRefresh(ctx, friendID)
	s.pushNotificationsRefresh(ctx, myID)
	s.pushNotificationsRefresh(ctx, friendID)
	return nil
}

// FriendList returns the user's accepted friends with live connect status.
func (s *Service) FriendList(ctx context.Context, myID int64) ([]FriendInfo, error) {
	users, err := s.store.ListFriends(ctx, myID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}

	list := make([]FriendInfo, 0, len(users))
	for _, u := range users {
		status := realtime.StatusOffline
		if s.registry.IsOnline(ctx, u.ID) {
			status = realtime.StatusOnline
		}
		list = append(list, FriendInfo{
			ID:            u.ID,
			Nickname:      u.Nickname,
			Email:         u.Email,
			Bio:           u.Bio,
			ConnectStatus: status,
		})
	}
	return list, nil
}

// FriendIDs returns the ids of the user's accepted friends.
func (s *Service) FriendIDs(ctx context.Context, myID int64) ([]int64, error) {
	return s.store.ListFriendIDs(ctx, myID)
}

// Notifications returns the user's full current inbox.
func (s *Service) Notifications(ctx context.Context, myID int64) ([]*store.Notification, error) {
	return s.store.ListNotifications(ctx, myID)
}

// Search finds users by exact nickname or email, excluding the caller.
func (s *Service) Search(ctx context.Context, keyword string, myID int64) ([]*store.User, error) {
	return s.store.SearchUsers(ctx, keyword, myID)
}

// pushNotificationsRefresh publishes the user's full current notification
// list to their notifications topic. Whole list, not a delta: the subscriber
// just replaces its state.
func (s *Service) pushNotificationsRefresh(ctx context.Context, userID int64) {
	list, err := s.store.ListNotifications(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("list notifications for refresh failed")
		return
	}
	if list == nil {
		list = []*store.Notification{}
	}
	if err := s.pub.Publish(ctx, realtime.NotificationsTopic(userID), list); err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("notifications publish failed")
	}
}

// pushFriendsRefresh publishes the opaque refresh signal to the user's
// friends topic.
func (s *Service) pushFriendsRefresh(ctx context.Context, userID int64) {
	if err := s.pub.Publish(ctx, realtime.FriendsTopic(userID), FriendsRefreshSignal); err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("friends refresh publish failed")
	}
}
