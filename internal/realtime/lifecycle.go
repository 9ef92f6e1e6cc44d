package realtime

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
)

// IdentityHeader is the connect header a client declares its user id in.
const IdentityHeader = "X-User-Id"

// Session is the per-connection identity slot. The user id is bound at most
// once, so an identity cannot change mid-session.
type Session struct {
	mu     sync.Mutex
	userID int64
	bound  bool
}

// NewSession creates an unbound session.
func NewSession() *Session {
	return &Session{}
}

// Bind stores the user id if none is bound yet. Returns the bound id, which
// is the existing one when a bind already happened.
func (s *Session) Bind(userID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.bound {
		s.userID = userID
		s.bound = true
	}
	return s.userID
}

// UserID returns the bound user id, if any.
func (s *Session) UserID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.bound
}

// ResolveIdentity determines who a connection belongs to. A previously bound
// session value wins; otherwise the declared header value is parsed and bound
// for the rest of the session. Connections with no resolvable identity are
// anonymous, which is not an error.
func ResolveIdentity(headerValue string, sess *Session) (int64, bool) {
	if id, ok := sess.UserID(); ok {
		return id, true
	}
	id, err := strconv.ParseInt(headerValue, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return sess.Bind(id), true
}

// FriendDirectory is the slice of the relationship store the lifecycle hooks
// need.
type FriendDirectory interface {
	ListFriendIDs(ctx context.Context, userID int64) ([]int64, error)
}

// PresenceRegistry mirrors presence.Registry; declared here so the hooks
// depend only on what they use.
type PresenceRegistry interface {
	MarkOnline(ctx context.Context, userID int64) error
	MarkOffline(ctx context.Context, userID int64) error
}

// StatusEvent is published to each friend's presence topic on connect and
// disconnect.
type StatusEvent struct {
	UserID int64  `json:"userId"`
	Status string `json:"status"`
}

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Lifecycle reacts to connections opening and closing: it keeps the presence
// registry current and tells the user's friends about the status change.
type Lifecycle struct {
	registry PresenceRegistry
	friends  FriendDirectory
	pub      Publisher
	log      *zerolog.Logger
}

// NewLifecycle wires the lifecycle hooks.
func NewLifecycle(registry PresenceRegistry, friends FriendDirectory, pub Publisher, logger *zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		registry: registry,
		friends:  friends,
		pub:      pub,
		log:      logger,
	}
}

// HandleConnect resolves the connecting principal, marks it online, and
// notifies its friends. Anonymous connections are ignored.
func (l *Lifecycle) HandleConnect(ctx context.Context, sess *Session, headerValue string) {
	userID, ok := ResolveIdentity(headerValue, sess)
	if !ok {
		return
	}

	if err := l.registry.MarkOnline(ctx, userID); err != nil {
		l.log.Warn().Err(err).Int64("user_id", userID).Msg("mark online failed")
	}
	l.broadcastStatus(ctx, userID, StatusOnline)
}

// HandleDisconnect resolves the principal from the session (connect headers
// are gone by now), marks it offline, and notifies its friends.
func (l *Lifecycle) HandleDisconnect(ctx context.Context, sess *Session) {
	userID, ok := sess.UserID()
	if !ok {
		return
	}

	if err := l.registry.MarkOffline(ctx, userID); err != nil {
		l.log.Warn().Err(err).Int64("user_id", userID).Msg("mark offline failed")
	}
	l.broadcastStatus(ctx, userID, StatusOffline)
}

// broadcastStatus delivers the status change to each friend independently;
// one failed recipient never blocks the rest.
func (l *Lifecycle) broadcastStatus(ctx context.Context, userID int64, status string) {
	friendIDs, err := l.friends.ListFriendIDs(ctx, userID)
	if err != nil {
		l.log.Warn().Err(err).Int64("user_id", userID).Msg("list friend ids failed")
		return
	}

	event := StatusEvent{UserID: userID, Status: status}
	for _, fid := range friendIDs {
		if err := l.pub.Publish(ctx, PresenceTopic(fid), event); err != nil {
			l.log.Warn().Err(err).Int64("friend_id", fid).Msg("presence publish failed")
		}
	}
}
