package friends

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/webcrafter/webcrafter-server/internal/presence"
	"github.com/webcrafter/webcrafter-server/internal/realtime"
	"github.com/webcrafter/webcrafter-server/internal/store"
	"github.com/webcrafter/webcrafter-server/internal/store/sqlite"
)

type published struct {
	Topic   string
	Payload any
}

type capturePublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *capturePublisher) Publish(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Topic: topic, Payload: payload})
	return nil
}

func (p *capturePublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Topic)
	}
	return out
}

func (p *capturePublisher) countTopic(topic string) int {
	n := 0
	for _, got := range p.topics() {
		if got == topic {
			n++
		}
	}
	return n
}

func (p *capturePublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

func newTestService(t *testing.T) (*Service, *capturePublisher, *presence.MemoryRegistry, store.Store) {
	t.Helper()
	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	pub := &capturePublisher{}
	registry := presence.NewMemoryRegistry()
	logger := zerolog.Nop()
	return New(st, registry, pub, &logger), pub, registry, st
}

func seedUser(t *testing.T, st store.Store, nickname, email string) int64 {
	t.Helper()
	u, err := st.CreateUser(context.Background(), nickname, email, "hash")
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", nickname, err)
	}
	return u.ID
}

func TestSendRequest(t *testing.T) {
	svc, pub, _, st := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice", "alice@example.com")
	bob := seedUser(t, st, "bob", "bob@example.com")

	if err := svc.SendRequest(ctx, alice, bob); err != nil {
		t.Fatalf("send request: %v", err)
	}

	// the target's inbox got a FRIEND_REQUEST
	notis, err := st.ListNotifications(ctx, bob)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notis) != 1 {
		t.Fatalf("bob has %d notifications, want 1", len(notis))
	}
	if notis[0].Type != store.NotificationFriendRequest || notis[0].SenderID != alice {
		t.Errorf("notification = %+v", notis[0])
	}

	// only the target's notification list was refreshed
	if n := pub.countTopic(realtime.NotificationsTopic(bob)); n != 1 {
		t.Errorf("bob's notifications topic got %d publishes, want 1", n)
	}
	if n := pub.countTopic(realtime.NotificationsTopic(alice)); n != 0 {
		t.Errorf("alice's notifications topic got %d publishes, want 0", n)
	}
}

func TestSendRequestErrors(t *testing.T) {
	svc, _, _, st := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice", "alice@example.com")
	bob := seedUser(t, st, "bob", "bob@example.com")

	if err := svc.SendRequest(ctx, alice, alice); !errors.Is(err, ErrCannotFriendSelf) {
		t.Errorf("self request error = %v, want ErrCannotFriendSelf", err)
	}
	if err := svc.SendRequest(ctx, alice, 9999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown target error = %v, want ErrUserNotFound", err)
	}

	if err := svc.SendRequest(ctx, alice, bob); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if err := svc.SendRequest(ctx, alice, bob); !errors.Is(err, ErrRelationExists) {
		t.Errorf("duplicate request error = %v, want ErrRelationExists", err)
	}
	// the reverse direction is also blocked by the existing edge
	if err := svc.SendRequest(ctx, bob, alice); !errors.Is(err, ErrRelationExists) {
		t.Errorf("reverse request error = %v, want ErrRelationExists", err)
	}
}

func TestAcceptRequest(t *testing.T) {
	svc, pub, _, st := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice", "alice@example.com")
	bob := seedUser(t, st, "bob", "bob@example.com")

	if err := svc.SendRequest(ctx, alice, bob); err != nil {
		t.Fatalf("send request: %v", err)
	}
	notis, _ := st.ListNotifications(ctx, bob)
	pub.reset()

	if err := svc.AcceptRequest(ctx, bob, alice, notis[0].ID); err != nil {
		t.Fatalf("accept request: %v", err)
	}

	// both users are now friends
	ids, err := st.ListFriendIDs(ctx, alice)
	if err != nil || len(ids) != 1 || ids[0] != bob {
		t.Errorf("alice's friend ids = %v (err %v), want [bob]", ids, err)
	}

	// triggering notification is gone
	notis, _ = st.ListNotifications(ctx, bob)
	if len(notis) != 0 {
		t.Errorf("bob still has %d notifications", len(notis))
	}

	// both parties' friend lists refreshed, accepter's notifications refreshed
	if n := pub.countTopic(realtime.FriendsTopic(alice)); n != 1 {
		t.Errorf("alice's friends topic got %d publishes, want 1", n)
	}
	if n := pub.countTopic(realtime.FriendsTopic(bob)); n != 1 {
		t.Errorf("bob's friends topic got %d publishes, want 1", n)
	}
	if n := pub.countTopic(realtime.NotificationsTopic(bob)); n != 1 {
		t.Errorf("bob's notifications topic got %d publishes, want 1", n)
	}
	if n := pub.countTopic(realtime.NotificationsTopic(alice)); n != 0 {
		t.Errorf("alice's notifications topic got %d publishes, want 0", n)
	}
}

func TestRejectRequestOnlyRefreshesRejecter(t *testing.T) {
	svc, pub, _, st := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice", "alice@example.com")
	bob := seedUser(t, st, "bob", "bob@example.com")

	if err := svc.SendRequest(ctx, alice, bob); err != nil {
		t.Fatalf("send request: %v", err)
	}
	notis, _ := st.ListNotifications(ctx, bob)
	pub.reset()

	if err := svc.RejectRequest(ctx, bob, alice, notis[0].ID); err != nil {
		t.Fatalf("reject request: %v", err)
	}

	exists, _ := st.RelationExists(ctx, alice, bob)
	if exists {
		t.Error("edge still exists after reject")
	}

	// the requester is not told
	if n := pub.countTopic(realtime.NotificationsTopic(bob)); n != 1 {
		t.Errorf("bob's notifications topic got %d publishes, want 1", n)
	}
	if n := pub.countTopic(realtime.NotificationsTopic(alice)); n != 0 {
		t.Errorf("alice's notifications topic got %d publishes, want 0", n)
	}
	if n := pub.countTopic(realtime.FriendsTopic(alice)); n != 0 {
		t.Errorf("alice's friends topic got %d publishes, want 0", n)
	}
}

func TestRejectRequestWrongDirection(t *testing.T) {
	svc, _, _, st := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice", "alice@example.com")
	bob := seedUser(t, st, "bob", "bob@example.com")

	if err := svc.SendRequest(ctx, alice, bob); err != nil {
		t.Fatalf("send request: %v", err)
	}

	// only the receiver may reject; the requester cancelling this way fails
	if err := svc.RejectRequest(ctx, alice, bob, 1); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("wrong-direction reject error = %v, want ErrRequestNotFound", err)
	}
}

func TestDeleteFriendPurgesChat(t *testing.T) {
	svc, pub, _, st := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice", "alice@example.com")
	bob := seedUser(t, st, "bob", "bob@example.com")

	if err := svc.SendRequest(ctx, alice, bob); err != nil {
		t.Fatalf("send request: %v", err)
	}
	notis, _ := st.ListNotifications(ctx, bob)
	if err := svc.AcceptRequest(ctx, bob, alice, notis[0].ID); err != nil {
		t.Fatalf("accept request: %v", err)
	}

	channelID := realtime.DirectChannelID(alice, bob)
	for _, content := range []string{"hi", "hello"} {
		err := st.SaveMessage(ctx, &store.ChatMessage{ChannelID: channelID, SenderID: alice, Content: content})
		if err != nil {
			t.Fatalf("save message: %v", err)
		}
	}
	pub.reset()

	if err := svc.DeleteFriend(ctx, alice, bob); err != nil {
		t.Fatalf("delete friend: %v", err)
	}

	exists, _ := st.RelationExists(ctx, alice, bob)
	if exists {
		t.Error("edge still exists after delete")
	}

	msgs, err := st.ListMessages(ctx, channelID, 10)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("chat history has %d messages after friend deletion, want 0", len(msgs))
	}

	// both parties get friend and notification refreshes
	for _, uid := range []int64{alice, bob} {
		if n := pub.countTopic(realtime.FriendsTopic(uid)); n != 1 {
			t.Errorf("user %d friends topic got %d publishes, want 1", uid, n)
		}
		if n := pub.countTopic(realtime.NotificationsTopic(uid)); n != 1 {
			t.Errorf("user %d notifications topic got %d publishes, want 1", uid, n)
		}
	}
}

func TestFriendListConnectStatus(t *testing.T) {
	svc, _, registry, st := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice", "alice@example.com")
	bob := seedUser(t, st, "bob", "bob@example.com")
	carol := seedUser(t, st, "carol", "carol@example.com")

	for _, friendID := range []int64{bob, carol} {
		if err := svc.SendRequest(ctx, alice, friendID); err != nil {
			t.Fatalf("send request: %v", err)
		}
		notis, _ := st.ListNotifications(ctx, friendID)
		if err := svc.AcceptRequest(ctx, friendID, alice, notis[0].ID); err != nil {
			t.Fatalf("accept request: %v", err)
		}
	}

	if err := registry.MarkOnline(ctx, bob); err != nil {
		t.Fatalf("mark online: %v", err)
	}

	list, err := svc.FriendList(ctx, alice)
	if err != nil {
		t.Fatalf("friend list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("friend list has %d entries, want 2", len(list))
	}

	statuses := make(map[int64]string)
	for _, f := range list {
		statuses[f.ID] = f.ConnectStatus
	}
	if statuses[bob] != realtime.StatusOnline {
		t.Errorf("bob's status = %q, want online", statuses[bob])
	}
	if statuses[carol] != realtime.StatusOffline {
		t.Errorf("carol's status = %q, want offline", statuses[carol])
	}
}

func TestNotificationsRefreshCarriesFullList(t *testing.T) {
	svc, pub, _, st := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, st, "alice", "alice@example.com")
	bob := seedUser(t, st, "bob", "bob@example.com")
	carol := seedUser(t, st, "carol", "carol@example.com")

	if err := svc.SendRequest(ctx, alice, carol); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if err := svc.SendRequest(ctx, bob, carol); err != nil {
		t.Fatalf("send request: %v", err)
	}

	// the second refresh publish carries carol's whole inbox, not a delta
	var lastList []*store.Notification
	for _, e := range pub.events {
		if e.Topic == realtime.NotificationsTopic(carol) {
			if list, ok := e.Payload.([]*store.Notification); ok {
				lastList = list
			}
		}
	}
	if len(lastList) != 2 {
		t.Fatalf("last refresh carried %d notifications, want 2", len(lastList))
	}
}
