package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/webcrafter/webcrafter-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSearchUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed := []struct{ nickname, email string }{
		{"alice", "alice@example.com"},
		{"bob", "bob@example.com"},
		{"charlie", "charlie@example.com"},
	}
	ids := make(map[string]int64)
	for _, u := range seed {
		created, err := s.CreateUser(ctx, u.nickname, u.email, "hash")
		if err != nil {
			t.Fatalf("failed to create user %s: %v", u.nickname, err)
		}
		ids[u.nickname] = created.ID
	}

	tests := []struct {
		name      string
		keyword   string
		excludeID int64
		expected  []string
	}{
		{"by nickname", "alice", ids["bob"], []string{"alice"}},
		{"by email", "bob@example.com", ids["alice"], []string{"bob"}},
		{"excludes caller", "alice", ids["alice"], []string{}},
		{"no partial match", "ali", ids["bob"], []string{}},
		{"no match", "nobody", ids["bob"], []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := s.SearchUsers(ctx, tt.keyword, tt.excludeID)
			if err != nil {
				t.Fatalf("SearchUsers failed: %v", err)
			}
			if len(results) != len(tt.expected) {
				t.Fatalf("got %d results, want %d", len(results), len(tt.expected))
			}
			for i, want := range tt.expected {
				if results[i].Nickname != want {
					t.Errorf("result %d = %q, want %q", i, results[i].Nickname, want)
				}
			}
		})
	}
}

func TestFriendEdgeLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice, _ := s.CreateUser(ctx, "alice", "alice@example.com", "hash")
	bob, _ := s.CreateUser(ctx, "bob", "bob@example.com", "hash")

	f, err := s.CreateFriendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("create friend request: %v", err)
	}
	if f.Status != store.FriendStatusPending {
		t.Errorf("new edge status = %q, want PENDING", f.Status)
	}

	// pending edges are not friendships yet
	ids, err := s.ListFriendIDs(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list friend ids: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("pending edge counted as friendship: %v", ids)
	}

	// relation is visible from both directions
	for _, pair := range [][2]int64{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		exists, err := s.RelationExists(ctx, pair[0], pair[1])
		if err != nil || !exists {
			t.Errorf("RelationExists(%d, %d) = %v, %v", pair[0], pair[1], exists, err)
		}
	}

	// accept works with arguments in either order
	if err := s.AcceptFriendRequest(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("accept friend request: %v", err)
	}
	for _, uid := range []int64{alice.ID, bob.ID} {
		ids, err := s.ListFriendIDs(ctx, uid)
		if err != nil || len(ids) != 1 {
			t.Errorf("user %d friend ids = %v, %v", uid, ids, err)
		}
	}

	if err := s.DeleteFriendship(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("delete friendship: %v", err)
	}
	exists, _ := s.RelationExists(ctx, alice.ID, bob.ID)
	if exists {
		t.Error("edge still exists after delete")
	}
}

func TestDeletePendingRequestDirectional(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice, _ := s.CreateUser(ctx, "alice", "alice@example.com", "hash")
	bob, _ := s.CreateUser(ctx, "bob", "bob@example.com", "hash")

	if _, err := s.CreateFriendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("create friend request: %v", err)
	}

	// wrong direction misses
	if err := s.DeletePendingRequest(ctx, bob.ID, alice.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("wrong-direction delete error = %v, want ErrNotFound", err)
	}
	// right direction removes
	if err := s.DeletePendingRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("delete pending request: %v", err)
	}
	// accepted edges are immune to pending deletion
	if _, err := s.CreateFriendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("recreate friend request: %v", err)
	}
	if err := s.AcceptFriendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("accept friend request: %v", err)
	}
	if err := s.DeletePendingRequest(ctx, alice.ID, bob.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("pending delete on accepted edge error = %v, want ErrNotFound", err)
	}
}

func TestNotificationsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice, _ := s.CreateUser(ctx, "alice", "alice@example.com", "hash")
	bob, _ := s.CreateUser(ctx, "bob", "bob@example.com", "hash")

	first := &store.Notification{ReceiverID: bob.ID, SenderID: alice.ID, Type: store.NotificationFriendRequest}
	if err := s.InsertNotification(ctx, first); err != nil {
		t.Fatalf("insert notification: %v", err)
	}
	related := int64(42)
	second := &store.Notification{ReceiverID: bob.ID, SenderID: alice.ID, Type: store.NotificationProjectInvite, RelatedID: &related}
	if err := s.InsertNotification(ctx, second); err != nil {
		t.Fatalf("insert notification: %v", err)
	}

	list, err := s.ListNotifications(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d notifications, want 2", len(list))
	}
	if list[0].ID != second.ID {
		t.Errorf("newest notification first: got id %d, want %d", list[0].ID, second.ID)
	}
	if list[0].SenderName != "alice" {
		t.Errorf("sender name = %q, want alice", list[0].SenderName)
	}
	if list[0].RelatedID == nil || *list[0].RelatedID != related {
		t.Errorf("related id = %v, want %d", list[0].RelatedID, related)
	}

	if err := s.DeleteNotification(ctx, first.ID); err != nil {
		t.Fatalf("delete notification: %v", err)
	}
	if err := s.DeleteNotification(ctx, first.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("double delete error = %v, want ErrNotFound", err)
	}
}

func TestChatMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, "alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	bob, err := s.CreateUser(ctx, "bob", "bob@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	chanAB := fmt.Sprintf("%d_%d", alice.ID, bob.ID)
	chanOther := fmt.Sprintf("%d_%d", bob.ID, bob.ID+1)

	for i := 0; i < 3; i++ {
		msg := &store.ChatMessage{ChannelID: chanAB, SenderID: alice.ID, Content: "hello"}
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("save message %d: %v", i, err)
		}
		if msg.ID == 0 {
			t.Error("message id not filled in")
		}
	}
	if err := s.SaveMessage(ctx, &store.ChatMessage{ChannelID: chanOther, SenderID: bob.ID, Content: "other"}); err != nil {
		t.Fatalf("save message: %v", err)
	}

	msgs, err := s.ListMessages(ctx, chanAB, 10)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("channel has %d messages, want 3", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].ID < msgs[i-1].ID {
			t.Error("messages not in chronological order")
		}
	}

	n, err := s.PurgeChannel(ctx, chanAB)
	if err != nil {
		t.Fatalf("purge channel: %v", err)
	}
	if n != 3 {
		t.Errorf("purge removed %d rows, want 3", n)
	}
	// the other channel is untouched
	other, _ := s.ListMessages(ctx, chanOther, 10)
	if len(other) != 1 {
		t.Errorf("other channel has %d messages, want 1", len(other))
	}
}

func TestSaveMessageRequiresExistingSender(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, "alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	msg := &store.ChatMessage{ChannelID: "1_2", SenderID: alice.ID + 100, Content: "hello"}
	if err := s.SaveMessage(ctx, msg); err == nil {
		t.Fatal("message with unknown sender was accepted")
	}
}

func TestProjectCascadeDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice, _ := s.CreateUser(ctx, "alice", "alice@example.com", "hash")

	p, err := s.CreateProject(ctx, alice.ID, "Site")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := s.InsertPage(ctx, &store.ProjectPage{ProjectID: p.ID, Name: "Home", Layout: "x", Style: "{}", Logic: "{}"}); err != nil {
		t.Fatalf("insert page: %v", err)
	}
	if err := s.AddProjectMember(ctx, p.ID, alice.ID, store.ProjectRoleOwner); err != nil {
		t.Fatalf("add member: %v", err)
	}

	if err := s.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}

	pages, err := s.ListPages(ctx, p.ID)
	if err != nil {
		t.Fatalf("list pages: %v", err)
	}
	if len(pages) != 0 {
		t.Errorf("pages survived project deletion: %d", len(pages))
	}
	member, _ := s.IsProjectMember(ctx, p.ID, alice.ID)
	if member {
		t.Error("membership survived project deletion")
	}
}

func TestRememberTokenExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice, _ := s.CreateUser(ctx, "alice", "alice@example.com", "hash")

	valid := &store.RememberToken{Token: "valid", UserID: alice.ID, ExpiresAt: time.Now().Add(time.Hour)}
	expired := &store.RememberToken{Token: "expired", UserID: alice.ID, ExpiresAt: time.Now().Add(-time.Hour)}
	for _, tok := range []*store.RememberToken{valid, expired} {
		if err := s.CreateRememberToken(ctx, tok); err != nil {
			t.Fatalf("create token %q: %v", tok.Token, err)
		}
	}

	got, err := s.GetRememberToken(ctx, "valid")
	if err != nil {
		t.Fatalf("get valid token: %v", err)
	}
	if got.UserID != alice.ID {
		t.Errorf("token user id = %d, want %d", got.UserID, alice.ID)
	}

	if _, err := s.GetRememberToken(ctx, "expired"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expired token error = %v, want ErrNotFound", err)
	}

	if err := s.DeleteRememberToken(ctx, "valid"); err != nil {
		t.Fatalf("delete token: %v", err)
	}
	if _, err := s.GetRememberToken(ctx, "valid"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted token error = %v, want ErrNotFound", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetUserByID(ctx, 42); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown id error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown email error = %v, want ErrNotFound", err)
	}
}
