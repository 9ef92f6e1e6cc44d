package projects

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/webcrafter/webcrafter-server/internal/realtime"
	"github.com/webcrafter/webcrafter-server/internal/store"
	"github.com/webcrafter/webcrafter-server/internal/store/sqlite"
)

type capturePublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *capturePublisher) Publish(_ context.Context, topic string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func newTestService(t *testing.T) (*Service, *capturePublisher, store.Store) {
	t.Helper()
	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	pub := &capturePublisher{}
	logger := zerolog.Nop()
	return New(st, pub, &logger), pub, st
}

func seedUser(t *testing.T, st store.Store, nickname, email string) int64 {
	t.Helper()
	u, err := st.CreateUser(context.Background(), nickname, email, "hash")
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", nickname, err)
	}
	return u.ID
}

func TestCreateProjectStarterState(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, st, "alice", "alice@example.com")
	pid, err := svc.Create(ctx, owner)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	pages, err := st.ListPages(ctx, pid)
	if err != nil {
		t.Fatalf("list pages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("new project has %d pages, want 2", len(pages))
	}
	if pages[0].Name != "Home" || pages[1].Name != "Login" {
		t.Errorf("starter pages = %q, %q", pages[0].Name, pages[1].Name)
	}
	for _, p := range pages {
		if p.Layout == "" || p.Style == "" || p.Logic == "" {
			t.Errorf("page %q has empty starter blobs", p.Name)
		}
	}

	role, err := st.GetProjectRole(ctx, pid, owner)
	if err != nil || role != store.ProjectRoleOwner {
		t.Errorf("creator role = %q (err %v), want OWNER", role, err)
	}
}

func TestDeleteProjectOwnerOnly(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, st, "alice", "alice@example.com")
	editor := seedUser(t, st, "bob", "bob@example.com")

	pid, err := svc.Create(ctx, owner)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := st.AddProjectMember(ctx, pid, editor, store.ProjectRoleEditor); err != nil {
		t.Fatalf("add member: %v", err)
	}

	if err := svc.Delete(ctx, pid, editor); !errors.Is(err, ErrNotOwner) {
		t.Errorf("editor delete error = %v, want ErrNotOwner", err)
	}
	if err := svc.Delete(ctx, pid, owner); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := st.GetProject(ctx, pid); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("project still exists after delete: %v", err)
	}
}

func TestInviteFlow(t *testing.T) {
	svc, pub, st := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, st, "alice", "alice@example.com")
	target := seedUser(t, st, "bob", "bob@example.com")

	pid, err := svc.Create(ctx, owner)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	if err := svc.Invite(ctx, owner, target, pid); err != nil {
		t.Fatalf("invite: %v", err)
	}

	notis, err := st.ListNotifications(ctx, target)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notis) != 1 {
		t.Fatalf("target has %d notifications, want 1", len(notis))
	}
	n := notis[0]
	if n.Type != store.NotificationProjectInvite {
		t.Errorf("notification type = %q, want PROJECT_INVITE", n.Type)
	}
	if n.RelatedID == nil || *n.RelatedID != pid {
		t.Errorf("notification related id = %v, want %d", n.RelatedID, pid)
	}

	// the invite pushed the target's refreshed notification list
	found := false
	for _, topic := range pub.topics {
		if topic == realtime.NotificationsTopic(target) {
			found = true
		}
	}
	if !found {
		t.Error("target's notifications topic was not refreshed")
	}

	// duplicate invite while one is pending
	if err := svc.Invite(ctx, owner, target, pid); !errors.Is(err, ErrAlreadyInvited) {
		t.Errorf("duplicate invite error = %v, want ErrAlreadyInvited", err)
	}

	// accept joins as editor and clears the invite
	if err := svc.AcceptInvite(ctx, target, n.ID, pid); err != nil {
		t.Fatalf("accept invite: %v", err)
	}
	role, err := st.GetProjectRole(ctx, pid, target)
	if err != nil || role != store.ProjectRoleEditor {
		t.Errorf("joined role = %q (err %v), want EDITOR", role, err)
	}
	notis, _ = st.ListNotifications(ctx, target)
	if len(notis) != 0 {
		t.Errorf("target still has %d notifications after accept", len(notis))
	}

	// inviting an existing member
	if err := svc.Invite(ctx, owner, target, pid); !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("member invite error = %v, want ErrAlreadyMember", err)
	}
}

func TestInviteSelf(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, st, "alice", "alice@example.com")
	pid, err := svc.Create(ctx, owner)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	if err := svc.Invite(ctx, owner, owner, pid); !errors.Is(err, ErrCannotInviteSelf) {
		t.Errorf("self invite error = %v, want ErrCannotInviteSelf", err)
	}
}

func TestRejectInvite(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, st, "alice", "alice@example.com")
	target := seedUser(t, st, "bob", "bob@example.com")

	pid, err := svc.Create(ctx, owner)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := svc.Invite(ctx, owner, target, pid); err != nil {
		t.Fatalf("invite: %v", err)
	}
	notis, _ := st.ListNotifications(ctx, target)

	if err := svc.RejectInvite(ctx, target, notis[0].ID); err != nil {
		t.Fatalf("reject invite: %v", err)
	}

	member, _ := st.IsProjectMember(ctx, pid, target)
	if member {
		t.Error("target became a member despite rejecting")
	}
	notis, _ = st.ListNotifications(ctx, target)
	if len(notis) != 0 {
		t.Errorf("target still has %d notifications after reject", len(notis))
	}
}

func TestPageLifecycle(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, st, "alice", "alice@example.com")
	pid, err := svc.Create(ctx, owner)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	page := &store.ProjectPage{Name: "About"}
	if err := svc.CreatePage(ctx, pid, owner, page); err != nil {
		t.Fatalf("create page: %v", err)
	}
	if page.Layout == "" {
		t.Error("empty layout not filled with starter blob")
	}

	page.Name = "AboutUs"
	page.Layout = "<xml>custom</xml>"
	if err := svc.UpdatePage(ctx, pid, owner, "About", page); err != nil {
		t.Fatalf("rename page: %v", err)
	}
	got, err := svc.Page(ctx, pid, "AboutUs")
	if err != nil {
		t.Fatalf("get renamed page: %v", err)
	}
	if got.Layout != "<xml>custom</xml>" {
		t.Errorf("layout = %q after rename", got.Layout)
	}
	if _, err := svc.Page(ctx, pid, "About"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("old name lookup error = %v, want ErrPageNotFound", err)
	}

	if err := svc.DeletePage(ctx, pid, owner, "AboutUs"); err != nil {
		t.Fatalf("delete page: %v", err)
	}

	// non-members cannot touch pages
	stranger := seedUser(t, st, "mallory", "mallory@example.com")
	if err := svc.CreatePage(ctx, pid, stranger, &store.ProjectPage{Name: "Evil"}); !errors.Is(err, ErrNotOwner) {
		t.Errorf("stranger create page error = %v, want ErrNotOwner", err)
	}
}

func TestViewBumpsHits(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, st, "alice", "alice@example.com")
	pid, err := svc.Create(ctx, owner)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.View(ctx, pid); err != nil {
			t.Fatalf("view %d: %v", i, err)
		}
	}

	p, err := st.GetProject(ctx, pid)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if p.Hits != 3 {
		t.Errorf("hits = %d, want 3", p.Hits)
	}
}

func TestExplorePaging(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()

	owner := seedUser(t, st, "alice", "alice@example.com")
	for i := 0; i < 5; i++ {
		if _, err := svc.Create(ctx, owner); err != nil {
			t.Fatalf("create project %d: %v", i, err)
		}
	}

	first, err := svc.Explore(ctx, "", 0, 3)
	if err != nil {
		t.Fatalf("explore page 0: %v", err)
	}
	if len(first) != 3 {
		t.Errorf("page 0 has %d projects, want 3", len(first))
	}

	second, err := svc.Explore(ctx, "", 1, 3)
	if err != nil {
		t.Fatalf("explore page 1: %v", err)
	}
	if len(second) != 2 {
		t.Errorf("page 1 has %d projects, want 2", len(second))
	}

	none, err := svc.Explore(ctx, "no-such-keyword", 0, 10)
	if err != nil {
		t.Fatalf("explore keyword: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("keyword search returned %d projects, want 0", len(none))
	}
}
