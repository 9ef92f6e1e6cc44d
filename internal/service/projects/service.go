// Package projects implements website-builder project CRUD and collaborator
// invites. Page layout/style/logic blobs are opaque strings owned by the
// front end.
package projects

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/webcrafter/webcrafter-server/internal/realtime"
	"github.com/webcrafter/webcrafter-server/internal/store"
)

// Common errors for project operations.
var (
	ErrCannotInviteSelf = errors.New("cannot invite yourself")
	ErrAlreadyMember    = errors.New("user is already a project member")
	ErrAlreadyInvited   = errors.New("user already has a pending invite")
	ErrNotOwner         = errors.New("only the project owner may do this")
	ErrProjectNotFound  = errors.New("project not found")
	ErrPageNotFound     = errors.New("page not found")
)

const (
	defaultTitle = "Untitled Project"

	// starter blobs for freshly created pages
	defaultLayout = `<xml xmlns="https://developers.google.com/blockly/xml"></xml>`
	defaultStyle  = "{}"
	defaultLogic  = "{}"
)

// initialPages are created with every new project.
var initialPages = []string{"Home", "Login"}

// Service provides project business logic.
type Service struct {
	store store.Store
	pub   realtime.Publisher
	log   *zerolog.Logger
}

// New creates a projects service.
func New(st store.Store, pub realtime.Publisher, logger *zerolog.Logger) *Service {
	return &Service{
		store: st,
		pub:   pub,
		log:   logger,
	}
}

// Create makes a project with its starter pages and registers the creator
// as OWNER. Returns the new project id.
func (s *Service) Create(ctx context.Context, ownerID int64) (int64, error) {
	project, err := s.store.CreateProject(ctx, ownerID, defaultTitle)
	if err != nil {
		return 0, fmt.Errorf("create project: %w", err)
	}

	for _, name := range initialPages {
		page := &store.ProjectPage{
			ProjectID: project.ID,
			Name:      name,
			Layout:    defaultLayout,
			Style:     defaultStyle,
			Logic:     defaultLogic,
		}
		if err := s.store.InsertPage(ctx, page); err != nil {
			return 0, fmt.Errorf("create page %q: %w", name, err)
		}
	}

	if err := s.store.AddProjectMember(ctx, project.ID, ownerID, store.ProjectRoleOwner); err != nil {
		return 0, fmt.Errorf("register owner: %w", err)
	}

	return project.ID, nil
}

// Rename updates a project's title.
func (s *Service) Rename(ctx context.Context, projectID, userID int64, title string) error {
	if err := s.requireMember(ctx, projectID, userID); err != nil {
		return err
	}
	if err := s.store.UpdateProjectTitle(ctx, projectID, title); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("rename project: %w", err)
	}
	return nil
}

// Delete removes a project entirely. Only the owner may delete.
func (s *Service) Delete(ctx context.Context, projectID, userID int64) error {
	role, err := s.store.GetProjectRole(ctx, projectID, userID)
	if err != nil || role != store.ProjectRoleOwner {
		return ErrNotOwner
	}
	if err := s.store.DeleteProject(ctx, projectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// View returns a project and bumps its hit counter.
func (s *Service) View(ctx context.Context, projectID int64) (*store.Project, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	if err := s.store.IncrementProjectHits(ctx, projectID); err != nil {
		s.log.Warn().Err(err).Int64("project_id", projectID).Msg("hit counter update failed")
	}
	return project, nil
}

// Page returns one page of a project.
func (s *Service) Page(ctx context.Context, projectID int64, name string) (*store.ProjectPage, error) {
	page, err := s.store.GetPage(ctx, projectID, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("get page: %w", err)
	}
	return page, nil
}

// Pages lists the pages of a project.
func (s *Service) Pages(ctx context.Context, projectID int64) ([]*store.ProjectPage, error) {
	return s.store.ListPages(ctx, projectID)
}

// CreatePage adds a page to a project, filling empty blobs with starters.
func (s *Service) CreatePage(ctx context.Context, projectID, userID int64, page *store.ProjectPage) error {
	if err := s.requireMember(ctx, projectID, userID); err != nil {
		return err
	}
	page.ProjectID = projectID
	if page.Layout == "" {
		page.Layout = defaultLayout
	}
	if page.Style == "" {
		page.Style = defaultStyle
	}
	if page.Logic == "" {
		page.Logic = defaultLogic
	}
	if err := s.store.InsertPage(ctx, page); err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	return nil
}

// UpdatePage rewrites the page previously named oldName, allowing renames.
func (s *Service) UpdatePage(ctx context.Context, projectID, userID int64, oldName string, page *store.ProjectPage) error {
	if err := s.requireMember(ctx, projectID, userID); err != nil {
		return err
	}
	if err := s.store.UpdatePage(ctx, projectID, oldName, page); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPageNotFound
		}
		return fmt.Errorf("update page: %w", err)
	}
	return nil
}

// DeletePage removes a page of a project.
func (s *Service) DeletePage(ctx context.Context, projectID, userID int64, name string) error {
	if err := s.requireMember(ctx, projectID, userID); err != nil {
		return err
	}
	if err := s.store.DeletePage(ctx, projectID, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPageNotFound
		}
		return fmt.Errorf("delete page: %w", err)
	}
	return nil
}

// UpdatePreview stores the rendered preview HTML used on the explore page.
func (s *Service) UpdatePreview(ctx context.Context, projectID, userID int64, previewHTML string) error {
	if err := s.requireMember(ctx, projectID, userID); err != nil {
		return err
	}
	if err := s.store.UpdateProjectPreview(ctx, projectID, previewHTML); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("update preview: %w", err)
	}
	return nil
}

// Invite files a PROJECT_INVITE notification for the target and pushes the
// target's refreshed notification list.
func (s *Service) Invite(ctx context.Context, myID, targetID, projectID int64) error {
	if myID == targetID {
		return ErrCannotInviteSelf
	}

	member, err := s.store.IsProjectMember(ctx, projectID, targetID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if member {
		return ErrAlreadyMember
	}

	pending, err := s.store.ListPendingInviteIDs(ctx, projectID)
	if err != nil {
		return fmt.Errorf("check pending invites: %w", err)
	}
	for _, id := range pending {
		if id == targetID {
			return ErrAlreadyInvited
		}
	}

	related := projectID
	noti := &store.Notification{
		ReceiverID: targetID,
		SenderID:   myID,
		Type:       store.NotificationProjectInvite,
		RelatedID:  &related,
	}
	if err := s.store.InsertNotification(ctx, noti); err != nil {
		return fmt.Errorf("insert invite notification: %w", err)
	}

	s.pushNotificationsRefresh(ctx, targetID)
	return nil
}

// AcceptInvite registers the user as an EDITOR and removes the invite.
func (s *Service) AcceptInvite(ctx context.Context, myID, notificationID, projectID int64) error {
	if err := s.store.AddProjectMember(ctx, projectID, myID, store.ProjectRoleEditor); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if err := s.store.DeleteNotification(ctx, notificationID); err != nil {
		s.log.Warn().Err(err).Int64("notification_id", notificationID).Msg("delete invite notification failed")
	}
	s.pushNotificationsRefresh(ctx, myID)
	return nil
}

// RejectInvite removes the invite notification without joining.
func (s *Service) RejectInvite(ctx context.Context, myID, notificationID int64) error {
	if err := s.store.DeleteNotification(ctx, notificationID); err != nil {
		return fmt.Errorf("delete invite notification: %w", err)
	}
	s.pushNotificationsRefresh(ctx, myID)
	return nil
}

// MemberIDs lists the user ids of a project's members.
func (s *Service) MemberIDs(ctx context.Context, projectID int64) ([]int64, error) {
	return s.store.ListProjectMemberIDs(ctx, projectID)
}

// PendingInviteIDs lists users with an unresolved invite to the project.
func (s *Service) PendingInviteIDs(ctx context.Context, projectID int64) ([]int64, error) {
	return s.store.ListPendingInviteIDs(ctx, projectID)
}

// MyProjects lists all projects the user belongs to.
func (s *Service) MyProjects(ctx context.Context, userID int64) ([]*store.ProjectSummary, error) {
	return s.store.ListProjectsForUser(ctx, userID)
}

// Explore lists public projects matching keyword with paging.
func (s *Service) Explore(ctx context.Context, keyword string, page, size int) ([]*store.ProjectSummary, error) {
	if size <= 0 {
		size = 12
	}
	if page < 0 {
		page = 0
	}
	return s.store.ExploreProjects(ctx, keyword, size, page*size)
}

func (s *Service) requireMember(ctx context.Context, projectID, userID int64) error {
	member, err := s.store.IsProjectMember(ctx, projectID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !member {
		return ErrNotOwner
	}
	return nil
}

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
