package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// User represents a member account.
type User struct {
	ID           int64
	Nickname     string
	Email        string
	PasswordHash string
	Bio          string
	Status       string
	CreatedAt    time.Time
}

// FriendStatus defines friend relationship status.
type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "PENDING"
	FriendStatusAccepted FriendStatus = "ACCEPTED"
)

// Friend represents a friend edge between two users.
// RequesterID sent the request; ReceiverID received it.
type Friend struct {
	ID          int64
	RequesterID int64
	ReceiverID  int64
	Status      FriendStatus
	CreatedAt   time.Time
}

// NotificationType defines what a notification is about.
type NotificationType string

const (
	NotificationFriendRequest NotificationType = "FRIEND_REQUEST"
	NotificationProjectInvite NotificationType = "PROJECT_INVITE"
)

// Notification lives in the receiver's inbox until resolved.
type Notification struct {
	ID         int64
	ReceiverID int64
	SenderID   int64
	SenderName string // joined from users, not stored
	Type       NotificationType
	RelatedID  *int64 // project id for PROJECT_INVITE
	Read       bool
	CreatedAt  time.Time
}

// ChatMessage is a persisted direct message.
// ChannelID is always the canonical "min_max" pair key.
type ChatMessage struct {
	ID        int64
	ChannelID string
	SenderID  int64
	Content   string
	CreatedAt time.Time
}

// Project is a website-builder project.
type Project struct {
	ID          int64
	OwnerID     int64
	Title       string
	PreviewHTML string
	Hits        int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectPage holds one page's layout blobs. The blobs are opaque to the
// server; the front end owns their format.
type ProjectPage struct {
	ID        int64
	ProjectID int64
	Name      string
	Layout    string
	Style     string
	Logic     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProjectRole defines a member's permission level in a project.
type ProjectRole string

const (
	ProjectRoleOwner  ProjectRole = "OWNER"
	ProjectRoleEditor ProjectRole = "EDITOR"
)

// ProjectMember represents project membership.
type ProjectMember struct {
	ProjectID int64
	UserID    int64
	Role      ProjectRole
	JoinedAt  time.Time
}

// ProjectSummary is a row for dashboards and the explore page.
type ProjectSummary struct {
	ID            int64
	Title         string
	OwnerNickname string
	Role          ProjectRole
	Hits          int64
	PreviewHTML   string
	UpdatedAt     time.Time
}

// RememberToken is a long-lived login token.
type RememberToken struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

// UserStore handles member account persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, nickname, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// UpdateProfile updates a user's bio and status line.
	UpdateProfile(ctx context.Context, id int64, bio, status string) error

	// SearchUsers finds users whose nickname or email matches keyword exactly,
	// excluding excludeID.
	SearchUsers(ctx context.Context, keyword string, excludeID int64) ([]*User, error)
}

// FriendStore handles friend edge persistence.
type FriendStore interface {
	// CreateFriendRequest inserts a pending edge from requester to receiver.
	CreateFriendRequest(ctx context.Context, requesterID, receiverID int64) (*Friend, error)

	// RelationExists reports whether any edge exists between the pair,
	// in either direction and any status.
	RelationExists(ctx context.Context, a, b int64) (bool, error)

	// AcceptFriendRequest flips the pair's edge to accepted, whichever
	// direction it was created in.
	AcceptFriendRequest(ctx context.Context, a, b int64) error

	// DeletePendingRequest removes the pending edge sent by requesterID
	// to receiverID. Direction matters: only the receiver rejects.
	DeletePendingRequest(ctx context.Context, requesterID, receiverID int64) error

	// DeleteFriendship removes the pair's edge in either direction.
	DeleteFriendship(ctx context.Context, a, b int64) error

	// ListFriendIDs returns ids of all accepted friends of userID.
	ListFriendIDs(ctx context.Context, userID int64) ([]int64, error)

	// ListFriends returns the accepted friends of userID as users.
	ListFriends(ctx context.Context, userID int64) ([]*User, error)
}

// NotificationStore handles inbox persistence.
type NotificationStore interface {
	// InsertNotification stores n and fills in its ID and CreatedAt.
	InsertNotification(ctx context.Context, n *Notification) error

	// ListNotifications returns the receiver's full inbox, newest first.
	ListNotifications(ctx context.Context, receiverID int64) ([]*Notification, error)

	// DeleteNotification removes a notification by id.
	DeleteNotification(ctx context.Context, id int64) error
}

// ChatStore handles direct message persistence.
type ChatStore interface {
	// SaveMessage persists msg and fills in its ID and CreatedAt.
	SaveMessage(ctx context.Context, msg *ChatMessage) error

	// ListMessages returns up to limit messages of a channel in
	// chronological order.
	ListMessages(ctx context.Context, channelID string, limit int) ([]*ChatMessage, error)

	// PurgeChannel deletes all messages of a channel. Returns rows removed.
	PurgeChannel(ctx context.Context, channelID string) (int64, error)
}

// ProjectStore handles project, page, and membership persistence.
type ProjectStore interface {
	// CreateProject inserts a project owned by ownerID.
	CreateProject(ctx context.Context, ownerID int64, title string) (*Project, error)

	// GetProject retrieves a project by id.
	GetProject(ctx context.Context, id int64) (*Project, error)

	// UpdateProjectTitle renames a project.
	UpdateProjectTitle(ctx context.Context, id int64, title string) error

	// UpdateProjectPreview stores the rendered preview HTML.
	UpdateProjectPreview(ctx context.Context, id int64, previewHTML string) error

	// IncrementProjectHits bumps the view counter.
	IncrementProjectHits(ctx context.Context, id int64) error

	// DeleteProject removes a project with its pages and members.
	DeleteProject(ctx context.Context, id int64) error

	// InsertPage stores a page and fills in its ID.
	InsertPage(ctx context.Context, p *ProjectPage) error

	// GetPage retrieves a page of a project by name.
	GetPage(ctx context.Context, projectID int64, name string) (*ProjectPage, error)

	// UpdatePage rewrites the page named oldName with p's name and blobs.
	UpdatePage(ctx context.Context, projectID int64, oldName string, p *ProjectPage) error

	// ListPages lists the pages of a project.
	ListPages(ctx context.Context, projectID int64) ([]*ProjectPage, error)

	// DeletePage removes a page of a project by name.
	DeletePage(ctx context.Context, projectID int64, name string) error

	// AddProjectMember registers a user in a project.
	AddProjectMember(ctx context.Context, projectID, userID int64, role ProjectRole) error

	// RemoveProjectMember removes a user from a project.
	RemoveProjectMember(ctx context.Context, projectID, userID int64) error

	// IsProjectMember checks membership.
	IsProjectMember(ctx context.Context, projectID, userID int64) (bool, error)

	// GetProjectRole returns the user's role in a project.
	GetProjectRole(ctx context.Context, projectID, userID int64) (ProjectRole, error)

	// ListProjectMemberIDs lists member user ids of a project.
	ListProjectMemberIDs(ctx context.Context, projectID int64) ([]int64, error)

	// ListPendingInviteIDs lists users with an unresolved invite to a project.
	ListPendingInviteIDs(ctx context.Context, projectID int64) ([]int64, error)

	// ListProjectsForUser lists the projects a user belongs to, newest first.
	ListProjectsForUser(ctx context.Context, userID int64) ([]*ProjectSummary, error)

	// ExploreProjects lists projects matching keyword (title or owner
	// nickname), newest first, with limit/offset paging.
	ExploreProjects(ctx context.Context, keyword string, limit, offset int) ([]*ProjectSummary, error)
}

// TokenStore handles remember-me token persistence.
type TokenStore interface {
	// CreateRememberToken stores a remember-me token for a user.
	CreateRememberToken(ctx context.Context, t *RememberToken) error

	// GetRememberToken retrieves a token; expired tokens are not returned.
	GetRememberToken(ctx context.Context, token string) (*RememberToken, error)

	// DeleteRememberToken removes a token.
	DeleteRememberToken(ctx context.Context, token string) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	FriendStore
	NotificationStore
	ChatStore
	ProjectStore
	TokenStore

	// Close closes the underlying database connection.
	Close() error
}
