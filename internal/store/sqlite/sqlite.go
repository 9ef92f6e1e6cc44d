package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/webcrafter/webcrafter-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, nickname, email, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (nickname, email, password_hash)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, nickname, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, nickname, email, password_hash, bio, status, created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	query := `
		SELECT id, nickname, email, password_hash, bio, status, created_at
		FROM users
		WHERE email = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.Nickname,
		&user.Email,
		&user.PasswordHash,
		&user.Bio,
		&user.Status,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// UpdateProfile updates a user's bio and status line.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, id int64, bio, status string) error {
	query := `UPDATE users SET bio = ?, status = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, bio, status, id)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SearchUsers finds users whose nickname or email matches keyword exactly,
// excluding excludeID.
func (s *SQLiteStore) SearchUsers(ctx context.Context, keyword string, excludeID int64) ([]*store.User, error) {
	query := `
		SELECT id, nickname, email, password_hash, bio, status, created_at
		FROM users
		WHERE (nickname = ? OR email = ?) AND id != ?
		ORDER BY nickname
	`
	rows, err := s.db.QueryContext(ctx, query, keyword, keyword, excludeID)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	users := make([]*store.User, 0)
	for rows.Next() {
		var u store.User
		if err := rows.Scan(&u.ID, &u.Nickname, &u.Email, &u.PasswordHash, &u.Bio, &u.Status, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// ==== FriendStore implementation ====

// CreateFriendRequest inserts a pending edge from requester to receiver.
func (s *SQLiteStore) CreateFriendRequest(ctx context.Context, requesterID, receiverID int64) (*store.Friend, error) {
	query := `
		INSERT INTO friends (requester_id, receiver_id, status)
		VALUES (?, ?, 'PENDING')
	`
	result, err := s.db.ExecContext(ctx, query, requesterID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("insert friend request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	var f store.Friend
	row := s.db.QueryRowContext(ctx, `
		SELECT id, requester_id, receiver_id, status, created_at
		FROM friends WHERE id = ?
	`, id)
	if err := row.Scan(&f.ID, &f.RequesterID, &f.ReceiverID, &f.Status, &f.CreatedAt); err != nil {
		return nil, fmt.Errorf("query friend request: %w", err)
	}
	return &f, nil
}

// RelationExists reports whether any edge exists between the pair.
func (s *SQLiteStore) RelationExists(ctx context.Context, a, b int64) (bool, error) {
	query := `
		SELECT COUNT(*) FROM friends
		WHERE (requester_id = ? AND receiver_id = ?)
		   OR (requester_id = ? AND receiver_id = ?)
	`
	var count int
	if err := s.db.QueryRowContext(ctx, query, a, b, b, a).Scan(&count); err != nil {
		return false, fmt.Errorf("check relation: %w", err)
	}
	return count > 0, nil
}

// AcceptFriendRequest flips the pair's edge to accepted, in either direction.
func (s *SQLiteStore) AcceptFriendRequest(ctx context.Context, a, b int64) error {
	query := `
		UPDATE friends SET status = 'ACCEPTED'
		WHERE (requester_id = ? AND receiver_id = ?)
		   OR (requester_id = ? AND receiver_id = ?)
	`
	result, err := s.db.ExecContext(ctx, query, a, b, b, a)
	if err != nil {
		return fmt.Errorf("accept friend request: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeletePendingRequest removes the pending edge sent by requesterID to receiverID.
func (s *SQLiteStore) DeletePendingRequest(ctx context.Context, requesterID, receiverID int64) error {
	query := `
		DELETE FROM friends
		WHERE requester_id = ? AND receiver_id = ? AND status = 'PENDING'
	`
	result, err := s.db.ExecContext(ctx, query, requesterID, receiverID)
	if err != nil {
		return fmt.Errorf("delete pending request: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteFriendship removes the pair's edge in either direction.
func (s *SQLiteStore) DeleteFriendship(ctx context.Context, a, b int64) error {
	query := `
		DELETE FROM friends
		WHERE (requester_id = ? AND receiver_id = ?)
		   OR (requester_id = ? AND receiver_id = ?)
	`
	result, err := s.db.ExecContext(ctx, query, a, b, b, a)
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListFriendIDs returns ids of all accepted friends of userID.
func (s *SQLiteStore) ListFriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT CASE WHEN requester_id = ? THEN receiver_id ELSE requester_id END
		FROM friends
		WHERE (requester_id = ? OR receiver_id = ?) AND status = 'ACCEPTED'
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list friend ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan friend id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListFriends returns the accepted friends of userID as users.
func (s *SQLiteStore) ListFriends(ctx context.Context, userID int64) ([]*store.User, error) {
	query := `
		SELECT u.id, u.nickname, u.email, u.password_hash, u.bio, u.status, u.created_at
		FROM friends f
		INNER JOIN users u ON u.id = CASE
			WHEN f.requester_id = ? THEN f.receiver_id
			ELSE f.requester_id
		END
		WHERE (f.requester_id = ? OR f.receiver_id = ?) AND f.status = 'ACCEPTED'
		ORDER BY u.nickname
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	friends := make([]*store.User, 0)
	for rows.Next() {
		var u store.User
		if err := rows.Scan(&u.ID, &u.Nickname, &u.Email, &u.PasswordHash, &u.Bio, &u.Status, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		friends = append(friends, &u)
	}
	return friends, rows.Err()
}

// ==== NotificationStore implementation ====

// InsertNotification stores n and fills in its ID and CreatedAt.
func (s *SQLiteStore) InsertNotification(ctx context.Context, n *store.Notification) error {
	query := `
		INSERT INTO notifications (receiver_id, sender_id, type, related_id, is_read)
		VALUES (?, ?, ?, ?, 0)
	`
	result, err := s.db.ExecContext(ctx, query, n.ReceiverID, n.SenderID, string(n.Type), n.RelatedID)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	n.ID = id
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return nil
}

// ListNotifications returns the receiver's full inbox, newest first.
func (s *SQLiteStore) ListNotifications(ctx context.Context, receiverID int64) ([]*store.Notification, error) {
	query := `
		SELECT n.id, n.receiver_id, n.sender_id, u.nickname, n.type, n.related_id, n.is_read, n.created_at
		FROM notifications n
		JOIN users u ON n.sender_id = u.id
		WHERE n.receiver_id = ?
		ORDER BY n.created_at DESC, n.id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, receiverID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*store.Notification, 0)
	for rows.Next() {
		var n store.Notification
		if err := rows.Scan(&n.ID, &n.ReceiverID, &n.SenderID, &n.SenderName, &n.Type, &n.RelatedID, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// DeleteNotification removes a notification by id.
func (s *SQLiteStore) DeleteNotification(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ==== ChatStore implementation ====

// SaveMessage persists msg and fills in its ID and CreatedAt.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.ChatMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO chat_messages (channel_id, sender_id, content, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, msg.ChannelID, msg.SenderID, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	msg.ID = id
	return nil
}

// ListMessages returns up to limit messages of a channel in chronological order.
func (s *SQLiteStore) ListMessages(ctx context.Context, channelID string, limit int) ([]*store.ChatMessage, error) {
	query := `
		SELECT id, channel_id, sender_id, content, created_at
		FROM chat_messages
		WHERE channel_id = ?
		ORDER BY id ASC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.ChatMessage, 0)
	for rows.Next() {
		var m store.ChatMessage
		if err := rows.Scan(&m.ID, &m.ChannelID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// PurgeChannel deletes all messages of a channel.
func (s *SQLiteStore) PurgeChannel(ctx context.Context, channelID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE channel_id = ?`, channelID)
	if err != nil {
		return 0, fmt.Errorf("purge channel: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge channel rows: %w", err)
	}
	return n, nil
}

// ==== ProjectStore implementation ====

// CreateProject inserts a project owned by ownerID.
func (s *SQLiteStore) CreateProject(ctx context.Context, ownerID int64, title string) (*store.Project, error) {
	query := `
		INSERT INTO projects (owner_id, title)
		VALUES (?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, ownerID, title)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}
	return s.GetProject(ctx, id)
}

// GetProject retrieves a project by id.
func (s *SQLiteStore) GetProject(ctx context.Context, id int64) (*store.Project, error) {
	query := `
		SELECT id, owner_id, title, preview_html, hits, created_at, updated_at
		FROM projects
		WHERE id = ?
	`
	var p store.Project
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.OwnerID, &p.Title, &p.PreviewHTML, &p.Hits, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query project: %w", err)
	}
	return &p, nil
}

// UpdateProjectTitle renames a project.
func (s *SQLiteStore) UpdateProjectTitle(ctx context.Context, id int64, title string) error {
	query := `UPDATE projects SET title = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, title, id)
	if err != nil {
		return fmt.Errorf("update project title: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpdateProjectPreview stores the rendered preview HTML.
func (s *SQLiteStore) UpdateProjectPreview(ctx context.Context, id int64, previewHTML string) error {
	query := `UPDATE projects SET preview_html = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, previewHTML, id)
	if err != nil {
		return fmt.Errorf("update project preview: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// IncrementProjectHits bumps the view counter.
func (s *SQLiteStore) IncrementProjectHits(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE projects SET hits = hits + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment project hits: %w", err)
	}
	return nil
}

// DeleteProject removes a project; pages and members cascade.
func (s *SQLiteStore) DeleteProject(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// InsertPage stores a page and fills in its ID.
func (s *SQLiteStore) InsertPage(ctx context.Context, p *store.ProjectPage) error {
	query := `
		INSERT INTO project_pages (project_id, name, layout, style, logic)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, p.ProjectID, p.Name, p.Layout, p.Style, p.Logic)
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	p.ID = id
	return nil
}

// GetPage retrieves a page of a project by name.
func (s *SQLiteStore) GetPage(ctx context.Context, projectID int64, name string) (*store.ProjectPage, error) {
	query := `
		SELECT id, project_id, name, layout, style, logic, created_at, updated_at
		FROM project_pages
		WHERE project_id = ? AND name = ?
	`
	var p store.ProjectPage
	err := s.db.QueryRowContext(ctx, query, projectID, name).Scan(
		&p.ID, &p.ProjectID, &p.Name, &p.Layout, &p.Style, &p.Logic, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query page: %w", err)
	}
	return &p, nil
}

// UpdatePage rewrites the page named oldName with p's name and blobs.
func (s *SQLiteStore) UpdatePage(ctx context.Context, projectID int64, oldName string, p *store.ProjectPage) error {
	query := `
		UPDATE project_pages
		SET name = ?, layout = ?, style = ?, logic = ?, updated_at = CURRENT_TIMESTAMP
		WHERE project_id = ? AND name = ?
	`
	result, err := s.db.ExecContext(ctx, query, p.Name, p.Layout, p.Style, p.Logic, projectID, oldName)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListPages lists the pages of a project.
func (s *SQLiteStore) ListPages(ctx context.Context, projectID int64) ([]*store.ProjectPage, error) {
	query := `
		SELECT id, project_id, name, layout, style, logic, created_at, updated_at
		FROM project_pages
		WHERE project_id = ?
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	pages := make([]*store.ProjectPage, 0)
	for rows.Next() {
		var p store.ProjectPage
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Name, &p.Layout, &p.Style, &p.Logic, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, &p)
	}
	return pages, rows.Err()
}

// DeletePage removes a page of a project by name.
func (s *SQLiteStore) DeletePage(ctx context.Context, projectID int64, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM project_pages WHERE project_id = ? AND name = ?`, projectID, name)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AddProjectMember registers a user in a project.
func (s *SQLiteStore) AddProjectMember(ctx context.Context, projectID, userID int64, role store.ProjectRole) error {
	query := `
		INSERT INTO project_members (project_id, user_id, role)
		VALUES (?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, projectID, userID, string(role)); err != nil {
		return fmt.Errorf("add project member: %w", err)
	}
	return nil
}

// RemoveProjectMember removes a user from a project.
func (s *SQLiteStore) RemoveProjectMember(ctx context.Context, projectID, userID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID)
	if err != nil {
		return fmt.Errorf("remove project member: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// IsProjectMember checks membership.
func (s *SQLiteStore) IsProjectMember(ctx context.Context, projectID, userID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check project member: %w", err)
	}
	return count > 0, nil
}

// GetProjectRole returns the user's role in a project.
func (s *SQLiteStore) GetProjectRole(ctx context.Context, projectID, userID int64) (store.ProjectRole, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID,
	).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", store.ErrNotFound
		}
		return "", fmt.Errorf("query project role: %w", err)
	}
	return store.ProjectRole(role), nil
}

// ListProjectMemberIDs lists member user ids of a project.
func (s *SQLiteStore) ListProjectMemberIDs(ctx context.Context, projectID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM project_members WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project member ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListPendingInviteIDs lists users with an unresolved invite to a project.
func (s *SQLiteStore) ListPendingInviteIDs(ctx context.Context, projectID int64) ([]int64, error) {
	query := `
		SELECT receiver_id FROM notifications
		WHERE related_id = ? AND type = 'PROJECT_INVITE'
	`
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list pending invite ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan invite id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListProjectsForUser lists the projects a user belongs to, newest first.
func (s *SQLiteStore) ListProjectsForUser(ctx context.Context, userID int64) ([]*store.ProjectSummary, error) {
	query := `
		SELECT p.id, p.title, u.nickname, m.role, p.hits, p.preview_html, p.updated_at
		FROM projects p
		JOIN project_members m ON p.id = m.project_id
		JOIN users u ON p.owner_id = u.id
		WHERE m.user_id = ?
		ORDER BY p.updated_at DESC, p.id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects for user: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows, true)
}

// ExploreProjects lists projects matching keyword, newest first.
func (s *SQLiteStore) ExploreProjects(ctx context.Context, keyword string, limit, offset int) ([]*store.ProjectSummary, error) {
	query := `
		SELECT p.id, p.title, u.nickname, p.hits, p.preview_html, p.updated_at
		FROM projects p
		JOIN users u ON p.owner_id = u.id
		WHERE (? = '' OR p.title LIKE '%' || ? || '%' OR u.nickname LIKE '%' || ? || '%')
		ORDER BY p.updated_at DESC, p.id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, query, keyword, keyword, keyword, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("explore projects: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows, false)
}

func scanSummaries(rows *sql.Rows, withRole bool) ([]*store.ProjectSummary, error) {
	summaries := make([]*store.ProjectSummary, 0)
	for rows.Next() {
		var p store.ProjectSummary
		var err error
		if withRole {
			err = rows.Scan(&p.ID, &p.Title, &p.OwnerNickname, &p.Role, &p.Hits, &p.PreviewHTML, &p.UpdatedAt)
		} else {
			err = rows.Scan(&p.ID, &p.Title, &p.OwnerNickname, &p.Hits, &p.PreviewHTML, &p.UpdatedAt)
		}
		if err != nil {
			return nil, fmt.Errorf("scan project summary: %w", err)
		}
		summaries = append(summaries, &p)
	}
	return summaries, rows.Err()
}

// ==== TokenStore implementation ====

// CreateRememberToken stores a remember-me token for a user.
func (s *SQLiteStore) CreateRememberToken(ctx context.Context, t *store.RememberToken) error {
	query := `
		INSERT INTO remember_tokens (token, user_id, expires_at)
		VALUES (?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, t.Token, t.UserID, t.ExpiresAt); err != nil {
		return fmt.Errorf("insert remember token: %w", err)
	}
	return nil
}

// GetRememberToken retrieves a token; expired tokens are not returned.
func (s *SQLiteStore) GetRememberToken(ctx context.Context, token string) (*store.RememberToken, error) {
	query := `
		SELECT token, user_id, expires_at
		FROM remember_tokens
		WHERE token = ? AND expires_at > ?
	`
	var t store.RememberToken
	err := s.db.QueryRowContext(ctx, query, token, time.Now()).Scan(&t.Token, &t.UserID, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query remember token: %w", err)
	}
	return &t, nil
}

// DeleteRememberToken removes a token.
func (s *SQLiteStore) DeleteRememberToken(ctx context.Context, token string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM remember_tokens WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete remember token: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}
