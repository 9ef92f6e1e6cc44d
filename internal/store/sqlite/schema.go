package sqlite

// Schema is applied on every open. Statements are idempotent so an existing
// database passes through untouched.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	nickname      TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	bio           TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS friends (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	requester_id INTEGER NOT NULL REFERENCES users(id),
	receiver_id  INTEGER NOT NULL REFERENCES users(id),
	status       TEXT NOT NULL DEFAULT 'PENDING',
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (requester_id, receiver_id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	receiver_id INTEGER NOT NULL REFERENCES users(id),
	sender_id   INTEGER NOT NULL REFERENCES users(id),
	type        TEXT NOT NULL,
	related_id  INTEGER,
	is_read     BOOLEAN NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	channel_id TEXT NOT NULL,
	sender_id  INTEGER NOT NULL REFERENCES users(id),
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_chat_messages_channel
	ON chat_messages(channel_id, id);

CREATE TABLE IF NOT EXISTS projects (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id     INTEGER NOT NULL REFERENCES users(id),
	title        TEXT NOT NULL,
	preview_html TEXT NOT NULL DEFAULT '',
	hits         INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS project_pages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	layout     TEXT NOT NULL DEFAULT '',
	style      TEXT NOT NULL DEFAULT '',
	logic      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (project_id, name)
);

CREATE TABLE IF NOT EXISTS project_members (
	project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	user_id    INTEGER NOT NULL REFERENCES users(id),
	role       TEXT NOT NULL DEFAULT 'EDITOR',
	joined_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (project_id, user_id)
);

CREATE TABLE IF NOT EXISTS remember_tokens (
	token      TEXT PRIMARY KEY,
	user_id    INTEGER NOT NULL REFERENCES users(id),
	expires_at DATETIME NOT NULL
);
`
