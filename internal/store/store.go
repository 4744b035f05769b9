// Package store implements the authoritative record store for projects,
// files, and conversation history, backed by SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"codeforge/internal/logging"
)

// Project is a stored project record.
type Project struct {
	ID          string
	Name        string
	Type        string
	Description string
	Template    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// File is a stored file record. Content here is authoritative; the
// filesystem mirror is a best-effort side channel.
type File struct {
	ID        string
	ProjectID string
	Name      string
	Path      string
	Content   string
	Type      string
	Modified  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one turn of a project's conversation history.
type Message struct {
	ID        string
	ProjectID string
	Role      string
	Content   string
	CreatedAt time.Time
}

// ProjectFields are the caller-supplied fields for project creation.
// The store assigns ID and timestamps.
type ProjectFields struct {
	Name        string
	Type        string
	Description string
	Template    string
}

// FileFields are the caller-supplied fields for file creation.
type FileFields struct {
	ProjectID string
	Name      string
	Path      string
	Content   string
	Type      string
}

// FileUpdate is a partial update: nil fields are left untouched.
type FileUpdate struct {
	Content *string
	Path    *string
	Name    *string
}

// ProjectStore is the SQLite-backed record store. A single write
// connection with WAL mode keeps concurrent request handling simple.
type ProjectStore struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// NewProjectStore opens (or creates) the database at the given path.
func NewProjectStore(path string) (*ProjectStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewProjectStore")
	defer timer.Stop()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.StoreDebug("Failed to set %q: %v", pragma, err)
		}
	}

	s := &ProjectStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Store("ProjectStore ready at %s", path)
	return s, nil
}

// initialize creates the required tables.
func (s *ProjectStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		description TEXT,
		template TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS files (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		type TEXT,
		modified INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_files_project ON files(project_id);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_project ON conversations(project_id);

	CREATE TABLE IF NOT EXISTS pending_confirmations (
		token TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		requested_by TEXT,
		created_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *ProjectStore) Close() error {
	return s.db.Close()
}

// CreateProject persists a new project and returns the stored record.
func (s *ProjectStore) CreateProject(fields ProjectFields) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	p := &Project{
		ID:          uuid.NewString(),
		Name:        fields.Name,
		Type:        fields.Type,
		Description: fields.Description,
		Template:    fields.Template,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.Exec(
		`INSERT INTO projects (id, name, type, description, template, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Type, p.Description, p.Template, now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}

	logging.Store("Created project %s (%s)", p.ID, p.Name)
	return p, nil
}

// GetProject returns a project by id. The bool reports existence.
func (s *ProjectStore) GetProject(id string) (*Project, bool, error) {
	row := s.db.QueryRow(
		`SELECT id, name, type, description, template, created_at, updated_at
		 FROM projects WHERE id = ?`, id)

	var p Project
	var created, updated int64
	err := row.Scan(&p.ID, &p.Name, &p.Type, &p.Description, &p.Template, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query project: %w", err)
	}
	p.CreatedAt = time.UnixMilli(created).UTC()
	p.UpdatedAt = time.UnixMilli(updated).UTC()
	return &p, true, nil
}

// ListProjects returns all projects, newest first.
func (s *ProjectStore) ListProjects() ([]*Project, error) {
	rows, err := s.db.Query(
		`SELECT id, name, type, description, template, created_at, updated_at
		 FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var p Project
		var created, updated int64
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.Description, &p.Template, &created, &updated); err != nil {
			return nil, err
		}
		p.CreatedAt = time.UnixMilli(created).UTC()
		p.UpdatedAt = time.UnixMilli(updated).UTC()
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project and cascades to its files and
// conversation history. Returns false when no such project exists.
func (s *ProjectStore) DeleteProject(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		logging.Store("Deleted project %s (cascade)", id)
	}
	return n > 0, nil
}

// CreateFile persists a new file record scoped to a project.
func (s *ProjectStore) CreateFile(fields FileFields) (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	f := &File{
		ID:        uuid.NewString(),
		ProjectID: fields.ProjectID,
		Name:      fields.Name,
		Path:      fields.Path,
		Content:   fields.Content,
		Type:      fields.Type,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(
		`INSERT INTO files (id, project_id, name, path, content, type, modified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		f.ID, f.ProjectID, f.Name, f.Path, f.Content, f.Type, now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert file: %w", err)
	}

	logging.StoreDebug("Created file %s (%s) in project %s", f.ID, f.Path, f.ProjectID)
	return f, nil
}

// GetFile returns a file by id. The bool reports existence.
func (s *ProjectStore) GetFile(id string) (*File, bool, error) {
	row := s.db.QueryRow(
		`SELECT id, project_id, name, path, content, type, modified, created_at, updated_at
		 FROM files WHERE id = ?`, id)
	return scanFile(row)
}

// ListFiles returns all files in a project, oldest first.
func (s *ProjectStore) ListFiles(projectID string) ([]*File, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, name, path, content, type, modified, created_at, updated_at
		 FROM files WHERE project_id = ? ORDER BY created_at ASC, rowid ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []*File
	for rows.Next() {
		f, _, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// UpdateFile applies a partial update: only non-nil fields change.
// The modified flag is set unconditionally and updated_at is bumped.
// Returns (nil, false, nil) when the file does not exist.
func (s *ProjectStore) UpdateFile(id string, update FileUpdate) (*File, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok, err := s.GetFile(id)
	if err != nil || !ok {
		return nil, ok, err
	}

	if update.Content != nil {
		f.Content = *update.Content
	}
	if update.Path != nil {
		f.Path = *update.Path
	}
	if update.Name != nil {
		f.Name = *update.Name
	}
	f.Modified = true
	f.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(
		`UPDATE files SET name = ?, path = ?, content = ?, modified = 1, updated_at = ? WHERE id = ?`,
		f.Name, f.Path, f.Content, f.UpdatedAt.UnixMilli(), f.ID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to update file: %w", err)
	}

	logging.StoreDebug("Updated file %s", f.ID)
	return f, true, nil
}

// DeleteFile removes a file record. Returns false when absent.
func (s *ProjectStore) DeleteFile(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete file: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AppendMessage records one conversation turn for a project.
func (s *ProjectStore) AppendMessage(projectID, role, content string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	m := &Message{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}

	_, err := s.db.Exec(
		`INSERT INTO conversations (id, project_id, role, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.ProjectID, m.Role, m.Content, now.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return m, nil
}

// Messages returns a project's conversation history, oldest first.
func (s *ProjectStore) Messages(projectID string) ([]*Message, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, role, content, created_at
		 FROM conversations WHERE project_id = ? ORDER BY created_at ASC, rowid ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var m Message
		var created int64
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Role, &m.Content, &created); err != nil {
			return nil, err
		}
		m.CreatedAt = time.UnixMilli(created).UTC()
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows for scanFile.
type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (*File, bool, error) {
	var f File
	var modified int
	var created, updated int64
	err := row.Scan(&f.ID, &f.ProjectID, &f.Name, &f.Path, &f.Content, &f.Type, &modified, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to scan file: %w", err)
	}
	f.Modified = modified != 0
	f.CreatedAt = time.UnixMilli(created).UTC()
	f.UpdatedAt = time.UnixMilli(updated).UTC()
	return &f, true, nil
}
