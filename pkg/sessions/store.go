package sessions

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/skillforge/skillet/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	path          TEXT NOT NULL,
	title         TEXT NOT NULL,
	started_at    DATETIME NOT NULL,
	message_count INTEGER NOT NULL,
	content       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at DESC);
`

// Store is the sqlite-backed session index
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the session index at dbPath
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating session index directory")
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening session index")
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing session index schema")
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// Index walks transcriptsDir and (re)indexes every .json/.jsonl transcript.
// Files that fail to parse are logged and skipped. Returns the number of
// sessions indexed.
func (s *Store) Index(ctx context.Context, transcriptsDir string) (int, error) {
	indexed := 0

	err := filepath.WalkDir(transcriptsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".json" && ext != ".jsonl" {
			return nil
		}

		session, err := ParseTranscript(path)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("path", path).Warn("Skipping unreadable transcript")
			return nil
		}

		if err := s.upsert(ctx, session); err != nil {
			return err
		}

		indexed++
		return nil
	})
	if err != nil {
		return indexed, errors.Wrap(err, "indexing transcripts")
	}

	return indexed, nil
}

func (s *Store) upsert(ctx context.Context, session *Session) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO sessions (id, path, title, started_at, message_count, content)
		VALUES (:id, :path, :title, :started_at, :message_count, :content)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			title = excluded.title,
			started_at = excluded.started_at,
			message_count = excluded.message_count,
			content = excluded.content
	`, session)
	if err != nil {
		return errors.Wrapf(err, "indexing session %s", session.ID)
	}
	return nil
}

// Query describes a session search
type Query struct {
	// Term is matched case-insensitively against title and content
	Term string
	// PathGlob filters by transcript path (e.g. "**/projects/foo/*.jsonl")
	PathGlob string
	Since    *time.Time
	Until    *time.Time
	// SortBy is "startedAt" (default), "messageCount" or "title"
	SortBy string
	// SortOrder is "asc" or "desc" (default)
	SortOrder string
	Limit     int
	Offset    int
}

func (q Query) orderClause() string {
	sortBy := "started_at"
	switch q.SortBy {
	case "startedAt", "":
	case "messageCount":
		sortBy = "message_count"
	case "title":
		sortBy = "title"
	}

	sortOrder := "DESC"
	if q.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	return " ORDER BY " + sortBy + " " + sortOrder
}

// Search returns sessions matching the query, newest first unless SortBy or
// SortOrder say otherwise
func (s *Store) Search(ctx context.Context, q Query) ([]Session, error) {
	query := `SELECT id, path, title, started_at, message_count, content FROM sessions`
	var clauses []string
	var args []any

	if q.Term != "" {
		clauses = append(clauses, `LOWER(title || ' ' || content) LIKE ?`)
		args = append(args, "%"+strings.ToLower(q.Term)+"%")
	}
	if q.Since != nil {
		clauses = append(clauses, `started_at >= ?`)
		args = append(args, *q.Since)
	}
	if q.Until != nil {
		clauses = append(clauses, `started_at <= ?`)
		args = append(args, *q.Until)
	}

	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += q.orderClause()

	var sessions []Session
	if err := s.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, errors.Wrap(err, "searching sessions")
	}

	if q.PathGlob != "" {
		matcher, err := glob.Compile(q.PathGlob, '/')
		if err != nil {
			return nil, errors.Wrapf(err, "invalid path glob %q", q.PathGlob)
		}

		filtered := sessions[:0]
		for _, session := range sessions {
			if matcher.Match(filepath.ToSlash(session.Path)) {
				filtered = append(filtered, session)
			}
		}
		sessions = filtered
	}

	// Offset/limit apply after the glob filter so pagination sees the same
	// result set the caller does
	if q.Offset > 0 {
		if q.Offset >= len(sessions) {
			return []Session{}, nil
		}
		sessions = sessions[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(sessions) {
		sessions = sessions[:q.Limit]
	}

	return sessions, nil
}
