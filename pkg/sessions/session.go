// Package sessions indexes local agent session transcripts into a sqlite
// database and provides search over them. Transcripts are JSON documents
// (one session per file) or JSONL message streams; unreadable files are
// skipped, never fatal.
package sessions

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Message is a single transcript entry
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is one indexed transcript
type Session struct {
	ID           string    `db:"id" json:"id"`
	Path         string    `db:"path" json:"path"`
	Title        string    `db:"title" json:"title"`
	StartedAt    time.Time `db:"started_at" json:"started_at"`
	MessageCount int       `db:"message_count" json:"message_count"`
	Content      string    `db:"content" json:"-"`
}

// transcriptFile is the on-disk shape of a .json transcript
type transcriptFile struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartedAt time.Time `json:"started_at"`
	Messages  []Message `json:"messages"`
}

const titleLimit = 80

// ParseTranscript reads a transcript file (.json or .jsonl) into a Session.
// Sessions without an explicit ID get a deterministic one derived from the
// file path, so reindexing is stable.
func ParseTranscript(path string) (*Session, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSONTranscript(path)
	case ".jsonl":
		return parseJSONLTranscript(path)
	default:
		return nil, errors.Errorf("unsupported transcript format: %s", path)
	}
}

func parseJSONTranscript(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading transcript")
	}

	var tf transcriptFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, errors.Wrapf(err, "parsing transcript %s", path)
	}

	return sessionFromMessages(path, tf.ID, tf.Title, tf.StartedAt, tf.Messages)
}

func parseJSONLTranscript(path string) (*Session, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening transcript")
	}
	defer file.Close()

	var messages []Message
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var msg Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			return nil, errors.Wrapf(err, "parsing transcript line in %s", path)
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning transcript")
	}

	if len(messages) == 0 {
		return nil, errors.Errorf("empty transcript: %s", path)
	}

	return sessionFromMessages(path, "", "", time.Time{}, messages)
}

func sessionFromMessages(path, id, title string, startedAt time.Time, messages []Message) (*Session, error) {
	if len(messages) == 0 {
		return nil, errors.Errorf("transcript has no messages: %s", path)
	}

	if id == "" {
		id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(path)).String()
	}

	if title == "" {
		title = deriveTitle(messages)
	}

	if startedAt.IsZero() {
		if info, err := os.Stat(path); err == nil {
			startedAt = info.ModTime().UTC()
		} else {
			startedAt = time.Now().UTC()
		}
	}

	var content strings.Builder
	for _, m := range messages {
		content.WriteString(m.Content)
		content.WriteByte('\n')
	}

	return &Session{
		ID:           id,
		Path:         path,
		Title:        title,
		StartedAt:    startedAt,
		MessageCount: len(messages),
		Content:      content.String(),
	}, nil
}

// deriveTitle uses the first line of the first user message
func deriveTitle(messages []Message) string {
	for _, m := range messages {
		if m.Role != "user" {
			continue
		}

		line := m.Content
		if idx := strings.IndexByte(line, '\n'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		runes := []rune(line)
		if len(runes) > titleLimit {
			return string(runes[:titleLimit]) + "…"
		}
		return line
	}
	return "(untitled session)"
}
