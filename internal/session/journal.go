package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"heddle/internal/provider"
	"heddle/internal/version"
)

// MetaType tags the journal header line.
const MetaType = "session_meta"

// Journal is an append-only JSONL file: a session_meta header line followed
// by one message per line, each timestamped at write time. Every write is a
// single whole-line append, so concurrent readers of the file always see a
// consistent prefix.
type Journal struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// journalLine is a message with its write timestamp.
type journalLine struct {
	provider.Message
	Timestamp string `json:"timestamp"`
}

// OpenJournal creates the parent directory if needed and opens the journal
// for appending.
func OpenJournal(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Journal{path: path, f: f}, nil
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

// NewMeta builds the standard session_meta header fields. Callers may add
// extra fields before writing; extras survive a load round-trip.
func NewMeta(id, cwd, model string) map[string]any {
	return map[string]any{
		"type":           MetaType,
		"id":             id,
		"cwd":            cwd,
		"model":          model,
		"created":        time.Now().Format(time.RFC3339),
		"heddle_version": version.Version,
	}
}

// WriteSessionMeta writes the header line. The type discriminator is forced
// so a caller-supplied map cannot produce an unloadable journal.
func (j *Journal) WriteSessionMeta(meta map[string]any) error {
	meta["type"] = MetaType
	return j.writeLine(meta)
}

// AppendMessage writes one message line, timestamped now.
func (j *Journal) AppendMessage(msg provider.Message) error {
	return j.writeLine(journalLine{
		Message:   msg,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (j *Journal) writeLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal journal line: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	return nil
}

// Close closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.f.Close()
}

// LoadSession reads all messages from a journal, skipping the session_meta
// header and blank lines. A missing file yields an empty conversation.
// Extra fields such as the write timestamp are tolerated and dropped.
func LoadSession(path string) ([]provider.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	var msgs []provider.Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			return nil, fmt.Errorf("parse journal line: %w", err)
		}
		if probe.Type == MetaType {
			continue
		}
		var msg provider.Message
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("parse journal message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return msgs, nil
}

// LoadSessionMeta parses only the first line. It returns nil when the file
// is missing or the first line is not a session_meta header.
func LoadSessionMeta(path string) map[string]any {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	if !scanner.Scan() {
		return nil
	}
	var meta map[string]any
	if err := json.Unmarshal(scanner.Bytes(), &meta); err != nil {
		return nil
	}
	if t, _ := meta["type"].(string); t != MetaType {
		return nil
	}
	return meta
}
