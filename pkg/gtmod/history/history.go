package history

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// History manages operation logging to the filesystem.
type History struct {
	dir string
	mu  sync.Mutex
}

// New creates a new History with the given directory.
// The directory is not created until EnsureDir is called.
func New(dir string) (*History, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	return &History{dir: dir}, nil
}

// EnsureDir creates the history directory if it does not exist.
func (h *History) EnsureDir() error {
	return os.MkdirAll(h.dir, 0o755)
}

// Log creates and persists a history entry for the given operation.
func (h *History) Log(op OperationType, outputs []OutputRecord) (*Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now().UTC()

	var totalBytes int64
	for _, o := range outputs {
		totalBytes += o.Size
	}

	entry := &Entry{
		ID:        generateID(op),
		Timestamp: now,
		Operation: op,
		Outputs:   outputs,
		Summary: Summary{
			TotalOutputs: int64(len(outputs)),
			TotalBytes:   totalBytes,
		},
	}

	if err := h.writeEntry(entry); err != nil {
		return nil, fmt.Errorf("failed to write history entry: %w", err)
	}

	return entry, nil
}

// writeEntry writes an entry to a JSON file in the history directory.
func (h *History) writeEntry(entry *Entry) error {
	filePath := filepath.Join(h.dir, entry.ID+".json")

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	// Write atomically using a temp file and rename
	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// List returns history entries sorted by timestamp descending (newest
// first). A non-empty op restricts the result to that operation type.
// If limit is 0 or negative, all matching entries are returned.
func (h *History) List(limit int, op OperationType) ([]Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	files, err := os.ReadDir(h.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		entry, err := h.readEntryFile(f.Name())
		if err != nil {
			// Skip files that can't be parsed
			continue
		}
		if op != "" && entry.Operation != op {
			continue
		}
		entries = append(entries, *entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	if entries == nil {
		entries = []Entry{}
	}

	return entries, nil
}

// Get retrieves a specific entry by ID.
func (h *History) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	files, err := os.ReadDir(h.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		entry, err := h.readEntryFile(f.Name())
		if err != nil {
			continue
		}

		if entry.ID == id {
			return entry, nil
		}
	}

	return nil, fmt.Errorf("entry not found: %s", id)
}

// readEntryFile reads and parses a history entry from a JSON file.
func (h *History) readEntryFile(filename string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Join(h.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}

	return &entry, nil
}

// Cleanup removes entries older than retentionDays.
func (h *History) Cleanup(retentionDays int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	files, err := os.ReadDir(h.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read history directory: %w", err)
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		info, err := f.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(h.dir, f.Name())); err != nil {
				// Log error but continue cleanup
				continue
			}
		}
	}

	return nil
}

// generateID creates a unique ID like "package-2026-08-23T10-30-00-abc123".
func generateID(op OperationType) string {
	ts := time.Now().UTC().Format("2006-01-02T15-04-05")

	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		// Fallback to nanoseconds if crypto/rand fails
		suffix = []byte(fmt.Sprintf("%06d", time.Now().Nanosecond()%1000000))
	}

	return fmt.Sprintf("%s-%s-%s", op, ts, hex.EncodeToString(suffix))
}
