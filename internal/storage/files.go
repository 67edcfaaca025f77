package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Snapshot file names carry their creation time so the newest one can be
// picked without reading any content.
const timestampLayout = "02_01_2006-15-04"

// TimestampedPath builds the snapshot path for prefix at time t.
func TimestampedPath(dir, prefix string, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.json", prefix, t.Format(timestampLayout)))
}

// SaveJSON writes v as indented JSON, creating the directory as needed and
// truncating any previous file at path.
func SaveJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadJSON reads the JSON file at path into a value of type T.
func LoadJSON[T any](path string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("storage: parse %s: %w", path, err)
	}
	return v, nil
}

// NewestFile returns the most recent snapshot in dir whose name starts
// with prefix, going by the embedded timestamp. An empty string means no
// snapshot exists.
func NewestFile(dir, prefix string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var newestPath string
	var newestTime time.Time
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix+"_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix+"_"), ".json")
		ts, err := time.Parse(timestampLayout, stamp)
		if err != nil {
			continue
		}
		if newestPath == "" || ts.After(newestTime) {
			newestPath = filepath.Join(dir, name)
			newestTime = ts
		}
	}
	return newestPath
}
