package artifact

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mshayan3/vlrscrape/internal/metrics"
)

// Store writes artifacts below a root directory.
type Store struct {
	root string
}

// NewStore creates root if needed and checks that it is writable.
func NewStore(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("artifact root is required")
	}
	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if mkErr := os.MkdirAll(root, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create artifact root: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat artifact root: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("artifact root %q is not a directory", root)
	}

	check := filepath.Join(root, ".writable_test")
	if err := os.WriteFile(check, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("artifact root is not writable: %w", err)
	}
	if err := os.Remove(check); err != nil {
		return nil, fmt.Errorf("remove writability check file: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Path joins parts below the root and rejects anything that escapes it.
func (s *Store) Path(parts ...string) (string, error) {
	full := filepath.Clean(filepath.Join(append([]string{s.root}, parts...)...))
	base := filepath.Clean(s.root)
	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %s", filepath.Join(parts...))
	}
	return full, nil
}

// Exists reports whether the file at rel exists.
func (s *Store) Exists(rel ...string) bool {
	p, err := s.Path(rel...)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// WriteTable writes header and rows as CSV to dir/rel, creating parent directories. The
// category used for metrics is the first element of rel.
func (s *Store) WriteTable(dir, rel string, header []string, rows [][]string) error {
	p, err := s.Path(dir, rel)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if len(header) > 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("encode header: %w", err)
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	if err := writeFile(p, buf.Bytes()); err != nil {
		return err
	}
	metrics.ObserveArtifact(categoryOf(rel))
	return nil
}

// WriteManifest writes v as indented JSON to dir/name.
func (s *Store) WriteManifest(dir, name string, v any) error {
	p, err := s.Path(dir, name)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return writeFile(p, append(data, '\n'))
}

// ReadManifest decodes the JSON manifest at path into v.
func ReadManifest(path string, v any) error {
	// #nosec G304 -- manifests are read from the configured artifact tree.
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create parent directories: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func categoryOf(rel string) string {
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return first
}

// EventInfo is the event manifest the crawler leaves in each event folder.
type EventInfo struct {
	Name string `json:"name"`
	Year int    `json:"year"`
	URL  string `json:"url"`
}

// MatchInfo is the match manifest the crawler leaves in each match folder.
type MatchInfo struct {
	URL    string `json:"url"`
	Team1  string `json:"team1,omitempty"`
	Team2  string `json:"team2,omitempty"`
	Series string `json:"series,omitempty"`
	Stage  string `json:"stage,omitempty"`
}
