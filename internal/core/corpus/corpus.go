// Package corpus holds the labeled scam-message corpus and the domain
// denylist, backed by a single JSON file that survives edits via atomic
// rewrite.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Entry is one labeled message in the corpus
type Entry struct {
	Text     string   `json:"text"`
	Category string   `json:"category"`
	Flags    []string `json:"flags"`
}

type rawFile struct {
	Messages []Entry  `json:"messages"`
	Domains  []string `json:"domains"`
}

// Store is the in-memory corpus plus denylist. All methods are safe for
// concurrent use; Save rewrites the backing file atomically
type Store struct {
	path string

	mu       sync.RWMutex
	messages []Entry
	domains  map[string]struct{}
}

// Load reads the corpus file at path. A missing file yields an empty
// store so a fresh deployment can start without seed data; a file that
// exists but fails to parse is an error
func Load(path string) (*Store, error) {
	s := &Store{
		path:    path,
		domains: map[string]struct{}{},
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("corpus: read %q: %w", path, err)
	}

	var rf rawFile
	if err := json.Unmarshal(b, &rf); err != nil {
		return nil, fmt.Errorf("corpus: parse %q: %w", path, err)
	}

	s.messages = rf.Messages
	for _, d := range rf.Domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		s.domains[d] = struct{}{}
	}
	return s, nil
}

// Messages returns a copy of the labeled corpus
func (s *Store) Messages() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.messages))
	copy(out, s.messages)
	return out
}

// Domains returns the denylist sorted for stable output
func (s *Store) Domains() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.domains))
	for d := range s.domains {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// KnownBad reports whether host is on the denylist. Matching is exact
// on the lowercased host, never substring
func (s *Store) KnownBad(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.domains[host]
	return ok
}

// AddDomain puts a host on the denylist. It reports whether the set
// changed; adding a host twice is a no-op
func (s *Store) AddDomain(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.domains[host]; ok {
		return false
	}
	s.domains[host] = struct{}{}
	return true
}

// RemoveDomain takes a host off the denylist and reports whether it
// was present
func (s *Store) RemoveDomain(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.domains[host]; !ok {
		return false
	}
	delete(s.domains, host)
	return true
}

// AddMessage appends one labeled message to the corpus
func (s *Store) AddMessage(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, e)
}

// Save rewrites the backing file. It writes to a temp file in the same
// directory and renames it into place so a crash mid-write never leaves
// a truncated corpus
func (s *Store) Save() error {
	s.mu.RLock()
	rf := rawFile{
		Messages: make([]Entry, len(s.messages)),
		Domains:  make([]string, 0, len(s.domains)),
	}
	copy(rf.Messages, s.messages)
	for d := range s.domains {
		rf.Domains = append(rf.Domains, d)
	}
	s.mu.RUnlock()
	sort.Strings(rf.Domains)

	b, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return fmt.Errorf("corpus: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("corpus: temp file in %q: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("corpus: write %q: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("corpus: close %q: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("corpus: rename %q: %w", s.path, err)
	}
	return nil
}
