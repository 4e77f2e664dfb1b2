// Package recommend holds the static symptom → recommendation mapping used as
// the last-resort enrichment source.
package recommend

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"clinical-assistant/internal/domain"
)

//go:embed data/recommendations.json
var defaultData []byte

// Store is a read-only recommendation mapping. Keys keep the order in which
// they appear in the source document so that substring matching is stable.
type Store struct {
	keys    []string
	entries map[string]domain.RecommendationEntry
}

// Parse decodes a JSON object of symptom keyword → {medications, home_remedies}.
func Parse(data []byte) (*Store, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("recommend: read document: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("recommend: document must be a JSON object")
	}

	s := &Store{entries: make(map[string]domain.RecommendationEntry)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("recommend: read key: %w", err)
		}
		rawKey, _ := tok.(string)
		var entry domain.RecommendationEntry
		if err := dec.Decode(&entry); err != nil {
			return nil, fmt.Errorf("recommend: decode entry %q: %w", rawKey, err)
		}
		key := normalize(rawKey)
		if key == "" {
			continue
		}
		if _, seen := s.entries[key]; !seen {
			s.keys = append(s.keys, key)
		}
		s.entries[key] = entry
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("recommend: read document end: %w", err)
	}
	return s, nil
}

// Len returns the number of keywords in the store.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the keywords in document order.
func (s *Store) Keys() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.keys...)
}

// Get returns the entry stored under the exact keyword.
func (s *Store) Get(keyword string) (domain.RecommendationEntry, bool) {
	if s == nil {
		return domain.RecommendationEntry{}, false
	}
	e, ok := s.entries[normalize(keyword)]
	return e, ok
}

// Lookup finds the entry for a symptom: exact keyword, then with a trailing
// "s" removed, then with a trailing "es" removed, then the first keyword (in
// document order) that is a substring of the symptom or contains it.
func (s *Store) Lookup(symptom string) (string, domain.RecommendationEntry, bool) {
	term := normalize(symptom)
	if s == nil || term == "" {
		return "", domain.RecommendationEntry{}, false
	}
	candidates := []string{term}
	if strings.HasSuffix(term, "s") {
		candidates = append(candidates, strings.TrimSuffix(term, "s"))
	}
	if strings.HasSuffix(term, "es") {
		candidates = append(candidates, strings.TrimSuffix(term, "es"))
	}
	for _, c := range candidates {
		if e, ok := s.entries[c]; ok {
			return c, e, true
		}
	}
	for _, key := range s.keys {
		if strings.Contains(term, key) || strings.Contains(key, term) {
			return key, s.entries[key], true
		}
	}
	return "", domain.RecommendationEntry{}, false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Loader reads the recommendation file at most once per process. A failed
// load is not cached and is retried on the next call.
type Loader struct {
	path     string
	readFile func(string) ([]byte, error)

	mu    sync.RWMutex
	store *Store
}

// NewLoader creates a Loader for path. An empty path selects the embedded
// default data set.
func NewLoader(path string) *Loader {
	return &Loader{path: strings.TrimSpace(path), readFile: os.ReadFile}
}

// Load returns the cached store, reading and parsing the file on first use.
func (l *Loader) Load() (*Store, error) {
	l.mu.RLock()
	if l.store != nil {
		defer l.mu.RUnlock()
		return l.store, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store != nil {
		return l.store, nil
	}

	data := defaultData
	if l.path != "" {
		raw, err := l.readFile(l.path)
		if err != nil {
			return nil, fmt.Errorf("recommend: read %s: %w", l.path, err)
		}
		data = raw
	}
	store, err := Parse(data)
	if err != nil {
		return nil, err
	}
	l.store = store
	return store, nil
}
