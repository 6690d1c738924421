// internal/paronym/table.go
package paronym

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	json "github.com/json-iterator/go"
	"golang.org/x/sync/singleflight"
)

// Table is the set of paronym groups, loaded lazily from a JSON file holding
// an array of string arrays.
type Table struct {
	path  string
	group singleflight.Group

	mu     sync.RWMutex
	groups [][]string
	index  map[string]int
}

// NewTable returns a Table backed by the JSON file at path. Nothing is read
// until the first lookup.
func NewTable(path string) *Table {
	return &Table{path: path}
}

// NewTableFromGroups returns an already loaded Table.
func NewTableFromGroups(groups [][]string) *Table {
	t := &Table{}
	t.set(groups)
	return t
}

func (t *Table) set(groups [][]string) {
	index := make(map[string]int)
	for i, g := range groups {
		for _, w := range g {
			w = strings.ToLower(w)
			// First group containing a word wins.
			if _, seen := index[w]; !seen {
				index[w] = i
			}
		}
	}
	t.mu.Lock()
	t.groups = groups
	t.index = index
	t.mu.Unlock()
}

func (t *Table) ensureLoaded() error {
	t.mu.RLock()
	loaded := t.index != nil
	t.mu.RUnlock()
	if loaded {
		return nil
	}

	_, err, _ := t.group.Do("load", func() (interface{}, error) {
		t.mu.RLock()
		loaded := t.index != nil
		t.mu.RUnlock()
		if loaded {
			return nil, nil
		}
		groups, err := LoadGroups(t.path)
		if err != nil {
			return nil, err
		}
		t.set(groups)
		return nil, nil
	})
	return err
}

// GroupOf returns the group containing word (compared in lower case).
func (t *Table) GroupOf(word string) ([]string, bool, error) {
	if err := t.ensureLoaded(); err != nil {
		return nil, false, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.index[strings.ToLower(word)]
	if !ok {
		return nil, false, nil
	}
	return t.groups[i], true, nil
}

// Groups returns all groups.
func (t *Table) Groups() ([][]string, error) {
	if err := t.ensureLoaded(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.groups, nil
}

// -- File I/O --

// LoadGroups reads a JSON array of paronym groups.
func LoadGroups(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read paronym table %s: %w", path, err)
	}
	var groups [][]string
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("failed to parse paronym table %s: %w", path, err)
	}
	return groups, nil
}

// SaveGroups writes groups as indented JSON, creating parent directories.
func SaveGroups(path string, groups [][]string) error {
	if groups == nil {
		groups = [][]string{}
	}
	data, err := json.MarshalIndent(groups, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode paronym table: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
