// Package index persists the set of fully processed thread ids.
//
// The index is what makes repeated runs incremental: a thread in the
// index is never fetched again. Loading is deliberately fail-open — a
// missing or unreadable index means "nothing processed yet", and the
// worst consequence is refetching threads whose attachments then skip
// as already existing on disk.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FileName is the index file under the output root.
const FileName = "processed_threads.json"

// Index is an in-memory set of processed thread ids.
type Index struct {
	ids map[string]struct{}
}

// New returns an empty index.
func New() *Index {
	return &Index{ids: make(map[string]struct{})}
}

// Load reads the persisted index from the output root. Missing or
// unparsable files yield an empty index; this is the fail-open policy,
// not an error path.
func Load(root string) *Index {
	idx := New()
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if err != nil {
		return idx
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return idx
	}
	for _, id := range ids {
		idx.Add(id)
	}
	return idx
}

// Save writes the index under the output root, via a temp file and
// rename so a crash never leaves a partially written index behind.
func (x *Index) Save(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", root, err)
	}

	data, err := json.MarshalIndent(x.IDs(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	tmp, err := os.CreateTemp(root, FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(root, FileName)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}

// Contains reports whether a thread id is already processed.
func (x *Index) Contains(id string) bool {
	_, ok := x.ids[id]
	return ok
}

// Add marks a thread id as processed.
func (x *Index) Add(id string) {
	x.ids[id] = struct{}{}
}

// Remove drops a thread id, so the next run reconsiders it.
func (x *Index) Remove(id string) {
	delete(x.ids, id)
}

// Len returns the number of processed thread ids.
func (x *Index) Len() int {
	return len(x.ids)
}

// IDs returns the thread ids in sorted order.
func (x *Index) IDs() []string {
	out := make([]string, 0, len(x.ids))
	for id := range x.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
