// Package profile loads and merges search profiles.
//
// A profile is a JSON file describing what to look for: keywords that
// must appear, senders to match, and keywords to exclude. The named
// profile is merged over default.json so common exclusions only need
// to be declared once.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/diasulisses/fiscal-fetch/internal/display"
)

// DefaultName is the profile every run starts from.
const DefaultName = "default"

// Profile holds the merged search criteria for a run.
type Profile struct {
	IncludeKeywords []string `json:"include_keywords"`
	FromSenders     []string `json:"from_senders"`
	ExcludeKeywords []string `json:"exclude_keywords"`
}

// Load reads the default profile from dir and merges the named profile
// over it. A missing default or named profile produces a warning on
// stderr and an empty contribution, not an error; an unparsable file
// is an error.
func Load(dir, name string) (*Profile, error) {
	merged := &Profile{}

	base, err := read(filepath.Join(dir, DefaultName+".json"))
	if err != nil {
		return nil, err
	}
	if base == nil {
		display.WarnMsg("default profile not found in %s", dir)
	} else {
		merged = base
	}

	if name != "" && name != DefaultName {
		specific, err := read(filepath.Join(dir, name+".json"))
		if err != nil {
			return nil, err
		}
		if specific == nil {
			display.WarnMsg("profile %q not found in %s", name, dir)
		} else {
			merged.IncludeKeywords = union(merged.IncludeKeywords, specific.IncludeKeywords)
			merged.FromSenders = union(merged.FromSenders, specific.FromSenders)
			merged.ExcludeKeywords = union(merged.ExcludeKeywords, specific.ExcludeKeywords)
		}
	}

	sort.Strings(merged.IncludeKeywords)
	sort.Strings(merged.FromSenders)
	sort.Strings(merged.ExcludeKeywords)
	return merged, nil
}

// read parses one profile file. A missing file returns (nil, nil).
func read(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return &p, nil
}

// union merges two keyword lists, dropping duplicates.
func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string(nil), a...), b...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
