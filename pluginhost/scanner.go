package pluginhost

import (
	"os"
	"sort"
	"strings"
)

// Snapshot is the set of plugin basenames present in the directory at one
// scan. Comparing two snapshots drives the differential refresh.
type Snapshot map[string]struct{}

// Scan enumerates dir and returns the basenames of regular files matching one
// of the given extensions. Dot-prefixed names and subdirectories are skipped.
// An unreadable directory yields an empty snapshot; the menu simply shows no
// plugins.
func Scan(dir string, exts []string) Snapshot {
	snap := make(Snapshot)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return snap
	}
	for _, ent := range entries {
		name := ent.Name()
		if ent.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		for _, ext := range exts {
			if strings.HasSuffix(name, ext) {
				snap[name] = struct{}{}
				break
			}
		}
	}
	return snap
}

// Contains reports whether the basename is part of the snapshot.
func (s Snapshot) Contains(basename string) bool {
	_, ok := s[basename]
	return ok
}

// Diff compares the receiver (older) against newer and returns the basenames
// added and removed, each sorted for deterministic logs.
func (s Snapshot) Diff(newer Snapshot) (added, removed []string) {
	for name := range newer {
		if !s.Contains(name) {
			added = append(added, name)
		}
	}
	for name := range s {
		if !newer.Contains(name) {
			removed = append(removed, name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
