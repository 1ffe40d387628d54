package pluginhost

import (
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"gemshell/typedef"
)

// Entry is one loaded plugin. It owns the module handle; dropping the entry
// from the registry closes the handle and invalidates the descriptor.
type Entry struct {
	mod        Module
	basename   string
	path       string
	name       string // cached display name, survives descriptor access patterns
	category   typedef.Category
	visibility typedef.Visibility
}

func (e *Entry) Basename() string              { return e.basename }
func (e *Entry) Path() string                  { return e.path }
func (e *Entry) Name() string                  { return e.name }
func (e *Entry) Category() typedef.Category    { return e.category }
func (e *Entry) Visibility() typedef.Visibility { return e.visibility }

func (e *Entry) SetVisibility(v typedef.Visibility) { e.visibility = v }

// Descriptor returns the live descriptor view. Only valid while the entry is
// in the registry.
func (e *Entry) Descriptor() *typedef.Descriptor { return e.mod.Descriptor() }

// Registry is the ordered collection of loaded plugins, sorted by
// case-insensitive display name. Identity across refreshes is the basename.
type Registry struct {
	log     zerolog.Logger
	loaders []Loader
	entries []*Entry
}

func NewRegistry(log zerolog.Logger, loaders ...Loader) *Registry {
	return &Registry{log: log, loaders: loaders}
}

// Exts returns the file extensions of all registered loaders.
func (r *Registry) Exts() []string {
	exts := make([]string, 0, len(r.loaders))
	for _, l := range r.loaders {
		exts = append(exts, l.Ext())
	}
	return exts
}

func (r *Registry) Len() int { return len(r.entries) }

func (r *Registry) Entry(i int) *Entry { return r.entries[i] }

// Entries returns the backing slice; callers must not mutate it.
func (r *Registry) Entries() []*Entry { return r.entries }

// IndexOfBasename returns the position of the entry with the given basename,
// or -1.
func (r *Registry) IndexOfBasename(basename string) int {
	for i, e := range r.entries {
		if e.basename == basename {
			return i
		}
	}
	return -1
}

// LoadInitial scans dir and loads every matching file. Failed loads are
// logged and skipped; partial results are kept.
func (r *Registry) LoadInitial(dir string) {
	snap := Scan(dir, r.Exts())
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.loadOne(dir, name)
	}
	r.sortEntries()
	r.log.Info().Int("count", len(r.entries)).Str("dir", dir).Msg("plugins loaded")
}

// Refresh re-scans dir and applies the difference: removed basenames drop
// their entry (closing the handle), added ones are loaded. Untouched entries
// keep their handle and in-memory state so live plugins are never
// re-initialised. Returns |added| + |removed|.
func (r *Registry) Refresh(dir string) int {
	current := make(Snapshot, len(r.entries))
	for _, e := range r.entries {
		current[e.basename] = struct{}{}
	}

	added, removed := current.Diff(Scan(dir, r.Exts()))
	for _, name := range removed {
		r.dropBasename(name)
	}
	for _, name := range added {
		r.loadOne(dir, name)
	}
	if len(added)+len(removed) > 0 {
		r.sortEntries()
	}
	return len(added) + len(removed)
}

// Drop removes the entry at index i and closes its module handle.
func (r *Registry) Drop(i int) {
	if i < 0 || i >= len(r.entries) {
		return
	}
	e := r.entries[i]
	if err := e.mod.Close(); err != nil {
		r.log.Warn().Err(err).Str("plugin", e.basename).Msg("close module")
	}
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	r.log.Info().Str("plugin", e.basename).Msg("plugin unloaded")
}

// UnloadAll closes every handle and clears the registry.
func (r *Registry) UnloadAll() {
	for _, e := range r.entries {
		if err := e.mod.Close(); err != nil {
			r.log.Warn().Err(err).Str("plugin", e.basename).Msg("close module")
		}
	}
	r.entries = nil
}

func (r *Registry) loadOne(dir, basename string) {
	loader := r.loaderFor(basename)
	if loader == nil {
		return
	}
	path := filepath.Join(dir, basename)
	mod, err := loader.Load(path)
	if err != nil {
		r.log.Warn().Err(err).Msg("plugin skipped")
		return
	}
	d := mod.Descriptor()
	r.entries = append(r.entries, &Entry{
		mod:        mod,
		basename:   basename,
		path:       path,
		name:       d.Name,
		category:   d.Category,
		visibility: typedef.VisibilityFolder,
	})
	r.log.Info().Str("plugin", basename).Str("name", d.Name).Msg("plugin loaded")
}

func (r *Registry) dropBasename(basename string) {
	if i := r.IndexOfBasename(basename); i >= 0 {
		r.Drop(i)
	}
}

func (r *Registry) loaderFor(basename string) Loader {
	for _, l := range r.loaders {
		if strings.HasSuffix(basename, l.Ext()) {
			return l
		}
	}
	return nil
}

func (r *Registry) sortEntries() {
	sort.SliceStable(r.entries, func(i, j int) bool {
		return strings.ToLower(r.entries[i].name) < strings.ToLower(r.entries[j].name)
	})
}

// Resolve maps a plugin name to a registry index using the ordered lookup
// cascade. First predicate that matches wins.
func (r *Registry) Resolve(name string) (int, bool) {
	predicates := []func(*Entry) bool{
		func(e *Entry) bool { return e.name == name },
		func(e *Entry) bool { return e.Descriptor() != nil && e.Descriptor().Name == name },
		func(e *Entry) bool { return strings.EqualFold(e.name, name) },
		func(e *Entry) bool { return e.Descriptor() != nil && strings.EqualFold(e.Descriptor().Name, name) },
		func(e *Entry) bool { return strings.EqualFold(titleFromBasename(e.basename), name) },
	}
	for _, match := range predicates {
		for i, e := range r.entries {
			if match(e) {
				return i, true
			}
		}
	}
	return -1, false
}

// titleFromBasename strips the extension and upper-cases the first rune, so
// "settingspanel.so" can match "Settingspanel".
func titleFromBasename(basename string) string {
	stem := strings.TrimSuffix(basename, filepath.Ext(basename))
	if stem == "" {
		return stem
	}
	runes := []rune(stem)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
