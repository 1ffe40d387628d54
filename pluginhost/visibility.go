package pluginhost

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"gemshell/typedef"
)

// VisibilityFileName is the basename of the classification file.
const VisibilityFileName = "plugin_visibility.ini"

// VisibilityStore persists per-plugin menu classification in a flat
// `basename=home|folder|hidden` file that owners edit by hand.
type VisibilityStore struct {
	path   string
	log    zerolog.Logger
	warned bool
}

func NewVisibilityStore(path string, log zerolog.Logger) *VisibilityStore {
	return &VisibilityStore{path: path, log: log}
}

func (s *VisibilityStore) Path() string { return s.path }

// Load reads and parses the file. A missing or unreadable file is logged once
// and yields an empty map; every plugin then keeps its default classification.
func (s *VisibilityStore) Load() map[string]typedef.Visibility {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !s.warned {
			s.log.Warn().Err(err).Str("path", s.path).Msg("visibility file unreadable, using defaults")
			s.warned = true
		}
		return map[string]typedef.Visibility{}
	}
	return parseVisibility(data)
}

// Apply overrides registry entry classifications from the file. Basenames in
// the file without a matching entry are ignored; entries without a record keep
// their current classification.
func (s *VisibilityStore) Apply(r *Registry) {
	classes := s.Load()
	for _, e := range r.Entries() {
		if v, ok := classes[e.Basename()]; ok {
			e.SetVisibility(v)
		}
	}
}

// Save writes one record per current registry entry, in registry order, with a
// header comment block. Plugins no longer in the registry are thereby pruned.
func (s *VisibilityStore) Save(r *Registry) error {
	var b strings.Builder
	b.WriteString("# gemshell plugin visibility\n")
	b.WriteString("# <basename>=<home|folder|hidden>\n")
	b.WriteString("# home: pinned on the top-level menu, folder: inside its category,\n")
	b.WriteString("# hidden: never shown. Edit freely; unknown values keep the default.\n")
	for _, e := range r.Entries() {
		fmt.Fprintf(&b, "%s=%s\n", e.Basename(), e.Visibility())
	}
	if err := os.WriteFile(s.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("save visibility: %w", err)
	}
	return nil
}

func parseVisibility(data []byte) map[string]typedef.Visibility {
	out := make(map[string]typedef.Visibility)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		v, ok := typedef.ParseVisibility(value)
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = v
	}
	return out
}
