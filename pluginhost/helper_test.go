package pluginhost

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"gemshell/typedef"
)

// fakeModule counts closes so handle-lifetime invariants are checkable.
type fakeModule struct {
	desc       *typedef.Descriptor
	closeCount int
}

func (m *fakeModule) Descriptor() *typedef.Descriptor { return m.desc }

func (m *fakeModule) Close() error {
	m.closeCount++
	if m.closeCount > 1 {
		return errors.New("double close")
	}
	m.desc = nil
	return nil
}

// fakeLoader serves descriptors by basename and records the module it handed
// out, so tests can assert pointer identity across refreshes.
type fakeLoader struct {
	ext     string
	descs   map[string]*typedef.Descriptor
	fail    map[string]bool
	modules map[string]*fakeModule
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		ext:     ".so",
		descs:   make(map[string]*typedef.Descriptor),
		fail:    make(map[string]bool),
		modules: make(map[string]*fakeModule),
	}
}

func (l *fakeLoader) Ext() string { return l.ext }

func (l *fakeLoader) Load(path string) (Module, error) {
	base := filepath.Base(path)
	if l.fail[base] {
		return nil, loadError(path, errors.New("boom"))
	}
	d, ok := l.descs[base]
	if !ok {
		return nil, loadError(path, errNilDescriptor)
	}
	if err := validateDescriptor(d); err != nil {
		return nil, loadError(path, err)
	}
	m := &fakeModule{desc: d}
	l.modules[base] = m
	return m, nil
}

// add registers a descriptor and creates the backing file so Scan finds it.
func (l *fakeLoader) add(t *testing.T, dir, basename string, d *typedef.Descriptor) {
	t.Helper()
	l.descs[basename] = d
	touch(t, dir, basename)
}

func touch(t *testing.T, dir, basename string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, basename), nil, 0o644))
}

func remove(t *testing.T, dir, basename string) {
	t.Helper()
	require.NoError(t, os.Remove(filepath.Join(dir, basename)))
}

func newDesc(name string, cat typedef.Category) *typedef.Descriptor {
	return &typedef.Descriptor{
		Name:     name,
		Category: cat,
		Update:   func(*typedef.InputState, float32) {},
		Draw:     func() {},
	}
}

func newTestRegistry(loaders ...Loader) *Registry {
	return NewRegistry(zerolog.Nop(), loaders...)
}

func newTestHost(t *testing.T, dir string, loaders ...Loader) *Host {
	t.Helper()
	cfg := typedef.DefaultShellConfig()
	cfg.PluginsDir = dir
	h := New(cfg, filepath.Join(t.TempDir(), VisibilityFileName), zerolog.Nop())
	for _, l := range loaders {
		h.AddLoader(l)
	}
	return h
}

// stepN advances the host n frames with no input.
func stepN(h *Host, n int) {
	for i := 0; i < n; i++ {
		h.Step(typedef.InputState{}, 0)
	}
}
