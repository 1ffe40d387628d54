package pluginhost

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemshell/typedef"
)

// probe instruments a descriptor so tests can observe lifecycle order.
type probe struct {
	events      []string
	inits       int
	updates     int
	draws       int
	shutdowns   int
	wantClose   bool
	wantRefresh bool
	onUpdate    func()
}

func (p *probe) desc(name string, cat typedef.Category) *typedef.Descriptor {
	return &typedef.Descriptor{
		Name:     name,
		Category: cat,
		Init: func(w, h int) {
			p.inits++
			p.events = append(p.events, "init")
		},
		Update: func(in *typedef.InputState, dt float32) {
			p.updates++
			p.events = append(p.events, "update")
			if p.onUpdate != nil {
				p.onUpdate()
			}
		},
		Draw: func() {
			p.draws++
			p.events = append(p.events, "draw")
		},
		Shutdown: func() {
			p.shutdowns++
			p.events = append(p.events, "shutdown")
		},
		WantsClose: func() bool { return p.wantClose },
		WantsRefresh: func() bool {
			p.events = append(p.events, "wantsRefresh")
			return p.wantRefresh
		},
	}
}

func writeVisibility(t *testing.T, h *Host, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(h.visibility.Path(), []byte(content), 0o644))
}

func TestEmptyDirectoryStartup(t *testing.T) {
	h := newTestHost(t, t.TempDir(), newFakeLoader())
	h.Start(640, 480)

	assert.Equal(t, ModeMenu, h.Mode())
	assert.Empty(t, h.Menu())
	assert.Equal(t, 0, h.Registry().Len())
	stepN(h, 3) // no crash on input against an empty menu
}

func TestCursorWrapsAtMenuEdges(t *testing.T) {
	dir := t.TempDir()
	fl := newFakeLoader()
	fl.add(t, dir, "a.so", newDesc("Alpha", typedef.CategoryGames))
	fl.add(t, dir, "b.so", newDesc("Beta", typedef.CategoryMedia))

	h := newTestHost(t, dir, fl)
	h.Start(640, 480)
	require.Len(t, h.Menu(), 2)

	h.Step(typedef.InputState{Up: true}, 0)
	assert.Equal(t, 1, h.Cursor())
	h.Step(typedef.InputState{Down: true}, 0)
	assert.Equal(t, 0, h.Cursor())
	h.Step(typedef.InputState{Down: true}, 0)
	assert.Equal(t, 1, h.Cursor())
}

func TestFolderEnterAndExit(t *testing.T) {
	dir := t.TempDir()
	fl := newFakeLoader()
	fl.add(t, dir, "a.so", newDesc("Alpha", typedef.CategoryGames))
	fl.add(t, dir, "c.so", newDesc("Gamma", typedef.CategoryGames))

	h := newTestHost(t, dir, fl)
	h.Start(640, 480)
	require.Len(t, h.Menu(), 1)

	h.Step(typedef.InputState{Select: true}, 0)
	cat, inFolder := h.InsideFolder()
	assert.True(t, inFolder)
	assert.Equal(t, typedef.CategoryGames, cat)
	assert.Equal(t, 0, h.Cursor())
	assert.Len(t, h.FolderItems(), 2)

	h.Step(typedef.InputState{Down: true}, 0)
	assert.Equal(t, 1, h.Cursor())

	h.Step(typedef.InputState{Back: true}, 0)
	_, inFolder = h.InsideFolder()
	assert.False(t, inFolder)
	assert.Equal(t, 0, h.Cursor())
	assert.Equal(t, ModeMenu, h.Mode(), "folder back must not reopen the last plugin")
}

func TestLaunchExitAndBackToLast(t *testing.T) {
	dir := t.TempDir()
	fl := newFakeLoader()
	p := &probe{}
	fl.add(t, dir, "a.so", p.desc("Alpha", typedef.CategoryGames))

	h := newTestHost(t, dir, fl)
	writeVisibility(t, h, "a.so=home\n")
	h.Start(640, 480)
	require.Len(t, h.Menu(), 1)

	// Launch.
	h.Step(typedef.InputState{Select: true}, 0)
	assert.Equal(t, ModeRunning, h.Mode())
	assert.Equal(t, 1, p.inits)
	assert.Equal(t, "a.so", h.LastLaunched())

	// Run one frame, then exit on back released.
	h.Step(typedef.InputState{}, 0)
	assert.Equal(t, 1, p.updates)
	h.DrawActive()
	assert.Equal(t, 1, p.draws)

	h.Step(typedef.InputState{Back: true}, 0)
	h.Step(typedef.InputState{}, 0) // exit processed here
	assert.Equal(t, ModeMenu, h.Mode())
	assert.Equal(t, 1, p.shutdowns)
	assert.Equal(t, "a.so", h.LastLaunched())

	// Back on the top menu reopens the last plugin; init fires again.
	h.Step(typedef.InputState{Back: true}, 0)
	assert.Equal(t, ModeRunning, h.Mode())
	assert.Equal(t, 2, p.inits)
}

func TestEscapeAlwaysExits(t *testing.T) {
	dir := t.TempDir()
	fl := newFakeLoader()
	p := &probe{}
	d := p.desc("Alpha", typedef.CategoryGames)
	d.HandlesBackButton = true
	fl.add(t, dir, "a.so", d)

	h := newTestHost(t, dir, fl)
	writeVisibility(t, h, "a.so=home\n")
	h.Start(640, 480)
	h.Step(typedef.InputState{Select: true}, 0)

	// Back is the plugin's to interpret.
	h.Step(typedef.InputState{Back: true}, 0)
	h.Step(typedef.InputState{}, 0)
	assert.Equal(t, ModeRunning, h.Mode())

	// Escape is not.
	h.Step(typedef.InputState{Escape: true}, 0)
	h.Step(typedef.InputState{}, 0)
	assert.Equal(t, ModeMenu, h.Mode())
}

func TestWantsCloseExit(t *testing.T) {
	dir := t.TempDir()
	fl := newFakeLoader()
	p := &probe{}
	fl.add(t, dir, "a.so", p.desc("Alpha", typedef.CategoryGames))

	h := newTestHost(t, dir, fl)
	writeVisibility(t, h, "a.so=home\n")
	h.Start(640, 480)
	h.Step(typedef.InputState{Select: true}, 0)

	p.wantClose = true
	h.Step(typedef.InputState{}, 0)
	h.Step(typedef.InputState{}, 0)
	assert.Equal(t, ModeMenu, h.Mode())
	assert.Equal(t, 1, p.shutdowns)
}

func TestShutdownPrecedesWantsRefresh(t *testing.T) {
	dir := t.TempDir()
	fl := newFakeLoader()
	p := &probe{wantRefresh: true}
	fl.add(t, dir, "a.so", p.desc("Alpha", typedef.CategoryGames))

	h := newTestHost(t, dir, fl)
	writeVisibility(t, h, "a.so=home\n")
	h.Start(640, 480)
	h.Step(typedef.InputState{Select: true}, 0)
	h.Step(typedef.InputState{Back: true}, 0)
	h.Step(typedef.InputState{}, 0)

	require.Equal(t, ModeMenu, h.Mode())
	// The refresh request is consulted only after shutdown so plugins can
	// commit configuration during shutdown.
	require.NotEmpty(t, p.events)
	si := indexOf(p.events, "shutdown")
	ri := indexOf(p.events, "wantsRefresh")
	require.GreaterOrEqual(t, si, 0)
	require.GreaterOrEqual(t, ri, 0)
	assert.Less(t, si, ri)

	// I10: refresh exit lands on the top-level menu with cursor 0.
	_, inFolder := h.InsideFolder()
	assert.False(t, inFolder)
	assert.Equal(t, 0, h.Cursor())
}

func indexOf(events []string, want string) int {
	for i, e := range events {
		if e == want {
			return i
		}
	}
	return -1
}

func TestRefreshOnExitReloadsVisibility(t *testing.T) {
	dir := t.TempDir()
	fl := newFakeLoader()
	p := &probe{wantRefresh: true}
	fl.add(t, dir, "a.so", p.desc("Alpha", typedef.CategoryGames))
	fl.add(t, dir, "b.so", newDesc("Beta", typedef.CategoryMedia))

	h := newTestHost(t, dir, fl)
	writeVisibility(t, h, "a.so=home\nb.so=home\n")
	h.Start(640, 480)
	require.True(t, h.OpenByName("Alpha"))
	require.Equal(t, ModeRunning, h.Mode())

	// The plugin rewrites the visibility file during its run, then exits
	// requesting a refresh.
	writeVisibility(t, h, "a.so=home\nb.so=hidden\n")
	h.Step(typedef.InputState{Back: true}, 0)
	h.Step(typedef.InputState{}, 0)

	require.Equal(t, ModeMenu, h.Mode())
	i := h.Registry().IndexOfBasename("b.so")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, typedef.VisibilityHidden, h.Registry().Entry(i).Visibility())
}

func TestHotAddKeepsExistingHandle(t *testing.T) {
	dir := t.TempDir()
	fl := newFakeLoader()
	fl.add(t, dir, "a.so", newDesc("Alpha", typedef.CategoryGames))

	h := newTestHost(t, dir, fl)
	h.Start(640, 480)
	require.Equal(t, 1, h.Registry().Len())
	original := fl.modules["a.so"]

	fl.add(t, dir, "b.so", newDesc("Beta", typedef.CategoryMedia))
	h.Step(typedef.InputState{}, 2.0)

	require.Equal(t, 2, h.Registry().Len())
	reg := h.Registry()
	assert.Same(t, original, reg.Entry(reg.IndexOfBasename("a.so")).mod)
	assert.Zero(t, original.closeCount)
}

func TestHotRemoveResetsCursorAndClearsLastLaunched(t *testing.T) {
	dir := t.TempDir()
	fl := newFakeLoader()
	fl.add(t, dir, "a.so", newDesc("Alpha", typedef.CategoryGames))
	pb := &probe{}
	fl.add(t, dir, "b.so", pb.desc("Beta", typedef.CategoryGames))
	fl.add(t, dir, "c.so", newDesc("Gamma", typedef.CategoryGames))

	h := newTestHost(t, dir, fl)
	writeVisibility(t, h, "a.so=home\nb.so=home\nc.so=home\n")
	h.Start(640, 480)
	require.Len(t, h.Menu(), 3)

	// Launch Beta so it becomes last-launched, then exit.
	h.Step(typedef.InputState{Down: true}, 0)
	h.Step(typedef.InputState{Select: true}, 0)
	require.Equal(t, ModeRunning, h.Mode())
	h.Step(typedef.InputState{Back: true}, 0)
	h.Step(typedef.InputState{}, 0)
	require.Equal(t, "b.so", h.LastLaunched())

	// The cursor survives the round trip and is still on Beta; now remove it
	// on disk.
	require.Equal(t, 1, h.Cursor())
	remove(t, dir, "b.so")

	h.Step(typedef.InputState{}, 2.0)

	assert.Equal(t, 0, h.Cursor())
	assert.Len(t, h.Menu(), 2)
	assert.Equal(t, "", h.LastLaunched())
	assert.Equal(t, 1, fl.modules["b.so"].closeCount)
}

func TestNoRescanWhileRunning(t *testing.T) {
	dir := t.TempDir()
	fl := newFakeLoader()
	p := &probe{}
	fl.add(t, dir, "a.so", p.desc("Alpha", typedef.CategoryGames))

	h := newTestHost(t, dir, fl)
	writeVisibility(t, h, "a.so=home\n")
	h.Start(640, 480)
	h.Step(typedef.InputState{Select: true}, 0)
	require.Equal(t, ModeRunning, h.Mode())

	fl.add(t, dir, "b.so", newDesc("Beta", typedef.CategoryMedia))
	for i := 0; i < 3; i++ {
		h.Step(typedef.InputState{}, 5.0)
	}
	assert.Equal(t, 1, h.Registry().Len())

	// Back on the menu, the next cadence tick picks the file up.
	h.Step(typedef.InputState{Back: true}, 0)
	h.Step(typedef.InputState{}, 0)
	require.Equal(t, ModeMenu, h.Mode())
	h.Step(typedef.InputState{}, 2.0)
	assert.Equal(t, 2, h.Registry().Len())
}

func TestPendingOpenChainsWithoutMenu(t *testing.T) {
	dir := t.TempDir()
	fl := newFakeLoader()
	p := &probe{}
	fl.add(t, dir, "a.so", p.desc("Alpha", typedef.CategoryGames))
	fl.add(t, dir, "settingspanel.so", newDesc("Settings Panel", typedef.CategorySettings))

	h := newTestHost(t, dir, fl)
	writeVisibility(t, h, "a.so=home\n")
	h.Start(640, 480)
	require.True(t, h.OpenByName("Alpha"))
	require.Equal(t, ModeRunning, h.Mode())

	p.onUpdate = func() {
		h.RequestOpen("Settingspanel")
		p.wantClose = true
	}
	h.Step(typedef.InputState{}, 0) // update requests the open and the close
	h.Step(typedef.InputState{}, 0) // exit processing chains into the target

	assert.Equal(t, ModeRunning, h.Mode())
	assert.Equal(t, 1, p.shutdowns)
	reg := h.Registry()
	assert.Equal(t, reg.IndexOfBasename("settingspanel.so"), h.ActiveIndex())

	_, pending := h.mailbox.Peek()
	assert.False(t, pending, "mailbox must be cleared after the host read")
}

func TestPendingOpenUnresolvedFallsThroughToMenu(t *testing.T) {
	dir := t.TempDir()
	fl := newFakeLoader()
	p := &probe{}
	fl.add(t, dir, "a.so", p.desc("Alpha", typedef.CategoryGames))

	h := newTestHost(t, dir, fl)
	writeVisibility(t, h, "a.so=home\n")
	h.Start(640, 480)
	require.True(t, h.OpenByName("Alpha"))

	p.onUpdate = func() {
		h.RequestOpen("NoSuchPlugin")
		p.wantClose = true
	}
	h.Step(typedef.InputState{}, 0)
	h.Step(typedef.InputState{}, 0)

	assert.Equal(t, ModeMenu, h.Mode())
	_, pending := h.mailbox.Peek()
	assert.False(t, pending)
}

func TestMailboxOverwrite(t *testing.T) {
	var m Mailbox
	m.Request("first")
	m.Request("second")
	name, ok := m.Peek()
	require.True(t, ok)
	assert.Equal(t, "second", name)
	m.Clear()
	_, ok = m.Peek()
	assert.False(t, ok)
}

func TestUpdatePanicDropsPlugin(t *testing.T) {
	dir := t.TempDir()
	fl := newFakeLoader()
	p := &probe{}
	d := p.desc("Alpha", typedef.CategoryGames)
	d.Update = func(in *typedef.InputState, dt float32) { panic("broken plugin") }
	fl.add(t, dir, "a.so", d)
	fl.add(t, dir, "b.so", newDesc("Beta", typedef.CategoryMedia))

	h := newTestHost(t, dir, fl)
	writeVisibility(t, h, "a.so=home\n")
	h.Start(640, 480)
	require.True(t, h.OpenByName("Alpha"))

	h.Step(typedef.InputState{}, 0)

	assert.Equal(t, ModeMenu, h.Mode())
	assert.Equal(t, 0, p.shutdowns, "crash exit skips shutdown")
	assert.Equal(t, -1, h.Registry().IndexOfBasename("a.so"))
	assert.Equal(t, "", h.LastLaunched())
	assert.Equal(t, 1, fl.modules["a.so"].closeCount)
	assert.Equal(t, 1, h.Registry().Len())
}

func TestStartupPluginBypassesMenu(t *testing.T) {
	dir := t.TempDir()
	fl := newFakeLoader()
	p := &probe{}
	fl.add(t, dir, "a.so", p.desc("Alpha", typedef.CategoryGames))

	cfg := typedef.DefaultShellConfig()
	cfg.PluginsDir = dir
	cfg.StartupPlugin = "Alpha"
	h := New(cfg, filepath.Join(t.TempDir(), VisibilityFileName), zerolog.Nop())
	h.AddLoader(fl)
	h.Start(640, 480)

	assert.Equal(t, ModeRunning, h.Mode())
	assert.Equal(t, 1, p.inits)
	assert.GreaterOrEqual(t, h.ActiveIndex(), 0)
}

func TestDrawSkippedOnEntryFrame(t *testing.T) {
	dir := t.TempDir()
	fl := newFakeLoader()
	p := &probe{}
	fl.add(t, dir, "a.so", p.desc("Alpha", typedef.CategoryGames))

	h := newTestHost(t, dir, fl)
	writeVisibility(t, h, "a.so=home\n")
	h.Start(640, 480)
	h.Step(typedef.InputState{Select: true}, 0)

	h.DrawActive() // entry frame: init has run, update has not
	assert.Equal(t, 0, p.draws)

	h.Step(typedef.InputState{}, 0)
	h.DrawActive()
	assert.Equal(t, 1, p.draws)
}

func TestCommandQueueRunsOnFrame(t *testing.T) {
	dir := t.TempDir()
	fl := newFakeLoader()
	fl.add(t, dir, "a.so", newDesc("Alpha", typedef.CategoryGames))

	h := newTestHost(t, dir, fl)
	h.Start(640, 480)

	ran := false
	h.Do(func(inner *Host) { ran = inner == h })
	assert.False(t, ran)
	h.Step(typedef.InputState{}, 0)
	assert.True(t, ran)
}

func TestSetVisibilityPersistsAndRecomposes(t *testing.T) {
	dir := t.TempDir()
	fl := newFakeLoader()
	fl.add(t, dir, "a.so", newDesc("Alpha", typedef.CategoryGames))
	fl.add(t, dir, "c.so", newDesc("Gamma", typedef.CategoryGames))

	h := newTestHost(t, dir, fl)
	h.Start(640, 480)
	require.Len(t, h.Menu(), 1)

	h.SetVisibility("a.so", typedef.VisibilityHome)

	require.Len(t, h.Menu(), 2)
	data, err := os.ReadFile(h.visibility.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "a.so=home")
}

func TestShutdownUnloadsEverything(t *testing.T) {
	dir := t.TempDir()
	fl := newFakeLoader()
	p := &probe{}
	fl.add(t, dir, "a.so", p.desc("Alpha", typedef.CategoryGames))

	h := newTestHost(t, dir, fl)
	writeVisibility(t, h, "a.so=home\n")
	h.Start(640, 480)
	require.True(t, h.OpenByName("Alpha"))

	h.Shutdown()

	assert.Equal(t, 1, p.shutdowns)
	assert.Equal(t, 0, h.Registry().Len())
	assert.Equal(t, 1, fl.modules["a.so"].closeCount)
}
