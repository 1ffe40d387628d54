package pluginhost

import (
	"github.com/rs/zerolog"

	"gemshell/typedef"
)

// Mode is the top-level host state: showing the menu or running a plugin.
type Mode int

const (
	ModeMenu Mode = iota
	ModeRunning
)

// Host owns the whole plugin shell core: registry, visibility, menu, the
// navigation state machine, the active plugin lifecycle and the inter-plugin
// mailbox. One value is created by main and driven from the frame loop; all
// mutation happens on that goroutine, other goroutines reach it through the
// command queue.
type Host struct {
	log zerolog.Logger
	cfg typedef.ShellConfig

	registry   *Registry
	visibility *VisibilityStore
	mailbox    Mailbox
	commands   chan func(*Host)

	menu       []MenuItem
	folderView []int

	mode         Mode
	insideFolder bool
	folder       typedef.Category
	cursor       int
	lastLaunched string // basename; empty when unset
	active       int    // registry index while ModeRunning
	pendingExit  bool
	justEntered  bool

	width, height int
	scanTimer     float64
}

// New builds a Host without loaders; attach them with AddLoader before Start.
// The split exists because loaders need the Host back as their HostAPI.
func New(cfg typedef.ShellConfig, visibilityPath string, log zerolog.Logger) *Host {
	h := &Host{
		log:      log,
		cfg:      cfg,
		commands: make(chan func(*Host), 16),
		active:   -1,
	}
	if h.cfg.RescanInterval <= 0 {
		h.cfg.RescanInterval = typedef.DefaultShellConfig().RescanInterval
	}
	h.registry = NewRegistry(log)
	h.visibility = NewVisibilityStore(visibilityPath, log)
	return h
}

// AddLoader registers a plugin loader. Must be called before Start.
func (h *Host) AddLoader(l Loader) {
	h.registry.loaders = append(h.registry.loaders, l)
}

// Registry exposes the registry for read-only inspection (menu rendering,
// control API snapshots).
func (h *Host) Registry() *Registry { return h.registry }

// Start performs the initial load: scan and load the plugin directory, apply
// the visibility file, compose the menu, and honour the configured startup
// plugin if it resolves.
func (h *Host) Start(width, height int) {
	h.width, h.height = width, height
	h.registry.LoadInitial(h.cfg.PluginsDir)
	h.visibility.Apply(h.registry)
	h.menu = ComposeTopMenu(h.registry)

	if h.cfg.StartupPlugin != "" {
		if i, ok := h.registry.Resolve(h.cfg.StartupPlugin); ok {
			h.log.Info().Str("plugin", h.cfg.StartupPlugin).Msg("startup plugin")
			h.enterPlugin(i)
			return
		}
		h.log.Warn().Str("plugin", h.cfg.StartupPlugin).Msg("startup plugin not found")
	}
}

// Shutdown tears the host down: the active plugin (if any) is shut down, all
// handles are closed and the visibility file is rewritten so removed plugins
// get pruned from it.
func (h *Host) Shutdown() {
	if h.mode == ModeRunning && h.active >= 0 && h.active < h.registry.Len() {
		d := h.registry.Entry(h.active).Descriptor()
		if d != nil && d.Shutdown != nil {
			h.safeCall(d.Shutdown)
		}
	}
	h.mode = ModeMenu
	h.active = -1
	if err := h.visibility.Save(h.registry); err != nil {
		h.log.Warn().Err(err).Msg("visibility save failed")
	}
	h.registry.UnloadAll()
}

// Step runs one frame of core logic. Exit processing deferred from the
// previous frame happens first, so the exiting plugin still draws its final
// frame before shutdown runs.
func (h *Host) Step(in typedef.InputState, dt float64) {
	h.drainCommands()

	if h.pendingExit {
		h.finishExit()
		return
	}

	switch h.mode {
	case ModeMenu:
		h.stepMenu(in, dt)
	case ModeRunning:
		h.stepRunning(in, float32(dt))
	}
}

// DrawActive invokes the active plugin's draw callback. The shell calls this
// from its render pass; the host itself never draws anything.
func (h *Host) DrawActive() {
	if h.mode != ModeRunning || h.justEntered || h.active < 0 || h.active >= h.registry.Len() {
		return
	}
	d := h.registry.Entry(h.active).Descriptor()
	if d == nil || d.Draw == nil {
		return
	}
	if !h.safeCall(d.Draw) {
		h.abortActive("draw")
	}
}

// Mode returns the current top-level state.
func (h *Host) Mode() Mode { return h.mode }

// Cursor returns the menu cursor position.
func (h *Host) Cursor() int { return h.cursor }

// Menu returns the composed top-level menu.
func (h *Host) Menu() []MenuItem { return h.menu }

// InsideFolder reports whether a folder is open and which category it shows.
func (h *Host) InsideFolder() (typedef.Category, bool) {
	return h.folder, h.insideFolder
}

// FolderItems returns the registry indices shown in the open folder.
func (h *Host) FolderItems() []int { return h.folderView }

// ActiveIndex returns the running plugin's registry index, or -1.
func (h *Host) ActiveIndex() int {
	if h.mode != ModeRunning {
		return -1
	}
	return h.active
}

// LastLaunched returns the basename of the most recently launched plugin.
func (h *Host) LastLaunched() string { return h.lastLaunched }

// Do queues fn to run on the frame goroutine before the next Step. Used by
// the control API; the queue is small because commands are rare.
func (h *Host) Do(fn func(*Host)) {
	select {
	case h.commands <- fn:
	default:
		h.log.Warn().Msg("command queue full, dropping command")
	}
}

// SetVisibility reclassifies a plugin, persists the file and recomposes the
// menu. Runs on the frame goroutine (queue through Do from elsewhere).
func (h *Host) SetVisibility(basename string, v typedef.Visibility) {
	i := h.registry.IndexOfBasename(basename)
	if i < 0 {
		return
	}
	h.registry.Entry(i).SetVisibility(v)
	if err := h.visibility.Save(h.registry); err != nil {
		h.log.Warn().Err(err).Msg("visibility save failed")
	}
	h.recompose()
}

// ForceRefresh runs the scan/diff/reload cycle immediately. Only legal while
// the menu is showing; refreshes are suppressed while a plugin runs so its
// module handle can never be dropped under it.
func (h *Host) ForceRefresh() int {
	if h.mode != ModeMenu {
		return 0
	}
	h.scanTimer = 0
	changed := h.registry.Refresh(h.cfg.PluginsDir)
	if changed > 0 {
		h.visibility.Apply(h.registry)
		h.recompose()
	}
	return changed
}

// OpenByName resolves name through the lookup cascade and launches it. While
// a plugin is running the request goes into the mailbox instead and is
// honoured at that plugin's shutdown.
func (h *Host) OpenByName(name string) bool {
	if h.mode == ModeRunning {
		h.mailbox.Request(name)
		return true
	}
	i, ok := h.registry.Resolve(name)
	if !ok {
		return false
	}
	h.launch(i)
	return true
}

func (h *Host) drainCommands() {
	for {
		select {
		case fn := <-h.commands:
			fn(h)
		default:
			return
		}
	}
}

// recompose rebuilds the menu after a registry or visibility change. Any open
// folder is abandoned and the cursor resets, since indices may have shifted.
func (h *Host) recompose() {
	h.menu = ComposeTopMenu(h.registry)
	h.insideFolder = false
	h.folderView = nil
	h.cursor = 0
	if h.lastLaunched != "" && h.registry.IndexOfBasename(h.lastLaunched) < 0 {
		h.lastLaunched = ""
	}
}

// RequestOpen implements HostAPI: store the target name in the mailbox.
func (h *Host) RequestOpen(name string) {
	h.mailbox.Request(name)
}

// Log implements HostAPI.
func (h *Host) Log(msg string) {
	h.log.Info().Str("source", "plugin").Msg(msg)
}

// SystemStats implements HostAPI.
func (h *Host) SystemStats() SystemStats {
	return ReadSystemStats()
}
