package pluginhost

import "gemshell/typedef"

// stepMenu advances the menu state machine by one frame: rescan cadence,
// cursor movement, selection and the back-key rules.
func (h *Host) stepMenu(in typedef.InputState, dt float64) {
	h.scanTimer += dt
	if h.scanTimer >= h.cfg.RescanInterval {
		h.scanTimer = 0
		if changed := h.registry.Refresh(h.cfg.PluginsDir); changed > 0 {
			h.log.Info().Int("changes", changed).Msg("plugin directory changed")
			h.visibility.Apply(h.registry)
			h.recompose()
		}
	}

	n := h.visibleCount()
	if n > 0 {
		switch {
		case in.Up:
			h.cursor = (h.cursor + n - 1) % n
		case in.Down:
			h.cursor = (h.cursor + 1) % n
		case in.Select:
			h.selectCursor()
			return
		}
	}

	if in.Back {
		if h.insideFolder {
			// Folder-back only closes the folder; it never reopens the last
			// plugin.
			h.insideFolder = false
			h.folderView = nil
			h.cursor = 0
			return
		}
		if h.lastLaunched != "" {
			if i := h.registry.IndexOfBasename(h.lastLaunched); i >= 0 {
				h.enterPlugin(i)
			}
		}
	}
}

func (h *Host) visibleCount() int {
	if h.insideFolder {
		return len(h.folderView)
	}
	return len(h.menu)
}

func (h *Host) selectCursor() {
	if h.insideFolder {
		if h.cursor < len(h.folderView) {
			h.launch(h.folderView[h.cursor])
		}
		return
	}
	if h.cursor >= len(h.menu) {
		return
	}
	item := h.menu[h.cursor]
	switch item.Kind {
	case MenuItemFolder:
		h.insideFolder = true
		h.folder = item.Category
		h.folderView = FolderView(h.registry, item.Category)
		h.cursor = 0
	case MenuItemPlugin:
		h.launch(item.Index)
	}
}

// launch records the plugin as last-launched and hands control to the
// runtime.
func (h *Host) launch(i int) {
	if i < 0 || i >= h.registry.Len() {
		return
	}
	h.lastLaunched = h.registry.Entry(i).Basename()
	h.enterPlugin(i)
}
