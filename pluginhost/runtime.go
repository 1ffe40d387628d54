package pluginhost

import "gemshell/typedef"

// stepRunning drives the active plugin for one frame and evaluates the exit
// conditions. A requested exit is processed at the top of the next Step so
// the frame order stays update -> draw -> exit handling.
func (h *Host) stepRunning(in typedef.InputState, dt float32) {
	h.justEntered = false

	if h.active < 0 || h.active >= h.registry.Len() {
		h.toMenu()
		return
	}
	d := h.registry.Entry(h.active).Descriptor()
	if d == nil {
		h.toMenu()
		return
	}

	if d.Update != nil {
		if !h.safeCall(func() { d.Update(&in, dt) }) {
			h.abortActive("update")
			return
		}
	}

	exit := in.Escape
	if !d.HandlesBackButton && in.Back {
		exit = true
	}
	if !exit && d.WantsClose != nil {
		wants := false
		if !h.safeCall(func() { wants = d.WantsClose() }) {
			h.abortActive("wants_close")
			return
		}
		exit = wants
	}
	if exit {
		h.pendingExit = true
	}
}

// finishExit completes a plugin exit: shutdown, then the refresh request
// (consulted after shutdown so the plugin can commit configuration there),
// then the pending-open mailbox, and finally the menu.
func (h *Host) finishExit() {
	h.pendingExit = false

	var d *typedef.Descriptor
	if h.active >= 0 && h.active < h.registry.Len() {
		d = h.registry.Entry(h.active).Descriptor()
	}

	if d != nil && d.Shutdown != nil {
		h.safeCall(d.Shutdown)
	}

	needsRefresh := false
	if d != nil && d.WantsRefresh != nil {
		h.safeCall(func() { needsRefresh = d.WantsRefresh() })
	}

	h.toMenu()

	if needsRefresh {
		h.visibility.Apply(h.registry)
		h.recompose()
	}

	if name, ok := h.mailbox.Peek(); ok {
		h.mailbox.Clear()
		if j, ok := h.registry.Resolve(name); ok {
			h.enterPlugin(j)
			return
		}
		h.log.Warn().Str("target", name).Msg("pending open target not found")
	}
}

// enterPlugin calls init on the plugin at registry index i and switches to
// running mode. Update starts on the next frame.
func (h *Host) enterPlugin(i int) {
	if i < 0 || i >= h.registry.Len() {
		return
	}
	e := h.registry.Entry(i)
	d := e.Descriptor()
	if d == nil {
		return
	}

	h.mode = ModeRunning
	h.active = i
	h.justEntered = true
	h.pendingExit = false
	h.log.Info().Str("plugin", e.Basename()).Msg("plugin started")

	if d.Init != nil {
		if !h.safeCall(func() { d.Init(h.width, h.height) }) {
			h.abortActive("init")
		}
	}
}

// abortActive handles a plugin callback panic: shutdown-less exit, the entry
// is dropped so no further calls can reach the broken module, and the shell
// returns to the menu.
func (h *Host) abortActive(phase string) {
	i := h.active
	h.toMenu()
	if i >= 0 && i < h.registry.Len() {
		e := h.registry.Entry(i)
		h.log.Error().Str("plugin", e.Basename()).Str("phase", phase).Msg("plugin crashed, unloading")
		if h.lastLaunched == e.Basename() {
			h.lastLaunched = ""
		}
		h.registry.Drop(i)
	}
	h.mailbox.Clear()
	h.recompose()
}

func (h *Host) toMenu() {
	h.mode = ModeMenu
	h.active = -1
	h.pendingExit = false
	h.justEntered = false
	h.scanTimer = 0
}

// safeCall invokes fn and recovers from a panic, reporting success.
func (h *Host) safeCall(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Interface("panic", r).Msg("plugin callback panicked")
			ok = false
		}
	}()
	fn()
	return true
}
