package pluginhost

import "sync"

// Mailbox is the single-slot inter-plugin navigation channel. A plugin writes
// the name of the plugin it wants opened next; the host reads the slot exactly
// once per plugin shutdown. A second request before the host reads replaces
// the first. The mutex is needed because API clients and native host-api
// callbacks may write off the frame goroutine.
type Mailbox struct {
	mu   sync.Mutex
	name string
	set  bool
}

// Request stores name, overwriting any prior value.
func (m *Mailbox) Request(name string) {
	m.mu.Lock()
	m.name, m.set = name, true
	m.mu.Unlock()
}

// Peek returns the pending name without clearing it.
func (m *Mailbox) Peek() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name, m.set
}

// Clear empties the slot.
func (m *Mailbox) Clear() {
	m.mu.Lock()
	m.name, m.set = "", false
	m.mu.Unlock()
}
