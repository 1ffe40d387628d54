package pluginhost

import (
	"errors"
	"fmt"

	"gemshell/typedef"
)

// Module is an opened plugin handle. The Descriptor and every callback inside
// it are valid only until Close; the registry closes each module exactly once
// when its entry is dropped.
type Module interface {
	Descriptor() *typedef.Descriptor
	Close() error
}

// Loader opens one kind of plugin file. The host registers one loader per file
// extension; the scanner only picks up basenames matching a registered loader.
type Loader interface {
	// Ext returns the file extension this loader handles, including the dot.
	Ext() string
	// Load opens the file, resolves its entry point and validates the
	// descriptor. On error the underlying handle is already released.
	Load(path string) (Module, error)
}

// HostAPI is the surface the host hands to plugin code. Plugins talk back to
// the host through these pure-data calls only; they never hold a pointer into
// host state.
type HostAPI interface {
	// RequestOpen asks the host to open another plugin by name after the
	// calling plugin has fully shut down.
	RequestOpen(name string)
	// Log writes a line to the host log attributed to the plugin.
	Log(msg string)
	// SystemStats returns a point-in-time reading of device health.
	SystemStats() SystemStats
}

var (
	errNilDescriptor   = errors.New("entry point returned a nil descriptor")
	errEmptyName       = errors.New("descriptor has an empty name")
	errMissingCallback = errors.New("descriptor is missing update or draw")
)

// validateDescriptor enforces the minimum contract: a name plus the two
// mandatory callbacks. Out-of-range categories are clamped to Tools so a
// descriptor built against a newer enum still loads.
func validateDescriptor(d *typedef.Descriptor) error {
	if d == nil {
		return errNilDescriptor
	}
	if d.Name == "" {
		return errEmptyName
	}
	if d.Update == nil || d.Draw == nil {
		return errMissingCallback
	}
	if !d.Category.Valid() {
		d.Category = typedef.CategoryTools
	}
	return nil
}

// loadError wraps a per-file load failure with its path for logging.
func loadError(path string, err error) error {
	return fmt.Errorf("load %s: %w", path, err)
}
