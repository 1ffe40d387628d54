//go:build windows

package pluginhost

import (
	"errors"

	"github.com/rs/zerolog"
)

const sharedModuleExt = ".dll"

// ErrUnsupportedPlatform is returned on targets without a native loader port.
var ErrUnsupportedPlatform = errors.New("native plugin loading is not supported on this platform")

// NativeLoader is a stub on Windows; the device firmware only ships ELF
// modules. Script plugins still work.
type NativeLoader struct{}

func NewNativeLoader(api HostAPI, log zerolog.Logger) *NativeLoader {
	return &NativeLoader{}
}

func (l *NativeLoader) Ext() string { return sharedModuleExt }

func (l *NativeLoader) Load(path string) (Module, error) {
	return nil, loadError(path, ErrUnsupportedPlatform)
}
