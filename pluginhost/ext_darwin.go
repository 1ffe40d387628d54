//go:build darwin

package pluginhost

const sharedModuleExt = ".dylib"
