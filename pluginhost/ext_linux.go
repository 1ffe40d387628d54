//go:build linux || freebsd

package pluginhost

const sharedModuleExt = ".so"
