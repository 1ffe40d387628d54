//go:build darwin || linux || freebsd

package pluginhost

import (
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/rs/zerolog"

	"gemshell/typedef"
)

// Native module ABI. A plugin exports one mandatory symbol,
//
//	const gem_plugin_desc* gem_plugin_descriptor(void);
//
// returning a pointer that stays valid for the lifetime of the module, and may
// export an optional
//
//	void gem_plugin_bind_host(const gem_host_api*);
//
// which the host calls once after validation with its callback table.
const (
	entrySymbol    = "gem_plugin_descriptor"
	bindHostSymbol = "gem_plugin_bind_host"
)

// nativeDesc mirrors gem_plugin_desc from the plugin SDK header. Field order
// and widths are ABI; do not reorder.
type nativeDesc struct {
	name         uintptr // const char*
	description  uintptr // const char*
	category     int32
	handlesBack  int32
	init         uintptr // void (*)(int32_t, int32_t)
	update       uintptr // void (*)(const gem_input*, float)
	draw         uintptr // void (*)(void)
	shutdown     uintptr // void (*)(void)
	wantsClose   uintptr // int32_t (*)(void)
	wantsRefresh uintptr // int32_t (*)(void)
}

// nativeInput mirrors gem_input. Flat int32/float32 fields only so the layout
// is identical on every supported target.
type nativeInput struct {
	up, down, left, right int32
	sel, back, escape     int32
	scrollY               float32
	tapped, tapX, tapY    int32
	swipeLeft, swipeRight int32
	mouseX, mouseY        int32
	mouseDown             int32
}

// nativeHostAPI mirrors gem_host_api: a table of host callbacks created with
// purego.NewCallback. The struct must stay alive as long as any module that
// received it, so the loader owns a single copy for the whole process.
type nativeHostAPI struct {
	requestOpen uintptr // void (*)(const char*)
	logMsg      uintptr // void (*)(const char*)
}

// NativeLoader opens shared-object plugins with immediate symbol resolution.
type NativeLoader struct {
	api     HostAPI
	log     zerolog.Logger
	hostVec *nativeHostAPI
}

// NewNativeLoader builds the loader and its process-wide host callback table.
func NewNativeLoader(api HostAPI, log zerolog.Logger) *NativeLoader {
	l := &NativeLoader{api: api, log: log}
	l.hostVec = &nativeHostAPI{
		requestOpen: purego.NewCallback(func(name uintptr) uintptr {
			l.api.RequestOpen(goString(name))
			return 0
		}),
		logMsg: purego.NewCallback(func(msg uintptr) uintptr {
			l.api.Log(goString(msg))
			return 0
		}),
	}
	return l
}

// Ext returns the platform shared-module extension.
func (l *NativeLoader) Ext() string { return sharedModuleExt }

// Load opens path with RTLD_NOW|RTLD_LOCAL so unresolved symbols fail here
// rather than at first call, then resolves and validates the descriptor.
func (l *NativeLoader) Load(path string) (Module, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, loadError(path, err)
	}

	entry, err := purego.Dlsym(handle, entrySymbol)
	if err != nil {
		_ = purego.Dlclose(handle)
		return nil, loadError(path, err)
	}

	var getDescriptor func() uintptr
	purego.RegisterFunc(&getDescriptor, entry)

	raw := getDescriptor()
	if raw == 0 {
		_ = purego.Dlclose(handle)
		return nil, loadError(path, errNilDescriptor)
	}

	desc := bindDescriptor((*nativeDesc)(unsafe.Pointer(raw)))
	if err := validateDescriptor(desc); err != nil {
		_ = purego.Dlclose(handle)
		return nil, loadError(path, err)
	}

	// Optional host binding; absence is not an error.
	if bindSym, err := purego.Dlsym(handle, bindHostSymbol); err == nil && bindSym != 0 {
		var bindHost func(unsafe.Pointer)
		purego.RegisterFunc(&bindHost, bindSym)
		bindHost(unsafe.Pointer(l.hostVec))
	}

	return &nativeModule{handle: handle, desc: desc}, nil
}

// bindDescriptor wraps the raw function pointers into Go closures. Optional
// pointers stay nil in the Descriptor when null in the struct.
func bindDescriptor(nd *nativeDesc) *typedef.Descriptor {
	desc := &typedef.Descriptor{
		Name:              goString(nd.name),
		Description:       goString(nd.description),
		Category:          typedef.Category(nd.category),
		HandlesBackButton: nd.handlesBack != 0,
	}

	if nd.init != 0 {
		var fn func(int32, int32)
		purego.RegisterFunc(&fn, nd.init)
		desc.Init = func(w, h int) { fn(int32(w), int32(h)) }
	}
	if nd.update != 0 {
		var fn func(unsafe.Pointer, float32)
		purego.RegisterFunc(&fn, nd.update)
		desc.Update = func(in *typedef.InputState, dt float32) {
			ni := toNativeInput(in)
			fn(unsafe.Pointer(&ni), dt)
		}
	}
	if nd.draw != 0 {
		var fn func()
		purego.RegisterFunc(&fn, nd.draw)
		desc.Draw = fn
	}
	if nd.shutdown != 0 {
		var fn func()
		purego.RegisterFunc(&fn, nd.shutdown)
		desc.Shutdown = fn
	}
	if nd.wantsClose != 0 {
		var fn func() int32
		purego.RegisterFunc(&fn, nd.wantsClose)
		desc.WantsClose = func() bool { return fn() != 0 }
	}
	if nd.wantsRefresh != 0 {
		var fn func() int32
		purego.RegisterFunc(&fn, nd.wantsRefresh)
		desc.WantsRefresh = func() bool { return fn() != 0 }
	}
	return desc
}

func toNativeInput(in *typedef.InputState) nativeInput {
	return nativeInput{
		up:         b32(in.Up),
		down:       b32(in.Down),
		left:       b32(in.Left),
		right:      b32(in.Right),
		sel:        b32(in.Select),
		back:       b32(in.Back),
		escape:     b32(in.Escape),
		scrollY:    float32(in.ScrollY),
		tapped:     b32(in.Tapped),
		tapX:       int32(in.TapX),
		tapY:       int32(in.TapY),
		swipeLeft:  b32(in.SwipeLeft),
		swipeRight: b32(in.SwipeRight),
		mouseX:     int32(in.MouseX),
		mouseY:     int32(in.MouseY),
		mouseDown:  b32(in.MouseDown),
	}
}

func b32(v bool) int32 {
	if v {
		return 1
	}
	return 0
}

// goString copies a NUL-terminated C string at addr into a Go string.
func goString(addr uintptr) string {
	if addr == 0 {
		return ""
	}
	var buf []byte
	for {
		b := *(*byte)(unsafe.Pointer(addr))
		if b == 0 {
			return string(buf)
		}
		buf = append(buf, b)
		addr++
	}
}

type nativeModule struct {
	handle uintptr
	desc   *typedef.Descriptor
	closed bool
}

func (m *nativeModule) Descriptor() *typedef.Descriptor { return m.desc }

// Close releases the shared object. Every callback in the descriptor is dead
// after this returns.
func (m *nativeModule) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.desc = nil
	return purego.Dlclose(m.handle)
}
