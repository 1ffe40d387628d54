package pluginhost

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"

	"gemshell/typedef"
)

// ScriptLoader runs .js plugins in an embedded goja VM. A script declares a
// top-level `plugin` object for identity and the same lifecycle functions a
// native module exports:
//
//	var plugin = { name: "Alpha", description: "...", category: "games",
//	               handlesBackButton: false };
//	function init(w, h) {}
//	function update(input, dt) {}
//	function draw() {}
//	function shutdown() {}
//	function wantsClose() { return false; }
//	function wantsRefresh() { return false; }
//
// The host API is injected as a global `host` object before the script runs.
type ScriptLoader struct {
	api HostAPI
	log zerolog.Logger
}

func NewScriptLoader(api HostAPI, log zerolog.Logger) *ScriptLoader {
	return &ScriptLoader{api: api, log: log}
}

func (l *ScriptLoader) Ext() string { return ".js" }

func (l *ScriptLoader) Load(path string) (Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, loadError(path, err)
	}

	vm := goja.New()
	vm.Set("println", fmt.Println)
	vm.Set("sprintf", fmt.Sprintf)
	l.installHostObject(vm)

	if _, err := vm.RunScript(filepath.Base(path), string(src)); err != nil {
		return nil, loadError(path, err)
	}

	desc, err := scriptDescriptor(vm)
	if err != nil {
		return nil, loadError(path, err)
	}
	if err := validateDescriptor(desc); err != nil {
		return nil, loadError(path, err)
	}

	return &scriptModule{vm: vm, desc: desc}, nil
}

func (l *ScriptLoader) installHostObject(vm *goja.Runtime) {
	hostObj := vm.NewObject()
	hostObj.Set("requestOpen", func(name string) { l.api.RequestOpen(name) })
	hostObj.Set("log", func(msg string) { l.api.Log(msg) })
	hostObj.Set("systemStats", func() SystemStats { return l.api.SystemStats() })
	vm.Set("host", hostObj)
}

// scriptDescriptor reads the plugin object and lifecycle globals out of the VM
// and wraps them into host-side closures. Script exceptions surface as panics
// so the runtime applies the same crash policy as for native faults.
func scriptDescriptor(vm *goja.Runtime) (*typedef.Descriptor, error) {
	pv := vm.Get("plugin")
	if pv == nil || goja.IsUndefined(pv) || goja.IsNull(pv) {
		return nil, errNilDescriptor
	}
	obj := pv.ToObject(vm)

	desc := &typedef.Descriptor{
		Name:        stringField(obj, "name"),
		Description: stringField(obj, "description"),
	}
	if cat, ok := typedef.ParseCategory(stringField(obj, "category")); ok {
		desc.Category = cat
	} else {
		desc.Category = typedef.CategoryTools
	}
	if hb := obj.Get("handlesBackButton"); hb != nil {
		desc.HandlesBackButton = hb.ToBoolean()
	}

	if fn, ok := callable(vm, "init"); ok {
		desc.Init = func(w, h int) {
			if _, err := fn(goja.Undefined(), vm.ToValue(w), vm.ToValue(h)); err != nil {
				panic(err)
			}
		}
	}
	if fn, ok := callable(vm, "update"); ok {
		desc.Update = func(in *typedef.InputState, dt float32) {
			if _, err := fn(goja.Undefined(), inputValue(vm, in), vm.ToValue(dt)); err != nil {
				panic(err)
			}
		}
	}
	if fn, ok := callable(vm, "draw"); ok {
		desc.Draw = func() {
			if _, err := fn(goja.Undefined()); err != nil {
				panic(err)
			}
		}
	}
	if fn, ok := callable(vm, "shutdown"); ok {
		desc.Shutdown = func() {
			if _, err := fn(goja.Undefined()); err != nil {
				panic(err)
			}
		}
	}
	if fn, ok := callable(vm, "wantsClose"); ok {
		desc.WantsClose = func() bool { return boolCall(fn) }
	}
	if fn, ok := callable(vm, "wantsRefresh"); ok {
		desc.WantsRefresh = func() bool { return boolCall(fn) }
	}
	return desc, nil
}

func stringField(obj *goja.Object, key string) string {
	v := obj.Get(key)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}

func callable(vm *goja.Runtime, name string) (goja.Callable, bool) {
	v := vm.Get(name)
	if v == nil {
		return nil, false
	}
	return goja.AssertFunction(v)
}

func boolCall(fn goja.Callable) bool {
	v, err := fn(goja.Undefined())
	if err != nil {
		panic(err)
	}
	return v.ToBoolean()
}

func inputValue(vm *goja.Runtime, in *typedef.InputState) goja.Value {
	return vm.ToValue(map[string]any{
		"up":         in.Up,
		"down":       in.Down,
		"left":       in.Left,
		"right":      in.Right,
		"select":     in.Select,
		"back":       in.Back,
		"escape":     in.Escape,
		"scrollY":    in.ScrollY,
		"tapped":     in.Tapped,
		"tapX":       in.TapX,
		"tapY":       in.TapY,
		"swipeLeft":  in.SwipeLeft,
		"swipeRight": in.SwipeRight,
		"mouseX":     in.MouseX,
		"mouseY":     in.MouseY,
		"mouseDown":  in.MouseDown,
	})
}

type scriptModule struct {
	vm     *goja.Runtime
	desc   *typedef.Descriptor
	closed bool
}

func (m *scriptModule) Descriptor() *typedef.Descriptor { return m.desc }

func (m *scriptModule) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.vm.Interrupt("module closed")
	m.desc = nil
	m.vm = nil
	return nil
}
