package typedef

import "strings"

// Category is the closed set of menu folders a plugin may declare.
type Category int32

const (
	CategoryGames Category = iota
	CategoryMedia
	CategoryTools
	CategorySettings

	categoryCount
)

// Categories returns every category in menu order.
func Categories() []Category {
	out := make([]Category, 0, categoryCount)
	for c := Category(0); c < categoryCount; c++ {
		out = append(out, c)
	}
	return out
}

// Valid reports whether the ordinal is inside the closed enum.
func (c Category) Valid() bool {
	return c >= 0 && c < categoryCount
}

// DisplayName returns the human-readable folder title.
func (c Category) DisplayName() string {
	switch c {
	case CategoryGames:
		return "Games"
	case CategoryMedia:
		return "Media"
	case CategoryTools:
		return "Tools"
	case CategorySettings:
		return "Settings"
	}
	return "Tools"
}

// ParseCategory maps a lower/mixed-case tag to a Category.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "media":
		return CategoryMedia, true
	case "games", "game":
		return CategoryGames, true
	case "tools", "tool":
		return CategoryTools, true
	case "settings":
		return CategorySettings, true
	}
	return CategoryTools, false
}

// Visibility classifies how a plugin is surfaced in the menu.
type Visibility int

const (
	// VisibilityFolder places the plugin inside its category folder. Default.
	VisibilityFolder Visibility = iota
	// VisibilityHome pins the plugin directly on the top-level menu.
	VisibilityHome
	// VisibilityHidden removes the plugin from every menu surface.
	VisibilityHidden
)

func (v Visibility) String() string {
	switch v {
	case VisibilityHome:
		return "home"
	case VisibilityHidden:
		return "hidden"
	}
	return "folder"
}

// ParseVisibility maps a visibility-file value to a Visibility.
// Unknown values report ok=false and the caller keeps the default.
func ParseVisibility(s string) (Visibility, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "home":
		return VisibilityHome, true
	case "folder":
		return VisibilityFolder, true
	case "hidden":
		return VisibilityHidden, true
	}
	return VisibilityFolder, false
}

// Descriptor is the host-side view of a plugin's entry structure. The loader
// that produced it owns the backing module; every callback pointer is dead the
// moment the module handle is closed.
type Descriptor struct {
	Name              string
	Description       string
	Category          Category
	HandlesBackButton bool

	Init         func(width, height int)
	Update       func(in *InputState, dt float32)
	Draw         func()
	Shutdown     func()
	WantsClose   func() bool
	WantsRefresh func() bool
}
