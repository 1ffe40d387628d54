package pluginhost

import "gemshell/typedef"

// MenuItemKind tags the MenuItem variant.
type MenuItemKind int

const (
	// MenuItemFolder opens a category folder.
	MenuItemFolder MenuItemKind = iota
	// MenuItemPlugin launches a plugin directly from the top-level menu.
	MenuItemPlugin
)

// MenuItem is one row of the top-level menu: either a category folder with a
// plugin count, or a home-pinned plugin referencing a registry index.
type MenuItem struct {
	Kind  MenuItemKind
	Label string

	// Folder variant.
	Category    typedef.Category
	PluginCount int

	// Plugin variant.
	Index int
}

// ComposeTopMenu derives the top-level menu from registry plus visibility:
// one folder per category holding at least one folder-classified plugin, in
// enum order, followed by every home-classified plugin in registry order.
// Hidden plugins never appear.
func ComposeTopMenu(r *Registry) []MenuItem {
	counts := make(map[typedef.Category]int)
	for _, e := range r.Entries() {
		if e.Visibility() == typedef.VisibilityFolder {
			counts[e.Category()]++
		}
	}

	var items []MenuItem
	for _, cat := range typedef.Categories() {
		if counts[cat] == 0 {
			continue
		}
		items = append(items, MenuItem{
			Kind:        MenuItemFolder,
			Label:       cat.DisplayName(),
			Category:    cat,
			PluginCount: counts[cat],
		})
	}
	for i, e := range r.Entries() {
		if e.Visibility() == typedef.VisibilityHome {
			items = append(items, MenuItem{
				Kind:  MenuItemPlugin,
				Label: e.Name(),
				Index: i,
			})
		}
	}
	return items
}

// FolderView returns the registry indices of folder-classified plugins in the
// given category, in registry order.
func FolderView(r *Registry, cat typedef.Category) []int {
	var view []int
	for i, e := range r.Entries() {
		if e.Visibility() == typedef.VisibilityFolder && e.Category() == cat {
			view = append(view, i)
		}
	}
	return view
}
