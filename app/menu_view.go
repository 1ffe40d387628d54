package app

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"gemshell/pluginhost"
)

var (
	menuTitleColor    = color.RGBA{R: 0xe8, G: 0xd4, B: 0x6a, A: 0xff}
	menuItemColor     = color.RGBA{R: 0xc8, G: 0xc8, B: 0xc8, A: 0xff}
	menuSelectedColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	menuDimColor      = color.RGBA{R: 0x78, G: 0x78, B: 0x78, A: 0xff}
)

const (
	menuStartX   = 48
	menuStartY   = 72
	menuLineStep = 20
)

// drawMenu renders the top-level menu or the open folder view. Pure read of
// host state; nothing here mutates the core.
func drawMenu(screen *ebiten.Image, host *pluginhost.Host) {
	face := basicfont.Face7x13
	reg := host.Registry()

	title := "GemShell"
	if cat, inFolder := host.InsideFolder(); inFolder {
		title = cat.DisplayName()
	}
	text.Draw(screen, title, face, menuStartX, menuStartY-28, menuTitleColor)

	cursor := host.Cursor()
	y := menuStartY

	if _, inFolder := host.InsideFolder(); inFolder {
		items := host.FolderItems()
		if len(items) == 0 {
			text.Draw(screen, "Empty folder", face, menuStartX, y, menuDimColor)
			return
		}
		for row, idx := range items {
			e := reg.Entry(idx)
			drawRow(screen, e.Name(), row == cursor, y)
			if row == cursor {
				drawDescription(screen, e.Descriptor().Description)
			}
			y += menuLineStep
		}
		return
	}

	items := host.Menu()
	if len(items) == 0 {
		text.Draw(screen, "No plugins", face, menuStartX, y, menuDimColor)
		return
	}
	for row, item := range items {
		label := item.Label
		if item.Kind == pluginhost.MenuItemFolder {
			label = fmt.Sprintf("%s/ (%d)", item.Label, item.PluginCount)
		}
		drawRow(screen, label, row == cursor, y)
		if row == cursor && item.Kind == pluginhost.MenuItemPlugin {
			drawDescription(screen, reg.Entry(item.Index).Descriptor().Description)
		}
		y += menuLineStep
	}
}

func drawRow(screen *ebiten.Image, label string, selected bool, y int) {
	face := basicfont.Face7x13
	if selected {
		text.Draw(screen, ">", face, menuStartX-16, y, menuSelectedColor)
		text.Draw(screen, label, face, menuStartX, y, menuSelectedColor)
		return
	}
	text.Draw(screen, label, face, menuStartX, y, menuItemColor)
}

func drawDescription(screen *ebiten.Image, desc string) {
	if desc == "" {
		return
	}
	text.Draw(screen, desc, basicfont.Face7x13, menuStartX, LogicalHeight-32, menuDimColor)
}
