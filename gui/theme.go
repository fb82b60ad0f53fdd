//go:build gui

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

var (
	panelColor = color.RGBA{24, 24, 24, 235}
	textColor  = color.RGBA{235, 235, 235, 255}
)

// overlayTheme is the dark default theme with the panel colour as background.
type overlayTheme struct{}

func (overlayTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return panelColor
	case theme.ColorNameForeground:
		return textColor
	}
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}

func (overlayTheme) Font(s fyne.TextStyle) fyne.Resource     { return theme.DefaultTheme().Font(s) }
func (overlayTheme) Icon(n fyne.ThemeIconName) fyne.Resource { return theme.DefaultTheme().Icon(n) }
func (overlayTheme) Size(n fyne.ThemeSizeName) float32       { return theme.DefaultTheme().Size(n) }
