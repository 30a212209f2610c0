//go:build gui

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

type hostTheme struct{}

func (h *hostTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.RGBA{30, 31, 34, 255}
	case theme.ColorNameForeground:
		return color.RGBA{219, 222, 225, 255}
	case theme.ColorNamePrimary:
		return color.RGBA{88, 101, 242, 255}
	case theme.ColorNameInputBackground:
		return color.RGBA{43, 45, 49, 255}
	}
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}

func (h *hostTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (h *hostTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (h *hostTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNameInnerPadding {
		return 6
	}
	return theme.DefaultTheme().Size(name)
}
