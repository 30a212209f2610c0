//go:build gui

package gui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"github.com/go-gl/glfw/v3.3/glfw"

	"sharkhost/capture"
)

// Monitors lists displays through GLFW. It must be used while the app runs
// since GLFW is only initialised inside the fyne event loop.
type Monitors struct{}

func (Monitors) ListSources(ctx context.Context) ([]capture.Source, error) {
	var sources []capture.Source
	fyne.DoAndWait(func() {
		for i, m := range glfw.GetMonitors() {
			mode := m.GetVideoMode()
			var w, h int
			if mode != nil {
				w, h = mode.Width, mode.Height
			}
			sources = append(sources, capture.Source{
				ID:        fmt.Sprintf("screen:%d", i),
				Name:      m.GetName(),
				Kind:      capture.KindScreen,
				Thumbnail: capture.Placeholder(w, h),
			})
		}
	})
	if len(sources) == 0 {
		return nil, fmt.Errorf("glfw reported no monitors")
	}
	return sources, ctx.Err()
}
