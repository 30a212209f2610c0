//go:build gui

package gui

import (
	"context"
	"errors"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"sharkhost/capture"
	"sharkhost/negotiate"
)

const systemAudio = "System audio"

// Chooser is a fyne window that lets the user pick a capture source.
type Chooser struct {
	app  *App
	show func(fyne.Window)

	mu      sync.Mutex
	h       *negotiate.Handlers
	w       fyne.Window
	closed  bool
	audioID string
}

// NewChooser is a negotiate.SurfaceFactory.
func (a *App) NewChooser() (negotiate.Surface, error) {
	if a.fyneApp == nil {
		return nil, errors.New("gui not running")
	}
	return &Chooser{app: a, show: fyne.Window.Show}, nil
}

func (c *Chooser) Attach(h negotiate.Handlers) func() {
	c.mu.Lock()
	c.h = &h
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		c.h = nil
		c.mu.Unlock()
	}
}

func (c *Chooser) handlers() *negotiate.Handlers {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.h
}

func (c *Chooser) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fyne.DoAndWait(func() {
		w := c.app.fyneApp.NewWindow("Choose what to share")
		w.SetFixedSize(true)
		w.Resize(fyne.NewSize(float32(min(c.app.screenW, 760)), float32(min(c.app.screenH, 520))))
		w.CenterOnScreen()
		w.SetOnClosed(c.onWindowClosed)
		c.mu.Lock()
		c.w = w
		c.mu.Unlock()
	})
	return nil
}

func (c *Chooser) Push(p capture.Payload) error {
	c.mu.Lock()
	w, closed := c.w, c.closed
	c.mu.Unlock()
	if closed || w == nil {
		return negotiate.ErrSurfaceClosed
	}
	fyne.DoAndWait(func() { w.SetContent(c.render(p)) })
	return nil
}

func (c *Chooser) render(p capture.Payload) fyne.CanvasObject {
	grid := container.NewGridWrap(fyne.NewSize(capture.ThumbWidth/2+16, capture.ThumbHeight/2+72))
	for _, s := range p.Sources {
		grid.Add(c.card(s))
	}

	options := []string{systemAudio}
	ids := map[string]string{}
	for _, proc := range p.Processes {
		options = append(options, proc.Label)
		ids[proc.Label] = proc.ID
	}
	audio := widget.NewSelect(options, func(label string) {
		c.mu.Lock()
		c.audioID = ids[label]
		c.mu.Unlock()
	})
	audio.SetSelected(systemAudio)

	cancel := widget.NewButton("Cancel", c.emitCanceled)
	bottom := container.NewBorder(nil, nil, widget.NewLabel("Audio"), cancel, audio)
	return container.NewBorder(nil, bottom, nil, nil, container.NewVScroll(grid))
}

func (c *Chooser) card(s capture.SourceEntry) fyne.CanvasObject {
	var thumb fyne.CanvasObject
	if raw, err := capture.DecodeDataURL(s.Thumbnail); err == nil {
		img := canvas.NewImageFromResource(fyne.NewStaticResource(s.ID+".png", raw))
		img.FillMode = canvas.ImageFillContain
		img.SetMinSize(fyne.NewSize(capture.ThumbWidth/2, capture.ThumbHeight/2))
		thumb = img
	} else {
		icon := theme.ComputerIcon()
		if s.Kind == capture.KindWindow {
			icon = theme.FileApplicationIcon()
		}
		thumb = widget.NewIcon(icon)
	}
	id := s.ID
	pick := widget.NewButton(s.Name, func() { c.emitSelected(id) })
	return container.NewBorder(nil, pick, nil, nil, thumb)
}

func (c *Chooser) emitSelected(id string) {
	c.mu.Lock()
	sel := negotiate.Selection{SourceID: id, AudioProcessID: c.audioID}
	c.mu.Unlock()
	if h := c.handlers(); h != nil && h.Selected != nil {
		h.Selected(sel)
	}
}

func (c *Chooser) emitCanceled() {
	if h := c.handlers(); h != nil && h.Canceled != nil {
		h.Canceled()
	}
}

func (c *Chooser) onWindowClosed() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	if h := c.handlers(); h != nil && h.Closed != nil {
		h.Closed()
	}
}

func (c *Chooser) Show() {
	c.mu.Lock()
	w, closed := c.w, c.closed
	c.mu.Unlock()
	if w == nil || closed {
		return
	}
	fyne.Do(func() {
		// Close may have been queued since the check above.
		if c.isClosed() {
			return
		}
		c.show(w)
	})
}

func (c *Chooser) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Chooser) Close() {
	c.mu.Lock()
	w, closed := c.w, c.closed
	c.closed = true
	c.mu.Unlock()
	if w != nil && !closed {
		fyne.Do(w.Close)
	}
}
