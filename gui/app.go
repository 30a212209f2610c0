//go:build gui

package gui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/go-gl/glfw/v3.3/glfw"

	"sharkhost/capture"
	"sharkhost/negotiate"
	"sharkhost/shortcut"
	"sharkhost/store"
)

// Host is what the window needs from the rest of the process.
type Host struct {
	Dispatcher  *shortcut.Dispatcher
	Coordinator *negotiate.Coordinator
}

type App struct {
	fyneApp fyne.App
	window  fyne.Window
	onReady func(*App)

	host   Host
	status *widget.Label
	muted  bool
	deaf   bool

	// local shortcuts of the primary window, by shortcut name
	shortcuts map[string]func()

	screenW, screenH int
}

func NewApp(onReady func(*App)) *App {
	return &App{onReady: onReady, shortcuts: make(map[string]func())}
}

func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.sharkhost.gui")
	a.fyneApp.Settings().SetTheme(&hostTheme{})

	if desk, ok := a.fyneApp.(desktop.App); ok {
		menu := fyne.NewMenu("sharkhost",
			fyne.NewMenuItem("Show", func() { a.window.Show() }),
			fyne.NewMenuItem("Quit", func() { a.fyneApp.Quit() }),
		)
		desk.SetSystemTrayMenu(menu)
		desk.SetSystemTrayIcon(theme.MediaRecordIcon())
	}

	// Primary monitor work area sizes the chooser
	if monitor := glfw.GetPrimaryMonitor(); monitor != nil {
		_, _, a.screenW, a.screenH = monitor.GetWorkarea()
	} else {
		a.screenW, a.screenH = 1920, 1080
	}

	a.window = a.fyneApp.NewWindow("sharkhost")
	a.status = widget.NewLabel("starting…")
	a.window.SetContent(a.status)
	a.window.Resize(fyne.NewSize(420, 260))
	a.window.SetMaster()
	a.installShortcuts()

	go a.onReady(a)

	a.window.Show()
	a.fyneApp.Run()
	return nil
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		fyne.Do(a.fyneApp.Quit)
	}
}

// Attach wires the host services into the primary window.
func (a *App) Attach(h Host) {
	a.host = h
	fyne.Do(func() {
		a.window.SetContent(a.content())
		a.refreshStatus()
	})
}

func (a *App) content() fyne.CanvasObject {
	b := a.host.Dispatcher.Bindings()
	prefs := a.fyneApp.Preferences()

	form := widget.NewForm()
	for _, action := range []string{store.ActionMute, store.ActionDeafen} {
		action := action
		entry := widget.NewEntry()
		// surface storage first, host cache when storage is empty
		entry.SetText(prefs.StringWithFallback(store.StorageKey(action), b.Get(action)))
		entry.SetPlaceHolder("e.g. Ctrl+Shift+M")
		entry.OnSubmitted = func(accel string) { a.setBinding(action, accel) }
		form.Append(action, container.NewBorder(nil, nil, nil,
			widget.NewButton("Save", func() { a.setBinding(action, entry.Text) }),
			entry))
	}

	share := widget.NewButtonWithIcon("Share screen…", theme.ComputerIcon(), a.share)
	share.Importance = widget.HighImportance

	return container.NewVBox(
		widget.NewLabelWithStyle("Global hotkeys", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		form,
		widget.NewSeparator(),
		share,
		a.status,
	)
}

func (a *App) setBinding(action, accel string) {
	d := a.host.Dispatcher
	go func() {
		_, err := d.SetBinding(action, accel)
		fyne.Do(func() {
			switch {
			case err != nil:
				a.status.SetText(fmt.Sprintf("could not save %s: %v", action, err))
			case accel != "" && d.Bound(action) == "":
				a.status.SetText(fmt.Sprintf("%s saved, but %s is taken by another application", action, accel))
			default:
				a.refreshStatus()
			}
		})
	}()
}

func (a *App) share() {
	a.status.SetText("waiting for a capture source…")
	// Enumeration execs tools and dials PulseAudio; keep it off the UI thread.
	go a.host.Coordinator.Handle(context.Background(), func(o capture.Outcome) {
		fyne.Do(func() { a.status.SetText("capture: " + o.String()) })
	})
}

func (a *App) refreshStatus() {
	mute, deafen := "off", "off"
	if a.muted {
		mute = "on"
	}
	if a.deaf {
		deafen = "on"
	}
	a.status.SetText(fmt.Sprintf("mute %s (%s) • deafen %s (%s)",
		mute, orNone(a.host.Dispatcher.Bound(store.ActionMute)),
		deafen, orNone(a.host.Dispatcher.Bound(store.ActionDeafen))))
}

func orNone(s string) string {
	if s == "" {
		return "unbound"
	}
	return s
}

// installShortcuts registers the window's own Ctrl+M / Ctrl+D handlers,
// the same ones global hotkeys reach through SendInputEvent.
func (a *App) installShortcuts() {
	toggle := func(flag *bool) func() {
		return func() {
			*flag = !*flag
			if a.host.Dispatcher != nil {
				a.refreshStatus()
			}
		}
	}
	bind := func(key fyne.KeyName, fn func()) {
		sc := &desktop.CustomShortcut{KeyName: key, Modifier: fyne.KeyModifierControl}
		a.shortcuts[sc.ShortcutName()] = fn
		a.window.Canvas().AddShortcut(sc, func(fyne.Shortcut) { fn() })
	}
	bind(fyne.KeyM, toggle(&a.muted))
	bind(fyne.KeyD, toggle(&a.deaf))
}

// SetItem mirrors a binding into the window's persistent preferences.
func (a *App) SetItem(key, value string) error {
	if a.fyneApp == nil {
		return fmt.Errorf("gui not running")
	}
	a.fyneApp.Preferences().SetString(key, value)
	return nil
}
