//go:build gui

package gui

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"

	"sharkhost/capture"
	"sharkhost/negotiate"
)

func testApp(t *testing.T) *App {
	t.Helper()
	a := NewApp(nil)
	a.fyneApp = test.NewTempApp(t)
	a.screenW, a.screenH = 1280, 720
	a.status = widget.NewLabel("")
	return a
}

func TestChooserShowAfterCloseIsNoop(t *testing.T) {
	a := testApp(t)
	s, err := a.NewChooser()
	if err != nil {
		t.Fatal(err)
	}
	c := s.(*Chooser)
	var shown atomic.Int32
	c.show = func(fyne.Window) { shown.Add(1) }

	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.Close()
	c.Show()
	if n := shown.Load(); n != 0 {
		t.Errorf("closed chooser shown %d times", n)
	}
}

func TestChooserShowWhileOpen(t *testing.T) {
	a := testApp(t)
	s, _ := a.NewChooser()
	c := s.(*Chooser)
	done := make(chan struct{})
	c.show = func(fyne.Window) { close(done) }

	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.Show()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("open chooser never shown")
	}
	c.Close()
}

type blockingEnumerator struct {
	entered chan struct{}
	release chan struct{}
}

func (e blockingEnumerator) Enumerate(ctx context.Context) (capture.Catalog, error) {
	close(e.entered)
	<-e.release
	return capture.Catalog{}, nil
}

func TestShareDoesNotBlockCaller(t *testing.T) {
	a := testApp(t)
	enum := blockingEnumerator{entered: make(chan struct{}), release: make(chan struct{})}
	a.host.Coordinator = negotiate.New(enum, a.NewChooser, negotiate.Options{})

	returned := make(chan struct{})
	go func() {
		a.share()
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		close(enum.release)
		t.Fatal("share blocked on enumeration")
	}
	select {
	case <-enum.entered:
	case <-time.After(time.Second):
		t.Fatal("negotiation never started")
	}
	close(enum.release)
}
