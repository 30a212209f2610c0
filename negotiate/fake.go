package negotiate

import (
	"context"
	"sync"

	"sharkhost/capture"
)

// FakeSurface is a scriptable Surface. Like a real window, Close emits the
// closed signal unless QuietClose is set.
type FakeSurface struct {
	LoadErr    error
	PushErr    error
	QuietClose bool

	mu       sync.Mutex
	handlers *Handlers
	attaches int
	pushed   []capture.Payload
	closed   bool
	shown    chan struct{}
	showOnce sync.Once
	closedCh chan struct{}
	closeOne sync.Once
}

func NewFakeSurface() *FakeSurface {
	return &FakeSurface{
		shown:    make(chan struct{}),
		closedCh: make(chan struct{}),
	}
}

func (f *FakeSurface) Attach(h Handlers) func() {
	f.mu.Lock()
	f.handlers = &h
	f.attaches++
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.handlers = nil
		f.mu.Unlock()
	}
}

func (f *FakeSurface) Load(context.Context) error {
	return f.LoadErr
}

func (f *FakeSurface) Push(p capture.Payload) error {
	if f.PushErr != nil {
		return f.PushErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrSurfaceClosed
	}
	f.pushed = append(f.pushed, p)
	return nil
}

func (f *FakeSurface) Show() {
	f.showOnce.Do(func() { close(f.shown) })
}

func (f *FakeSurface) Close() {
	f.mu.Lock()
	already := f.closed
	f.closed = true
	f.mu.Unlock()
	if already {
		return
	}
	f.closeOne.Do(func() { close(f.closedCh) })
	if !f.QuietClose {
		f.SimClosed()
	}
}

func (f *FakeSurface) current() *Handlers {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handlers
}

func (f *FakeSurface) SimSelect(sourceID, audioProcessID string) {
	if h := f.current(); h != nil && h.Selected != nil {
		h.Selected(Selection{SourceID: sourceID, AudioProcessID: audioProcessID})
	}
}

func (f *FakeSurface) SimCancel() {
	if h := f.current(); h != nil && h.Canceled != nil {
		h.Canceled()
	}
}

// SimClosed emits the closed signal without marking the surface closed,
// as when the user dismisses the window.
func (f *FakeSurface) SimClosed() {
	if h := f.current(); h != nil && h.Closed != nil {
		h.Closed()
	}
}

// Shown is closed once the surface becomes visible.
func (f *FakeSurface) Shown() <-chan struct{} { return f.shown }

// Closed is closed once Close has been called.
func (f *FakeSurface) Closed() <-chan struct{} { return f.closedCh }

func (f *FakeSurface) Attached() bool {
	return f.current() != nil
}

func (f *FakeSurface) Attaches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attaches
}

func (f *FakeSurface) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FakeSurface) Pushed() []capture.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capture.Payload(nil), f.pushed...)
}

// FakeFactory hands out FakeSurfaces and remembers them.
type FakeFactory struct {
	Err       error
	Configure func(*FakeSurface)

	mu       sync.Mutex
	surfaces []*FakeSurface
	made     chan *FakeSurface
}

func NewFakeFactory() *FakeFactory {
	return &FakeFactory{made: make(chan *FakeSurface, 16)}
}

func (f *FakeFactory) Make() (Surface, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	s := NewFakeSurface()
	if f.Configure != nil {
		f.Configure(s)
	}
	f.mu.Lock()
	f.surfaces = append(f.surfaces, s)
	f.mu.Unlock()
	select {
	case f.made <- s:
	default:
	}
	return s, nil
}

// Made delivers each surface as it is created.
func (f *FakeFactory) Made() <-chan *FakeSurface { return f.made }

func (f *FakeFactory) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.surfaces)
}
