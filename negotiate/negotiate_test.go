package negotiate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sharkhost/capture"
)

var twoScreens = capture.Catalog{
	Sources: []capture.Source{
		{ID: "screen:0", Name: "Built-in", Kind: capture.KindScreen},
		{ID: "window:0x1", Name: "Editor", Kind: capture.KindWindow},
	},
	AudioProcesses: []capture.AudioProcess{{ID: "42", Label: "Music"}},
}

type results struct {
	ch    chan capture.Outcome
	count atomic.Int32
}

func newResults() *results {
	return &results{ch: make(chan capture.Outcome, 8)}
}

func (r *results) resolve(o capture.Outcome) {
	r.count.Add(1)
	r.ch <- o
}

func (r *results) wait(t *testing.T) capture.Outcome {
	t.Helper()
	select {
	case o := <-r.ch:
		return o
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outcome")
	}
	return capture.Outcome{}
}

// settle checks that no second outcome arrives.
func (r *results) settle(t *testing.T) {
	t.Helper()
	select {
	case o := <-r.ch:
		t.Fatalf("resolved twice, second outcome %v", o)
	case <-time.After(30 * time.Millisecond):
	}
	if n := r.count.Load(); n != 1 {
		t.Fatalf("resolve called %d times", n)
	}
}

func waitShown(t *testing.T, s *FakeSurface) {
	t.Helper()
	select {
	case <-s.Shown():
	case <-time.After(time.Second):
		t.Fatal("surface never shown")
	}
}

func waitSurface(t *testing.T, f *FakeFactory) *FakeSurface {
	t.Helper()
	select {
	case s := <-f.Made():
		return s
	case <-time.After(time.Second):
		t.Fatal("no surface created")
	}
	return nil
}

func start(t *testing.T, cat capture.Catalog, opts Options) (*Coordinator, *FakeFactory, *FakeSurface, *results) {
	t.Helper()
	f := NewFakeFactory()
	c := New(capture.StaticEnumerator{Catalog: cat}, f.Make, opts)
	res := newResults()
	c.Handle(context.Background(), res.resolve)
	s := waitSurface(t, f)
	waitShown(t, s)
	return c, f, s, res
}

func TestEmptyCatalogNeverCreatesSurface(t *testing.T) {
	f := NewFakeFactory()
	c := New(capture.StaticEnumerator{}, f.Make, Options{Loopback: true})
	res := newResults()

	c.Handle(context.Background(), res.resolve)

	if o := res.wait(t); !o.IsNone() {
		t.Errorf("got %v, want none", o)
	}
	res.settle(t)
	if f.Count() != 0 {
		t.Errorf("surfaces created = %d", f.Count())
	}
}

func TestEnumerationErrorResolvesNone(t *testing.T) {
	f := NewFakeFactory()
	c := New(capture.StaticEnumerator{Err: errors.New("permission denied")}, f.Make, Options{})
	res := newResults()

	c.Handle(context.Background(), res.resolve)

	if o := res.wait(t); !o.IsNone() {
		t.Errorf("got %v, want none", o)
	}
	res.settle(t)
	if f.Count() != 0 {
		t.Error("surface created after enumeration error")
	}
}

func TestFactoryErrorResolvesNone(t *testing.T) {
	f := NewFakeFactory()
	f.Err = errors.New("no display")
	c := New(capture.StaticEnumerator{Catalog: twoScreens}, f.Make, Options{})
	res := newResults()

	c.Handle(context.Background(), res.resolve)
	if o := res.wait(t); !o.IsNone() {
		t.Errorf("got %v", o)
	}
	res.settle(t)
}

func TestPayloadPushedBeforeShow(t *testing.T) {
	_, _, s, _ := start(t, twoScreens, Options{})

	pushed := s.Pushed()
	if len(pushed) != 1 {
		t.Fatalf("pushed %d payloads, want 1", len(pushed))
	}
	p := pushed[0]
	if len(p.Sources) != 2 || p.Sources[1].ID != "window:0x1" || len(p.Processes) != 1 {
		t.Errorf("payload = %+v", p)
	}
	if s.Attaches() != 1 {
		t.Errorf("attaches = %d, want 1", s.Attaches())
	}
}

func TestSelectWithLoopback(t *testing.T) {
	c, _, s, res := start(t, twoScreens, Options{Loopback: true})

	s.SimSelect("window:0x1", "")
	o := res.wait(t)
	if o.IsNone() || o.Video.ID != "window:0x1" || o.Audio.Mode != capture.AudioLoopback {
		t.Errorf("got %v", o)
	}
	res.settle(t)
	if !s.IsClosed() {
		t.Error("surface not closed after selection")
	}
	if s.Attached() {
		t.Error("handlers still attached")
	}
	if c.Pending() != 0 {
		t.Errorf("pending = %d", c.Pending())
	}
}

func TestSelectWithoutLoopback(t *testing.T) {
	_, _, s, res := start(t, twoScreens, Options{Loopback: false})

	s.SimSelect("screen:0", "")
	o := res.wait(t)
	if o.IsNone() || o.Audio.Mode != capture.AudioNone {
		t.Errorf("got %v", o)
	}
}

func TestSelectWithAudioProcess(t *testing.T) {
	_, _, s, res := start(t, twoScreens, Options{Loopback: true})

	s.SimSelect("screen:0", "42")
	o := res.wait(t)
	if o.Audio.Mode != capture.AudioPerProcess || o.Audio.ProcessID != "42" {
		t.Errorf("got %v", o)
	}
}

func TestSelectVanishedAudioProcessFallsBack(t *testing.T) {
	_, _, s, res := start(t, twoScreens, Options{Loopback: true})

	s.SimSelect("screen:0", "999")
	o := res.wait(t)
	if o.IsNone() || o.Audio.Mode != capture.AudioLoopback {
		t.Errorf("got %v", o)
	}
}

func TestStaleSourceResolvesNone(t *testing.T) {
	_, _, s, res := start(t, twoScreens, Options{Loopback: true})

	s.SimSelect("screen:7", "")
	if o := res.wait(t); !o.IsNone() {
		t.Errorf("got %v, want none", o)
	}
	res.settle(t)
	if !s.IsClosed() {
		t.Error("surface left open after stale selection")
	}
}

func TestCancel(t *testing.T) {
	_, _, s, res := start(t, twoScreens, Options{Loopback: true})

	s.SimCancel()
	if o := res.wait(t); !o.IsNone() {
		t.Errorf("got %v", o)
	}
	res.settle(t)
	if !s.IsClosed() || s.Attached() {
		t.Error("surface not torn down")
	}
}

func TestClosedUnhandled(t *testing.T) {
	c, _, s, res := start(t, twoScreens, Options{Loopback: true})

	s.SimClosed()
	if o := res.wait(t); !o.IsNone() {
		t.Errorf("got %v", o)
	}
	res.settle(t)
	if s.Attached() || c.Pending() != 0 {
		t.Error("request not released")
	}
}

func TestLateSignalsAreIgnored(t *testing.T) {
	tests := []struct {
		name  string
		first func(*FakeSurface)
	}{
		{"after select", func(s *FakeSurface) { s.SimSelect("screen:0", "") }},
		{"after cancel", func(s *FakeSurface) { s.SimCancel() }},
		{"after closed", func(s *FakeSurface) { s.SimClosed() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, s, res := start(t, twoScreens, Options{Loopback: true})
			// keep the handlers to deliver signals past detachment
			h := *s.current()

			tt.first(s)
			res.wait(t)

			h.Closed()
			h.Canceled()
			h.Selected(Selection{SourceID: "window:0x1"})
			h.Closed()
			res.settle(t)
		})
	}
}

func TestLoadFailure(t *testing.T) {
	f := NewFakeFactory()
	f.Configure = func(s *FakeSurface) { s.LoadErr = errors.New("missing asset") }
	c := New(capture.StaticEnumerator{Catalog: twoScreens}, f.Make, Options{Loopback: true})
	res := newResults()

	c.Handle(context.Background(), res.resolve)
	if o := res.wait(t); !o.IsNone() {
		t.Errorf("got %v", o)
	}
	res.settle(t)

	s := waitSurface(t, f)
	select {
	case <-s.Closed():
	case <-time.After(time.Second):
		t.Fatal("surface not disposed after load failure")
	}
	select {
	case <-s.Shown():
		t.Error("surface shown after load failure")
	default:
	}
	if s.Attached() {
		t.Error("handlers left attached after load failure")
	}
	if len(s.Pushed()) != 0 {
		t.Error("payload pushed after load failure")
	}
}

func TestPushFailure(t *testing.T) {
	f := NewFakeFactory()
	f.Configure = func(s *FakeSurface) { s.PushErr = errors.New("renderer gone") }
	c := New(capture.StaticEnumerator{Catalog: twoScreens}, f.Make, Options{})
	res := newResults()

	c.Handle(context.Background(), res.resolve)
	if o := res.wait(t); !o.IsNone() {
		t.Errorf("got %v", o)
	}
	res.settle(t)
}

func TestContextCancelClosesSurface(t *testing.T) {
	f := NewFakeFactory()
	c := New(capture.StaticEnumerator{Catalog: twoScreens}, f.Make, Options{Loopback: true})
	res := newResults()
	ctx, cancel := context.WithCancel(context.Background())

	c.Handle(ctx, res.resolve)
	s := waitSurface(t, f)
	waitShown(t, s)
	cancel()

	if o := res.wait(t); !o.IsNone() {
		t.Errorf("got %v", o)
	}
	res.settle(t)
	select {
	case <-s.Closed():
	case <-time.After(time.Second):
		t.Fatal("surface not closed on cancel")
	}
}

func TestShutdownResolvesPending(t *testing.T) {
	f := NewFakeFactory()
	c := New(capture.StaticEnumerator{Catalog: twoScreens}, f.Make, Options{})
	var all []*results
	for i := 0; i < 3; i++ {
		res := newResults()
		all = append(all, res)
		c.Handle(context.Background(), res.resolve)
		waitShown(t, waitSurface(t, f))
	}
	if c.Pending() != 3 {
		t.Fatalf("pending = %d", c.Pending())
	}

	c.Shutdown()
	for _, res := range all {
		if o := res.wait(t); !o.IsNone() {
			t.Errorf("got %v", o)
		}
		res.settle(t)
	}
	if c.Pending() != 0 {
		t.Errorf("pending after shutdown = %d", c.Pending())
	}
}

func TestResolverPanicIsContained(t *testing.T) {
	f := NewFakeFactory()
	c := New(capture.StaticEnumerator{Catalog: twoScreens}, f.Make, Options{})
	c.Handle(context.Background(), func(capture.Outcome) { panic("boom") })
	s := waitSurface(t, f)
	waitShown(t, s)

	s.SimCancel() // must not panic the test
	if !s.IsClosed() {
		t.Error("surface not closed")
	}
}

type panicEnumerator struct{}

func (panicEnumerator) Enumerate(context.Context) (capture.Catalog, error) {
	panic("lister blew up")
}

func TestPreparationPanicsResolveNone(t *testing.T) {
	tests := []struct {
		name    string
		enum    capture.Enumerator
		factory func(*FakeFactory) SurfaceFactory
	}{
		{
			name:    "enumerator",
			enum:    panicEnumerator{},
			factory: func(f *FakeFactory) SurfaceFactory { return f.Make },
		},
		{
			name: "surface factory",
			enum: capture.StaticEnumerator{Catalog: twoScreens},
			factory: func(*FakeFactory) SurfaceFactory {
				return func() (Surface, error) { panic("no display") }
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFakeFactory()
			c := New(tt.enum, tt.factory(f), Options{Loopback: true})
			res := newResults()

			func() {
				defer func() {
					if p := recover(); p != nil {
						t.Fatalf("Handle panicked: %v", p)
					}
				}()
				c.Handle(context.Background(), res.resolve)
			}()

			if o := res.wait(t); !o.IsNone() {
				t.Errorf("got %v, want none", o)
			}
			res.settle(t)
			if n := c.Pending(); n != 0 {
				t.Errorf("pending = %d, want 0", n)
			}
		})
	}
}

func TestAttachPanicClosesSurface(t *testing.T) {
	var made *FakeSurface
	c := New(capture.StaticEnumerator{Catalog: twoScreens}, func() (Surface, error) {
		made = NewFakeSurface()
		return panicAttach{made}, nil
	}, Options{})
	res := newResults()
	c.Handle(context.Background(), res.resolve)

	if o := res.wait(t); !o.IsNone() {
		t.Errorf("got %v, want none", o)
	}
	if !made.IsClosed() {
		t.Error("surface left open")
	}
	if c.Pending() != 0 {
		t.Error("request still pending")
	}
}

type panicAttach struct{ *FakeSurface }

func (panicAttach) Attach(Handlers) func() { panic("attach failed") }

func TestBrokenThumbnailStillNegotiates(t *testing.T) {
	var broken *image.RGBA
	cat := capture.Catalog{Sources: []capture.Source{
		{ID: "screen:0", Name: "Built-in", Kind: capture.KindScreen, Thumbnail: broken},
	}}
	f := NewFakeFactory()
	c := New(capture.StaticEnumerator{Catalog: cat}, f.Make, Options{})
	res := newResults()
	c.Handle(context.Background(), res.resolve)

	s := waitSurface(t, f)
	waitShown(t, s)
	if p := s.Pushed(); len(p) != 1 || p[0].Sources[0].Thumbnail != "" {
		t.Fatalf("pushed = %+v", p)
	}
	s.SimSelect("screen:0", "")
	if o := res.wait(t); o.IsNone() || o.Video.ID != "screen:0" {
		t.Errorf("got %v, want screen:0", o)
	}
}

func TestConcurrentNegotiationsAreIndependent(t *testing.T) {
	f := NewFakeFactory()
	c := New(capture.StaticEnumerator{Catalog: twoScreens}, f.Make, Options{Loopback: true})

	const n = 8
	type pair struct {
		res *results
		s   *FakeSurface
	}
	pairs := make([]pair, n)
	for i := range pairs {
		pairs[i].res = newResults()
		c.Handle(context.Background(), pairs[i].res.resolve)
		pairs[i].s = waitSurface(t, f)
		waitShown(t, pairs[i].s)
	}

	var wg sync.WaitGroup
	for i, p := range pairs {
		wg.Add(1)
		go func(i int, p pair) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				p.s.SimSelect("screen:0", "")
			case 1:
				p.s.SimCancel()
			default:
				p.s.SimClosed()
			}
		}(i, p)
	}
	wg.Wait()

	for i, p := range pairs {
		o := p.res.wait(t)
		p.res.settle(t)
		wantNone := i%3 != 0
		if o.IsNone() != wantNone {
			t.Errorf("negotiation %d: got %v", i, o)
		}
	}
}

func TestNegotiateBlocks(t *testing.T) {
	f := NewFakeFactory()
	c := New(capture.StaticEnumerator{Catalog: twoScreens}, f.Make, Options{Loopback: true})

	go func() {
		s := <-f.Made()
		<-s.Shown()
		s.SimSelect("screen:0", "42")
	}()

	o := c.Negotiate(context.Background())
	if got := fmt.Sprint(o); got != "screen:0 + process 42" {
		t.Errorf("got %q", got)
	}
}
