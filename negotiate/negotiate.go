// Package negotiate runs the one-shot handshake that decides which capture
// source a streaming request gets: enumerate, show a selection surface,
// wait for exactly one answer, resolve, tear down.
package negotiate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"sharkhost/capture"
	"sharkhost/log"
)

var ErrSurfaceClosed = errors.New("selection surface closed")

// Selection is what a surface reports when the user picks a source.
type Selection struct {
	SourceID       string `json:"sourceId"`
	AudioProcessID string `json:"audioProcessId,omitempty"`
}

// Handlers are the three signals a selection surface can emit. Surfaces may
// call them from any goroutine but must not hold their own locks while
// doing so.
type Handlers struct {
	Selected func(Selection)
	Canceled func()
	Closed   func()
}

// Surface is a transient, presentation-only selection UI.
type Surface interface {
	// Attach installs h and returns a function that removes it. Signals
	// emitted after removal are dropped.
	Attach(h Handlers) (detach func())
	Load(ctx context.Context) error
	Push(p capture.Payload) error
	Show()
	Close()
}

type SurfaceFactory func() (Surface, error)

// Resolver receives the outcome of one request. It is called exactly once.
type Resolver func(capture.Outcome)

type Options struct {
	// Loopback grants system audio loopback when a source is chosen
	// without a specific audio process.
	Loopback bool
}

type Coordinator struct {
	enum    capture.Enumerator
	factory SurfaceFactory
	opts    Options

	mu      sync.Mutex
	pending map[string]*request
}

func New(enum capture.Enumerator, factory SurfaceFactory, opts Options) *Coordinator {
	return &Coordinator{
		enum:    enum,
		factory: factory,
		opts:    opts,
		pending: make(map[string]*request),
	}
}

// Handle starts a negotiation and returns once the surface is loading.
// resolve is called exactly once, possibly before Handle returns. Handle
// never panics: a failure while preparing the request resolves none.
// Cancelling ctx closes the surface and resolves none.
func (c *Coordinator) Handle(ctx context.Context, resolve Resolver) {
	r := &request{
		id:       uuid.NewString(),
		coord:    c,
		resolve:  resolve,
		loopback: c.opts.Loopback,
		started:  time.Now(),
		done:     make(chan struct{}),
	}

	defer func() {
		if p := recover(); p != nil {
			log.Errorf("capture negotiation %s panicked: %v", r.id, p)
			if r.surface != nil {
				r.fail(fmt.Errorf("panic: %v", p))
			} else {
				r.decline(fmt.Sprintf("panic: %v", p))
			}
		}
	}()

	cat, err := c.enum.Enumerate(ctx)
	if err != nil {
		r.decline("enumerate: " + err.Error())
		return
	}
	if cat.Empty() {
		r.decline("no capture sources")
		return
	}
	r.catalog = cat
	payload := capture.Serialize(cat)

	s, err := c.factory()
	if err != nil {
		r.decline("surface: " + err.Error())
		return
	}
	r.surface = s
	r.detach = s.Attach(Handlers{
		Selected: r.onSelected,
		Canceled: r.onCanceled,
		Closed:   r.onClosed,
	})

	c.mu.Lock()
	c.pending[r.id] = r
	c.mu.Unlock()

	go r.load(ctx, payload)
	go r.watch(ctx)
}

// Negotiate is the blocking form of Handle.
func (c *Coordinator) Negotiate(ctx context.Context) capture.Outcome {
	ch := make(chan capture.Outcome, 1)
	c.Handle(ctx, func(o capture.Outcome) { ch <- o })
	return <-ch
}

// Pending reports how many negotiations have a surface open.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Shutdown resolves every open negotiation with none and closes its surface.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	open := make([]*request, 0, len(c.pending))
	for _, r := range c.pending {
		open = append(open, r)
	}
	c.mu.Unlock()

	for _, r := range open {
		r.abort("host shutdown")
	}
}

func (c *Coordinator) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

const (
	statePending int32 = iota
	stateResolved
)

type request struct {
	id       string
	coord    *Coordinator
	resolve  Resolver
	loopback bool
	started  time.Time
	catalog  capture.Catalog

	surface Surface
	detach  func()

	state    atomic.Int32
	released sync.Once
	done     chan struct{}
}

// claim moves the request from pending to resolved. Only the caller that
// wins may deliver an outcome.
func (r *request) claim() bool {
	return r.state.CompareAndSwap(statePending, stateResolved)
}

func (r *request) resolved() bool {
	return r.state.Load() == stateResolved
}

func (r *request) deliver(o capture.Outcome, reason string) {
	d := log.NegotiationData{
		ID:        r.id,
		Outcome:   string(capture.AudioNone),
		Reason:    reason,
		Sources:   len(r.catalog.Sources),
		Processes: len(r.catalog.AudioProcesses),
		Elapsed:   time.Since(r.started),
	}
	if !o.IsNone() {
		d.Outcome = string(o.Audio.Mode)
		d.SourceID = o.Video.ID
		d.ProcessID = o.Audio.ProcessID
	}
	log.Negotiation(d)

	defer func() {
		if p := recover(); p != nil {
			log.Errorf("capture resolver panicked: %v", p)
		}
	}()
	r.resolve(o)
}

// decline resolves none before any surface exists.
func (r *request) decline(reason string) {
	if r.claim() {
		r.deliver(capture.None(), reason)
	}
	r.release()
}

// release detaches the surface handlers. Safe to call from every path.
func (r *request) release() {
	r.released.Do(func() {
		if r.detach != nil {
			r.detach()
		}
		close(r.done)
		r.coord.forget(r.id)
	})
}

func (r *request) load(ctx context.Context, p capture.Payload) {
	if err := r.surface.Load(ctx); err != nil {
		r.fail(fmt.Errorf("load: %w", err))
		return
	}
	if r.resolved() {
		return
	}
	if err := r.surface.Push(p); err != nil {
		r.fail(fmt.Errorf("push: %w", err))
		return
	}
	if r.resolved() {
		return
	}
	r.surface.Show()
}

// fail handles a surface that never became usable: resolve none, drop the
// handlers, then dispose of the surface.
func (r *request) fail(err error) {
	if r.claim() {
		r.deliver(capture.None(), err.Error())
	}
	r.release()
	r.surface.Close()
}

func (r *request) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		r.abort("request canceled")
	case <-r.done:
	}
}

func (r *request) abort(reason string) {
	if r.claim() {
		r.deliver(capture.None(), reason)
	}
	r.surface.Close()
	r.release()
}

func (r *request) onSelected(sel Selection) {
	if !r.claim() {
		return
	}
	o, reason := r.outcome(sel)
	r.deliver(o, reason)
	r.surface.Close()
	r.release()
}

func (r *request) onCanceled() {
	if !r.claim() {
		return
	}
	r.deliver(capture.None(), "canceled")
	r.surface.Close()
	r.release()
}

func (r *request) onClosed() {
	if r.claim() {
		r.deliver(capture.None(), "closed")
	}
	r.release()
}

func (r *request) outcome(sel Selection) (o capture.Outcome, reason string) {
	defer func() {
		if p := recover(); p != nil {
			o, reason = capture.None(), fmt.Sprintf("selection failed: %v", p)
		}
	}()

	src, ok := r.catalog.Lookup(sel.SourceID)
	if !ok {
		return capture.None(), "unknown source " + sel.SourceID
	}

	audio := capture.Audio{Mode: capture.AudioNone}
	if r.loopback {
		audio.Mode = capture.AudioLoopback
	}
	if sel.AudioProcessID != "" {
		if _, ok := r.catalog.Process(sel.AudioProcessID); ok {
			audio = capture.Audio{Mode: capture.AudioPerProcess, ProcessID: sel.AudioProcessID}
		} else {
			log.Warnf("audio process %s is gone, using %s", sel.AudioProcessID, audio.Mode)
		}
	}
	return capture.Outcome{Video: &src, Audio: audio}, ""
}
