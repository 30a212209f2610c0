package hotkey

import "sync"

// FakeRegistrar is an in-memory Registrar for tests and the -test mode.
// Combinations listed in Taken behave as if another application owns them.
type FakeRegistrar struct {
	mu       sync.Mutex
	taken    map[Accelerator]bool
	held     map[Accelerator]fakeEntry
	attempts []string
}

type fakeEntry struct {
	raw string
	fn  func()
}

func NewFake(taken ...string) *FakeRegistrar {
	f := &FakeRegistrar{
		taken: make(map[Accelerator]bool),
		held:  make(map[Accelerator]fakeEntry),
	}
	for _, s := range taken {
		f.Take(s)
	}
	return f
}

// Take marks accel as owned by another application.
func (f *FakeRegistrar) Take(accel string) {
	a, err := Parse(accel)
	if err != nil {
		return
	}
	f.mu.Lock()
	f.taken[a] = true
	f.mu.Unlock()
}

func (f *FakeRegistrar) Register(accel string, fn func()) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, accel)

	a, err := Parse(accel)
	if err != nil || f.taken[a] {
		return false
	}
	if _, ok := f.held[a]; ok {
		return false
	}
	f.held[a] = fakeEntry{raw: accel, fn: fn}
	return true
}

func (f *FakeRegistrar) Unregister(accel string) {
	a, err := Parse(accel)
	if err != nil {
		return
	}
	f.mu.Lock()
	delete(f.held, a)
	f.mu.Unlock()
}

func (f *FakeRegistrar) UnregisterAll() {
	f.mu.Lock()
	f.held = make(map[Accelerator]fakeEntry)
	f.mu.Unlock()
}

func (f *FakeRegistrar) IsRegistered(accel string) bool {
	a, err := Parse(accel)
	if err != nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.held[a]
	return ok
}

// Attempts returns every accelerator passed to Register, in order.
func (f *FakeRegistrar) Attempts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.attempts...)
}

func (f *FakeRegistrar) ResetAttempts() {
	f.mu.Lock()
	f.attempts = nil
	f.mu.Unlock()
}

func (f *FakeRegistrar) Held() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.held)
}

// Fire simulates the OS reporting accel. It reports whether a callback ran.
func (f *FakeRegistrar) Fire(accel string) bool {
	a, err := Parse(accel)
	if err != nil {
		return false
	}
	f.mu.Lock()
	e, ok := f.held[a]
	f.mu.Unlock()
	if !ok || e.fn == nil {
		return false
	}
	e.fn()
	return true
}
