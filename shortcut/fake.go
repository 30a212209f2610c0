package shortcut

import "sync"

// Recorder is a Forwarder and Mirror that keeps everything it receives.
type Recorder struct {
	mu     sync.Mutex
	events []KeyEvent
	items  map[string]string
	Err    error // returned from SetItem when set
}

func NewRecorder() *Recorder {
	return &Recorder{items: make(map[string]string)}
}

func (r *Recorder) SendInputEvent(ev KeyEvent) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) SetItem(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.items[key] = value
	return nil
}

func (r *Recorder) Events() []KeyEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]KeyEvent(nil), r.events...)
}

func (r *Recorder) Item(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[key]
	return v, ok
}
