//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	evKey      = 1
	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2
	keyLCtrl   = 29
	keyRCtrl   = 97
	keyLShift  = 42
	keyRShift  = 54
	keyLAlt    = 56
	keyRAlt    = 100
	keyLMeta   = 125
	keyRMeta   = 126
)

// input_event is 24 bytes on 64-bit Linux:
// timeval (16 bytes) + type (2) + code (2) + value (4)
const inputEventSize = 24

var evdevKeys = map[uint16]Key{
	30: "A", 48: "B", 46: "C", 32: "D", 18: "E", 33: "F", 34: "G", 35: "H",
	23: "I", 36: "J", 37: "K", 38: "L", 50: "M", 49: "N", 24: "O", 25: "P",
	16: "Q", 19: "R", 31: "S", 20: "T", 22: "U", 47: "V", 17: "W", 45: "X",
	21: "Y", 44: "Z",
	2: "1", 3: "2", 4: "3", 5: "4", 6: "5", 7: "6", 8: "7", 9: "8", 10: "9", 11: "0",
	59: "F1", 60: "F2", 61: "F3", 62: "F4", 63: "F5", 64: "F6",
	65: "F7", 66: "F8", 67: "F9", 68: "F10", 87: "F11", 88: "F12",
	57: "Space", 28: "Enter", 1: "Escape", 15: "Tab", 111: "Delete",
	103: "Up", 108: "Down", 105: "Left", 106: "Right",
}

// evdevBackend reads every keyboard under /dev/input and matches key
// presses against the armed combinations. It is passive: other
// applications grabbing the same keys are not detected.
type evdevBackend struct {
	mu     sync.Mutex
	combos map[Accelerator]func()
	files  []*os.File
	stop   chan struct{}
}

func newBackend() backend {
	return &evdevBackend{combos: make(map[Accelerator]func())}
}

func (b *evdevBackend) bind(a Accelerator, fire func()) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stop == nil {
		if err := b.open(); err != nil {
			return nil, err
		}
	}
	b.combos[a] = fire

	var once sync.Once
	return func() {
		once.Do(func() { b.unbind(a) })
	}, nil
}

func (b *evdevBackend) unbind(a Accelerator) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.combos, a)
	if len(b.combos) == 0 {
		b.close()
	}
}

func (b *evdevBackend) open() error {
	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	stop := make(chan struct{})
	var files []*os.File
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	b.stop = stop
	b.files = files
	for _, f := range files {
		go b.readEvents(f, stop)
	}
	return nil
}

func (b *evdevBackend) close() {
	if b.stop == nil {
		return
	}
	close(b.stop)
	for _, f := range b.files {
		f.Close()
	}
	b.stop = nil
	b.files = nil
}

func (b *evdevBackend) lookup(a Accelerator) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.combos[a]
}

func (b *evdevBackend) readEvents(f *os.File, stop chan struct{}) {
	buf := make([]byte, inputEventSize*16)
	var mods Modifier

	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey {
				continue
			}

			if m := modifierFor(evCode); m != 0 {
				switch evValue {
				case keyPress:
					mods |= m
				case keyRelease:
					mods &^= m
				}
				continue
			}

			// OS auto-repeat fires too; the dispatcher debounces it.
			if evValue != keyPress && evValue != keyRepeat {
				continue
			}
			key, ok := evdevKeys[evCode]
			if !ok {
				continue
			}
			if fire := b.lookup(Accelerator{Mods: mods, Key: key}); fire != nil {
				fire()
			}
		}
	}
}

func modifierFor(code uint16) Modifier {
	switch code {
	case keyLCtrl, keyRCtrl:
		return ModCtrl
	case keyLShift, keyRShift:
		return ModShift
	case keyLAlt, keyRAlt:
		return ModAlt
	case keyLMeta, keyRMeta:
		return ModSuper
	}
	return 0
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, filepath.Join("/dev/input", e.Name()))
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(data))) > 10
}

// Diagnose checks that at least one keyboard device can be read.
func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}

	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}
