//go:build !linux && !darwin && !windows

package hotkey

type noBackend struct{}

func newBackend() backend {
	return noBackend{}
}

func (noBackend) bind(Accelerator, func()) (func(), error) {
	return nil, ErrUnsupported
}

func Diagnose() (string, error) {
	return "", ErrUnsupported
}
