//go:build !linux

package capture

func Platform(screens SourceLister) *System {
	s := &System{Fallback: WholeScreen{}}
	if screens != nil {
		s.Sources = []SourceLister{screens}
	}
	return s
}
