package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"sharkhost/log"
)

type SourceLister interface {
	ListSources(ctx context.Context) ([]Source, error)
}

type ProcessLister interface {
	ListProcesses(ctx context.Context) ([]AudioProcess, error)
}

// System merges several listers into one Enumerator. A failing lister is
// logged and skipped. Fallback is consulted when the others yield nothing;
// Enumerate fails only when every lister failed.
type System struct {
	Sources   []SourceLister
	Fallback  SourceLister  // optional
	Processes ProcessLister // optional
}

func (s *System) Enumerate(ctx context.Context) (Catalog, error) {
	var (
		cat  Catalog
		errs []error
		seen = make(map[string]bool)
	)
	for _, l := range s.Sources {
		if err := ctx.Err(); err != nil {
			return Catalog{}, err
		}
		list, err := l.ListSources(ctx)
		if err != nil {
			log.Warnf("capture source listing failed: %v", err)
			errs = append(errs, err)
			continue
		}
		for _, src := range list {
			if src.ID == "" || seen[src.ID] {
				continue
			}
			seen[src.ID] = true
			cat.Sources = append(cat.Sources, src)
		}
	}
	if len(cat.Sources) == 0 && s.Fallback != nil {
		list, err := s.Fallback.ListSources(ctx)
		if err != nil {
			errs = append(errs, err)
		}
		cat.Sources = append(cat.Sources, list...)
	}
	if len(cat.Sources) == 0 && len(errs) > 0 {
		return Catalog{}, fmt.Errorf("enumerate capture sources: %w", errors.Join(errs...))
	}

	if s.Processes != nil {
		procs, err := s.Processes.ListProcesses(ctx)
		if err != nil {
			log.Warnf("audio process listing failed: %v", err)
		} else {
			cat.AudioProcesses = procs
		}
	}
	return cat, nil
}

// WholeScreen lists a single entry covering every display. It stands in
// where no platform lister is available.
type WholeScreen struct{}

func (WholeScreen) ListSources(context.Context) ([]Source, error) {
	return []Source{{ID: "screen:0", Name: "Entire screen", Kind: KindScreen}}, nil
}

// Placeholder draws a neutral thumbnail with the given aspect ratio, used
// for sources whose pixels are not captured at enumeration time.
func Placeholder(w, h int) image.Image {
	if w <= 0 || h <= 0 {
		w, h = 16, 9
	}
	w, h = fitSize(w, h, ThumbWidth, ThumbHeight)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{0x2b, 0x2d, 0x31, 0xff}}, image.Point{}, draw.Src)
	return img
}

// StaticEnumerator returns a fixed catalog, or Err when set.
type StaticEnumerator struct {
	Catalog Catalog
	Err     error
}

func (e StaticEnumerator) Enumerate(context.Context) (Catalog, error) {
	if e.Err != nil {
		return Catalog{}, e.Err
	}
	return e.Catalog, nil
}
