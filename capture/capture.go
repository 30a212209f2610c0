// Package capture enumerates the screens, windows and audio-producing
// processes a streaming request can choose from.
package capture

import (
	"context"
	"fmt"
	"image"
)

type Kind string

const (
	KindScreen Kind = "screen"
	KindWindow Kind = "window"
)

// Source is a capturable screen or window. IDs are unique within one
// enumeration only.
type Source struct {
	ID        string
	Name      string
	Kind      Kind
	Thumbnail image.Image // optional
}

// AudioProcess is an application currently producing audio.
type AudioProcess struct {
	ID    string
	Label string
}

// Catalog is one enumeration snapshot.
type Catalog struct {
	Sources        []Source
	AudioProcesses []AudioProcess
}

func (c Catalog) Empty() bool {
	return len(c.Sources) == 0
}

func (c Catalog) Lookup(id string) (Source, bool) {
	for _, s := range c.Sources {
		if s.ID == id {
			return s, true
		}
	}
	return Source{}, false
}

func (c Catalog) Process(id string) (AudioProcess, bool) {
	for _, p := range c.AudioProcesses {
		if p.ID == id {
			return p, true
		}
	}
	return AudioProcess{}, false
}

type Enumerator interface {
	Enumerate(ctx context.Context) (Catalog, error)
}

type AudioMode string

const (
	AudioNone       AudioMode = "none"
	AudioLoopback   AudioMode = "loopback"
	AudioPerProcess AudioMode = "process"
)

type Audio struct {
	Mode      AudioMode
	ProcessID string
}

// Outcome is what a capture request resolves to. A nil Video means the
// request was declined and nothing is captured.
type Outcome struct {
	Video *Source
	Audio Audio
}

func None() Outcome {
	return Outcome{Audio: Audio{Mode: AudioNone}}
}

func (o Outcome) IsNone() bool {
	return o.Video == nil
}

func (o Outcome) String() string {
	if o.IsNone() {
		return "none"
	}
	switch o.Audio.Mode {
	case AudioPerProcess:
		return fmt.Sprintf("%s + process %s", o.Video.ID, o.Audio.ProcessID)
	case AudioLoopback:
		return o.Video.ID + " + loopback"
	}
	return o.Video.ID
}
