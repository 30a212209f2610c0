//go:build linux

package capture

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

// Xrandr lists connected monitors.
type Xrandr struct{}

func (Xrandr) ListSources(ctx context.Context) ([]Source, error) {
	out, err := exec.CommandContext(ctx, "xrandr", "--listmonitors").Output()
	if err != nil {
		return nil, fmt.Errorf("xrandr: %w", err)
	}
	return parseMonitors(string(out)), nil
}

// Wmctrl lists top-level windows managed by an EWMH window manager.
type Wmctrl struct{}

func (Wmctrl) ListSources(ctx context.Context) ([]Source, error) {
	out, err := exec.CommandContext(ctx, "wmctrl", "-l").Output()
	if err != nil {
		return nil, fmt.Errorf("wmctrl: %w", err)
	}
	return parseWindows(string(out)), nil
}

// PulseProcesses lists applications with an open playback stream.
type PulseProcesses struct{}

func (PulseProcesses) ListProcesses(ctx context.Context) ([]AudioProcess, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("sharkhost"))
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	defer c.Close()

	var reply proto.GetSinkInputInfoListReply
	if err := c.RawRequest(&proto.GetSinkInputInfoList{}, &reply); err != nil {
		return nil, fmt.Errorf("pulse list sink inputs: %w", err)
	}

	var inputs []sinkInput
	for _, in := range reply {
		inputs = append(inputs, sinkInput{
			index: in.SinkInputIndex,
			pid:   propString(in.Properties, "application.process.id"),
			app:   propString(in.Properties, "application.name"),
			media: in.MediaName,
		})
	}
	return processesFromSinkInputs(inputs), ctx.Err()
}

func propString(props proto.PropList, key string) string {
	if v, ok := props[key]; ok {
		return v.String()
	}
	return ""
}

type sinkInput struct {
	index uint32
	pid   string
	app   string
	media string
}

// processesFromSinkInputs collapses several streams of one process into a
// single entry keyed by pid, or by stream index when pid is unknown.
func processesFromSinkInputs(inputs []sinkInput) []AudioProcess {
	byID := make(map[string]AudioProcess)
	for _, in := range inputs {
		id := in.pid
		if id == "" {
			id = "stream:" + strconv.FormatUint(uint64(in.index), 10)
		}
		if _, ok := byID[id]; ok {
			continue
		}
		label := in.app
		if label == "" {
			label = in.media
		}
		if label == "" {
			label = id
		}
		byID[id] = AudioProcess{ID: id, Label: label}
	}

	procs := make([]AudioProcess, 0, len(byID))
	for _, p := range byID {
		procs = append(procs, p)
	}
	sort.Slice(procs, func(i, j int) bool {
		if procs[i].Label != procs[j].Label {
			return procs[i].Label < procs[j].Label
		}
		return procs[i].ID < procs[j].ID
	})
	return procs
}

// Platform returns the enumerator used by the host on this OS. A nil
// screens lister means xrandr.
func Platform(screens SourceLister) *System {
	if screens == nil {
		screens = Xrandr{}
	}
	return &System{
		Sources:   []SourceLister{screens, Wmctrl{}},
		Fallback:  WholeScreen{},
		Processes: PulseProcesses{},
	}
}
