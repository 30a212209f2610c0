package capture

import (
	"bufio"
	"strconv"
	"strings"
)

// parseMonitors reads `xrandr --listmonitors` output:
//
//	Monitors: 2
//	 0: +*eDP-1 1920/344x1080/193+0+0  eDP-1
//	 1: +HDMI-1 2560/597x1440/336+1920+0  HDMI-1
func parseMonitors(out string) []Source {
	var sources []Source
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 || !strings.HasSuffix(fields[0], ":") {
			continue
		}
		idx := strings.TrimSuffix(fields[0], ":")
		if _, err := strconv.Atoi(idx); err != nil {
			continue
		}
		name := strings.TrimLeft(fields[1], "+*")
		w, h := parseGeometry(fields[2])
		sources = append(sources, Source{
			ID:        "screen:" + idx,
			Name:      name,
			Kind:      KindScreen,
			Thumbnail: Placeholder(w, h),
		})
	}
	return sources
}

// parseGeometry reads "1920/344x1080/193+0+0" into pixel width and height.
func parseGeometry(g string) (int, int) {
	if i := strings.IndexByte(g, '+'); i >= 0 {
		g = g[:i]
	}
	wPart, hPart, ok := strings.Cut(g, "x")
	if !ok {
		return 0, 0
	}
	w, _ := strconv.Atoi(strings.SplitN(wPart, "/", 2)[0])
	h, _ := strconv.Atoi(strings.SplitN(hPart, "/", 2)[0])
	return w, h
}

// parseWindows reads `wmctrl -l` output:
//
//	0x03a00003  0 host Terminal
//	0x04200006 -1 host Desktop
//
// Sticky entries (desktop -1) are panels and docks and are skipped.
func parseWindows(out string) []Source {
	var sources []Source
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || !strings.HasPrefix(fields[0], "0x") {
			continue
		}
		if fields[1] == "-1" {
			continue
		}
		sources = append(sources, Source{
			ID:   "window:" + fields[0],
			Name: strings.Join(fields[3:], " "),
			Kind: KindWindow,
		})
	}
	return sources
}
