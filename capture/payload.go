package capture

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
)

const (
	ThumbWidth  = 320
	ThumbHeight = 180

	dataURLPrefix = "data:image/png;base64,"
)

// Payload is the serializable form of a Catalog handed to a selection
// surface. It carries no live handles.
type Payload struct {
	Sources   []SourceEntry  `json:"sources"`
	Processes []ProcessEntry `json:"processes"`
}

type SourceEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      Kind   `json:"kind"`
	Thumbnail string `json:"thumbnailDataUrl,omitempty"`
}

type ProcessEntry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func Serialize(c Catalog) Payload {
	p := Payload{
		Sources:   make([]SourceEntry, 0, len(c.Sources)),
		Processes: make([]ProcessEntry, 0, len(c.AudioProcesses)),
	}
	for _, s := range c.Sources {
		e := SourceEntry{ID: s.ID, Name: s.Name, Kind: s.Kind}
		if s.Thumbnail != nil {
			if url, err := DataURL(s.Thumbnail); err == nil {
				e.Thumbnail = url
			}
		}
		p.Sources = append(p.Sources, e)
	}
	for _, a := range c.AudioProcesses {
		p.Processes = append(p.Processes, ProcessEntry{ID: a.ID, Label: a.Label})
	}
	return p
}

// DataURL scales img to fit the thumbnail box and encodes it as a PNG
// data URL.
// A broken image (a typed-nil, or one whose At panics) is an error.
func DataURL(img image.Image) (url string, err error) {
	defer func() {
		if p := recover(); p != nil {
			url, err = "", fmt.Errorf("encode thumbnail: %v", p)
		}
	}()
	var buf bytes.Buffer
	if err := png.Encode(&buf, Fit(img, ThumbWidth, ThumbHeight)); err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURL returns the PNG bytes inside a data URL made by DataURL.
func DecodeDataURL(s string) ([]byte, error) {
	if !strings.HasPrefix(s, dataURLPrefix) {
		return nil, errors.New("not a PNG data URL")
	}
	return base64.StdEncoding.DecodeString(s[len(dataURLPrefix):])
}

// Fit scales img down, preserving aspect ratio, so it fits in w x h.
// Images that already fit are returned as is.
func Fit(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() <= w && b.Dy() <= h {
		return img
	}
	dw, dh := fitSize(b.Dx(), b.Dy(), w, h)
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func fitSize(sw, sh, w, h int) (int, int) {
	if sw <= w && sh <= h {
		return sw, sh
	}
	dw, dh := w, sh*w/sw
	if dh > h {
		dw, dh = sw*h/sh, h
	}
	return max(dw, 1), max(dh, 1)
}
