package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
	"runtime"

	"voiceclip/status"
)

// shape reports whether the point (x, y), in units of the icon size with the
// origin at the top left, is inside.
type shape func(x, y float64) bool

type layer struct {
	fill color.Color
	in   shape
}

func disc(cx, cy, r float64) shape {
	return func(x, y float64) bool { return math.Hypot(x-cx, y-cy) <= r }
}

func rect(x0, y0, x1, y1 float64) shape {
	return func(x, y float64) bool { return x >= x0 && x <= x1 && y >= y0 && y <= y1 }
}

// capsule is a vertical pill from y0 to y1 with half-width r.
func capsule(cx, y0, y1, r float64) shape {
	return func(x, y float64) bool {
		cy := math.Max(y0, math.Min(y1, y))
		return math.Hypot(x-cx, y-cy) <= r
	}
}

// arc is the lower half of a ring around (cx, cy).
func arc(cx, cy, r, w float64) shape {
	return func(x, y float64) bool {
		d := math.Hypot(x-cx, y-cy)
		return y >= cy && d <= r+w/2 && d >= r-w/2
	}
}

func union(shapes ...shape) shape {
	return func(x, y float64) bool {
		for _, s := range shapes {
			if s(x, y) {
				return true
			}
		}
		return false
	}
}

// mic is a microphone glyph scaled by k around the icon centre.
func mic(k float64) shape {
	at := func(v float64) float64 { return 0.5 + (v-0.5)*k }
	return union(
		capsule(at(0.5), at(0.26), at(0.48), 0.13*k),
		arc(at(0.5), at(0.48), 0.22*k, 0.06*k),
		rect(at(0.47), at(0.70), at(0.53), at(0.82)),
		rect(at(0.36), at(0.80), at(0.64), at(0.86)),
	)
}

func bang() shape {
	return union(rect(0.45, 0.22, 0.55, 0.60), disc(0.5, 0.73, 0.065))
}

func dots() shape {
	return union(disc(0.28, 0.5, 0.08), disc(0.5, 0.5, 0.08), disc(0.72, 0.5, 0.08))
}

var (
	red   = color.RGBA{R: 255, G: 59, B: 48, A: 255}
	amber = color.RGBA{R: 255, G: 159, B: 10, A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	badge = disc(0.5, 0.5, 0.48)
)

var (
	iconIdle   = paint(22, layer{color.Black, mic(1)})
	iconIdleHi = paint(44, layer{color.Black, mic(1)})
	iconRecHi  = paint(44, layer{red, badge}, layer{white, mic(0.8)})
	iconBusyHi = paint(44, layer{amber, badge}, layer{white, dots()})
	iconWarnHi = paint(44, layer{red, badge}, layer{white, bang()})
)

// iconFor returns the tray image for s. Idle uses the template pair so it
// follows the menu bar theme on macOS.
func iconFor(s status.State) []byte {
	switch s {
	case status.Recording:
		return iconRecHi
	case status.Transcribing:
		return iconBusyHi
	case status.Error:
		return iconWarnHi
	}
	return iconIdleHi
}

// paint rasterizes layers in order, later layers on top, sampling each
// pixel at its centre.
func paint(size int, layers ...layer) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	s := float64(size)
	for y := range size {
		for x := range size {
			fx, fy := (float64(x)+0.5)/s, (float64(y)+0.5)/s
			for _, l := range layers {
				if l.in(fx, fy) {
					img.Set(x, y, l.fill)
				}
			}
		}
	}
	return encodePNG(img)
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic("encodePNG: " + err.Error())
	}
	if runtime.GOOS == "windows" {
		return wrapICO(buf.Bytes(), img.Bounds().Dx())
	}
	return buf.Bytes()
}

// wrapICO embeds a PNG in a single-entry ICO container.
func wrapICO(pngData []byte, size int) []byte {
	dim := byte(size)
	if size >= 256 {
		dim = 0
	}
	hdr := make([]byte, 22)
	binary.LittleEndian.PutUint16(hdr[2:], 1) // type: icon
	binary.LittleEndian.PutUint16(hdr[4:], 1) // one image
	hdr[6], hdr[7] = dim, dim
	binary.LittleEndian.PutUint16(hdr[10:], 1)  // planes
	binary.LittleEndian.PutUint16(hdr[12:], 32) // bpp
	binary.LittleEndian.PutUint32(hdr[14:], uint32(len(pngData)))
	binary.LittleEndian.PutUint32(hdr[18:], uint32(len(hdr)))
	return append(hdr, pngData...)
}
