package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"voiceclip/status"
)

// One 16-entry palette per state; index 0 is background.
var palettes = map[status.State][]string{
	status.Idle:         {"", "231", "224", "217", "210", "160", "124", "88", "52", "236", "236", "236", "236", "236", "255", "249"},
	status.Recording:    {"", "226", "220", "214", "208", "196", "160", "124", "88", "52", "236", "236", "236", "236", "255", "249"},
	status.Transcribing: {"", "231", "195", "159", "123", "45", "39", "33", "24", "17", "236", "236", "236", "236", "255", "249"},
	status.Error:        {"", "231", "229", "228", "227", "220", "214", "208", "130", "94", "236", "236", "236", "236", "255", "249"},
}

type eyeStyles struct {
	fg [16]lipgloss.Style
	bg [16][16]lipgloss.Style
}

var styles = map[status.State]*eyeStyles{}

func init() {
	for st, colors := range palettes {
		s := &eyeStyles{}
		for i, fg := range colors {
			if fg == "" {
				continue
			}
			s.fg[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
			for j, bg := range colors {
				if bg != "" {
					s.bg[i][j] = lipgloss.NewStyle().Foreground(lipgloss.Color(fg)).Background(lipgloss.Color(bg))
				}
			}
		}
		styles[st] = s
	}
}

const (
	eyeChars = 44
	eyeRows  = 15
)

// renderEye draws the ring "eye" with half-block characters. It breathes
// slowly when idle, follows the input level while recording and pulses
// faster while transcribing.
func renderEye(frame int, level float64, st status.State) string {
	const pixW = eyeChars
	const pixH = eyeRows * 2

	centerX := float64(pixW) / 2
	centerY := float64(pixH) / 2

	var breathe float64
	switch st {
	case status.Recording:
		breathe = math.Sin(float64(frame)*0.10)*0.03 + level*10.0 - 0.05
	case status.Transcribing:
		breathe = math.Sin(float64(frame)*0.30)*0.06 - 0.03
	default:
		breathe = math.Sin(float64(frame)*0.08)*0.02 - 0.05
	}

	pixels := make([][]int, pixH)
	for i := range pixels {
		pixels[i] = make([]int, pixW)
	}

	rings := []struct {
		radius     float64
		breatheAmt float64
		colorIdx   int
	}{
		{0.6, 0.10, 1},
		{1.3, 0.12, 2},
		{2.0, 0.15, 3},
		{2.8, 0.35, 4},
		{3.5, 0.40, 5},
		{4.2, 0.38, 6},
		{5.0, 0.30, 7},
		{5.8, 0.15, 8},
		{6.5, 0.03, 9},
		{7.2, 0.0, 10},
		{8.0, 0.0, 11},
		{10.0, 0.0, 12},
		{12.0, 0.0, 13},
	}

	for y := range pixH {
		for x := range pixW {
			dist := math.Hypot(float64(x)-centerX, float64(y)-centerY)
			for _, r := range rings {
				radius := min(r.radius+breathe*r.breatheAmt*20, 10.0)
				if dist < radius {
					pixels[y][x] = r.colorIdx
					break
				}
			}
		}
	}

	// Glass reflections
	spots := []struct {
		ox, oy float64
		radius float64
		color  int
	}{
		{-9.0 * 0.707, -9.0 * 0.707, 0.7, 14},
		{-7.2 * 0.707, -7.2 * 0.707, 0.4, 15},
		{0, -10.0, 0.8, 14},
		{0, -8.2, 0.6, 15},
		{9.0 * 0.707, -9.0 * 0.707, 0.7, 14},
		{7.2 * 0.707, -7.2 * 0.707, 0.4, 15},
		{0, -2.0, 0.6, 14},
	}
	for y := range pixH {
		for x := range pixW {
			px := float64(x) - centerX
			py := float64(y) - centerY
			for _, s := range spots {
				dx, dy := px-s.ox, py-s.oy
				rLen := math.Hypot(s.ox, s.oy)
				if rLen < 0.001 {
					rLen = 1
				}
				tx, ty := -s.oy/rLen, s.ox/rLen
				dt := dx*tx + dy*ty
				dn := dx*(-ty) + dy*tx
				if (dt*dt)/9.0+dn*dn < s.radius*s.radius {
					pixels[y][x] = s.color
				}
			}
		}
	}

	pal, ok := styles[st]
	if !ok {
		pal = styles[status.Idle]
	}

	var out strings.Builder
	for cy := range eyeRows {
		for cx := range eyeChars {
			top := pixels[cy*2][cx]
			bot := pixels[cy*2+1][cx]
			switch {
			case top == 0 && bot == 0:
				out.WriteString(" ")
			case top == bot:
				out.WriteString(pal.fg[top].Render("█"))
			case bot == 0:
				out.WriteString(pal.fg[top].Render("▀"))
			case top == 0:
				out.WriteString(pal.fg[bot].Render("▄"))
			default:
				out.WriteString(pal.bg[top][bot].Render("▀"))
			}
		}
		out.WriteString("\n")
	}
	return out.String()
}
