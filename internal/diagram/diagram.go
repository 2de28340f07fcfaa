// Package diagram draws flow diagrams locally: a title above a row of
// labelled boxes joined by arrows, on a transparent canvas. Nothing is sent
// to a remote model.
package diagram

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	DefaultWidth  = 1920
	DefaultHeight = 1080
	maxNodes      = 12
)

// ErrNoNodes is returned when a diagram has nothing to draw.
var ErrNoNodes = errors.New("diagram has no nodes")

var (
	boxFill   = color.NRGBA{R: 255, G: 255, B: 255, A: 235}
	boxBorder = color.NRGBA{R: 32, G: 32, B: 48, A: 255}
	inkColor  = color.NRGBA{R: 20, G: 20, B: 30, A: 255}
	arrowInk  = color.NRGBA{R: 230, G: 120, B: 20, A: 255}
)

// Diagram describes what to draw.
type Diagram struct {
	Title  string
	Nodes  []string
	Width  int
	Height int
}

// FromParameters reads a Diagram from request parameters: "title",
// "nodes" (list of labels), and optional "width"/"height".
func FromParameters(params map[string]any, fallbackTitle string) (Diagram, error) {
	d := Diagram{Title: fallbackTitle, Width: DefaultWidth, Height: DefaultHeight}
	if t, ok := params["title"].(string); ok && t != "" {
		d.Title = t
	}
	switch nodes := params["nodes"].(type) {
	case []any:
		for _, n := range nodes {
			d.Nodes = append(d.Nodes, fmt.Sprint(n))
		}
	case []string:
		d.Nodes = append(d.Nodes, nodes...)
	case nil:
	default:
		return d, fmt.Errorf("diagram nodes must be a list, got %T", nodes)
	}
	if w, ok := dimension(params["width"]); ok {
		d.Width = w
	}
	if h, ok := dimension(params["height"]); ok {
		d.Height = h
	}
	return d, nil
}

func dimension(v any) (int, bool) {
	var n int
	switch x := v.(type) {
	case int:
		n = x
	case float64:
		n = int(x)
	default:
		return 0, false
	}
	return n, n >= 64 && n <= 8192
}

// Render draws d. The background stays fully transparent so the result
// can be layered over video.
func Render(d Diagram) (*image.NRGBA, error) {
	nodes := make([]string, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		if n = strings.TrimSpace(n); n != "" {
			nodes = append(nodes, n)
		}
	}
	if len(nodes) == 0 {
		return nil, ErrNoNodes
	}
	if len(nodes) > maxNodes {
		log.Warn().Int("nodes", len(nodes)).Int("max", maxNodes).Msg("Diagram truncated")
		nodes = nodes[:maxNodes]
	}
	if d.Width <= 0 {
		d.Width = DefaultWidth
	}
	if d.Height <= 0 {
		d.Height = DefaultHeight
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, d.Width, d.Height))
	face := basicfont.Face7x13

	if d.Title != "" {
		drawCentered(canvas, face, d.Title, d.Width/2, d.Height/8)
	}

	n := len(nodes)
	gap := d.Width / (4 * n)
	boxW := (d.Width - gap*(n+1)) / n
	boxH := d.Height / 5
	top := (d.Height - boxH) / 2

	boxes := make([]image.Rectangle, n)
	for i, label := range nodes {
		x := gap + i*(boxW+gap)
		boxes[i] = image.Rect(x, top, x+boxW, top+boxH)
		fillRect(canvas, boxes[i], boxFill)
		strokeRect(canvas, boxes[i], boxBorder, 3)
		drawCentered(canvas, face, fitLabel(face, label, boxW-16), x+boxW/2, top+boxH/2)
	}

	midY := top + boxH/2
	for i := 0; i+1 < n; i++ {
		drawArrow(canvas, boxes[i].Max.X+4, boxes[i+1].Min.X-4, midY, arrowInk)
	}

	log.Debug().
		Str("title", d.Title).
		Int("nodes", n).
		Int("width", d.Width).
		Int("height", d.Height).
		Msg("Diagram rendered")

	return canvas, nil
}

// fillRect fills r with c, replacing what was there.
func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}

func strokeRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA, width int) {
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), c)
	fillRect(img, image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), c)
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y), c)
	fillRect(img, image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// drawArrow draws a horizontal shaft from x1 to x2 with a head at x2.
func drawArrow(img *image.NRGBA, x1, x2, y int, c color.NRGBA) {
	if x2-x1 < 8 {
		return
	}
	head := (x2 - x1) / 3
	if head > 18 {
		head = 18
	}
	fillRect(img, image.Rect(x1, y-2, x2-head, y+2), c)
	for i := 0; i < head; i++ {
		half := head - i
		fillRect(img, image.Rect(x2-head+i, y-half, x2-head+i+1, y+half), c)
	}
}

func drawCentered(img *image.NRGBA, face font.Face, text string, cx, cy int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(inkColor),
		Face: face,
	}
	width := d.MeasureString(text).Ceil()
	metrics := face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Ceil()
	d.Dot = fixed.P(cx-width/2, cy+height/2-metrics.Descent.Ceil())
	d.DrawString(text)
}

// fitLabel trims label with "..." until it fits maxWidth pixels.
func fitLabel(face font.Face, label string, maxWidth int) string {
	if font.MeasureString(face, label).Ceil() <= maxWidth {
		return label
	}
	runes := []rune(label)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if font.MeasureString(face, candidate).Ceil() <= maxWidth {
			return candidate
		}
	}
	return ""
}
