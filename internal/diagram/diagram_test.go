package diagram

import (
	"errors"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

func TestRenderTransparentBackground(t *testing.T) {
	img, err := Render(Diagram{
		Title:  "Pipeline",
		Nodes:  []string{"Queue", "Generate", "Normalize"},
		Width:  640,
		Height: 360,
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 360 {
		t.Fatalf("bounds = %v, want 640x360", b)
	}
	if a := img.NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("corner alpha = %d, want 0", a)
	}

	opaque := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 0 {
			opaque++
		}
	}
	if opaque == 0 {
		t.Error("Render() drew nothing")
	}
}

func TestRenderDeterministic(t *testing.T) {
	d := Diagram{Nodes: []string{"A", "B"}, Width: 200, Height: 100}
	a, err := Render(d)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	b, _ := Render(d)
	if string(a.Pix) != string(b.Pix) {
		t.Error("Render() is not deterministic")
	}
}

func TestRenderNoNodes(t *testing.T) {
	for _, nodes := range [][]string{nil, {}, {"  ", ""}} {
		if _, err := Render(Diagram{Nodes: nodes}); !errors.Is(err, ErrNoNodes) {
			t.Errorf("Render(%q) error = %v, want ErrNoNodes", nodes, err)
		}
	}
}

func TestFromParameters(t *testing.T) {
	tests := []struct {
		name      string
		params    map[string]any
		wantTitle string
		wantNodes int
		wantW     int
		wantErr   bool
	}{
		{
			name:      "json shaped",
			params:    map[string]any{"title": "Flow", "nodes": []any{"a", "b", 3}, "width": float64(800)},
			wantTitle: "Flow",
			wantNodes: 3,
			wantW:     800,
		},
		{
			name:      "fallback title and defaults",
			params:    map[string]any{"nodes": []string{"x"}},
			wantTitle: "hero",
			wantNodes: 1,
			wantW:     DefaultWidth,
		},
		{
			name:      "out of range width ignored",
			params:    map[string]any{"nodes": []any{"x"}, "width": 5},
			wantTitle: "hero",
			wantNodes: 1,
			wantW:     DefaultWidth,
		},
		{
			name:    "nodes not a list",
			params:  map[string]any{"nodes": "a,b"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := FromParameters(tt.params, "hero")
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromParameters() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if d.Title != tt.wantTitle || len(d.Nodes) != tt.wantNodes || d.Width != tt.wantW {
				t.Errorf("FromParameters() = %+v", d)
			}
		})
	}
}

func TestFitLabel(t *testing.T) {
	long := "an extremely long label that cannot fit"
	got := fitLabel(faceForTest(), long, 70)
	if len(got) >= len(long) {
		t.Errorf("fitLabel() = %q, want truncated", got)
	}
	if got := fitLabel(faceForTest(), "ok", 70); got != "ok" {
		t.Errorf("fitLabel(ok) = %q", got)
	}
}

func faceForTest() font.Face { return basicfont.Face7x13 }
