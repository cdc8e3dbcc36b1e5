package chart

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/growthlab/growthlab/pkg/types"
)

func filtered() []types.Sample {
	return []types.Sample{
		{Temperature: 26, Humidity: 48, GrowthRate: 52},
		{Temperature: 29, Humidity: 44, GrowthRate: 61},
		{Temperature: 33, Humidity: 41, GrowthRate: 70},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in, want string
		wantErr  bool
	}{
		{"", FormatSVG, false},
		{"svg", FormatSVG, false},
		{".PNG", FormatPNG, false},
		{"png", FormatPNG, false},
		{"gif", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q): err %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNew_Labels(t *testing.T) {
	f, err := New(filtered(), 25)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if f.Scatter.Title.Text != "Temperature vs Growth Rate (Threshold: 25°C)" {
		t.Errorf("title: got %q", f.Scatter.Title.Text)
	}
	if f.Scatter.X.Label.Text != "Temperature (°C)" {
		t.Errorf("x label: got %q", f.Scatter.X.Label.Text)
	}
	if f.ColorBar.Y.Label.Text != "Humidity (%)" {
		t.Errorf("colour bar label: got %q", f.ColorBar.Y.Label.Text)
	}
}

func TestRender_SVG(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, filtered(), 25, FormatSVG, DefaultOptions()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<svg") {
		t.Fatalf("output is not SVG: %.80s", out)
	}
	if !strings.Contains(out, "Temperature vs Growth Rate") {
		t.Error("title text missing from SVG")
	}
}

func TestRender_PNG(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{Width: DefaultWidth / 2, Height: DefaultHeight / 2, DPI: 72}
	if err := Render(&buf, filtered(), 25, FormatPNG, opts); err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if img.Bounds().Dx() != 360 {
		t.Errorf("width: got %d px, want 360", img.Bounds().Dx())
	}
}

func TestRender_EmptySubset(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, nil, 35, FormatSVG, DefaultOptions()); err != nil {
		t.Fatalf("Render empty: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("empty output")
	}
}

func TestRender_SingleHumidityValue(t *testing.T) {
	one := []types.Sample{{Temperature: 30, Humidity: 45, GrowthRate: 60}}
	var buf bytes.Buffer
	if err := Render(&buf, one, 30, FormatSVG, DefaultOptions()); err != nil {
		t.Fatalf("Render: %v", err)
	}
}

func TestRender_BadOptions(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, filtered(), 25, FormatSVG, Options{}); err == nil {
		t.Error("expected error for zero size")
	}
	if err := Render(&buf, filtered(), 25, "gif", DefaultOptions()); err == nil {
		t.Error("expected error for unknown format")
	}
}
