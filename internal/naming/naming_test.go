package naming

import (
	"errors"
	"testing"
)

func TestGenerateFilename(t *testing.T) {
	tests := []struct {
		name        string
		scene       int
		assetType   string
		description string
		version     int
		want        string
	}{
		{"punctuation collapsed", 1, "image", "Ferrari Cart Morph!!", 1, "001_image_ferrari_cart_morph_v1"},
		{"leading and trailing junk", 12, "icon", "  --Hello, World--  ", 2, "012_icon_hello_world_v2"},
		{"three digit scene", 123, "video", "intro", 1, "123_video_intro_v1"},
		{"scene wider than padding", 1234, "audio", "outro", 3, "1234_audio_outro_v3"},
		{"accents folded", 4, "graphic", "Café Crème", 1, "004_graphic_cafe_creme_v1"},
		{"digits kept", 5, "diagram", "Top 10 tips", 1, "005_diagram_top_10_tips_v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateFilename(tt.scene, tt.assetType, tt.description, tt.version)
			if err != nil {
				t.Fatalf("GenerateFilename() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GenerateFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateFilenameDeterministic(t *testing.T) {
	first, err := GenerateFilename(7, "lowerThird", "Guest Name: Dr. Ada", 4)
	if err != nil {
		t.Fatalf("GenerateFilename() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := GenerateFilename(7, "lowerThird", "Guest Name: Dr. Ada", 4)
		if err != nil {
			t.Fatalf("GenerateFilename() error = %v", err)
		}
		if again != first {
			t.Fatalf("GenerateFilename() = %q on call %d, want %q", again, i, first)
		}
	}
}

func TestGenerateFilenameErrors(t *testing.T) {
	tests := []struct {
		name        string
		scene       int
		description string
		version     int
		wantErr     error
	}{
		{"negative scene", -1, "hero", 1, ErrInvalidSceneNumber},
		{"empty description", 1, "", 1, ErrInvalidDescription},
		{"only punctuation", 1, "!!! ---", 1, ErrInvalidDescription},
		{"zero version", 1, "hero", 0, ErrInvalidVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateFilename(tt.scene, "image", tt.description, tt.version)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("GenerateFilename() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExtractSceneNumber(t *testing.T) {
	tests := []struct {
		id   string
		want int
	}{
		{"3.2", 3},
		{"12", 12},
		{"007.1", 7},
		{" 4.1 ", 4},
		{"abc", 0},
		{"", 0},
		{"-2.1", 0},
		{"x.1", 0},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := ExtractSceneNumber(tt.id); got != tt.want {
				t.Errorf("ExtractSceneNumber(%q) = %d, want %d", tt.id, got, tt.want)
			}
		})
	}
}
