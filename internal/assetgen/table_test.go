package assetgen

import (
	"testing"

	"github.com/fpang/weekly-asset-pipeline/internal/filehandler"
)

func TestTypeTableLookup(t *testing.T) {
	tests := []struct {
		assetType string
		encoding  filehandler.Encoding
		ext       string
		local     bool
	}{
		{"image", filehandler.EncodingCompressed, "jpeg", false},
		{"memoryPalace", filehandler.EncodingCompressed, "jpeg", false},
		{"icon", filehandler.EncodingFixedRaster, "png", false},
		{"lowerThird", filehandler.EncodingFixedRaster, "png", false},
		{"diagram", filehandler.EncodingFixedRaster, "png", true},
		{"video", filehandler.EncodingPassthrough, "mp4", false},
		{"audio", filehandler.EncodingPassthrough, "mp3", false},
		{"threeD", filehandler.EncodingPassthrough, "glb", false},
		{"somethingNew", filehandler.EncodingPassthrough, "bin", false},
	}
	for _, tt := range tests {
		t.Run(tt.assetType, func(t *testing.T) {
			got := DefaultTypeTable.Lookup(tt.assetType)
			if got.Encoding != tt.encoding || got.Extension != tt.ext || got.Local != tt.local {
				t.Errorf("Lookup(%q) = %+v, want %s/%s/local=%v", tt.assetType, got, tt.encoding, tt.ext, tt.local)
			}
		})
	}
}

func TestForRequestTransparency(t *testing.T) {
	req := Request{AssetType: "graphic", ProviderParameters: map[string]any{"transparent": true}}
	got := DefaultTypeTable.ForRequest(req)
	if got.Encoding != filehandler.EncodingFixedRaster || got.Extension != "png" {
		t.Errorf("ForRequest() = %+v, want fixed raster png", got)
	}
	if DefaultTypeTable.Lookup("graphic").Encoding != filehandler.EncodingCompressed {
		t.Error("ForRequest() must not modify the table")
	}

	video := DefaultTypeTable.ForRequest(Request{AssetType: "video", ProviderParameters: map[string]any{"transparent": true}})
	if video.Encoding != filehandler.EncodingPassthrough {
		t.Errorf("transparent flag should not affect passthrough types, got %s", video.Encoding)
	}
}

func TestParsePriority(t *testing.T) {
	for in, want := range map[string]Priority{
		"HIGH":    PriorityHigh,
		"low":     PriorityLow,
		" Medium": PriorityMedium,
		"":        PriorityMedium,
		"urgent":  PriorityMedium,
	} {
		if got := ParsePriority(in); got != want {
			t.Errorf("ParsePriority(%q) = %q, want %q", in, got, want)
		}
	}
}
