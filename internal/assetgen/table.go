package assetgen

import (
	"github.com/fpang/weekly-asset-pipeline/internal/filehandler"
	"github.com/fpang/weekly-asset-pipeline/internal/provider"
)

// TypeSpec is how one asset type is produced and stored.
type TypeSpec struct {
	Encoding   filehandler.Encoding
	Extension  string
	Extraction []provider.Shape
	// Local types are rendered in-process and never reach the provider.
	Local bool
}

// TypeTable maps an asset type to its TypeSpec.
type TypeTable map[string]TypeSpec

// UnknownType is used for asset types missing from the table.
var UnknownType = TypeSpec{
	Encoding:   filehandler.EncodingPassthrough,
	Extension:  "bin",
	Extraction: provider.GenericOrder,
}

var (
	compressedImage = TypeSpec{Encoding: filehandler.EncodingCompressed, Extension: "jpeg", Extraction: provider.ImageOrder}
	overlayImage    = TypeSpec{Encoding: filehandler.EncodingFixedRaster, Extension: "png", Extraction: provider.ImageOrder}
)

// DefaultTypeTable covers the asset types the weekly pipeline produces.
var DefaultTypeTable = TypeTable{
	"image":         compressedImage,
	"graphic":       compressedImage,
	"memoryPalace":  compressedImage,
	"chapterMarker": compressedImage,
	"icon":          overlayImage,
	"lowerThird":    overlayImage,
	"diagram": {
		Encoding:  filehandler.EncodingFixedRaster,
		Extension: "png",
		Local:     true,
	},
	"video":  {Encoding: filehandler.EncodingPassthrough, Extension: "mp4", Extraction: provider.VideoOrder},
	"audio":  {Encoding: filehandler.EncodingPassthrough, Extension: "mp3", Extraction: provider.AudioOrder},
	"threeD": {Encoding: filehandler.EncodingPassthrough, Extension: "glb", Extraction: provider.ModelOrder},
}

// Lookup returns the TypeSpec for assetType, or UnknownType.
func (t TypeTable) Lookup(assetType string) TypeSpec {
	if spec, ok := t[assetType]; ok {
		return spec
	}
	return UnknownType
}

// ForRequest applies per-request overrides: a compressed raster asked to
// keep transparency is stored as a fixed raster PNG instead.
func (t TypeTable) ForRequest(req Request) TypeSpec {
	spec := t.Lookup(req.AssetType)
	if wantsTransparency(req.ProviderParameters) && spec.Encoding == filehandler.EncodingCompressed {
		spec.Encoding = filehandler.EncodingFixedRaster
		spec.Extension = "png"
	}
	return spec
}

func wantsTransparency(params map[string]any) bool {
	v, _ := params["transparent"].(bool)
	return v
}

// PayloadBuilder maps a request to the provider payload.
type PayloadBuilder func(req Request) map[string]any

// DefaultPayload copies the provider parameters and sets "prompt". Keys the
// pipeline itself consumes are left out.
func DefaultPayload(req Request) map[string]any {
	payload := make(map[string]any, len(req.ProviderParameters)+1)
	for k, v := range req.ProviderParameters {
		if k == "transparent" {
			continue
		}
		payload[k] = v
	}
	payload["prompt"] = req.Prompt
	return payload
}
