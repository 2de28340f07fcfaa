// Package filehandler converts downloaded provider output into the encodings
// the video editor expects.
//
// Rasters are normalized one of two ways:
//   - Fixed raster: 8-bit RGBA PNG with no ancillary chunks, for overlays
//   - Compressed: opaque JPEG, transparency flattened onto white
//
// Everything else (video, audio, 3D models) passes through untouched. The
// choice is made by the caller from a static asset-type table, never from
// the image content.
package filehandler

import (
	"fmt"
	"net/http"
	"strings"
)

// SupportedImageExtensions maps raster extensions to MIME types.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
}

// SupportedVideoExtensions maps video extensions to MIME types.
var SupportedVideoExtensions = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
}

// SupportedAudioExtensions maps audio extensions to MIME types.
var SupportedAudioExtensions = map[string]string{
	".mp3": "audio/mpeg",
	".wav": "audio/wav",
	".m4a": "audio/mp4",
}

// SupportedModelExtensions maps 3D model extensions to MIME types.
var SupportedModelExtensions = map[string]string{
	".glb":  "model/gltf-binary",
	".gltf": "model/gltf+json",
	".obj":  "model/obj",
}

// GetMIMEType returns the MIME type for a given file extension.
func GetMIMEType(ext string) (string, error) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	for _, table := range []map[string]string{
		SupportedImageExtensions,
		SupportedVideoExtensions,
		SupportedAudioExtensions,
		SupportedModelExtensions,
	} {
		if mimeType, ok := table[ext]; ok {
			return mimeType, nil
		}
	}
	return "", fmt.Errorf("unsupported file extension: %s", ext)
}

// ContentTypeFor returns the MIME type for ext, or application/octet-stream.
func ContentTypeFor(ext string) string {
	if mimeType, err := GetMIMEType(ext); err == nil {
		return mimeType
	}
	return "application/octet-stream"
}

// DetectMIME sniffs the content type of downloaded bytes.
func DetectMIME(data []byte) string {
	return http.DetectContentType(data)
}
