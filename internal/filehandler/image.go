package filehandler

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// EmbeddedMetadata summarises the EXIF fields a provider left in a raster.
// Only presence is recorded; values such as coordinates are never kept.
type EmbeddedMetadata struct {
	GPS    bool
	Date   bool
	Camera string
}

// Fields names the kinds of metadata present.
func (m EmbeddedMetadata) Fields() []string {
	var fields []string
	if m.GPS {
		fields = append(fields, "gps")
	}
	if m.Date {
		fields = append(fields, "date")
	}
	if m.Camera != "" {
		fields = append(fields, "camera")
	}
	return fields
}

// Empty reports whether nothing was found.
func (m EmbeddedMetadata) Empty() bool {
	return len(m.Fields()) == 0
}

// InspectMetadata reads the EXIF block of encoded image bytes. PNG files
// are read from their eXIf chunk. Images without EXIF, and formats that
// cannot carry it, report empty metadata rather than an error.
func InspectMetadata(data []byte) (EmbeddedMetadata, error) {
	r := bytes.NewReader(data)
	decode := imagemeta.Decode
	if bytes.HasPrefix(data, pngSignature) {
		decode = imagemeta.DecodePng
	}

	exif, err := decode(r)
	if err != nil {
		if errors.Is(err, imagemeta.ErrNoExif) || errors.Is(err, imagemeta.ErrMetadataNotSupported) {
			return EmbeddedMetadata{}, nil
		}
		return EmbeddedMetadata{}, fmt.Errorf("failed to decode EXIF metadata: %w", err)
	}

	var m EmbeddedMetadata
	m.GPS = exif.GPS.Latitude() != 0 || exif.GPS.Longitude() != 0
	m.Date = !exif.DateTimeOriginal().IsZero() || !exif.CreateDate().IsZero() || !exif.ModifyDate().IsZero()
	m.Camera = strings.TrimSpace(strings.TrimSpace(exif.Make) + " " + strings.TrimSpace(exif.Model))
	return m, nil
}

// StrippedMetadata lists the metadata groups ("gps", "date", "camera")
// present in data, all of which re-encoding drops. Unreadable EXIF blocks
// are logged and treated as empty.
func StrippedMetadata(data []byte) []string {
	m, err := InspectMetadata(data)
	if err != nil {
		log.Debug().Err(err).Msg("Unreadable EXIF block, nothing to report")
		return nil
	}
	fields := m.Fields()
	if len(fields) > 0 {
		log.Debug().Strs("fields", fields).Msg("Stripping embedded metadata from raster")
	}
	return fields
}
