// Package naming builds the canonical, deterministic filenames every
// generated asset is stored under:
//
//	{scene:03d}_{assetType}_{description}_v{version}
//
// The extension is appended by the caller. Nothing here reads the clock or
// a random source, so a filename can be predicted before generation runs.
package naming

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrInvalidDescription is returned when a description sanitizes to nothing.
	ErrInvalidDescription = errors.New("invalid description")
	// ErrInvalidSceneNumber is returned for negative scene numbers.
	ErrInvalidSceneNumber = errors.New("invalid scene number")
	// ErrInvalidVersion is returned for versions below 1.
	ErrInvalidVersion = errors.New("invalid version")
)

// GenerateFilename returns the filename stem for an asset.
func GenerateFilename(sceneNumber int, assetType, description string, version int) (string, error) {
	if sceneNumber < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidSceneNumber, sceneNumber)
	}
	if version < 1 {
		return "", fmt.Errorf("%w: %d", ErrInvalidVersion, version)
	}
	clean := Sanitize(description)
	if clean == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidDescription, description)
	}
	return fmt.Sprintf("%03d_%s_%s_v%d", sceneNumber, assetType, clean, version), nil
}

// Sanitize lower-cases a description, folds accented letters to their base
// form, collapses every run of non-alphanumeric characters into a single
// underscore and trims leading/trailing underscores.
func Sanitize(description string) string {
	folded, _, err := transform.String(accentFolder(), description)
	if err != nil {
		folded = description
	}
	folded = strings.ToLower(folded)

	var sb strings.Builder
	sb.Grow(len(folded))
	pendingSep := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			pendingSep = false
			sb.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return sb.String()
}

// accentFolder is rebuilt per call; transform.Transformer values carry state.
func accentFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// ExtractSceneNumber returns the integer prefix of an asset id before the
// first "." ("3.2" -> 3, "12" -> 12). Unparseable or negative ids fall back
// to scene 0; the fallback is logged because several ids collapsing onto
// scene 0 makes filename collisions likely.
func ExtractSceneNumber(id string) int {
	head, _, _ := strings.Cut(strings.TrimSpace(id), ".")
	n, err := strconv.Atoi(head)
	if err != nil || n < 0 {
		log.Warn().
			Str("asset_id", id).
			Msg("Could not parse scene number from asset id, using scene 0")
		return 0
	}
	return n
}
