// Package bundle packs a finished run directory into a single ZIP archive
// whose entries are compressed with Zstandard.
package bundle

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// MethodZstd is the ZIP compression method ID for Zstandard (APPNOTE 6.3.7).
const MethodZstd uint16 = 93

func init() {
	// Level 12 maps to SpeedBestCompression in klauspost/compress.
	zip.RegisterCompressor(MethodZstd, func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(12)))
	})
	zip.RegisterDecompressor(MethodZstd, func(r io.Reader) io.ReadCloser {
		d, err := zstd.NewReader(r)
		if err != nil {
			return io.NopCloser(errReader{err})
		}
		return d.IOReadCloser()
	})
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

// Stats describes a written bundle.
type Stats struct {
	Path     string
	Files    int
	RawBytes int64
	ZipBytes int64
}

// Write archives every regular file directly inside dir into dest.
// Hidden files and dest itself are skipped. The archive is written to a
// temporary file and renamed into place.
func Write(dir, dest string) (Stats, error) {
	start := time.Now()
	stats := Stats{Path: dest}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return stats, fmt.Errorf("read run directory: %w", err)
	}
	destAbs, _ := filepath.Abs(dest)

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if abs, _ := filepath.Abs(filepath.Join(dir, e.Name())); abs == destAbs {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return stats, fmt.Errorf("no files to bundle in %s", dir)
	}
	sort.Strings(names)

	tmpFile, err := os.CreateTemp(filepath.Dir(dest), ".bundle-*.zip")
	if err != nil {
		return stats, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	zw := zip.NewWriter(tmpFile)
	for _, name := range names {
		n, err := addFile(zw, filepath.Join(dir, name), name)
		if err != nil {
			tmpFile.Close()
			return stats, err
		}
		stats.Files++
		stats.RawBytes += n
	}
	if err := zw.Close(); err != nil {
		tmpFile.Close()
		return stats, fmt.Errorf("finalize ZIP: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return stats, fmt.Errorf("close ZIP: %w", err)
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		return stats, err
	}
	stats.ZipBytes = info.Size()

	if err := os.Rename(tmpPath, dest); err != nil {
		return stats, fmt.Errorf("move bundle into place: %w", err)
	}

	log.Info().
		Str("path", dest).
		Int("files", stats.Files).
		Int64("rawBytes", stats.RawBytes).
		Int64("zipBytes", stats.ZipBytes).
		Dur("duration", time.Since(start)).
		Msg("Run bundled")
	return stats, nil
}

func addFile(zw *zip.Writer, path, name string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", name, err)
	}

	header := &zip.FileHeader{
		Name:   name,
		Method: MethodZstd,
	}
	header.SetModTime(info.ModTime())

	w, err := zw.CreateHeader(header)
	if err != nil {
		return 0, fmt.Errorf("create ZIP entry for %s: %w", name, err)
	}
	n, err := io.Copy(w, f)
	if err != nil {
		return n, fmt.Errorf("write ZIP entry for %s: %w", name, err)
	}
	return n, nil
}
