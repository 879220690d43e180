// Package snapshot turns live video frames into still JPEG captures and
// handles their export to user-facing files.
package snapshot

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"
)

// Encode compresses a frame into JPEG bytes at the given quality (1-100).
func Encode(img image.Image, quality int) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("no frame to encode")
	}
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("jpeg quality must be within [1, 100], got %d", quality)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename returns the download filename for a capture taken at the given
// time: sign_language_capture_<unix-ms-timestamp>.jpg.
func Filename(at time.Time) string {
	return fmt.Sprintf("sign_language_capture_%d.jpg", at.UnixMilli())
}

// Export writes encoded capture bytes into dir under its timestamped
// filename, creating the directory if needed. It returns the written path.
func Export(dir string, at time.Time, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("no capture to export")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(dir, Filename(at))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing capture: %w", err)
	}
	return path, nil
}
