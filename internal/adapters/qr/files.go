package qr

import (
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

const googleWriteReview = "https://search.google.com/local/writereview?placeid="

// ReviewURL is the public page a QR code points at.
func ReviewURL(origin, slug string) string {
	return strings.TrimRight(origin, "/") + "/review/" + url.PathEscape(slug)
}

// GoogleReviewURL opens the write-review dialog for a Google place.
func GoogleReviewURL(placeID string) string {
	return googleWriteReview + url.QueryEscape(placeID)
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeFilename lower-cases name, collapses every run of characters
// outside [a-z0-9] into one '-' and trims leading/trailing dashes.
func SanitizeFilename(name string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// FileName is "<sanitized>-qr-code.<ext>". Names with no usable characters
// become "business".
func FileName(businessName string, format Format) string {
	base := SanitizeFilename(businessName)
	if base == "" {
		base = "business"
	}
	return base + "-qr-code." + string(format)
}

// SaveFile writes payload into dir under FileName. The write goes to a temp
// file first and is renamed into place so readers never see a partial image.
func SaveFile(dir, businessName string, format Format, payload []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create output dir")
	}
	path := filepath.Join(dir, FileName(businessName, format))

	tmp, err := os.CreateTemp(dir, ".qr-*")
	if err != nil {
		return "", errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return "", errors.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(err, "close temp file")
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", errors.Wrap(err, "chmod temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", errors.Wrap(err, "rename into place")
	}
	return path, nil
}
