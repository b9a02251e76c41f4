package generation

import (
	"encoding/base64"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	MinPromptLength = 1
	MaxPromptLength = 2000

	MinEditImages = 1
	MaxEditImages = 16
)

// promptDenylist is a shallow filter for obvious injection payloads. It is not
// a sanitizer: anything not listed passes through untouched.
var promptDenylist = []string{"<script", "javascript:", "exec(", "system("}

// AllowedImageExtensions are the accepted upload extensions, sorted.
var AllowedImageExtensions = []string{".gif", ".jpeg", ".jpg", ".png", ".webp"}

// AllowedImageFormats is the human-readable list shown to clients.
const AllowedImageFormats = "PNG, JPEG, GIF, WEBP"

var canonicalImageMIMEs = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// SanitizePrompt trims the prompt and enforces length and the denylist.
func SanitizePrompt(prompt string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	n := utf8.RuneCountInString(trimmed)
	if n < MinPromptLength || n > MaxPromptLength {
		return "", fmt.Errorf("%w: length must be between %d and %d characters, got %d",
			ErrInvalidPrompt, MinPromptLength, MaxPromptLength, n)
	}
	lower := strings.ToLower(trimmed)
	for _, pattern := range promptDenylist {
		if strings.Contains(lower, pattern) {
			return "", fmt.Errorf("%w: contains forbidden pattern %q", ErrInvalidPrompt, pattern)
		}
	}
	return trimmed, nil
}

// ImageUpload is one uploaded file as received by the transport layer.
type ImageUpload struct {
	Filename    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// CheckImageCount validates the number of uploads before any file is read.
func CheckImageCount(n int) error {
	if n < MinEditImages {
		return fmt.Errorf("%w. Allowed formats: %s", ErrNoInputImages, AllowedImageFormats)
	}
	if n > MaxEditImages {
		return fmt.Errorf("%w: got %d, maximum is %d", ErrTooManyImages, n, MaxEditImages)
	}
	return nil
}

// EncodeImageUploads validates uploads and turns each into a data URL.
// Unknown content types are coerced to image/png.
func EncodeImageUploads(uploads []ImageUpload) ([]string, error) {
	if err := CheckImageCount(len(uploads)); err != nil {
		return nil, err
	}
	for _, u := range uploads {
		if !allowedExtension(u.Filename) {
			return nil, fmt.Errorf("%w: %q. Allowed formats: %s (%s)", ErrUnsupportedImageType,
				u.Filename, AllowedImageFormats, strings.Join(AllowedImageExtensions, ", "))
		}
	}

	urls := make([]string, 0, len(uploads))
	for _, u := range uploads {
		data, err := readUpload(u)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", u.Filename, err)
		}
		urls = append(urls, DataURL(uploadMIME(u.ContentType), data))
	}
	return urls, nil
}

// DataURL wraps raw bytes as data:<mime>;base64,<payload>.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func allowedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedImageExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func uploadMIME(contentType string) string {
	mime := strings.ToLower(strings.TrimSpace(contentType))
	if canonicalImageMIMEs[mime] {
		return mime
	}
	return "image/png"
}

func readUpload(u ImageUpload) ([]byte, error) {
	rc, err := u.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck
	return io.ReadAll(rc)
}
