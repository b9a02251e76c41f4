package llm

import (
	"bytes"
	"encoding/base64"
)

const defaultImageMIME = "image/png"

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G'}
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
)

// DetectImageMIME inspects magic bytes. Unrecognized data is reported as PNG.
// A provider-asserted content type is never consulted.
func DetectImageMIME(data []byte) string {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return "image/png"
	case bytes.HasPrefix(data, jpegMagic):
		return "image/jpeg"
	case isWEBP(data):
		return "image/webp"
	default:
		return defaultImageMIME
	}
}

// EnsureRawImage returns binary image bytes whether the provider sent raw
// bytes or base64 text. Data carrying a known image signature is kept as-is;
// otherwise a base64 decode is attempted and the input is returned unchanged
// when it is not valid base64.
func EnsureRawImage(data []byte) []byte {
	if hasImageSignature(data) {
		return data
	}
	decoded, err := decodeBase64(data)
	if err != nil || len(decoded) == 0 {
		return data
	}
	return decoded
}

func hasImageSignature(data []byte) bool {
	return bytes.HasPrefix(data, pngMagic) || bytes.HasPrefix(data, jpegMagic) || isWEBP(data)
}

// isWEBP matches the RIFF....WEBP container header.
func isWEBP(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP"))
}

// decodeBase64 accepts padded or unpadded standard base64, tolerating
// surrounding whitespace.
func decodeBase64(data []byte) ([]byte, error) {
	s := string(bytes.TrimSpace(data))
	if decoded, err := base64.StdEncoding.DecodeString(s); err == nil {
		return decoded, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
