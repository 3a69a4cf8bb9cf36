package vlm

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
)

// LoadImage reads an image file and detects its media type from the
// content, falling back to image/png for unrecognized data.
func LoadImage(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading image %s: %w", path, err)
	}
	return data, SniffMIME(data), nil
}

// SniffMIME returns the image media type of data.
func SniffMIME(data []byte) string {
	mime := http.DetectContentType(data)
	switch mime {
	case "image/png", "image/jpeg", "image/gif", "image/webp":
		return mime
	default:
		return "image/png"
	}
}

// EncodeImage returns the standard base64 encoding of data.
func EncodeImage(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DataURL builds a data: URL for an inline image.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + EncodeImage(data)
}
