package validation

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// MaxImageBytes caps post image uploads at 5 MiB.
const MaxImageBytes = 5 << 20

// ValidateImage sniffs the payload and returns the decoded format name.
// Accepted formats are gif, jpeg, png and webp.
func ValidateImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("image is empty")
	}
	if len(data) > MaxImageBytes {
		return "", fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("unrecognized image format")
	}
	switch format {
	case "gif", "jpeg", "png", "webp":
		return format, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", format)
	}
}

// ImageExtension maps a sniffed format to a file extension.
func ImageExtension(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	default:
		return "." + format
	}
}
