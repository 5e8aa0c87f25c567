package photo

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	// MaxDimension bounds the longest edge of a stored room photo.
	MaxDimension = 2048
	jpegQuality  = 85
)

var ErrEmpty = errors.New("empty image")

// Photo is an image ready for storage and model input.
type Photo struct {
	Data     []byte
	MIMEType string
	Ext      string
}

var extByMIME = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// DetectMIME sniffs the content type of data, falling back to the declared
// type when sniffing is inconclusive.
func DetectMIME(data []byte, declared string) string {
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	return "image/jpeg"
}

// Raw wraps data unchanged, typed by its sniffed content type.
func Raw(data []byte, declaredMIME string) *Photo {
	mime := DetectMIME(data, declaredMIME)
	ext := extByMIME[mime]
	if ext == "" {
		ext = "jpg"
	}
	return &Photo{Data: data, MIMEType: mime, Ext: ext}
}

// Normalize applies EXIF orientation and downsizes oversized photos,
// re-encoding them as JPEG. Formats the decoder does not handle are passed
// through unchanged.
func Normalize(data []byte, declaredMIME string) (*Photo, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	passthrough := Raw(data, declaredMIME)
	mime := passthrough.MIMEType

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		if mime == "image/webp" {
			return passthrough, nil
		}
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if mime == "image/jpeg" && bounds.Dx() <= MaxDimension && bounds.Dy() <= MaxDimension {
		return passthrough, nil
	}

	img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &Photo{Data: buf.Bytes(), MIMEType: "image/jpeg", Ext: "jpg"}, nil
}
