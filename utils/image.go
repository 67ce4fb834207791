package utils

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// MaxImageBytes bounds decoded label photos.
const MaxImageBytes = 10 << 20

var ErrInvalidImage = errors.New("invalid image")

// Image is a decoded upload.
type Image struct {
	Data     []byte
	MIMEType string
}

// Hash returns the hex SHA-256 of the image bytes.
func (img Image) Hash() string {
	sum := sha256.Sum256(img.Data)
	return hex.EncodeToString(sum[:])
}

// DecodeDataURI accepts "data:<mime>;base64,<payload>" or bare base64.
func DecodeDataURI(s string) (Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Image{}, fmt.Errorf("%w: empty", ErrInvalidImage)
	}

	payload := s
	declared := ""
	if strings.HasPrefix(s, "data:") {
		meta, data, ok := strings.Cut(s, ",")
		if !ok {
			return Image{}, fmt.Errorf("%w: malformed data URI", ErrInvalidImage)
		}
		meta = strings.TrimPrefix(meta, "data:")
		if !strings.HasSuffix(meta, ";base64") {
			return Image{}, fmt.Errorf("%w: data URI is not base64", ErrInvalidImage)
		}
		declared = strings.TrimSuffix(meta, ";base64")
		payload = data
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return NewImage(raw, declared)
}

// NewImage validates raw bytes and settles the MIME type, preferring sniffing
// over whatever the client declared.
func NewImage(raw []byte, declared string) (Image, error) {
	if len(raw) == 0 {
		return Image{}, fmt.Errorf("%w: empty", ErrInvalidImage)
	}
	if len(raw) > MaxImageBytes {
		return Image{}, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, MaxImageBytes)
	}
	mt := http.DetectContentType(raw)
	if !strings.HasPrefix(mt, "image/") {
		mt = strings.ToLower(strings.TrimSpace(declared))
	}
	if !strings.HasPrefix(mt, "image/") {
		return Image{}, fmt.Errorf("%w: unsupported content type", ErrInvalidImage)
	}
	return Image{Data: raw, MIMEType: mt}, nil
}
