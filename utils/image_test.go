package utils

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), []byte("fake image body")...)

func TestDecodeDataURI(t *testing.T) {
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	img, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, pngBytes, img.Data)

	bare, err := DecodeDataURI(base64.StdEncoding.EncodeToString(pngBytes))
	require.NoError(t, err)
	assert.Equal(t, img.Hash(), bare.Hash())
	assert.Len(t, img.Hash(), 64)
}

func TestDecodeDataURIRejects(t *testing.T) {
	for name, in := range map[string]string{
		"empty":      "",
		"not base64": "data:image/png;base64,@@@",
		"no comma":   "data:image/png;base64",
		"text":       "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello")),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeDataURI(in)
			assert.ErrorIs(t, err, ErrInvalidImage)
		})
	}
}

func TestNewImageUsesDeclaredTypeWhenSniffingFails(t *testing.T) {
	img, err := NewImage([]byte{0x00, 0x01, 0x02}, "image/heic")
	require.NoError(t, err)
	assert.Equal(t, "image/heic", img.MIMEType)
}
