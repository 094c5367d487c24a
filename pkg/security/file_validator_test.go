package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}
	jpgHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
)

func TestIsAllowedImageName(t *testing.T) {
	for name, want := range map[string]bool{
		"sofa.jpg":        true,
		"SOFA.JPEG":       true,
		"chair.Png":       true,
		"quote.pdf":       false,
		"archive.png.zip": false,
		"noextension":     false,
		"":                false,
	} {
		assert.Equal(t, want, IsAllowedImageName(name), name)
	}
}

func TestMatchesMagicBytes(t *testing.T) {
	assert.True(t, MatchesMagicBytes("a.png", pngHeader))
	assert.True(t, MatchesMagicBytes("a.JPG", jpgHeader))
	assert.False(t, MatchesMagicBytes("a.png", jpgHeader))
	assert.False(t, MatchesMagicBytes("a.pdf", []byte("%PDF-1.7")))
	assert.False(t, MatchesMagicBytes("a.png", nil))
}

func TestResolveContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", ResolveContentType("image/jpeg", pngHeader), "declared type is kept")
	assert.Equal(t, "image/png", ResolveContentType("", pngHeader))
	assert.Equal(t, "image/png", ResolveContentType("application/octet-stream", pngHeader))
	assert.Equal(t, "image/jpeg", ResolveContentType("", jpgHeader))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j***@example.com", MaskEmail("jane@example.com"))
	assert.Equal(t, "***", MaskEmail("a"))
	assert.Equal(t, "***@example.com", MaskEmail("j@example.com"))
	assert.Equal(t, "", MaskEmail(""))
}
