package security

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Magic byte signatures for accepted attachment types
var magicBytes = map[string][][]byte{
	".jpg":  {{0xFF, 0xD8, 0xFF}},
	".jpeg": {{0xFF, 0xD8, 0xFF}},
	".png":  {{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
}

// Allowed attachment extensions (strict whitelist)
var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// IsAllowedImageName reports whether filename ends in .jpg, .jpeg or .png,
// ignoring case.
func IsAllowedImageName(filename string) bool {
	return allowedImageExtensions[strings.ToLower(filepath.Ext(filename))]
}

// MatchesMagicBytes checks that data starts with a signature for the
// extension of filename.
func MatchesMagicBytes(filename string, data []byte) bool {
	signatures, ok := magicBytes[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return false
	}
	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}
	return false
}

// ResolveContentType returns the declared media type unless it is missing or
// the generic octet-stream, in which case the type is sniffed from data.
func ResolveContentType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && !strings.HasPrefix(declared, "application/octet-stream") {
		return declared
	}
	return mimetype.Detect(data).String()
}
