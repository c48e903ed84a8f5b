package media

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mediabridge/mediabridge/internal/attachment"
)

var extensionPattern = regexp.MustCompile(`^[a-z0-9]+$`)

// ExtensionTable maps sanitized MIME types to file extensions (no period).
// It is immutable once built and safe for concurrent reads.
type ExtensionTable struct {
	byMime map[string]string
}

// NewExtensionTable validates and copies entries.
func NewExtensionTable(entries map[string]string) (*ExtensionTable, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("extension table is empty")
	}
	byMime := make(map[string]string, len(entries))
	for rawMime, rawExt := range entries {
		mime, ok := attachment.SanitizeMime(rawMime)
		if !ok {
			return nil, fmt.Errorf("invalid mime type %q", rawMime)
		}
		ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(rawExt), "."))
		if !extensionPattern.MatchString(ext) {
			return nil, fmt.Errorf("invalid extension %q for %s", rawExt, mime)
		}
		byMime[mime] = ext
	}
	return &ExtensionTable{byMime: byMime}, nil
}

// Lookup returns the extension registered for mime.
func (t *ExtensionTable) Lookup(mime string) (string, bool) {
	if t == nil {
		return "", false
	}
	ext, ok := t.byMime[mime]
	return ext, ok
}

// Len reports the number of allowed MIME types.
func (t *ExtensionTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byMime)
}
