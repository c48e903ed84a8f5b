// Package attachment detects and normalizes MIME types of downloaded files.
package attachment

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen matches the read limit mimetype uses by default.
const sniffLen = 3072

const octetStream = "application/octet-stream"

// ErrEmptyContent is returned when there are no bytes to sniff.
var ErrEmptyContent = errors.New("content is empty")

var mimePattern = regexp.MustCompile(`^[a-z0-9.+-]+/[a-z0-9.+-]+$`)

// NormalizeMime lowercases raw and strips any parameters.
func NormalizeMime(raw string) string {
	mime := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return mime
}

// SanitizeMime normalizes raw and reports whether the result is a well-formed
// type/subtype pair.
func SanitizeMime(raw string) (string, bool) {
	mime := NormalizeMime(raw)
	if !mimePattern.MatchString(mime) {
		return "", false
	}
	return mime, true
}

// Sniffer detects MIME types from file content.
type Sniffer struct{}

// NewSniffer returns a content sniffer.
func NewSniffer() *Sniffer {
	return &Sniffer{}
}

// SniffFile reads the head of the file at path and returns its MIME type.
func (s *Sniffer) SniffFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for sniffing: %w", err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read sniff bytes: %w", err)
	}
	return DetectMime(head[:n])
}

// DetectMime runs mimetype's detector over head, falling back to the stdlib
// sniffer when the former only recognizes a generic byte stream.
func DetectMime(head []byte) (string, error) {
	if len(head) == 0 {
		return "", ErrEmptyContent
	}
	mt := mimetype.Detect(head).String()
	if NormalizeMime(mt) != octetStream {
		return mt, nil
	}
	return http.DetectContentType(head), nil
}
