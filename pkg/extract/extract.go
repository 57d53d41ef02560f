// Package extract converts uploaded document bytes into plain text.
// PDF and plain-text payloads are supported; anything else is rejected.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

var (
	ErrUnsupportedType = errors.New("extract: unsupported file type")
	ErrExtraction      = errors.New("extract: failed to extract text")
)

// Text extracts plain text from data. The declared contentType is tried
// first; when it is missing or generic the content is sniffed instead.
func Text(data []byte, contentType string, fileName string) (string, error) {
	mediaType := normalize(contentType)
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = normalize(mimetype.Detect(data).String())
	}

	switch {
	case mediaType == "application/pdf":
		return pdfText(data)
	case mediaType == "text/plain" || strings.HasPrefix(mediaType, "text/"):
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedType, mediaType, fileName)
	}
}

func normalize(contentType string) string {
	mediaType := contentType
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return sb.String(), nil
}
