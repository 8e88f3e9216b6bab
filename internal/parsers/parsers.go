// Package parsers turns opaque response bytes plus a media type into a
// structured JSON value. Parsers are pure: no I/O, no retained state.
package parsers

import (
	"fmt"
	"log/slog"
	"mime"
	"strings"
)

// Media types with dedicated parsers.
const (
	mediaTypeCSV  = "text/csv"
	mediaTypeXLS  = "application/vnd.ms-excel"
	mediaTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Registry dispatches payloads to the built-in parsers by media type.
type Registry struct {
	logger *slog.Logger
}

// NewRegistry creates a parser registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Parse converts the payload to its JSON encoding. Unknown media types pass
// through unchanged.
func (r *Registry) Parse(mediaType string, body []byte) ([]byte, error) {
	normalized := normalizeMediaType(mediaType)

	switch normalized {
	case mediaTypeCSV:
		out, err := r.parseCSV(body)
		if err != nil {
			return nil, fmt.Errorf("parse csv content: %w", err)
		}
		return out, nil
	case mediaTypeXLS, mediaTypeXLSX:
		out, err := r.parseExcel(body)
		if err != nil {
			return nil, fmt.Errorf("parse spreadsheet content: %w", err)
		}
		return out, nil
	default:
		return body, nil
	}
}

// normalizeMediaType strips parameters and case from a Content-Type value.
func normalizeMediaType(mediaType string) string {
	parsed, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mediaType))
	}
	return parsed
}
