package ragchat

import (
	"strings"
)

type Vector []float32

type Document struct {
	FileID  FileID `json:"file_id"`
	UserID  string `json:"user_id"`
	Content string `json:"content"`
	Page    int    `json:"page"`
}

type DocumentFilter struct {
	Vector  Vector
	FileIDs []FileID
	UserID  string
}

// WarningMarker prefixes extractor output that reports a problem instead of
// extracted text. Such documents carry no usable content and are never
// embedded or indexed.
const WarningMarker = "⚠️"

func (d Document) Warning() bool {
	return strings.HasPrefix(d.Content, WarningMarker)
}

func (d Document) Sanitize() Document {
	d.Content = strings.TrimSpace(d.Content)
	d.Content = strings.Join(strings.Fields(d.Content), " ")
	return d
}

func joinDocuments(documents []Document) string {
	contents := make([]string, 0, len(documents))
	for _, aDocument := range documents {
		if aDocument.Content == "" {
			continue
		}
		contents = append(contents, aDocument.Content)
	}
	return strings.Join(contents, "\n")
}
