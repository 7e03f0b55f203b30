package extract

import (
	"io"
	"strings"

	"github.com/RichardKnop/ragchat"
)

func extractPlainText(contents io.ReadSeeker) ([]ragchat.Document, error) {
	data, err := io.ReadAll(contents)
	if err != nil {
		return nil, err
	}

	text := strings.ToValidUTF8(string(data), "")

	return []ragchat.Document{{
		Content: text,
		Page:    1,
	}}, nil
}
