package extract

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/RichardKnop/ragchat"
)

const (
	warningUnsupportedFormat = ragchat.WarningMarker + " Unsupported file format."
	warningExtractionPrefix  = ragchat.WarningMarker + " Error extracting text: "
)

type Adapter struct {
	logger *zap.Logger
}

type Option func(*Adapter)

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

func New(options ...Option) *Adapter {
	a := &Adapter{
		logger: zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	return a
}

// Extract converts file contents into per-page documents based on the file
// extension. It never fails, unsupported formats and extraction errors are
// reported as a single document carrying a warning marker.
func (a *Adapter) Extract(ctx context.Context, fileName string, contents io.ReadSeeker) []ragchat.Document {
	var (
		documents []ragchat.Document
		err       error
	)

	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), ".")) {
	case "pdf":
		documents, err = extractPDF(contents)
	case "docx":
		documents, err = extractDocx(contents)
	case "txt", "md":
		documents, err = extractPlainText(contents)
	default:
		return []ragchat.Document{{Content: warningUnsupportedFormat}}
	}

	if err != nil {
		a.logger.Sugar().Errorf("error extracting text from %s: %v", fileName, err)
		return []ragchat.Document{{Content: warningExtractionPrefix + err.Error()}}
	}

	return documents
}
