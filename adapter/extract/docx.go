package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/RichardKnop/ragchat"
)

// A docx file is a zip archive whose main document part is WordprocessingML.
// Paragraph text lives in w:t runs nested inside w:p elements.
type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []struct {
		Text string `xml:"t"`
	} `xml:"r"`
}

func (p docxParagraph) text() string {
	var b strings.Builder
	for _, run := range p.Runs {
		b.WriteString(run.Text)
	}
	return b.String()
}

func extractDocx(contents io.ReadSeeker) ([]ragchat.Document, error) {
	size, err := contents.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := contents.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	archive, err := zip.NewReader(readerAt{contents}, size)
	if err != nil {
		return nil, fmt.Errorf("error opening docx archive: %w", err)
	}

	part, err := archive.Open("word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("missing document part: %w", err)
	}
	defer part.Close()

	var document docxDocument
	if err := xml.NewDecoder(part).Decode(&document); err != nil {
		return nil, fmt.Errorf("error decoding document part: %w", err)
	}

	paragraphs := make([]string, 0, len(document.Body.Paragraphs))
	for _, p := range document.Body.Paragraphs {
		paragraphs = append(paragraphs, p.text())
	}

	return []ragchat.Document{{
		Content: strings.Join(paragraphs, "\n"),
		Page:    1,
	}}, nil
}

// readerAt adapts an io.ReadSeeker to io.ReaderAt for zip reading. Uploaded
// files are read by one goroutine at a time so seeking is safe here.
type readerAt struct {
	rs io.ReadSeeker
}

func (r readerAt) ReadAt(p []byte, off int64) (int, error) {
	if _, err := r.rs.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := io.ReadFull(r.rs, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}
