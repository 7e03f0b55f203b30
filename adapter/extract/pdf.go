package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/postscript/cid"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"
	"seehuhn.de/go/pdf/reader"

	"github.com/RichardKnop/ragchat"
)

// defaultSpaceWidth approximates the width of a space glyph in text space
// units. Horizontal gaps wider than a fraction of it are emitted as spaces.
const defaultSpaceWidth = 280

func extractPDF(contents io.ReadSeeker) ([]ragchat.Document, error) {
	r, err := pdf.NewReader(contents, nil)
	if err != nil {
		return nil, err
	}

	numPages, err := pagetree.NumPages(r)
	if err != nil {
		return nil, err
	}

	var w *bytes.Buffer

	parser := reader.New(r, nil)
	parser.TextEvent = func(op reader.TextEvent, arg float64) {
		switch op {
		case reader.TextEventSpace:
			if arg > 0.3*defaultSpaceWidth {
				fmt.Fprint(w, " ")
			}
		case reader.TextEventNL:
			fmt.Fprintln(w)
		case reader.TextEventMove:
			fmt.Fprintln(w)
		}
	}
	parser.Character = func(cid cid.CID, text string) error {
		fmt.Fprint(w, text)
		return nil
	}

	documents := make([]ragchat.Document, 0, numPages)
	for pageNo := 1; pageNo <= numPages; pageNo++ {
		_, pageDict, err := pagetree.GetPage(r, pageNo-1)
		if err != nil {
			return nil, err
		}

		w = bytes.NewBuffer(nil)

		if err := parser.ParsePage(pageDict, matrix.Identity); err != nil {
			return nil, fmt.Errorf("error parsing page %d: %w", pageNo, err)
		}

		documents = append(documents, ragchat.Document{
			Content: strings.ToValidUTF8(w.String(), ""),
			Page:    pageNo,
		})
	}

	return documents, nil
}
