package ragchattest

import (
	"github.com/RichardKnop/ragchat"
)

type DocumentOption func(*ragchat.Document)

func WithDocumentFileID(id ragchat.FileID) DocumentOption {
	return func(d *ragchat.Document) {
		d.FileID = id
	}
}

func WithDocumentUserID(id string) DocumentOption {
	return func(d *ragchat.Document) {
		d.UserID = id
	}
}

func WithDocumentContent(content string) DocumentOption {
	return func(d *ragchat.Document) {
		d.Content = content
	}
}

func (g *DataGen) Document(options ...DocumentOption) ragchat.Document {
	aDocument := ragchat.Document{
		FileID:  ragchat.NewFileID(),
		UserID:  g.Username(),
		Content: g.Sentence(10),
		Page:    g.Number(1, 100),
	}

	for _, o := range options {
		o(&aDocument)
	}

	return aDocument
}

func (g *DataGen) Vector(dim int) ragchat.Vector {
	vector := make(ragchat.Vector, 0, dim)
	for i := 0; i < dim; i++ {
		vector = append(vector, g.Float32Range(-1, 1))
	}
	return vector
}
