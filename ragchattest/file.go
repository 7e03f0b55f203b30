package ragchattest

import (
	"time"

	"github.com/RichardKnop/ragchat"
)

type FileOption func(*ragchat.File)

func WithFileUserID(id string) FileOption {
	return func(f *ragchat.File) {
		f.UserID = id
	}
}

func WithFileEmbedder(embedder string) FileOption {
	return func(f *ragchat.File) {
		f.Embedder = embedder
	}
}

func WithFileRetriever(retriever string) FileOption {
	return func(f *ragchat.File) {
		f.Retriever = retriever
	}
}

func WithFileStatus(status ragchat.FileStatus) FileOption {
	return func(f *ragchat.File) {
		f.Status = status
	}
}

func WithFileCreated(created time.Time) FileOption {
	return func(f *ragchat.File) {
		f.Created = ragchat.Time{T: created}
	}
}

func WithFileUpdated(updated time.Time) FileOption {
	return func(f *ragchat.File) {
		f.Updated = ragchat.Time{T: updated}
	}
}

var fileStates = []ragchat.FileStatus{
	ragchat.FileStatusUploaded,
	ragchat.FileStatusProcessing,
	ragchat.FileStatusProcessedSuccessfully,
	ragchat.FileStatusProcessingFailed,
}

func (g *DataGen) File(options ...FileOption) *ragchat.File {
	g.ShuffleAnySlice(fileStates)

	aFile := ragchat.File{
		ID:          ragchat.NewFileID(),
		UserID:      g.Username(),
		FileName:    g.Name() + ".pdf",
		ContentType: "application/pdf",
		Extension:   "pdf",
		Size:        g.Int64(),
		Hash:        g.LetterN(25),
		Embedder:    g.Name(),
		Retriever:   g.Name(),
		Location:    g.Word(),
		Status:      fileStates[0],
		Created:     ragchat.Time{T: g.now},
		Updated:     ragchat.Time{T: g.now},
	}

	for _, o := range options {
		o(&aFile)
	}

	return &aFile
}
