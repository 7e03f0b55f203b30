package ragchat

import (
	"context"
	"database/sql"
	"io"

	"github.com/RichardKnop/ragchat/pkg/authz"
)

// Extractor converts uploaded file contents into documents. Extraction never
// fails: unsupported formats and extraction errors are reported as documents
// carrying a warning marker so the caller can decide what to do with them.
type Extractor interface {
	Extract(ctx context.Context, fileName string, contents io.ReadSeeker) []Document
}

// Embedder encodes document passages as vectors
type Embedder interface {
	Name() string
	EmbedDocuments(ctx context.Context, documents []Document) ([]Vector, error)
	EmbedContent(ctx context.Context, content string) (Vector, error)
}

// Retriever stores encoded documents and returns those near an embedded query.
type Retriever interface {
	Name() string
	SaveDocuments(ctx context.Context, documents []Document, vectors []Vector) error
	ListFileDocuments(ctx context.Context, id FileID, limit int) ([]Document, error)
	SearchDocuments(ctx context.Context, filter DocumentFilter, limit int) ([]Document, error)
	DeleteFileDocuments(ctx context.Context, id FileID) error
}

// GenerativeModel answers a question conditioned on conversation history and
// retrieved context documents.
type GenerativeModel interface {
	Generate(ctx context.Context, question string, history []Turn, documents []Document) (string, error)
	Ready(ctx context.Context) error
}

type Store interface {
	Transactional
	Ping(ctx context.Context) error
	FileStore
	HistoryStore
}

type Transactional interface {
	Transactional(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error
}

type FileStore interface {
	SavePrincipal(ctx context.Context, principal authz.Principal) error
	SaveFiles(ctx context.Context, files ...*File) error
	ListFiles(ctx context.Context, filter FileFilter, partial authz.Partial, params SortParams) ([]*File, error)
	FindFile(ctx context.Context, id FileID, partial authz.Partial) (*File, error)
	DeleteFiles(ctx context.Context, files ...*File) error
}

type HistoryStore interface {
	SaveChatTurn(ctx context.Context, principal authz.Principal, question, answer string, now Time) error
	ListChatMessages(ctx context.Context, principal authz.Principal) ([]ChatMessage, error)
}

type FileStorage interface {
	Write(filename string, data io.Reader) error
	Exists(filename string) (bool, error)
	Read(filename string) (io.ReadSeekCloser, error)
	Delete(filename string) error
}
