package ragchat

import (
	"context"
	"errors"
	"time"

	"github.com/neurosnap/sentences"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrNoTextExtracted wording is part of the public API contract,
	// clients match on the "No text extracted" prefix.
	ErrNoTextExtracted = errors.New("No text extracted from file.")
	ErrEmptyQuery      = errors.New("empty query")
)

type clock func() time.Time

type ragChat struct {
	extractor   Extractor
	embedder    Embedder
	retriever   Retriever
	generative  GenerativeModel
	store       Store
	fileStorage FileStorage
	tokenizer   sentences.SentenceTokenizer
	sessions    *sessionRegistry
	searchLimit int
	now         clock
	logger      *zap.Logger
}

type Option func(*ragChat)

func WithLogger(logger *zap.Logger) Option {
	return func(rc *ragChat) {
		rc.logger = logger
	}
}

// WithMemoryLimit caps how many past turns of a session are kept in
// conversation memory and fed back into prompts.
func WithMemoryLimit(limit int) Option {
	return func(rc *ragChat) {
		rc.sessions = newSessionRegistry(limit)
	}
}

// WithSearchLimit sets how many documents are retrieved from the vector
// store for each chat query.
func WithSearchLimit(limit int) Option {
	return func(rc *ragChat) {
		rc.searchLimit = limit
	}
}

const (
	defaultMemoryLimit = 20
	defaultSearchLimit = 10
)

func New(extractor Extractor, embedder Embedder, retriever Retriever, gm GenerativeModel, storeAdapter Store, fileStorage FileStorage, tokenizer sentences.SentenceTokenizer, options ...Option) *ragChat {
	rc := &ragChat{
		extractor:   extractor,
		embedder:    embedder,
		retriever:   retriever,
		generative:  gm,
		store:       storeAdapter,
		fileStorage: fileStorage,
		tokenizer:   tokenizer,
		sessions:    newSessionRegistry(defaultMemoryLimit),
		searchLimit: defaultSearchLimit,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      zap.NewNop(),
	}

	for _, o := range options {
		o(rc)
	}

	return rc
}

// Ready reports whether the service can answer chat requests. It is a
// constructive probe only, it checks that the store and the generative
// model backend are reachable, not that the model produces output.
func (rc *ragChat) Ready(ctx context.Context) error {
	if err := rc.store.Ping(ctx); err != nil {
		return err
	}
	return rc.generative.Ready(ctx)
}
