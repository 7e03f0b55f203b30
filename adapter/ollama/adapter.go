package ollama

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Adapter talks to a local Ollama server over its HTTP API. It serves both
// as an embedder and as a generative model backend.
type Adapter struct {
	httpClient      *http.Client
	baseURL         string
	embeddingModel  string
	generativeModel string
	logger          *zap.Logger
}

type Option func(*Adapter)

func WithBaseURL(url string) Option {
	return func(a *Adapter) {
		a.baseURL = url
	}
}

func WithEmbeddingModel(model string) Option {
	return func(a *Adapter) {
		a.embeddingModel = model
	}
}

func WithGenerativeModel(model string) Option {
	return func(a *Adapter) {
		a.generativeModel = model
	}
}

func WithHttpClient(client *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = client
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

const (
	defaultBaseURL         = "http://localhost:11434"
	defaultEmbeddingModel  = "nomic-embed-text"
	defaultGenerativeModel = "phi3"
)

func New(options ...Option) *Adapter {
	a := &Adapter{
		httpClient:      &http.Client{Timeout: 120 * time.Second},
		baseURL:         defaultBaseURL,
		embeddingModel:  defaultEmbeddingModel,
		generativeModel: defaultGenerativeModel,
		logger:          zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	a.logger.Sugar().With(
		"base URL", a.baseURL,
		"embedding model", a.embeddingModel,
		"generative model", a.generativeModel,
	).Info("init ollama adapter")

	return a
}

const adapterName = "ollama"

func (a *Adapter) Name() string {
	return adapterName
}
