package rest

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/RichardKnop/ragchat"
	"github.com/RichardKnop/ragchat/pkg/authz"
)

type RagChat interface {
	UploadFile(ctx context.Context, principal authz.Principal, file io.ReadSeeker, header *multipart.FileHeader) (*ragchat.File, error)
	Chat(ctx context.Context, principal authz.Principal, query string) (string, error)
	History(ctx context.Context, principal authz.Principal) ([]ragchat.ChatMessage, error)
	Ready(ctx context.Context) error
}

type Adapter struct {
	ragChat   RagChat
	staticDir string
	logger    *zap.Logger
}

type Option func(*Adapter)

func WithStaticDir(dir string) Option {
	return func(a *Adapter) {
		a.staticDir = dir
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

func New(ragChat RagChat, options ...Option) *Adapter {
	a := &Adapter{
		ragChat:   ragChat,
		staticDir: ".",
		logger:    zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	return a
}

const (
	defaultTimeout = 3 * time.Second
	chatTimeout    = 60 * time.Second
	// TODO - implement a file lifecycle so UploadFile can return relatively quickly
	// and the file is processed in the background. This will allow us to return a 202 Accepted
	// response with a Location header pointing to the file resource, which can be polled for status.
	uploadTimeout = 300 * time.Second
)

// Handler returns the HTTP handler with all routes registered.
func (a *Adapter) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", a.Index)
	mux.HandleFunc("GET /health", a.Health)
	mux.HandleFunc("POST /chat", a.Chat)
	mux.HandleFunc("POST /upload", a.UploadFile)
	mux.HandleFunc("GET /history", a.History)

	return corsMiddleware(mux)
}

// principalFromRequest resolves the user identity of a request. There is no
// authentication, requests carry a plain user_id and anonymous requests are
// attributed to the guest user.
func principalFromRequest(userID string) authz.Principal {
	return authz.New(userID)
}
