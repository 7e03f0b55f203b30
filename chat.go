package ragchat

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/RichardKnop/ragchat/pkg/authz"
)

// GenerationError wraps failures of the generative model backend so the
// transport layer can report them as an upstream problem rather than an
// internal one. Failed turns are not recorded in history or memory.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("error generating answer: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Chat answers a question for the given user, augmenting the prompt with
// documents retrieved from the user's processed files and with the user's
// recent conversation memory. Successful turns are persisted atomically as
// a question/answer pair.
func (rc *ragChat) Chat(ctx context.Context, principal authz.Principal, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}

	aSession := rc.sessions.Get(principal.UserID())
	aSession.Lock()
	defer aSession.Unlock()

	documents, err := rc.retrieveDocuments(ctx, principal, query)
	if err != nil {
		return "", err
	}

	history := aSession.History()

	answer, err := rc.generative.Generate(ctx, query, history, documents)
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	if err := rc.store.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		if err := rc.store.SavePrincipal(ctx, principal); err != nil {
			return fmt.Errorf("error saving principal: %w", err)
		}
		return rc.store.SaveChatTurn(ctx, principal, query, answer, Time{T: rc.now()})
	}); err != nil {
		return "", fmt.Errorf("error saving chat turn: %w", err)
	}

	aSession.Append(Turn{Question: query, Answer: answer})

	return answer, nil
}

// retrieveDocuments embeds the query and searches the vector store, scoped
// to the user's successfully processed files. Without any such files the
// model is prompted on conversation memory alone.
func (rc *ragChat) retrieveDocuments(ctx context.Context, principal authz.Principal, query string) ([]Document, error) {
	files, err := rc.ListFiles(ctx, principal, FileFilter{
		Status: FileStatusProcessedSuccessfully,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	vector, err := rc.embedder.EmbedContent(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error embedding query: %w", err)
	}

	fileIDs := make([]FileID, 0, len(files))
	for _, aFile := range files {
		fileIDs = append(fileIDs, aFile.ID)
	}

	documents, err := rc.retriever.SearchDocuments(ctx, DocumentFilter{
		Vector:  vector,
		FileIDs: fileIDs,
		UserID:  principal.UserID(),
	}, rc.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("error searching documents: %w", err)
	}

	return documents, nil
}
