package ragchat

import (
	"context"
	"database/sql"

	"github.com/RichardKnop/ragchat/pkg/authz"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatMessage is a single persisted message of a user's chat history.
type ChatMessage struct {
	ID      int64
	UserID  string
	Sender  Sender
	Message string
	Created Time
}

// History returns the user's full persisted chat history, oldest first.
func (rc *ragChat) History(ctx context.Context, principal authz.Principal) ([]ChatMessage, error) {
	var messages []ChatMessage
	if err := rc.store.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		var err error
		messages, err = rc.store.ListChatMessages(ctx, principal)
		return err
	}); err != nil {
		return nil, err
	}
	return messages, nil
}
