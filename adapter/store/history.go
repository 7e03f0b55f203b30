package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/RichardKnop/ragchat"
	"github.com/RichardKnop/ragchat/pkg/authz"
)

// SaveChatTurn persists a question and its answer as two consecutive chat
// messages. Both rows are written in the same transaction, a turn is never
// half recorded.
func (a *Adapter) SaveChatTurn(ctx context.Context, principal authz.Principal, question, answer string, now ragchat.Time) error {
	if err := a.inTxDo(ctx, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		if err := execQueryCheckRowsAffected(ctx, tx, insertChatMessagesQuery{
			userID: principal.UserID(),
			messages: []ragchat.ChatMessage{
				{Sender: ragchat.SenderUser, Message: question, Created: now},
				{Sender: ragchat.SenderBot, Message: answer, Created: now},
			},
		}); err != nil {
			return fmt.Errorf("exec insert chat messages query failed: %w", err)
		}

		return nil
	}); err != nil {
		return err
	}

	return nil
}

type insertChatMessagesQuery struct {
	userID   string
	messages []ragchat.ChatMessage
}

func (q insertChatMessagesQuery) SQL() (string, []any) {
	if len(q.messages) == 0 {
		return "", nil
	}

	query := `
		insert into "chat_message" (
			"author",
			"sender",
			"message",
			"created"
		)
		values (?, ?, ?, ?)
	`
	args := make([]any, 0, len(q.messages)*4)
	args = append(
		args,
		q.userID,
		q.messages[0].Sender,
		q.messages[0].Message,
		q.messages[0].Created,
	)
	for i := range q.messages[1:] {
		query += `, (?, ?, ?, ?)`
		args = append(
			args,
			q.userID,
			q.messages[i+1].Sender,
			q.messages[i+1].Message,
			q.messages[i+1].Created,
		)
	}

	return query, args
}

func (a *Adapter) ListChatMessages(ctx context.Context, principal authz.Principal) ([]ragchat.ChatMessage, error) {
	var messages []ragchat.ChatMessage

	if err := a.inTxDo(ctx, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		sql, args := selectChatMessagesQuery{userID: principal.UserID()}.SQL()

		rows, err := tx.QueryContext(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("select chat messages query failed: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			aMessage, err := scanChatMessage(rows)
			if err != nil {
				return fmt.Errorf("scan chat message failed: %w", err)
			}
			messages = append(messages, aMessage)
		}

		return rows.Err()
	}); err != nil {
		return nil, err
	}

	return messages, nil
}

type selectChatMessagesQuery struct {
	userID string
}

func (q selectChatMessagesQuery) SQL() (string, []any) {
	query := `
		select
			cm."id",
			cm."author",
			cm."sender",
			cm."message",
			cm."created"
		from "chat_message" cm
		where cm."author" = ?
		order by cm."id" asc
	`
	return query, []any{q.userID}
}

func scanChatMessage(row Scannable) (ragchat.ChatMessage, error) {
	var aMessage ragchat.ChatMessage

	if err := row.Scan(
		&aMessage.ID,
		&aMessage.UserID,
		&aMessage.Sender,
		&aMessage.Message,
		&aMessage.Created,
	); err != nil {
		return ragchat.ChatMessage{}, fmt.Errorf("scan chat message failed: %w", err)
	}

	return aMessage, nil
}
