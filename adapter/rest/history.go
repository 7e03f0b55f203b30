package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/RichardKnop/ragchat"
)

type historyMessage struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// List a user's persisted chat history
// (GET /history)
func (a *Adapter) History(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultTimeout)
	defer cancel()

	principal := principalFromRequest(r.URL.Query().Get("user_id"))

	messages, err := a.ragChat.History(ctx, principal)
	if err != nil {
		a.logger.Sugar().Errorf("error listing chat history: %v", err)
		renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error listing chat history: %w", err))
		return
	}

	renderJSON(w, http.StatusOK, mapChatMessages(messages))
}

func mapChatMessages(messages []ragchat.ChatMessage) []historyMessage {
	response := make([]historyMessage, 0, len(messages))
	for _, aMessage := range messages {
		response = append(response, historyMessage{
			Sender:  string(aMessage.Sender),
			Message: aMessage.Message,
		})
	}
	return response
}
