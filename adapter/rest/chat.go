package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/RichardKnop/ragchat"
)

type chatRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Answer a question using the knowledge base and conversation memory
// (POST /chat)
func (a *Adapter) Chat(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), chatTimeout)
	defer cancel()

	var request chatRequest
	if err := readRequestJSON(r, &request); err != nil {
		renderJSONError(w, http.StatusBadRequest, fmt.Errorf("error reading request: %w", err))
		return
	}

	principal := principalFromRequest(request.UserID)

	answer, err := a.ragChat.Chat(ctx, principal, request.Query)
	if err != nil {
		if errors.Is(err, ragchat.ErrEmptyQuery) {
			renderJSON(w, http.StatusBadRequest, chatResponse{Response: "Please provide a question."})
			return
		}
		var generationErr *ragchat.GenerationError
		if errors.As(err, &generationErr) {
			a.logger.Sugar().Errorf("generation failed: %v", err)
			renderJSONError(w, http.StatusBadGateway, fmt.Errorf("error generating response: %w", generationErr.Unwrap()))
			return
		}
		a.logger.Sugar().Errorf("chat failed: %v", err)
		renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("server error: %w", err))
		return
	}

	renderJSON(w, http.StatusOK, chatResponse{Response: answer})
}
