package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/RichardKnop/ragchat"
)

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string  `json:"model"`
	Message message `json:"message"`
	Done    bool    `json:"done"`
}

const systemPrompt = `You are a helpful assistant. Use the chat history and the context if available.
Assume the context information is factual and correct and do not consider any
other information outside of the context and the chat history.`

func (a *Adapter) Generate(ctx context.Context, question string, history []ragchat.Turn, documents []ragchat.Document) (string, error) {
	messages := make([]message, 0, len(history)*2+3)
	messages = append(messages, message{Role: "system", Content: systemPrompt})

	for _, turn := range history {
		messages = append(messages, message{Role: "user", Content: turn.Question})
		messages = append(messages, message{Role: "assistant", Content: turn.Answer})
	}

	if len(documents) > 0 {
		contexts := make([]string, 0, len(documents))
		for _, aDocument := range documents {
			contexts = append(contexts, aDocument.Content)
		}
		messages = append(messages, message{
			Role:    "system",
			Content: "Context:\n" + strings.Join(contexts, "\n"),
		})
	}

	messages = append(messages, message{Role: "user", Content: question})

	payload, err := json.Marshal(chatRequest{
		Model:    a.generativeModel,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	a.logger.Sugar().Infof("generating answer for question: %s", question)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/chat", bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var generateResponse chatResponse
	if err := json.Unmarshal(body, &generateResponse); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	return strings.TrimSpace(generateResponse.Message.Content), nil
}

// Ready checks the Ollama server is reachable.
func (a *Adapter) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama not ready: status %d", resp.StatusCode)
	}

	return nil
}
