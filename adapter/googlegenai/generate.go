package googlegenai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/RichardKnop/ragchat"
)

func (a *Adapter) Generate(ctx context.Context, question string, history []ragchat.Turn, documents []ragchat.Document) (string, error) {
	config := &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: nil, // Disables thinking
		},
	}

	prompt := fmt.Sprintf(chatTemplateStr, formatHistory(history), formatContext(documents), question)

	a.logger.Sugar().Infof("generating answer for question: %s", question)

	resp, err := a.client.Models.GenerateContent(
		ctx,
		a.generativeModel,
		genai.Text(prompt),
		config,
	)
	if err != nil {
		return "", fmt.Errorf("calling generative model: %v", err)
	}
	if len(resp.Candidates) != 1 {
		return "", fmt.Errorf("got %v candidates, expected 1", len(resp.Candidates))
	}

	return strings.TrimSpace(resp.Text()), nil
}

// Ready checks the generative backend is reachable by fetching the
// configured model's metadata.
func (a *Adapter) Ready(ctx context.Context) error {
	if _, err := a.client.Models.Get(ctx, a.generativeModel, nil); err != nil {
		return fmt.Errorf("generative model not available: %w", err)
	}
	return nil
}

func formatHistory(history []ragchat.Turn) string {
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, 0, len(history)*2)
	for _, turn := range history {
		lines = append(lines, "Human: "+turn.Question)
		lines = append(lines, "AI: "+turn.Answer)
	}
	return strings.Join(lines, "\n")
}

func formatContext(documents []ragchat.Document) string {
	contexts := make([]string, 0, len(documents))
	for _, aDocument := range documents {
		contexts = append(contexts, aDocument.Content)
	}
	return strings.Join(contexts, "\n")
}
