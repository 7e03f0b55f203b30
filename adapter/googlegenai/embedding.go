package googlegenai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/RichardKnop/ragchat"
)

func (a *Adapter) EmbedDocuments(ctx context.Context, documents []ragchat.Document) ([]ragchat.Vector, error) {
	// Use the batch embedding API to embed all documents at once.
	contents := make([]*genai.Content, 0, len(documents))
	for _, aDocument := range documents {
		contents = append(contents, genai.NewContentFromText(aDocument.Content, genai.RoleUser))
	}
	embedResponse, err := a.client.Models.EmbedContent(ctx,
		a.embeddingModel,
		contents,
		nil,
	)
	a.logger.Sugar().Infof("invoking embedding model with %d documents", len(documents))
	if err != nil {
		return nil, fmt.Errorf("embed content error: %w", err)
	}

	return embeddingVectors(embedResponse.Embeddings, len(documents))
}

func (a *Adapter) EmbedContent(ctx context.Context, content string) (ragchat.Vector, error) {
	embedResponse, err := a.client.Models.EmbedContent(ctx,
		a.embeddingModel,
		[]*genai.Content{genai.NewContentFromText(content, genai.RoleUser)},
		nil,
	)
	if err != nil {
		return ragchat.Vector{}, err
	}

	vectors, err := embeddingVectors(embedResponse.Embeddings, 1)
	if err != nil {
		return ragchat.Vector{}, err
	}
	return vectors[0], nil
}

// embeddingVectors extracts the vectors of an embedding response, checking
// the backend returned one embedding per input.
func embeddingVectors(embeddings []*genai.ContentEmbedding, expected int) ([]ragchat.Vector, error) {
	if len(embeddings) != expected {
		return nil, fmt.Errorf("got %v embeddings, expected %v", len(embeddings), expected)
	}

	vectors := make([]ragchat.Vector, 0, len(embeddings))
	for _, embedding := range embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, fmt.Errorf("empty embedding in response")
		}
		vectors = append(vectors, embedding.Values)
	}
	return vectors, nil
}
