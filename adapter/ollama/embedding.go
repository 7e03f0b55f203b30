package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/RichardKnop/ragchat"
)

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// Ollama returns float64 values
type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (a *Adapter) EmbedDocuments(ctx context.Context, documents []ragchat.Document) ([]ragchat.Vector, error) {
	a.logger.Sugar().Infof("invoking embedding model with %d documents", len(documents))

	// The embeddings endpoint takes a single prompt, so embed one by one.
	vectors := make([]ragchat.Vector, 0, len(documents))
	for _, aDocument := range documents {
		vector, err := a.EmbedContent(ctx, aDocument.Content)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

func (a *Adapter) EmbedContent(ctx context.Context, content string) (ragchat.Vector, error) {
	payload, err := json.Marshal(embeddingRequest{
		Model:  a.embeddingModel,
		Prompt: content,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/embeddings", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embedding error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var embedResponse embeddingResponse
	if err := json.Unmarshal(body, &embedResponse); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	values := make(ragchat.Vector, len(embedResponse.Embedding))
	for i, v := range embedResponse.Embedding {
		values[i] = float32(v)
	}

	// Cosine similarity search expects unit length vectors
	return normalizeVector(values), nil
}

func normalizeVector(vector ragchat.Vector) ragchat.Vector {
	var magnitude float64
	for _, v := range vector {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vector
	}

	normalized := make(ragchat.Vector, len(vector))
	for i, v := range vector {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
