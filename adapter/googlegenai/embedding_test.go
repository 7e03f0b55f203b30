package googlegenai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/RichardKnop/ragchat"
)

func TestEmbeddingVectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		embeddings []*genai.ContentEmbedding
		expected   int
		want       []ragchat.Vector
		wantErr    string
	}{
		{
			name: "one embedding per input",
			embeddings: []*genai.ContentEmbedding{
				{Values: []float32{0.1, 0.2}},
				{Values: []float32{0.3, 0.4}},
			},
			expected: 2,
			want: []ragchat.Vector{
				{0.1, 0.2},
				{0.3, 0.4},
			},
		},
		{
			name:       "empty response",
			embeddings: nil,
			expected:   1,
			wantErr:    "got 0 embeddings, expected 1",
		},
		{
			name: "batch size mismatch",
			embeddings: []*genai.ContentEmbedding{
				{Values: []float32{0.1}},
			},
			expected: 2,
			wantErr:  "got 1 embeddings, expected 2",
		},
		{
			name:       "nil embedding",
			embeddings: []*genai.ContentEmbedding{nil},
			expected:   1,
			wantErr:    "empty embedding in response",
		},
		{
			name:       "embedding without values",
			embeddings: []*genai.ContentEmbedding{{}},
			expected:   1,
			wantErr:    "empty embedding in response",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			vectors, err := embeddingVectors(tt.embeddings, tt.expected)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, vectors)
		})
	}
}
