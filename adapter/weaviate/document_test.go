package weaviate

import (
	"fmt"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/RichardKnop/ragchat"
)

func TestDecodeGetDocumentResults(t *testing.T) {
	t.Parallel()

	var (
		fileID1 = uuid.Must(uuid.FromString("9ea0b16a-7f4a-4a22-8ea1-ca2d932bafa8"))
		fileID2 = uuid.Must(uuid.FromString("1ad113d9-38f9-42d1-b205-4383250a4dfd"))
	)

	tests := []struct {
		title       string
		given       *models.GraphQLResponse
		expected    []ragchat.Document
		expectedErr error
	}{
		{
			"Missing Get key",
			&models.GraphQLResponse{
				Data: map[string]models.JSONObject{},
			},
			nil,
			fmt.Errorf("get key not found in result"),
		},
		{
			"Missing Document key",
			&models.GraphQLResponse{
				Data: map[string]models.JSONObject{
					"Get": map[string]any{},
				},
			},
			nil,
			fmt.Errorf("document is not a list of results"),
		},
		{
			"Valid results",
			&models.GraphQLResponse{
				Data: map[string]models.JSONObject{
					"Get": map[string]any{
						"Document": []any{
							map[string]any{
								"content": "foo",
								"page":    float64(5),
								"file_id": fileID1.String(),
								"user_id": "alice",
							},
							map[string]any{
								"content": "bar",
								"page":    float64(43),
								"file_id": fileID2.String(),
								"user_id": "bob",
							},
						},
					},
				},
			},
			[]ragchat.Document{
				{
					Content: "foo",
					Page:    5,
					FileID:  ragchat.FileID{UUID: fileID1},
					UserID:  "alice",
				},
				{
					Content: "bar",
					Page:    43,
					FileID:  ragchat.FileID{UUID: fileID2},
					UserID:  "bob",
				},
			},
			nil,
		},
	}

	for i, tc := range tests {
		t.Run(fmt.Sprintf("#%v_%v", i, tc.title), func(t *testing.T) {
			actual, err := decodeGetDocumentResults(tc.given)
			if tc.expectedErr != nil {
				require.Error(t, err)
				assert.Equal(t, tc.expectedErr, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestCombinedWeaviateError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, combinedWeaviateError(&models.GraphQLResponse{}, nil))

	err := combinedWeaviateError(nil, fmt.Errorf("boom"))
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())

	err = combinedWeaviateError(&models.GraphQLResponse{
		Errors: []*models.GraphQLError{
			{Message: "first"},
			{Message: "second"},
		},
	}, nil)
	require.Error(t, err)
	assert.Equal(t, "weaviate error: [first second]", err.Error())
}
