package weaviate

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/RichardKnop/ragchat"
)

func (a *Adapter) SaveDocuments(ctx context.Context, documents []ragchat.Document, vectors []ragchat.Vector) error {
	if len(documents) != len(vectors) {
		return fmt.Errorf("documents and vectors length mismatch")
	}

	// Convert our documents - along with their embedding vectors - into types
	// used by the Weaviate client library.
	objects := make([]*models.Object, len(documents))
	for i, doc := range documents {
		if len(vectors[i]) == 0 {
			return fmt.Errorf("empty vector")
		}
		properties := map[string]any{
			"content": doc.Content,
			"page":    doc.Page,
			"user_id": doc.UserID,
		}
		if !doc.FileID.IsNil() {
			properties["file_id"] = doc.FileID.String()
		}
		objects[i] = &models.Object{
			Class:      className,
			Properties: properties,
			Vector:     models.C11yVector(vectors[i]),
		}
	}

	// Store documents with embeddings in the Weaviate DB.
	if _, err := a.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx); err != nil {
		return err
	}

	a.logger.Sugar().Infof("stored %v objects in weaviate", len(objects))
	return nil
}

func (a *Adapter) SearchDocuments(ctx context.Context, filter ragchat.DocumentFilter, limit int) ([]ragchat.Document, error) {
	gql := a.client.GraphQL()
	nearVector := gql.NearVectorArgBuilder().WithVector([]float32(filter.Vector))

	builder := gql.Get().
		WithNearVector(nearVector).
		WithClassName(className).
		WithFields(
			graphql.Field{Name: "content"},
			graphql.Field{Name: "page"},
			graphql.Field{Name: "file_id"},
			graphql.Field{Name: "user_id"},
		).
		WithLimit(limit)

	var operands []*filters.WhereBuilder
	if filter.UserID != "" {
		operands = append(operands, filters.Where().
			WithOperator(filters.Equal).
			WithPath([]string{"user_id"}).
			WithValueString(filter.UserID))
	}
	if len(filter.FileIDs) > 0 {
		operands = append(operands, filters.Where().
			WithOperator(filters.ContainsAny).
			WithPath([]string{"file_id"}).
			WithValueString(fileIDsToStrings(filter.FileIDs)...))
	}
	if len(operands) == 1 {
		builder = builder.WithWhere(operands[0])
	} else if len(operands) > 1 {
		builder = builder.WithWhere(filters.Where().
			WithOperator(filters.And).
			WithOperands(operands))
	}

	graphqlResponse, err := builder.Do(ctx)
	if err := combinedWeaviateError(graphqlResponse, err); err != nil {
		return nil, err
	}

	return decodeGetDocumentResults(graphqlResponse)
}

func (a *Adapter) ListFileDocuments(ctx context.Context, id ragchat.FileID, limit int) ([]ragchat.Document, error) {
	builder := a.client.GraphQL().Get().
		WithClassName(className).
		WithFields(
			graphql.Field{Name: "content"},
			graphql.Field{Name: "page"},
			graphql.Field{Name: "file_id"},
			graphql.Field{Name: "user_id"},
		).
		WithWhere(filters.Where().
			WithOperator(filters.Equal).
			WithPath([]string{"file_id"}).
			WithValueString(id.String())).
		WithLimit(limit)

	graphqlResponse, err := builder.Do(ctx)
	if err := combinedWeaviateError(graphqlResponse, err); err != nil {
		return nil, err
	}

	return decodeGetDocumentResults(graphqlResponse)
}

func (a *Adapter) DeleteFileDocuments(ctx context.Context, id ragchat.FileID) error {
	response, err := a.client.Batch().ObjectsBatchDeleter().
		WithClassName(className).
		WithWhere(filters.Where().
			WithOperator(filters.Equal).
			WithPath([]string{"file_id"}).
			WithValueString(id.String())).
		Do(ctx)
	if err != nil {
		return err
	}

	if response != nil && response.Results != nil {
		a.logger.Sugar().Infof("deleted %v objects from weaviate", response.Results.Successful)
	}
	return nil
}

func fileIDsToStrings(fileIDs []ragchat.FileID) []string {
	ids := make([]string, 0, len(fileIDs))
	for _, fileID := range fileIDs {
		ids = append(ids, fileID.String())
	}
	return ids
}

// decodeGetDocumentResults decodes the result returned by Weaviate's GraphQL
// Get query; these are returned as a nested map[string]any (just like JSON
// unmarshaled into a map[string]any). We have to extract all document
// properties back out of it.
func decodeGetDocumentResults(graphqlResponse *models.GraphQLResponse) ([]ragchat.Document, error) {
	data, ok := graphqlResponse.Data["Get"]
	if !ok {
		return nil, fmt.Errorf("get key not found in result")
	}
	doc, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("get key unexpected type")
	}
	slc, ok := doc[className].([]any)
	if !ok {
		return nil, fmt.Errorf("document is not a list of results")
	}

	var out []ragchat.Document
	for _, s := range slc {
		smap, ok := s.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid element in list of documents")
		}
		content, ok := smap["content"].(string)
		if !ok {
			return nil, fmt.Errorf("expected content in document")
		}
		page, ok := smap["page"].(float64)
		if !ok {
			return nil, fmt.Errorf("expected page in document")
		}
		id, ok := smap["file_id"].(string)
		if !ok {
			return nil, fmt.Errorf("expected file_id in document")
		}
		fileID, err := uuid.FromString(id)
		if err != nil {
			return nil, fmt.Errorf("invalid file_id in document: %w", err)
		}
		userID, _ := smap["user_id"].(string)
		out = append(out, ragchat.Document{
			FileID:  ragchat.FileID{UUID: fileID},
			UserID:  userID,
			Content: content,
			Page:    int(page),
		})
	}
	return out, nil
}

// combinedWeaviateError generates an error if err is non-nil or result has
// errors, and returns an error (or nil if there's no error). It's useful for
// the results of the Weaviate GraphQL API's "Do" calls.
func combinedWeaviateError(graphqlResponse *models.GraphQLResponse, err error) error {
	if err != nil {
		return err
	}
	if len(graphqlResponse.Errors) != 0 {
		var ss []string
		for _, e := range graphqlResponse.Errors {
			ss = append(ss, e.Message)
		}
		return fmt.Errorf("weaviate error: %v", ss)
	}
	return nil
}
