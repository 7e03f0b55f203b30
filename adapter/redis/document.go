package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/redis/go-redis/v9"

	"github.com/RichardKnop/ragchat"
)

func (a *Adapter) SaveDocuments(ctx context.Context, documents []ragchat.Document, vectors []ragchat.Vector) error {
	if len(documents) != len(vectors) {
		return fmt.Errorf("documents and vectors must have the same length")
	}

	for i, vector := range vectors {
		key := fmt.Sprintf("%s%v", a.indexPrefix, uuid.Must(uuid.NewV4()))
		fields, err := a.client.HSet(ctx,
			key,
			map[string]any{
				"content":   documents[i].Content,
				"file_id":   documents[i].FileID.String(),
				"user_id":   documents[i].UserID,
				"page":      documents[i].Page,
				"embedding": floatsToBytes(vector),
			},
		).Result()
		if err != nil {
			return err
		}

		if fields == 0 {
			return fmt.Errorf("no fields were added to redis")
		}
	}

	return nil
}

func (a *Adapter) ListFileDocuments(ctx context.Context, id ragchat.FileID, limit int) ([]ragchat.Document, error) {
	query := fmt.Sprintf("@file_id:{%s}", escapeUUID(id.UUID))

	results, err := a.client.FTSearchWithArgs(ctx,
		a.indexName,
		query,
		&redis.FTSearchOptions{
			Return: []redis.FTSearchReturn{
				{FieldName: "content"},
				{FieldName: "file_id"},
				{FieldName: "user_id"},
				{FieldName: "page"},
			},
			DialectVersion: a.dialectVersion,
			Limit:          limit,
		},
	).Result()
	if err != nil {
		return nil, err
	}

	return mapRedisDocuments(results.Docs)
}

func (a *Adapter) SearchDocuments(ctx context.Context, filter ragchat.DocumentFilter, limit int) ([]ragchat.Document, error) {
	if filter.Vector == nil {
		return nil, fmt.Errorf("vector is required for searching documents")
	}

	var clauses []string
	if len(filter.FileIDs) > 0 {
		ids := make([]string, 0, len(filter.FileIDs))
		for _, fileID := range filter.FileIDs {
			ids = append(ids, escapeUUID(fileID.UUID))
		}
		clauses = append(clauses, fmt.Sprintf("(@file_id:{%s})", strings.Join(ids, "|")))
	}
	if filter.UserID != "" {
		clauses = append(clauses, fmt.Sprintf("(@user_id:{%s})", escapeTag(filter.UserID)))
	}

	query := "*"
	if len(clauses) > 0 {
		query = strings.Join(clauses, " ")
	}
	query += fmt.Sprintf("=>[KNN %d @embedding $vec AS vector_distance]", limit)

	// The results are ordered according to the value of the vector_distance field,
	// with the lowest distance indicating the greatest similarity to the query.
	results, err := a.client.FTSearchWithArgs(ctx,
		a.indexName,
		query,
		&redis.FTSearchOptions{
			Return: []redis.FTSearchReturn{
				{FieldName: "vector_distance"},
				{FieldName: "content"},
				{FieldName: "file_id"},
				{FieldName: "user_id"},
				{FieldName: "page"},
			},
			DialectVersion: a.dialectVersion,
			Params: map[string]any{
				"vec": floatsToBytes(filter.Vector),
			},
			SortBy: []redis.FTSearchSortBy{{FieldName: "vector_distance", Asc: true}},
			Limit:  limit,
		},
	).Result()
	if err != nil {
		return nil, err
	}

	return mapRedisDocuments(results.Docs)
}

func (a *Adapter) DeleteFileDocuments(ctx context.Context, id ragchat.FileID) error {
	query := fmt.Sprintf("@file_id:{%s}", escapeUUID(id.UUID))

	results, err := a.client.FTSearchWithArgs(ctx,
		a.indexName,
		query,
		&redis.FTSearchOptions{
			NoContent:      true,
			DialectVersion: a.dialectVersion,
			Limit:          10000,
		},
	).Result()
	if err != nil {
		return err
	}

	if len(results.Docs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(results.Docs))
	for _, doc := range results.Docs {
		keys = append(keys, doc.ID)
	}

	return a.client.Del(ctx, keys...).Err()
}

func escapeUUID(u uuid.UUID) string {
	return strings.ReplaceAll(u.String(), "-", "\\-")
}

// escapeTag escapes characters with special meaning inside a redis search
// tag filter.
func escapeTag(tag string) string {
	replacer := strings.NewReplacer(
		"-", "\\-",
		".", "\\.",
		"@", "\\@",
		" ", "\\ ",
	)
	return replacer.Replace(tag)
}

func mapRedisDocuments(rds []redis.Document) ([]ragchat.Document, error) {
	documents := make([]ragchat.Document, 0, len(rds))

	for _, rd := range rds {
		aDocument, err := mapRedisDocument(rd)
		if err != nil {
			return nil, err
		}
		documents = append(documents, aDocument)
	}

	return documents, nil
}

func mapRedisDocument(rd redis.Document) (ragchat.Document, error) {
	_, ok := rd.Fields["content"]
	if !ok {
		return ragchat.Document{}, fmt.Errorf("missing content field in document")
	}

	page, err := strconv.Atoi(rd.Fields["page"])
	if err != nil {
		return ragchat.Document{}, fmt.Errorf("invalid page number: %v", err)
	}

	fileID, err := uuid.FromString(rd.Fields["file_id"])
	if err != nil {
		return ragchat.Document{}, fmt.Errorf("invalid file_id: %v", err)
	}

	return ragchat.Document{
		FileID:  ragchat.FileID{UUID: fileID},
		UserID:  rd.Fields["user_id"],
		Content: rd.Fields["content"],
		Page:    page,
	}, nil
}

// helper function to convert []float32 to []byte
func floatsToBytes(fs []float32) []byte {
	buf := make([]byte, len(fs)*4)

	for i, f := range fs {
		u := math.Float32bits(f)
		binary.NativeEndian.PutUint32(buf[i*4:], u)
	}

	return buf
}
