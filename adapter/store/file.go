package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/RichardKnop/ragchat"
	"github.com/RichardKnop/ragchat/pkg/authz"
)

func (a *Adapter) SaveFiles(ctx context.Context, files ...*ragchat.File) error {
	if len(files) < 1 {
		return nil
	}

	if err := a.inTxDo(ctx, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		if err := execQueryCheckRowsAffected(ctx, tx, insertFilesQuery{files: files}); err != nil {
			return fmt.Errorf("exec insert files query failed: %w", err)
		}

		if err := execQueryCheckRowsAffected(ctx, tx, insertFileStatusEventsQuery{files: files}); err != nil {
			return fmt.Errorf("exec insert file status events query failed: %w", err)
		}

		return nil
	}); err != nil {
		return err
	}

	return nil
}

type insertFilesQuery struct {
	files []*ragchat.File
}

func (q insertFilesQuery) SQL() (string, []any) {
	if len(q.files) == 0 {
		return "", nil
	}

	query := `
		with cte as (
			values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, (select "id" from "file_status" fs where fs."name" = ?), ?, ?)
	`
	args := make([]any, 0, len(q.files)*13)
	args = append(
		args,
		q.files[0].ID,
		q.files[0].UserID,
		q.files[0].FileName,
		q.files[0].ContentType,
		q.files[0].Extension,
		q.files[0].Size,
		q.files[0].Hash,
		q.files[0].Embedder,
		q.files[0].Retriever,
		q.files[0].Location,
		q.files[0].Status,
		q.files[0].Created,
		q.files[0].Updated,
	)
	for i := range q.files[1:] {
		query += `, (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, (select "id" from "file_status" fs where fs."name" = ?), ?, ?)`
		args = append(
			args,
			q.files[i+1].ID,
			q.files[i+1].UserID,
			q.files[i+1].FileName,
			q.files[i+1].ContentType,
			q.files[i+1].Extension,
			q.files[i+1].Size,
			q.files[i+1].Hash,
			q.files[i+1].Embedder,
			q.files[i+1].Retriever,
			q.files[i+1].Location,
			q.files[i+1].Status,
			q.files[i+1].Created,
			q.files[i+1].Updated,
		)
	}
	query += `
		)
		insert into "file" (
			"id",
			"author",
			"file_name",
			"content_type",
			"extension",
			"file_size",
			"file_hash",
			"embedder",
			"retriever",
			"location",
			"status",
			"created",
			"updated"
		)
		select *
		from cte
		where 1
		on conflict("id") do update set
			"author"=excluded."author",
			"file_name"=excluded."file_name",
			"content_type"=excluded."content_type",
			"extension"=excluded."extension",
			"file_size"=excluded."file_size",
			"file_hash"=excluded."file_hash",
			"embedder"=excluded."embedder",
			"retriever"=excluded."retriever",
			"location"=excluded."location",
			"status"=excluded."status",
			"updated"=excluded."updated"
	`

	return query, args
}

type insertFileStatusEventsQuery struct {
	files []*ragchat.File
}

func (q insertFileStatusEventsQuery) SQL() (string, []any) {
	if len(q.files) == 0 {
		return "", nil
	}

	query := `
		with cte as (
			values (?, (select "id" from "file_status" fs where fs."name" = ?), ?, ?)
	`
	args := make([]any, 0, len(q.files)*4)
	args = append(
		args,
		q.files[0].ID,
		q.files[0].Status,
		sql.NullString{String: q.files[0].StatusMessage, Valid: q.files[0].StatusMessage != ""},
		q.files[0].Updated,
	)
	for i := range q.files[1:] {
		query += `, (?, (select "id" from "file_status" fs where fs."name" = ?), ?, ?)`
		args = append(
			args,
			q.files[i+1].ID,
			q.files[i+1].Status,
			sql.NullString{String: q.files[i+1].StatusMessage, Valid: q.files[i+1].StatusMessage != ""},
			q.files[i+1].Updated,
		)
	}
	query += `
		)
		insert into "file_status_evt" (
			"file",
			"status",
			"message",
			"created"
		)
		select *
		from cte
		where 1
	`

	return query, args
}

func (a *Adapter) ListFiles(ctx context.Context, filter ragchat.FileFilter, partial authz.Partial, params ragchat.SortParams) ([]*ragchat.File, error) {
	var files []*ragchat.File

	if err := a.inTxDo(ctx, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		sql, args := selectFilesQuery{
			filter:  filter,
			partial: partial,
		}.SQL()

		sql += params.SQL()

		rows, err := tx.QueryContext(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("select files query failed: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			aFile, err := scanFile(rows)
			if err != nil {
				return fmt.Errorf("scan file failed: %w", err)
			}
			files = append(files, aFile)
		}

		return rows.Err()
	}); err != nil {
		return nil, err
	}

	return files, nil
}

type selectFilesQuery struct {
	filter  ragchat.FileFilter
	partial authz.Partial
}

func (q selectFilesQuery) SQL() (string, []any) {
	query := `
		select
			f."id",
			f."author",
			f."file_name",
			f."content_type",
			f."extension",
			f."file_size",
			f."file_hash",
			f."embedder",
			f."retriever",
			f."location",
			fs."name" as "status",
			fse."message" as "status_message",
			f."created",
			f."updated"
		from "file" f
		inner join "file_status" fs on f."status" = fs."id"
		inner join "file_status_evt" fse on fse."file" = f."id" and fse."status" = fs."id"
	`
	args := []any{}

	// Add where clauses from the filter and/or partial if any
	where, whereArgs := fileFilterClauses(q.filter)
	partialClauses, partialArgs := q.partial.SQL()
	if partialClauses != "" {
		if where == "" {
			where += partialClauses
		} else {
			where += " and " + partialClauses
		}

		whereArgs = append(whereArgs, partialArgs...)
	}
	if where != "" {
		query += " where " + where
		args = append(args, whereArgs...)
	}

	return query, args
}

func fileFilterClauses(filter ragchat.FileFilter) (string, []any) {
	var (
		clauses = []string{}
		args    = []any{}
	)

	if filter.UserID != "" {
		clauses = append(clauses, `f."author" = ?`)
		args = append(args, filter.UserID)
	}

	if filter.Embedder != "" {
		clauses = append(clauses, `f."embedder" = ?`)
		args = append(args, filter.Embedder)
	}

	if filter.Retriever != "" {
		clauses = append(clauses, `f."retriever" = ?`)
		args = append(args, filter.Retriever)
	}

	if filter.Status != "" {
		clauses = append(clauses, `fs."name" = ?`)
		args = append(args, filter.Status)
	}

	if !filter.LastUpdatedBefore.IsZero() {
		clauses = append(clauses, `f."updated" < ?`)
		args = append(args, filter.LastUpdatedBefore)
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return strings.Join(clauses, " AND "), args
}

func (a *Adapter) FindFile(ctx context.Context, id ragchat.FileID, partial authz.Partial) (*ragchat.File, error) {
	var file *ragchat.File
	if err := a.inTxDo(ctx, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		query, args := findFileQuery{
			id:      id,
			partial: partial,
		}.SQL()

		stmt, err := tx.Prepare(query)
		if err != nil {
			return fmt.Errorf("prepare find file statement failed: %w", err)
		}
		defer stmt.Close()

		row := stmt.QueryRowContext(ctx, args...)
		file, err = scanFile(row)
		if err != nil {
			return err
		}

		return nil
	}); err != nil {
		return nil, err
	}

	return file, nil
}

type findFileQuery struct {
	id      ragchat.FileID
	partial authz.Partial
}

func (q findFileQuery) SQL() (string, []any) {
	query := `
		select
			f."id",
			f."author",
			f."file_name",
			f."content_type",
			f."extension",
			f."file_size",
			f."file_hash",
			f."embedder",
			f."retriever",
			f."location",
			fs."name" as "status",
			fse."message" as "status_message",
			f."created",
			f."updated"
		from "file" f
		inner join "file_status" fs on f."status" = fs."id"
		inner join "file_status_evt" fse on fse."file" = f."id" and fse."status" = fs."id"
		where f."id" = ?
	`
	args := []any{q.id}

	// Add where clauses from the partial if any
	partialClauses, partialArgs := q.partial.SQL()
	if partialClauses != "" {
		query += " and " + partialClauses

		args = append(args, partialArgs...)
	}

	return query, args
}

func scanFile(row Scannable) (*ragchat.File, error) {
	var (
		aFile         = new(ragchat.File)
		statusMessage = sql.NullString{}
	)

	if err := row.Scan(
		&aFile.ID,
		&aFile.UserID,
		&aFile.FileName,
		&aFile.ContentType,
		&aFile.Extension,
		&aFile.Size,
		&aFile.Hash,
		&aFile.Embedder,
		&aFile.Retriever,
		&aFile.Location,
		&aFile.Status,
		&statusMessage,
		&aFile.Created,
		&aFile.Updated,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ragchat.ErrNotFound
		}
		return nil, fmt.Errorf("scan file failed: %w", err)
	}

	if statusMessage.Valid {
		aFile.StatusMessage = statusMessage.String
	}

	return aFile, nil
}

func (a *Adapter) DeleteFiles(ctx context.Context, files ...*ragchat.File) error {
	if len(files) < 1 {
		return nil
	}

	if err := a.inTxDo(ctx, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		if err := execQuery(ctx, tx, deleteFileStatusEventsQuery{files: files}); err != nil {
			return fmt.Errorf("exec delete file status events query failed: %w", err)
		}

		if err := execQuery(ctx, tx, deleteFilesQuery{files: files}); err != nil {
			return fmt.Errorf("exec delete files query failed: %w", err)
		}

		return nil
	}); err != nil {
		return err
	}

	return nil
}

type deleteFileStatusEventsQuery struct {
	files []*ragchat.File
}

func (q deleteFileStatusEventsQuery) SQL() (string, []any) {
	if len(q.files) == 0 {
		return "", nil
	}

	sql := `delete from "file_status_evt" where "file" in (?`
	args := make([]any, 0, len(q.files))
	args = append(args, q.files[0].ID)
	for i := range q.files[1:] {
		sql += `, ?`
		args = append(args, q.files[i+1].ID)
	}
	sql += `)`

	return sql, args
}

type deleteFilesQuery struct {
	files []*ragchat.File
}

func (q deleteFilesQuery) SQL() (string, []any) {
	if len(q.files) == 0 {
		return "", nil
	}

	sql := `delete from "file" where "id" in (?`
	args := make([]any, 0, len(q.files))
	args = append(args, q.files[0].ID)
	for i := range q.files[1:] {
		sql += `, ?`
		args = append(args, q.files[i+1].ID)
	}
	sql += `)`

	return sql, args
}
