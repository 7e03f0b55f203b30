package ragchat

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// maxChunkSize bounds chunk length in characters. Sentences are grouped
// into chunks up to this size, with a one sentence overlap between
// consecutive chunks to preserve context across boundaries.
const maxChunkSize = 1000

// processFile runs an uploaded file through the ingestion pipeline. It is
// called synchronously from UploadFile so the caller learns about empty or
// failed extractions right away.
func (rc *ragChat) processFile(ctx context.Context, aFile *File) error {
	if err := rc.store.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		aFile.Status = FileStatusProcessing
		aFile.Updated = Time{T: rc.now()}
		return rc.store.SaveFiles(ctx, aFile)
	}); err != nil {
		return fmt.Errorf("error marking file as processing: %w", err)
	}

	rc.logger.Sugar().Infof("processing file: %s location: %s", aFile.ID, aFile.Location)

	contents, err := rc.fileStorage.Read(aFile.Location)
	if err != nil {
		return fmt.Errorf("error reading file contents: %w", err)
	}
	defer func() {
		if err := contents.Close(); err != nil {
			rc.logger.Sugar().Errorf("error closing contents: %s", aFile.Location)
		}
	}()

	extracted := rc.extractor.Extract(ctx, aFile.FileName, contents)
	documents := make([]Document, 0, len(extracted))
	for _, aDocument := range extracted {
		if aDocument.Warning() {
			rc.logger.Sugar().Warnf("file %s: %s", aFile.ID, aDocument.Content)
			continue
		}
		aDocument.FileID = aFile.ID
		aDocument.UserID = aFile.UserID
		documents = append(documents, aDocument.Sanitize())
	}

	if strings.TrimSpace(joinDocuments(documents)) == "" {
		return ErrNoTextExtracted
	}

	aFile.Documents = rc.chunkDocuments(documents)

	rc.logger.Sugar().Infof("generating vectors for documents: %d", len(aFile.Documents))

	// Use the batch embedding API to embed all documents at once.
	vectors, err := rc.embedder.EmbedDocuments(ctx, aFile.Documents)
	if err != nil {
		return fmt.Errorf("error generating vectors: %v", err)
	}

	rc.logger.Sugar().Infof("generated vectors: %d", len(vectors))

	if err := rc.retriever.SaveDocuments(ctx, aFile.Documents, vectors); err != nil {
		return fmt.Errorf("saving embeddings: %v", err)
	}

	return rc.processingFileSucceeded(ctx, aFile)
}

// chunkDocuments splits extracted page documents into smaller passages along
// sentence boundaries, keeping each chunk's page number.
func (rc *ragChat) chunkDocuments(documents []Document) []Document {
	chunked := make([]Document, 0, len(documents))
	for _, aDocument := range documents {
		if len(aDocument.Content) <= maxChunkSize {
			chunked = append(chunked, aDocument)
			continue
		}

		var (
			chunk        strings.Builder
			lastSentence string
		)
		flush := func() {
			if chunk.Len() == 0 {
				return
			}
			next := aDocument
			next.Content = chunk.String()
			chunked = append(chunked, next.Sanitize())
			chunk.Reset()
			if lastSentence != "" {
				chunk.WriteString(lastSentence)
				chunk.WriteString(" ")
			}
		}

		for _, s := range rc.tokenizer.Tokenize(aDocument.Content) {
			sentence := strings.TrimSpace(s.Text)
			if sentence == "" {
				continue
			}
			if chunk.Len() > 0 && chunk.Len()+len(sentence) > maxChunkSize {
				flush()
			}
			chunk.WriteString(sentence)
			chunk.WriteString(" ")
			lastSentence = sentence
		}
		lastSentence = ""
		flush()
	}
	return chunked
}

func (rc *ragChat) processingFileSucceeded(ctx context.Context, aFile *File) error {
	if err := rc.store.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		if err := aFile.CompleteWithStatus(FileStatusProcessedSuccessfully, "", rc.now()); err != nil {
			return fmt.Errorf("change status: %w", err)
		}
		return rc.store.SaveFiles(ctx, aFile)
	}); err != nil {
		return err
	}
	return nil
}

func (rc *ragChat) processingFileFailed(ctx context.Context, aFile *File, perr error) error {
	if err := rc.store.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		if err := aFile.CompleteWithStatus(FileStatusProcessingFailed, perr.Error(), rc.now()); err != nil {
			return fmt.Errorf("change status: %w", err)
		}
		return rc.store.SaveFiles(ctx, aFile)
	}); err != nil {
		return err
	}
	return nil
}
