package ragchat

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/RichardKnop/ragchat/pkg/authz"
)

const (
	MB          = 1 << 20
	MaxFileSize = 20 * MB
)

var (
	ErrEmptyFileName      = fmt.Errorf("Empty filename")
	ErrFileTypeNotAllowed = fmt.Errorf("File type not allowed")
)

type FileID struct{ uuid.UUID }

func NewFileID() FileID {
	return FileID{uuid.Must(uuid.NewV4())}
}

type FileStatus string

const (
	FileStatusUploaded              FileStatus = "UPLOADED"
	FileStatusProcessing            FileStatus = "PROCESSING"
	FileStatusProcessedSuccessfully FileStatus = "PROCESSED_SUCCESSFULLY"
	FileStatusProcessingFailed      FileStatus = "PROCESSING_FAILED"
)

type File struct {
	ID            FileID
	UserID        string
	FileName      string
	ContentType   string
	Extension     string
	Size          int64
	Hash          string
	Embedder      string // adapter used to generate embeddings for this file
	Retriever     string // adapter used to store/retrieve embeddings for this file
	Location      string
	Status        FileStatus
	StatusMessage string
	Created       Time
	Updated       Time
	Documents     []Document
}

// CompleteWithStatus changes the status of a file to a completion status,
// either FileStatusProcessedSuccessfully or FileStatusProcessingFailed.
func (f *File) CompleteWithStatus(newStatus FileStatus, message string, updatedAt time.Time) error {
	if f.Status != FileStatusProcessing {
		return fmt.Errorf("cannot change status from %s to %s", f.Status, newStatus)
	}

	f.Status = newStatus
	f.StatusMessage = message
	f.Updated = Time{T: updatedAt}

	return nil
}

type FileFilter struct {
	UserID            string
	Embedder          string
	Retriever         string
	Status            FileStatus
	LastUpdatedBefore Time
}

var allowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"txt":  {},
	"md":   {},
}

// AllowedFileName checks the file-extension allow list, case insensitively.
func AllowedFileName(fileName string) bool {
	_, ok := allowedExtensions[fileExtension(fileName)]
	return ok
}

func fileExtension(fileName string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
}

var unsafeFileNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SanitizeFileName strips any path components and characters that are not
// safe to use as a file name on the local filesystem.
func SanitizeFileName(fileName string) string {
	fileName = filepath.Base(fileName)
	fileName = strings.ReplaceAll(fileName, " ", "_")
	fileName = unsafeFileNameChars.ReplaceAllString(fileName, "")
	return strings.Trim(fileName, "._")
}

// UploadFile validates and persists an uploaded file, then synchronously runs
// it through the ingestion pipeline (extract, chunk, embed, index). The
// returned file has completed processing, successfully or not.
func (rc *ragChat) UploadFile(ctx context.Context, principal authz.Principal, file io.ReadSeeker, header *multipart.FileHeader) (*File, error) {
	if header.Filename == "" {
		return nil, ErrEmptyFileName
	}
	if !AllowedFileName(header.Filename) {
		return nil, ErrFileTypeNotAllowed
	}

	contentType, err := detectContentType(file)
	if err != nil {
		return nil, fmt.Errorf("error checking content type: %w", err)
	}

	// Reset the file offset to the beginning for further reading
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error seeking file to start: %w", err)
	}

	rc.logger.Sugar().Infof("uploading file: %s, size: %d, mime header: %v", header.Filename, header.Size, header.Header)

	var (
		fileName   = SanitizeFileName(header.Filename)
		hashWriter = sha256.New()
		counter    = new(countingWriter)
	)
	if fileName == "" {
		return nil, ErrEmptyFileName
	}

	reader := io.TeeReader(io.TeeReader(file, hashWriter), counter)
	if err := rc.fileStorage.Write(fileName, reader); err != nil {
		return nil, fmt.Errorf("error writing file: %w", err)
	}

	aFile := &File{
		ID:          NewFileID(),
		UserID:      principal.UserID(),
		FileName:    fileName,
		ContentType: contentType,
		Extension:   fileExtension(fileName),
		Size:        counter.n,
		Hash:        hex.EncodeToString(hashWriter.Sum(nil)),
		Embedder:    rc.embedder.Name(),
		Retriever:   rc.retriever.Name(),
		Location:    fileName,
		Status:      FileStatusUploaded,
		Created:     Time{T: rc.now()},
		Updated:     Time{T: rc.now()},
	}

	if err := rc.store.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		if err := rc.store.SavePrincipal(ctx, principal); err != nil {
			return fmt.Errorf("error saving principal: %w", err)
		}

		if err := rc.store.SaveFiles(ctx, aFile); err != nil {
			return fmt.Errorf("error saving file: %w", err)
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("error saving file: %w", err)
	}

	if err := rc.processFile(ctx, aFile); err != nil {
		if ferr := rc.processingFileFailed(ctx, aFile, err); ferr != nil {
			rc.logger.Sugar().Errorf("error setting status to failed for file: %s error %v", aFile.ID, ferr)
		}
		return nil, err
	}

	return aFile, nil
}

func (rc *ragChat) ListFiles(ctx context.Context, principal authz.Principal, filter FileFilter) ([]*File, error) {
	filter.UserID = principal.UserID()

	var files []*File
	if err := rc.store.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		var err error
		files, err = rc.store.ListFiles(ctx, filter, rc.filePartial(), SortParams{
			By:    `f."created"`,
			Order: SortOrderAsc,
		})
		return err
	}); err != nil {
		return nil, err
	}
	return files, nil
}

// DeleteFile removes a file's record, its stored contents and its indexed
// documents from the vector store.
func (rc *ragChat) DeleteFile(ctx context.Context, principal authz.Principal, id FileID) error {
	var aFile *File
	if err := rc.store.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		var err error
		aFile, err = rc.store.FindFile(ctx, id, rc.filePartial())
		if err != nil {
			return err
		}
		if aFile.UserID != principal.UserID() {
			return ErrNotFound
		}
		return rc.store.DeleteFiles(ctx, aFile)
	}); err != nil {
		return err
	}

	if err := rc.retriever.DeleteFileDocuments(ctx, aFile.ID); err != nil {
		return fmt.Errorf("error deleting file documents: %w", err)
	}

	if err := rc.fileStorage.Delete(aFile.Location); err != nil {
		rc.logger.Sugar().Errorf("error deleting file contents: %s error %v", aFile.Location, err)
	}

	return nil
}

func (rc *ragChat) filePartial() authz.Partial {
	return authz.FilterBy(`f."embedder"`, rc.embedder.Name()).And(`f."retriever"`, rc.retriever.Name())
}

type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}

func detectContentType(reader io.Reader) (string, error) {
	// At most the first 512 bytes of data are used:
	// https://golang.org/src/net/http/sniff.go?s=646:688#L11
	buff := make([]byte, 512)

	bytesRead, err := reader.Read(buff)
	if err != nil && err != io.EOF {
		return "", err
	}

	// Slice to remove fill-up zero values which cause a wrong content type detection in the next step
	// (for example a text file which is smaller than 512 bytes)
	buff = buff[:bytesRead]

	return http.DetectContentType(buff), nil
}
