package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RichardKnop/ragchat"
	"github.com/RichardKnop/ragchat/adapter/rest"
	"github.com/RichardKnop/ragchat/pkg/authz"
)

type stubRagChat struct {
	chatAnswer string
	chatErr    error
	lastQuery  string
	lastUserID string

	uploadedFile *ragchat.File
	uploadErr    error
	uploadCalls  int

	messages   []ragchat.ChatMessage
	historyErr error

	readyErr error
}

func (s *stubRagChat) UploadFile(ctx context.Context, principal authz.Principal, file io.ReadSeeker, header *multipart.FileHeader) (*ragchat.File, error) {
	s.lastUserID = principal.UserID()
	s.uploadCalls++
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	if s.uploadedFile != nil {
		return s.uploadedFile, nil
	}
	return &ragchat.File{FileName: ragchat.SanitizeFileName(header.Filename)}, nil
}

func (s *stubRagChat) Chat(ctx context.Context, principal authz.Principal, query string) (string, error) {
	s.lastQuery = query
	s.lastUserID = principal.UserID()
	if strings.TrimSpace(query) == "" {
		return "", ragchat.ErrEmptyQuery
	}
	if s.chatErr != nil {
		return "", s.chatErr
	}
	return s.chatAnswer, nil
}

func (s *stubRagChat) History(ctx context.Context, principal authz.Principal) ([]ragchat.ChatMessage, error) {
	s.lastUserID = principal.UserID()
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.messages, nil
}

func (s *stubRagChat) Ready(ctx context.Context) error {
	return s.readyErr
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(v))
}

func TestChat(t *testing.T) {
	t.Parallel()

	stub := &stubRagChat{chatAnswer: "the answer"}
	handler := rest.New(stub).Handler()

	recorder := postJSON(t, handler, "/chat", map[string]string{
		"query":   "a question",
		"user_id": "alice",
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var response map[string]string
	decodeBody(t, recorder, &response)
	assert.Equal(t, "the answer", response["response"])
	assert.Equal(t, "a question", stub.lastQuery)
	assert.Equal(t, "alice", stub.lastUserID)
}

func TestChat_DefaultsToGuestUser(t *testing.T) {
	t.Parallel()

	stub := &stubRagChat{chatAnswer: "the answer"}
	handler := rest.New(stub).Handler()

	recorder := postJSON(t, handler, "/chat", map[string]string{"query": "a question"})
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, authz.DefaultUserID, stub.lastUserID)
}

func TestChat_EmptyQuery(t *testing.T) {
	t.Parallel()

	handler := rest.New(&stubRagChat{}).Handler()

	recorder := postJSON(t, handler, "/chat", map[string]string{"query": "  "})
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var response map[string]string
	decodeBody(t, recorder, &response)
	assert.Equal(t, "Please provide a question.", response["response"])
}

func TestChat_MalformedBody(t *testing.T) {
	t.Parallel()

	handler := rest.New(&stubRagChat{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json"))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestChat_GenerationFailure(t *testing.T) {
	t.Parallel()

	stub := &stubRagChat{
		chatErr: &ragchat.GenerationError{Err: errors.New("model overloaded")},
	}
	handler := rest.New(stub).Handler()

	recorder := postJSON(t, handler, "/chat", map[string]string{"query": "a question"})
	require.Equal(t, http.StatusBadGateway, recorder.Code)

	var response map[string]string
	decodeBody(t, recorder, &response)
	assert.Contains(t, response["error"], "model overloaded")
}

func TestChat_InternalError(t *testing.T) {
	t.Parallel()

	stub := &stubRagChat{chatErr: errors.New("db down")}
	handler := rest.New(stub).Handler()

	recorder := postJSON(t, handler, "/chat", map[string]string{"query": "a question"})
	require.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func multipartUpload(t *testing.T, fileName, userID string, contents []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(contents)
		require.NoError(t, err)
	}
	if userID != "" {
		require.NoError(t, writer.WriteField("user_id", userID))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadFile(t *testing.T) {
	t.Parallel()

	stub := &stubRagChat{}
	handler := rest.New(stub).Handler()

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, multipartUpload(t, "my notes.txt", "alice", []byte("contents")))
	require.Equal(t, http.StatusOK, recorder.Code)

	var response map[string]string
	decodeBody(t, recorder, &response)
	assert.Equal(t, "my_notes.txt uploaded and indexed successfully.", response["message"])
	assert.Equal(t, "alice", stub.lastUserID)
}

func TestUploadFile_NoFile(t *testing.T) {
	t.Parallel()

	handler := rest.New(&stubRagChat{}).Handler()

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, multipartUpload(t, "", "alice", nil))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var response map[string]string
	decodeBody(t, recorder, &response)
	assert.Equal(t, "No file uploaded", response["error"])
}

func TestUploadFile_TypeNotAllowed(t *testing.T) {
	t.Parallel()

	stub := &stubRagChat{uploadErr: ragchat.ErrFileTypeNotAllowed}
	handler := rest.New(stub).Handler()

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, multipartUpload(t, "malware.exe", "alice", []byte("contents")))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var response map[string]string
	decodeBody(t, recorder, &response)
	assert.Equal(t, "File type not allowed", response["error"])
}

func TestUploadFile_BodyTooLarge(t *testing.T) {
	t.Parallel()

	stub := &stubRagChat{}
	handler := rest.New(stub).Handler()

	contents := bytes.Repeat([]byte("a"), ragchat.MaxFileSize+1)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, multipartUpload(t, "big.txt", "alice", contents))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	// The oversized body never reaches the upload pipeline
	assert.Zero(t, stub.uploadCalls)
}

func TestUploadFile_ProcessingError(t *testing.T) {
	t.Parallel()

	stub := &stubRagChat{uploadErr: ragchat.ErrNoTextExtracted}
	handler := rest.New(stub).Handler()

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, multipartUpload(t, "scanned.pdf", "alice", []byte("contents")))
	require.Equal(t, http.StatusInternalServerError, recorder.Code)

	var response map[string]string
	decodeBody(t, recorder, &response)
	assert.Equal(t, "No text extracted from file.", response["error"])
}

func TestHistory(t *testing.T) {
	t.Parallel()

	stub := &stubRagChat{
		messages: []ragchat.ChatMessage{
			{Sender: ragchat.SenderUser, Message: "a question"},
			{Sender: ragchat.SenderBot, Message: "an answer"},
		},
	}
	handler := rest.New(stub).Handler()

	req := httptest.NewRequest(http.MethodGet, "/history?user_id=alice", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response []map[string]string
	decodeBody(t, recorder, &response)
	require.Len(t, response, 2)
	assert.Equal(t, "user", response[0]["sender"])
	assert.Equal(t, "a question", response[0]["message"])
	assert.Equal(t, "bot", response[1]["sender"])
	assert.Equal(t, "an answer", response[1]["message"])
	assert.Equal(t, "alice", stub.lastUserID)
}

func TestHistory_Empty(t *testing.T) {
	t.Parallel()

	handler := rest.New(&stubRagChat{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "[]", strings.TrimSpace(recorder.Body.String()))
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		readyErr       error
		expectedStatus string
		expectedReady  bool
	}{
		{"ready", nil, "ready", true},
		{"not ready", errors.New("model unreachable"), "not ready", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := rest.New(&stubRagChat{readyErr: tt.readyErr}).Handler()

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)
			require.Equal(t, http.StatusOK, recorder.Code)

			var response struct {
				Status   string `json:"status"`
				RagReady bool   `json:"rag_ready"`
			}
			decodeBody(t, recorder, &response)
			assert.Equal(t, tt.expectedStatus, response.Status)
			assert.Equal(t, tt.expectedReady, response.RagReady)
		})
	}
}

func TestIndex(t *testing.T) {
	t.Parallel()

	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>chat</html>"), 0o644))

	handler := rest.New(&stubRagChat{}, rest.WithStaticDir(staticDir)).Handler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "<html>chat</html>", recorder.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	handler := rest.New(&stubRagChat{}).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
}
