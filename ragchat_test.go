package ragchat

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/neurosnap/sentences/english"
	"github.com/stretchr/testify/require"

	"github.com/RichardKnop/ragchat/pkg/authz"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeExtractor struct {
	documents []Document
}

func (f *fakeExtractor) Extract(ctx context.Context, fileName string, contents io.ReadSeeker) []Document {
	return f.documents
}

type fakeEmbedder struct {
	embedContentCalls int
	err               error
}

func (f *fakeEmbedder) Name() string {
	return "fake-embedder"
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, documents []Document) ([]Vector, error) {
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([]Vector, len(documents))
	for i := range vectors {
		vectors[i] = Vector{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedContent(ctx context.Context, content string) (Vector, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.embedContentCalls++
	return Vector{0.1, 0.2, 0.3}, nil
}

type fakeRetriever struct {
	mu         sync.Mutex
	documents  []Document
	lastFilter DocumentFilter
}

func (f *fakeRetriever) Name() string {
	return "fake-retriever"
}

func (f *fakeRetriever) SaveDocuments(ctx context.Context, documents []Document, vectors []Vector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents = append(f.documents, documents...)
	return nil
}

func (f *fakeRetriever) ListFileDocuments(ctx context.Context, id FileID, limit int) ([]Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var documents []Document
	for _, aDocument := range f.documents {
		if aDocument.FileID == id && len(documents) < limit {
			documents = append(documents, aDocument)
		}
	}
	return documents, nil
}

func (f *fakeRetriever) SearchDocuments(ctx context.Context, filter DocumentFilter, limit int) ([]Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter

	allowed := map[FileID]struct{}{}
	for _, id := range filter.FileIDs {
		allowed[id] = struct{}{}
	}

	var documents []Document
	for _, aDocument := range f.documents {
		if len(documents) >= limit {
			break
		}
		if filter.UserID != "" && aDocument.UserID != filter.UserID {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[aDocument.FileID]; !ok {
				continue
			}
		}
		documents = append(documents, aDocument)
	}
	return documents, nil
}

func (f *fakeRetriever) DeleteFileDocuments(ctx context.Context, id FileID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.documents[:0]
	for _, aDocument := range f.documents {
		if aDocument.FileID != id {
			kept = append(kept, aDocument)
		}
	}
	f.documents = kept
	return nil
}

type fakeGenerative struct {
	answer        string
	err           error
	lastQuestion  string
	lastHistory   []Turn
	lastDocuments []Document
}

func (f *fakeGenerative) Generate(ctx context.Context, question string, history []Turn, documents []Document) (string, error) {
	f.lastQuestion = question
	f.lastHistory = history
	f.lastDocuments = documents
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeGenerative) Ready(ctx context.Context) error {
	return nil
}

type fakeStore struct {
	mu          sync.Mutex
	principals  map[string]int
	files       map[FileID]File
	fileOrder   []FileID
	messages    []ChatMessage
	nextID      int64
	saveTurnErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		principals: map[string]int{},
		files:      map[FileID]File{},
	}
}

func (f *fakeStore) Transactional(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeStore) Ping(ctx context.Context) error {
	return nil
}

func (f *fakeStore) SavePrincipal(ctx context.Context, principal authz.Principal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.principals[principal.UserID()]++
	return nil
}

func (f *fakeStore) SaveFiles(ctx context.Context, files ...*File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, aFile := range files {
		if _, ok := f.files[aFile.ID]; !ok {
			f.fileOrder = append(f.fileOrder, aFile.ID)
		}
		f.files[aFile.ID] = *aFile
	}
	return nil
}

func (f *fakeStore) ListFiles(ctx context.Context, filter FileFilter, partial authz.Partial, params SortParams) ([]*File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var files []*File
	for _, id := range f.fileOrder {
		aFile := f.files[id]
		if filter.UserID != "" && aFile.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && aFile.Status != filter.Status {
			continue
		}
		copied := aFile
		files = append(files, &copied)
	}
	return files, nil
}

func (f *fakeStore) FindFile(ctx context.Context, id FileID, partial authz.Partial) (*File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	aFile, ok := f.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := aFile
	return &copied, nil
}

func (f *fakeStore) DeleteFiles(ctx context.Context, files ...*File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, aFile := range files {
		delete(f.files, aFile.ID)
		for i, id := range f.fileOrder {
			if id == aFile.ID {
				f.fileOrder = append(f.fileOrder[:i], f.fileOrder[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (f *fakeStore) SaveChatTurn(ctx context.Context, principal authz.Principal, question, answer string, now Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveTurnErr != nil {
		return f.saveTurnErr
	}
	f.nextID++
	f.messages = append(f.messages, ChatMessage{
		ID:      f.nextID,
		UserID:  principal.UserID(),
		Sender:  SenderUser,
		Message: question,
		Created: now,
	})
	f.nextID++
	f.messages = append(f.messages, ChatMessage{
		ID:      f.nextID,
		UserID:  principal.UserID(),
		Sender:  SenderBot,
		Message: answer,
		Created: now,
	})
	return nil
}

func (f *fakeStore) ListChatMessages(ctx context.Context, principal authz.Principal) ([]ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var messages []ChatMessage
	for _, m := range f.messages {
		if m.UserID == principal.UserID() {
			messages = append(messages, m)
		}
	}
	return messages, nil
}

type fakeFileStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newFakeFileStorage() *fakeFileStorage {
	return &fakeFileStorage{files: map[string][]byte{}}
}

func (f *fakeFileStorage) Write(filename string, data io.Reader) error {
	contents, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[filename] = contents
	return nil
}

func (f *fakeFileStorage) Exists(filename string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[filename]
	return ok, nil
}

func (f *fakeFileStorage) Read(filename string) (io.ReadSeekCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	contents, ok := f.files[filename]
	if !ok {
		return nil, ErrNotFound
	}
	return readSeekNopCloser{bytes.NewReader(contents)}, nil
}

func (f *fakeFileStorage) Delete(filename string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, filename)
	return nil
}

type readSeekNopCloser struct {
	*bytes.Reader
}

func (readSeekNopCloser) Close() error {
	return nil
}

type testFixture struct {
	ragChat     *ragChat
	extractor   *fakeExtractor
	embedder    *fakeEmbedder
	retriever   *fakeRetriever
	generative  *fakeGenerative
	store       *fakeStore
	fileStorage *fakeFileStorage
}

func newTestFixture(t *testing.T, options ...Option) *testFixture {
	t.Helper()

	tokenizer, err := english.NewSentenceTokenizer(nil)
	require.NoError(t, err)

	fixture := &testFixture{
		extractor:   &fakeExtractor{},
		embedder:    &fakeEmbedder{},
		retriever:   &fakeRetriever{},
		generative:  &fakeGenerative{answer: "an answer"},
		store:       newFakeStore(),
		fileStorage: newFakeFileStorage(),
	}
	fixture.ragChat = New(
		fixture.extractor,
		fixture.embedder,
		fixture.retriever,
		fixture.generative,
		fixture.store,
		fixture.fileStorage,
		tokenizer,
		options...,
	)
	fixture.ragChat.now = func() time.Time { return testNow }

	return fixture
}
