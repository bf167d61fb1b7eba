package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/backend/go/internal/llm"
	"docsearch/backend/go/internal/rag_service/rag/loaders"
	"docsearch/backend/go/internal/rag_service/rag/pipeline"
	"docsearch/backend/go/internal/rag_service/rag/schema"
	"docsearch/backend/go/internal/rag_service/rag/scoring"
	"docsearch/backend/go/internal/rag_service/rag/splitters"
	"docsearch/backend/go/internal/rag_service/rag/storages/docstore"
	"docsearch/backend/go/internal/rag_service/rag/storages/snapshot"
	"docsearch/backend/go/pkg/logger"
)

type fakeLLM struct {
	mu      sync.Mutex
	answer  string
	err     error
	models  []string
	listErr error
	prompts []string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

func (f *fakeLLM) Model() string { return "tinyllama:1.1b" }

func (f *fakeLLM) ListModels(context.Context) ([]string, error) {
	return f.models, f.listErr
}

func newTestService(t *testing.T, model *fakeLLM, store *snapshot.FileStore) *Service {
	t.Helper()
	log := logger.New("docsearch-test")

	ds := docstore.NewInMemoryDocStore(splitters.NewParagraphSplitter(0, 0))
	scorer, err := scoring.NewLexicalScorer(scoring.BonusAnyAll)
	require.NoError(t, err)

	var persister *Persister
	if store != nil {
		persister = NewPersister(store, ds.Snapshot, log)
	}
	var models ModelLister
	if model != nil {
		models = model
	}
	return New(
		log,
		ds,
		loaders.NewRegistry(log),
		pipeline.NewRetrievalPipeline(ds, scorer, scoring.DefaultThreshold, pipeline.DefaultTopK, log),
		pipeline.NewQAPipeline(model, log),
		models,
		persister,
		Limits{MinFiles: 3, MaxFiles: 10},
	)
}

func txtFiles(contents ...string) []schema.UploadedFile {
	names := []string{"capitals.txt", "rivers.txt", "mountains.txt", "lakes.txt"}
	files := make([]schema.UploadedFile, 0, len(contents))
	for i, c := range contents {
		files = append(files, schema.UploadedFile{Name: names[i%len(names)], Data: []byte(c)})
	}
	return files
}

var sampleContents = []string{
	"Paris is the capital of France.\n\nBerlin is the capital of Germany.",
	"The Nile is a long river in Africa.",
	"Everest is the highest mountain.",
}

var sampleFiles = txtFiles(sampleContents...)

func TestIngest(t *testing.T) {
	svc := newTestService(t, &fakeLLM{}, nil)

	got, err := svc.Ingest(context.Background(), sampleFiles)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "capitals.txt", got[0].Name)
	assert.Equal(t, 2, got[0].Chunks)
	assert.NotEmpty(t, got[0].ID)

	stats := svc.Stats()
	assert.Equal(t, 3, stats.TotalDocuments)
	assert.Equal(t, 4, stats.TotalChunks)
	assert.Equal(t, []string{"capitals.txt", "rivers.txt", "mountains.txt"}, stats.Documents)
}

func TestIngest_Validation(t *testing.T) {
	svc := newTestService(t, &fakeLLM{}, nil)

	tests := []struct {
		name  string
		files []schema.UploadedFile
		msg   string
	}{
		{"too few", sampleFiles[:2], "Between 3 and 10 files must be uploaded"},
		{"too many", txtFiles(make([]string, 11)...), "Between 3 and 10 files must be uploaded"},
		{"unsupported", append(txtFiles("a", "b"), schema.UploadedFile{Name: "notes.docx", Data: []byte("c")}), "File notes.docx must be .txt or .pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ingest(context.Background(), tt.files)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			var ie *InputError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tt.msg, ie.Message)
		})
	}
	assert.Zero(t, svc.Stats().TotalDocuments)
}

func TestLimits_Messages(t *testing.T) {
	tests := []struct {
		name   string
		limits Limits
		n      int
		msg    string
	}{
		{"within range", Limits{MinFiles: 3, MaxFiles: 10}, 3, ""},
		{"below range", Limits{MinFiles: 3, MaxFiles: 10}, 2, "Between 3 and 10 files must be uploaded"},
		{"no upper bound", Limits{MinFiles: 1}, 500, ""},
		{"empty batch", Limits{MinFiles: 1}, 0, "At least one file must be uploaded"},
		{"minimum only", Limits{MinFiles: 2}, 1, "At least 2 files must be uploaded"},
		{"maximum only", Limits{MaxFiles: 2}, 3, "At most 2 files can be uploaded"},
		{"no bounds", Limits{}, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.limits.check(tt.n)
			if tt.msg == "" {
				assert.NoError(t, err)
				return
			}
			var ie *InputError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tt.msg, ie.Message)
		})
	}
}

func TestIngest_UnlimitedBatchRejectsEmpty(t *testing.T) {
	svc := newTestService(t, &fakeLLM{}, nil)
	svc.limits = Limits{MinFiles: 1}

	_, err := svc.Ingest(context.Background(), nil)
	var ie *InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "At least one file must be uploaded", ie.Message)
}

func TestIngest_UnparseablePDF(t *testing.T) {
	svc := newTestService(t, &fakeLLM{}, nil)
	files := append(txtFiles(sampleContents[:2]...), schema.UploadedFile{Name: "scan.pdf", Data: []byte("%PDF-1.4\nnot really a pdf")})

	got, err := svc.Ingest(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "scan.pdf", got[2].Name)
	assert.GreaterOrEqual(t, got[2].Chunks, 0)

	doc := svc.docStore.Snapshot().Documents[got[2].ID]
	require.NotNil(t, doc)
	assert.True(t, strings.HasPrefix(doc.Content, loaders.PdfErrorPrefix), "got %q", doc.Content)
	assert.Equal(t, 3, svc.Stats().TotalDocuments)

	// The rest of the batch is indexed and searchable.
	results, err := svc.Search("capital", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestIngest_UppercaseExtension(t *testing.T) {
	svc := newTestService(t, &fakeLLM{}, nil)
	files := []schema.UploadedFile{
		{Name: "A.TXT", Data: []byte("alpha")},
		{Name: "b.Txt", Data: []byte("beta")},
		{Name: "c.txt", Data: []byte("gamma")},
	}
	_, err := svc.Ingest(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 3, svc.Stats().TotalChunks)
}

func TestSearch(t *testing.T) {
	svc := newTestService(t, &fakeLLM{}, nil)
	_, err := svc.Ingest(context.Background(), sampleFiles)
	require.NoError(t, err)

	results, err := svc.Search("  capital of France  ", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Paris is the capital of France.", results[0].Text)
	assert.Equal(t, "capitals.txt", results[0].DocumentName)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	for _, r := range results {
		assert.Greater(t, r.Score, scoring.DefaultThreshold)
	}

	results, err = svc.Search("zzz yyy", 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = svc.Search("capital", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_ShortQuery(t *testing.T) {
	svc := newTestService(t, &fakeLLM{}, nil)
	for _, q := range []string{"", " ", "a", "  b  "} {
		_, err := svc.Search(q, 5)
		assert.ErrorIs(t, err, ErrInvalidInput, "query %q", q)
	}
}

func TestAsk(t *testing.T) {
	model := &fakeLLM{answer: "  Paris.  "}
	svc := newTestService(t, model, nil)
	_, err := svc.Ingest(context.Background(), sampleFiles)
	require.NoError(t, err)

	ans, err := svc.Ask(context.Background(), "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris.", ans.Answer)
	require.NotEmpty(t, ans.Citations)
	assert.LessOrEqual(t, len(ans.Citations), CitationCount)
	assert.Equal(t, "capitals.txt: Paris is the capital of France.", ans.Citations[0])

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "Question: What is the capital of France?")
}

func TestAsk_NoContext(t *testing.T) {
	model := &fakeLLM{answer: "unused"}
	svc := newTestService(t, model, nil)

	ans, err := svc.Ask(context.Background(), "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, pipeline.NoContextAnswer, ans.Answer)
	assert.Empty(t, ans.Citations)
	assert.NotNil(t, ans.Citations)
	assert.Empty(t, model.prompts)
}

func TestAsk_ModelFailureIsAnswer(t *testing.T) {
	svc := newTestService(t, &fakeLLM{err: context.DeadlineExceeded}, nil)
	_, err := svc.Ingest(context.Background(), sampleFiles)
	require.NoError(t, err)

	ans, err := svc.Ask(context.Background(), "capital of France")
	require.NoError(t, err)
	assert.Equal(t, pipeline.TimeoutAnswer, ans.Answer)
	assert.NotEmpty(t, ans.Citations)
}

func TestAsk_ShortQuestion(t *testing.T) {
	svc := newTestService(t, &fakeLLM{}, nil)
	_, err := svc.Ask(context.Background(), "  hi ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCitation(t *testing.T) {
	short := schema.SearchResult{DocumentName: "a.txt", Text: "short text"}
	assert.Equal(t, "a.txt: short text", Citation(short))

	exact := schema.SearchResult{DocumentName: "a.txt", Text: strings.Repeat("x", 150)}
	assert.Equal(t, "a.txt: "+strings.Repeat("x", 150), Citation(exact))

	long := schema.SearchResult{DocumentName: "a.txt", Text: strings.Repeat("é", 151)}
	assert.Equal(t, "a.txt: "+strings.Repeat("é", 147)+"...", Citation(long))
}

func TestOllamaStatus(t *testing.T) {
	svc := newTestService(t, &fakeLLM{models: []string{"tinyllama:1.1b", "llama3"}}, nil)
	st := svc.OllamaStatus(context.Background())
	assert.True(t, st.Connected)
	assert.Equal(t, []string{"tinyllama:1.1b", "llama3"}, st.Models)
	assert.Equal(t, "tinyllama:1.1b", st.DefaultModel)

	svc = newTestService(t, &fakeLLM{}, nil)
	st = svc.OllamaStatus(context.Background())
	assert.True(t, st.Connected)
	assert.NotNil(t, st.Models)
	assert.Empty(t, st.Models)

	svc = newTestService(t, &fakeLLM{listErr: errors.New("connection refused")}, nil)
	st = svc.OllamaStatus(context.Background())
	assert.False(t, st.Connected)
	assert.Equal(t, "Could not connect to Ollama: connection refused", st.Message)

	svc = newTestService(t, &fakeLLM{listErr: &llm.StatusError{Code: 503}}, nil)
	st = svc.OllamaStatus(context.Background())
	assert.False(t, st.Connected)
	assert.Equal(t, "Ollama responded with status 503", st.Message)
}

func TestPersistence_RestartRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "documents_data.json")

	first := newTestService(t, &fakeLLM{}, snapshot.NewFileStore(path))
	require.NoError(t, first.Load(context.Background()))
	_, err := first.Ingest(context.Background(), sampleFiles)
	require.NoError(t, err)
	before, err := first.Search("capital", 5)
	require.NoError(t, err)
	require.NoError(t, first.Close(context.Background()))

	second := newTestService(t, &fakeLLM{}, snapshot.NewFileStore(path))
	require.NoError(t, second.Load(context.Background()))
	assert.Equal(t, first.Stats(), second.Stats())

	after, err := second.Search("capital", 5)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	require.NoError(t, second.Close(context.Background()))
}

func TestLoad_MissingSnapshotStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")
	svc := newTestService(t, &fakeLLM{}, snapshot.NewFileStore(path))
	require.NoError(t, svc.Load(context.Background()))
	assert.Zero(t, svc.Stats().TotalDocuments)
	require.NoError(t, svc.Close(context.Background()))
}

func TestConcurrentIngestKeepsBatchesContiguous(t *testing.T) {
	svc := newTestService(t, &fakeLLM{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Ingest(context.Background(), sampleFiles)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	names := svc.Stats().Documents
	require.Len(t, names, 24)
	for i := 0; i < len(names); i += 3 {
		assert.Equal(t, []string{"capitals.txt", "rivers.txt", "mountains.txt"}, names[i:i+3])
	}
}
