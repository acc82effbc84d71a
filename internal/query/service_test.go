package query_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ale-uy/profilerag/internal/query"
	"github.com/ale-uy/profilerag/internal/vectorstore"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeSearcher struct {
	hits       []vectorstore.SearchResult
	err        error
	collection string
	limit      uint64
}

func (f *fakeSearcher) Search(ctx context.Context, collectionName string, vector []float32, limit uint64) ([]vectorstore.SearchResult, error) {
	f.collection = collectionName
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

type fakeLLM struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newService(t *testing.T, embedder query.Embedder, searcher query.Searcher, llm query.LLMClient) *query.Service {
	t.Helper()
	svc, err := query.NewService(query.Config{Collection: "career_profile"}, embedder, searcher, llm, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestNewServiceValidation(t *testing.T) {
	_, err := query.NewService(query.Config{}, &fakeEmbedder{}, &fakeSearcher{}, &fakeLLM{}, zap.NewNop())
	assert.Error(t, err)

	_, err = query.NewService(query.Config{Collection: "c"}, nil, &fakeSearcher{}, &fakeLLM{}, zap.NewNop())
	assert.Error(t, err)
}

func TestAskBuildsPromptFromHits(t *testing.T) {
	searcher := &fakeSearcher{hits: []vectorstore.SearchResult{
		{PageContent: "worked with PostgreSQL and Redis", Metadata: map[string]string{"source": "cv.pdf"}},
		{PageContent: "built a Kafka consumer", Metadata: map[string]string{"source": "projects.md"}},
	}}
	llm := &fakeLLM{reply: "PostgreSQL, Redis and Kafka."}
	svc := newService(t, &fakeEmbedder{vector: []float32{1, 2}}, searcher, llm)

	answer, err := svc.Ask(context.Background(), "What databases?")
	require.NoError(t, err)

	assert.Equal(t, "PostgreSQL, Redis and Kafka.", answer.Text)
	assert.Equal(t, []string{"cv.pdf", "projects.md"}, answer.Sources)

	// The prompt carries the retrieved chunks and the question, with the
	// placeholders substituted away.
	assert.Contains(t, llm.prompt, "worked with PostgreSQL and Redis")
	assert.Contains(t, llm.prompt, "built a Kafka consumer")
	assert.Contains(t, llm.prompt, "What databases?")
	assert.NotContains(t, llm.prompt, "{context}")
	assert.NotContains(t, llm.prompt, "{question}")

	assert.Equal(t, "career_profile", searcher.collection)
	assert.Equal(t, uint64(query.DefaultTopK), searcher.limit)
}

func TestAskCustomTopKAndTemplate(t *testing.T) {
	searcher := &fakeSearcher{hits: []vectorstore.SearchResult{{PageContent: "ctx"}}}
	llm := &fakeLLM{reply: "ok"}
	svc, err := query.NewService(query.Config{
		Collection:     "career_profile",
		TopK:           2,
		PromptTemplate: "Q={question} C={context}",
	}, &fakeEmbedder{vector: []float32{1}}, searcher, llm, zap.NewNop())
	require.NoError(t, err)

	_, err = svc.Ask(context.Background(), "hello?")
	require.NoError(t, err)

	assert.Equal(t, uint64(2), searcher.limit)
	assert.Equal(t, "Q=hello? C=ctx", llm.prompt)
}

func TestAskNoHitsStillAnswers(t *testing.T) {
	llm := &fakeLLM{reply: "I don't know."}
	svc := newService(t, &fakeEmbedder{vector: []float32{1}}, &fakeSearcher{}, llm)

	answer, err := svc.Ask(context.Background(), "Anything?")
	require.NoError(t, err)

	assert.Equal(t, "I don't know.", answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Contains(t, llm.prompt, "no relevant context found")
}

func TestAskDeduplicatesSources(t *testing.T) {
	searcher := &fakeSearcher{hits: []vectorstore.SearchResult{
		{PageContent: "a", Metadata: map[string]string{"source": "cv.pdf"}},
		{PageContent: "b", Metadata: map[string]string{"source": "cv.pdf"}},
		{PageContent: "c"},
		{PageContent: "d", Metadata: map[string]string{"source": "notes.md"}},
	}}
	svc := newService(t, &fakeEmbedder{vector: []float32{1}}, searcher, &fakeLLM{reply: "x"})

	answer, err := svc.Ask(context.Background(), "q?")
	require.NoError(t, err)
	assert.Equal(t, []string{"cv.pdf", "notes.md"}, answer.Sources)
}

func TestAskEmptyQuestion(t *testing.T) {
	svc := newService(t, &fakeEmbedder{vector: []float32{1}}, &fakeSearcher{}, &fakeLLM{})

	_, err := svc.Ask(context.Background(), "   ")
	assert.Error(t, err)
}

func TestAskPropagatesFailures(t *testing.T) {
	embedErr := errors.New("embed down")
	svc := newService(t, &fakeEmbedder{err: embedErr}, &fakeSearcher{}, &fakeLLM{})
	_, err := svc.Ask(context.Background(), "q?")
	assert.ErrorIs(t, err, embedErr)

	searchErr := errors.New("qdrant down")
	svc = newService(t, &fakeEmbedder{vector: []float32{1}}, &fakeSearcher{err: searchErr}, &fakeLLM{})
	_, err = svc.Ask(context.Background(), "q?")
	assert.ErrorIs(t, err, searchErr)

	llmErr := errors.New("llm down")
	svc = newService(t, &fakeEmbedder{vector: []float32{1}}, &fakeSearcher{}, &fakeLLM{err: llmErr})
	_, err = svc.Ask(context.Background(), "q?")
	assert.ErrorIs(t, err, llmErr)
}

func TestAskTrimsAnswerWhitespace(t *testing.T) {
	llm := &fakeLLM{reply: "\n  The answer.  \n"}
	svc := newService(t, &fakeEmbedder{vector: []float32{1}}, &fakeSearcher{}, llm)

	answer, err := svc.Ask(context.Background(), strings.Repeat("q", 3))
	require.NoError(t, err)
	assert.Equal(t, "The answer.", answer.Text)
}
