package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/kiku/internal/chat"
	"github.com/hyperjump/kiku/internal/chunker"
	"github.com/hyperjump/kiku/internal/embedding"
	"github.com/hyperjump/kiku/internal/extract"
	"github.com/hyperjump/kiku/internal/history"
	"github.com/hyperjump/kiku/internal/index"
	"github.com/hyperjump/kiku/internal/models"
	"github.com/hyperjump/kiku/internal/vector"
)

const validKey = "AIza" + "00000000000000000000000000000000000" // 39 chars

type fakeSynthesizer struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	answer  string
	err     error
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type countingEmbedder struct {
	embedding.Embedder
	mu     sync.Mutex
	embeds int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.embeds++
	e.mu.Unlock()
	return e.Embedder.Embed(ctx, text)
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.embeds += len(texts)
	e.mu.Unlock()
	return e.Embedder.EmbedBatch(ctx, texts)
}

type env struct {
	pipeline    *Pipeline
	synthesizer *fakeSynthesizer
	embedder    *countingEmbedder
	store       history.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ch, err := chunker.New(40, 10)
	if err != nil {
		t.Fatal(err)
	}
	emb := &countingEmbedder{Embedder: embedding.NewMockEmbedder(16)}
	cache := index.NewCache(extract.NewExtractor(), ch, emb, filepath.Join(t.TempDir(), "chunks.idx"))
	synth := &fakeSynthesizer{answer: "the grounded answer"}
	store, err := history.NewDiskStore(filepath.Join(t.TempDir(), "history"))
	if err != nil {
		t.Fatal(err)
	}
	p := New(chat.NewInterceptor(), cache, vector.NewRetriever(emb, 3), synth, store, nil)
	return &env{pipeline: p, synthesizer: synth, embedder: emb, store: store}
}

func textDoc(name, content string) models.Document {
	return models.Document{Name: name, Size: int64(len(content)), Content: []byte(content)}
}

func TestAsk_CannedGreeting(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	resp, err := e.pipeline.Ask(ctx, Request{UserID: "alice", Question: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Canned {
		t.Error("greeting must be intercepted")
	}
	if resp.Turn.Responder != models.ResponderAssistant {
		t.Errorf("canned turns carry the Assistant label, got %q", resp.Turn.Responder)
	}
	if e.synthesizer.calls != 0 {
		t.Error("interception must not call the synthesizer")
	}
	if e.embedder.embeds != 0 {
		t.Error("interception must not embed anything")
	}

	// One turn in the durable log and one in the session.
	log, err := e.store.List(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, bucket := range log {
		total += len(bucket)
	}
	if total != 1 {
		t.Errorf("expected 1 durable turn, got %d", total)
	}
	if e.pipeline.Session().Len() != 1 {
		t.Errorf("expected 1 session turn, got %d", e.pipeline.Session().Len())
	}
}

func TestAsk_CannedWorksWithoutCredentialsOrDocuments(t *testing.T) {
	e := newEnv(t)
	resp, err := e.pipeline.Ask(context.Background(), Request{
		UserID:   "alice",
		Question: "thanks a lot",
		// No APIKey, no Documents.
	})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Canned {
		t.Error("gratitude must be intercepted before credential checks")
	}
}

func TestAsk_RejectsMalformedKeyBeforeProvider(t *testing.T) {
	e := newEnv(t)
	_, err := e.pipeline.Ask(context.Background(), Request{
		UserID:    "alice",
		Question:  "what is the revenue",
		APIKey:    "short",
		Documents: models.DocumentSet{textDoc("a.txt", "revenue data")},
	})
	if !models.IsKind(err, models.KindInvalidCredentials) {
		t.Fatalf("expected invalid_credentials, got %v", err)
	}
	if e.synthesizer.calls != 0 {
		t.Error("malformed key must be rejected before any provider call")
	}
	if e.embedder.embeds != 0 {
		t.Error("malformed key must short-circuit before embedding")
	}
}

func TestAsk_EmptyDocumentSet(t *testing.T) {
	e := newEnv(t)
	_, err := e.pipeline.Ask(context.Background(), Request{
		UserID:   "alice",
		Question: "what is the revenue",
		APIKey:   validKey,
	})
	if !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
	if e.synthesizer.calls != 0 || e.embedder.embeds != 0 {
		t.Error("empty document set must not reach retriever or synthesizer")
	}
}

func TestAsk_FullFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	docs := models.DocumentSet{
		textDoc("a.txt", "Project X generated forty-two units of value last year according to the annual report."),
		textDoc("b.txt", "The team behind project X met every Tuesday to review progress and blockers."),
	}
	resp, err := e.pipeline.Ask(ctx, Request{
		UserID:    "alice",
		Question:  "what is project X",
		APIKey:    validKey,
		Documents: docs,
		Persona:   chat.PersonaResearcher,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Canned {
		t.Error("a document question must not be intercepted")
	}
	if resp.Turn.Answer != "the grounded answer" {
		t.Errorf("got %q", resp.Turn.Answer)
	}
	if resp.Turn.Responder != models.ResponderModel {
		t.Errorf("model turns carry the model label, got %q", resp.Turn.Responder)
	}
	if resp.Turn.Documents != "a.txt, b.txt" {
		t.Errorf("document names must be joined in order, got %q", resp.Turn.Documents)
	}
	if len(resp.Chunks) == 0 || len(resp.Chunks) > 3 {
		t.Errorf("expected between 1 and k=3 chunks, got %d", len(resp.Chunks))
	}

	// The synthesizer saw only the retrieved context and the question.
	if e.synthesizer.calls != 1 {
		t.Fatalf("expected 1 synthesis call, got %d", e.synthesizer.calls)
	}
	prompt := e.synthesizer.prompts[0]
	if !strings.Contains(prompt, "what is project X") {
		t.Error("prompt must embed the question")
	}
	if !strings.Contains(prompt, chat.RefusalPhrase) {
		t.Error("prompt must carry the refusal phrase")
	}
	for _, hit := range resp.Chunks {
		if !strings.Contains(prompt, hit.Text) {
			t.Errorf("prompt missing retrieved chunk %q", hit.Text)
		}
	}

	// One durable turn recorded.
	log, err := e.store.List(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, bucket := range log {
		total += len(bucket)
	}
	if total != 1 {
		t.Errorf("expected 1 durable turn, got %d", total)
	}
}

func TestAsk_SecondAskReusesIndex(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	docs := models.DocumentSet{textDoc("a.txt", "some content worth chunking and embedding for retrieval")}

	if _, err := e.pipeline.Ask(ctx, Request{UserID: "u", Question: "first question", APIKey: validKey, Documents: docs}); err != nil {
		t.Fatal(err)
	}
	embedsAfterFirst := e.embedder.embeds

	if _, err := e.pipeline.Ask(ctx, Request{UserID: "u", Question: "second question", APIKey: validKey, Documents: docs}); err != nil {
		t.Fatal(err)
	}
	// Only the new query embedding is added; chunks are not re-embedded.
	if e.embedder.embeds != embedsAfterFirst+1 {
		t.Errorf("expected exactly one extra embed for the query, got %d -> %d", embedsAfterFirst, e.embedder.embeds)
	}
}

func TestAsk_SynthesizerFailurePropagates(t *testing.T) {
	e := newEnv(t)
	e.synthesizer.err = models.Errorf(models.KindProviderFailure, "upstream exploded")

	_, err := e.pipeline.Ask(context.Background(), Request{
		UserID:    "alice",
		Question:  "what does the report say",
		APIKey:    validKey,
		Documents: models.DocumentSet{textDoc("a.txt", "content")},
	})
	if !models.IsKind(err, models.KindProviderFailure) {
		t.Fatalf("expected provider_failure, got %v", err)
	}
	// No turn is recorded for a failed synthesis.
	if e.pipeline.Session().Len() != 0 {
		t.Error("failed turns must not be recorded")
	}
}

type failingStore struct{ history.Store }

func (f *failingStore) Append(ctx context.Context, userID string, turn models.ConversationTurn) error {
	return models.Errorf(models.KindPersistenceFailure, "disk on fire")
}

func (f *failingStore) Close() error { return nil }

func TestAsk_HistoryFailureIsNotFatal(t *testing.T) {
	ch, _ := chunker.New(40, 10)
	emb := embedding.NewMockEmbedder(16)
	cache := index.NewCache(extract.NewExtractor(), ch, emb, "")
	synth := &fakeSynthesizer{answer: "ok"}
	p := New(chat.NewInterceptor(), cache, vector.NewRetriever(emb, 2), synth, &failingStore{}, nil)

	resp, err := p.Ask(context.Background(), Request{
		UserID:    "alice",
		Question:  "a factual question",
		APIKey:    validKey,
		Documents: models.DocumentSet{textDoc("a.txt", "content")},
	})
	if err != nil {
		t.Fatalf("append failure must be recovered, got %v", err)
	}
	if resp.Turn.Answer != "ok" {
		t.Errorf("got %q", resp.Turn.Answer)
	}
	// The turn is still visible in the ephemeral session.
	if p.Session().Len() != 1 {
		t.Error("session must retain the turn despite the persistence failure")
	}
}

func TestAsk_TurnTimestamps(t *testing.T) {
	e := newEnv(t)
	fixed := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	e.pipeline.now = func() time.Time { return fixed }

	resp, err := e.pipeline.Ask(context.Background(), Request{UserID: "u", Question: "hi there"})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Turn.Timestamp.Equal(fixed) {
		t.Errorf("got %v", resp.Turn.Timestamp)
	}
	if resp.Turn.ID == "" {
		t.Error("turns carry a generated ID")
	}
}
