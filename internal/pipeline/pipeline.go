// Package pipeline orchestrates a question through interception, retrieval,
// prompt composition, and answer synthesis.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kiku/internal/chat"
	"github.com/hyperjump/kiku/internal/history"
	"github.com/hyperjump/kiku/internal/index"
	"github.com/hyperjump/kiku/internal/models"
	"github.com/hyperjump/kiku/internal/vector"
)

// ErrNoDocuments is returned for a non-canned question when the document
// set is empty. It is a pre-flight condition: nothing is retrieved,
// synthesized, or mutated.
var ErrNoDocuments = errors.New("please upload documents before asking")

// Request is one user question with its surrounding state.
type Request struct {
	UserID    string
	Question  string
	Documents models.DocumentSet
	APIKey    string
	Persona   chat.Persona
}

// Response is the pipeline result for one question.
type Response struct {
	Turn   models.ConversationTurn
	Chunks []vector.Hit
	Canned bool
}

// Pipeline runs the retrieval-augmented answering flow. Each question
// executes synchronously from submission to answer.
type Pipeline struct {
	interceptor *chat.Interceptor
	cache       *index.Cache
	retriever   *vector.Retriever
	synthesizer chat.Synthesizer
	history     history.Store
	session     *chat.Session
	logger      *zap.Logger
	now         func() time.Time
}

// New creates a pipeline. history may be nil, in which case turns are kept
// only in the session.
func New(
	interceptor *chat.Interceptor,
	cache *index.Cache,
	retriever *vector.Retriever,
	synthesizer chat.Synthesizer,
	store history.Store,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		interceptor: interceptor,
		cache:       cache,
		retriever:   retriever,
		synthesizer: synthesizer,
		history:     store,
		session:     chat.NewSession(),
		logger:      logger,
		now:         time.Now,
	}
}

// Session returns the ephemeral turn list for the active conversation.
func (p *Pipeline) Session() *chat.Session {
	return p.session
}

// Cache returns the index cache, for callers that build indexes eagerly.
func (p *Pipeline) Cache() *index.Cache {
	return p.cache
}

// Ask answers one question. Order of checks: interception first (canned
// replies need no credentials and no documents), then the local credential
// shape check, then the empty-document-set check, and only then the
// expensive path: ensure index, retrieve, compose, synthesize.
func (p *Pipeline) Ask(ctx context.Context, req Request) (*Response, error) {
	if reply, ok := p.interceptor.Intercept(req.Question); ok {
		turn := p.record(ctx, req.UserID, req.Question, reply, models.ResponderAssistant, "")
		return &Response{Turn: turn, Canned: true}, nil
	}

	if !chat.ValidateAPIKey(req.APIKey) {
		return nil, models.Errorf(models.KindInvalidCredentials, "invalid or missing API key")
	}
	if len(req.Documents) == 0 {
		return nil, ErrNoDocuments
	}

	ix, err := p.cache.EnsureIndex(ctx, req.Documents)
	if err != nil {
		return nil, err
	}
	hits, err := p.retriever.Retrieve(ctx, ix, req.Question)
	if err != nil {
		if models.KindOf(err) != 0 {
			return nil, err
		}
		return nil, models.NewError(models.KindIngestionFailed, err)
	}
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Text
	}

	prompt := chat.Compose(req.Persona, texts, req.Question)
	answer, err := p.synthesizer.Synthesize(ctx, prompt)
	if err != nil {
		return nil, err
	}

	docNames := strings.Join(req.Documents.Names(), ", ")
	turn := p.record(ctx, req.UserID, req.Question, answer, models.ResponderModel, docNames)
	return &Response{Turn: turn, Chunks: hits}, nil
}

// record appends the turn to the session and the durable store. A
// persistence failure is logged and swallowed: the turn stays visible in
// the session even when the durable write failed.
func (p *Pipeline) record(ctx context.Context, userID, question, answer, responder, docNames string) models.ConversationTurn {
	turn := models.ConversationTurn{
		ID:        uuid.New().String(),
		Question:  question,
		Answer:    answer,
		Responder: responder,
		Timestamp: p.now(),
		Documents: docNames,
	}
	p.session.Append(turn)
	if p.history != nil {
		if err := p.history.Append(ctx, userID, turn); err != nil {
			p.logger.Warn("history append failed",
				zap.String("user", userID),
				zap.Error(err))
		}
	}
	return turn
}
