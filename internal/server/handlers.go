package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kiku/internal/chat"
	"github.com/hyperjump/kiku/internal/history"
	"github.com/hyperjump/kiku/internal/models"
	"github.com/hyperjump/kiku/internal/pipeline"
	"github.com/hyperjump/kiku/pkg/utils"
)

type askRequest struct {
	UserID   string `json:"user_id"`
	Question string `json:"question"`
	Persona  string `json:"persona,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
}

type askResponse struct {
	Answer    string   `json:"answer"`
	Responder string   `json:"responder"`
	Canned    bool     `json:"canned"`
	Documents string   `json:"documents,omitempty"`
	Chunks    []string `json:"chunks,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		s.respondError(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.UserID == "" {
		req.UserID = "anonymous"
	}
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = s.apiKey
	}

	s.logger.Debug("ask request",
		zap.String("user", req.UserID),
		zap.String("question", utils.Truncate(req.Question, 120)))

	resp, err := s.pipeline.Ask(r.Context(), pipeline.Request{
		UserID:    req.UserID,
		Question:  req.Question,
		Documents: s.Documents(),
		APIKey:    apiKey,
		Persona:   chat.ParsePersona(req.Persona),
	})
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}

	out := askResponse{
		Answer:    resp.Turn.Answer,
		Responder: resp.Turn.Responder,
		Canned:    resp.Canned,
		Documents: resp.Turn.Documents,
	}
	for _, hit := range resp.Chunks {
		out.Chunks = append(out.Chunks, hit.Text)
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		s.respondError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	set := make(models.DocumentSet, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("open %s: %v", fh.Filename, err))
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("read %s: %v", fh.Filename, err))
			return
		}
		set = append(set, models.Document{
			Name:    fh.Filename,
			Size:    int64(len(content)),
			Content: content,
		})
	}

	// Build the index eagerly so the first question does not pay for it.
	if _, err := s.pipeline.Cache().EnsureIndex(r.Context(), set); err != nil {
		s.logger.Error("index build failed", zap.Error(err))
		s.respondPipelineError(w, err)
		return
	}
	s.SetDocuments(set)
	s.logger.Info("documents uploaded", zap.Int("count", len(set)))
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"documents": set.Names(),
		"status":    "indexed",
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	set := s.Documents()
	docs := make([]map[string]interface{}, 0, len(set))
	for _, d := range set {
		docs = append(docs, map[string]interface{}{
			"name": d.Name,
			"size": d.Size,
		})
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	log, err := s.history.List(r.Context(), user)
	if err != nil {
		s.logger.Error("history list failed", zap.Error(err))
		s.respondPipelineError(w, err)
		return
	}
	if date := r.URL.Query().Get("date"); date != "" {
		turns := log[date]
		if turns == nil {
			turns = []models.ConversationTurn{}
		}
		s.respondJSON(w, http.StatusOK, map[string][]models.ConversationTurn{date: turns})
		return
	}
	s.respondJSON(w, http.StatusOK, log)
}

func (s *Server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	date := r.URL.Query().Get("date")
	if err := s.history.Delete(r.Context(), user, date); err != nil {
		s.logger.Error("history delete failed", zap.Error(err))
		s.respondPipelineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleHistoryExport(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	log, err := s.history.List(r.Context(), user)
	if err != nil {
		s.logger.Error("history export failed", zap.Error(err))
		s.respondPipelineError(w, err)
		return
	}
	var body string
	if date := r.URL.Query().Get("date"); date != "" {
		body = history.FormatTurns(log[date])
	} else {
		body = history.FormatLog(log)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", user+"_history.txt"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondPipelineError maps domain errors onto HTTP statuses.
func (s *Server) respondPipelineError(w http.ResponseWriter, err error) {
	if errors.Is(err, pipeline.ErrNoDocuments) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch models.KindOf(err) {
	case models.KindInvalidCredentials:
		s.respondError(w, http.StatusUnauthorized, err.Error())
	case models.KindIngestionFailed:
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	case models.KindProviderFailure:
		s.respondError(w, http.StatusBadGateway, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
