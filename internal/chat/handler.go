package chat

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"contextchat/internal/config"
	"contextchat/internal/loader"
	"contextchat/internal/model"
	"contextchat/internal/observability"
	"contextchat/internal/retrieval"
)

//go:embed views/index.html
var views embed.FS

const (
	msgProcessed = "Documents uploaded and processed."
	msgReady     = "Ready to answer questions."
)

// Archiver keeps the extracted text of uploads; optional.
type Archiver interface {
	Save(ctx context.Context, key string, d model.Document) error
}

type Server struct {
	Sessions       SessionStore
	Indexer        *retrieval.Indexer
	Chain          *Chain
	Archive        Archiver
	Defaults       config.Defaults
	DefaultAPIKey  string
	MaxUploadBytes int64
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /api/config", s.handleConfig())
	mux.HandleFunc("POST /api/session", s.handleCreateSession())
	mux.HandleFunc("DELETE /api/session/{id}", s.handleResetSession())
	mux.HandleFunc("POST /api/documents", s.handleUpload())
	mux.HandleFunc("POST /api/ask", s.handleAsk())
	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrMissingAPIKey):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrEmptySplit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrInvalidParams),
		errors.Is(err, model.ErrUnsupportedFile),
		errors.Is(err, model.ErrNoDocument),
		errors.Is(err, model.ErrEmptyQuestion):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := views.ReadFile("views/index.html")
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	}
}

type configResponse struct {
	Split         config.SplitParams      `json:"split"`
	Generation    config.GenerationParams `json:"generation"`
	HasDefaultKey bool                    `json:"has_default_key"`
}

func (s *Server) handleConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, configResponse{
			Split:         s.Defaults.Split,
			Generation:    s.Defaults.Generation,
			HasDefaultKey: s.DefaultAPIKey != "",
		})
	}
}

type SessionRequest struct {
	APIKey string `json:"api_key"`
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleCreateSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, fmt.Errorf("%w: %v", model.ErrInvalidParams, err))
			return
		}
		req.APIKey = strings.TrimSpace(req.APIKey)
		if req.APIKey == "" && s.DefaultAPIKey == "" {
			writeError(w, model.ErrMissingAPIKey)
			return
		}

		sess, err := s.Sessions.Create(r.Context(), req.APIKey)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, SessionResponse{SessionID: sess.ID})
	}
}

func (s *Server) handleResetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.Sessions.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		sess.History = nil
		sess.IndexKey = ""
		if err := s.Sessions.Save(r.Context(), sess); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type UploadResponse struct {
	model.IngestReport
	Messages []string `json:"messages"`
	Warnings []string `json:"warnings,omitempty"`
}

func formInt(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", model.ErrInvalidParams, name)
	}
	return n, nil
}

func (s *Server) readUploads(r *http.Request) ([]loader.File, error) {
	var files []loader.File
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["files"] {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return nil, err
			}
			files = append(files, loader.File{Name: fh.Filename, Data: data})
		}
	}

	if u := strings.TrimSpace(r.FormValue("url")); u != "" {
		f, err := loader.FetchURL(r.Context(), u)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidParams, err)
		}
		files = append(files, f)
	}
	return files, nil
}

func (s *Server) handleUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeError(w, fmt.Errorf("%w: %v", model.ErrInvalidParams, err))
			return
		}

		sess, err := s.Sessions.Get(r.Context(), r.FormValue("session_id"))
		if err != nil {
			writeError(w, err)
			return
		}

		p := s.Defaults.Split
		if p.ChunkSize, err = formInt(r, "chunk_size", p.ChunkSize); err != nil {
			writeError(w, err)
			return
		}
		if p.ChunkOverlap, err = formInt(r, "chunk_overlap", p.ChunkOverlap); err != nil {
			writeError(w, err)
			return
		}
		if err := p.Validate(); err != nil {
			writeError(w, err)
			return
		}

		files, err := s.readUploads(r)
		if err != nil {
			writeError(w, err)
			return
		}

		text, docs, skipped, err := loader.Load(r.Context(), files)
		observability.DocumentsSkipped.Add(float64(len(skipped)))
		if err != nil {
			writeError(w, err)
			return
		}

		names := make([]string, len(docs))
		for i, d := range docs {
			names[i] = d.Name
		}

		report, err := s.Indexer.Build(r.Context(), text, p, names...)
		if err != nil {
			writeError(w, err)
			return
		}

		for _, d := range docs {
			observability.DocumentsIngested.WithLabelValues(d.Kind).Inc()
			if s.Archive != nil {
				if err := s.Archive.Save(r.Context(), report.IndexKey, d); err != nil {
					log.Printf("[Upload] Falha ao arquivar %s: %v", d.Name, err)
				}
			}
		}
		report.Files = names
		report.Skipped = skipped

		// um novo índice começa uma nova conversa
		if sess.IndexKey != report.IndexKey {
			sess.History = nil
		}
		sess.IndexKey = report.IndexKey
		if err := s.Sessions.Save(r.Context(), sess); err != nil {
			writeError(w, err)
			return
		}

		resp := UploadResponse{IngestReport: report, Messages: []string{msgProcessed, msgReady}}
		for _, name := range skipped {
			resp.Warnings = append(resp.Warnings, name+": "+loader.UnsupportedMessage)
		}
		log.Printf("[Upload] sessão %s: %d arquivos | %d caracteres | %d chunks | cache=%v",
			sess.ID, len(docs), report.Characters, report.Chunks, report.Cached)
		writeJSON(w, http.StatusOK, resp)
	}
}

type AskRequest struct {
	SessionID string                   `json:"session_id"`
	Question  string                   `json:"question"`
	Params    *config.GenerationParams `json:"params,omitempty"`
}

type Source struct {
	Source  string  `json:"source,omitempty"`
	Seq     int     `json:"seq"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}

type AskResponse struct {
	Question   string   `json:"question"`
	Standalone string   `json:"standalone_question,omitempty"`
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
}

func (s *Server) handleAsk() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, fmt.Errorf("%w: %v", model.ErrInvalidParams, err))
			return
		}

		sess, err := s.Sessions.Get(r.Context(), req.SessionID)
		if err != nil {
			writeError(w, err)
			return
		}

		params := s.Defaults.Generation
		if req.Params != nil {
			params = *req.Params
		}

		apiKey := sess.APIKey
		if apiKey == "" {
			apiKey = s.DefaultAPIKey
		}

		ans, err := s.Chain.Ask(r.Context(), apiKey, sess.IndexKey, req.Question, sess.History, params)
		if err != nil {
			observability.Questions.WithLabelValues("error").Inc()
			writeError(w, err)
			return
		}
		observability.Questions.WithLabelValues("answered").Inc()

		// salva histórico
		if err := s.Sessions.Append(r.Context(), sess.ID,
			model.ChatMessage{Role: model.RoleUser, Content: ans.Question},
			model.ChatMessage{Role: model.RoleAssistant, Content: ans.Text},
		); err != nil {
			log.Printf("[Chat] Falha ao salvar histórico de %s: %v", sess.ID, err)
		}

		resp := AskResponse{Question: ans.Question, Answer: ans.Text, Sources: make([]Source, 0, len(ans.Sources))}
		if ans.Standalone != ans.Question {
			resp.Standalone = ans.Standalone
		}
		for _, d := range ans.Sources {
			resp.Sources = append(resp.Sources, Source{
				Source:  d.Chunk.Source,
				Seq:     d.Chunk.Seq,
				Score:   d.Score,
				Content: d.Chunk.Content,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
