package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/grantseek/internal/chat"
	"github.com/hyperjump/grantseek/internal/models"
	"github.com/hyperjump/grantseek/internal/storage"
)

const defaultPageSize = 50

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	engine := s.Engine()
	if engine == nil {
		s.respondError(w, http.StatusServiceUnavailable, "index not loaded")
		return
	}
	if query.Limit < 0 {
		s.respondError(w, http.StatusBadRequest, "limit cannot be negative")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := engine.Search(r.Context(), &query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

// handleGetRecord answers from the serving engine and falls back to the catalog when
// no engine is loaded or the engine does not hold the ID.
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	engine := s.Engine()
	if engine != nil {
		if record, ok := engine.Record(id); ok {
			s.respondJSON(w, http.StatusOK, record)
			return
		}
	}
	if s.catalog == nil {
		if engine == nil {
			s.respondError(w, http.StatusServiceUnavailable, "index not loaded")
			return
		}
		s.respondError(w, http.StatusNotFound, "record not found")
		return
	}
	record, err := s.catalog.GetRecord(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "record not found")
	case err != nil:
		s.logger.Error("get record failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	default:
		s.respondJSON(w, http.StatusOK, record)
	}
}

type recordPage struct {
	Records []*models.Record `json:"records"`
	Total   int64            `json:"total"`
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil || limit <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if maxLimit := s.config.Search.MaxLimit; maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}

	page := recordPage{Offset: offset, Limit: limit}
	if s.catalog != nil {
		ctx := r.Context()
		page.Records, err = s.catalog.ListRecords(ctx, offset, limit)
		if err == nil {
			page.Total, err = s.catalog.CountRecords(ctx)
		}
		if err != nil {
			s.logger.Error("list records failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.respondJSON(w, http.StatusOK, page)
		return
	}

	engine := s.Engine()
	if engine == nil {
		s.respondError(w, http.StatusServiceUnavailable, "index not loaded")
		return
	}
	all := engine.Store().Records()
	page.Total = int64(len(all))
	page.Records = []*models.Record{}
	for i := offset; i < len(all) && i < offset+limit; i++ {
		page.Records = append(page.Records, &all[i])
	}
	s.respondJSON(w, http.StatusOK, page)
}

type chatRequest struct {
	Message string         `json:"message"`
	History []chat.Message `json:"history"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chatModel == nil {
		s.respondError(w, http.StatusNotImplemented, "chat model not configured")
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		s.respondError(w, http.StatusBadRequest, "message is required")
		return
	}
	engine := s.Engine()
	if engine == nil {
		s.respondError(w, http.StatusServiceUnavailable, "index not loaded")
		return
	}
	assistant := chat.NewAssistant(s.chatModel, engine, s.config.Chat, chat.WithLogger(s.logger))
	reply, err := assistant.Respond(r.Context(), req.History, req.Message)
	if err != nil {
		s.logger.Error("chat failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{}
	if engine := s.Engine(); engine != nil {
		resp["records"] = engine.Store().Len()
		resp["vector_index_size"] = engine.Size()
		resp["vector_index_type"] = engine.IndexType()
		resp["dimensions"] = engine.Dimensions()
		resp["model"] = engine.ModelName()
	} else {
		resp["records"] = 0
	}

	if s.catalog != nil {
		run, err := s.catalog.LatestIndexRun(r.Context())
		switch {
		case err == nil:
			resp["last_index_run"] = run
		case errors.Is(err, storage.ErrNotFound):
		default:
			s.logger.Error("status: latest index run failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	st := s.config.Storage
	if total, err := storage.DiskUsageBytes(st.IndexPath, st.IndexPath+".faiss", st.RecordsPath, st.ManifestPath, st.DatabasePath); err == nil {
		resp["disk_usage_bytes"] = total
	}
	resp["config"] = map[string]interface{}{
		"index_path":    st.IndexPath,
		"records_path":  st.RecordsPath,
		"database_path": st.DatabasePath,
		"chat_enabled":  s.chatModel != nil,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
