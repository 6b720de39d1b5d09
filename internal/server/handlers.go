package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/kotoba-ml/umekomi/internal/catalog"
	"github.com/kotoba-ml/umekomi/internal/embedder"
)

type embedRequest struct {
	Model string   `json:"model"`
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Model      string      `json:"model"`
	Dimensions int         `json:"dimensions"`
	Embeddings [][]float32 `json:"embeddings"`
}

type modelInfo struct {
	Name       string `json:"name"`
	Repo       string `json:"repo"`
	Dimensions int    `json:"dimensions"`
	MaxTokens  int    `json:"max_tokens"`
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req embedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Model == "" {
		req.Model = "mini_lm_v2"
	}
	if len(req.Texts) == 0 {
		s.respondError(w, http.StatusBadRequest, "texts is required")
		return
	}

	spec, err := catalog.Resolve(req.Model)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("embed request", zap.String("model", spec.Name), zap.Int("texts", len(req.Texts)))

	entry, err := s.instance(r.Context(), spec.Name)
	if err != nil {
		s.logger.Error("model load failed", zap.String("model", spec.Name), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	embeddings := make([][]float32, len(req.Texts))
	entry.mu.Lock()
	for i, text := range req.Texts {
		if s.cache != nil {
			if vec, ok := s.cache.Get(r.Context(), spec.Name, text); ok {
				embeddings[i] = vec
				continue
			}
		}
		vec, err := entry.inst.Embed(r.Context(), text)
		if err != nil {
			entry.mu.Unlock()
			s.logger.Error("embedding failed", zap.String("model", spec.Name), zap.Int("index", i), zap.Error(err))
			s.respondError(w, statusFor(err), err.Error())
			return
		}
		if s.cache != nil {
			s.cache.Put(r.Context(), spec.Name, text, vec)
		}
		embeddings[i] = vec
	}
	entry.mu.Unlock()

	s.respondJSON(w, http.StatusOK, embedResponse{
		Model:      spec.Name,
		Dimensions: spec.Dimension,
		Embeddings: embeddings,
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	specs := catalog.All()
	infos := make([]modelInfo, 0, len(specs))
	for _, spec := range specs {
		infos = append(infos, modelInfo{
			Name:       spec.Name,
			Repo:       spec.Repo,
			Dimensions: spec.Dimension,
			MaxTokens:  spec.MaxTokens,
		})
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"models": infos})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statusFor(err error) int {
	switch embedder.CodeOf(err) {
	case embedder.CodeInvalidUTF8, embedder.CodeNullPointer:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
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
