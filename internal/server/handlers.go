package server

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
)

// maxUploadBytes caps multipart uploads at 100 MiB.
const maxUploadBytes = 100 << 20

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	sourceID := uuid.New().String()
	path := s.artifacts.UploadPath(sourceID, header.Filename)

	out, err := os.Create(path)
	if err != nil {
		s.logger.Error("failed to save upload", zap.String("path", path), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to save upload")
		return
	}
	hash := md5.New()
	if _, err := io.Copy(io.MultiWriter(out, hash), file); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		s.logger.Error("failed to write upload", zap.String("path", path), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to save upload")
		return
	}
	_ = out.Close()

	src := &models.Source{
		ID:          sourceID,
		Type:        models.SourceTypeFile,
		Filename:    header.Filename,
		Origin:      path,
		ContentHash: hex.EncodeToString(hash.Sum(nil)),
		Status:      models.StatusProcessing,
		CreatedAt:   time.Now(),
	}
	s.acceptSource(w, r, src)
}

type uploadLinkRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleUploadLink(w http.ResponseWriter, r *http.Request) {
	var req uploadLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		s.respondError(w, http.StatusBadRequest, "url must be a valid http(s) URL")
		return
	}

	src := &models.Source{
		ID:          uuid.New().String(),
		Type:        models.SourceTypeLink,
		Origin:      req.URL,
		ContentHash: md5Hex(req.URL),
		Status:      models.StatusProcessing,
		CreatedAt:   time.Now(),
	}
	s.acceptSource(w, r, src)
}

// acceptSource persists the initial record and fires the ingestion
// pipeline in the background. The response returns before any pipeline
// work happens; progress is visible through the source's status.
func (s *Server) acceptSource(w http.ResponseWriter, r *http.Request, src *models.Source) {
	if err := s.sources.CreateSource(r.Context(), src); err != nil {
		s.logger.Error("failed to create source record", zap.String("source_id", src.ID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to create source")
		return
	}
	s.logger.Info("source accepted",
		zap.String("source_id", src.ID),
		zap.String("type", string(src.Type)),
		zap.String("origin", src.Origin),
	)
	go s.ingest(context.Background(), src)
	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"source_id": src.ID,
		"status":    src.Status,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TopK <= 0 {
		req.TopK = s.config.Pipeline.TopK
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("query request", zap.String("question", req.Question), zap.Int("top_k", req.TopK))

	result, err := s.synthesizer.Answer(r.Context(), req.Question, req.TopK)
	if err != nil {
		s.logger.Error("query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	src, err := s.sources.GetSource(r.Context(), id)
	if err != nil {
		var notFound *storage.NotFoundError
		if errors.As(err, &notFound) {
			s.respondError(w, http.StatusNotFound, "source not found")
			return
		}
		s.logger.Error("source lookup failed", zap.String("source_id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, src)
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.sources.ListSources(r.Context(), 0, 500)
	if err != nil {
		s.logger.Error("list sources failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sources == nil {
		sources = []*models.Source{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"sources": sources})
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete source request", zap.String("source_id", id))
	result, err := s.deletion.Run(r.Context(), id)
	if err != nil {
		s.logger.Error("deletion failed", zap.String("source_id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sourceCount, err := s.sources.CountSources(ctx)
	if err != nil {
		s.logger.Error("status: count sources failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	chunkCount, err := s.vectors.Count(ctx)
	if err != nil {
		s.logger.Error("status: count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]interface{}{
		"sources": sourceCount,
		"chunks":  chunkCount,
	}
	if diskBytes, err := s.artifacts.DiskUsageBytes(); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	resp["config"] = map[string]interface{}{
		"embedding_model": s.config.Embedding.Model,
		"chunk_size":      s.config.Pipeline.ChunkSize,
		"chunk_overlap":   s.config.Pipeline.ChunkOverlap,
		"top_k":           s.config.Pipeline.TopK,
		"collection":      s.config.VectorStore.Collection,
		"database_path":   s.config.Storage.DatabasePath,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
