package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rag-document-backend/internal/domain"
	"rag-document-backend/internal/infra/services"
	"rag-document-backend/internal/infra/worker"
)

type collectionCreateRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	EmbeddingModel string `json:"embedding_model"`
}

func (s *Server) collectionCreateHandler(w http.ResponseWriter, r *http.Request) {
	var req collectionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	coll, err := s.collUC.Create(r.Context(), req.Name, req.Description, req.EmbeddingModel)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "Collection name is required", http.StatusBadRequest)
		case errors.Is(err, domain.ErrAlreadyExists):
			http.Error(w, "Collection already exists", http.StatusConflict)
		default:
			s.log.Error().Err(err).Msg("collection create failed")
			http.Error(w, "Failed to create collection", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, coll)
}

func (s *Server) collectionListHandler(w http.ResponseWriter, r *http.Request) {
	colls, err := s.collUC.List(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("collection list failed")
		http.Error(w, "Failed to list collections", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": colls})
}

func (s *Server) collectionGetHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	coll, err := s.collUC.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.log.Error().Err(err).Str("collection_id", id).Msg("collection lookup failed")
		http.Error(w, "Failed to get collection", http.StatusInternalServerError)
		return
	}

	count, err := s.collUC.CountDocuments(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Str("collection_id", id).Msg("document count failed")
		http.Error(w, "Failed to count documents", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection": coll,
		"documents":  count,
	})
}

func (s *Server) collectionDeleteHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.collUC.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.log.Error().Err(err).Str("collection_id", id).Msg("collection delete failed")
		http.Error(w, "Failed to delete collection", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// collectionIngestHandler enqueues an ingestion job for the collection.
func (s *Server) collectionIngestHandler(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body == nil {
		body = map[string]any{}
	}
	body["collection"] = chi.URLParam(r, "id")
	s.enqueueServiceJob(w, r, services.NameIngest, body)
}

// collectionSearchHandler enqueues a search job; callers poll the job
// record for the ranked matches.
func (s *Server) collectionSearchHandler(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body == nil {
		body = map[string]any{}
	}
	body["collection"] = chi.URLParam(r, "id")
	s.enqueueServiceJob(w, r, services.NameSearch, body)
}

func (s *Server) enqueueServiceJob(w http.ResponseWriter, r *http.Request, service string, payload map[string]any) {
	if !s.allowEnqueue(r) {
		http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	job, err := s.jobUC.Create(r.Context(), service, payload)
	if err != nil {
		s.log.Error().Err(err).Str("service", service).Msg("job create failed")
		http.Error(w, "Failed to create job", http.StatusInternalServerError)
		return
	}
	if err := s.runner.Dispatch(job.ID); err != nil {
		if errors.Is(err, worker.ErrQueueFull) {
			s.log.Warn().Str("job_id", job.ID).Msg("worker queue full")
			http.Error(w, "Queue is full", http.StatusServiceUnavailable)
			return
		}
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("job dispatch failed")
		http.Error(w, "Failed to schedule job", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"job": job.ID})
}
