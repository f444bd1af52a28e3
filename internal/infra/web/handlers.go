package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"rag-document-backend/internal/domain"
	"rag-document-backend/internal/domain/model"
	"rag-document-backend/internal/infra/worker"
)

// jobView is the wire shape of a job record.
type jobView struct {
	UUID        string         `json:"uuid"`
	Service     string         `json:"service"`
	Payload     map[string]any `json:"payload"`
	Created     time.Time      `json:"created"`
	Expires     *time.Time     `json:"expires"`
	LockedUntil *time.Time     `json:"locked_until"`
	MaxAttempts int            `json:"max_attempts"`
	Completed   *time.Time     `json:"completed"`
	Result      map[string]any `json:"result"`
}

func newJobView(j *model.Job) jobView {
	return jobView{
		UUID:        j.ID,
		Service:     j.Service,
		Payload:     j.Payload,
		Created:     j.CreatedAt,
		Expires:     j.ExpiresAt,
		LockedUntil: j.LockedUntil,
		MaxAttempts: j.MaxAttempts,
		Completed:   j.CompletedAt,
		Result:      j.Result,
	}
}

type jobCreateRequest struct {
	Service string         `json:"service"`
	Payload map[string]any `json:"payload"`
}

// jobCreateHandler enqueues a job and schedules its first attempt. The
// response is 202: the result arrives later on the job record.
func (s *Server) jobCreateHandler(w http.ResponseWriter, r *http.Request) {
	if !s.allowEnqueue(r) {
		http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	var req jobCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	job, err := s.jobUC.Create(r.Context(), req.Service, req.Payload)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, "Service name is required", http.StatusBadRequest)
			return
		}
		s.log.Error().Err(err).Msg("job create failed")
		http.Error(w, "Failed to create job", http.StatusInternalServerError)
		return
	}

	if err := s.runner.Dispatch(job.ID); err != nil {
		if errors.Is(err, worker.ErrQueueFull) {
			// The job record exists; a later attempt can pick it up.
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

func (s *Server) jobGetHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.jobUC.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.log.Error().Err(err).Str("job_id", id).Msg("job lookup failed")
		http.Error(w, "Failed to get job", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, newJobView(job))
}

// jobFilesHandler lists the artifacts a job has written (for example the
// ingestion report). Only file names are exposed, not storage paths.
func (s *Server) jobFilesHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.jobUC.Get(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.log.Error().Err(err).Str("job_id", id).Msg("job lookup failed")
		http.Error(w, "Failed to get job", http.StatusInternalServerError)
		return
	}

	names := []string{}
	if s.files != nil {
		paths, err := s.files.JobFiles(r.Context(), id)
		if err != nil {
			s.log.Error().Err(err).Str("job_id", id).Msg("listing job files failed")
			http.Error(w, "Failed to list job files", http.StatusInternalServerError)
			return
		}
		for _, p := range paths {
			names = append(names, filepath.Base(p))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": names})
}

func (s *Server) jobListHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseJobFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	jobs, pagination, err := s.jobUC.List(r.Context(), filter)
	if err != nil {
		s.log.Error().Err(err).Msg("job list failed")
		http.Error(w, "Failed to list jobs", http.StatusInternalServerError)
		return
	}

	views := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, newJobView(j))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": views,
		"meta": map[string]any{"pagination": pagination},
	})
}

func parseJobFilter(r *http.Request) (model.JobFilter, error) {
	q := r.URL.Query()
	var f model.JobFilter

	if v := q.Get("min_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, errors.New("min_date must be YYYY-MM-DD")
		}
		f.MinDate = &t
	}
	if v := q.Get("max_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, errors.New("max_date must be YYYY-MM-DD")
		}
		f.MaxDate = &t
	}
	f.Service = q.Get("service")
	if v := q.Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.New("completed must be a boolean")
		}
		f.Completed = &b
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.PageSize, _ = strconv.Atoi(q.Get("page_size"))
	return f, nil
}

// sessionCreateHandler trades the API key for a session cookie.
func (s *Server) sessionCreateHandler(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		http.Error(w, "Sessions are not configured", http.StatusNotImplemented)
		return
	}
	token, ok := bearerToken(r)
	if !ok || s.apiKey == "" || token != s.apiKey {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	signed, err := s.auth.Mint(w)
	if err != nil {
		s.log.Error().Err(err).Msg("session mint failed")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"token": signed})
}

func (s *Server) sessionDeleteHandler(w http.ResponseWriter, _ *http.Request) {
	if s.auth != nil {
		s.auth.Clear(w)
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
