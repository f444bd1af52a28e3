package web

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"rag-document-backend/internal/domain/ports/storage"
	redisinfra "rag-document-backend/internal/infra/redis"
	"rag-document-backend/internal/infra/worker"
	"rag-document-backend/internal/usecase"
)

// Server exposes the job queue and collection management over HTTP.
type Server struct {
	jobUC     *usecase.JobUseCase
	collUC    *usecase.CollectionUseCase
	runner    *worker.JobRunner
	limiter   *redisinfra.RateLimiter
	files     storage.FileStore
	auth      *AuthManager
	apiKey    string
	queueRate int // job submissions per client per minute; <=0 disables
	log       *zerolog.Logger
}

func NewServer(
	jobUC *usecase.JobUseCase,
	collUC *usecase.CollectionUseCase,
	runner *worker.JobRunner,
	limiter *redisinfra.RateLimiter,
	files storage.FileStore,
	auth *AuthManager,
	apiKey string,
	queueRate int,
	logger *zerolog.Logger,
) *Server {
	srvLog := logger.With().Str("component", "web").Logger()
	return &Server{
		jobUC:     jobUC,
		collUC:    collUC,
		runner:    runner,
		limiter:   limiter,
		files:     files,
		auth:      auth,
		apiKey:    apiKey,
		queueRate: queueRate,
		log:       &srvLog,
	}
}

// Router builds the full route tree. Everything under /api/v1 requires
// either the API key or a live session token.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", s.sessionCreateHandler)
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Delete("/session", s.sessionDeleteHandler)

			r.Route("/jobs", func(r chi.Router) {
				r.Post("/", s.jobCreateHandler)
				r.Get("/", s.jobListHandler)
				r.Get("/{id}", s.jobGetHandler)
				r.Get("/{id}/files", s.jobFilesHandler)
			})

			r.Route("/collections", func(r chi.Router) {
				r.Post("/", s.collectionCreateHandler)
				r.Get("/", s.collectionListHandler)
				r.Get("/{id}", s.collectionGetHandler)
				r.Delete("/{id}", s.collectionDeleteHandler)
				r.Post("/{id}/documents", s.collectionIngestHandler)
				r.Post("/{id}/search", s.collectionSearchHandler)
			})
		})
	})

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// authMiddleware accepts the configured API key as a bearer token, or a
// session JWT minted by POST /api/v1/session.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		if token, ok := bearerToken(r); ok && token == s.apiKey {
			next.ServeHTTP(w, r)
			return
		}
		if s.auth != nil {
			if _, err := s.auth.ParseFromRequest(r); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	hdr := r.Header.Get("Authorization")
	if hdr == "" {
		return "", false
	}
	parts := strings.SplitN(hdr, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// allowEnqueue applies the per-client fixed-window rate limit. Limiter
// errors fail open: a Redis hiccup must not take job submission down.
func (s *Server) allowEnqueue(r *http.Request) bool {
	if s.limiter == nil || s.queueRate <= 0 {
		return true
	}
	client := clientKey(r)
	ok, err := s.limiter.Allow(r.Context(), redisinfra.ClientQueueKey(client), s.queueRate, time.Minute)
	if err != nil {
		s.log.Warn().Err(err).Str("client", client).Msg("rate limiter unavailable, allowing request")
		return true
	}
	return ok
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
