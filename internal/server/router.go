// Package server assembles the HTTP router and the access table that guards it.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/kadikoy/service/internal/access"
	"github.com/kadikoy/service/internal/auth"
	"github.com/kadikoy/service/internal/media"
	appMiddleware "github.com/kadikoy/service/internal/middleware"
	"github.com/kadikoy/service/internal/news"
	"github.com/kadikoy/service/internal/response"
	"github.com/kadikoy/service/internal/sponsor"
	"github.com/kadikoy/service/internal/storage"
)

// APIPrefix is the base path of the versioned API.
const APIPrefix = "/api/v1"

// Pinger is implemented by the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the router needs.
type Deps struct {
	Log         zerolog.Logger
	Verifier    appMiddleware.TokenVerifier
	DB          Pinger
	Store       storage.HealthChecker
	CORSOrigins []string

	Auth     *auth.Handler
	Media    *media.Handler
	News     *news.Handler
	Sponsors *sponsor.Handler
}

var (
	admin     = access.AnyOf(access.RoleAdmin)
	uploaders = access.AnyOf(access.RoleAdmin, access.RolePhotoUploader)
)

// RouteTable lists the roles every route requires. Routes missing from the
// table require Admin.
func RouteTable() *access.Table {
	p := APIPrefix
	return access.NewTable(admin).
		Set(http.MethodGet, "/health", access.Public).
		Set(http.MethodGet, "/metrics", access.Public).
		Set(http.MethodGet, "/swagger/*", access.Public).
		Set(http.MethodPost, p+"/auth/login", access.Public).
		Set(http.MethodPost, p+"/admin/login", access.Public).
		Set(http.MethodGet, p+"/admin/me", admin).
		Set(http.MethodGet, p+"/media", access.Public).
		Set(http.MethodGet, p+"/media/{fileName}", access.Public).
		Set(http.MethodPost, p+"/media/upload", uploaders).
		Set(http.MethodDelete, p+"/media/{fileName}", uploaders).
		Set(http.MethodDelete, p+"/media-records/{mediaId}", uploaders).
		Set(http.MethodGet, p+"/news", access.Public).
		Set(http.MethodGet, p+"/news/{id}", access.Public).
		Set(http.MethodPost, p+"/news", admin).
		Set(http.MethodPut, p+"/news/{id}", admin).
		Set(http.MethodDelete, p+"/news/{id}", admin).
		Set(http.MethodPost, p+"/news/{id}/media", uploaders).
		Set(http.MethodGet, p+"/news/media/photo-stats", uploaders).
		Set(http.MethodGet, p+"/sponsors", access.Public).
		Set(http.MethodGet, p+"/sponsors/{id}", access.Public).
		Set(http.MethodPost, p+"/sponsors", admin).
		Set(http.MethodPut, p+"/sponsors/{id}", admin).
		Set(http.MethodDelete, p+"/sponsors/{id}", admin).
		Set(http.MethodPost, p+"/sponsors/{id}/media", uploaders).
		Set(http.MethodPost, p+"/sponsors/{id}/photo", uploaders).
		Set(http.MethodPost, p+"/sponsors/{id}/logo", uploaders)
}

// NewRouter builds the HTTP handler. Authentication runs before the request
// logger so log lines carry the caller; authorization runs last, against the
// route the request will be dispatched to.
func NewRouter(d Deps) chi.Router {
	log := d.Log.With().Str("component", "http").Logger()

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Authenticate(d.Verifier, log))
	r.Use(appMiddleware.Logger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(appMiddleware.Authorize(r, RouteTable(), log))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", health(d, log))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Swagger UI at /swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route(APIPrefix, func(r chi.Router) {
		r.Post("/auth/login", d.Auth.Login)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", d.Auth.AdminLogin)
			r.Get("/me", d.Auth.Me)
		})

		r.Route("/media", func(r chi.Router) {
			r.Get("/", d.Media.List)
			r.Post("/upload", d.Media.Upload)
			r.Get("/{fileName}", d.Media.Get)
			r.Delete("/{fileName}", d.Media.Delete)
		})
		r.Delete("/media-records/{mediaId}", d.Media.DeleteRecord)

		r.Route("/news", func(r chi.Router) {
			r.Get("/", d.News.List)
			r.Post("/", d.News.Create)
			r.Get("/media/photo-stats", d.News.PhotoStats)
			r.Get("/{id}", d.News.Get)
			r.Put("/{id}", d.News.Update)
			r.Delete("/{id}", d.News.Delete)
			r.Post("/{id}/media", d.News.UploadMedia)
		})

		r.Route("/sponsors", func(r chi.Router) {
			r.Get("/", d.Sponsors.List)
			r.Post("/", d.Sponsors.Create)
			r.Get("/{id}", d.Sponsors.Get)
			r.Put("/{id}", d.Sponsors.Update)
			r.Delete("/{id}", d.Sponsors.Delete)
			r.Post("/{id}/media", d.Sponsors.UploadMedia)
			r.Post("/{id}/photo", d.Sponsors.UploadPhoto)
			r.Post("/{id}/logo", d.Sponsors.UploadLogo)
		})
	})

	return r
}

func health(d Deps, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := map[string]string{"database": "ok", "storage": "ok"}
		healthy := true
		if d.DB != nil {
			if err := d.DB.Ping(ctx); err != nil {
				log.Warn().Err(err).Msg("database health check failed")
				status["database"] = "unavailable"
				healthy = false
			}
		}
		if d.Store != nil {
			if err := d.Store.Health(ctx); err != nil {
				log.Warn().Err(err).Msg("storage health check failed")
				status["storage"] = "unavailable"
				healthy = false
			}
		}

		if !healthy {
			response.JSON(w, http.StatusServiceUnavailable, response.Envelope{Success: false, Data: status, Error: "degraded"})
			return
		}
		response.OK(w, status)
	}
}
