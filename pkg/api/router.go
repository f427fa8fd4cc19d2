package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andrewtheguy/s3browser-sub000/internal/logger"
	"github.com/andrewtheguy/s3browser-sub000/pkg/api/handlers"
	apimiddleware "github.com/andrewtheguy/s3browser-sub000/pkg/api/middleware"
	"github.com/andrewtheguy/s3browser-sub000/pkg/metrics"
	"github.com/andrewtheguy/s3browser-sub000/pkg/services"
)

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - A per-tier request timeout (spec.md §5): QuickTimeout for routes that
//     only touch S3's control plane, DataTimeout for routes that stream
//     object bytes through the gateway
//
// Routes:
//   - GET  /health                                      - Liveness probe
//   - GET  /metrics                                      - Prometheus metrics (if enabled)
//   - POST /api/auth/login, /api/auth/logout             - Session login/logout
//   - GET  /api/auth/session                              - Session status
//   - GET  /api/auth/export/:id                           - Profile export
//   - /api/connections/*                                  - Saved connection CRUD + bind
//   - GET  /api/buckets/:connId, /api/bucket/:connId/:bucket/info
//   - /api/objects/:connId/:bucket/*                       - List/metadata/delete/copy/move/folder
//   - /api/download/:connId/:bucket/{url,preview}
//   - /api/upload/{initiate,part,complete,abort,single}
func NewRouter(svc *services.Services, cfg APIConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.Liveness)

	if cfg.MetricsEnabled && metrics.IsEnabled() {
		r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	}

	sessionHandler := handlers.NewSessionHandler(svc.Sessions)
	connectionHandler := handlers.NewConnectionHandler(svc.Vault, svc.Sessions)
	exportHandler := handlers.NewExportHandler(svc.Vault)
	bucketHandler := handlers.NewBucketHandler(svc)
	objectHandler := handlers.NewObjectHandler(svc)
	downloadHandler := handlers.NewDownloadHandler(svc)
	uploadHandler := handlers.NewUploadHandler(svc)

	quickTimeout := chimiddleware.Timeout(cfg.QuickTimeout)
	dataTimeout := chimiddleware.Timeout(cfg.DataTimeout)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(quickTimeout).Post("/login", sessionHandler.Login)
			r.With(quickTimeout).Post("/logout", sessionHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(apimiddleware.OptionalSessionAuth(svc.Sessions))
				r.With(quickTimeout).Get("/session", sessionHandler.Status)
			})

			r.Group(func(r chi.Router) {
				r.Use(apimiddleware.SessionAuth(svc.Sessions))
				r.With(quickTimeout).Get("/export/{id}", exportHandler.Export)
			})
		})

		// Every route below requires an authenticated session.
		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.SessionAuth(svc.Sessions))
			r.Use(quickTimeout)

			r.Route("/connections", func(r chi.Router) {
				r.Get("/", connectionHandler.List)
				r.Post("/", connectionHandler.Save)
				r.Delete("/{id}", connectionHandler.Delete)
				r.Post("/{id}/bind", connectionHandler.Bind)
			})

			// Every route below names a :connId path segment and operates
			// on S3 directly, so spec.md §4.2's binding invariant applies:
			// the session must have bound this exact connection via
			// POST /connections/:id/bind first.
			r.Group(func(r chi.Router) {
				r.Use(apimiddleware.RequireBoundConnection)

				r.Get("/buckets/{connId}", bucketHandler.List)
				r.Get("/bucket/{connId}/{bucket}/info", bucketHandler.Info)

				r.Route("/objects/{connId}/{bucket}", func(r chi.Router) {
					r.Get("/", objectHandler.List)
					r.Get("/metadata", objectHandler.Metadata)
					r.Delete("/", objectHandler.Delete)
					r.Post("/batch-delete", objectHandler.BatchDelete)
					r.Post("/folder", objectHandler.CreateFolder)
					r.Post("/copy", objectHandler.Copy)
					r.Post("/batch-copy", objectHandler.BatchCopy)
					r.Post("/move", objectHandler.Move)
					r.Post("/batch-move", objectHandler.BatchMove)

					// spec.md §4.6: absent entirely, not merely 403ing, when
					// the operator hasn't enabled it.
					if svc.SeedTestItemsEnabled {
						r.Post("/seed-test-items", objectHandler.SeedTestItems)
					}
				})

				r.Get("/download/{connId}/{bucket}/url", downloadHandler.URL)
				r.Get("/download/{connId}/{bucket}/preview", downloadHandler.Preview)
			})
		})

		// Upload routes stream object bytes, so they run under the longer
		// data timeout instead of the quick one.
		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.SessionAuth(svc.Sessions))
			r.Use(dataTimeout)

			r.Route("/upload", func(r chi.Router) {
				r.Post("/initiate", uploadHandler.Initiate)
				r.Post("/part", uploadHandler.Part)
				r.Post("/complete", uploadHandler.Complete)
				r.Post("/abort", uploadHandler.Abort)
				r.Post("/single", uploadHandler.Single)
			})
		})
	})

	return r
}

// requestLogger logs each request's method, path, status, and duration via
// the internal logger, attaching a per-request logger.LogContext so
// downstream handlers' logger.*Ctx calls carry the same request id.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chimiddleware.GetReqID(r.Context())

		lc := logger.NewLogContext()
		lc.RequestID = requestID
		lc.ClientIP = r.RemoteAddr
		ctx := logger.WithContext(r.Context(), lc)

		logger.Debug("request started", "request_id", requestID, "method", r.Method, "path", r.URL.Path)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.Info("request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
