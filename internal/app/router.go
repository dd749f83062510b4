package app

import (
	"database/sql"
	"net/http"
	"time"

	"mcqstudio/internal/app/observability"
	"mcqstudio/internal/auth"
	"mcqstudio/internal/exam"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(cfg Config, db *sql.DB) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	collector := observability.NewCollector(db)
	r.Use(collector.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authSvc := auth.NewService(db, auth.ServiceConfig{
		SessionTTL:     time.Duration(cfg.SessionTTLHours) * time.Hour,
		BootstrapToken: cfg.BootstrapToken,
	})
	authHandler := auth.NewHandler(authSvc)

	examSvc := exam.NewService(db)
	examHandler := exam.NewHandler(examSvc)

	parseLimiter := NewIPRateLimiter(cfg.ParseRateLimitPerMin, time.Minute)
	authLimiter := NewIPRateLimiter(cfg.AuthRateLimitPerMin, time.Minute)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	r.Route("/api/v1", func(api chi.Router) {
		// Engine endpoints are pure functions over the request body, so
		// they need no session; only a rate limit.
		api.Group(func(engine chi.Router) {
			engine.Use(RateLimitMiddleware(parseLimiter))
			engine.Use(countEngineOps(collector))
			engine.Post("/mcq/parse", examHandler.Parse)
			engine.Post("/mcq/validate", examHandler.Validate)
			engine.Post("/mcq/shuffle", examHandler.Shuffle)
			engine.Post("/mcq/answer-key/parse", examHandler.ParseAnswerKey)
			engine.Post("/mcq/answer-key/apply", examHandler.ApplyAnswerKey)
			engine.Post("/mcq/output", examHandler.Output)
		})

		api.Group(func(login chi.Router) {
			login.Use(RateLimitMiddleware(authLimiter))
			login.Post("/bootstrap/init", authHandler.BootstrapInit)
			login.Post("/auth/login", authHandler.Login)
		})

		api.Group(func(secure chi.Router) {
			secure.Use(authHandler.RequireAuth)
			secure.Use(CSRFMiddleware(cfg.CSRFEnforced))
			secure.Get("/auth/me", authHandler.Me)
			secure.Post("/auth/logout", authHandler.Logout)

			secure.Get("/exams", examHandler.ListExams)
			secure.Post("/exams", examHandler.CreateExam)
			secure.Get("/exams/{id}", examHandler.GetExam)
			secure.Put("/exams/{id}", examHandler.UpdateExam)
			secure.Delete("/exams/{id}", examHandler.DeleteExam)
			secure.Get("/exams/{id}/export.xlsx", examHandler.ExportExcel)

			secure.Get("/admin/metrics", collector.MetricsHandler)
		})
	})

	return r
}

// countEngineOps feeds the metrics collector from the engine route names.
func countEngineOps(c *observability.Collector) func(http.Handler) http.Handler {
	ops := map[string]string{
		"/api/v1/mcq/parse":            "parse",
		"/api/v1/mcq/validate":         "validate",
		"/api/v1/mcq/shuffle":          "shuffle",
		"/api/v1/mcq/answer-key/parse": "answer_key_parse",
		"/api/v1/mcq/answer-key/apply": "answer_key_apply",
		"/api/v1/mcq/output":           "output",
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if op, ok := ops[r.URL.Path]; ok {
				c.CountEngineOp(op)
			}
			next.ServeHTTP(w, r)
		})
	}
}
