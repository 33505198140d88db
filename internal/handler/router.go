package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/nthweekday/internal/metrics"
	"github.com/hitoshi/nthweekday/internal/middleware"
)

// HealthChecker はヘルスチェック時の依存先疎通確認。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 暦
	DefaultFormat string
	Location      *time.Location

	// リマインダー
	ReminderService ReminderServiceInterface

	// 運用
	HealthChecker   HealthChecker       // nilの場合はDB疎通確認を省略する
	MetricsGatherer prometheus.Gatherer // nilの場合は/metricsを公開しない
	FormatRecorder  FormatRecorder
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → RequestID → RealIP → Logging → RateLimit
//
// /health と /metrics はレート制限の対象外とする。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger))

	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	ordinalHandler := NewOrdinalHandler(deps.DefaultFormat, deps.Location, deps.FormatRecorder)
	reminderHandler := NewReminderHandler(deps.ReminderService, deps.Location)

	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		r.Route("/api/ordinals", func(r chi.Router) {
			r.Get("/", ordinalHandler.Describe)
			r.Get("/all", ordinalHandler.DescribeAll)
		})

		r.Route("/api/reminders", func(r chi.Router) {
			r.Get("/", reminderHandler.List)
			r.Post("/", reminderHandler.Create)
			// {id}より先に登録する
			r.Get("/matching", reminderHandler.Matching)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", reminderHandler.Get)
				r.Delete("/", reminderHandler.Delete)
			})
		})
	})

	return r
}

// healthHandler はGET /healthのハンドラーを返す。
// checkerがあれば2秒以内の疎通確認に失敗した場合に503を返す。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}
