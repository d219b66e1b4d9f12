package http

import (
	"net/http"

	_ "github.com/KarpovAlexandrGo/task-api/docs" // Для Swagger (сгенерировано swag)
	"github.com/KarpovAlexandrGo/task-api/internal/usecase"
	"github.com/KarpovAlexandrGo/task-api/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"
)

const rootMessage = "Task Management API is running"

type RouterConfig struct {
	AllowedOrigins []string
	// Registry для метрик; при nil создается отдельный реестр.
	Registry *prometheus.Registry
}

func NewRouter(taskUC usecase.TaskUseCase, cfg RouterConfig) *chi.Mux {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	metrics := NewMetrics(cfg.Registry)

	router := chi.NewRouter()

	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		RequestLogger(logger.Log),
		Recoverer(logger.Log),
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}),
		middleware.Heartbeat("/health"),
		metrics.Middleware,
	)

	router.NotFound(notFound)
	router.MethodNotAllowed(methodNotAllowed)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := w.Write([]byte(rootMessage)); err != nil {
			logger.Log.WithError(err).Warn("Failed to write response")
		}
	})
	router.Method(http.MethodGet, "/metrics", metrics.Handler())
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	NewTaskHandler(taskUC).RegisterRoutes(router)

	return router
}
