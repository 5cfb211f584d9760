package http

import (
	"net/http"

	_ "github.com/briannabogos1157/threadtwin/docs" // Импорт сгенерированных файлов
	"github.com/briannabogos1157/threadtwin/internal/usecase"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

// Init регистрирует маршруты API. metrics может быть nil.
func (r *Router) Init(embUC usecase.EmbeddingUC, prUC usecase.ProductUC, metrics *Metrics, maxBodyBytes int64) {
	r.router.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	if metrics != nil {
		r.router.Use(metrics.Middleware)
		r.router.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.router.Get("/health", health)
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api", func(api chi.Router) {
		embHandler := NewEmbeddingHandler(embUC, r.logger, maxBodyBytes)
		registerEmbeddingRoutes(api, embHandler)

		prHandler := NewProductHandler(prUC, r.logger)
		registerProductRoutes(api, prHandler)
	})
}

func registerEmbeddingRoutes(router chi.Router, h *EmbeddingHandler) {
	router.Route("/embedding", func(er chi.Router) {
		er.Post("/upload", h.uploadEmbedding)
		er.Post("/find-similar", h.findSimilar)
		er.Get("/stats", h.stats)
		er.Get("/{id}", h.getEmbedding)
		er.Delete("/{id}", h.deleteEmbedding)
	})
}

func registerProductRoutes(router chi.Router, h *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/search", h.searchProducts)
	})
}

// health
//
//	@Summary	Проверка доступности
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/health [get]
func health(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
