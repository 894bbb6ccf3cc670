package router

import (
	"net/http"

	"github.com/RoyceAzure/lab/orderadmin/internal/api"
	m "github.com/RoyceAzure/lab/orderadmin/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// SetupRouter metricsHandler 為 nil 時不掛 /metrics，bulkLimiter 為 nil 時批次操作不限流
func SetupRouter(server *api.Server, metricsHandler http.Handler, bulkLimiter *m.TokenBucket, logger *zerolog.Logger) *chi.Mux {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.LoggerMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	h := server.OrderHandler
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Put("/filter", h.SetFilter)
			r.Post("/refresh", h.Refresh)
			r.Get("/stats", h.Stats)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetOrder)
				r.Put("/status", h.SetStatus)
				r.Put("/delivery-partner", h.SetDeliveryPartner)
				r.Put("/tracking-number", h.SetTrackingNumber)
				r.Put("/notes", h.SetNotes)
			})
		})
		r.Route("/selection", func(r chi.Router) {
			r.Get("/", h.GetSelection)
			r.Post("/", h.Select)
			r.Post("/remove", h.Deselect)
			r.Post("/all-visible", h.SelectAllVisible)
			r.Delete("/", h.ClearSelection)
		})
		r.With(m.RateLimitMiddleware(bulkLimiter)).Post("/bulk", h.RunBulk)
		r.Get("/delivery-partners", h.ListDeliveryPartners)
		r.Route("/print-jobs", func(r chi.Router) {
			r.Get("/", h.ListPrintJobs)
			r.Get("/{id}", h.GetPrintJob)
			r.Delete("/{id}", h.DeletePrintJob)
		})
		r.Get("/notices", h.ListNotices)
		r.Delete("/notices", h.ClearNotices)
	})

	// 在設置完所有路由後打印路由樹
	chi.Walk(r, func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
		logger.Debug().Str("method", method).Str("route", route).Msg("route registered")
		return nil
	})

	return r
}
