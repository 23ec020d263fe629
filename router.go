package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	httpSwagger "github.com/swaggo/http-swagger"
)

// routes wires middlewares and endpoints. CORS origins come from CORS_ORIGINS.
func (a *App) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(withRequestID)
	r.Use(a.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{"Link", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=60")
		w.Write(openapiYAML)
	})

	r.Mount("/swagger", httpSwagger.Handler(
		httpSwagger.URL("/api/openapi.yaml"),
	))

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", a.handleHealth)
		api.Get("/model-info", a.handleModelInfo)
		api.Get("/ml-status", a.handleMLStatus)
		api.Post("/predict", a.handlePredict)

		api.Post("/auth/register", a.handleRegister)
		api.Post("/auth/login", a.handleLogin)

		api.Group(func(cr chi.Router) {
			cr.Use(a.optionalAuth)
			cr.Post("/chat", a.handleChat)
			cr.Get("/chat/info", a.handleChatInfo)
		})

		api.Group(func(pr chi.Router) {
			pr.Use(a.authMiddleware)
			pr.Get("/me", a.handleMe)

			pr.Route("/farms", func(fr chi.Router) {
				fr.Get("/", a.handleListFarms)
				fr.Post("/", a.handleCreateFarm)
				fr.Get("/{id}", a.handleGetFarm)
				fr.Put("/{id}", a.handleUpdateFarm)
				fr.Delete("/{id}", a.handleDeleteFarm)
				fr.Post("/{id}/predict", a.handlePredictFarm)
				fr.Get("/{id}/predictions", a.handleListPredictions)
			})
		})
	})

	return r
}
