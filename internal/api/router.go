package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/courtroom-studio/engine/internal/api/handlers"
	mw "github.com/courtroom-studio/engine/internal/api/middleware"
	"github.com/courtroom-studio/engine/internal/models"
)

type Dependencies struct {
	HMACSecret  []byte
	Limiter     *mw.Limiter
	Ready       handlers.Pinger
	DocsURL     string
	Auth        *handlers.AuthHandler
	Scenarios   *handlers.ScenariosHandler
	Roles       *handlers.RolesHandler
	Nodes       *handlers.NodesHandler
	Connections *handlers.ConnectionsHandler
	Imports     *handlers.ImportsHandler
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	if dep.Limiter != nil {
		r.Use(mw.RateLimit(dep.Limiter))
	}
	r.Use(chimid.Compress(5))

	hh := handlers.NewHealthHandler(dep.Ready)
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)

	docsURL := dep.DocsURL
	if docsURL == "" {
		docsURL = "/docs/doc.json"
	}
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", dep.Auth.Register)
			ar.Post("/login", dep.Auth.Login)
			ar.Post("/logout", dep.Auth.Logout)
		})

		api.Group(func(protected chi.Router) {
			protected.Use(mw.Auth(dep.HMACSecret))

			// reads are open to every authenticated user; visibility is checked per scenario
			author := mw.RequireRole(models.UserAdmin, models.UserInstructor)

			protected.Route("/scenarios", func(sr chi.Router) {
				sr.Get("/", dep.Scenarios.List)
				sr.With(author).Post("/", dep.Scenarios.Create)

				sr.Route("/{id}", func(s chi.Router) {
					s.Get("/", dep.Scenarios.Get)
					s.Get("/validation", dep.Scenarios.Validate)
					s.Get("/outline", dep.Scenarios.Outline)
					s.Get("/graph", dep.Scenarios.Graph)
					s.Get("/export", dep.Scenarios.Export)
					s.Get("/imports", dep.Scenarios.Imports)
					s.Get("/roles", dep.Roles.List)

					s.Group(func(w chi.Router) {
						w.Use(author)
						w.Patch("/", dep.Scenarios.Update)
						w.Delete("/", dep.Scenarios.Delete)
						w.Post("/activate", dep.Scenarios.Activate)
						w.Post("/archive", dep.Scenarios.Archive)
						w.Post("/roles", dep.Roles.Create)
						w.Post("/connections", dep.Connections.Create)
					})
				})
			})

			protected.Route("/nodes/{id}", func(nr chi.Router) {
				nr.Get("/", dep.Nodes.Get)
				nr.With(author).Patch("/", dep.Nodes.Update)
				nr.With(author).Delete("/", dep.Nodes.Delete)
				nr.With(author).Put("/position", dep.Nodes.Move)
				nr.With(author).Post("/options", dep.Nodes.AddOption)
			})

			protected.Group(func(w chi.Router) {
				w.Use(author)

				w.Patch("/roles/{id}", dep.Roles.Update)
				w.Delete("/roles/{id}", dep.Roles.Delete)

				w.Post("/flows/{id}/nodes", dep.Nodes.Create)
				w.Put("/flows/{id}/order", dep.Nodes.Reorder)

				w.Patch("/options/{id}", dep.Nodes.UpdateOption)
				w.Delete("/options/{id}", dep.Nodes.DeleteOption)

				w.Delete("/connections/{id}", dep.Connections.Delete)

				w.Post("/imports", dep.Imports.Create)
			})
		})
	})

	return r
}
