package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewHandler(
	authHandler *AuthHandler,
	taskHandler *TaskHandler,
	userHandler *UserHandler,
	gate *Authenticator,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(gate.RequireAuth)
				r.Get("/me", authHandler.Me)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(gate.RequireAuth)

			r.Post("/", taskHandler.Create)
			r.Get("/", taskHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.Get)
				r.Put("/", taskHandler.Update)
				r.Delete("/", taskHandler.Delete)

				r.Route("/assignees", func(r chi.Router) {
					r.Get("/", taskHandler.ListAssignees)
					r.Post("/", taskHandler.Assign)
					r.Delete("/{userId}", taskHandler.Unassign)
				})
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(gate.RequireAuth)

			r.Get("/{userId}", userHandler.Get)

			r.With(RequireSelf("userId")).Put("/{userId}", userHandler.Update)
			r.With(RequireSelf("userId")).Delete("/{userId}", userHandler.Delete)

			r.With(RequireSelf("userId")).Get("/{userId}/tasks", taskHandler.ListForUserPath)
		})
	})

	return r
}
