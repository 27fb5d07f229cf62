package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/splitcrew/splitcrew/internal/application"
)

// Handler is the HTTP adapter entrypoint for account and expense use-cases.
// Keeping only the application dependency here preserves clean adapter boundaries.
type Handler struct {
	service *application.Service
}

// NewHandler constructs an HTTP handler bound to the application service.
func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

// NewRouter registers HTTP routes and the middleware stack.
// Centralizing routes here ensures consistent auth and error behavior across endpoints.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/accounts/v1", func(r chi.Router) {
		r.Post("/register", handler.register)
		r.Post("/login", handler.login)

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Post("/logout", handler.logout)
			r.Get("/me", handler.me)
			r.Post("/me/change-password", handler.changePassword)
			r.Get("/users", handler.listUsers)
			r.Get("/users/{user_id}", handler.getUser)
		})
	})

	r.Route("/expenses/v1", func(r chi.Router) {
		r.Use(handler.authMiddleware)
		r.Get("/", handler.listExpenses)
		r.Post("/", handler.createExpense)
		r.Get("/{expense_id}", handler.getExpense)
		r.Patch("/{expense_id}", handler.updateExpense)
		r.Delete("/{expense_id}", handler.deleteExpense)
		r.Post("/{expense_id}/pay", handler.settleExpense)
	})

	return r
}
