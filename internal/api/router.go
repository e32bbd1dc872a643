// internal/api/router.go
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"wager-market/internal/api/handler"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Auth          *handler.AuthHandler
	Contracts     *handler.ContractHandler
	Users         *handler.UserHandler
	Notifications *handler.NotificationHandler
}

// NewRouter sets up and returns a new HTTP router.
func NewRouter(h Handlers, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID) // journal rows carry this id
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Post("/auth/session", h.Auth.Session)

	r.Route("/contracts", func(r chi.Router) {
		r.Get("/", h.Contracts.ListContracts)
		r.Get("/user/{userID}", h.Contracts.ListUserContracts)
		r.Get("/{contractID}", h.Contracts.GetContract)

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireIdentity)
			r.Patch("/{contractID}/claim", h.Contracts.ClaimContract)
			r.Patch("/{contractID}/cancel", h.Contracts.CancelContract)
			r.Patch("/{contractID}/resolve", h.Contracts.ResolveContract)
		})
	})

	r.Route("/user", func(r chi.Router) {
		r.Get("/by-email", h.Users.GetUserByEmail)
		r.Get("/{userID}", h.Users.GetUser)
		r.Get("/{userID}/ledger", h.Users.GetLedger)

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireIdentity)
			r.Patch("/{userID}", h.Users.UpdateUser)
			r.Post("/{userID}/newcontract", h.Users.CreateContract)
		})
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.Notifications.ListNotifications)
		r.Get("/{notificationID}", h.Notifications.GetNotification)

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireIdentity)
			r.Put("/", h.Notifications.ProposeRaise)
			r.Patch("/{notificationID}", h.Notifications.RespondToRaise)
		})
	})

	return r
}
