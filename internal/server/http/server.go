// Package httpserver exposes the vault JSON API over HTTP.
package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/and161185/zkvault/internal/service"
	"github.com/and161185/zkvault/internal/token"
)

// maxBodyBytes caps request bodies; a ciphertext blob plus JSON framing fits comfortably.
const maxBodyBytes = service.MaxCiphertextLen + 4<<10

// Server wires services into HTTP handlers.
type Server struct {
	accounts service.AccountService
	vault    service.VaultService
	tokens   token.Verifier
	log      *zap.Logger
}

// New constructs the HTTP API with injected services.
func New(accounts service.AccountService, vault service.VaultService, tokens token.Verifier, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{accounts: accounts, vault: vault, tokens: tokens, log: log}
}

// Routes returns the router with middleware applied.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Recover(s.log))
	r.Use(Logging(s.log))

	r.Post("/signup", s.signup)
	r.Post("/login", s.login)

	r.Route("/vault", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/", s.createItem)
		r.Get("/", s.listItems)
		r.Put("/{id}", s.updateItem)
		r.Delete("/{id}", s.deleteItem)
	})
	return r
}
