// Package httpapi serves the subset of the hosted backend used by the chat client.
// It is a development emulator backed by the local Badger store.
package httpapi

import (
	"log/slog"
	"net/http"
	"ticket-chat/auth"
	"ticket-chat/contract"
	"ticket-chat/services"
	"time"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// Handler holds the dependencies of the development backend
type Handler struct {
	authService    services.IAuthService
	messageService services.IMessageService
	registry       contract.IRegistry
	issuer         *auth.TokenIssuer
	anonKey        string
	bufferSize     int
	heartbeatWait  time.Duration
	log            *slog.Logger
}

func New(
	authService services.IAuthService,
	messageService services.IMessageService,
	registry contract.IRegistry,
	issuer *auth.TokenIssuer,
	anonKey string,
	bufferSize int,
	log *slog.Logger,
) *Handler {
	return &Handler{
		authService:    authService,
		messageService: messageService,
		registry:       registry,
		issuer:         issuer,
		anonKey:        anonKey,
		bufferSize:     bufferSize,
		heartbeatWait:  pongWait,
		log:            log,
	}
}

// SetupRouter configures and returns the HTTP router
func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(auth.APIKeyInterceptor(h.anonKey, writeError))

	// Auth
	authRouter := r.PathPrefix("/auth/v1").Subrouter()
	authRouter.HandleFunc("/token", h.Token).Methods(http.MethodPost)
	authRouter.Handle("/logout", auth.AuthInterceptor(h.issuer, writeError)(http.HandlerFunc(h.Logout))).
		Methods(http.MethodPost)

	// REST API
	restRouter := r.PathPrefix("/rest/v1").Subrouter()
	restRouter.Use(auth.AuthInterceptor(h.issuer, writeError))
	restRouter.HandleFunc("/group_members", h.ListGroupMembers).Methods(http.MethodGet)
	restRouter.HandleFunc("/messages", h.ListMessages).Methods(http.MethodGet)
	restRouter.HandleFunc("/messages", h.InsertMessages).Methods(http.MethodPost)
	restRouter.HandleFunc("/profiles", h.GetProfile).Methods(http.MethodGet)

	// WebSocket, the identity travels in the join payload
	r.HandleFunc("/realtime/v1/websocket", h.HandleWebSocket).Methods(http.MethodGet)

	return r
}
