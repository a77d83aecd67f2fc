package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomchat/internal/auth"
	"github.com/Tyrowin/roomchat/internal/hub"
	"github.com/Tyrowin/roomchat/internal/store"
)

// ChatStore is the storage the server needs: message persistence for
// sessions plus the chat lookups behind the JSON API.
type ChatStore interface {
	MessageStore
	CreateChat(ctx context.Context, title string) (*store.Chat, error)
	FindChatByID(ctx context.Context, id string) (*store.Chat, error)
	ListChats(ctx context.Context) ([]*store.Chat, error)
	RecentMessages(ctx context.Context, chatID string, limit int) ([]*store.ChatMessage, error)
}

// Dependencies are the collaborators a Server is built from.
type Dependencies struct {
	Registry *hub.Registry
	Store    ChatStore
	// Resolver identifies connections; nil treats everyone as anonymous.
	Resolver auth.Resolver
}

// Server owns the HTTP endpoints, the live clients and the room registry
// shared by their sessions.
type Server struct {
	config     Config
	registry   *hub.Registry
	dispatcher *hub.Dispatcher
	store      ChatStore
	resolver   auth.Resolver
	hub        *Hub
	upgrader   websocket.Upgrader
	handler    http.Handler
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a Server from cfg and deps.
func New(cfg Config, deps Dependencies) *Server {
	cfg = sanitizeConfig(cfg)

	registry := deps.Registry
	if registry == nil {
		registry = hub.NewRegistry()
	}
	resolver := deps.Resolver
	if resolver == nil {
		resolver = auth.Static(auth.Anonymous())
	}

	ctx, cancel := context.WithCancel(context.Background())
	origins := newOriginPolicy(cfg.AllowedOrigins)

	s := &Server{
		config:     cfg,
		registry:   registry,
		dispatcher: hub.NewDispatcher(registry),
		store:      deps.Store,
		resolver:   resolver,
		hub:        NewHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.checkOrigin,
		},
		ctx:    ctx,
		cancel: cancel,
	}
	s.handler = s.routes()
	s.httpServer = CreateServer(cfg.Port, s.handler)
	return s
}

// CreateServer creates and configures an HTTP server with the specified port and handler.
// It sets reasonable timeout values for production use.
func CreateServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func (s *Server) sessionDeps() SessionDeps {
	return SessionDeps{
		Registry:      s.registry,
		Dispatcher:    s.dispatcher,
		Store:         s.store,
		AnonymousName: s.config.AnonymousName,
		AutoReply:     s.config.AutoReply,
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the tracker of live clients.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Registry returns the room registry shared by all sessions.
func (s *Server) Registry() *hub.Registry {
	return s.registry
}

// Config returns the sanitized configuration in use.
func (s *Server) Config() Config {
	return s.config
}

// Start listens on the configured port and blocks until the server stops.
// It returns nil after a graceful Shutdown.
func (s *Server) Start() error {
	log.Printf("Server listening on port %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, closes every client and cancels
// pending session work. It waits until ctx is done at most.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		errs = append(errs, err)
	}

	s.cancel()

	timeout := s.config.ShutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := s.hub.Shutdown(timeout); err != nil {
		errs = append(errs, err)
	}

	log.Println("Server shutdown completed")
	return errors.Join(errs...)
}
