package server

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// routes builds the router for every endpoint the server exposes.
func (s *Server) routes() *httprouter.Router {
	router := httprouter.New()
	router.GET("/", HealthHandler)
	router.GET("/test", TestPageHandler)
	// Every method reaches the entry point so non-upgrade requests get 426.
	for _, method := range []string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
	} {
		router.Handle(method, "/api/ws", s.handleWebSocket)
	}
	router.GET("/api/chats", withTimeout(s.handleListChats))
	router.POST("/api/chats", withTimeout(s.handleCreateChat))
	router.GET("/api/chats/:chatId/messages", withTimeout(s.handleRecentMessages))
	router.GET("/api/chats/:chatId/subscribers", s.handleSubscriberCount)
	return router
}

// withTimeout bounds a JSON API handler's request context.
func withTimeout(h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		h(w, r.WithContext(ctx), ps)
	}
}
