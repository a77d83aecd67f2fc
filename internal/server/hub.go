package server

import (
	"context"
	"log"
	"sync"
	"time"
)

// Hub tracks every live client, runs its pumps and tears connections down
// on shutdown. Room membership lives in the hub.Registry, not here.
type Hub struct {
	clients map[*Client]struct{}
	mutex   sync.RWMutex
	wg      sync.WaitGroup
	closing bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
	}
}

// Register adds client and starts its read and write pumps. It returns
// false once the hub is shutting down; the caller must then close the
// connection itself.
func (h *Hub) Register(client *Client) bool {
	if client == nil {
		log.Printf("Received nil client registration; skipping")
		return false
	}

	h.mutex.Lock()
	if h.closing {
		h.mutex.Unlock()
		return false
	}
	h.clients[client] = struct{}{}
	clientCount := len(h.clients)
	h.wg.Add(2)
	h.mutex.Unlock()

	log.Printf("Client %s registered from %s. Total clients: %d", client.id, client.addr, clientCount)

	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
	return true
}

// Unregister removes client, stops its writes and closes its session so
// every room subscription is released.
func (h *Hub) Unregister(client *Client) {
	h.mutex.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	clientCount := len(h.clients)
	h.mutex.Unlock()

	client.markClosed()
	if client.session != nil {
		client.session.Close()
	}

	if ok {
		log.Printf("Client %s unregistered from %s. Total clients: %d", client.id, client.addr, clientCount)
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// shutdownClients closes every client connection; the read pumps then
// unregister them.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	h.mutex.Lock()
	h.closing = true
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		client.closeConnection()
	}

	log.Printf("Closed %d client connections", len(clients))
}

// Shutdown closes all connections and waits for their goroutines to finish,
// or until timeout elapses.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.shutdownClients()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
