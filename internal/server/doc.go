// Package server hosts the chat room WebSocket service.
//
// An upgrade request on /api/ws becomes a Client (the transport, with its
// read and write pumps) bound to a Session (the protocol state machine).
// Sessions share a hub.Registry for room membership and a hub.Dispatcher
// for fan-out; persistence and identity come from the store and auth
// packages through small interfaces. The Hub type tracks live clients so
// the server can close them all on shutdown.
package server
