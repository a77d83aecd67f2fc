// Package testutil provides helpers shared by the chat server tests: dialing
// WebSocket connections and exchanging protocol frames over them.
package testutil

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomchat/internal/protocol"
)

// TestOrigin is the Origin header sent by ConnectWebSocket.
const TestOrigin = "http://localhost:8080"

// ReadTimeout bounds every ReadFrame call.
const ReadTimeout = 2 * time.Second

// WebSocketURL turns an httptest server URL into a ws:// URL for path.
func WebSocketURL(serverURL, path string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + path
}

// ConnectWebSocket dials url with a permitted Origin header and any extra
// headers. It returns the connection or an error if the handshake fails.
func ConnectWebSocket(url string, extra http.Header) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	for k, v := range extra {
		headers[k] = v
	}
	if headers.Get("Origin") == "" {
		headers.Set("Origin", TestOrigin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// MustConnect is ConnectWebSocket that fails the test on error and closes
// the connection at cleanup.
func MustConnect(t *testing.T, url string, extra http.Header) *websocket.Conn {
	t.Helper()
	conn, err := ConnectWebSocket(url, extra)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// WriteFrame encodes msg and writes it as one text message.
func WriteFrame(t *testing.T, conn *websocket.Conn, msg protocol.Message) {
	t.Helper()
	data, err := protocol.Encode(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// ReadFrame reads and decodes the next frame, failing after ReadTimeout.
func ReadFrame(t *testing.T, conn *websocket.Conn) protocol.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(ReadTimeout)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := protocol.Decode(data)
	require.NoError(t, err, "frame %s", data)
	return msg
}

// ReadChatMessage reads the next frame and requires it to be a chat message.
func ReadChatMessage(t *testing.T, conn *websocket.Conn) protocol.ChatMessage {
	t.Helper()
	msg := ReadFrame(t, conn)
	chat, ok := msg.(protocol.ChatMessage)
	require.True(t, ok, "expected chat_message, got %#v", msg)
	return chat
}

// ReadSystemMessage reads the next frame and requires it to be a system message.
func ReadSystemMessage(t *testing.T, conn *websocket.Conn) protocol.SystemMessage {
	t.Helper()
	msg := ReadFrame(t, conn)
	sys, ok := msg.(protocol.SystemMessage)
	require.True(t, ok, "expected system_message, got %#v", msg)
	return sys
}

// ExpectNoFrame fails if a frame arrives within wait. The connection is
// unusable for reads afterwards, since gorilla/websocket treats a read
// timeout as permanent.
func ExpectNoFrame(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(wait)))
	_, data, err := conn.ReadMessage()
	require.Error(t, err, "unexpected frame %s", data)
}

// Eventually polls cond until it holds or timeout elapses.
func Eventually(t *testing.T, cond func() bool, timeout time.Duration) {
	t.Helper()
	require.Eventually(t, cond, timeout, 10*time.Millisecond)
}

// CloseWebSocket sends a normal close frame and closes the connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}
