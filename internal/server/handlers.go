package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/Tyrowin/roomchat/internal/protocol"
	"github.com/Tyrowin/roomchat/internal/store"
)

// handleWebSocket is the upgrade entry point. Plain requests get 426;
// upgrades are authenticated and bound to a new Session.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !websocket.IsWebSocketUpgrade(r) {
		w.Header().Set("Connection", "Upgrade")
		w.Header().Set("Upgrade", "websocket")
		http.Error(w, "Upgrade Required", http.StatusUpgradeRequired)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(conn, s.hub, r.RemoteAddr, s.config)
	session := NewSession(s.ctx, client, s.sessionDeps())
	client.session = session

	session.Activate(s.resolver.Resolve(r.Context(), r.Header, r.Cookies()))

	if !s.hub.Register(client) {
		log.Printf("Rejecting connection from %s: server is shutting down", r.RemoteAddr)
		session.Close()
		client.closeConnection()
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
func HealthHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Chat server is running!")
}

type createChatRequest struct {
	Title string `json:"title"`
}

type messageResponse struct {
	ID        string `json:"id"`
	ChatID    string `json:"chatId"`
	UserID    string `json:"userId,omitempty"`
	UserName  string `json:"userName"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

type subscribersResponse struct {
	ChatID      string `json:"chatId"`
	Subscribers int    `json:"subscribers"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	chats, err := s.store.ListChats(r.Context())
	if err != nil {
		log.Printf("Failed to list chats: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list chats"})
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.config.MaxMessageSize)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	chat, err := s.store.CreateChat(r.Context(), req.Title)
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "title is required"})
			return
		}
		log.Printf("Failed to create chat: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to create chat"})
		return
	}
	writeJSON(w, http.StatusCreated, chat)
}

func (s *Server) handleRecentMessages(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	chatID := ps.ByName("chatId")
	if _, err := s.store.FindChatByID(r.Context(), chatID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "chat not found"})
			return
		}
		log.Printf("Failed to load chat %s: %v", chatID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load chat"})
		return
	}

	msgs, err := s.store.RecentMessages(r.Context(), chatID, s.config.HistoryLimit)
	if err != nil {
		log.Printf("Failed to load messages for chat %s: %v", chatID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load messages"})
		return
	}

	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp := messageResponse{
			ID:        m.ID,
			ChatID:    m.ChatID,
			UserName:  m.AuthorName("anonymous"),
			Content:   m.Content,
			CreatedAt: protocol.FormatTime(m.CreatedAt),
		}
		if m.UserID != nil {
			resp.UserID = *m.UserID
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSubscriberCount(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	chatID := ps.ByName("chatId")
	writeJSON(w, http.StatusOK, subscribersResponse{
		ChatID:      chatID,
		Subscribers: s.registry.SubscriberCount(chatID),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error writing JSON response: %v", err)
	}
}

// TestPageHandler serves an HTML page for trying the chat protocol by hand.
func TestPageHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := fmt.Fprint(w, testPageHTML); err != nil {
		log.Printf("Error writing HTML response: %v", err)
	}
}

// requestTimeout bounds the JSON API handlers.
const requestTimeout = 10 * time.Second

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Chat Rooms WebSocket Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages { border: 1px solid #ccc; height: 300px; padding: 10px; overflow-y: scroll; margin: 10px 0; background-color: #f9f9f9; }
        input[type="text"] { width: 240px; padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; background-color: #007cba; color: white; border: none; cursor: pointer; }
        button:hover { background-color: #005a87; }
        .system { color: gray; font-style: italic; }
        .own { color: blue; }
        .remote { color: green; }
    </style>
</head>
<body>
    <h1>Chat Rooms WebSocket Test</h1>
    <div>
        <input type="text" id="chatId" placeholder="Chat ID">
        <button onclick="subscribe()">Join</button>
        <button onclick="unsubscribe()">Leave</button>
    </div>
    <div id="messages"></div>
    <div>
        <input type="text" id="messageInput" placeholder="Type a message...">
        <button onclick="sendMessage()">Send</button>
    </div>
    <script>
        const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
        const ws = new WebSocket(proto + location.host + '/api/ws');
        const messagesDiv = document.getElementById('messages');
        let myChat = '';

        function addLine(text, cls) {
            const el = document.createElement('div');
            el.className = cls;
            el.textContent = text;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        ws.onopen = () => addLine('Connected', 'system');
        ws.onclose = () => addLine('Connection closed', 'system');
        ws.onmessage = (event) => {
            const msg = JSON.parse(event.data);
            const cls = msg.type === 'system_message' ? 'system' : 'remote';
            addLine('[' + (msg.createdAt || '') + '] ' + msg.userName + ': ' + msg.content, cls);
        };

        function subscribe() {
            myChat = document.getElementById('chatId').value.trim();
            if (myChat) ws.send(JSON.stringify({ type: 'subscribe', chatId: myChat }));
        }

        function unsubscribe() {
            if (myChat) ws.send(JSON.stringify({ type: 'unsubscribe', chatId: myChat }));
        }

        function sendMessage() {
            const input = document.getElementById('messageInput');
            const content = input.value.trim();
            if (content && myChat) {
                ws.send(JSON.stringify({ type: 'chat_message', chatId: myChat, content: content }));
                input.value = '';
            }
        }
    </script>
</body>
</html>`
