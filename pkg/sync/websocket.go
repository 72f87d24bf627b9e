package sync

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WebSocketTransport accepts websocket clients, routes their
// subscribe/edit messages to the session manager, and pushes accepted
// edits to every other subscriber of the session.
type WebSocketTransport struct {
	manager  *Manager
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu    gosync.RWMutex
	conns map[string]*wsClient // clientID -> connection
}

// wsClient is one connected peer and its outbound queue.
type wsClient struct {
	id       string
	conn     *websocket.Conn
	send     chan *Message
	sessions map[string]struct{}
}

// NewWebSocketTransport creates a transport over the given manager.
func NewWebSocketTransport(manager *Manager, logger *slog.Logger) *WebSocketTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketTransport{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
		conns:  make(map[string]*wsClient),
	}
}

// ServeHTTP upgrades the request and runs the client until it
// disconnects.
func (t *WebSocketTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	client := &wsClient{
		id:       uuid.NewString(),
		conn:     conn,
		send:     make(chan *Message, 64),
		sessions: make(map[string]struct{}),
	}
	t.mu.Lock()
	t.conns[client.id] = client
	t.mu.Unlock()
	t.logger.Info("client connected", "client_id", client.id)

	if msg, err := NewMessage(MessageTypeWelcome, "", map[string]string{"client_id": client.id}); err == nil {
		client.send <- msg
	}

	go t.writeLoop(client)
	t.readLoop(r.Context(), client)
}

// readLoop dispatches inbound messages until the connection drops.
func (t *WebSocketTransport) readLoop(ctx context.Context, client *wsClient) {
	defer t.disconnect(client)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				t.logger.Warn("client read error", "client_id", client.id, "err", err)
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.sendError(client, "bad_message", "message is not valid JSON")
			continue
		}
		t.dispatch(ctx, client, &msg)
	}
}

// writeLoop drains the outbound queue and keeps the connection alive.
func (t *WebSocketTransport) writeLoop(client *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch handles one inbound message.
func (t *WebSocketTransport) dispatch(ctx context.Context, client *wsClient, msg *Message) {
	switch msg.Type {
	case MessageTypeSubscribe:
		var data SubscribeData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			t.sendError(client, "bad_subscribe", "malformed subscribe payload")
			return
		}
		t.handleSubscribe(ctx, client, data)

	case MessageTypeUnsubscribe:
		if msg.SessionID != "" {
			t.manager.Leave(msg.SessionID, client.id)
			delete(client.sessions, msg.SessionID)
		}

	case MessageTypeEdit:
		var data EditData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			t.sendError(client, "bad_edit", "malformed edit payload")
			return
		}
		t.handleEdit(ctx, client, data)

	default:
		t.sendError(client, "unknown_type", "unsupported message type "+string(msg.Type))
	}
}

// handleSubscribe joins (or creates) a session and replies with a
// snapshot.
func (t *WebSocketTransport) handleSubscribe(ctx context.Context, client *wsClient, data SubscribeData) {
	sessionID := data.SessionID
	if sessionID == "" {
		s, err := t.manager.CreateSession(ctx, data.InitialText)
		if err != nil {
			t.sendError(client, "create_failed", err.Error())
			return
		}
		sessionID = s.ID
	}
	if _, err := t.manager.Join(sessionID, client.id); err != nil {
		t.sendError(client, "join_failed", err.Error())
		return
	}
	client.sessions[sessionID] = struct{}{}

	s, _ := t.manager.GetSession(sessionID)
	content, rev := s.Snapshot()
	snapshot := SnapshotData{
		SessionID: sessionID,
		Content:   content,
		Revision:  rev,
		UpdatedAt: time.Now().UnixMilli(),
	}
	if msg, err := NewMessage(MessageTypeSnapshot, sessionID, snapshot); err == nil {
		client.send <- msg
	}
}

// handleEdit applies an edit and fans the accepted delta out to the
// session's other subscribers.
func (t *WebSocketTransport) handleEdit(ctx context.Context, client *wsClient, data EditData) {
	result, err := t.manager.ApplyEdit(ctx, data.SessionID, data.Revision, data.Delta)
	if err != nil {
		t.sendError(client, "edit_failed", err.Error())
		return
	}

	ack := AckData{
		SessionID: data.SessionID,
		Revision:  result.Revision,
		Applied:   result.Applied,
		Partial:   result.Partial,
	}
	if msg, err := NewMessage(MessageTypeAck, data.SessionID, ack); err == nil {
		client.send <- msg
	}
	if result.Delta == "" {
		// Nothing landed; nothing to broadcast.
		return
	}

	remote := RemoteEditData{
		SessionID: data.SessionID,
		ClientID:  client.id,
		Revision:  result.Revision,
		Delta:     result.Delta,
	}
	msg, err := NewMessage(MessageTypeRemote, data.SessionID, remote)
	if err != nil {
		return
	}
	t.broadcast(data.SessionID, client.id, msg)
}

// broadcast queues a message for every subscriber of the session
// except the originator. A subscriber with a full queue is skipped.
func (t *WebSocketTransport) broadcast(sessionID, exceptID string, msg *Message) {
	s, ok := t.manager.GetSession(sessionID)
	if !ok {
		return
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, clientID := range s.Clients() {
		if clientID == exceptID {
			continue
		}
		if c, ok := t.conns[clientID]; ok {
			select {
			case c.send <- msg:
			default:
				t.logger.Warn("dropping message for slow client", "client_id", clientID)
			}
		}
	}
}

// sendError queues an error message.
func (t *WebSocketTransport) sendError(client *wsClient, code, message string) {
	if msg, err := NewMessage(MessageTypeError, "", ErrorData{Code: code, Message: message}); err == nil {
		select {
		case client.send <- msg:
		default:
		}
	}
}

// disconnect tears a client down and leaves its sessions.
func (t *WebSocketTransport) disconnect(client *wsClient) {
	t.mu.Lock()
	delete(t.conns, client.id)
	t.mu.Unlock()
	for sessionID := range client.sessions {
		t.manager.Leave(sessionID, client.id)
	}
	close(client.send)
	client.conn.Close()
	t.logger.Info("client disconnected", "client_id", client.id)
}
