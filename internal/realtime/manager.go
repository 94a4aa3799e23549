package realtime

import (
	"context"
	"log"
	"net/http"
	"sync"

	"skillswap-backend/internal/auth"
	"skillswap-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins before exposing this publicly
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Store is the slice of persistence the realtime layer touches.
type Store interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*storage.User, error)
	SetUserOnline(ctx context.Context, userID uuid.UUID, connectionID string) error
	ClearUserConnection(ctx context.Context, connectionID string) (*storage.User, error)
	CompleteChat(ctx context.Context, chatID uuid.UUID) (bool, error)
	CreateMessage(ctx context.Context, msg *storage.Message) error
	TouchChat(ctx context.Context, chatID uuid.UUID, lastMessage string) error
}

// Presence announces online/offline transitions to every instance.
type Presence interface {
	PublishUserStatus(ctx context.Context, userID string, isOnline bool) error
}

// Matchmaker is the queue/matcher component driven by find_match,
// cancel_search and send_invite events.
type Matchmaker interface {
	RequestMatch(ctx context.Context, connectionID string, userID, targetID uuid.UUID) error
	SendInvite(ctx context.Context, targetUserID, senderID uuid.UUID) error
	Cancel(connectionID string) bool
}

// EventSource yields cross-instance events to relay to local clients.
type EventSource interface {
	ReceiveEvent(ctx context.Context) (*storage.Event, error)
}

// TokenVerifier authenticates the session cookie presented at the websocket
// handshake. Satisfied by auth.TokenIssuer.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// Manager owns all live connections and room membership. Registration goes
// through channels consumed by Start's loop; the clients and rooms maps are
// additionally guarded for the broadcast paths.
type Manager struct {
	store      Store
	presence   Presence
	matchmaker Matchmaker
	verifier   TokenVerifier

	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	clients map[string]*Client            // connectionID -> client
	rooms   map[string]map[string]*Client // roomID -> connectionID -> client
}

func NewManager(store Store, presence Presence, verifier TokenVerifier) *Manager {
	return &Manager{
		store:      store,
		presence:   presence,
		verifier:   verifier,
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
	}
}

// SetMatchmaker breaks the construction cycle: the matchmaker needs the
// manager as its notifier and the manager dispatches into the matchmaker.
func (m *Manager) SetMatchmaker(mm Matchmaker) {
	m.matchmaker = mm
}

func (m *Manager) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-m.register:
			m.mu.Lock()
			m.clients[client.ID] = client
			total := len(m.clients)
			m.mu.Unlock()
			log.Printf("[WS_CONNECT] Connection %s registered, total connections: %d", client.ID, total)

		case client := <-m.unregister:
			m.mu.Lock()
			if _, exists := m.clients[client.ID]; exists {
				delete(m.clients, client.ID)
				close(client.send)
			}
			for roomID, members := range m.rooms {
				delete(members, client.ID)
				if len(members) == 0 {
					delete(m.rooms, roomID)
				}
			}
			total := len(m.clients)
			m.mu.Unlock()
			log.Printf("[WS_DISCONNECT] Connection %s unregistered, total connections: %d", client.ID, total)
		}
	}
}

// RelayEvents fans cross-instance events (presence changes) out to every
// local client. Run as a goroutine next to Start.
func (m *Manager) RelayEvents(ctx context.Context, source EventSource) {
	for {
		event, err := source.ReceiveEvent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[WS_RELAY] Event relay error: %v", err)
			return
		}
		m.BroadcastAll(event.Type, event.Data)
	}
}

// HandleWebSocket authenticates the handshake via the session cookie and
// binds the connection to that user. Every later event derives its identity
// from the connection, never from client-supplied ids.
func (m *Manager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil {
		http.Error(w, `{"message":"authentication required"}`, http.StatusUnauthorized)
		return
	}
	userID, err := m.verifier.Verify(cookie.Value)
	if err != nil {
		http.Error(w, `{"message":"invalid or expired token"}`, http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS_CONNECT] Upgrade failed: %v", err)
		return
	}

	client := newClient(m, conn, userID)
	m.register <- client

	go client.writePump()
	go client.readPump()
}

// Notify implements the matchmaker's notifier: push one event to one
// connection. Unknown connections are ignored.
func (m *Manager) Notify(connectionID, event string, data map[string]any) {
	m.mu.RLock()
	client, exists := m.clients[connectionID]
	m.mu.RUnlock()

	if !exists {
		return
	}
	client.enqueue(event, data)
}

func (m *Manager) BroadcastAll(event string, data map[string]any) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		client.enqueue(event, data)
	}
}

// BroadcastRoom sends an event to every connection joined to the room,
// optionally skipping one connection (the actor, for session_ended).
func (m *Manager) BroadcastRoom(roomID, event string, data map[string]any, exceptConnID string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, client := range m.rooms[roomID] {
		if id == exceptConnID {
			continue
		}
		client.enqueue(event, data)
	}
}

// joinRoom adds the connection to a room. Previous memberships are kept:
// a connection that joins two rooms receives broadcasts for both, matching
// the longstanding client behavior.
func (m *Manager) joinRoom(client *Client, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, exists := m.rooms[roomID]
	if !exists {
		members = make(map[string]*Client)
		m.rooms[roomID] = members
	}
	members[client.ID] = client
}

func (m *Manager) leaveRoom(client *Client, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if members, exists := m.rooms[roomID]; exists {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(m.rooms, roomID)
		}
	}
}

// RoomSize reports how many connections are joined to a room.
func (m *Manager) RoomSize(roomID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[roomID])
}

// ConnectionCount reports the number of live connections.
func (m *Manager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
