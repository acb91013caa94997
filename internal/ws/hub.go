package ws

import (
	"encoding/json"
	"sync"

	"sniperok/internal/domain"
	"sniperok/internal/logger"

	"golang.org/x/time/rate"
)

type HubConfig struct {
	Welcome    string
	EventRate  rate.Limit
	EventBurst int
	// AnnounceJoins tells everyone else when a registered user connects.
	AnnounceJoins bool
}

// Hub routes realtime events between connections. Rooms are named groups:
// userRoom:<username> and gameRoom:<id>. worldChat goes to every connection.
// Delivery is at most once, to whoever is connected right now.
type Hub struct {
	cfg HubConfig

	mu      sync.RWMutex
	clients map[*Client]map[string]struct{} // client -> rooms it joined
	rooms   map[string]map[*Client]struct{}
}

func NewHub(cfg HubConfig) *Hub {
	if cfg.EventRate <= 0 {
		cfg.EventRate = rate.Inf
	}
	if cfg.EventBurst <= 0 {
		cfg.EventBurst = 1
	}
	return &Hub{
		cfg:     cfg,
		clients: make(map[*Client]map[string]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

// register adds the connection, puts registered users into their user room
// and queues the welcome event.
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = make(map[string]struct{})
	if c.identity.IsRegistered() && c.identity.Username != "" {
		h.joinLocked(c, domain.UserRoom(c.identity.Username))
	}
	h.mu.Unlock()

	wsConnections.Inc()
	logger.Debug("ws connected", "user", c.identity.DisplayName(), "registered", c.identity.IsRegistered())

	welcome := domain.Message{Type: domain.MsgEventFromServer, Sender: serverSender, Text: h.cfg.Welcome}
	if frame, err := encodeFrame(domain.MsgEventFromServer, welcome); err == nil {
		h.deliver(c, frame)
	}

	if h.cfg.AnnounceJoins && c.identity.IsRegistered() && c.identity.Username != "" {
		h.announce(c)
	}
}

// announce sends a welcome worldChat about c to every other connection. The
// text ends with @username, which clients turn into an add-buddy link.
func (h *Hub) announce(c *Client) {
	name := c.identity.Username
	msg := domain.Message{
		Type:   domain.MsgWelcome,
		Sender: serverSender,
		Text:   name + " is online, say hi to @" + name,
	}
	frame, err := encodeFrame(domain.MsgWorldChat, msg)
	if err != nil {
		logger.Error("ws encode failed", "event", domain.MsgWorldChat, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for other := range h.clients {
		if other != c {
			h.deliverLocked(other, frame)
		}
	}
	wsEvents.WithLabelValues(string(domain.MsgWelcome)).Inc()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	rooms, ok := h.clients[c]
	if ok {
		for name := range rooms {
			members := h.rooms[name]
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, name)
			}
		}
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	if ok {
		wsConnections.Dec()
		logger.Debug("ws disconnected", "user", c.identity.DisplayName())
	}
}

func (h *Hub) joinLocked(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	h.clients[c][room] = struct{}{}
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		h.joinLocked(c, room)
	}
}

func (h *Hub) inRoom(c *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[room][c]
	return ok
}

// RoomSize is the number of connections in room. WorldRoom counts everyone.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room == domain.WorldRoom {
		return len(h.clients)
	}
	return len(h.rooms[room])
}

// PublishGame sends a server event to everyone in the game's room.
func (h *Hub) PublishGame(gameID int64, msg domain.Message) {
	if msg.Sender == "" {
		msg.Sender = serverSender
	}
	h.emit(domain.GameRoomFor(gameID), msg.Type, msg)
}

// emit sends to a room, or to every connection for WorldRoom.
func (h *Hub) emit(room string, event domain.MessageType, msg domain.Message) {
	frame, err := encodeFrame(event, msg)
	if err != nil {
		logger.Error("ws encode failed", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if room == domain.WorldRoom {
		for c := range h.clients {
			h.deliverLocked(c, frame)
		}
	} else {
		for c := range h.rooms[room] {
			h.deliverLocked(c, frame)
		}
	}
	wsEvents.WithLabelValues(string(event)).Inc()
}

func (h *Hub) deliver(c *Client, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.deliverLocked(c, frame)
}

// deliverLocked never blocks; a full buffer drops the frame for that client.
// Callers hold h.mu, so c.send can't be closed underneath us.
func (h *Hub) deliverLocked(c *Client, frame []byte) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- frame:
	default:
		wsDropped.WithLabelValues(dropSlowConsumer).Inc()
	}
}

func drop(c *Client, event domain.MessageType, reason string) {
	wsDropped.WithLabelValues(reason).Inc()
	logger.Debug("ws event dropped", "event", event, "reason", reason, "user", c.identity.DisplayName())
}

// handle routes one inbound frame.
func (h *Hub) handle(c *Client, raw []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		drop(c, "", dropMalformed)
		return
	}
	var msg domain.Message
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			drop(c, env.Event, dropMalformed)
			return
		}
	}
	if msg.Type == "" {
		msg.Type = env.Event
	}

	switch env.Event {
	case domain.MsgWorldChat:
		if !c.identity.IsRegistered() {
			drop(c, env.Event, dropAnonymous)
			return
		}
		msg.Sender = c.identity.DisplayName()
		h.emit(domain.WorldRoom, env.Event, msg)

	case domain.MsgUserChat:
		if !c.identity.IsRegistered() {
			drop(c, env.Event, dropAnonymous)
			return
		}
		if msg.Receiver == "" {
			drop(c, env.Event, dropNoReceiver)
			return
		}
		msg.Sender = c.identity.DisplayName()
		h.emit(domain.UserRoom(msg.Receiver), env.Event, msg)

	case domain.MsgJoinGame:
		if msg.GameID == "" {
			drop(c, env.Event, dropNoGame)
			return
		}
		room := domain.GameRoom(msg.GameID)
		h.join(c, room)
		h.emit(room, env.Event, h.withSender(c, msg))

	case domain.MsgGameChat, domain.MsgStartRound, domain.MsgRoundPlayed, domain.MsgNextRound:
		if msg.GameID == "" {
			drop(c, env.Event, dropNoGame)
			return
		}
		room := domain.GameRoom(msg.GameID)
		if !h.inRoom(c, room) {
			drop(c, env.Event, dropNotInRoom)
			return
		}
		h.emit(room, env.Event, h.withSender(c, msg))

	default:
		drop(c, env.Event, dropUnknownEvent)
	}
}

// withSender replaces an empty or placeholder sender with the connection's name.
func (h *Hub) withSender(c *Client, msg domain.Message) domain.Message {
	if msg.Sender == "" || msg.Sender == domain.GuestName {
		msg.Sender = c.identity.DisplayName()
	}
	return msg
}
