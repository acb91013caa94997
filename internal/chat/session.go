package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"

	"sniperok/internal/domain"
	"sniperok/internal/game"
	"sniperok/internal/logger"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrAnonymous        = errors.New("anonymous users cannot send this message")
	ErrEmptyMessage     = errors.New("message text is empty")
	ErrNoReceiver       = errors.New("message must start with @receiver")
)

// IdentitySource returns the identity of the current session, nil when signed out.
type IdentitySource interface {
	Current() *domain.Identity
}

// IdentityFunc adapts a function to IdentitySource.
type IdentityFunc func() *domain.Identity

func (f IdentityFunc) Current() *domain.Identity { return f() }

// Conn is an open realtime connection.
type Conn interface {
	Send(event domain.MessageType, msg domain.Message) error
	Close() error
}

// Dialer opens a connection for the given identity. Every event the server
// pushes must be handed to deliver until the connection is closed.
type Dialer interface {
	Dial(ctx context.Context, identity *domain.Identity, deliver func(domain.Envelope)) (Conn, error)
}

// Action is something the UI can offer next to a message.
type Action struct {
	URL         string `json:"url"`
	Prompt      string `json:"prompt"`
	PromptClass string `json:"promptClass"`
}

type ActionableMessage struct {
	domain.Message
	Actions []Action `json:"actions,omitempty"`
}

// Session mirrors the world, user and game message streams of one client
// session and sends events on its behalf. The connection is opened on the
// first send and rebuilt whenever the signed-in user changes.
type Session struct {
	identity IdentitySource
	dialer   Dialer

	mu          sync.Mutex
	conn        Conn
	connGen     int
	username    string
	world       []ActionableMessage
	user        []ActionableMessage
	game        []ActionableMessage
	subscribers map[domain.MessageType]func(domain.Message)
}

func NewSession(identity IdentitySource, dialer Dialer) *Session {
	return &Session{
		identity:    identity,
		dialer:      dialer,
		subscribers: make(map[domain.MessageType]func(domain.Message)),
	}
}

// connName is the name a connection is keyed on: the username of a
// registered user, empty for guests.
func connName(id *domain.Identity) string {
	if !id.IsRegistered() {
		return ""
	}
	return id.Username
}

// connection returns the open connection, redialing when the identity changed.
func (s *Session) connection(ctx context.Context, id *domain.Identity) (Conn, error) {
	name := connName(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil && s.username == name {
		return s.conn, nil
	}
	if s.conn != nil {
		logger.Debug("user changed, reconnecting", "from", s.username, "to", name)
		_ = s.conn.Close()
		s.conn = nil
		s.subscribers = make(map[domain.MessageType]func(domain.Message))
	}

	s.connGen++
	gen := s.connGen
	conn, err := s.dialer.Dial(ctx, id, func(env domain.Envelope) { s.receive(gen, env) })
	if err != nil {
		return nil, err
	}
	s.conn = conn
	s.username = name
	return conn, nil
}

func (s *Session) send(ctx context.Context, id *domain.Identity, event domain.MessageType, msg domain.Message) error {
	conn, err := s.connection(ctx, id)
	if err != nil {
		return err
	}
	return conn.Send(event, msg)
}

func (s *Session) registered(event domain.MessageType) (*domain.Identity, error) {
	id := s.identity.Current()
	if id == nil {
		logger.Warn("send refused", "event", event, "reason", "not authenticated")
		return nil, ErrNotAuthenticated
	}
	if !id.IsRegistered() {
		logger.Warn("send refused", "event", event, "reason", "anonymous")
		return nil, ErrAnonymous
	}
	return id, nil
}

func (s *Session) authenticated(event domain.MessageType) (*domain.Identity, error) {
	id := s.identity.Current()
	if id == nil {
		logger.Warn("send refused", "event", event, "reason", "not authenticated")
		return nil, ErrNotAuthenticated
	}
	return id, nil
}

func (s *Session) SendWorldMessage(ctx context.Context, text string) error {
	if text == "" {
		return ErrEmptyMessage
	}
	id, err := s.registered(domain.MsgWorldChat)
	if err != nil {
		return err
	}
	return s.send(ctx, id, domain.MsgWorldChat, domain.Message{
		Type:   domain.MsgWorldChat,
		Sender: id.DisplayName(),
		Text:   text,
	})
}

// SendUserMessage sends "@receiver text" to one user and keeps a local copy.
func (s *Session) SendUserMessage(ctx context.Context, text string) error {
	if text == "" {
		return ErrEmptyMessage
	}
	id, err := s.registered(domain.MsgUserChat)
	if err != nil {
		return err
	}
	receiver, body, ok := game.ParseDirectMessage(text)
	if !ok {
		return ErrNoReceiver
	}

	msg := domain.Message{
		Type:     domain.MsgUserChat,
		Sender:   id.DisplayName(),
		Receiver: receiver,
		Text:     body,
	}
	if err := s.send(ctx, id, domain.MsgUserChat, msg); err != nil {
		return err
	}
	s.addUserMessage(msg)
	return nil
}

// JoinGameChannel subscribes the connection to the game's room.
func (s *Session) JoinGameChannel(ctx context.Context, gameID string, playerSeq int) error {
	id, err := s.authenticated(domain.MsgJoinGame)
	if err != nil {
		return err
	}
	sender := id.Username
	if sender == "" {
		sender = domain.GuestName + "#" + strconv.Itoa(playerSeq)
	}
	return s.send(ctx, id, domain.MsgJoinGame, domain.Message{
		Type:   domain.MsgJoinGame,
		Sender: sender,
		GameID: gameID,
	})
}

func (s *Session) SendGameMessage(ctx context.Context, gameID, text string) error {
	if text == "" {
		return ErrEmptyMessage
	}
	id, err := s.authenticated(domain.MsgGameChat)
	if err != nil {
		return err
	}
	return s.send(ctx, id, domain.MsgGameChat, domain.Message{
		Type:   domain.MsgGameChat,
		Sender: id.DisplayName(),
		GameID: gameID,
		Text:   text,
	})
}

func (s *Session) SendStartRound(ctx context.Context, gameID string, roundSeq int) error {
	id, err := s.authenticated(domain.MsgStartRound)
	if err != nil {
		return err
	}
	return s.send(ctx, id, domain.MsgStartRound, domain.Message{
		Type:   domain.MsgStartRound,
		Sender: id.DisplayName(),
		GameID: gameID,
		Text:   strconv.Itoa(roundSeq),
	})
}

// receive handles an event pushed by the server. Events from a connection
// that has since been replaced are ignored.
func (s *Session) receive(gen int, env domain.Envelope) {
	s.mu.Lock()
	stale := gen != s.connGen || s.conn == nil
	s.mu.Unlock()
	if stale {
		return
	}

	var msg domain.Message
	if err := decode(env, &msg); err != nil {
		logger.Debug("undecodable event", "event", env.Event, "error", err)
		return
	}
	if msg.Type == "" {
		msg.Type = env.Event
	}

	switch env.Event {
	case domain.MsgEventFromServer:
		logger.Debug("eventFromServer", "text", msg.Text)
		s.notify(msg)
	case domain.MsgWorldChat:
		s.addWorldMessage(msg)
	case domain.MsgUserChat:
		s.addUserMessage(msg)
	case domain.MsgGameChat, domain.MsgJoinGame, domain.MsgStartRound, domain.MsgRoundPlayed, domain.MsgNextRound:
		s.addGameMessage(msg)
	}
}

func (s *Session) addWorldMessage(msg domain.Message) {
	am := ActionableMessage{Message: msg}
	if msg.Type == domain.MsgWelcome {
		buddy := msg.Text[strings.Index(msg.Text, "@")+1:]
		am.Actions = []Action{{
			URL:         "/buddies?action=add&buddyName=" + buddy,
			Prompt:      "+",
			PromptClass: "font-extrabold text-green-600",
		}}
	}

	s.mu.Lock()
	s.world = append(s.world, am)
	s.mu.Unlock()
}

func (s *Session) addUserMessage(msg domain.Message) {
	s.mu.Lock()
	s.user = append(s.user, ActionableMessage{Message: msg})
	s.mu.Unlock()
}

func (s *Session) addGameMessage(msg domain.Message) {
	switch msg.Type {
	case domain.MsgJoinGame:
		msg.Text = "joined"
	case domain.MsgStartRound:
		msg.Text = "round #" + msg.Text
	}

	s.mu.Lock()
	s.game = append(s.game, ActionableMessage{Message: msg})
	s.mu.Unlock()

	s.notify(msg)
}

// decode accepts either a message object or a bare string, which is
// treated as the message text.
func decode(env domain.Envelope, msg *domain.Message) error {
	if len(env.Data) == 0 {
		return nil
	}
	var text string
	if err := json.Unmarshal(env.Data, &text); err == nil {
		msg.Text = text
		return nil
	}
	return json.Unmarshal(env.Data, msg)
}

// On registers the callback for one message type, replacing any earlier one.
func (s *Session) On(t domain.MessageType, fn func(domain.Message)) {
	s.mu.Lock()
	s.subscribers[t] = fn
	s.mu.Unlock()
}

func (s *Session) notify(msg domain.Message) {
	s.mu.Lock()
	fn := s.subscribers[msg.Type]
	s.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

func (s *Session) World() []ActionableMessage { return s.snapshot(&s.world) }
func (s *Session) User() []ActionableMessage  { return s.snapshot(&s.user) }
func (s *Session) Game() []ActionableMessage  { return s.snapshot(&s.game) }

// Messages picks the list shown for a chat context.
func (s *Session) Messages(scope domain.MessageType) []ActionableMessage {
	switch scope {
	case domain.MsgGameChat:
		return s.Game()
	case domain.MsgUserChat:
		return s.User()
	default:
		return s.World()
	}
}

func (s *Session) snapshot(list *[]ActionableMessage) []ActionableMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ActionableMessage, len(*list))
	copy(out, *list)
	return out
}

// Logout drops user and game history and closes the connection.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.game = nil
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.subscribers = make(map[domain.MessageType]func(domain.Message))
	s.username = ""
	logger.Debug("chat session logged out")
}

// ClearAll drops every list, world history included.
func (s *Session) ClearAll() {
	s.mu.Lock()
	s.world = nil
	s.user = nil
	s.game = nil
	s.mu.Unlock()
}
