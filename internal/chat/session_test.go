package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sniperok/internal/domain"
)

type sent struct {
	event domain.MessageType
	msg   domain.Message
}

type fakeConn struct {
	mu     sync.Mutex
	sent   []sent
	closed bool
}

func (c *fakeConn) Send(event domain.MessageType, msg domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sent{event, msg})
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type fakeDialer struct {
	identities []*domain.Identity
	conns      []*fakeConn
	deliver    []func(domain.Envelope)
}

func (d *fakeDialer) Dial(_ context.Context, id *domain.Identity, deliver func(domain.Envelope)) (Conn, error) {
	c := &fakeConn{}
	d.identities = append(d.identities, id)
	d.conns = append(d.conns, c)
	d.deliver = append(d.deliver, deliver)
	return c, nil
}

// push delivers an event on the latest connection.
func (d *fakeDialer) push(t *testing.T, event domain.MessageType, msg domain.Message) {
	t.Helper()
	require.NotEmpty(t, d.deliver)
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	d.deliver[len(d.deliver)-1](domain.Envelope{Event: event, Data: data})
}

type identityBox struct {
	mu sync.Mutex
	id *domain.Identity
}

func (b *identityBox) Current() *domain.Identity {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.id
}

func (b *identityBox) set(id *domain.Identity) {
	b.mu.Lock()
	b.id = id
	b.mu.Unlock()
}

var (
	alice = &domain.Identity{UserID: "a1", Username: "alice", Email: "alice@example.com"}
	bob   = &domain.Identity{UserID: "b1", Username: "bob", Email: "bob@example.com"}
	anon  = &domain.Identity{UserID: "x1", IsAnonymous: true}
)

func newSession(id *domain.Identity) (*Session, *fakeDialer, *identityBox) {
	box := &identityBox{id: id}
	d := &fakeDialer{}
	return NewSession(box, d), d, box
}

func TestGuards(t *testing.T) {
	ctx := context.Background()

	s, d, _ := newSession(nil)
	assert.ErrorIs(t, s.SendWorldMessage(ctx, "hi"), ErrNotAuthenticated)
	assert.ErrorIs(t, s.SendUserMessage(ctx, "@bob hi"), ErrNotAuthenticated)
	assert.ErrorIs(t, s.SendGameMessage(ctx, "1", "hi"), ErrNotAuthenticated)
	assert.ErrorIs(t, s.SendStartRound(ctx, "1", 1), ErrNotAuthenticated)
	assert.ErrorIs(t, s.JoinGameChannel(ctx, "1", 2), ErrNotAuthenticated)
	assert.Empty(t, d.conns)

	s, d, _ = newSession(anon)
	assert.ErrorIs(t, s.SendWorldMessage(ctx, "hi"), ErrAnonymous)
	assert.ErrorIs(t, s.SendUserMessage(ctx, "@bob hi"), ErrAnonymous)
	assert.Empty(t, d.conns)
	assert.NoError(t, s.SendGameMessage(ctx, "1", "hi"))
	assert.Len(t, d.conns, 1)

	s, d, _ = newSession(alice)
	assert.ErrorIs(t, s.SendWorldMessage(ctx, ""), ErrEmptyMessage)
	assert.ErrorIs(t, s.SendUserMessage(ctx, ""), ErrEmptyMessage)
	assert.ErrorIs(t, s.SendGameMessage(ctx, "1", ""), ErrEmptyMessage)
	assert.ErrorIs(t, s.SendUserMessage(ctx, "no receiver"), ErrNoReceiver)
	assert.Empty(t, d.conns)
}

func TestLazyConnectAndReconnectOnIdentityChange(t *testing.T) {
	ctx := context.Background()
	s, d, box := newSession(alice)
	assert.Empty(t, d.conns)

	require.NoError(t, s.SendWorldMessage(ctx, "one"))
	require.NoError(t, s.SendWorldMessage(ctx, "two"))
	require.Len(t, d.conns, 1)
	assert.Len(t, d.conns[0].sent, 2)

	called := false
	s.On(domain.MsgGameChat, func(domain.Message) { called = true })

	box.set(bob)
	require.NoError(t, s.SendWorldMessage(ctx, "three"))
	require.Len(t, d.conns, 2)
	assert.True(t, d.conns[0].closed)
	assert.Equal(t, "bob", d.identities[1].Username)
	assert.Equal(t, "bob", d.conns[1].sent[0].msg.Sender)

	// handlers belong to the old connection
	d.push(t, domain.MsgGameChat, domain.Message{Sender: "x", GameID: "1", Text: "hi"})
	assert.False(t, called)

	// events still arriving on the replaced connection are ignored
	d.deliver[0](domain.Envelope{Event: domain.MsgWorldChat, Data: json.RawMessage(`{"sender":"ghost","text":"boo"}`)})
	assert.Empty(t, s.World())
}

func TestSendUserMessageParsesReceiver(t *testing.T) {
	s, d, _ := newSession(alice)

	require.NoError(t, s.SendUserMessage(context.Background(), "@bob  see you at game 3"))

	require.Len(t, d.conns, 1)
	got := d.conns[0].sent[0]
	assert.Equal(t, domain.MsgUserChat, got.event)
	assert.Equal(t, domain.Message{Type: domain.MsgUserChat, Sender: "alice", Receiver: "bob", Text: "see you at game 3"}, got.msg)

	local := s.User()
	require.Len(t, local, 1)
	assert.Equal(t, "bob", local[0].Receiver)
}

func TestJoinGameChannelGuestSender(t *testing.T) {
	s, d, _ := newSession(anon)

	require.NoError(t, s.JoinGameChannel(context.Background(), "12", 3))
	assert.Equal(t, "guest#3", d.conns[0].sent[0].msg.Sender)
	assert.Equal(t, "12", d.conns[0].sent[0].msg.GameID)
}

func TestIncomingMessages(t *testing.T) {
	s, d, _ := newSession(alice)
	require.NoError(t, s.SendGameMessage(context.Background(), "4", "ready?"))

	var notified []domain.Message
	s.On(domain.MsgStartRound, func(m domain.Message) { notified = append(notified, m) })

	d.push(t, domain.MsgWorldChat, domain.Message{Type: domain.MsgWelcome, Sender: "server", Text: "say hi to @carol"})
	d.push(t, domain.MsgWorldChat, domain.Message{Sender: "bob", Text: "hello"})
	d.push(t, domain.MsgUserChat, domain.Message{Sender: "bob", Receiver: "alice", Text: "psst"})
	d.push(t, domain.MsgJoinGame, domain.Message{Sender: "bob", GameID: "4"})
	d.push(t, domain.MsgStartRound, domain.Message{Sender: "alice", GameID: "4", Text: "3"})

	world := s.World()
	require.Len(t, world, 2)
	assert.Equal(t, []Action{{
		URL:         "/buddies?action=add&buddyName=carol",
		Prompt:      "+",
		PromptClass: "font-extrabold text-green-600",
	}}, world[0].Actions)
	assert.Empty(t, world[1].Actions)

	assert.Len(t, s.User(), 1)

	game := s.Messages(domain.MsgGameChat)
	require.Len(t, game, 2)
	assert.Equal(t, "joined", game[0].Text)
	assert.Equal(t, "round #3", game[1].Text)

	require.Len(t, notified, 1)
	assert.Equal(t, "round #3", notified[0].Text)

	assert.Equal(t, s.User(), s.Messages(domain.MsgUserChat))
	assert.Equal(t, world, s.Messages(domain.MsgWorldChat))
}

func TestLogoutAndClearAll(t *testing.T) {
	s, d, _ := newSession(alice)
	require.NoError(t, s.SendWorldMessage(context.Background(), "hi"))

	d.push(t, domain.MsgWorldChat, domain.Message{Sender: "bob", Text: "hello"})
	d.push(t, domain.MsgUserChat, domain.Message{Sender: "bob", Text: "psst"})
	d.push(t, domain.MsgGameChat, domain.Message{Sender: "bob", GameID: "1", Text: "gg"})

	s.Logout()
	assert.True(t, d.conns[0].closed)
	assert.Len(t, s.World(), 1)
	assert.Empty(t, s.User())
	assert.Empty(t, s.Game())

	// next send dials again
	require.NoError(t, s.SendWorldMessage(context.Background(), "back"))
	assert.Len(t, d.conns, 2)

	s.ClearAll()
	assert.Empty(t, s.World())
}
