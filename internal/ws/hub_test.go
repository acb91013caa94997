package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"sniperok/internal/domain"
)

type fakeParser map[string]domain.Identity

func (f fakeParser) Parse(token string) (domain.Identity, error) {
	id, ok := f[token]
	if !ok {
		return domain.Identity{}, errors.New("bad token")
	}
	return id, nil
}

var identities = fakeParser{
	"alice": {UserID: "a1", Username: "alice", Email: "alice@example.com"},
	"bob":   {UserID: "b1", Username: "bob", Email: "bob@example.com"},
	"anon":  {UserID: "x1", IsAnonymous: true},
}

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	return newTestServerWith(t, HubConfig{Welcome: "hello there", EventRate: rate.Inf, EventBurst: 1})
}

func newTestServerWith(t *testing.T, cfg HubConfig) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(cfg)
	r := gin.New()
	r.GET("/ws", HandleWS(hub, identities, ""))
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return hub, ts
}

type testConn struct {
	t    *testing.T
	conn *websocket.Conn
	in   chan domain.Envelope
}

func dial(t *testing.T, ts *httptest.Server, token string) *testConn {
	t.Helper()
	url := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	tc := &testConn{t: t, conn: conn, in: make(chan domain.Envelope, 32)}
	go func() {
		defer close(tc.in)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env domain.Envelope
			if json.Unmarshal(raw, &env) == nil {
				tc.in <- env
			}
		}
	}()

	// every connection starts with the welcome event
	env, msg := tc.next()
	require.Equal(t, domain.MsgEventFromServer, env.Event)
	require.Equal(t, "hello there", msg.Text)
	return tc
}

func (tc *testConn) send(event domain.MessageType, msg domain.Message) {
	tc.t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(tc.t, err)
	raw, err := json.Marshal(domain.Envelope{Event: event, Data: data})
	require.NoError(tc.t, err)
	require.NoError(tc.t, tc.conn.WriteMessage(websocket.TextMessage, raw))
}

func (tc *testConn) next() (domain.Envelope, domain.Message) {
	tc.t.Helper()
	select {
	case env, ok := <-tc.in:
		require.True(tc.t, ok, "connection closed")
		var msg domain.Message
		require.NoError(tc.t, json.Unmarshal(env.Data, &msg))
		return env, msg
	case <-time.After(2 * time.Second):
		tc.t.Fatal("timed out waiting for event")
		return domain.Envelope{}, domain.Message{}
	}
}

func (tc *testConn) joinGame(gameID string) {
	tc.t.Helper()
	tc.send(domain.MsgJoinGame, domain.Message{GameID: gameID})
	env, msg := tc.next()
	require.Equal(tc.t, domain.MsgJoinGame, env.Event)
	require.Equal(tc.t, gameID, msg.GameID)
}

func TestInvalidTokenRejected(t *testing.T) {
	_, ts := newTestServer(t)

	url := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?token=nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWorldChatRequiresRegisteredUser(t *testing.T) {
	_, ts := newTestServer(t)
	alice := dial(t, ts, "alice")
	anon := dial(t, ts, "anon")

	alice.joinGame("1")

	// dropped, then a game event from the same connection proves it was handled
	anon.send(domain.MsgWorldChat, domain.Message{Sender: "mallory", Text: "hi all"})
	anon.joinGame("1")

	env, msg := alice.next()
	assert.Equal(t, domain.MsgJoinGame, env.Event)
	assert.Equal(t, domain.GuestName, msg.Sender)

	alice.send(domain.MsgWorldChat, domain.Message{Sender: "someone-else", Text: "hello world"})
	for _, c := range []*testConn{alice, anon} {
		env, msg := c.next()
		assert.Equal(t, domain.MsgWorldChat, env.Event)
		want := domain.Message{Type: domain.MsgWorldChat, Sender: "alice", Text: "hello world"}
		if diff := cmp.Diff(want, msg); diff != "" {
			t.Errorf("world message mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestUserChatGoesToReceiverRoom(t *testing.T) {
	_, ts := newTestServer(t)
	alice := dial(t, ts, "alice")
	bob := dial(t, ts, "bob")

	alice.send(domain.MsgUserChat, domain.Message{Receiver: "bob", Text: "psst"})

	env, msg := bob.next()
	assert.Equal(t, domain.MsgUserChat, env.Event)
	assert.Equal(t, "alice", msg.Sender)
	assert.Equal(t, "bob", msg.Receiver)
	assert.Equal(t, "psst", msg.Text)

	// alice isn't in bob's room; her next event is her own game join
	alice.joinGame("7")
}

func TestGameEventsRewritePlaceholderSender(t *testing.T) {
	_, ts := newTestServer(t)
	alice := dial(t, ts, "alice")
	bob := dial(t, ts, "bob")

	alice.joinGame("42")
	bob.joinGame("42")
	_, _ = alice.next() // bob's join

	bob.send(domain.MsgStartRound, domain.Message{Sender: domain.GuestName, GameID: "42", Text: "2"})
	for _, c := range []*testConn{alice, bob} {
		env, msg := c.next()
		assert.Equal(t, domain.MsgStartRound, env.Event)
		assert.Equal(t, "bob", msg.Sender)
		assert.Equal(t, "2", msg.Text)
	}

	// explicit senders are relayed untouched
	bob.send(domain.MsgGameChat, domain.Message{Sender: "bobby", GameID: "42", Text: "gg"})
	_, msg := alice.next()
	assert.Equal(t, "bobby", msg.Sender)
}

func TestGameEventsRequireRoomMembership(t *testing.T) {
	_, ts := newTestServer(t)
	alice := dial(t, ts, "alice")
	bob := dial(t, ts, "bob")

	alice.joinGame("5")

	bob.send(domain.MsgGameChat, domain.Message{GameID: "5", Text: "let me in"})
	bob.joinGame("5")

	env, msg := alice.next()
	assert.Equal(t, domain.MsgJoinGame, env.Event)
	assert.Equal(t, "bob", msg.Sender)
}

func TestPublishGameAndRoomSize(t *testing.T) {
	hub, ts := newTestServer(t)
	alice := dial(t, ts, "alice")
	guest := dial(t, ts, "")

	alice.joinGame("9")
	guest.joinGame("9")
	_, _ = alice.next() // guest's join

	assert.Equal(t, 2, hub.RoomSize(domain.GameRoomFor(9)))
	assert.Equal(t, 2, hub.RoomSize(domain.WorldRoom))
	assert.Equal(t, 1, hub.RoomSize(domain.UserRoom("alice")))
	assert.Equal(t, 0, hub.RoomSize(domain.UserRoom(domain.GuestName)))

	hub.PublishGame(9, domain.Message{Type: domain.MsgNextRound, GameID: "9", Text: "2"})
	for _, c := range []*testConn{alice, guest} {
		env, msg := c.next()
		assert.Equal(t, domain.MsgNextRound, env.Event)
		assert.Equal(t, serverSender, msg.Sender)
	}

	require.NoError(t, guest.conn.Close())
	require.Eventually(t, func() bool {
		return hub.RoomSize(domain.GameRoomFor(9)) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRegisteredUsersAreAnnounced(t *testing.T) {
	_, ts := newTestServerWith(t, HubConfig{Welcome: "hello there", AnnounceJoins: true})
	alice := dial(t, ts, "alice")
	_ = dial(t, ts, "") // guests aren't announced
	bob := dial(t, ts, "bob")

	env, msg := alice.next()
	assert.Equal(t, domain.MsgWorldChat, env.Event)
	want := domain.Message{Type: domain.MsgWelcome, Sender: serverSender, Text: "bob is online, say hi to @bob"}
	if diff := cmp.Diff(want, msg); diff != "" {
		t.Errorf("welcome mismatch (-want +got):\n%s", diff)
	}

	// bob doesn't hear about himself; his next event is his own game join
	bob.joinGame("3")
}

func TestHandleDropsUnknownAndMalformed(t *testing.T) {
	hub := NewHub(HubConfig{})
	c := &Client{hub: hub, send: make(chan []byte, 4)}
	hub.mu.Lock()
	hub.clients[c] = make(map[string]struct{})
	hub.mu.Unlock()

	hub.handle(c, []byte("{not json"))
	hub.handle(c, []byte(`{"event":"shout","data":{"text":"x"}}`))
	hub.handle(c, []byte(`{"event":"joinGame","data":{"text":"no game id"}}`))

	assert.Empty(t, c.send)
	assert.Equal(t, 0, hub.RoomSize(domain.GameRoom("")))
}
