package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"sniperok/internal/chat"
	"sniperok/internal/domain"
	httpserver "sniperok/internal/http"
	"sniperok/internal/http/handlers"
	"sniperok/internal/service"
	"sniperok/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type server struct {
	url  string
	hub  *ws.Hub
	auth *service.JWTService
}

func startServer(t *testing.T, r repos) server {
	t.Helper()
	hub := ws.NewHub(ws.HubConfig{Welcome: "welcome to sniperok", AnnounceJoins: true})
	auth := service.NewJWTService("e2e-secret", time.Hour)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	httpserver.RegisterRoutes(engine, httpserver.Deps{
		Handler:        handlers.NewHandler(r.games, r.boosts, r.users, r.weapons, r.audit, r.buddies, hub),
		Health:         handlers.NewHealthHandler(testDB(t), nil, hub, "test"),
		Hub:            hub,
		Auth:           auth,
		APIRateLimit:   1000,
		APIRateWindow:  time.Minute,
		GameRateLimit:  1000,
		GameRateWindow: time.Minute,
	})
	ts := httptest.NewServer(engine)
	t.Cleanup(ts.Close)
	return server{url: ts.URL, hub: hub, auth: auth}
}

func (s server) token(t *testing.T, id domain.Identity) string {
	t.Helper()
	token, err := s.auth.Generate(id)
	require.NoError(t, err)
	return token
}

func (s server) call(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.url+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s server) session(t *testing.T, id domain.Identity) *chat.Session {
	t.Helper()
	token := s.token(t, id)
	sess := chat.NewSession(
		chat.IdentityFunc(func() *domain.Identity { return &id }),
		&chat.WSDialer{
			URL:   strings.Replace(s.url, "http", "ws", 1) + "/ws",
			Token: func(*domain.Identity) string { return token },
		},
	)
	t.Cleanup(sess.Logout)
	return sess
}

func hasEvent(msgs []chat.ActionableMessage, event domain.MessageType, sender string) bool {
	for _, m := range msgs {
		if m.Type == event && m.Sender == sender {
			return true
		}
	}
	return false
}

func TestE2E_GameOverHTTPAndWS(t *testing.T) {
	r := newRepos(t)
	srv := startServer(t, r)
	ctx := context.Background()

	alice, bob := r.newUser(t), r.newUser(t)
	aliceToken, bobToken := srv.token(t, alice), srv.token(t, bob)

	var created struct {
		GameID int64 `json:"gameId"`
	}
	status := srv.call(t, http.MethodPost, "/api/v1/games/new", aliceToken,
		map[string]any{"isPublic": true, "minPlayers": 2, "maxRounds": 1}, &created)
	require.Equal(t, http.StatusCreated, status)
	gameID := strconv.FormatInt(created.GameID, 10)
	room := domain.GameRoom(gameID)

	bobChat := srv.session(t, bob)
	gameOver := make(chan domain.Message, 4)
	bobChat.On(domain.MsgEventFromServer, func(m domain.Message) {
		if m.Text == "game over" {
			gameOver <- m
		}
	})
	require.NoError(t, bobChat.JoinGameChannel(ctx, gameID, 2))
	require.Eventually(t, func() bool { return srv.hub.RoomSize(room) == 1 }, 5*time.Second, 20*time.Millisecond)

	var seq domain.PlayerSequence
	require.Equal(t, http.StatusOK, srv.call(t, http.MethodPost, "/api/v1/games/"+gameID+"/join", bobToken, nil, &seq))
	assert.Equal(t, 2, seq.PlayerSeq)

	require.Equal(t, http.StatusOK, srv.call(t, http.MethodPut, "/api/v1/games/"+gameID, aliceToken,
		map[string]any{"roundSeq": 1, "weapon": "rock", "responseTimeMillis": 900}, nil))
	require.Equal(t, http.StatusOK, srv.call(t, http.MethodPut, "/api/v1/games/"+gameID, bobToken,
		map[string]any{"roundSeq": 1, "weapon": "scissors", "responseTimeMillis": 700}, nil))

	require.Eventually(t, func() bool {
		return hasEvent(bobChat.Game(), domain.MsgRoundPlayed, alice.Username) &&
			hasEvent(bobChat.Game(), domain.MsgJoinGame, bob.Username)
	}, 5*time.Second, 20*time.Millisecond)

	var updated struct {
		Success    bool          `json:"success"`
		GameStatus domain.Status `json:"gameStatus"`
	}
	require.Equal(t, http.StatusOK, srv.call(t, http.MethodPut, "/api/v1/games/"+gameID+"/round/status", aliceToken,
		map[string]any{"status": "inactive"}, &updated))
	assert.True(t, updated.Success)
	assert.Equal(t, domain.StatusInactive, updated.GameStatus)

	select {
	case <-gameOver:
	case <-time.After(5 * time.Second):
		t.Fatal("no game over event")
	}

	var summary domain.GameSummary
	require.Equal(t, http.StatusOK, srv.call(t, http.MethodGet, "/api/v1/games/"+gameID+"/summary", bobToken, nil, &summary))
	require.Len(t, summary.PlayerScores, 2)
	assert.Equal(t, alice.Username, summary.PlayerScores[0].Username)
	assert.Equal(t, 1, summary.PlayerScores[0].TotalWins)

	var boosts struct {
		Boosts []domain.UserBoost `json:"boosts"`
	}
	require.Equal(t, http.StatusOK, srv.call(t, http.MethodGet, "/api/v1/boosts", aliceToken, nil, &boosts))
	var snaps int
	for _, b := range boosts.Boosts {
		if b.BoostType == domain.BoostSnaps {
			snaps = b.Quantity
		}
	}
	assert.Equal(t, 1, snaps)

	// the round is over so the curator can't open another one on a one-round game
	assert.Equal(t, http.StatusConflict, srv.call(t, http.MethodPost, "/api/v1/games/"+gameID+"/round", aliceToken, nil, nil))
}

func TestE2E_WorldAndDirectChat(t *testing.T) {
	r := newRepos(t)
	srv := startServer(t, r)
	ctx := context.Background()

	alice, bob := r.newUser(t), r.newUser(t)
	aliceChat, bobChat := srv.session(t, alice), srv.session(t, bob)

	// bob has to be connected before alice speaks; nothing is stored for later
	require.NoError(t, bobChat.SendWorldMessage(ctx, "hi"))
	require.Eventually(t, func() bool { return hasEvent(bobChat.World(), domain.MsgWorldChat, bob.Username) },
		5*time.Second, 20*time.Millisecond)

	require.NoError(t, aliceChat.SendWorldMessage(ctx, "hello world"))
	require.NoError(t, aliceChat.SendUserMessage(ctx, "@"+bob.Username+" psst"))

	require.Eventually(t, func() bool {
		for _, m := range bobChat.World() {
			if m.Sender == alice.Username && m.Text == "hello world" {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		for _, m := range bobChat.User() {
			if m.Sender == alice.Username && m.Receiver == bob.Username && m.Text == "psst" {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
}

func TestE2E_WelcomeAddsBuddy(t *testing.T) {
	r := newRepos(t)
	srv := startServer(t, r)
	ctx := context.Background()

	alice, bob := r.newUser(t), r.newUser(t)
	bobChat := srv.session(t, bob)
	require.NoError(t, bobChat.SendWorldMessage(ctx, "hi"))
	require.Eventually(t, func() bool { return hasEvent(bobChat.World(), domain.MsgWorldChat, bob.Username) },
		5*time.Second, 20*time.Millisecond)

	// alice connecting is announced to bob
	require.NoError(t, srv.session(t, alice).SendWorldMessage(ctx, "hello"))

	var link string
	require.Eventually(t, func() bool {
		for _, m := range bobChat.World() {
			if m.Type == domain.MsgWelcome && len(m.Actions) == 1 {
				link = m.Actions[0].URL
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "/buddies?action=add&buddyName="+alice.Username, link)

	var listed struct {
		Buddies []domain.Buddy `json:"buddies"`
	}
	bobToken := srv.token(t, bob)
	require.Equal(t, http.StatusOK, srv.call(t, http.MethodGet, "/api/v1"+link, bobToken, nil, &listed))
	require.Len(t, listed.Buddies, 1)
	assert.Equal(t, alice.Username, listed.Buddies[0].Counterparty)
	assert.Equal(t, domain.StatusPending, listed.Buddies[0].Status)

	assert.Equal(t, http.StatusConflict, srv.call(t, http.MethodGet, "/api/v1"+link, bobToken, nil, nil))
	assert.Equal(t, http.StatusNotAcceptable, srv.call(t, http.MethodPost, "/api/v1/buddies", bobToken,
		map[string]any{"buddyName": bob.Username}, nil))
}

func TestE2E_Health(t *testing.T) {
	r := newRepos(t)
	srv := startServer(t, r)

	var body map[string]any
	require.Equal(t, http.StatusOK, srv.call(t, http.MethodGet, "/readyz", "", nil, &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, http.StatusUnauthorized, srv.call(t, http.MethodGet, "/api/v1/games", "", nil, nil))
}
