package domain

import (
	"encoding/json"
	"strconv"
)

// MessageType doubles as the realtime event name.
type MessageType string

const (
	MsgWorldChat       MessageType = "worldChat"
	MsgUserChat        MessageType = "userChat"
	MsgGameChat        MessageType = "gameChat"
	MsgJoinGame        MessageType = "joinGame"
	MsgStartRound      MessageType = "startRound"
	MsgRoundPlayed     MessageType = "roundPlayed"
	MsgNextRound       MessageType = "nextRound"
	MsgWelcome         MessageType = "welcome"
	MsgEventFromServer MessageType = "eventFromServer"
)

// IsGameScoped reports whether events of this type are delivered to a game room.
func (t MessageType) IsGameScoped() bool {
	switch t {
	case MsgGameChat, MsgJoinGame, MsgStartRound, MsgRoundPlayed, MsgNextRound:
		return true
	}
	return false
}

// Message is the transport-only payload of every realtime event. It is never persisted.
type Message struct {
	Type     MessageType `json:"type"`
	Sender   string      `json:"sender"`
	Receiver string      `json:"receiver,omitempty"`
	GameID   string      `json:"gameId,omitempty"`
	Text     string      `json:"text"`
}

// Envelope frames one event on the socket.
type Envelope struct {
	Event MessageType     `json:"event"`
	Data  json.RawMessage `json:"data"`
}

const (
	WorldRoom      = "worldChat"
	userRoomPrefix = "userRoom:"
	gameRoomPrefix = "gameRoom:"
)

func UserRoom(username string) string {
	return userRoomPrefix + username
}

func GameRoom(gameID string) string {
	return gameRoomPrefix + gameID
}

func GameRoomFor(gameID int64) string {
	return GameRoom(strconv.FormatInt(gameID, 10))
}
