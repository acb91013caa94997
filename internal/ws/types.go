package ws

import (
	"encoding/json"

	"sniperok/internal/domain"
)

// drop reasons, used as metric labels
const (
	dropMalformed    = "malformed"
	dropUnknownEvent = "unknown_event"
	dropAnonymous    = "anonymous"
	dropNoReceiver   = "no_receiver"
	dropNoGame       = "no_game"
	dropNotInRoom    = "not_in_room"
	dropThrottled    = "throttled"
	dropSlowConsumer = "slow_consumer"
)

// serverSender is the sender of events generated by the server itself.
const serverSender = "server"

func encodeFrame(event domain.MessageType, msg domain.Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(domain.Envelope{Event: event, Data: data})
}
