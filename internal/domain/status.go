package domain

import (
	"encoding/json"
	"strconv"
)

// Status is the lifecycle state of a game, a round or a player.
// The numeric code is what the status table stores.
type Status int

const (
	StatusUnknown       Status = 0
	StatusPending       Status = 1
	StatusActive        Status = 2
	StatusInactive      Status = 3
	StatusActiveCurator Status = 4
)

// statusNames is the single mapping between persisted codes and names.
// Changing the status table requires changing this in lockstep.
var statusNames = map[Status]string{
	StatusUnknown:       "unknown",
	StatusPending:       "pending",
	StatusActive:        "active",
	StatusInactive:      "inactive",
	StatusActiveCurator: "active_curator",
}

// StatusFromCode converts a stored code. Unrecognized codes map to StatusUnknown.
func StatusFromCode(code int) Status {
	s := Status(code)
	if _, ok := statusNames[s]; !ok {
		return StatusUnknown
	}
	return s
}

// ParseStatus converts a status name. Unrecognized names map to StatusUnknown.
func ParseStatus(name string) Status {
	for s, n := range statusNames {
		if n == name {
			return s
		}
	}
	return StatusUnknown
}

func (s Status) Code() int {
	return int(StatusFromCode(int(s)))
}

func (s Status) String() string {
	return statusNames[StatusFromCode(int(s))]
}

// IsActive reports whether s is one of the active variants.
func (s Status) IsActive() bool {
	return s == StatusActive || s == StatusActiveCurator
}

// lifecycle orders the states a game or round moves through.
func (s Status) lifecycle() int {
	switch s {
	case StatusPending:
		return 1
	case StatusActive, StatusActiveCurator:
		return 2
	case StatusInactive:
		return 3
	default:
		return 0
	}
}

// CanAdvanceTo reports whether moving from s to next keeps the lifecycle
// monotonic (pending -> active -> inactive). Staying put is allowed.
func (s Status) CanAdvanceTo(next Status) bool {
	if next.lifecycle() == 0 || s.lifecycle() == 0 {
		return false
	}
	return next.lifecycle() >= s.lifecycle()
}

// PlayerStatusFor returns the status stored for a player with the given
// sequence. The first player is the curator.
func PlayerStatusFor(playerSeq int) Status {
	if playerSeq == 1 {
		return StatusActiveCurator
	}
	return StatusActive
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts either the status name or its numeric code.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		if code, convErr := strconv.Atoi(name); convErr == nil {
			*s = StatusFromCode(code)
			return nil
		}
		*s = ParseStatus(name)
		return nil
	}

	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		*s = StatusUnknown
		return nil
	}
	*s = StatusFromCode(code)
	return nil
}
