package game

import (
	"time"

	"sniperok/internal/domain"
)

// NextGameStatus decides the status a game should move to. It never moves a
// game backwards; when no transition applies it returns the current status.
//
//	pending -> active    once enough players joined and the start time arrived
//	active  -> inactive  once the last round is inactive
func NextGameStatus(d *domain.GameDetail, now time.Time) domain.Status {
	switch d.Status {
	case domain.StatusPending:
		if d.Players >= d.MinPlayers && !now.Before(d.StartTime) {
			return domain.StatusActive
		}
	case domain.StatusActive:
		if d.CurrentRound == d.MaxRounds && d.CurrentRoundStatus == domain.StatusInactive {
			return domain.StatusInactive
		}
	}
	return d.Status
}

// RoundAdvanceError explains why a game can't move to its next round.
type RoundAdvanceError string

func (e RoundAdvanceError) Error() string { return string(e) }

const (
	ErrRoundNotInactive RoundAdvanceError = "current round is not yet inactive"
	ErrLastRound        RoundAdvanceError = "game already completed"
)

// CanAdvanceRound checks the preconditions for creating round CurrentRound+1.
func CanAdvanceRound(d *domain.GameDetail) error {
	if d.CurrentRound >= d.MaxRounds {
		return ErrLastRound
	}
	if d.CurrentRoundStatus != domain.StatusInactive {
		return ErrRoundNotInactive
	}
	return nil
}
