package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sniperok/internal/domain"
)

func TestOutcome(t *testing.T) {
	table := NewVictoryTable(ClassicVictories())

	cases := []struct {
		a, b string
		want Outcome
	}{
		{"rock", "scissors", OutcomeWin},
		{"rock", "paper", OutcomeLose},
		{"paper", "rock", OutcomeWin},
		{"scissors", "scissors", OutcomeDraw},
		{"rock", "spoon", OutcomeDraw},
	}

	for _, tc := range cases {
		if got := table.Outcome(tc.a, tc.b); got != tc.want {
			t.Fatalf("Outcome(%s,%s) = %s; want %s", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestBeatsList(t *testing.T) {
	table := NewVictoryTable(append(ClassicVictories(), domain.WeaponVictory{Winner: "rock", Loser: "lizard"}))

	assert.Equal(t, []string{"lizard", "scissors"}, table.BeatenBy("rock"))
	assert.Empty(t, table.BeatenBy("spoon"))
}

func TestNextGameStatus(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		detail domain.GameDetail
		want   domain.Status
	}{
		{
			name:   "pending waits for players",
			detail: domain.GameDetail{Status: domain.StatusPending, Players: 1, MinPlayers: 2, StartTime: now},
			want:   domain.StatusPending,
		},
		{
			name:   "pending waits for start time",
			detail: domain.GameDetail{Status: domain.StatusPending, Players: 2, MinPlayers: 2, StartTime: now.Add(time.Second)},
			want:   domain.StatusPending,
		},
		{
			name:   "pending becomes active",
			detail: domain.GameDetail{Status: domain.StatusPending, Players: 2, MinPlayers: 2, StartTime: now},
			want:   domain.StatusActive,
		},
		{
			name:   "active mid game",
			detail: domain.GameDetail{Status: domain.StatusActive, MaxRounds: 3, CurrentRound: 2, CurrentRoundStatus: domain.StatusInactive},
			want:   domain.StatusActive,
		},
		{
			name:   "active last round still running",
			detail: domain.GameDetail{Status: domain.StatusActive, MaxRounds: 3, CurrentRound: 3, CurrentRoundStatus: domain.StatusActive},
			want:   domain.StatusActive,
		},
		{
			name:   "active becomes inactive",
			detail: domain.GameDetail{Status: domain.StatusActive, MaxRounds: 3, CurrentRound: 3, CurrentRoundStatus: domain.StatusInactive},
			want:   domain.StatusInactive,
		},
		{
			name:   "inactive stays",
			detail: domain.GameDetail{Status: domain.StatusInactive, Players: 5, MinPlayers: 2},
			want:   domain.StatusInactive,
		},
		{
			name:   "unknown stays",
			detail: domain.GameDetail{Status: domain.StatusUnknown, Players: 5, MinPlayers: 2},
			want:   domain.StatusUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextGameStatus(&tc.detail, now))
		})
	}
}

func TestCanAdvanceRound(t *testing.T) {
	assert.NoError(t, CanAdvanceRound(&domain.GameDetail{MaxRounds: 3, CurrentRound: 1, CurrentRoundStatus: domain.StatusInactive}))
	assert.ErrorIs(t, CanAdvanceRound(&domain.GameDetail{MaxRounds: 3, CurrentRound: 1, CurrentRoundStatus: domain.StatusActive}), ErrRoundNotInactive)
	assert.ErrorIs(t, CanAdvanceRound(&domain.GameDetail{MaxRounds: 3, CurrentRound: 3, CurrentRoundStatus: domain.StatusInactive}), ErrLastRound)
}

func TestSnapsWinner(t *testing.T) {
	cases := []struct {
		name    string
		summary *domain.GameSummary
		want    string
		ok      bool
	}{
		{
			name:    "unique winner",
			summary: &domain.GameSummary{PlayerScores: []domain.PlayerTotal{{UserID: "a", TotalWins: 3}, {UserID: "b", TotalWins: 1}}},
			want:    "a",
			ok:      true,
		},
		{
			name: "anonymous participant",
			summary: &domain.GameSummary{
				HasAnonymousPlayers: true,
				PlayerScores:        []domain.PlayerTotal{{UserID: "a", TotalWins: 3}, {UserID: "b", TotalWins: 1}},
			},
		},
		{
			name:    "all zero",
			summary: &domain.GameSummary{PlayerScores: []domain.PlayerTotal{{UserID: "a"}, {UserID: "b"}}},
		},
		{
			name:    "tie at the top",
			summary: &domain.GameSummary{PlayerScores: []domain.PlayerTotal{{UserID: "a", TotalWins: 2}, {UserID: "b", TotalWins: 2}, {UserID: "c", TotalWins: 1}}},
		},
		{
			name:    "no scores",
			summary: &domain.GameSummary{},
		},
		{
			name: "nil summary",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			winner, ok := SnapsWinner(tc.summary)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, winner.UserID)
		})
	}
}

func TestParseDirectMessage(t *testing.T) {
	cases := []struct {
		in       string
		receiver string
		body     string
		ok       bool
	}{
		{"@bob hello there", "bob", "hello there", true},
		{"  @bob   hi ", "bob", "hi", true},
		{"@bob", "bob", "", true},
		{"hello @bob", "", "", false},
		{"@ hi", "", "", false},
		{"", "", "", false},
	}

	for _, tc := range cases {
		receiver, body, ok := ParseDirectMessage(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.receiver, receiver, tc.in)
		assert.Equal(t, tc.body, body, tc.in)
	}
}
