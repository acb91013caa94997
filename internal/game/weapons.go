package game

import (
	"sort"

	"sniperok/internal/domain"
)

type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeDraw Outcome = "draw"
)

// VictoryTable answers "does weapon a beat weapon b". Dominance comes from the
// weapon_victory table, never from arithmetic on the weapons.
type VictoryTable struct {
	beats map[string]map[string]struct{}
}

func NewVictoryTable(victories []domain.WeaponVictory) *VictoryTable {
	t := &VictoryTable{beats: make(map[string]map[string]struct{})}
	for _, v := range victories {
		if t.beats[v.Winner] == nil {
			t.beats[v.Winner] = make(map[string]struct{})
		}
		t.beats[v.Winner][v.Loser] = struct{}{}
	}
	return t
}

// ClassicVictories is the rock/paper/scissors rule set.
func ClassicVictories() []domain.WeaponVictory {
	return []domain.WeaponVictory{
		{Winner: "rock", Loser: "scissors"},
		{Winner: "paper", Loser: "rock"},
		{Winner: "scissors", Loser: "paper"},
	}
}

func (t *VictoryTable) Beats(a, b string) bool {
	_, ok := t.beats[a][b]
	return ok
}

// Outcome of weapon a played against weapon b, from a's point of view.
// Pairs with no rule in either direction are a draw.
func (t *VictoryTable) Outcome(a, b string) Outcome {
	switch {
	case t.Beats(a, b):
		return OutcomeWin
	case t.Beats(b, a):
		return OutcomeLose
	default:
		return OutcomeDraw
	}
}

// BeatenBy lists the weapons that a defeats, sorted.
func (t *VictoryTable) BeatenBy(a string) []string {
	out := make([]string, 0, len(t.beats[a]))
	for loser := range t.beats[a] {
		out = append(out, loser)
	}
	sort.Strings(out)
	return out
}
