package game

import "sniperok/internal/domain"

// SnapsWinner picks the player that earns the snaps boost for a finished game.
// There is no winner when any participant is anonymous, when nobody scored,
// or when two or more players share the highest score.
func SnapsWinner(summary *domain.GameSummary) (domain.PlayerTotal, bool) {
	if summary == nil || summary.HasAnonymousPlayers || len(summary.PlayerScores) == 0 {
		return domain.PlayerTotal{}, false
	}

	best := 0
	for _, p := range summary.PlayerScores {
		if p.TotalWins > best {
			best = p.TotalWins
		}
	}
	if best == 0 {
		return domain.PlayerTotal{}, false
	}

	var winners []domain.PlayerTotal
	for _, p := range summary.PlayerScores {
		if p.TotalWins == best {
			winners = append(winners, p)
		}
	}
	if len(winners) != 1 {
		return domain.PlayerTotal{}, false
	}
	return winners[0], true
}
