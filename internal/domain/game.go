package domain

import "time"

// Game - a timed match between players, played over a fixed number of rounds
type Game struct {
	ID         int64     `db:"id" json:"id"`
	IsPublic   bool      `db:"is_public" json:"isPublic"`
	MinPlayers int       `db:"min_players" json:"minPlayers"`
	MaxRounds  int       `db:"max_rounds" json:"maxRounds"`
	StartTime  time.Time `db:"start_time" json:"startTime"`
	Status     Status    `db:"status_id" json:"status"`
}

// GamePlayer - membership of a user in a game. PlayerSeq 1 is the curator.
type GamePlayer struct {
	GameID    int64  `db:"game_id" json:"gameId"`
	UserID    string `db:"player_uuid" json:"userId"`
	PlayerSeq int    `db:"player_seq" json:"playerSeq"`
	Status    Status `db:"status_id" json:"status"`
}

type GameRound struct {
	GameID   int64  `db:"game_id" json:"gameId"`
	RoundSeq int    `db:"round_seq" json:"roundSeq"`
	Status   Status `db:"status_id" json:"status"`
}

// PlayerTurn - a submitted weapon. Written at most once per (game, user, round).
type PlayerTurn struct {
	GameID             int64  `db:"game_id" json:"gameId"`
	UserID             string `db:"player_uuid" json:"userId"`
	RoundSeq           int    `db:"round_seq" json:"roundSeq"`
	WeaponCode         string `db:"weapon_code" json:"weapon"`
	ResponseTimeMillis int    `db:"response_time_millis" json:"responseTimeMillis"`
}

// GameDetail is the joined view of a game used by every state transition.
type GameDetail struct {
	GameID     int64     `json:"gameId"`
	Status     Status    `json:"status"`
	Curator    string    `json:"curator"`
	IsPublic   bool      `json:"isPublic"`
	StartTime  time.Time `json:"startTime"`
	MinPlayers int       `json:"minPlayers"`
	Players    int       `json:"players"`
	Connected  *int      `json:"connected,omitempty"`

	MaxRounds          int    `json:"maxRounds"`
	CurrentRound       int    `json:"currentRound"`
	CurrentRoundStatus Status `json:"currentRoundStatus"`
}

// GameListItem is a row of the game lobby.
type GameListItem struct {
	GameID     int64     `json:"id"`
	Status     Status    `json:"status"`
	Curator    string    `json:"curator"`
	IsPublic   bool      `json:"isPublic"`
	Players    int       `json:"players"`
	MinPlayers int       `json:"minPlayers"`
	MaxRounds  int       `json:"rounds"`
	StartTime  time.Time `json:"startTime"`
}

type PlayerSequence struct {
	Username  string `json:"username"`
	PlayerSeq int    `json:"playerSeq"`
}

// PlayerScore - one player's result within a round
type PlayerScore struct {
	PlayerSeq          int    `json:"playerSeq"`
	Username           string `json:"username"`
	Weapon             string `json:"weapon"`
	ResponseTimeMillis int    `json:"responseTimeMillis"`
	Wins               int    `json:"wins"`
	Losses             int    `json:"losses"`
	Ties               int    `json:"ties"`
	Score              int    `json:"score"`
}

type RoundScore struct {
	GameID   int64         `json:"gameId"`
	Status   Status        `json:"status"`
	RoundSeq int           `json:"roundSeq"`
	Scores   []PlayerScore `json:"scores"`
}

// PlayerTotal - wins summed over every round of a game
type PlayerTotal struct {
	UserID    string `json:"-"`
	Username  string `json:"username"`
	TotalWins int    `json:"totalWins"`
}

type GameSummary struct {
	GameID              int64         `json:"gameId"`
	PlayerScores        []PlayerTotal `json:"playerScores"`
	HasAnonymousPlayers bool          `json:"hasAnonymousPlayers"`
}

// Weapon - a move choice. Level groups weapons into rule sets.
type Weapon struct {
	Code  string `db:"code" json:"code"`
	Level int    `db:"level" json:"level"`
}

// WeaponVictory - Winner beats Loser
type WeaponVictory struct {
	Winner string `db:"winner_weapon_code" json:"winner"`
	Loser  string `db:"loser_weapon_code" json:"loser"`
}
