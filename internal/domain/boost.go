package domain

import "time"

// BoostSnaps is awarded to the outright winner of a game and is the currency
// other boosts are bought with.
const BoostSnaps = "snaps"

// PlayableBoosts can be bought with snaps and sold back for snaps.
var PlayableBoosts = []string{"shield", "peek", "double"}

func IsPlayableBoost(code string) bool {
	for _, b := range PlayableBoosts {
		if b == code {
			return true
		}
	}
	return false
}

// BoostEntry - a row of the append-only boost ledger
type BoostEntry struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_uuid" json:"userId"`
	BoostType string    `db:"boost_type_code" json:"boostType"`
	Quantity  int       `db:"quantity" json:"quantity"`
	GameID    *int64    `db:"game_id" json:"gameId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// UserBoost - the balance of one boost type for a user
type UserBoost struct {
	BoostType string     `json:"boostType"`
	Icon      string     `json:"icon"`
	Period    *time.Time `json:"period,omitempty"`
	Quantity  int        `json:"quantity"`
}
