package domain

// Buddy - a buddy request between two users, seen from one of them.
// Counterparty is whichever of the two is not the viewer.
type Buddy struct {
	Player       string `json:"player"`
	Buddy        string `json:"buddy"`
	Counterparty string `json:"counterparty"`
	Status       Status `json:"status"`
}
