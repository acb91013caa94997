package domain

import "time"

// AuditLog - a record of a boost movement, a curator action or a buddy change
type AuditLog struct {
	ID        int64          `db:"id" json:"id"`
	UserID    string         `db:"user_uuid" json:"userId"`
	Action    string         `db:"action" json:"action"`
	Category  string         `db:"category" json:"category"`
	Details   map[string]any `db:"details" json:"details"`
	IP        string         `db:"ip" json:"ip,omitempty"`
	UserAgent string         `db:"user_agent" json:"userAgent,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// Audit action categories
const (
	AuditCategoryBoost = "boost"
	AuditCategoryGame  = "game"
	AuditCategoryBuddy = "buddy"
)

// Audit actions
const (
	AuditActionBoostBuy   = "boost_buy"
	AuditActionBoostSell  = "boost_sell"
	AuditActionSnapsAward = "snaps_award"
	AuditActionGameCreate = "game_create"
	AuditActionGameDelete = "game_delete"
	AuditActionBuddyAdd   = "buddy_add"
	AuditActionBuddyDel   = "buddy_delete"
)

// LeaderboardEntry - a user ranked by the snaps won in finished games
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Snaps    int    `json:"snaps"`
}
