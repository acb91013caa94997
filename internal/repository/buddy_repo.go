package repository

import (
	"context"
	"errors"
	"strings"

	"sniperok/internal/domain"
	"sniperok/internal/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrBuddyNotFound = errors.New("buddy not found")
	ErrBuddyExists   = errors.New("buddy already exists")
	ErrBuddySelf     = errors.New("cannot buddy yourself")
)

type BuddyRepository struct {
	db *pgxpool.Pool
}

func NewBuddyRepository(db *pgxpool.Pool) *BuddyRepository {
	return &BuddyRepository{db: db}
}

// Add records a pending buddy request from userID to the user named buddyName.
func (r *BuddyRepository) Add(ctx context.Context, userID, buddyName string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// usernames aren't unique in the mirror; the oldest account owns the name
	var buddyID string
	err = tx.QueryRow(ctx,
		`SELECT id::text FROM "user" WHERE username = $1 ORDER BY created_at, id LIMIT 1`,
		buddyName,
	).Scan(&buddyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrBuddyNotFound
	}
	if err != nil {
		return err
	}
	if strings.EqualFold(buddyID, userID) {
		return ErrBuddySelf
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO buddy (player_uuid, buddy_uuid, status_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (player_uuid, buddy_uuid) DO NOTHING`,
		userID, buddyID, domain.StatusPending.Code(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBuddyExists
	}

	if err := insertAudit(ctx, tx, &domain.AuditLog{
		UserID:   userID,
		Action:   domain.AuditActionBuddyAdd,
		Category: domain.AuditCategoryBuddy,
		Details:  map[string]any{"buddy": buddyName},
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	logger.Debug("buddy added", "user_id", userID, "buddy", buddyName)
	return nil
}

// List returns the requests username sent or received, by counterparty.
func (r *BuddyRepository) List(ctx context.Context, username string) ([]domain.Buddy, error) {
	rows, err := r.db.Query(ctx,
		`SELECT player, buddy, status_id,
		        CASE WHEN player = $1 THEN buddy ELSE player END AS counterparty
		 FROM buddy_vw
		 WHERE player = $1 OR buddy = $1
		 ORDER BY counterparty`,
		username,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.Buddy{}
	for rows.Next() {
		var (
			b    domain.Buddy
			code int
		)
		if err := rows.Scan(&b.Player, &b.Buddy, &code, &b.Counterparty); err != nil {
			return nil, err
		}
		b.Status = domain.StatusFromCode(code)
		res = append(res, b)
	}
	return res, rows.Err()
}

// Delete removes the request playerName sent to buddyName. userID is the
// caller, recorded in the audit log.
func (r *BuddyRepository) Delete(ctx context.Context, userID, playerName, buddyName string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM buddy b
		 USING "user" pu, "user" bu
		 WHERE pu.id = b.player_uuid AND bu.id = b.buddy_uuid
		   AND pu.username = $1 AND bu.username = $2`,
		playerName, buddyName,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBuddyNotFound
	}

	if err := insertAudit(ctx, tx, &domain.AuditLog{
		UserID:   userID,
		Action:   domain.AuditActionBuddyDel,
		Category: domain.AuditCategoryBuddy,
		Details:  map[string]any{"player": playerName, "buddy": buddyName},
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
