package repository

import (
	"context"
	"errors"
	"time"

	"sniperok/internal/domain"
	"sniperok/internal/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInvalidBoostType   = errors.New("invalid boost type")
	ErrInsufficientBoosts = errors.New("insufficient boosts")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
)

type BoostRepository struct {
	db *pgxpool.Pool
}

func NewBoostRepository(db *pgxpool.Pool) *BoostRepository {
	return &BoostRepository{db: db}
}

// ListUserBoosts returns every boost type with the user's balance, zero included.
func (r *BoostRepository) ListUserBoosts(ctx context.Context, userID string) ([]domain.UserBoost, error) {
	rows, err := r.db.Query(ctx,
		`SELECT boost_type_code, icon, period, quantity
		 FROM user_boost_vw
		 WHERE user_uuid = $1
		 ORDER BY playable, boost_type_code`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.UserBoost{}
	for rows.Next() {
		var (
			b      domain.UserBoost
			period *time.Time
		)
		if err := rows.Scan(&b.BoostType, &b.Icon, &period, &b.Quantity); err != nil {
			return nil, err
		}
		b.Period = period
		res = append(res, b)
	}
	return res, rows.Err()
}

// Buy swaps qty snaps for qty boosts of boostType.
func (r *BoostRepository) Buy(ctx context.Context, userID, boostType string, qty int) error {
	return r.convert(ctx, userID, domain.BoostSnaps, boostType, boostType, qty, domain.AuditActionBoostBuy)
}

// Sell swaps qty boosts of boostType back into snaps.
func (r *BoostRepository) Sell(ctx context.Context, userID, boostType string, qty int) error {
	return r.convert(ctx, userID, boostType, domain.BoostSnaps, boostType, qty, domain.AuditActionBoostSell)
}

// convert spends qty of from and credits qty of to, as two ledger rows.
func (r *BoostRepository) convert(ctx context.Context, userID, from, to, boostType string, qty int, action string) error {
	if !domain.IsPlayableBoost(boostType) {
		return ErrInvalidBoostType
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// блокируем пользователя, чтобы два обмена не потратили один баланс
	var id string
	if err := tx.QueryRow(ctx, `SELECT id::text FROM "user" WHERE id = $1 FOR UPDATE`, userID).Scan(&id); err != nil {
		return err
	}

	var balance int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0)::INT FROM user_boost WHERE user_uuid = $1 AND boost_type_code = $2`,
		userID, from,
	).Scan(&balance); err != nil {
		return err
	}
	if balance < qty {
		return ErrInsufficientBoosts
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO user_boost (user_uuid, boost_type_code, quantity) VALUES ($1, $2, $3), ($1, $4, $5)`,
		userID, from, -qty, to, qty,
	); err != nil {
		return err
	}

	if err := insertAudit(ctx, tx, &domain.AuditLog{
		UserID:   userID,
		Action:   action,
		Category: domain.AuditCategoryBoost,
		Details:  map[string]any{"boost_type": boostType, "quantity": qty},
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	logger.Info("boost converted", "user_id", userID, "from", from, "to", to, "quantity", qty)
	return nil
}

const awardsSQL = `
	SELECT user_uuid, SUM(quantity)::INT AS snaps,
	       RANK() OVER (ORDER BY SUM(quantity) DESC)::INT AS rank
	FROM user_boost
	WHERE boost_type_code = 'snaps' AND game_id IS NOT NULL
	GROUP BY user_uuid`

// Leaderboard ranks users by the snaps they won. Spending snaps on boosts
// doesn't move anyone down.
func (r *BoostRepository) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT a.rank, COALESCE(u.username, 'guest'), a.snaps
		 FROM (`+awardsSQL+`) a
		 JOIN "user" u ON u.id = a.user_uuid
		 ORDER BY a.rank, u.username
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.LeaderboardEntry{}
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.Rank, &e.Username, &e.Snaps); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// Rank returns the user's leaderboard position, 0 when they never won.
func (r *BoostRepository) Rank(ctx context.Context, userID string) (rank, snaps int, err error) {
	err = r.db.QueryRow(ctx,
		`SELECT a.rank, a.snaps FROM (`+awardsSQL+`) a WHERE a.user_uuid = $1`,
		userID,
	).Scan(&rank, &snaps)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, nil
	}
	return rank, snaps, err
}
